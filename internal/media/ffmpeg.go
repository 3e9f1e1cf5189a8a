package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"voice-qa-go/internal/logger"
)

// EnhanceFilter is the ffmpeg audio filter chain used by Enhance: a band-pass
// around the speech range followed by dynamic range compression.
const EnhanceFilter = "highpass=f=200,lowpass=f=3000,acompressor"

// Tools runs ffmpeg and ffprobe through a Runner.
type Tools struct {
	Runner  Runner
	FFmpeg  string
	FFprobe string
	Log     *logger.Logger
}

// NewTools returns Tools using the binaries on PATH when names are empty.
func NewTools(runner Runner, ffmpeg, ffprobe string, log *logger.Logger) *Tools {
	if runner == nil {
		runner = ExecRunner{}
	}
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Tools{Runner: runner, FFmpeg: ffmpeg, FFprobe: ffprobe, Log: log.WithComponent("media")}
}

// ProbeResult is the first audio stream's codec and the container format.
type ProbeResult struct {
	Codec  string
	Format string
}

// Formats splits a comma-separated ffprobe format list ("mov,mp4,m4a").
func (p ProbeResult) Formats() []string {
	var out []string
	for _, f := range strings.Split(p.Format, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Probe asks ffprobe for the codec of stream a:0 and the container format.
// A failed probe or fewer than two output lines means the file is corrupt.
func (t *Tools) Probe(ctx context.Context, path string) (ProbeResult, error) {
	res, err := t.Runner.Run(ctx, t.FFprobe,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name:format=format_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil || res.ExitCode != 0 {
		return ProbeResult{}, newAudioError(ErrCorruptAudio, err, "ffprobe failed to analyze audio file: %s", strings.TrimSpace(res.Stderr))
	}

	var lines []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return ProbeResult{}, newAudioError(ErrCorruptAudio, nil, "could not get audio stream information from %s; it might be corrupt or not an audio file", path)
	}
	return ProbeResult{Codec: lines[0], Format: lines[1]}, nil
}

// EnhancedPath is where Enhance writes its output for input.
func EnhancedPath(input, outDir string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, stem+"_enhanced"+ext)
}

// Enhance filters input into outDir and returns the new path. It never
// fails: on any error the input path is returned unchanged.
func (t *Tools) Enhance(ctx context.Context, input, outDir string) string {
	out := EnhancedPath(input, outDir)
	log := t.Log.WithField("input", input)
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			log.WithError(err).Warn("enhancement skipped, cannot create output dir")
			return input
		}
	}
	res, err := t.Runner.Run(ctx, t.FFmpeg, "-i", input, "-af", EnhanceFilter, "-y", out)
	if err != nil || res.ExitCode != 0 {
		log.WithField("stderr", strings.TrimSpace(res.Stderr)).Warn("audio enhancement failed, using original audio")
		return input
	}
	log.WithField("output", out).Info("audio enhanced")
	return out
}

// Clip extracts [start, end) seconds of input into a 16 kHz mono WAV file.
func (t *Tools) Clip(ctx context.Context, input string, start, end float64, out string) error {
	if end <= start {
		return fmt.Errorf("clip: empty range %.3f-%.3f", start, end)
	}
	res, err := t.Runner.Run(ctx, t.FFmpeg,
		"-v", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", input,
		"-ac", "1",
		"-ar", "16000",
		"-y", out,
	)
	if err != nil || res.ExitCode != 0 {
		return fmt.Errorf("clip %s: %s: %w", filepath.Base(input), strings.TrimSpace(res.Stderr), errOrExit(err, res.ExitCode))
	}
	return nil
}

// CheckDecodable decodes the whole file to the null muxer. Any decoder
// output on stderr means the audio is corrupt.
func (t *Tools) CheckDecodable(ctx context.Context, path string) error {
	res, err := t.Runner.Run(ctx, t.FFmpeg, "-v", "error", "-i", path, "-f", "null", "-")
	if err != nil || res.ExitCode != 0 {
		return newAudioError(ErrCorruptAudio, err, "ffmpeg failed to analyze audio file for corruption: %s", strings.TrimSpace(res.Stderr))
	}
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		return newAudioError(ErrCorruptAudio, nil, "audio file appears corrupt or unreadable: %s", stderr)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func errOrExit(err error, code int) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("exit status %d", code)
}
