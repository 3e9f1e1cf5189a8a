// Package validate runs the pre-flight checks on an input audio file.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"voice-qa-go/internal/media"
)

// DefaultMaxBytes is the 500 MB size ceiling.
const DefaultMaxBytes int64 = 500 * 1024 * 1024

var (
	DefaultFormats = []string{"mp3", "wav", "flac", "m4a", "ogg"}
	DefaultCodecs  = []string{"mp3", "pcm_s16le", "flac", "aac", "opus"}
)

// Prober reports an audio file's codec and container format.
type Prober interface {
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
}

// Gate holds the limits. Zero values use the defaults.
type Gate struct {
	Prober   Prober
	MaxBytes int64
	Formats  []string
	Codecs   []string
}

// Check runs existence, regular-file, size, probe, format and codec checks
// in that order and returns the first failure as a *media.AudioError.
func (g *Gate) Check(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &media.AudioError{Kind: media.ErrFileNotFound, Detail: "audio file not found: " + path, Err: err}
		}
		return &media.AudioError{Kind: media.ErrFileNotFound, Detail: fmt.Sprintf("cannot access audio file %s: %v", path, err), Err: err}
	}
	if !info.Mode().IsRegular() {
		return &media.AudioError{Kind: media.ErrNotRegularFile, Detail: "path is not a file: " + path}
	}

	limit := g.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if info.Size() > limit {
		detail := fmt.Sprintf("audio file size (%.2f MB) exceeds the maximum allowed size of %.0f MB",
			float64(info.Size())/(1024*1024), float64(limit)/(1024*1024))
		return &media.AudioError{Kind: media.ErrLargeFile, Detail: detail}
	}

	if g.Prober == nil {
		return errors.New("validate: no prober configured")
	}
	probe, err := g.Prober.Probe(ctx, path)
	if err != nil {
		return err
	}

	formats := orDefault(g.Formats, DefaultFormats)
	if !anyAllowed(probe.Formats(), formats) {
		return &media.AudioError{
			Kind:   media.ErrUnsupportedFormat,
			Detail: fmt.Sprintf("unsupported audio format: %s. Supported formats are: %s", probe.Format, strings.Join(formats, ", ")),
		}
	}
	codecs := orDefault(g.Codecs, DefaultCodecs)
	if !anyAllowed([]string{probe.Codec}, codecs) {
		return &media.AudioError{
			Kind:   media.ErrUnsupportedCodec,
			Detail: fmt.Sprintf("unsupported audio codec: %s. Supported codecs are: %s", probe.Codec, strings.Join(codecs, ", ")),
		}
	}
	return nil
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func anyAllowed(values, allowed []string) bool {
	for _, v := range values {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(v), a) {
				return true
			}
		}
	}
	return false
}
