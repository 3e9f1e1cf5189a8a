package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/textproc"
	"voice-qa-go/internal/transcription"
	"voice-qa-go/internal/types"
)

// AudioTools is the subset of media.Tools the transcriber needs.
type AudioTools interface {
	CheckDecodable(ctx context.Context, path string) error
	Clip(ctx context.Context, input string, start, end float64, out string) error
}

// maxMergeGap joins consecutive turns of one speaker separated by less than
// this many seconds into a single clip.
const maxMergeGap = 1.0

// Transcriber turns the audio into text, per speaker turn when diarization
// found any.
type Transcriber struct {
	Service transcription.Transcriber
	Tools   AudioTools
	WorkDir string
	Log     *logger.Logger
}

func (Transcriber) Name() string { return StageTranscriber }

func (t Transcriber) Run(ctx context.Context, state types.PipelineState) (types.Update, error) {
	log := t.Log
	if log == nil {
		log = logger.Discard()
	}
	source := state.AudioSource()
	if t.Tools != nil {
		if err := t.Tools.CheckDecodable(ctx, source); err != nil {
			return types.Update{}, err
		}
	}

	var (
		text     string
		reported string
		segments []types.SpeakerTranscript
	)
	turns := mergeTurns(state.SpeakerTimestamps)
	if len(turns) == 0 || t.Tools == nil {
		res, err := t.Service.Transcribe(ctx, transcription.Request{AudioPath: source, Language: state.Language})
		if err != nil {
			return types.Update{}, fmt.Errorf("transcribe: %w", err)
		}
		text, reported = strings.TrimSpace(res.Text), res.Language
	} else {
		dir, err := os.MkdirTemp(t.WorkDir, "clips-")
		if err != nil {
			return types.Update{}, fmt.Errorf("transcribe: clip dir: %w", err)
		}
		defer os.RemoveAll(dir)

		var parts []string
		for i, turn := range turns {
			clip := filepath.Join(dir, fmt.Sprintf("%03d.wav", i))
			if err := t.Tools.Clip(ctx, source, turn.Start, turn.End, clip); err != nil {
				return types.Update{}, fmt.Errorf("transcribe: %w", err)
			}
			res, err := t.Service.Transcribe(ctx, transcription.Request{AudioPath: clip, Language: state.Language})
			if err != nil {
				return types.Update{}, fmt.Errorf("transcribe %s %.1f-%.1f: %w", turn.Speaker, turn.Start, turn.End, err)
			}
			seg := strings.TrimSpace(res.Text)
			if reported == "" {
				reported = res.Language
			}
			if seg == "" {
				continue
			}
			segments = append(segments, types.SpeakerTranscript{Speaker: turn.Speaker, Start: turn.Start, End: turn.End, Text: seg})
			parts = append(parts, seg)
		}
		text = strings.Join(parts, " ")
	}

	u := types.Update{Transcript: types.StringPtr(text), SpeakerTranscripts: segments}
	if state.Language == "" {
		lang := textproc.NormalizeLanguage(reported)
		if lang == "" {
			lang = textproc.DetectLanguage(text)
		}
		if lang != "" {
			u.Language = types.StringPtr(lang)
		}
	}
	log.WithField("chars", len(text)).WithField("turns", len(turns)).Info("transcription finished")
	return u, nil
}

func mergeTurns(segs []types.SpeakerSegment) []types.SpeakerSegment {
	var out []types.SpeakerSegment
	for _, s := range segs {
		if s.End <= s.Start {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Speaker == s.Speaker && s.Start-out[n-1].End < maxMergeGap {
			if s.End > out[n-1].End {
				out[n-1].End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
