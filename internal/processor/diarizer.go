package processor

import (
	"context"
	"errors"
	"fmt"

	"voice-qa-go/internal/diarization"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/types"
)

// Diarizer finds speaker turns. A missing token downgrades to a single
// whole-file turn with a warning.
type Diarizer struct {
	Service diarization.Diarizer
	Log     *logger.Logger
}

func (Diarizer) Name() string { return StageDiarizer }

func (d Diarizer) Run(ctx context.Context, state types.PipelineState) (types.Update, error) {
	if d.Service == nil {
		return types.Update{SpeakerTimestamps: []types.SpeakerSegment{}}, nil
	}
	segs, err := d.Service.Diarize(ctx, state.AudioSource())
	if errors.Is(err, diarization.ErrTokenMissing) {
		log := d.Log
		if log == nil {
			log = logger.Discard()
		}
		log.WithError(err).Warn("diarization skipped, transcribing whole file")
		return types.Update{SpeakerTimestamps: []types.SpeakerSegment{}}, nil
	}
	if err != nil {
		return types.Update{}, fmt.Errorf("diarization: %w", err)
	}
	if segs == nil {
		segs = []types.SpeakerSegment{}
	}
	return types.Update{SpeakerTimestamps: segs}, nil
}
