package processor

import (
	"context"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/types"
)

// ProfanityDetector is satisfied by screening.Screener.
type ProfanityDetector interface {
	ContainsProfanity(text string) bool
}

// ProfanityChecker flags transcripts that must not be processed further.
type ProfanityChecker struct {
	Detector ProfanityDetector
	Log      *logger.Logger
}

func (ProfanityChecker) Name() string { return StageProfanity }

func (p ProfanityChecker) Run(_ context.Context, state types.PipelineState) (types.Update, error) {
	found := p.Detector.ContainsProfanity(state.Transcript)
	if found && p.Log != nil {
		p.Log.Warn("offensive language detected, stopping")
	}
	return types.Update{ProfanityDetected: types.BoolPtr(found)}, nil
}
