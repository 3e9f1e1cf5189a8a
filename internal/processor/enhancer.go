package processor

import (
	"context"

	"voice-qa-go/internal/types"
)

// AudioEnhancer filters a file and returns the path to use from now on.
type AudioEnhancer interface {
	Enhance(ctx context.Context, input, outDir string) string
}

// Enhancer runs the audio clean-up filter.
type Enhancer struct {
	Tools  AudioEnhancer
	OutDir string
}

func (Enhancer) Name() string { return StageEnhancer }

// Run never fails; an unchanged path means enhancement was skipped.
func (e Enhancer) Run(ctx context.Context, state types.PipelineState) (types.Update, error) {
	out := e.Tools.Enhance(ctx, state.AudioFile, e.OutDir)
	if out == "" || out == state.AudioFile {
		return types.Update{}, nil
	}
	return types.Update{EnhancedAudioFile: types.StringPtr(out)}, nil
}
