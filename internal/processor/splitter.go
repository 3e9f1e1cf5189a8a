package processor

import (
	"context"
	"fmt"

	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/symbolic"
	"voice-qa-go/internal/types"
)

// Splitter extracts questions and, when the transcript holds spoken math,
// evaluates it.
type Splitter struct {
	Splitter *extractor.Splitter
}

func (Splitter) Name() string { return StageSplitter }

func (s Splitter) Run(ctx context.Context, state types.PipelineState) (types.Update, error) {
	res, err := s.Splitter.Split(ctx, state.Transcript, state.Language)
	if err != nil {
		return types.Update{}, fmt.Errorf("split questions: %w", err)
	}
	u := types.Update{Questions: res.Questions}
	if res.Preprocessed.MathFound {
		u.MathResults = symbolic.Evaluate(res.Preprocessed.Normalized)
	}
	return u, nil
}
