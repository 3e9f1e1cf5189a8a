// Package processor holds the pipeline's stage nodes. Each node reads the
// accumulated state and returns only the fields it adds.
package processor

import (
	"context"

	"voice-qa-go/internal/types"
)

// Stage names double as the orchestrator's state names and cache stage keys.
const (
	StageEnhancer    = "enhancer"
	StageDiarizer    = "diarizer"
	StageTranscriber = "transcriber"
	StageProfanity   = "profanity_checker"
	StageSplitter    = "splitter"
	StageGenerator   = "generator"
)

// Node is one pipeline stage.
type Node interface {
	Name() string
	Run(ctx context.Context, state types.PipelineState) (types.Update, error)
}

// Func adapts a function to Node.
type Func struct {
	Stage string
	Fn    func(ctx context.Context, state types.PipelineState) (types.Update, error)
}

func (f Func) Name() string { return f.Stage }

func (f Func) Run(ctx context.Context, state types.PipelineState) (types.Update, error) {
	return f.Fn(ctx, state)
}
