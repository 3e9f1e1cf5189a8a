package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/types"
)

const (
	// PromptAnswerGenerator answers every question at once with the full
	// transcript as context.
	PromptAnswerGenerator = "answer_generator"
	// PromptAnswerQuestion answers one question.
	PromptAnswerQuestion = "answer_question"
)

// Generator answers the extracted questions.
type Generator struct {
	LLM extractor.Invoker
	Log *logger.Logger
}

func (Generator) Name() string { return StageGenerator }

type questionJSON struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

// Run sends one full-context prompt and keeps answers whose id matches a
// known question. Questions left unanswered are asked one at a time; a reply
// without JSON is used as the answer text.
func (g Generator) Run(ctx context.Context, state types.PipelineState) (types.Update, error) {
	log := g.Log
	if log == nil {
		log = logger.Discard()
	}
	if len(state.Questions) == 0 {
		return types.Update{}, nil
	}

	qs := make([]questionJSON, 0, len(state.Questions))
	for _, q := range state.Questions {
		qs = append(qs, questionJSON{ID: q.ID, Question: q.Question, Options: q.Options})
	}
	qsJSON, err := json.MarshalIndent(qs, "", "  ")
	if err != nil {
		return types.Update{}, fmt.Errorf("encode questions: %w", err)
	}
	inputs := map[string]string{
		"transcript": state.Transcript,
		"questions":  string(qsJSON),
		"language":   state.Language,
	}
	if !state.MathResults.Empty() {
		mathJSON, _ := json.Marshal(state.MathResults)
		inputs["math"] = string(mathJSON)
	}

	raw, err := g.LLM.Invoke(ctx, PromptAnswerGenerator, inputs)
	if err != nil {
		return types.Update{}, fmt.Errorf("generate answers: %w", err)
	}

	byID := map[string]string{}
	if records, ok := extractor.ExtractArray(raw); ok {
		for _, rec := range records {
			id := extractor.Field(rec, "id", "qid")
			answer := extractor.Field(rec, "answer")
			if _, known := state.QuestionByID(id); !known || answer == "" {
				continue
			}
			if _, dup := byID[id]; !dup {
				byID[id] = answer
			}
		}
	} else {
		log.Warn("no answer array in model output, asking questions one at a time")
	}

	answers := make([]types.Answer, 0, len(state.Questions))
	for _, q := range state.Questions {
		answer, ok := byID[q.ID]
		if !ok {
			answer, err = g.single(ctx, state, q)
			if err != nil {
				return types.Update{}, err
			}
		}
		answers = append(answers, types.Answer{QID: q.ID, Question: q.Question, Answer: answer})
	}
	log.WithField("answers", len(answers)).Info("answers generated")
	return types.Update{Answers: answers}, nil
}

func (g Generator) single(ctx context.Context, state types.PipelineState, q types.Question) (string, error) {
	raw, err := g.LLM.Invoke(ctx, PromptAnswerQuestion, map[string]string{
		"transcript": state.Transcript,
		"question":   q.Question,
		"options":    strings.Join(q.Options, "\n"),
		"language":   state.Language,
	})
	if err != nil {
		return "", fmt.Errorf("answer question %s: %w", q.ID, err)
	}
	if obj, ok := extractor.ExtractObject(raw); ok {
		if a := extractor.Field(obj, "answer"); a != "" {
			return a, nil
		}
	}
	return strings.TrimSpace(extractor.StripFences(raw)), nil
}
