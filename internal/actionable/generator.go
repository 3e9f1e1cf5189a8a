// Package actionable turns an evaluation summary into short findings an
// operator can act on.
package actionable

import (
	"fmt"

	"voice-qa-go/internal/aggregator"
)

// Thresholds above (or below, for similarity) which a finding is raised.
const (
	HighWER          = 0.30
	LowSimilarity    = 0.50
	HighFailureRate  = 0.20
	HighEarlyReturns = 0.50
	SlowP95LatencyMs = 120_000
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate returns one card per triggered rule, or a single "no issues"
// card.
func Generate(s aggregator.Summary) []ActionCard {
	if s.Cases == 0 {
		return []ActionCard{{
			Insight: "No cases evaluated",
			Action:  "Add audio files with reference transcripts to the dataset",
			Impact:  "No quality signal available",
		}}
	}
	var cards []ActionCard
	if rate := float64(s.Failed) / float64(s.Cases); rate >= HighFailureRate {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%d of %d runs failed (%.0f%%)", s.Failed, s.Cases, rate*100),
			Action:  "Check audio formats and service credentials in the run history",
			Impact:  "Failed runs produce no answers",
		})
	}
	if s.Cases > s.Failed && s.MeanWER >= HighWER {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("High transcription error rate (WER %.0f%%)", s.MeanWER*100),
			Action:  "Enable audio enhancement or pass the spoken language explicitly",
			Impact:  "Questions are split from a noisy transcript",
		})
	}
	if s.ScoredAnswers > 0 && s.MeanAnswerSimilarity < LowSimilarity {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Answers diverge from the references (similarity %.2f)", s.MeanAnswerSimilarity),
			Action:  "Review the answer prompts or switch to a stronger model",
			Impact:  "Users receive wrong or incomplete answers",
		})
	}
	early := s.Outcomes["profanity"] + s.Outcomes["no_questions"]
	if rate := float64(early) / float64(s.Cases); rate >= HighEarlyReturns {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%d of %d runs stopped before answering", early, s.Cases),
			Action:  "Check the profanity list and the question splitter prompt",
			Impact:  "Valid questions may be dropped",
		})
	}
	if s.P95LatencyMs >= SlowP95LatencyMs {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Slow runs (p95 %.0fs)", float64(s.P95LatencyMs)/1000),
			Action:  "Keep the stage cache enabled and disable diarization for single-speaker audio",
			Impact:  "Long waits for results",
		})
	}
	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "No quality issue detected",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		})
	}
	return cards
}
