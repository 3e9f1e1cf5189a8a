package actionable

import (
	"strings"
	"testing"

	"voice-qa-go/internal/aggregator"
)

func TestGenerateHealthy(t *testing.T) {
	cards := Generate(aggregator.Summary{Cases: 4, MeanWER: 0.05, MeanAnswerSimilarity: 0.9, ScoredAnswers: 4, Outcomes: map[string]int{"completed": 4}})
	if len(cards) != 1 || cards[0].Insight != "No quality issue detected" {
		t.Fatalf("unexpected cards %+v", cards)
	}
}

func TestGenerateFlagsProblems(t *testing.T) {
	s := aggregator.Summary{
		Cases:                4,
		Failed:               1,
		MeanWER:              0.4,
		MeanAnswerSimilarity: 0.2,
		ScoredAnswers:        2,
		Outcomes:             map[string]int{"completed": 1, "error": 1, "no_questions": 2},
	}
	cards := Generate(s)
	var insights []string
	for _, c := range cards {
		insights = append(insights, c.Insight)
	}
	joined := strings.Join(insights, "\n")
	for _, want := range []string{"1 of 4 runs failed", "WER 40%", "similarity 0.20", "2 of 4 runs stopped"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %s", want, joined)
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	if cards := Generate(aggregator.Summary{}); len(cards) != 1 || !strings.Contains(cards[0].Insight, "No cases") {
		t.Fatalf("unexpected cards %+v", cards)
	}
}
