// Package aggregator scores pipeline runs against ground truth and rolls the
// scores up per dataset.
package aggregator

import (
	"sort"

	"voice-qa-go/internal/dataset"
	"voice-qa-go/internal/types"
)

// CaseResult is the score of one evaluated case.
type CaseResult struct {
	Name             string  `json:"name"`
	AudioPath        string  `json:"audio_path"`
	Outcome          string  `json:"outcome"`
	WER              float64 `json:"wer"`
	AnswerSimilarity float64 `json:"answer_similarity"`
	HasAnswerScore   bool    `json:"has_answer_score"`
	Questions        int     `json:"questions"`
	Answers          int     `json:"answers"`
	LatencyMs        int64   `json:"latency_ms"`
	Error            string  `json:"error,omitempty"`
}

// Score compares a finished run with its case.
func Score(c dataset.Case, state types.PipelineState, outcome string, latencyMs int64) CaseResult {
	res := CaseResult{
		Name:      c.Name,
		AudioPath: c.AudioPath,
		Outcome:   outcome,
		WER:       WER(c.Transcript, state.Transcript),
		Questions: len(state.Questions),
		Answers:   len(state.Answers),
		LatencyMs: latencyMs,
	}
	generated := make([]string, 0, len(state.Answers))
	for _, a := range state.Answers {
		generated = append(generated, a.Answer)
	}
	res.AnswerSimilarity, res.HasAnswerScore = AnswerSimilarity(c.Answers, generated)
	return res
}

// Failed records a case whose run returned an error.
func Failed(c dataset.Case, err error, latencyMs int64) CaseResult {
	return CaseResult{Name: c.Name, AudioPath: c.AudioPath, Outcome: "error", WER: 1, LatencyMs: latencyMs, Error: err.Error()}
}

// Summary aggregates a set of case results.
type Summary struct {
	Cases                int            `json:"cases"`
	Failed               int            `json:"failed"`
	MeanWER              float64        `json:"mean_wer"`
	MeanAnswerSimilarity float64        `json:"mean_answer_similarity"`
	ScoredAnswers        int            `json:"scored_answers"`
	MeanLatencyMs        float64        `json:"mean_latency_ms"`
	P95LatencyMs         int64          `json:"p95_latency_ms"`
	Outcomes             map[string]int `json:"outcomes"`
}

// Aggregate averages WER over runs that did not error, and answer
// similarity over runs that had answers on both sides.
func Aggregate(results []CaseResult) Summary {
	s := Summary{Cases: len(results), Outcomes: map[string]int{}}
	var werSum, simSum, latSum float64
	var werN int
	latencies := make([]int64, 0, len(results))
	for _, r := range results {
		s.Outcomes[r.Outcome]++
		latSum += float64(r.LatencyMs)
		latencies = append(latencies, r.LatencyMs)
		if r.Error != "" {
			s.Failed++
			continue
		}
		werSum += r.WER
		werN++
		if r.HasAnswerScore {
			simSum += r.AnswerSimilarity
			s.ScoredAnswers++
		}
	}
	if werN > 0 {
		s.MeanWER = werSum / float64(werN)
	}
	if s.ScoredAnswers > 0 {
		s.MeanAnswerSimilarity = simSum / float64(s.ScoredAnswers)
	}
	if len(results) > 0 {
		s.MeanLatencyMs = latSum / float64(len(results))
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		idx := (len(latencies)*95 + 99) / 100
		s.P95LatencyMs = latencies[idx-1]
	}
	return s
}
