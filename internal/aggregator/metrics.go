package aggregator

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// words lowercases, strips punctuation and splits on whitespace.
func words(s string) []string {
	s = norm.NFC.String(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// WER is the word error rate of hypothesis against reference: word-level
// edit distance divided by the reference length. An empty reference scores 0
// against an empty hypothesis and 1 otherwise.
func WER(reference, hypothesis string) float64 {
	ref, hyp := words(reference), words(hypothesis)
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}
	prev := make([]int, len(hyp)+1)
	cur := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ref); i++ {
		cur[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return float64(prev[len(hyp)]) / float64(len(ref))
}

// Similarity is the token-overlap F1 of two answers, in [0,1].
func Similarity(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		if len(wa) == len(wb) {
			return 1
		}
		return 0
	}
	counts := make(map[string]int, len(wa))
	for _, w := range wa {
		counts[w]++
	}
	common := 0
	for _, w := range wb {
		if counts[w] > 0 {
			counts[w]--
			common++
		}
	}
	if common == 0 {
		return 0
	}
	p := float64(common) / float64(len(wb))
	r := float64(common) / float64(len(wa))
	return 2 * p * r / (p + r)
}

// AnswerSimilarity matches every reference answer with its closest
// generated answer and averages the scores. It reports false when either
// side is empty.
func AnswerSimilarity(reference, generated []string) (float64, bool) {
	if len(reference) == 0 || len(generated) == 0 {
		return 0, false
	}
	total := 0.0
	for _, ref := range reference {
		best := 0.0
		for _, gen := range generated {
			if s := Similarity(ref, gen); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(reference)), true
}
