package symbolic

import (
	"regexp"
	"strings"
	"unicode"

	"voice-qa-go/internal/types"
)

var (
	integralRe   = regexp.MustCompile(`∫\s*(.+?)\s+d([a-zA-Z])\b`)
	derivativeRe = regexp.MustCompile(`\bd/d([a-zA-Z])\s+`)
)

const (
	mathRunes     = "0123456789.+-*/^=()[]|×÷·⋅−²³√∛πθαβγδλμσφω"
	operatorRunes = "+-*/^×÷·⋅−²³√∛"
)

// Evaluate finds the math in a normalized transcript and computes what it
// can: an integral for "∫ … dv", a derivative for "d/dv …", the solutions of
// an equation, or the value of a closed arithmetic expression. It returns nil
// when nothing was computed.
func Evaluate(text string) *types.MathResults {
	res := &types.MathResults{}

	if m := integralRe.FindStringSubmatch(text); m != nil {
		if e := ParseExpr(m[1]); e != nil {
			if r := Integral(e, strings.ToLower(m[2])); r != nil {
				res.Expression = strings.TrimSpace(m[1])
				res.Integral = Render(r)
			}
		}
	}

	if loc := derivativeRe.FindStringSubmatchIndex(text); loc != nil {
		v := strings.ToLower(text[loc[2]:loc[3]])
		span := leadingSpan(text[loc[1]:])
		if e := ParseExpr(span); e != nil {
			if d := Derivative(e, v); d != nil {
				if res.Expression == "" {
					res.Expression = span
				}
				res.Derivative = Render(d)
			}
		}
	}

	if res.Integral == "" && res.Derivative == "" {
		if span, score := bestSpan(text); span != "" {
			switch n := Parse(span).(type) {
			case Equation:
				if v, roots := SolveAuto(n); len(roots) > 0 {
					res.Expression = span
					res.Solution = formatRoots(v, roots)
				}
			case Expr:
				if score >= scoreOperator && len(Symbols(n)) == 0 {
					res.Expression = span
					res.Solution = Render(n)
				}
			}
		}
	}

	if res.Empty() {
		return nil
	}
	return res
}

func formatRoots(v string, roots []Expr) string {
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = v + " = " + Render(r)
	}
	return strings.Join(parts, ", ")
}

type spanWord struct {
	text   string
	math   bool
	strong bool
	stop   bool
}

func scanWords(text string) []spanWord {
	fields := strings.Fields(text)
	out := make([]spanWord, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimLeft(f, "¿¡\"'")
		trimmed := strings.TrimRight(w, "?.!,;:\"'")
		strong := isStrong(trimmed)
		out = append(out, spanWord{
			text:   trimmed,
			math:   isMathWord(trimmed, strong),
			strong: strong,
			stop:   trimmed != w,
		})
	}
	return out
}

func isStrong(w string) bool {
	for _, r := range w {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isMathWord(w string, strong bool) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !strings.ContainsRune(mathRunes, r) && !(r < unicode.MaxASCII && unicode.IsLetter(r)) {
			return false
		}
	}
	return strong || len(w) == 1
}

// leadingSpan returns the run of math words at the start of text.
func leadingSpan(text string) string {
	var parts []string
	for _, w := range scanWords(text) {
		if !w.math {
			break
		}
		parts = append(parts, w.text)
		if w.stop {
			break
		}
	}
	return strings.Join(parts, " ")
}

const (
	scoreOperand = iota + 1
	scoreOperator
	scoreEquation
)

// bestSpan picks the most promising run of math words: equations first, then
// expressions with an operator, longest first within a class.
func bestSpan(text string) (string, int) {
	var best string
	bestScore := 0
	var run []spanWord
	flush := func() {
		for len(run) > 0 && !run[0].strong && isArticle(run[0].text) {
			run = run[1:]
		}
		strong := false
		parts := make([]string, len(run))
		for i, w := range run {
			parts[i] = w.text
			strong = strong || w.strong
		}
		run = run[:0]
		if !strong {
			return
		}
		span := strings.Join(parts, " ")
		score := scoreOperand
		switch {
		case strings.Contains(span, "="):
			score = scoreEquation
		case strings.ContainsAny(span, operatorRunes):
			score = scoreOperator
		}
		if score > bestScore || score == bestScore && len(span) > len(best) {
			best, bestScore = span, score
		}
	}
	for _, w := range scanWords(text) {
		if !w.math {
			flush()
			continue
		}
		run = append(run, w)
		if w.stop {
			flush()
		}
	}
	flush()
	return best, bestScore
}

func isArticle(w string) bool {
	switch strings.ToLower(w) {
	case "a", "i":
		return true
	}
	return false
}
