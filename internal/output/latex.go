package output

import (
	"regexp"
	"strings"
)

type latexRule struct {
	re   *regexp.Regexp
	repl string
}

var superscripts = strings.NewReplacer(
	"0", "⁰", "1", "¹", "2", "²", "3", "³", "4", "⁴",
	"5", "⁵", "6", "⁶", "7", "⁷", "8", "⁸", "9", "⁹", "-", "⁻",
)

var latexRules = []latexRule{
	{regexp.MustCompile(`\\left\(`), "("},
	{regexp.MustCompile(`\s*\\right\)`), ")"},
	{regexp.MustCompile(`\\left\|`), "|"},
	{regexp.MustCompile(`\\right\|`), "|"},
	{regexp.MustCompile(`\\(sin|cos|tan|log|ln)\{([^{}]*)\}`), "$1$2"},
	{regexp.MustCompile(`\\frac\{([^{}]+)\}\{([^{}]+)\}`), "$1/$2"},
	{regexp.MustCompile(`\\sqrt\[3\]\{([^{}]+)\}`), "∛($1)"},
	{regexp.MustCompile(`\\sqrt\{([^{}]+)\}`), "√($1)"},
	{regexp.MustCompile(`\\int`), "∫"},
	{regexp.MustCompile(`\\sum`), "∑"},
	{regexp.MustCompile(`\\pi\b`), "π"},
	{regexp.MustCompile(`\\theta\b`), "θ"},
	{regexp.MustCompile(`\\alpha\b`), "α"},
	{regexp.MustCompile(`\\beta\b`), "β"},
	{regexp.MustCompile(`\\gamma\b`), "γ"},
	{regexp.MustCompile(`\\delta\b`), "δ"},
	{regexp.MustCompile(`\\lambda\b`), "λ"},
	{regexp.MustCompile(`\\mu\b`), "μ"},
	{regexp.MustCompile(`\\sigma\b`), "σ"},
	{regexp.MustCompile(`\\phi\b`), "φ"},
	{regexp.MustCompile(`\\omega\b`), "ω"},
	{regexp.MustCompile(`\\leq`), "≤"},
	{regexp.MustCompile(`\\geq`), "≥"},
	{regexp.MustCompile(`\\neq`), "≠"},
	{regexp.MustCompile(`\\times`), "×"},
	{regexp.MustCompile(`\\div`), "÷"},
	{regexp.MustCompile(`\\cdot`), "·"},
	{regexp.MustCompile(`\\pm`), "±"},
	{regexp.MustCompile(`\\rightarrow`), "→"},
	{regexp.MustCompile(`\\leftarrow`), "←"},
	{regexp.MustCompile(`\\infty`), "∞"},
}

var (
	supBraceRe = regexp.MustCompile(`\^\{(-?[0-9]+)\}`)
	supBareRe  = regexp.MustCompile(`\^([0-9])`)
	bracesRe   = regexp.MustCompile(`[{}]`)
	dollarRe   = regexp.MustCompile(`\${1,2}`)
)

// LatexToUnicode rewrites common LaTeX math into plain Unicode for the text
// and PDF renderers. Unknown commands are left as they are.
func LatexToUnicode(text string) string {
	if !strings.ContainsAny(text, `\^$`) {
		return text
	}
	// Inner-most constructs first; repeat for nesting.
	for i := 0; i < 4; i++ {
		before := text
		text = supBraceRe.ReplaceAllStringFunc(text, func(m string) string {
			return superscripts.Replace(supBraceRe.FindStringSubmatch(m)[1])
		})
		for _, r := range latexRules {
			text = r.re.ReplaceAllString(text, r.repl)
		}
		if text == before {
			break
		}
	}
	text = supBareRe.ReplaceAllStringFunc(text, func(m string) string {
		return superscripts.Replace(m[1:])
	})
	if !strings.Contains(text, `\`) {
		text = bracesRe.ReplaceAllString(text, "")
	}
	return dollarRe.ReplaceAllString(text, "")
}
