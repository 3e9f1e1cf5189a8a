// Package mathnorm rewrites spoken mathematics ("x squared plus two x") into
// symbolic notation that the symbolic package can parse.
package mathnorm

import (
	"regexp"
	"strings"
)

// maxPasses bounds the fixed-point loop of a single rule.
const maxPasses = 64

type rule struct {
	name    string
	re      *regexp.Regexp
	replace func(m []string) string
}

func template(tpl string) func([]string) string {
	return func(m []string) string {
		out := tpl
		for i := len(m) - 1; i >= 1; i-- {
			out = strings.ReplaceAll(out, "$"+string(rune('0'+i)), m[i])
		}
		return out
	}
}

func literal(sym string) func([]string) string {
	return func([]string) string { return sym }
}

// Left and right operands of an infix operator word: a single-letter word,
// a number, a spelled-out Greek letter, a bracket or an already rewritten
// symbol. A right operand may also open a function call.
const (
	greekWords   = `\b(?:pi|theta|alpha|beta|gamma|delta|lambda|sigma|omega)\b`
	funcCall     = `\b(?:sin|cos|tan|sqrt|exp|ln|log)\(`
	leftOperand  = `(\b[a-z]\b|\b[0-9]+[a-z]?\b|` + greekWords + `|[²³)πθαβγδλσω])`
	rightOperand = `(` + funcCall + `|\b[a-z]\b|` + greekWords + `|[0-9(√∛πθαβγδλσω-])`
)

// clauseEnd closes an integral or derivative span that has no explicit
// variable: punctuation, end of text, or a word that starts a new clause.
const clauseEnd = `\s*[?.!,;]|\s*$|\s+(?:and then|then|and what|what|which|how|now|next|also)\b`

func infix(name, words, sym string) rule {
	return rule{
		name:    name,
		re:      regexp.MustCompile(`(?i)` + leftOperand + `\s+(?:` + words + `)\s+` + rightOperand),
		replace: template("$1" + sym + "$2"),
	}
}

func word(name, words, sym string) rule {
	return rule{
		name:    name,
		re:      regexp.MustCompile(`(?i)\b(?:` + words + `)\b`),
		replace: literal(sym),
	}
}

// rules is applied in order; each entry runs to a fixed point before the next
// one starts. Every replacement removes the words its pattern needs, so no
// rule can fire again on its own output.
var rules = []rule{
	// functions and parentheses
	{"function", regexp.MustCompile(`(?i)\b((?:[a-z] of )+)([a-z])\b`), nest},
	{"parenthesis", regexp.MustCompile(`(?i)\b([a-z]) open parenthesis ([a-z0-9]+) close parenthesis`), template("$1($2)")},

	// exponents
	{"power", regexp.MustCompile(`(?i)\b([a-z]|[0-9]+) to the power of ([0-9]+)\b`), template("$1^$2")},
	{"squared", regexp.MustCompile(`(?i)(\b[a-z]\b|\b[0-9]+\b|\)) squared\b`), template("$1²")},
	{"cubed", regexp.MustCompile(`(?i)(\b[a-z]\b|\b[0-9]+\b|\)) cubed\b`), template("$1³")},

	// fractions
	{"fraction", regexp.MustCompile(`(?i)\b([a-z]|[0-9]+) over ([a-z]|[0-9]+)\b`), template("$1/$2")},

	// roots
	{"square root", regexp.MustCompile(`(?i)\bsquare root of ([a-z0-9]+)\b`), template("√$1")},
	{"cube root", regexp.MustCompile(`(?i)\bcube root of ([a-z0-9]+)\b`), template("∛$1")},

	// calculus
	{"integral", regexp.MustCompile(`(?i)\bintegral of (.+?)(?:\s+d([a-z])\b|(` + clauseEnd + `))`), integral},
	{"derivative", regexp.MustCompile(`(?i)\bderivative of (.+?)(?:\s+with respect to ([a-z])\b)?(` + clauseEnd + `|\s+(?:is|equals)\b)`), derivative},

	// trigonometry
	{"sine", regexp.MustCompile(`(?i)\bsine? of ([a-z0-9]+)\b`), template("sin($1)")},
	{"cosine", regexp.MustCompile(`(?i)\bcos(?:ine)? of ([a-z0-9]+)\b`), template("cos($1)")},
	{"tangent", regexp.MustCompile(`(?i)\btan(?:gent)? of ([a-z0-9]+)\b`), template("tan($1)")},

	// arithmetic
	infix("plus", "plus", "+"),
	infix("minus", "minus", "-"),
	infix("times", "times|multiplied by", "×"),
	infix("divided", "divided by", "÷"),
	infix("equals", "equals|is equal to", "="),

	// comparisons
	word("greater or equal", "greater than or equal to", "≥"),
	word("less or equal", "less than or equal to", "≤"),
	word("greater", "greater than", ">"),
	word("less", "less than", "<"),

	// greek letters
	word("pi", "pi", "π"),
	word("theta", "theta", "θ"),
	word("alpha", "alpha", "α"),
	word("beta", "beta", "β"),
	word("gamma", "gamma", "γ"),
	word("delta", "delta", "δ"),
	word("lambda", "lambda", "λ"),
	word("sigma", "sigma", "σ"),
	word("omega", "omega", "ω"),
}

// nest turns a chain "f of g of x" into f(g(x)).
func nest(m []string) string {
	out := m[2]
	names := strings.Fields(m[1])
	for i := len(names) - 1; i >= 0; i-- {
		if strings.EqualFold(names[i], "of") {
			continue
		}
		out = names[i] + "(" + out + ")"
	}
	return out
}

func integral(m []string) string {
	v := m[2]
	if v == "" {
		v = guessVariable(m[1])
	}
	return "∫" + strings.TrimSpace(m[1]) + " d" + strings.ToLower(v) + m[3]
}

func derivative(m []string) string {
	v := m[2]
	if v == "" {
		v = guessVariable(m[1])
	}
	v = strings.ToLower(v)
	return "d/d" + v + " " + strings.TrimSpace(m[1]) + m[3]
}

// guessVariable picks x when the expression mentions a standalone x and no
// standalone t, otherwise t.
func guessVariable(expr string) string {
	hasX, hasT := false, false
	for _, f := range strings.FieldsFunc(strings.ToLower(expr), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		switch f {
		case "x":
			hasX = true
		case "t":
			hasT = true
		}
	}
	if hasX && !hasT {
		return "x"
	}
	return "t"
}

// Normalize rewrites spoken math phrases into symbols. found reports whether
// any rule fired.
func Normalize(text string) (normalized string, found bool) {
	for _, r := range rules {
		for pass := 0; pass < maxPasses; pass++ {
			if !r.re.MatchString(text) {
				break
			}
			next := replaceAll(r, text)
			if next == text {
				break
			}
			found = true
			text = next
		}
	}
	return text, found
}

// replaceAll substitutes every non-overlapping match, using submatch indexes
// so word boundaries are evaluated against the whole text.
func replaceAll(r rule, text string) string {
	matches := r.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range matches {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(r.replace(groups))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
