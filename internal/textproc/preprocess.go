package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"

	"voice-qa-go/internal/mathnorm"
)

// Preprocessed is a transcript ready for the splitter.
type Preprocessed struct {
	// Text is canonicalized, symbol-annotated, math-normalized and stripped
	// of filler words. It is what language-model prompts receive.
	Text string
	// Normalized is canonicalized and math-normalized only; the symbolic
	// evaluator reads it.
	Normalized string
	MathFound  bool
}

// fillers are removed longest first.
var fillers = []string{"the final one", "and then", "uh", "um", "like", "so", "and"}

var (
	fillerRe     = buildFillerRe()
	spaceBeforeP = regexp.MustCompile(`\s+([?.!,;:])`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	annotationRe = regexp.MustCompile(`<[A-Za-z0-9_ \-]+>`)
)

func buildFillerRe() *regexp.Regexp {
	quoted := make([]string, len(fillers))
	for i, f := range fillers {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b,?`)
}

// Preprocess canonicalizes text to NFC, annotates emoji and math symbols,
// rewrites spoken math and strips filler words.
func Preprocess(text string) Preprocessed {
	canonical := norm.NFC.String(text)
	normalized, found := mathnorm.Normalize(canonical)

	annotated := normalizeAround(Annotate(canonical))
	return Preprocessed{
		Text:       StripFillers(annotated),
		Normalized: normalized,
		MathFound:  found,
	}
}

// normalizeAround runs the math normalizer on the text between annotations
// so symbol names are left as written.
func normalizeAround(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range annotationRe.FindAllStringIndex(text, -1) {
		gap, _ := mathnorm.Normalize(text[last:loc[0]])
		b.WriteString(gap)
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	tail, _ := mathnorm.Normalize(text[last:])
	b.WriteString(tail)
	return b.String()
}

// StripFillers removes the fixed filler words and tidies the spacing left
// behind.
func StripFillers(text string) string {
	out := fillerRe.ReplaceAllString(text, "")
	out = spaceBeforeP.ReplaceAllString(out, "$1")
	out = multiSpace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Annotate replaces emoji with <snake_case_name> and math symbols with
// <UNICODE NAME>. Variation selectors and joiners are dropped.
func Annotate(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\u200d' || r >= '\ufe00' && r <= '\ufe0f':
		case isMathSymbol(r):
			if name := runenames.Name(r); name != "" {
				b.WriteString("<" + name + ">")
				continue
			}
			b.WriteRune(r)
		case isEmoji(r):
			if name := runenames.Name(r); name != "" {
				b.WriteString("<" + strings.ToLower(strings.ReplaceAll(name, " ", "_")) + ">")
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isMathSymbol(r rune) bool {
	switch {
	case r >= 0x2200 && r <= 0x22FF, // mathematical operators
		r >= 0x2190 && r <= 0x21FF, // arrows
		r >= 0x25A0 && r <= 0x25FF, // geometric shapes
		r >= 0x2070 && r <= 0x209F, // super- and subscripts
		r >= 0x03B1 && r <= 0x03C9, // greek small letters
		r == '±', r == '−', r == '×', r == '÷', r == 'Π', r == 'Σ':
		return true
	}
	return false
}

func isEmoji(r rune) bool {
	if r >= 0x1F000 && r <= 0x1FAFF {
		return true
	}
	return r >= 0x2600 && r <= 0x27BF && unicode.Is(unicode.So, r)
}
