// Package textproc prepares transcripts for question extraction: sentence
// segmentation, per-language question detection, Unicode canonicalization and
// symbol annotation, and language identification.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultLanguage is assumed when a run has no language yet.
const DefaultLanguage = "en"

// interrogatives lists the words that open a question, per language.
var interrogatives = map[string][]string{
	"en": {"what", "who", "whom", "whose", "where", "when", "why", "how", "which",
		"is", "are", "do", "does", "did", "can", "could", "will", "would", "should"},
	"es": {"qué", "quién", "quiénes", "dónde", "adónde", "cuándo", "por qué", "cómo", "cuál", "cuáles",
		"cuánto", "cuánta", "cuántos", "cuántas"},
	"fr": {"qui", "que", "quoi", "où", "quand", "pourquoi", "comment", "quel", "quelle", "quels", "quelles",
		"combien", "est-ce"},
	"de": {"wer", "wen", "wem", "was", "wo", "wohin", "woher", "wann", "warum", "wieso", "weshalb", "wie",
		"welche", "welcher", "welches", "welchen"},
}

// englishMarkers are auxiliaries and interrogatives that flag an English
// sentence as a candidate question wherever they appear.
var englishMarkers = map[string]bool{
	"what": true, "who": true, "where": true, "when": true, "why": true, "how": true,
	"is": true, "are": true, "do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true, "should": true,
}

// Supported reports whether sentence-level question detection exists for
// language. The empty language counts as English.
func Supported(lang string) bool {
	_, ok := interrogatives[baseLanguage(lang)]
	return ok
}

// Segment splits text after '.', '?' or '!' followed by whitespace.
func Segment(text string) []string {
	var out []string
	rs := []rune(text)
	start := 0
	for i := 0; i < len(rs); i++ {
		if !isTerminal(rs[i]) || i+1 >= len(rs) || !unicode.IsSpace(rs[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(rs[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(rs[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

// IsQuestion classifies one sentence. A trailing question mark always
// counts; otherwise the sentence must open with an interrogative of the
// language, or, for English, contain an auxiliary or interrogative word.
func IsQuestion(sentence, lang string) bool {
	s := strings.TrimSpace(norm.NFC.String(sentence))
	if s == "" {
		return false
	}
	if strings.HasSuffix(s, "?") || strings.HasSuffix(s, "？") {
		return true
	}
	base := baseLanguage(lang)
	words, ok := interrogatives[base]
	if !ok {
		return false
	}
	lower := cases.Lower(language.Make(base)).String(s)
	lower = strings.TrimLeft(lower, "¿¡\"' ")
	for _, w := range words {
		if hasWordPrefix(lower, w) {
			return true
		}
	}
	if base == "en" {
		for _, tok := range tokens(lower) {
			if englishMarkers[tok] {
				return true
			}
		}
	}
	return false
}

func hasWordPrefix(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	rest := s[len(word):]
	if rest == "" {
		return true
	}
	r := []rune(rest)[0]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func baseLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage
	}
	return NormalizeLanguage(lang)
}
