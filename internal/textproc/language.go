package textproc

import (
	"strings"

	"golang.org/x/text/language"
)

var languageNames = map[string]string{
	"english":    "en",
	"french":     "fr",
	"spanish":    "es",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"polish":     "pl",
	"russian":    "ru",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"arabic":     "ar",
	"hindi":      "hi",
	"turkish":    "tr",
}

// NormalizeLanguage maps English language names ("Spanish") and BCP 47 tags
// ("es-MX", "spa") to a two-letter ISO 639-1 code. Unknown input is returned
// lower-cased.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return ""
	}
	if code, ok := languageNames[lang]; ok {
		return code
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	base, conf := tag.Base()
	if conf == language.No {
		return lang
	}
	return base.String()
}

var stopWords = map[string][]string{
	"en": {"the", "and", "is", "are", "what", "of", "to", "in", "you", "that", "it", "this", "how"},
	"es": {"el", "la", "los", "las", "de", "que", "y", "en", "es", "por", "qué", "un", "una", "cómo"},
	"fr": {"le", "la", "les", "et", "est", "de", "des", "que", "un", "une", "pas", "quel", "dans"},
	"de": {"der", "die", "das", "und", "ist", "nicht", "ein", "eine", "zu", "wie", "was", "mit"},
}

// DetectLanguage scores text against small stop-word lists and returns the
// winning language, or "" when no language clearly leads.
func DetectLanguage(text string) string {
	counts := map[string]int{}
	lookup := map[string][]string{}
	for lang, words := range stopWords {
		for _, w := range words {
			lookup[w] = append(lookup[w], lang)
		}
	}
	for _, tok := range tokens(strings.ToLower(text)) {
		for _, lang := range lookup[tok] {
			counts[lang]++
		}
	}

	best, bestCount, tie := "", 0, false
	for _, lang := range []string{"en", "es", "fr", "de"} {
		switch c := counts[lang]; {
		case c > bestCount:
			best, bestCount, tie = lang, c, false
		case c == bestCount && c > 0:
			tie = true
		}
	}
	if bestCount < 2 || tie {
		return ""
	}
	return best
}
