// Package screening decides whether a transcript may be processed and which
// sensitive topics a question touches.
package screening

import (
	"bufio"
	_ "embed"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

//go:embed profanity.txt
var defaultWordList string

// ProfanityFilter matches a fixed list of words and phrases.
type ProfanityFilter struct {
	re *regexp.Regexp
}

// NewProfanityFilter builds a filter from the embedded list plus extra.
func NewProfanityFilter(extra ...string) *ProfanityFilter {
	words := parseWordList(defaultWordList)
	for _, w := range extra {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	// Longest first so phrases win over their prefixes.
	sort.Slice(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })

	parts := make([]string, 0, len(words))
	for _, w := range words {
		fields := strings.Fields(w)
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		parts = append(parts, strings.Join(fields, `\s+`))
	}
	if len(parts) == 0 {
		return &ProfanityFilter{}
	}
	return &ProfanityFilter{re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)}
}

func parseWordList(list string) []string {
	var words []string
	sc := bufio.NewScanner(strings.NewReader(list))
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

// Contains reports whether text holds a listed word as a whole word.
func (f *ProfanityFilter) Contains(text string) bool {
	if f == nil || f.re == nil {
		return false
	}
	return f.re.MatchString(norm.NFC.String(text))
}

// Matches returns the distinct listed words found in text, lower-cased.
func (f *ProfanityFilter) Matches(text string) []string {
	if f == nil || f.re == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, m := range f.re.FindAllString(norm.NFC.String(text), -1) {
		m = strings.ToLower(strings.Join(strings.Fields(m), " "))
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

var defaultFilter = NewProfanityFilter()

// ContainsProfanity checks text against the built-in list.
func ContainsProfanity(text string) bool {
	return defaultFilter.Contains(text)
}
