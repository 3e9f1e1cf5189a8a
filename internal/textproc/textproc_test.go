package textproc

import (
	"reflect"
	"strings"
	"testing"
)

func TestSegment(t *testing.T) {
	got := Segment("First sentence. Is this a question?  Yes!\nDone")
	want := []string{"First sentence.", "Is this a question?", "Yes!", "Done"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := Segment("   "); len(got) != 0 {
		t.Fatalf("expected no sentences, got %q", got)
	}
	if got := Segment("Version 2.5 is out."); len(got) != 1 {
		t.Fatalf("decimal point split the sentence: %q", got)
	}
}

func TestQuestionMarkAlwaysCounts(t *testing.T) {
	for _, lang := range []string{"en", "es", "fr", "de", "ja", ""} {
		if !IsQuestion("Blue sky today?", lang) {
			t.Errorf("trailing ? not a question for %q", lang)
		}
	}
}

func TestIsQuestionLexicons(t *testing.T) {
	cases := []struct {
		sentence string
		lang     string
		want     bool
	}{
		{"What time is it.", "en", true},
		{"Tell me the capital of France.", "en", false},
		{"I wonder if it will rain.", "en", true},
		{"¿Dónde está la estación.", "es", true},
		{"Por qué el cielo es azul.", "es", true},
		{"El cielo es azul.", "es", false},
		{"Pourquoi le ciel est bleu.", "fr", true},
		{"Le ciel est bleu.", "fr", false},
		{"Warum ist der Himmel blau.", "de", true},
		{"Der Himmel ist blau.", "de", false},
		{"Wasser ist nass.", "de", false},
		{"何ですか", "ja", false},
	}
	for _, tc := range cases {
		if got := IsQuestion(tc.sentence, tc.lang); got != tc.want {
			t.Errorf("IsQuestion(%q, %q) = %v, want %v", tc.sentence, tc.lang, got, tc.want)
		}
	}
}

func TestIsQuestionHandlesDecomposedAccents(t *testing.T) {
	decomposed := "Do\u0301nde vives."
	if !IsQuestion(decomposed, "es") {
		t.Fatal("decomposed accent not matched after NFC")
	}
}

func TestSupported(t *testing.T) {
	for _, lang := range []string{"en", "es", "fr", "de", "", "English", "es-MX"} {
		if !Supported(lang) {
			t.Errorf("Supported(%q) = false", lang)
		}
	}
	if Supported("ja") {
		t.Error("Supported(ja) = true")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"Spanish": "es",
		"en":      "en",
		"es-MX":   "es",
		"":        "",
	}
	for in, want := range cases {
		if got := NormalizeLanguage(in); got != want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"What is the capital of France and how big is it?": "en",
		"¿Qué es la fotosíntesis y cómo funciona en las plantas?": "es",
		"Der Hund und die Katze sind nicht hier.":                 "de",
		"42":                                                      "",
	}
	for in, want := range cases {
		if got := DetectLanguage(in); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPreprocess(t *testing.T) {
	p := Preprocess("Um, so what is 2 plus 2? And the final one?")
	if !p.MathFound {
		t.Fatal("math not detected")
	}
	if !strings.Contains(p.Text, "2+2") {
		t.Fatalf("math not normalized: %q", p.Text)
	}
	if strings.Contains(strings.ToLower(p.Text), "um") || strings.Contains(p.Text, "final one") {
		t.Fatalf("fillers not stripped: %q", p.Text)
	}
	if !strings.Contains(p.Normalized, "2+2") {
		t.Fatalf("normalized text: %q", p.Normalized)
	}
}

func TestAnnotate(t *testing.T) {
	got := Annotate("area is π r² 😀")
	for _, want := range []string{"<GREEK SMALL LETTER PI>", "<grinning_face>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Annotate missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "π") {
		t.Errorf("symbol left in place: %q", got)
	}
}

func TestPreprocessKeepsAnnotationNames(t *testing.T) {
	p := Preprocess("Is π bigger than 3?")
	if !strings.Contains(p.Text, "<GREEK SMALL LETTER PI>") {
		t.Fatalf("annotation rewritten: %q", p.Text)
	}
}
