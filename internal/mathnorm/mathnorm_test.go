package mathnorm

import (
	"strings"
	"testing"
)

func TestNormalizeRewrites(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"What is 2 plus 2?", "What is 2+2?"},
		{"Solve x squared minus 4 equals 0.", "Solve x²-4=0."},
		{"What is x to the power of 3", "What is x^3"},
		{"Compute 1 over 2 plus 3 over 4", "Compute 1/2+3/4"},
		{"the square root of 16", "the √16"},
		{"What is the derivative of x cubed?", "What is the d/dx x³?"},
		{"Find the integral of f of x dx.", "Find the ∫f(x) dx."},
		{"What is sine of theta?", "What is sin(θ)?"},
		{"Is 5 greater than or equal to 3?", "Is 5 ≥ 3?"},
		{"2x plus 3 equals 7", "2x+3=7"},
		{"1 plus 2 plus 3", "1+2+3"},
		{"What is the derivative of sine of x plus cosine of x?", "What is the d/dx sin(x)+cos(x)?"},
		{"Solve x squared minus sine of x equals 0?", "Solve x²-sin(x)=0?"},
		{"x times square root of 4", "x×√4"},
		{"What is f of g of x?", "What is f(g(x))?"},
	}
	for _, tc := range cases {
		got, found := Normalize(tc.in)
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if !found {
			t.Errorf("Normalize(%q) did not report math", tc.in)
		}
	}
}

func TestNormalizeLeavesProseAlone(t *testing.T) {
	for _, in := range []string{
		"We ordered pizza on the surplus budget.",
		"The game is over now.",
		"Look on the plus side.",
		"",
	} {
		got, found := Normalize(in)
		if got != in || found {
			t.Errorf("Normalize(%q) = %q, %v", in, got, found)
		}
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	got, found := Normalize("X SQUARED PLUS PI")
	if !found || !strings.Contains(got, "X²+π") {
		t.Fatalf("got %q, found=%v", got, found)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"What is 2 plus 2?",
		"If x squared plus 2 x equals 8, what is x?",
		"Find the derivative of t cubed minus 4 t with respect to t.",
		"The integral of sine of x dx",
		"alpha times beta divided by gamma",
		"f open parenthesis x close parenthesis is less than 10",
		"integral of x dx and then what is y plus 1",
		"the derivative of sine of x minus cosine of x",
	}
	for _, in := range inputs {
		once, _ := Normalize(in)
		twice, found := Normalize(once)
		if twice != once {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
		if found {
			t.Errorf("second pass over %q still fired a rule", once)
		}
	}
}

func TestGuessVariable(t *testing.T) {
	if v := guessVariable("x³ + 1"); v != "x" {
		t.Fatalf("got %q", v)
	}
	if v := guessVariable("t² + x"); v != "t" {
		t.Fatalf("got %q", v)
	}
	if v := guessVariable("5"); v != "t" {
		t.Fatalf("got %q", v)
	}
}

func TestNormalizeCalculusSpansStopAtClause(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"integral of x dx and then what is y plus 1", "∫x dx and then what is y+1"},
		{"integral of x dx and then what is the derivative of x squared", "∫x dx and then what is the d/dx x²"},
		{"the integral of x squared then the derivative of t cubed", "the ∫x² dx then the d/dt t³"},
		{"the derivative of x squared is what", "the d/dx x² is what"},
	}
	for _, tc := range cases {
		if got, _ := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
