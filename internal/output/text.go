package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText writes the transcript, questions and answers sections.
func WriteText(w io.Writer, d Document) error {
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, "--- Transcript ---")
	fmt.Fprintf(b, "%s\n\n", d.Transcript)

	fmt.Fprintln(b, "--- Questions ---")
	for _, q := range d.Questions {
		fmt.Fprintf(b, "ID: %s\n", q.ID)
		fmt.Fprintf(b, "Question: %s\n", LatexToUnicode(q.Question))
		for _, opt := range q.Options {
			fmt.Fprintf(b, "  %s\n", opt)
		}
		if len(q.SensitiveTopics) > 0 {
			fmt.Fprintf(b, "Sensitive topics: %s\n", strings.Join(q.SensitiveTopics, ", "))
		}
		fmt.Fprintln(b)
	}

	fmt.Fprintln(b, "--- Answers ---")
	for _, a := range d.Answers {
		fmt.Fprintf(b, "QID: %s\n", a.QID)
		fmt.Fprintf(b, "Answer: %s\n\n", LatexToUnicode(a.Answer))
	}

	if m := d.MathResults; !m.Empty() {
		fmt.Fprintln(b, "--- Math ---")
		writeMath(b, "Expression", m.Expression)
		writeMath(b, "Solution", m.Solution)
		writeMath(b, "Derivative", m.Derivative)
		writeMath(b, "Integral", m.Integral)
	}
	return b.Flush()
}

func writeMath(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "%s: %s\n", label, LatexToUnicode(value))
	}
}
