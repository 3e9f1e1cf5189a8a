package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "Arial"
	pdfFontSize   = 12
	pdfLineHeight = 7
)

// WritePDF writes one page per section. Core fonts only cover cp1252, so
// characters outside it are replaced.
func WritePDF(w io.Writer, d Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Questions and answers", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	section := func(title string) {
		pdf.AddPage()
		pdf.SetFont(pdfFont, "B", pdfFontSize+2)
		pdf.CellFormat(width, 10, title, "", 1, "C", false, 0, "")
		pdf.SetFont(pdfFont, "", pdfFontSize)
	}
	para := func(text string) {
		pdf.MultiCell(width, pdfLineHeight, tr(pdfSafe(text)), "", "L", false)
		pdf.Ln(3)
	}

	section("Transcript")
	para(d.Transcript)

	section("Questions")
	for _, q := range d.Questions {
		text := fmt.Sprintf("ID: %s\nQuestion: %s", q.ID, LatexToUnicode(q.Question))
		if len(q.Options) > 0 {
			text += "\n" + strings.Join(q.Options, "\n")
		}
		para(text)
	}

	section("Answers")
	for _, a := range d.Answers {
		para(fmt.Sprintf("QID: %s\nAnswer: %s", a.QID, LatexToUnicode(a.Answer)))
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// pdfSafe swaps math symbols the core fonts lack for ASCII spellings.
var pdfSafe = strings.NewReplacer(
	"√", "sqrt", "∛", "cbrt", "∫", "integral ", "π", "pi", "θ", "theta",
	"≤", "<=", "≥", ">=", "≠", "!=", "→", "->", "←", "<-", "∞", "inf",
	"⁰", "^0", "⁴", "^4", "⁵", "^5", "⁶", "^6", "⁷", "^7", "⁸", "^8", "⁹", "^9", "⁻", "^-",
	"α", "alpha", "β", "beta", "γ", "gamma", "δ", "delta", "λ", "lambda", "σ", "sigma", "ω", "omega",
).Replace
