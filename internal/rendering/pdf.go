package rendering

import (
	"bytes"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDFMeasurer wraps text with fpdf's Helvetica metrics.
type PDFMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFMeasurer returns a measurer configured like the renderer.
func NewPDFMeasurer() *PDFMeasurer {
	return newPDFMeasurer(newPDF())
}

func newPDFMeasurer(pdf *fpdf.Fpdf) *PDFMeasurer {
	return &PDFMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// SplitLines wraps text to width. Existing line breaks are kept and an empty
// line still counts as one line. Lines are returned sanitized, in UTF-8.
func (m *PDFMeasurer) SplitLines(text string, width float64) []string {
	var out []string
	for _, para := range strings.Split(SanitizeText(text), "\n") {
		if strings.TrimSpace(para) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, m.splitParagraph(para, width)...)
	}
	return out
}

// splitParagraph maps fpdf's byte lines back onto the UTF-8 paragraph.
// Sanitized text translates to exactly one cp1252 byte per rune, so byte
// offsets in the translation are rune offsets in the paragraph.
func (m *PDFMeasurer) splitParagraph(para string, width float64) []string {
	runes := []rune(para)
	encoded := []byte(m.tr(para))

	var lines []string
	pos := 0
	for _, line := range m.pdf.SplitLines(encoded, width) {
		offset := bytes.Index(encoded[pos:], line)
		if offset < 0 || len(runes) != len(encoded) {
			lines = append(lines, string(line))
			continue
		}
		start := pos + offset
		end := start + len(line)
		lines = append(lines, strings.TrimRight(string(runes[start:end]), " "))
		pos = end
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(MarginLeft, MarginTop, MarginRight)
	pdf.SetAutoPageBreak(false, MarginBottom)
	pdf.SetCellMargin(0)
	pdf.SetFont(FontFamily, "", FontSizePt)
	pdf.SetTextColor(TextColor[0], TextColor[1], TextColor[2])
	return pdf
}

// RenderPDF lays out the letter and writes it as a PDF.
func RenderPDF(w io.Writer, text string) (*Document, error) {
	pdf := newPDF()
	measurer := newPDFMeasurer(pdf)
	doc := Layout(text, measurer)

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, block := range page.Blocks {
			pdf.SetXY(MarginLeft, block.Y)
			pdf.MultiCell(ContentWidth, LineHeight, measurer.tr(SanitizeText(block.Text)), "", string(block.Align), false)
		}
		if err := pdf.Error(); err != nil {
			return nil, &RenderError{Message: "failed to draw page", Cause: err}
		}
	}

	if err := pdf.Output(w); err != nil {
		return nil, &RenderError{Message: "failed to write PDF", Cause: err}
	}
	return doc, nil
}

// RenderPDFBytes is RenderPDF into memory.
func RenderPDFBytes(text string) ([]byte, *Document, error) {
	var buf bytes.Buffer
	doc, err := RenderPDF(&buf, text)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), doc, nil
}
