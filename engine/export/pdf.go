package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	rowHeight   = 7.0
	fontSize    = 8.0
	titleSize   = 14.0
	cellPadding = 1.5
)

// WritePDF renders t as a landscape A4 table. Columns share the page width
// equally and long cells are truncated with an ellipsis. The header row is
// repeated on every page.
func WritePDF(w io.Writer, t *Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(t.Title, true)
	pdf.SetCreator("Focitech", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	width := pageW - left - right
	colW := width
	if len(t.Headers) > 0 {
		colW = width / float64(len(t.Headers))
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, rowHeight, fit(pdf, tr(h), colW), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", fontSize)
		pdf.SetTextColor(15, 23, 42)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(width, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.CellFormat(width, 6, fmt.Sprintf("%d rows", len(t.Rows)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	for i, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageH-bottom {
			pdf.AddPage()
			pdf.SetY(top)
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(241, 245, 249)
		for _, cell := range row {
			pdf.CellFormat(colW, rowHeight, fit(pdf, tr(cell), colW), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2*cellPadding
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	const ellipsis = "..."
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+ellipsis) > limit {
		r = r[:len(r)-1]
	}
	return string(r) + ellipsis
}
