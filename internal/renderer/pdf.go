package renderer

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/diewo77/agrodocs/internal/template"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 5.0
	pdfFontSize   = 8.0
	minColWidth   = 8.0
	maxColWidth   = 60.0
	mmPerChar     = 1.8
)

// PDF writes into the workbook like Excel, then lays out the used range of the
// first sheet as a PDF table.
type PDF struct {
	Excel
	// Font is a core PDF font family. Defaults to Helvetica.
	Font string
}

// Convert renders the sheet values and checks the output parses as a PDF.
func (p PDF) Convert(ctx context.Context, wb Workbook) (template.File, error) {
	if err := ctx.Err(); err != nil {
		return template.File{}, err
	}
	s, err := sheet(wb)
	if err != nil {
		return template.File{}, err
	}
	rows, err := s.File.GetRows(s.Name)
	if err != nil {
		return template.File{}, fmt.Errorf("read sheet %s: %w", s.Name, err)
	}

	widths := columnWidths(rows)
	orientation := "P"
	if total(widths) > 210-2*pdfMargin {
		orientation = "L"
	}
	font := p.Font
	if font == "" {
		font = "Helvetica"
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetFont(font, "", pdfFontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return template.File{}, err
		}
		for col, w := range widths {
			text := ""
			if col < len(row) {
				text = tr(row[col])
			}
			pdf.CellFormat(w, pdfLineHeight, text, "", 0, "L", false, 0, "")
		}
		pdf.Ln(pdfLineHeight)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return template.File{}, fmt.Errorf("write pdf: %w", err)
	}
	if _, err := PageCount(buf.Bytes()); err != nil {
		return template.File{}, err
	}
	return template.File{Content: buf.Bytes(), Extension: FormatPDF}, nil
}

// PageCount parses content with pdfcpu and returns its number of pages.
func PageCount(content []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(content), nil)
	if err != nil {
		return 0, fmt.Errorf("validate pdf: %w", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("validate pdf: no pages")
	}
	return n, nil
}

func columnWidths(rows [][]string) []float64 {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, r := range rows {
		for i, cell := range r {
			w := float64(utf8.RuneCountInString(cell))*mmPerChar + 2
			if w > maxColWidth {
				w = maxColWidth
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func total(ws []float64) float64 {
	var sum float64
	for _, w := range ws {
		sum += w
	}
	return sum
}
