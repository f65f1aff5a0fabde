// Package renderer loads spreadsheet templates, writes resolved values into them
// and converts the result into the final document format.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/agrodocs/internal/template"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var ErrUnreadable = errors.New("template file is not a readable workbook")

// Workbook is an opened template ready to receive values.
type Workbook interface {
	Close() error
}

// Renderer is the rendering capability the document generator depends on.
type Renderer interface {
	Load(file template.File) (Workbook, error)
	WriteCell(wb Workbook, position string, value any) error
	Convert(ctx context.Context, wb Workbook) (template.File, error)
}

// New returns the renderer producing format. font is only used for PDF output.
func New(format, font string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", FormatXLSX:
		return Excel{}, nil
	case FormatPDF:
		return PDF{Font: font}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// Sheet is the first worksheet of an excelize workbook.
type Sheet struct {
	File      *excelize.File
	Name      string
	extension string
}

func (s *Sheet) Close() error { return s.File.Close() }

// Excel writes into the template and returns it as a workbook.
type Excel struct{}

// Load opens the template content with excelize.
func (Excel) Load(file template.File) (Workbook, error) {
	return open(file)
}

// Check reports whether file can be opened as a workbook.
func Check(file template.File) error {
	s, err := open(file)
	if err != nil {
		return err
	}
	return s.Close()
}

func open(file template.File) (*Sheet, error) {
	if file.Empty() {
		return nil, ErrUnreadable
	}
	f, err := excelize.OpenReader(bytes.NewReader(file.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrUnreadable
	}
	return &Sheet{File: f, Name: sheets[0], extension: strings.ToLower(file.Extension)}, nil
}

// WriteCell stores value at position on the first sheet.
func (Excel) WriteCell(wb Workbook, position string, value any) error {
	s, err := sheet(wb)
	if err != nil {
		return err
	}
	return s.File.SetCellValue(s.Name, position, cellValue(value))
}

// Convert serializes the workbook. Macro enabled templates stay macro enabled.
func (Excel) Convert(ctx context.Context, wb Workbook) (template.File, error) {
	if err := ctx.Err(); err != nil {
		return template.File{}, err
	}
	s, err := sheet(wb)
	if err != nil {
		return template.File{}, err
	}
	buf, err := s.File.WriteToBuffer()
	if err != nil {
		return template.File{}, fmt.Errorf("write workbook: %w", err)
	}
	ext := "xlsx"
	if s.extension == "xlsm" || s.extension == "xltm" {
		ext = "xlsm"
	}
	return template.File{Content: buf.Bytes(), Extension: ext}, nil
}

func sheet(wb Workbook) (*Sheet, error) {
	s, ok := wb.(*Sheet)
	if !ok || s == nil || s.File == nil {
		return nil, fmt.Errorf("renderer: unexpected workbook %T", wb)
	}
	return s, nil
}

// cellValue maps engine values onto types excelize writes natively.
func cellValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return t.InexactFloat64()
	case time.Time:
		return t
	}
	return v
}
