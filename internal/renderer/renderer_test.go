package renderer

import (
	"bytes"
	"context"
	"testing"

	"github.com/diewo77/agrodocs/internal/template"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func blankTemplate(t *testing.T) template.File {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Albarán"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return template.File{Content: buf.Bytes(), Extension: "xlsx"}
}

func TestExcelWriteAndConvert(t *testing.T) {
	r := Excel{}
	wb, err := r.Load(blankTemplate(t))
	require.NoError(t, err)
	defer wb.Close()

	require.NoError(t, r.WriteCell(wb, "B5", "Finca Ramírez"))
	require.NoError(t, r.WriteCell(wb, "G30", decimal.RequireFromString("121.5")))

	out, err := r.Convert(context.Background(), wb)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", out.Extension)

	f, err := excelize.OpenReader(bytes.NewReader(out.Content))
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetCellValue("Sheet1", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Finca Ramírez", got)
	got, err = f.GetCellValue("Sheet1", "G30")
	require.NoError(t, err)
	assert.Equal(t, "121.5", got)
	got, err = f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Albarán", got, "template content is kept")
}

func TestCheckRejectsGarbage(t *testing.T) {
	assert.ErrorIs(t, Check(template.File{Content: []byte("not a zip"), Extension: "xlsx"}), ErrUnreadable)
	assert.ErrorIs(t, Check(template.File{Extension: "xlsx"}), ErrUnreadable)
	assert.NoError(t, Check(blankTemplate(t)))
}

func TestPDFConvert(t *testing.T) {
	r := PDF{}
	wb, err := r.Load(blankTemplate(t))
	require.NoError(t, err)
	defer wb.Close()
	require.NoError(t, r.WriteCell(wb, "B2", "Tomate rama"))
	require.NoError(t, r.WriteCell(wb, "C2", decimal.RequireFromString("0.8")))

	out, err := r.Convert(context.Background(), wb)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, out.Extension)
	n, err := PageCount(out.Content)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestConvertHonorsCancellation(t *testing.T) {
	r := Excel{}
	wb, err := r.Load(blankTemplate(t))
	require.NoError(t, err)
	defer wb.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Convert(ctx, wb)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	r, err := New("pdf", "Courier")
	require.NoError(t, err)
	assert.Equal(t, PDF{Font: "Courier"}, r)
	r, err = New("", "")
	require.NoError(t, err)
	assert.Equal(t, Excel{}, r)
	_, err = New("docx", "")
	assert.Error(t, err)
}
