package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/agrodocs/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// run executes the CLI with args and returns what it printed on stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGRODOCS_DATABASE_DRIVER", "sqlite")
	t.Setenv("AGRODOCS_DATABASE_PATH", filepath.Join(dir, "agrodocs.db"))
	t.Setenv("AGRODOCS_ARCHIVE_DIR", filepath.Join(dir, "archive"))
	t.Setenv("AGRODOCS_LOG_LEVEL", "error")
	return dir
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "FACTURA"))
	require.NoError(t, f.SaveAs(path))
}

// addInvoice stores one invoice for the seeded farmer and product.
func addInvoice(t *testing.T, dbPath string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var farmer models.Customer
	require.NoError(t, db.Where("code = ?", "AG-0001").First(&farmer).Error)
	var product models.Product
	require.NoError(t, db.Where("code = ?", "TOM").First(&product).Error)

	day := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	note := models.DeliveryNote{Code: "A-2024-0100", Date: day, CustomerID: farmer.ID, ProductID: product.ID, UnitPrice: product.UnitPrice,
		Lines: []models.DeliveryNoteLine{{Code: "L1", Quantity: decimal.NewFromInt(4), GrossWeight: decimal.NewFromInt(40), Position: 1}}}
	require.NoError(t, db.Create(&note).Error)
	inv := models.Invoice{Code: "F-2024-0100", CustomerID: farmer.ID, Date: day, PeriodStart: day, PeriodEnd: day,
		DeliveryNotes: []models.DeliveryNote{note}}
	require.NoError(t, db.Create(&inv).Error)
}

func TestCatalogAttributesNeedsNoDatabase(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "catalog", "attributes")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ATTRIBUTE"))
	assert.Contains(t, out, "INVOICE_TOTAL")
	assert.Contains(t, out, "GENERATION_DATE")
}

func TestGenerateFlow(t *testing.T) {
	dir := setupEnv(t)

	out, err := run(t, "migrate", "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations completed")

	out, err = run(t, "catalog", "subtotals")
	require.NoError(t, err)
	assert.Contains(t, out, "Retención")

	out, err = run(t, "catalog", "variables")
	require.NoError(t, err)
	assert.Contains(t, out, "farmer_customer_name")

	xlsx := filepath.Join(dir, "factura.xlsx")
	writeWorkbook(t, xlsx)
	out, err = run(t, "template", "import", "Factura", xlsx,
		"--field", "B5=${farmer_customer_name}",
		"--field", "G30=${invoice_items_total}",
		"--field", "G31=${iva}",
		"--field", "G32=${invoice_total}")
	require.NoError(t, err)
	assert.Equal(t, "template 1 registered\n", out)

	_, err = run(t, "template", "import", "Factura", xlsx, "--field", "nope")
	assert.Error(t, err)

	addInvoice(t, filepath.Join(dir, "agrodocs.db"))

	target := filepath.Join(dir, "out.xlsx")
	out, err = run(t, "generate", "invoice", "F-2024-0100", "--template", "1", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "invoice/F-2024-0100/")

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer wb.Close()
	name, err := wb.GetCellValue("Sheet1", "B5")
	require.NoError(t, err)
	assert.Equal(t, "Finca Ramírez", name)

	_, err = run(t, "generate", "invoice", "F-0000", "--template", "1")
	assert.ErrorContains(t, err, "document not found")
	_, err = run(t, "generate", "quote", "F-2024-0100", "--template", "1")
	assert.ErrorContains(t, err, "unknown document kind")

	out, err = run(t, "batch", "--from", "2024-05-01", "--to", "2024-05-20", "--template", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "F-2024-0100")

	out, err = run(t, "catalog", "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "Factura")
}

func TestBatchRejectsBadDates(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "batch", "--from", "01/05/2024", "--to", "2024-05-31", "--template", "1")
	assert.ErrorContains(t, err, "--from")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"B5=${A}", " A12 =Total: ${B}=${C}"})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "A12", fields[1].Position)
	assert.Equal(t, "Total: ${B}=${C}", fields[1].Expression)
}
