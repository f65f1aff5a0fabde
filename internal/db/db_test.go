package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/diewo77/agrodocs/internal/config"
	"github.com/diewo77/agrodocs/internal/logging"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, config.DatabaseConfig) {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())}
	d, err := Connect(cfg, logging.Discard())
	require.NoError(t, err)
	return d, cfg
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{`"postgres://u:p@h/db"`, "postgres://u:p@h/db"},
		{"host=h  user=u dbname=d", "host=h user=u dbname=d sslmode=disable"},
		{"host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
		{"not a dsn", "not a dsn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDSN(tt.in), tt.in)
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=agro password=secret dbname=agrodocs sslmode=disable")
	assert.Equal(t, "postgres://agro:secret@db:5432/agrodocs?sslmode=disable", got)
	assert.Equal(t, "host=db", ToURLDSN("host=db"))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "host=db password=*** dbname=x", MaskDSN("host=db password=secret dbname=x"))
	assert.NotContains(t, MaskDSN("postgres://agro:secret@db/agrodocs"), "secret")
}

func TestMigrateCreatesTables(t *testing.T) {
	d, cfg := setupTestDB(t)
	require.NoError(t, Migrate(d, cfg, logging.Discard()))
	for _, table := range append(requiredTables, "delivery_notes", "invoices", "generated_documents") {
		assert.True(t, d.Migrator().HasTable(table), table)
	}
}

func TestSQLMigrationsNeedPostgres(t *testing.T) {
	d, cfg := setupTestDB(t)
	cfg.Migrations = true
	assert.Error(t, Migrate(d, cfg, logging.Discard()))
}

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	d, cfg := setupTestDB(t)
	require.NoError(t, Migrate(d, cfg, logging.Discard()))

	require.NoError(t, Seed(ctx, d))
	require.NoError(t, Seed(ctx, d))

	var companies, subtotals, variables int64
	d.Model(&models.CompanySettings{}).Count(&companies)
	d.Model(&models.SubtotalRecord{}).Count(&subtotals)
	d.Model(&models.VariableRecord{}).Where("attribute = ?", "INVOICE_SUBTOTAL").Count(&variables)
	assert.Equal(t, int64(1), companies)
	assert.Equal(t, int64(2), subtotals)
	assert.Equal(t, int64(2), variables)

	next, err := sequence.NewDB(d).Next(ctx, sequence.Subtotals)
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)
}

func TestBackfillSequencesSkipsImportedCodes(t *testing.T) {
	ctx := context.Background()
	d, cfg := setupTestDB(t)
	require.NoError(t, Migrate(d, cfg, logging.Discard()))

	for code := int64(1); code <= 3; code++ {
		rec := models.TemplateRecord{Code: code, Name: fmt.Sprintf("importada %d", code), Content: []byte{1}, Extension: "xlsx", Version: 1}
		require.NoError(t, d.Create(&rec).Error)
	}
	require.NoError(t, BackfillSequences(ctx, d, nil))
	require.NoError(t, BackfillSequences(ctx, d, nil))

	seq := sequence.NewDB(d)
	next, err := seq.Next(ctx, sequence.Templates)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)
	next, err = seq.Next(ctx, sequence.Subtotals)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestBackfillSequencesUsesHighestCode(t *testing.T) {
	ctx := context.Background()
	d, cfg := setupTestDB(t)
	require.NoError(t, Migrate(d, cfg, logging.Discard()))

	// imported with a gap: a row count would hand out 3 again
	for _, code := range []int64{1, 3} {
		rec := models.SubtotalRecord{Code: code, Name: fmt.Sprintf("importado %d", code), Percentage: 5}
		require.NoError(t, d.Create(&rec).Error)
	}
	seq := sequence.NewDB(d)
	require.NoError(t, BackfillSequences(ctx, d, seq))

	next, err := seq.Next(ctx, sequence.Subtotals)
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)
	next, err = seq.Next(ctx, sequence.Templates)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}
