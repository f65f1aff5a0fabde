package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/diewo77/agrodocs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SubtotalRecord{}, &models.VariableRecord{}))
	return db
}

func TestRegisterFindCount(t *testing.T) {
	ctx := context.Background()
	repo := New[models.SubtotalRecord, int64](setupTestDB(t), "code")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Register(ctx, &models.SubtotalRecord{Code: 2, Name: "IVA", Percentage: 21}))
	require.NoError(t, repo.Register(ctx, &models.SubtotalRecord{Code: 1, Name: "Descuento", Percentage: 5, IsDiscount: true}))

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.Find(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "IVA", got.Name)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].Code)
}

func TestFindMissReturnsNil(t *testing.T) {
	repo := New[models.SubtotalRecord, int64](setupTestDB(t), "code")
	got, err := repo.Find(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterDuplicateKey(t *testing.T) {
	ctx := context.Background()
	repo := New[models.VariableRecord, string](setupTestDB(t), "name")
	require.NoError(t, repo.Register(ctx, &models.VariableRecord{Name: "cliente", Attribute: "FARMER_CUSTOMER_NAME"}))
	err := repo.Register(ctx, &models.VariableRecord{Name: "cliente", Attribute: "FARMER_CUSTOMER_TIN"})
	assert.ErrorIs(t, err, ErrDuplicated)
}

func TestUpdateAndWhere(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	subtotals := New[models.SubtotalRecord, int64](db, "code")
	variables := New[models.VariableRecord, string](db, "name", "Subtotal")

	require.NoError(t, subtotals.Register(ctx, &models.SubtotalRecord{Code: 1, Name: "IVA", Percentage: 21}))
	code := int64(1)
	v := &models.VariableRecord{Name: "iva", Attribute: "INVOICE_SUBTOTAL", SubtotalCode: &code}
	require.NoError(t, variables.Register(ctx, v))

	v.Deleted = true
	v.Description = "retirada"
	require.NoError(t, variables.Update(ctx, v))

	deleted, err := variables.Where(ctx, "deleted = ?", true)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "retirada", deleted[0].Description)
	require.NotNil(t, deleted[0].Subtotal)
	assert.Equal(t, 21, deleted[0].Subtotal.Percentage)
}
