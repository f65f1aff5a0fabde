package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/sequence"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed inserts the issuer, a base catalog and sample master data. Running it twice
// changes nothing.
func Seed(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	issuer := models.CompanySettings{
		Code: "EMP", Name: "Cooperativa Agrícola del Valle", TIN: "F04000001",
		Email: "oficina@coopvalle.es", Phone: "950 000 000",
		Address: "Camino de la Vega 12", City: "Almería", PostalCode: "04001", Country: "España",
	}
	if err := firstOrCreate(db, &issuer, "code = ?", issuer.Code); err != nil {
		return err
	}

	subtotals := []models.SubtotalRecord{
		{Code: 1, Name: "IVA", Percentage: 10},
		{Code: 2, Name: "Retención", Percentage: 2, IsDiscount: true},
	}
	for i := range subtotals {
		if err := firstOrCreate(db, &subtotals[i], "code = ?", subtotals[i].Code); err != nil {
			return err
		}
	}
	if err := BackfillSequences(ctx, db, nil); err != nil {
		return err
	}

	for _, info := range attribute.All() {
		if info.Attribute.RequiresSubtotal() {
			continue
		}
		v := models.VariableRecord{
			Name:        strings.ToLower(string(info.Attribute)),
			Description: info.Label,
			Attribute:   string(info.Attribute),
		}
		if err := firstOrCreate(db, &v, "name = ?", v.Name); err != nil {
			return err
		}
	}
	for _, s := range subtotals {
		code := s.Code
		v := models.VariableRecord{
			Name:         strings.ToLower(s.Name),
			Description:  s.Name,
			Attribute:    string(attribute.InvoiceSubtotal),
			SubtotalCode: &code,
		}
		if err := firstOrCreate(db, &v, "name = ?", v.Name); err != nil {
			return err
		}
	}

	customer := models.Customer{
		Code: "AG-0001", Name: "Finca Ramírez", TIN: "12345678Z",
		Address: "Paraje Los Llanos s/n", City: "Níjar", PostalCode: "04100", Country: "España",
	}
	product := models.Product{Code: "TOM", Name: "Tomate pera", UnitPrice: decimal.RequireFromString("0.85"), Unit: "kg", PricedByWeight: true}
	container := models.Container{Code: "CJ", Name: "Caja plástico", Tare: decimal.RequireFromString("1.2")}
	if err := firstOrCreate(db, &customer, "code = ?", customer.Code); err != nil {
		return err
	}
	if err := firstOrCreate(db, &product, "code = ?", product.Code); err != nil {
		return err
	}
	return firstOrCreate(db, &container, "code = ?", container.Code)
}

func firstOrCreate[T any](db *gorm.DB, rec *T, query string, args ...any) error {
	var existing T
	err := db.Where(query, args...).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(rec).Error; err != nil {
			return fmt.Errorf("seed %T: %w", rec, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed %T: %w", rec, err)
	}
	*rec = existing
	return nil
}

// BackfillSequences raises the code counters of seq above the highest code already
// stored, so rows inserted without the sequencer (seed data, imports) are never
// handed out again. A nil seq means the sequences table of db.
func BackfillSequences(ctx context.Context, db *gorm.DB, seq sequence.Generator) error {
	if seq == nil {
		seq = sequence.NewDB(db)
	}
	for _, s := range []struct {
		name  string
		model any
	}{
		{sequence.Subtotals, &models.SubtotalRecord{}},
		{sequence.Templates, &models.TemplateRecord{}},
	} {
		var top int64
		if err := db.WithContext(ctx).Model(s.model).Select("COALESCE(MAX(code), 0)").Scan(&top).Error; err != nil {
			return fmt.Errorf("backfill %s: %w", s.name, err)
		}
		if err := seq.Ensure(ctx, s.name, top); err != nil {
			return fmt.Errorf("backfill %s: %w", s.name, err)
		}
	}
	return nil
}
