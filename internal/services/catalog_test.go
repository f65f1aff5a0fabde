package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/diewo77/agrodocs/internal/template"
	"github.com/diewo77/agrodocs/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtotalRegister(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).subtotals

	state, st, err := svc.Register(ctx, SubtotalInput{Name: "IVA", Percentage: 21})
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state)
	assert.Equal(t, int64(1), st.Code)

	state, st, err = svc.Register(ctx, SubtotalInput{Name: "Recargo", Percentage: 150})
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state)
	assert.Equal(t, int64(2), st.Code)
	assert.Equal(t, 100, st.Percentage, "clamped")

	state, _, err = svc.Register(ctx, SubtotalInput{Name: "  "})
	require.NoError(t, err)
	assert.Equal(t, validation.InvalidName, state)

	found, err := svc.Find(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Recargo", found.Name)

	missing, err := svc.Find(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSubtotalCodesAreNeverReused(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).subtotals

	_, first, err := svc.Register(ctx, SubtotalInput{Name: "IVA", Percentage: 21})
	require.NoError(t, err)
	ok, err := svc.Remove(ctx, first.Code)
	require.NoError(t, err)
	require.True(t, ok)

	_, second, err := svc.Register(ctx, SubtotalInput{Name: "IVA reducido", Percentage: 10})
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	live, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestSubtotalRemoveBlockedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	c := newCatalogServices(setupTestDB(t))

	_, st, err := c.subtotals.Register(ctx, SubtotalInput{Name: "IVA", Percentage: 21})
	require.NoError(t, err)
	state, err := c.variables.Register(ctx, VariableInput{Name: "IVA", Attribute: "INVOICE_SUBTOTAL", SubtotalCode: &st.Code})
	require.NoError(t, err)
	require.Equal(t, validation.Valid, state)

	ok, err := c.subtotals.Remove(ctx, st.Code)
	assert.ErrorIs(t, err, ErrSubtotalInUse)
	assert.False(t, ok)

	// a deleted variable still pins its subtotal: restoring it would apply
	// a removed subtotal again
	ok, err = c.variables.Remove(ctx, "IVA")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = c.subtotals.Remove(ctx, st.Code)
	assert.ErrorIs(t, err, ErrSubtotalInUse)
	assert.False(t, ok)

	ok, err = c.variables.Restore(ctx, "IVA")
	require.NoError(t, err)
	require.True(t, ok)
	state, err = c.variables.Update(ctx, "IVA", VariableInput{Name: "IVA", Attribute: "INVOICE_ITEMS_TOTAL"})
	require.NoError(t, err)
	require.Equal(t, validation.Valid, state)

	ok, err = c.subtotals.Remove(ctx, st.Code)
	require.NoError(t, err)
	assert.True(t, ok)
	found, err := c.subtotals.Find(ctx, st.Code)
	require.NoError(t, err)
	assert.True(t, found.Deleted)

	ok, err = c.subtotals.Restore(ctx, st.Code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.subtotals.Remove(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVariableRegisterStates(t *testing.T) {
	ctx := context.Background()
	c := newCatalogServices(setupTestDB(t))
	_, st, err := c.subtotals.Register(ctx, SubtotalInput{Name: "IVA", Percentage: 21})
	require.NoError(t, err)
	_, gone, err := c.subtotals.Register(ctx, SubtotalInput{Name: "Viejo", Percentage: 7})
	require.NoError(t, err)
	_, err = c.subtotals.Remove(ctx, gone.Code)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   VariableInput
		want validation.State
	}{
		{"valid", VariableInput{Name: "CLIENTE", Attribute: "FARMER_CUSTOMER_NAME"}, validation.Valid},
		{"duplicate", VariableInput{Name: "CLIENTE", Attribute: "FARMER_CUSTOMER_TIN"}, validation.Duplicated},
		{"empty name", VariableInput{Name: "", Attribute: "FARMER_CUSTOMER_NAME"}, validation.InvalidName},
		{"unknown attribute", VariableInput{Name: "X", Attribute: "NOPE"}, validation.InvalidAttribute},
		{"subtotal attribute without subtotal", VariableInput{Name: "IVA", Attribute: "INVOICE_SUBTOTAL"}, validation.InvalidSubtotal},
		{"subtotal on plain attribute", VariableInput{Name: "BASE", Attribute: "INVOICE_ITEMS_TOTAL", SubtotalCode: &st.Code}, validation.InvalidSubtotal},
		{"deleted subtotal", VariableInput{Name: "VIEJO", Attribute: "INVOICE_SUBTOTAL", SubtotalCode: &gone.Code}, validation.InvalidSubtotal},
		{"subtotal variable", VariableInput{Name: "IVA", Attribute: "INVOICE_SUBTOTAL", SubtotalCode: &st.Code}, validation.Valid},
	}
	for _, tt := range tests {
		state, err := c.variables.Register(ctx, tt.in)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, state, tt.name)
	}
}

func TestVariableNamesOfDeletedVariablesStayTaken(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).variables

	_, err := svc.Register(ctx, VariableInput{Name: "FECHA", Attribute: "INVOICE_DATE"})
	require.NoError(t, err)
	ok, err := svc.Remove(ctx, "FECHA")
	require.NoError(t, err)
	require.True(t, ok)

	state, err := svc.Register(ctx, VariableInput{Name: "FECHA", Attribute: "GENERATION_DATE"})
	require.NoError(t, err)
	assert.Equal(t, validation.Duplicated, state)

	cat, err := svc.Catalog(ctx)
	require.NoError(t, err)
	_, ok = cat.Lookup("FECHA")
	assert.False(t, ok, "deleted variables are not resolvable")

	ok, err = svc.Restore(ctx, "FECHA")
	require.NoError(t, err)
	require.True(t, ok)
	cat, err = svc.Catalog(ctx)
	require.NoError(t, err)
	_, ok = cat.Lookup("FECHA")
	assert.True(t, ok)

	ok, err = svc.Remove(ctx, "NO_EXISTE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVariableUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).variables
	_, err := svc.Register(ctx, VariableInput{Name: "CLIENTE", Attribute: "FARMER_CUSTOMER_NAME"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, VariableInput{Name: "NIF", Attribute: "FARMER_CUSTOMER_TIN"})
	require.NoError(t, err)

	state, err := svc.Update(ctx, "CLIENTE", VariableInput{Name: "CLIENTE", Description: "Nombre", Attribute: "FARMER_CUSTOMER_NAME"})
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state, "keeping its own name is fine")

	state, err = svc.Update(ctx, "CLIENTE", VariableInput{Name: "NIF", Attribute: "FARMER_CUSTOMER_NAME"})
	require.NoError(t, err)
	assert.Equal(t, validation.Duplicated, state)

	state, err = svc.Update(ctx, "CLIENTE", VariableInput{Name: "AGRICULTOR", Attribute: "FARMER_CUSTOMER_NAME"})
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state)
	v, err := svc.Find(ctx, "AGRICULTOR")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Empty(t, v.Description, "description not resent is cleared")

	state, err = svc.Update(ctx, "NADA", VariableInput{Name: "NADA", Attribute: "INVOICE_CODE"})
	require.NoError(t, err)
	assert.Equal(t, validation.NotFound, state)

	_, err = svc.Remove(ctx, "NIF")
	require.NoError(t, err)
	state, err = svc.Update(ctx, "NIF", VariableInput{Name: "NIF", Attribute: "FARMER_CUSTOMER_TIN"})
	require.NoError(t, err)
	assert.Equal(t, validation.ReadOnly, state)
}

func TestTemplateRegisterStates(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).templates
	file := workbook(t)
	fields := []template.Field{{Position: "B5", Expression: "${CLIENTE}"}, {Position: "A12", Expression: "${LINEAS}"}}

	state, code, err := svc.Register(ctx, "Factura", file, fields)
	require.NoError(t, err)
	require.Equal(t, validation.Valid, state)
	assert.Equal(t, int64(1), code)

	tpl, err := svc.Find(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, 1, tpl.Version)
	require.Len(t, tpl.Fields, 2)
	assert.Equal(t, "B5", tpl.Fields[0].Position)
	assert.Equal(t, 2, tpl.Fields[1].Sequence)

	tests := []struct {
		name   string
		tname  string
		file   template.File
		fields []template.Field
		want   validation.State
	}{
		{"empty name", "", file, nil, validation.InvalidName},
		{"empty file", "X", template.File{Extension: "xlsx"}, nil, validation.InvalidFile},
		{"not a spreadsheet", "X", template.File{Content: []byte("%PDF"), Extension: "pdf"}, nil, validation.InvalidFile},
		{"corrupt workbook", "X", template.File{Content: []byte("garbage"), Extension: "xlsx"}, nil, validation.InvalidFile},
		{"bad position", "X", file, []template.Field{{Position: "5B", Expression: "x"}}, validation.InvalidPosition},
		{"repeated position", "X", file, []template.Field{{Position: "A1"}, {Position: "A1"}}, validation.InvalidPosition},
	}
	for _, tt := range tests {
		state, _, err := svc.Register(ctx, tt.tname, tt.file, tt.fields)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, state, tt.name)
	}
}

func TestTemplateRegisterFromPath(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).templates

	state, _, err := svc.RegisterFromPath(ctx, "Albarán", filepath.Join(t.TempDir(), "missing.xlsx"), nil)
	require.NoError(t, err)
	assert.Equal(t, validation.InvalidFile, state)
}

func TestTemplateUpdateAndDeletion(t *testing.T) {
	ctx := context.Background()
	svc := newCatalogServices(setupTestDB(t)).templates
	_, code, err := svc.Register(ctx, "Factura", workbook(t), []template.Field{{Position: "B5", Expression: "${CLIENTE}"}})
	require.NoError(t, err)

	state, err := svc.Update(ctx, code, TemplateUpdate{
		Name:   ptr("Factura mensual"),
		Fields: []template.Field{{Position: "C3", Expression: "${FECHA}"}, {Position: "B5", Expression: "${CLIENTE}"}},
	})
	require.NoError(t, err)
	require.Equal(t, validation.Valid, state)

	tpl, err := svc.Find(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "Factura mensual", tpl.Name)
	assert.Equal(t, 2, tpl.Version)
	require.Len(t, tpl.Fields, 2)
	assert.Equal(t, "C3", tpl.Fields[0].Position)

	state, err = svc.AddField(ctx, code, "G30", "${TOTAL}")
	require.NoError(t, err)
	require.Equal(t, validation.Valid, state)
	state, err = svc.AddField(ctx, code, "G30", "${TOTAL}")
	require.NoError(t, err)
	assert.Equal(t, validation.InvalidPosition, state)
	state, err = svc.UpdateField(ctx, code, "G30", "G31", "${TOTAL}")
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state)
	state, err = svc.RemoveField(ctx, code, "C3")
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state)
	state, err = svc.RemoveField(ctx, code, "Z99")
	require.NoError(t, err)
	assert.Equal(t, validation.NotFound, state)

	tpl, err = svc.Find(ctx, code)
	require.NoError(t, err)
	require.Len(t, tpl.Fields, 2)
	assert.Equal(t, "B5", tpl.Fields[0].Position)
	assert.Equal(t, "G31", tpl.Fields[1].Position)

	ok, err := svc.Remove(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)

	state, err = svc.Update(ctx, code, TemplateUpdate{Name: ptr("Otra")})
	require.NoError(t, err)
	assert.Equal(t, validation.ReadOnly, state)
	state, err = svc.AddField(ctx, code, "H1", "x")
	require.NoError(t, err)
	assert.Equal(t, validation.ReadOnly, state)

	live, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, live)

	ok, err = svc.Restore(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)
	state, err = svc.Update(ctx, code, TemplateUpdate{Name: ptr("Otra")})
	require.NoError(t, err)
	assert.Equal(t, validation.Valid, state)

	state, err = svc.Update(ctx, 404, TemplateUpdate{})
	require.NoError(t, err)
	assert.Equal(t, validation.NotFound, state)
}
