package models

import (
	"testing"

	"github.com/diewo77/agrodocs/internal/subtotal"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCustomer_FullAddress(t *testing.T) {
	tests := []struct {
		name     string
		customer Customer
		want     string
	}{
		{
			name: "full address",
			customer: Customer{
				Address:    "Camino de la Vega 12",
				PostalCode: "04700",
				City:       "El Ejido",
				Country:    "España",
			},
			want: "Camino de la Vega 12\n04700 El Ejido\nEspaña",
		},
		{
			name:     "only city",
			customer: Customer{City: "Níjar"},
			want:     "Níjar",
		},
		{
			name:     "address and city",
			customer: Customer{Address: "Paraje Los Llanos", City: "Níjar"},
			want:     "Paraje Los Llanos\nNíjar",
		},
		{
			name:     "empty",
			customer: Customer{},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.customer.FullAddress(); got != tt.want {
				t.Errorf("FullAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvoice_Cancelled(t *testing.T) {
	tests := []struct {
		status InvoiceStatus
		want   bool
	}{
		{InvoiceStatusDraft, false},
		{InvoiceStatusFinal, false},
		{InvoiceStatusPaid, false},
		{InvoiceStatusCancelled, true},
		{"", false},
	}
	for _, tt := range tests {
		inv := &Invoice{Status: tt.status}
		if got := inv.Cancelled(); got != tt.want {
			t.Errorf("Cancelled() for %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDeliveryNoteLine_NetWeight(t *testing.T) {
	crate := &Container{Code: "C1", Tare: d("1.5")}
	tests := []struct {
		name string
		line DeliveryNoteLine
		want string
	}{
		{"no container", DeliveryNoteLine{Quantity: d("10"), GrossWeight: d("200")}, "200"},
		{"tare subtracted", DeliveryNoteLine{Quantity: d("10"), GrossWeight: d("200"), Container: crate}, "185"},
		{"never negative", DeliveryNoteLine{Quantity: d("10"), GrossWeight: d("5"), Container: crate}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.NetWeight(); !got.Equal(d(tt.want)) {
				t.Errorf("NetWeight() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDeliveryNote_Totals(t *testing.T) {
	note := &DeliveryNote{
		UnitPrice: d("0.80"),
		Product:   &Product{PricedByWeight: true},
		Lines: []DeliveryNoteLine{
			{Quantity: d("10"), GrossWeight: d("215"), Container: &Container{Tare: d("1.5")}}, // net 200
			{Quantity: d("4"), GrossWeight: d("100")},                                        // net 100
		},
	}
	if got := note.TotalQuantity(); !got.Equal(d("14")) {
		t.Errorf("TotalQuantity() = %s, want 14", got)
	}
	if got := note.TotalWeight(); !got.Equal(d("300")) {
		t.Errorf("TotalWeight() = %s, want 300", got)
	}
	// 300 kg * 0.80
	if got := note.Total(); !got.Equal(d("240")) {
		t.Errorf("Total() = %s, want 240", got)
	}

	note.Product.PricedByWeight = false
	// 14 units * 0.80
	if got := note.Total(); !got.Equal(d("11.2")) {
		t.Errorf("Total() by quantity = %s, want 11.2", got)
	}
}

func TestInvoice_ItemsTotal(t *testing.T) {
	inv := &Invoice{DeliveryNotes: []DeliveryNote{
		{UnitPrice: d("1"), Lines: []DeliveryNoteLine{{GrossWeight: d("50")}}},
		{UnitPrice: d("2"), Lines: []DeliveryNoteLine{{GrossWeight: d("25.5")}}},
	}}
	if got := inv.ItemsTotal(); !got.Equal(d("101")) {
		t.Errorf("ItemsTotal() = %s, want 101", got)
	}
}

func TestCatalogRecordsRoundTrip(t *testing.T) {
	rec := NewSubtotalRecord(subtotal.New(3, "IVA", 250, false))
	if rec.Percentage != 100 {
		t.Errorf("Percentage = %d, want clamped 100", rec.Percentage)
	}

	tpl := &template.Template{Code: 4, Name: "Albarán", Version: 2, File: template.File{Content: []byte("x"), Extension: "xlsx"},
		Fields: []template.Field{{Sequence: 2, Position: "B2", Expression: "b"}, {Sequence: 1, Position: "A1", Expression: "a"}}}
	rec2 := NewTemplateRecord(tpl)
	back := rec2.Domain()
	if back.Fields[0].Position != "A1" || back.Fields[1].Position != "B2" {
		t.Errorf("fields not ordered by sequence: %+v", back.Fields)
	}
	if back.Version != 2 || back.File.Extension != "xlsx" {
		t.Errorf("unexpected template %+v", back)
	}
}
