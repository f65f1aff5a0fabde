package document

import (
	"sort"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/engine"
	"github.com/diewo77/agrodocs/internal/models"
)

// InvoiceData is an invoice with its customer and delivery notes loaded.
// Subtotals and the final total are computed by the engine.
type InvoiceData struct {
	Issuer  *models.CompanySettings
	Invoice *models.Invoice
}

// NewInvoice wraps a loaded invoice.
func NewInvoice(issuer *models.CompanySettings, inv *models.Invoice) *InvoiceData {
	return &InvoiceData{Issuer: issuer, Invoice: inv}
}

func (d *InvoiceData) Kind() attribute.DocumentKind { return attribute.DocumentInvoice }

func (d *InvoiceData) Resolve(a attribute.Attribute) (engine.Value, error) {
	return invoiceTable.resolve(d, a)
}

// Items returns one item per delivery note, ordered by date then code.
func (d *InvoiceData) Items() []engine.Item {
	notes := make([]models.DeliveryNote, len(d.Invoice.DeliveryNotes))
	copy(notes, d.Invoice.DeliveryNotes)
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].Date.Equal(notes[j].Date) {
			return notes[i].Date.Before(notes[j].Date)
		}
		return notes[i].Code < notes[j].Code
	})
	items := make([]engine.Item, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		items = append(items, engine.Item{
			Date:        n.Date,
			Code:        n.Code,
			Quantity:    n.TotalQuantity(),
			Weight:      n.TotalWeight(),
			ProductName: productName(n),
			UnitPrice:   n.UnitPrice,
			ByWeight:    n.ByWeight(),
		})
	}
	return items
}

var invoiceTable = merge(
	parties(
		func(d *InvoiceData) *models.CompanySettings { return d.Issuer },
		func(d *InvoiceData) *models.Customer { return d.Invoice.Customer },
	),
	table[*InvoiceData]{
		attribute.InvoiceCode:        func(d *InvoiceData) engine.Value { return engine.Text(d.Invoice.Code) },
		attribute.InvoiceDate:        func(d *InvoiceData) engine.Value { return engine.Date(d.Invoice.Date) },
		attribute.InvoicePeriodStart: func(d *InvoiceData) engine.Value { return engine.Date(d.Invoice.PeriodStart) },
		attribute.InvoicePeriodEnd:   func(d *InvoiceData) engine.Value { return engine.Date(d.Invoice.PeriodEnd) },
		attribute.InvoiceItems:       func(d *InvoiceData) engine.Value { return engine.Items(d.Items()) },
		attribute.InvoiceItemsTotal:  func(d *InvoiceData) engine.Value { return engine.Money(d.Invoice.ItemsTotal()) },
		// Before subtotals; the engine replaces it with the cascaded total.
		attribute.InvoiceTotal: func(d *InvoiceData) engine.Value { return engine.Money(d.Invoice.ItemsTotal()) },
	},
)
