package document

import (
	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/engine"
	"github.com/diewo77/agrodocs/internal/models"
)

// DeliveryNoteData is a delivery note with its customer, product, lines and containers loaded.
type DeliveryNoteData struct {
	Issuer *models.CompanySettings
	Note   *models.DeliveryNote
}

// NewDeliveryNote wraps a loaded delivery note.
func NewDeliveryNote(issuer *models.CompanySettings, note *models.DeliveryNote) *DeliveryNoteData {
	return &DeliveryNoteData{Issuer: issuer, Note: note}
}

func (d *DeliveryNoteData) Kind() attribute.DocumentKind { return attribute.DocumentDeliveryNote }

func (d *DeliveryNoteData) Resolve(a attribute.Attribute) (engine.Value, error) {
	return deliveryNoteTable.resolve(d, a)
}

// Items returns one item per line, in line order.
func (d *DeliveryNoteData) Items() []engine.Item {
	n := d.Note
	lines := sortedLines(n)
	items := make([]engine.Item, 0, len(lines))
	for i := range lines {
		items = append(items, engine.Item{
			Date:        n.Date,
			Code:        lines[i].Code,
			Quantity:    lines[i].Quantity,
			Weight:      lines[i].NetWeight(),
			ProductName: productName(n),
			UnitPrice:   n.UnitPrice,
			ByWeight:    n.ByWeight(),
		})
	}
	return items
}

var deliveryNoteTable = merge(
	parties(
		func(d *DeliveryNoteData) *models.CompanySettings { return d.Issuer },
		func(d *DeliveryNoteData) *models.Customer { return d.Note.Customer },
	),
	table[*DeliveryNoteData]{
		attribute.ProductCode: func(d *DeliveryNoteData) engine.Value {
			if d.Note.Product == nil {
				return engine.Text("")
			}
			return engine.Text(d.Note.Product.Code)
		},
		attribute.ProductName:               func(d *DeliveryNoteData) engine.Value { return engine.Text(productName(d.Note)) },
		attribute.ProductPrice:              func(d *DeliveryNoteData) engine.Value { return engine.Money(d.Note.UnitPrice) },
		attribute.DeliveryNoteCode:          func(d *DeliveryNoteData) engine.Value { return engine.Text(d.Note.Code) },
		attribute.DeliveryNoteDate:          func(d *DeliveryNoteData) engine.Value { return engine.Date(d.Note.Date) },
		attribute.DeliveryNoteItems:         func(d *DeliveryNoteData) engine.Value { return engine.Items(d.Items()) },
		attribute.DeliveryNoteTotalQuantity: func(d *DeliveryNoteData) engine.Value { return engine.Number(d.Note.TotalQuantity()) },
		attribute.DeliveryNoteTotalWeight:   func(d *DeliveryNoteData) engine.Value { return engine.Number(d.Note.TotalWeight()) },
		attribute.DeliveryNoteTotal:         func(d *DeliveryNoteData) engine.Value { return engine.Money(d.Note.Total()) },
	},
)
