package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus follows an invoice from draft to payment.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinal     InvoiceStatus = "final"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice bills a customer for the delivery notes of a period.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`

	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Date        time.Time `gorm:"not null;index" json:"date"`
	PeriodStart time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`

	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`
	Notes  string        `gorm:"type:text" json:"notes,omitempty"`

	DeliveryNotes []DeliveryNote `gorm:"many2many:invoice_delivery_notes;" json:"delivery_notes,omitempty"`
}

// Cancelled invoices stay on record but are never rendered again.
func (i *Invoice) Cancelled() bool {
	return i.Status == InvoiceStatusCancelled
}

// ItemsTotal is the sum of the delivery note totals, before subtotals.
func (i *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for idx := range i.DeliveryNotes {
		total = total.Add(i.DeliveryNotes[idx].Total())
	}
	return total
}

// DeliveryNote records produce a farmer delivered on one day.
type DeliveryNote struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Date time.Time `gorm:"not null;index" json:"date"`

	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID  uint      `gorm:"index;not null" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	// UnitPrice is copied from the product when the note is created.
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"unit_price"`

	Lines []DeliveryNoteLine `gorm:"foreignKey:DeliveryNoteID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// ByWeight reports whether lines are priced by net weight.
func (n *DeliveryNote) ByWeight() bool {
	return n.Product == nil || n.Product.PricedByWeight
}

// TotalQuantity sums the quantities of all lines.
func (n *DeliveryNote) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for idx := range n.Lines {
		total = total.Add(n.Lines[idx].Quantity)
	}
	return total
}

// TotalWeight sums the net weights of all lines.
func (n *DeliveryNote) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for idx := range n.Lines {
		total = total.Add(n.Lines[idx].NetWeight())
	}
	return total
}

// Total is the amount of the note.
func (n *DeliveryNote) Total() decimal.Decimal {
	total := decimal.Zero
	for idx := range n.Lines {
		total = total.Add(n.Lines[idx].Total(n.UnitPrice, n.ByWeight()))
	}
	return total
}

// DeliveryNoteLine is one weighing of a delivery note.
type DeliveryNoteLine struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeliveryNoteID uint `gorm:"index;not null" json:"delivery_note_id"`

	// Code of the weighing ticket
	Code        string          `gorm:"size:50" json:"code"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	GrossWeight decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"gross_weight"`

	ContainerID *uint      `gorm:"index" json:"container_id,omitempty"`
	Container   *Container `gorm:"foreignKey:ContainerID" json:"container,omitempty"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`
}

// NetWeight is the gross weight minus the tare of Quantity containers, never negative.
func (l *DeliveryNoteLine) NetWeight() decimal.Decimal {
	net := l.GrossWeight
	if l.Container != nil {
		net = net.Sub(l.Container.Tare.Mul(l.Quantity))
	}
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Total prices the line by net weight or by quantity.
func (l *DeliveryNoteLine) Total(unitPrice decimal.Decimal, byWeight bool) decimal.Decimal {
	if byWeight {
		return l.NetWeight().Mul(unitPrice)
	}
	return l.Quantity.Mul(unitPrice)
}
