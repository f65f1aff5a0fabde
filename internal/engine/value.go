package engine

import (
	"time"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/shopspring/decimal"
)

// DateLayout is the format every date is rendered with (dd-MM-yyyy HH:mm:ss).
const DateLayout = "02-01-2006 15:04:05"

// Item is one line of a delivery note or invoice.
type Item struct {
	Date        time.Time
	Code        string
	Quantity    decimal.Decimal
	Weight      decimal.Decimal
	ProductName string
	UnitPrice   decimal.Decimal
	// ByWeight prices the line by Weight instead of Quantity.
	ByWeight bool
}

// Total is (weight or quantity) times unit price.
func (it Item) Total() decimal.Decimal {
	if it.ByWeight {
		return it.Weight.Mul(it.UnitPrice)
	}
	return it.Quantity.Mul(it.UnitPrice)
}

// Value is what a Context returns for an attribute. Only the field matching Kind is set.
type Value struct {
	kind  attribute.Kind
	text  string
	num   decimal.Decimal
	date  time.Time
	items []Item
}

func Text(s string) Value                { return Value{kind: attribute.KindText, text: s} }
func Number(d decimal.Decimal) Value     { return Value{kind: attribute.KindNumber, num: d} }
func Money(d decimal.Decimal) Value      { return Value{kind: attribute.KindMoney, num: d} }
func Date(t time.Time) Value             { return Value{kind: attribute.KindDate, date: t} }
func Items(items []Item) Value           { return Value{kind: attribute.KindItems, items: items} }
func (v Value) Kind() attribute.Kind     { return v.kind }
func (v Value) IsList() bool             { return v.kind == attribute.KindItems }
func (v Value) List() []Item             { return v.items }
func (v Value) Decimal() decimal.Decimal { return v.num }
func (v Value) Time() time.Time          { return v.date }

// String is the form substituted into multi-token or mixed expressions.
func (v Value) String() string {
	switch v.kind {
	case attribute.KindText:
		return v.text
	case attribute.KindNumber:
		return v.num.String()
	case attribute.KindMoney:
		return v.num.StringFixed(2)
	case attribute.KindDate:
		return formatDate(v.date)
	}
	return ""
}

// Native is the value written when an expression is a single token:
// numbers and money stay decimal so the renderer can format them.
func (v Value) Native() any {
	switch v.kind {
	case attribute.KindNumber, attribute.KindMoney:
		return v.num
	case attribute.KindItems:
		return v.items
	}
	return v.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
