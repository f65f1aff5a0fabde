// Package attribute is the catalog of every fact a document template can ask for.
// An Attribute names one atomic or derived value of a document (the issuing company,
// the farmer customer, the product, the delivery note, the invoice or a computed value).
package attribute

import (
	"errors"
	"fmt"
	"sort"
)

// Attribute identifies one resolvable fact of a document.
type Attribute string

// Kind is the shape of the value an attribute resolves to.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindMoney
	KindDate
	KindItems
)

// DocumentKind is the type of business document a value is read from.
type DocumentKind string

const (
	DocumentInvoice      DocumentKind = "invoice"
	DocumentDeliveryNote DocumentKind = "delivery_note"
)

// Issuer (the company sending the document).
const (
	SenderCode    Attribute = "SENDER_CODE"
	SenderName    Attribute = "SENDER_NAME"
	SenderTIN     Attribute = "SENDER_TIN"
	SenderAddress Attribute = "SENDER_ADDRESS"
	SenderPhone   Attribute = "SENDER_PHONE"
	SenderEmail   Attribute = "SENDER_EMAIL"
)

// Farmer customer the document is addressed to.
const (
	FarmerCustomerCode    Attribute = "FARMER_CUSTOMER_CODE"
	FarmerCustomerName    Attribute = "FARMER_CUSTOMER_NAME"
	FarmerCustomerTIN     Attribute = "FARMER_CUSTOMER_TIN"
	FarmerCustomerAddress Attribute = "FARMER_CUSTOMER_ADDRESS"
	FarmerCustomerPhone   Attribute = "FARMER_CUSTOMER_PHONE"
	FarmerCustomerEmail   Attribute = "FARMER_CUSTOMER_EMAIL"
)

// Product of a delivery note.
const (
	ProductCode  Attribute = "PRODUCT_CODE"
	ProductName  Attribute = "PRODUCT_NAME"
	ProductPrice Attribute = "PRODUCT_PRICE"
)

// Delivery note.
const (
	DeliveryNoteCode          Attribute = "DELIVERY_NOTE_CODE"
	DeliveryNoteDate          Attribute = "DELIVERY_NOTE_DATE"
	DeliveryNoteItems         Attribute = "DELIVERY_NOTE_ITEMS"
	DeliveryNoteTotalQuantity Attribute = "DELIVERY_NOTE_TOTAL_QUANTITY"
	DeliveryNoteTotalWeight   Attribute = "DELIVERY_NOTE_TOTAL_WEIGHT"
	DeliveryNoteTotal         Attribute = "DELIVERY_NOTE_TOTAL"
)

// Invoice.
const (
	InvoiceCode        Attribute = "INVOICE_CODE"
	InvoiceDate        Attribute = "INVOICE_DATE"
	InvoicePeriodStart Attribute = "INVOICE_PERIOD_START"
	InvoicePeriodEnd   Attribute = "INVOICE_PERIOD_END"
	InvoiceItems       Attribute = "INVOICE_ITEMS"
	InvoiceItemsTotal  Attribute = "INVOICE_ITEMS_TOTAL"
	InvoiceSubtotal    Attribute = "INVOICE_SUBTOTAL"
	InvoiceTotal       Attribute = "INVOICE_TOTAL"
)

// Computed at generation time.
const (
	GenerationDate Attribute = "GENERATION_DATE"
)

// ErrUnknown is returned by Parse for names outside the catalog.
var ErrUnknown = errors.New("unknown entity attribute")

// Info describes a catalog entry.
type Info struct {
	Attribute Attribute      `json:"attribute"`
	Label     string         `json:"label"`
	Kind      Kind           `json:"kind"`
	Documents []DocumentKind `json:"documents"`
}

var (
	both        = []DocumentKind{DocumentInvoice, DocumentDeliveryNote}
	invoiceOnly = []DocumentKind{DocumentInvoice}
	noteOnly    = []DocumentKind{DocumentDeliveryNote}
)

var catalog = map[Attribute]Info{
	SenderCode:    {SenderCode, "Código del remitente", KindText, both},
	SenderName:    {SenderName, "Nombre del remitente", KindText, both},
	SenderTIN:     {SenderTIN, "NIF del remitente", KindText, both},
	SenderAddress: {SenderAddress, "Dirección del remitente", KindText, both},
	SenderPhone:   {SenderPhone, "Teléfono del remitente", KindText, both},
	SenderEmail:   {SenderEmail, "Email del remitente", KindText, both},

	FarmerCustomerCode:    {FarmerCustomerCode, "Código del agricultor", KindText, both},
	FarmerCustomerName:    {FarmerCustomerName, "Nombre del agricultor", KindText, both},
	FarmerCustomerTIN:     {FarmerCustomerTIN, "NIF del agricultor", KindText, both},
	FarmerCustomerAddress: {FarmerCustomerAddress, "Dirección del agricultor", KindText, both},
	FarmerCustomerPhone:   {FarmerCustomerPhone, "Teléfono del agricultor", KindText, both},
	FarmerCustomerEmail:   {FarmerCustomerEmail, "Email del agricultor", KindText, both},

	ProductCode:  {ProductCode, "Código del producto", KindText, noteOnly},
	ProductName:  {ProductName, "Nombre del producto", KindText, noteOnly},
	ProductPrice: {ProductPrice, "Precio del producto", KindMoney, noteOnly},

	DeliveryNoteCode:          {DeliveryNoteCode, "Código del albarán", KindText, noteOnly},
	DeliveryNoteDate:          {DeliveryNoteDate, "Fecha del albarán", KindDate, noteOnly},
	DeliveryNoteItems:         {DeliveryNoteItems, "Líneas del albarán", KindItems, noteOnly},
	DeliveryNoteTotalQuantity: {DeliveryNoteTotalQuantity, "Cantidad total del albarán", KindNumber, noteOnly},
	DeliveryNoteTotalWeight:   {DeliveryNoteTotalWeight, "Peso total del albarán", KindNumber, noteOnly},
	DeliveryNoteTotal:         {DeliveryNoteTotal, "Importe del albarán", KindMoney, noteOnly},

	InvoiceCode:        {InvoiceCode, "Código de la factura", KindText, invoiceOnly},
	InvoiceDate:        {InvoiceDate, "Fecha de la factura", KindDate, invoiceOnly},
	InvoicePeriodStart: {InvoicePeriodStart, "Inicio del periodo", KindDate, invoiceOnly},
	InvoicePeriodEnd:   {InvoicePeriodEnd, "Fin del periodo", KindDate, invoiceOnly},
	InvoiceItems:       {InvoiceItems, "Líneas de la factura", KindItems, invoiceOnly},
	InvoiceItemsTotal:  {InvoiceItemsTotal, "Base imponible", KindMoney, invoiceOnly},
	InvoiceSubtotal:    {InvoiceSubtotal, "Subtotal (impuesto o descuento)", KindMoney, invoiceOnly},
	InvoiceTotal:       {InvoiceTotal, "Total de la factura", KindMoney, invoiceOnly},

	GenerationDate: {GenerationDate, "Fecha de generación", KindDate, both},
}

// Parse converts a stored or user-supplied name into an Attribute.
func Parse(s string) (Attribute, error) {
	a := Attribute(s)
	if _, ok := catalog[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return a, nil
}

// Lookup returns the catalog entry for a.
func Lookup(a Attribute) (Info, bool) {
	info, ok := catalog[a]
	return info, ok
}

// All returns every catalog entry sorted by attribute name.
func All() []Info {
	out := make([]Info, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attribute < out[j].Attribute })
	return out
}

// Valid reports whether a is part of the catalog.
func (a Attribute) Valid() bool {
	_, ok := catalog[a]
	return ok
}

// Label returns the human readable label, or the raw name for unknown attributes.
func (a Attribute) Label() string {
	if info, ok := catalog[a]; ok {
		return info.Label
	}
	return string(a)
}

// Kind returns the value kind of a. Unknown attributes report KindText.
func (a Attribute) Kind() Kind {
	return catalog[a].Kind
}

// RequiresSubtotal reports whether variables bound to a must carry a subtotal.
func (a Attribute) RequiresSubtotal() bool {
	return a == InvoiceSubtotal
}

// AppliesTo reports whether a can be resolved against documents of kind k.
func (a Attribute) AppliesTo(k DocumentKind) bool {
	for _, d := range catalog[a].Documents {
		if d == k {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindMoney:
		return "money"
	case KindDate:
		return "date"
	case KindItems:
		return "items"
	}
	return "unknown"
}

// MarshalText lets Kind render as its name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
