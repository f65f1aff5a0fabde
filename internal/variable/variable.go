// Package variable binds placeholder names to entity attributes.
package variable

import (
	"strings"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/subtotal"
	"github.com/diewo77/agrodocs/validation"
)

// Variable is a named binding between a placeholder and one attribute.
// Subtotal is set only for attributes that require one (SubtotalVariable).
type Variable struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Attribute   attribute.Attribute `json:"attribute"`
	Subtotal    *subtotal.Subtotal  `json:"subtotal,omitempty"`
	Deleted     bool                `json:"deleted"`
}

// New builds a plain variable.
func New(name, description string, attr attribute.Attribute) Variable {
	return Variable{Name: name, Description: description, Attribute: attr}
}

// NewSubtotal builds a variable carrying a subtotal.
func NewSubtotal(name, description string, s subtotal.Subtotal) Variable {
	return Variable{Name: name, Description: description, Attribute: attribute.InvoiceSubtotal, Subtotal: &s}
}

// IsSubtotal reports whether v is a SubtotalVariable.
func (v Variable) IsSubtotal() bool {
	return v.Subtotal != nil
}

// Names is the set of names already taken, deleted variables included.
type Names map[string]struct{}

// NewNames builds a Names set.
func NewNames(names ...string) Names {
	s := make(Names, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is taken. Names are case sensitive.
func (n Names) Has(name string) bool {
	_, ok := n[name]
	return ok
}

// Validate checks v against the rules for registration.
// existing must contain every registered name, deleted ones included: names are never recycled.
func Validate(v Variable, existing Names) validation.State {
	if strings.TrimSpace(v.Name) == "" {
		return validation.InvalidName
	}
	if !v.Attribute.Valid() {
		return validation.InvalidAttribute
	}
	if v.Attribute.RequiresSubtotal() != v.IsSubtotal() {
		return validation.InvalidSubtotal
	}
	if existing.Has(v.Name) {
		return validation.Duplicated
	}
	return validation.Valid
}
