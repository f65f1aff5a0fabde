package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// State is the typed outcome of validating a catalog entry (subtotal, variable, template).
// Validation never fails with an error; callers switch on the state.
type State string

const (
	Valid            State = "valid"
	InvalidName      State = "invalid_name"
	InvalidAttribute State = "invalid_attribute"
	InvalidSubtotal  State = "invalid_subtotal"
	InvalidFile      State = "invalid_file"
	InvalidPosition  State = "invalid_position"
	Duplicated       State = "duplicated"
	ReadOnly         State = "read_only"
	InUse            State = "in_use"
	NotFound         State = "not_found"
)

// OK reports whether s is Valid.
func (s State) OK() bool { return s == Valid }

// Violations maps a field name to the message code of its failed check.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// PositiveDecimal flags amounts that are zero or negative.
func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}
