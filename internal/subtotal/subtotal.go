// Package subtotal implements named percentage adjustments (taxes and discounts)
// applied to a monetary base.
package subtotal

import "github.com/shopspring/decimal"

const (
	MinPercentage = 0
	MaxPercentage = 100
)

var hundred = decimal.NewFromInt(100)

// Subtotal is a tax (positive) or discount (negative) expressed as a whole percentage.
type Subtotal struct {
	Code       int64  `json:"code"`
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
	IsDiscount bool   `json:"is_discount"`
	Deleted    bool   `json:"deleted"`
}

// New builds a Subtotal. Percentages outside [0,100] are clamped, never rejected.
func New(code int64, name string, percentage int, isDiscount bool) Subtotal {
	return Subtotal{
		Code:       code,
		Name:       name,
		Percentage: Clamp(percentage),
		IsDiscount: isDiscount,
	}
}

// Clamp forces p into [MinPercentage, MaxPercentage].
func Clamp(p int) int {
	if p < MinPercentage {
		return MinPercentage
	}
	if p > MaxPercentage {
		return MaxPercentage
	}
	return p
}

// Calculate returns base*percentage/100, negated for discounts.
func (s Subtotal) Calculate(base float64) float64 {
	f, _ := s.CalculateDecimal(decimal.NewFromFloat(base)).Float64()
	return f
}

// CalculateDecimal is Calculate on exact decimals; the cascade in the engine uses it
// so repeated adjustments do not accumulate binary rounding error.
func (s Subtotal) CalculateDecimal(base decimal.Decimal) decimal.Decimal {
	amount := base.Mul(decimal.NewFromInt(int64(Clamp(s.Percentage)))).Div(hundred)
	if s.IsDiscount {
		return amount.Neg()
	}
	return amount
}
