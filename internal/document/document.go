// Package document exposes invoices and delivery notes to the resolution engine.
//
// Each document kind registers one resolver table mapping an attribute to a
// function reading it; attributes missing from the table are not applicable.
package document

import (
	"sort"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/engine"
	"github.com/diewo77/agrodocs/internal/models"
)

type table[T any] map[attribute.Attribute]func(T) engine.Value

func (t table[T]) resolve(doc T, a attribute.Attribute) (engine.Value, error) {
	fn, ok := t[a]
	if !ok {
		return engine.Value{}, engine.ErrNotApplicable
	}
	return fn(doc), nil
}

func merge[T any](tables ...table[T]) table[T] {
	out := make(table[T])
	for _, t := range tables {
		for a, fn := range t {
			out[a] = fn
		}
	}
	return out
}

// parties resolves the sender and farmer customer attributes shared by every kind.
func parties[T any](sender func(T) *models.CompanySettings, customer func(T) *models.Customer) table[T] {
	s := func(get func(*models.CompanySettings) string) func(T) engine.Value {
		return func(doc T) engine.Value {
			if c := sender(doc); c != nil {
				return engine.Text(get(c))
			}
			return engine.Text("")
		}
	}
	c := func(get func(*models.Customer) string) func(T) engine.Value {
		return func(doc T) engine.Value {
			if cu := customer(doc); cu != nil {
				return engine.Text(get(cu))
			}
			return engine.Text("")
		}
	}
	return table[T]{
		attribute.SenderCode:    s(func(c *models.CompanySettings) string { return c.Code }),
		attribute.SenderName:    s(func(c *models.CompanySettings) string { return c.Name }),
		attribute.SenderTIN:     s(func(c *models.CompanySettings) string { return c.TIN }),
		attribute.SenderAddress: s(func(c *models.CompanySettings) string { return c.FullAddress() }),
		attribute.SenderPhone:   s(func(c *models.CompanySettings) string { return c.Phone }),
		attribute.SenderEmail:   s(func(c *models.CompanySettings) string { return c.Email }),

		attribute.FarmerCustomerCode:    c(func(cu *models.Customer) string { return cu.Code }),
		attribute.FarmerCustomerName:    c(func(cu *models.Customer) string { return cu.Name }),
		attribute.FarmerCustomerTIN:     c(func(cu *models.Customer) string { return cu.TIN }),
		attribute.FarmerCustomerAddress: c(func(cu *models.Customer) string { return cu.FullAddress() }),
		attribute.FarmerCustomerPhone:   c(func(cu *models.Customer) string { return cu.Phone }),
		attribute.FarmerCustomerEmail:   c(func(cu *models.Customer) string { return cu.Email }),
	}
}

func productName(n *models.DeliveryNote) string {
	if n.Product == nil {
		return ""
	}
	return n.Product.Name
}

func sortedLines(n *models.DeliveryNote) []models.DeliveryNoteLine {
	lines := make([]models.DeliveryNoteLine, len(n.Lines))
	copy(lines, n.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	return lines
}
