// Package engine resolves the placeholders of a template against a document.
//
// Resolution is pure: it reads the template, the variable catalog and the document
// context, and returns a Result describing every cell to write. Nothing is written
// anywhere; a failing field aborts the whole document with a *ResolutionError.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/diewo77/agrodocs/internal/variable"
	"github.com/shopspring/decimal"
)

var tokenRx = regexp.MustCompile(`\$\{(.+?)\}`)

// ItemColumns is the number of sub-columns an expanded line item occupies:
// date, code, quantity, weight, product, unit price and line total.
const ItemColumns = 7

// Options tune a resolution.
type Options struct {
	// Now stamps GENERATION_DATE. Defaults to time.Now.
	Now func() time.Time
}

// Tokens returns the variable names referenced by expr, in order of appearance.
func Tokens(expr string) []string {
	matches := tokenRx.FindAllStringSubmatch(expr, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

type field struct {
	template.Field
	pos    template.Position
	tokens []string
	single bool
}

type resolver struct {
	catalog   Catalog
	doc       Context
	now       time.Time
	total     decimal.Decimal
	subtotals map[string]decimal.Decimal
}

// Resolve computes the value of every field of tpl in field sequence order.
func Resolve(tpl *template.Template, catalog Catalog, doc Context, opts Options) (*Result, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	r := &resolver{
		catalog:   catalog,
		doc:       doc,
		now:       now(),
		subtotals: make(map[string]decimal.Decimal),
	}

	fields, err := r.prepare(tpl.OrderedFields())
	if err != nil {
		return nil, err
	}
	if err := r.cascade(fields); err != nil {
		return nil, err
	}

	res := &Result{GeneratedAt: r.now, Total: r.total}
	for _, f := range fields {
		if err := r.resolveField(f, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// prepare parses positions and checks every token names a known variable
// before any value is computed.
func (r *resolver) prepare(fields []template.Field) ([]field, error) {
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		pos, err := template.ParsePosition(f.Position)
		if err != nil {
			return nil, fail(InvalidPosition, f.Position, "", err)
		}
		tokens := Tokens(f.Expression)
		for _, name := range tokens {
			if _, ok := r.catalog.Lookup(name); !ok {
				return nil, fail(UnknownVariable, f.Position, name, nil)
			}
		}
		loc := tokenRx.FindAllStringIndex(f.Expression, -1)
		single := len(loc) == 1 && loc[0][0] == 0 && loc[0][1] == len(f.Expression)
		out = append(out, field{Field: f, pos: pos, tokens: tokens, single: single})
	}
	return out, nil
}

// cascade applies subtotal variables to the running total in field order. Each
// subtotal is computed on the total left by the previous ones, and a variable
// used in several fields applies once.
func (r *resolver) cascade(fields []field) error {
	if !attribute.InvoiceItemsTotal.AppliesTo(r.doc.Kind()) {
		return nil
	}
	var pending []variable.Variable
	needsTotal := false
	seen := make(map[string]bool)
	for _, f := range fields {
		for _, name := range f.tokens {
			v, _ := r.catalog.Lookup(name)
			switch {
			case v.Attribute.RequiresSubtotal():
				if !seen[name] {
					seen[name] = true
					pending = append(pending, v)
				}
			case v.Attribute == attribute.InvoiceTotal:
				needsTotal = true
			}
		}
	}
	if len(pending) == 0 && !needsTotal {
		return nil
	}

	base, err := r.doc.Resolve(attribute.InvoiceItemsTotal)
	if err != nil {
		return fail(ContextFailure, "", "", fmt.Errorf("items total: %w", err))
	}
	running := base.Decimal()
	for _, v := range pending {
		if v.Subtotal == nil {
			return fail(ContextFailure, "", v.Name, errors.New("subtotal variable without subtotal"))
		}
		amount := v.Subtotal.CalculateDecimal(running)
		r.subtotals[v.Name] = amount
		running = running.Add(amount)
	}
	r.total = running
	return nil
}

func (r *resolver) resolveField(f field, res *Result) error {
	if len(f.tokens) == 0 {
		res.addCell(Cell{Position: f.pos.Anchor(), Value: f.Expression})
		return nil
	}

	values := make(map[string]Value, len(f.tokens))
	for _, name := range f.tokens {
		v, _ := r.catalog.Lookup(name)
		val, err := r.value(f.Position, v)
		if err != nil {
			return err
		}
		if val.IsList() {
			if !f.single {
				return fail(MixedListExpression, f.Position, name, nil)
			}
			return r.expand(f, val.List(), res)
		}
		values[name] = val
	}

	if f.single {
		res.addCell(Cell{Position: f.pos.Anchor(), Value: values[f.tokens[0]].Native()})
		return nil
	}
	text := tokenRx.ReplaceAllStringFunc(f.Expression, func(m string) string {
		return values[m[2:len(m)-1]].String()
	})
	res.addCell(Cell{Position: f.pos.Anchor(), Value: text})
	return nil
}

func (r *resolver) value(position string, v variable.Variable) (Value, error) {
	a := v.Attribute
	if !a.AppliesTo(r.doc.Kind()) {
		return Value{}, fail(NotApplicable, position, v.Name, fmt.Errorf("%w: %s on %s", ErrNotApplicable, a, r.doc.Kind()))
	}
	switch {
	case a == attribute.GenerationDate:
		return Date(r.now), nil
	case a.RequiresSubtotal():
		return Money(r.subtotals[v.Name]), nil
	case a == attribute.InvoiceTotal:
		return Money(r.total), nil
	}
	val, err := r.doc.Resolve(a)
	if errors.Is(err, ErrNotApplicable) {
		return Value{}, fail(NotApplicable, position, v.Name, err)
	}
	if err != nil {
		return Value{}, fail(ContextFailure, position, v.Name, err)
	}
	return val, nil
}

// expand writes one row per item, starting at the anchor and moving down one row each.
func (r *resolver) expand(f field, items []Item, res *Result) error {
	block := Block{Anchor: f.pos.Anchor(), Rows: make([]Row, 0, len(items))}
	for i, it := range items {
		values := [ItemColumns]any{
			formatDate(it.Date),
			it.Code,
			it.Quantity,
			it.Weight,
			it.ProductName,
			it.UnitPrice,
			it.Total(),
		}
		row := Row{Number: f.pos.Row + i, Cells: make([]Cell, 0, ItemColumns)}
		for col, val := range values {
			name, err := f.pos.Offset(col, i)
			if err != nil {
				return fail(InvalidPosition, f.Position, "", err)
			}
			row.Cells = append(row.Cells, Cell{Position: name, Value: val})
		}
		block.Rows = append(block.Rows, row)
	}
	res.addBlock(block)
	return nil
}
