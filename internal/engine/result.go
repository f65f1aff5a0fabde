package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cell is one value to write at a cell address.
type Cell struct {
	Position string
	Value    any
}

// Row is one expanded line item. Number is the sheet row it lands on.
type Row struct {
	Number int
	Cells  []Cell
}

// Block is the expansion of a list-valued field starting at Anchor.
type Block struct {
	Anchor string
	Rows   []Row
}

// Result holds every write of a resolved document, in field order.
type Result struct {
	Cells       []Cell
	Blocks      []Block
	Total       decimal.Decimal
	GeneratedAt time.Time

	writes []Cell
}

// Value returns the resolved scalar written at position.
func (r *Result) Value(position string) (any, bool) {
	for _, c := range r.Cells {
		if c.Position == position {
			return c.Value, true
		}
	}
	return nil, false
}

// Block returns the row block anchored at anchor.
func (r *Result) Block(anchor string) (Block, bool) {
	for _, b := range r.Blocks {
		if b.Anchor == anchor {
			return b, true
		}
	}
	return Block{}, false
}

// Writes flattens cells and blocks into the order they must reach the renderer.
func (r *Result) Writes() []Cell {
	return r.writes
}

// Flatten renders every write as text, keyed by cell address.
func (r *Result) Flatten() map[string]string {
	out := make(map[string]string, len(r.writes))
	for _, w := range r.writes {
		out[w.Position] = stringify(w.Value)
	}
	return out
}

func (r *Result) addCell(c Cell) {
	r.Cells = append(r.Cells, c)
	r.writes = append(r.writes, c)
}

func (r *Result) addBlock(b Block) {
	r.Blocks = append(r.Blocks, b)
	for _, row := range b.Rows {
		r.writes = append(r.writes, row.Cells...)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case decimal.Decimal:
		return t.String()
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
