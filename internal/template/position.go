package template

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidPosition is returned for strings that are not a cell address or a cell range.
var ErrInvalidPosition = errors.New("invalid spreadsheet position")

var positionRx = regexp.MustCompile(`^([A-Z]{1,3}[1-9][0-9]*)(?::([A-Z]{1,3}[1-9][0-9]*))?$`)

// Position is a parsed cell address ("B5") or range ("A12:G12").
// For ranges the anchor is the top-left cell.
type Position struct {
	Raw    string
	Col    int
	Row    int
	EndCol int
	EndRow int
}

// ParsePosition validates and parses s.
func ParsePosition(s string) (Position, error) {
	m := positionRx.FindStringSubmatch(s)
	if m == nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	col, row, err := excelize.CellNameToCoordinates(m[1])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, s, err)
	}
	p := Position{Raw: s, Col: col, Row: row, EndCol: col, EndRow: row}
	if m[2] != "" {
		endCol, endRow, err := excelize.CellNameToCoordinates(m[2])
		if err != nil {
			return Position{}, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, s, err)
		}
		if endCol < col || endRow < row {
			return Position{}, fmt.Errorf("%w: %q: range end before start", ErrInvalidPosition, s)
		}
		p.EndCol, p.EndRow = endCol, endRow
	}
	return p, nil
}

// Anchor returns the top-left cell name.
func (p Position) Anchor() string {
	name, _ := excelize.CoordinatesToCellName(p.Col, p.Row)
	return name
}

// IsRange reports whether p spans more than one cell.
func (p Position) IsRange() bool {
	return p.EndCol != p.Col || p.EndRow != p.Row
}

// Offset returns the cell name dCol columns right and dRow rows below the anchor.
func (p Position) Offset(dCol, dRow int) (string, error) {
	return excelize.CoordinatesToCellName(p.Col+dCol, p.Row+dRow)
}
