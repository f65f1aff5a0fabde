// Package template models spreadsheet templates: a rendering file plus an ordered set of
// fields, each mapping a sheet position to an expression with ${variable} placeholders.
package template

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/diewo77/agrodocs/validation"
)

var (
	ErrTemplateDeleted   = errors.New("template is deleted")
	ErrDuplicatePosition = errors.New("duplicate field position")
	ErrFieldNotFound     = errors.New("template field not found")
)

// Extensions accepted as template files.
var Extensions = []string{"xlsx", "xlsm", "xltx", "xltm"}

// File is an opaque binary resource plus its extension.
// In JSON the content is base64 encoded.
type File struct {
	Content   []byte `json:"content"`
	Extension string `json:"extension"`
}

// FileFromName builds a File taking the extension from name.
func FileFromName(name string, content []byte) File {
	return File{Content: content, Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")}
}

// Empty reports whether there is nothing to store.
func (f File) Empty() bool { return len(f.Content) == 0 }

// SupportedExtension reports whether f can be loaded as a spreadsheet template.
func (f File) SupportedExtension() bool {
	ext := strings.ToLower(strings.TrimPrefix(f.Extension, "."))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Field maps one position to an expression. Sequence fixes evaluation order.
type Field struct {
	Sequence   int    `json:"sequence"`
	Position   string `json:"position"`
	Expression string `json:"expression"`
}

// NewField validates position before building the field.
func NewField(position, expression string) (Field, error) {
	if _, err := ParsePosition(position); err != nil {
		return Field{}, err
	}
	return Field{Position: position, Expression: expression}, nil
}

// Template is a named, versioned rendering file with its fields.
type Template struct {
	Code    int64   `json:"code"`
	Name    string  `json:"name"`
	Version int     `json:"version"`
	File    File    `json:"file"`
	Fields  []Field `json:"fields"`
	Deleted bool    `json:"deleted"`
}

// OrderedFields returns the fields sorted by Sequence (position as tie-break).
func (t *Template) OrderedFields() []Field {
	out := make([]Field, len(t.Fields))
	copy(out, t.Fields)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// Field returns the field at position.
func (t *Template) Field(position string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Position == position {
			return f, true
		}
	}
	return Field{}, false
}

// AddField appends f after the last field.
func (t *Template) AddField(f Field) error {
	if t.Deleted {
		return ErrTemplateDeleted
	}
	p, err := ParsePosition(f.Position)
	if err != nil {
		return err
	}
	if t.anchorTaken(p.Anchor(), "") {
		return fmt.Errorf("%w: %s", ErrDuplicatePosition, f.Position)
	}
	f.Sequence = t.nextSequence()
	t.Fields = append(t.Fields, f)
	return nil
}

// UpdateField edits the field at position in place; the sequence is kept.
func (t *Template) UpdateField(position, newPosition, expression string) error {
	if t.Deleted {
		return ErrTemplateDeleted
	}
	p, err := ParsePosition(newPosition)
	if err != nil {
		return err
	}
	idx := -1
	for i, f := range t.Fields {
		if f.Position == position {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, position)
	}
	if t.anchorTaken(p.Anchor(), position) {
		return fmt.Errorf("%w: %s", ErrDuplicatePosition, newPosition)
	}
	t.Fields[idx].Position = newPosition
	t.Fields[idx].Expression = expression
	return nil
}

// RemoveField deletes the field at position and renumbers the rest.
func (t *Template) RemoveField(position string) error {
	if t.Deleted {
		return ErrTemplateDeleted
	}
	ordered := t.OrderedFields()
	kept := ordered[:0]
	found := false
	for _, f := range ordered {
		if f.Position == position {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, position)
	}
	t.Fields = renumber(kept)
	return nil
}

// ReplaceFields swaps the whole field set. Order of fields is the new sequence.
func (t *Template) ReplaceFields(fields []Field) error {
	if t.Deleted {
		return ErrTemplateDeleted
	}
	if err := CheckFields(fields); err != nil {
		return err
	}
	next := make([]Field, len(fields))
	copy(next, fields)
	t.Fields = renumber(next)
	return nil
}

// CheckFields validates every position and rejects positions sharing an anchor
// cell: B5, B5:B5 and B5:D9 all write to B5.
func CheckFields(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		p, err := ParsePosition(f.Position)
		if err != nil {
			return err
		}
		if _, dup := seen[p.Anchor()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePosition, f.Position)
		}
		seen[p.Anchor()] = struct{}{}
	}
	return nil
}

// anchorTaken reports whether a field other than the one at except writes to anchor.
func (t *Template) anchorTaken(anchor, except string) bool {
	for _, f := range t.Fields {
		if f.Position == except {
			continue
		}
		p, err := ParsePosition(f.Position)
		if err == nil && p.Anchor() == anchor {
			return true
		}
	}
	return false
}

// Validate checks name and file. Field errors are reported by CheckFields.
func Validate(name string, file File) validation.State {
	if strings.TrimSpace(name) == "" {
		return validation.InvalidName
	}
	if file.Empty() || !file.SupportedExtension() {
		return validation.InvalidFile
	}
	return validation.Valid
}

// StateOf maps field mutation errors onto validation states.
func StateOf(err error) validation.State {
	switch {
	case err == nil:
		return validation.Valid
	case errors.Is(err, ErrTemplateDeleted):
		return validation.ReadOnly
	case errors.Is(err, ErrInvalidPosition), errors.Is(err, ErrDuplicatePosition):
		return validation.InvalidPosition
	case errors.Is(err, ErrFieldNotFound):
		return validation.NotFound
	}
	return ""
}

func (t *Template) nextSequence() int {
	max := 0
	for _, f := range t.Fields {
		if f.Sequence > max {
			max = f.Sequence
		}
	}
	return max + 1
}

func renumber(fields []Field) []Field {
	for i := range fields {
		fields[i].Sequence = i + 1
	}
	return fields
}
