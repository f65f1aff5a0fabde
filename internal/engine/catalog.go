package engine

import (
	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/variable"
)

// Context is a document (invoice or delivery note) the engine reads values from.
type Context interface {
	Kind() attribute.DocumentKind
	Resolve(attribute.Attribute) (Value, error)
}

// Catalog is the set of usable variables keyed by name.
type Catalog map[string]variable.Variable

// NewCatalog indexes vars by name. Deleted variables are left out, so referencing
// them fails like any unknown name.
func NewCatalog(vars ...variable.Variable) Catalog {
	c := make(Catalog, len(vars))
	for _, v := range vars {
		if v.Deleted {
			continue
		}
		c[v.Name] = v
	}
	return c
}

// Lookup returns the variable registered under name.
func (c Catalog) Lookup(name string) (variable.Variable, bool) {
	v, ok := c[name]
	return v, ok
}
