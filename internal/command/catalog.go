package command

import "fmt"

// Catalog is an immutable, name-unique list of definitions.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog validates defs and returns them as a catalog. Order is kept.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[def.Name]; dup {
			return nil, fmt.Errorf("duplicate command definition %q", def.Name)
		}
		c.index[def.Name] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static catalogs; it panics on error.
func MustCatalog(defs ...Definition) *Catalog {
	c, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Definitions returns a copy of the catalog in declaration order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Lookup returns the definition with the given name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.index[name]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Active returns the definitions that are not marked deleted.
func (c *Catalog) Active() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, def := range c.defs {
		if !def.Deleted {
			out = append(out, def)
		}
	}
	return out
}
