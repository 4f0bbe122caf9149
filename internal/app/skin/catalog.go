/*
Package skin defines the cosmetic catalog of the activity economy.

A skin changes a star's color, its shape, or both. The catalog is fixed for the process
lifetime: either the built-in table or a YAML file given at startup.
*/
package skin

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"starsky/internal/app/session"
)

// Kind tells which cosmetic attributes a skin changes.
type Kind string

const (
	KindColor Kind = "color"
	KindShape Kind = "shape"
	KindBoth  Kind = "both"
)

// Entry is one purchasable skin.
type Entry struct {
	ID    string  `json:"id" yaml:"id"`
	Color *string `json:"color" yaml:"color"`
	Cost  float64 `json:"cost" yaml:"cost"`
	Shape *string `json:"shape" yaml:"shape"`
	Kind  Kind    `json:"type" yaml:"type"`
}

// Apply sets the cosmetics the entry grants on s.
func (e Entry) Apply(s *session.Session) {
	if (e.Kind == KindColor || e.Kind == KindBoth) && e.Color != nil && *e.Color != "" {
		s.StarColor = *e.Color
	}
	if (e.Kind == KindShape || e.Kind == KindBoth) && e.Shape != nil && *e.Shape != "" {
		s.StarShape = *e.Shape
	}
}

func (e Entry) validate() error {
	switch {
	case e.ID == "":
		return errors.New("skin without id")
	case e.Cost < 0:
		return fmt.Errorf("skin %q has a negative cost", e.ID)
	}

	hasColor := e.Color != nil && *e.Color != ""
	hasShape := e.Shape != nil && *e.Shape != ""

	switch e.Kind {
	case KindColor:
		if !hasColor {
			return fmt.Errorf("color skin %q has no color", e.ID)
		}
	case KindShape:
		if !hasShape {
			return fmt.Errorf("shape skin %q has no shape", e.ID)
		}
	case KindBoth:
		if !hasColor || !hasShape {
			return fmt.Errorf("skin %q must set both color and shape", e.ID)
		}
	default:
		return fmt.Errorf("skin %q has unknown type %q", e.ID, e.Kind)
	}

	return nil
}

// Catalog is an immutable, ordered set of skins.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
}

// New validates entries and builds a catalog keeping their order.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]Entry, len(entries)),
	}

	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate skin id %q", e.ID)
		}
		c.entries = append(c.entries, e)
		c.byID[e.ID] = e
	}

	return c, nil
}

type catalogFile struct {
	Skins []Entry `yaml:"skins"`
}

// LoadFile reads a YAML catalog of the form `skins: [{id, color, shape, cost, type}]`.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skin catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse skin catalog %s: %w", path, err)
	}
	if len(file.Skins) == 0 {
		return nil, fmt.Errorf("skin catalog %s is empty", path)
	}

	return New(file.Skins)
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// All returns every entry in catalog order.
func (c *Catalog) All() []Entry {
	return slices.Clone(c.entries)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
