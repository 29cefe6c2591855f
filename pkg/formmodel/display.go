package formmodel

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/formtree/pkg/render"
)

// Well-known display data names.
const (
	DisplayLabel = "label"
	DisplayHelp  = "help"
	DisplayHint  = "hint"
)

// DisplayData holds the named fragments rendered around a widget.
// An entry may be present with a nil fragment; it then renders as an empty element.
type DisplayData struct {
	entries map[string]*render.Fragment
	order   []string
}

func (d *DisplayData) set(name string, f *render.Fragment) {
	if d.entries == nil {
		d.entries = make(map[string]*render.Fragment)
	}
	if _, ok := d.entries[name]; !ok {
		d.order = append(d.order, name)
	}
	d.entries[name] = f
}

// Has reports whether name is configured, even with a nil fragment.
func (d *DisplayData) Has(name string) bool {
	_, ok := d.entries[name]
	return ok
}

// Get returns the fragment for name, nil when absent or configured empty.
func (d *DisplayData) Get(name string) *render.Fragment {
	return d.entries[name]
}

// Names returns the configured names in insertion order.
func (d *DisplayData) Names() []string {
	return slices.Clone(d.order)
}

// Len returns the number of configured entries.
func (d *DisplayData) Len() int { return len(d.order) }

func (d *DisplayData) clone() DisplayData {
	return DisplayData{entries: maps.Clone(d.entries), order: slices.Clone(d.order)}
}

func (d *DisplayData) generate(sink render.Sink) error {
	for _, name := range d.order {
		f := d.entries[name]
		if err := render.Element(sink, name, nil, func() error { return f.Generate(sink) }); err != nil {
			return err
		}
	}
	return nil
}
