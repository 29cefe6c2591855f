package formmodel

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// FormDefinition is the root definition of a form tree. It owns the class
// registry, imported libraries and the processing configuration shared by
// every form created from it.
type FormDefinition struct {
	containerBase
	classes   map[string]*ClassDefinition
	libraries map[string]*Library
	config    Config
	resolved  bool
}

// NewFormDefinition creates a form definition. The id may be empty.
func NewFormDefinition(id string, opts ...Option) *FormDefinition {
	return &FormDefinition{
		containerBase: containerBase{baseDefinition: newBase(id)},
		classes:       make(map[string]*ClassDefinition),
		libraries:     make(map[string]*Library),
		config:        newConfig(opts...),
	}
}

// Config returns the processing configuration.
func (d *FormDefinition) Config() Config { return d.config }

// RegisterClass adds a class to the form's registry.
func (d *FormDefinition) RegisterClass(c *ClassDefinition) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if err := validateID(c); err != nil {
		return err
	}
	if _, dup := d.classes[c.ID()]; dup {
		return definitionError(c, ErrDuplicateID)
	}
	d.classes[c.ID()] = c
	return nil
}

// Class returns a registered class.
func (d *FormDefinition) Class(id string) (*ClassDefinition, bool) {
	c, ok := d.classes[id]
	return c, ok
}

// Import makes the classes of lib available as "prefix:class".
func (d *FormDefinition) Import(prefix string, lib *Library) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if prefix == "" || strings.ContainsAny(prefix, ":./") {
		return &DefinitionError{Err: fmt.Errorf("%w: library prefix %q", ErrInvalidID, prefix), ID: d.id, Location: d.location}
	}
	if _, dup := d.libraries[prefix]; dup {
		return &DefinitionError{Err: fmt.Errorf("%w: library prefix %q", ErrDuplicateID, prefix), ID: d.id, Location: d.location}
	}
	d.libraries[prefix] = lib
	return nil
}

// IsResolved reports whether Resolve has completed.
func (d *FormDefinition) IsResolved() bool { return d.resolved }

// Resolve expands class references, checks for cycles and locks the whole
// definition tree. Calling it again after success is a no-op.
func (d *FormDefinition) Resolve() error {
	if d.resolved {
		return nil
	}
	if strings.ContainsAny(d.id, "./") {
		return definitionError(d, ErrInvalidID)
	}

	// Classes declared as direct children join the registry and leave the tree.
	for _, c := range d.children.reset() {
		if class, ok := c.(*ClassDefinition); ok {
			if err := d.RegisterClass(class); err != nil {
				return err
			}
			continue
		}
		if err := d.children.put(c); err != nil {
			return err
		}
	}

	r := &resolver{form: d}
	if err := r.resolve(); err != nil {
		return err
	}

	d.resolved = true
	for _, c := range d.classes {
		c.MakeImmutable()
	}
	d.MakeImmutable()
	d.config.Logger.Debug("form definition resolved",
		"form", d.id,
		"classes", len(d.classes),
		"libraries", slices.Sorted(maps.Keys(d.libraries)))
	return nil
}

// NewForm creates a form instance. The definition must be resolved.
func (d *FormDefinition) NewForm() (*Form, error) {
	if !d.resolved {
		return nil, definitionError(d, ErrNotResolved)
	}
	f := d.CreateInstance().(*Form)
	if err := f.initialize(); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateInstance creates an uninitialized form. It panics when the
// definition has not been resolved; use NewForm instead.
func (d *FormDefinition) CreateInstance() Widget {
	if !d.resolved {
		panic(definitionError(d, ErrNotResolved))
	}
	f := &Form{def: d, cfg: d.config, instanceID: uuid.NewString(), locale: d.config.Locale}
	f.init(f, d)
	f.children.create(f, d.children.items)
	return f
}
