package formmodel

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/formtree/pkg/render"
)

// Definition is the immutable template a widget is created from.
// Definitions are built once, resolved, locked with MakeImmutable and then
// shared by every form instance without synchronization.
type Definition interface {
	ID() string
	Location() string
	State() WidgetState
	Attribute(name string) (string, bool)
	DisplayData() *DisplayData
	Validators() []Validator

	// CreateInstance returns a new, unattached widget. Definitions that are
	// never instantiated (classes, class references) return nil.
	CreateInstance() Widget

	MakeImmutable()
	IsImmutable() bool

	base() *baseDefinition
}

// containerDefinition is a definition owning an ordered list of children.
type containerDefinition interface {
	Definition
	list() *definitionList
}

// baseDefinition carries the configuration common to every definition.
type baseDefinition struct {
	attributes      map[string]string
	display         DisplayData
	id              string
	location        string
	validators      []Validator
	createListeners []CreateListener
	state           WidgetState
	immutable       bool
}

func newBase(id string) baseDefinition {
	return baseDefinition{id: id}
}

func (d *baseDefinition) base() *baseDefinition { return d }

func (d *baseDefinition) checkMutable() error {
	if d.immutable {
		return &DefinitionError{Err: ErrImmutable, ID: d.id, Location: d.location}
	}
	return nil
}

func (d *baseDefinition) ID() string         { return d.id }
func (d *baseDefinition) Location() string   { return d.location }
func (d *baseDefinition) State() WidgetState { return d.state }
func (d *baseDefinition) IsImmutable() bool  { return d.immutable }

// SetLocation records where the definition was declared, e.g. "signup.yaml:12".
func (d *baseDefinition) SetLocation(loc string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.location = loc
	return nil
}

// SetState sets the initial state of widgets created from the definition.
func (d *baseDefinition) SetState(s WidgetState) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.state = s
	return nil
}

func (d *baseDefinition) Attribute(name string) (string, bool) {
	v, ok := d.attributes[name]
	return v, ok
}

// Attributes returns a copy of the static attributes.
func (d *baseDefinition) Attributes() map[string]string {
	return maps.Clone(d.attributes)
}

func (d *baseDefinition) SetAttribute(name, value string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if d.attributes == nil {
		d.attributes = make(map[string]string)
	}
	d.attributes[name] = value
	return nil
}

func (d *baseDefinition) DisplayData() *DisplayData { return &d.display }

// SetDisplayData configures a display fragment. A nil fragment is kept as
// an explicitly empty entry.
func (d *baseDefinition) SetDisplayData(name string, f *render.Fragment) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.display.set(name, f)
	return nil
}

func (d *baseDefinition) Validators() []Validator {
	return slices.Clone(d.validators)
}

func (d *baseDefinition) AddValidator(v Validator) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.validators = append(d.validators, v)
	return nil
}

// AddCreateListener registers fn to run for every widget created from the definition.
func (d *baseDefinition) AddCreateListener(fn CreateListener) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.createListeners = append(d.createListeners, fn)
	return nil
}

func (d *baseDefinition) MakeImmutable() {
	if !d.immutable {
		d.immutable = true
	}
}

// validateID rejects ids that would break fully-qualified id paths.
func validateID(d Definition) error {
	id := d.ID()
	if id == "" || strings.ContainsAny(id, "./") {
		return definitionError(d, ErrInvalidID)
	}
	return nil
}

// definitionList holds the ordered, id-indexed children of a container definition.
type definitionList struct {
	index     map[string]Definition
	items     []Definition
	resolving bool
	resolved  bool
}

// add appends a child declared by the user.
func (l *definitionList) add(d Definition) error {
	if d == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidID)
	}
	if nd, ok := d.(*NewDefinition); ok {
		if nd.ID() == "" {
			return definitionError(d, ErrInvalidID)
		}
	} else if err := validateID(d); err != nil {
		return err
	}
	return l.put(d)
}

// put appends d, enforcing sibling id uniqueness only.
func (l *definitionList) put(d Definition) error {
	if _, dup := l.index[d.ID()]; dup {
		return definitionError(d, ErrDuplicateID)
	}
	if l.index == nil {
		l.index = make(map[string]Definition)
	}
	l.index[d.ID()] = d
	l.items = append(l.items, d)
	return nil
}

func (l *definitionList) reset() []Definition {
	items := l.items
	l.items = nil
	l.index = nil
	return items
}

func (l *definitionList) get(id string) (Definition, bool) {
	d, ok := l.index[id]
	return d, ok
}

func (l *definitionList) all() []Definition {
	return slices.Clone(l.items)
}

// containerBase is embedded by every definition that owns children.
type containerBase struct {
	baseDefinition
	children definitionList
}

func (c *containerBase) list() *definitionList { return &c.children }

// AddChild appends a child definition. Adding a second child with the same id
// fails with ErrDuplicateID and leaves the first one in place.
func (c *containerBase) AddChild(d Definition) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	return c.children.add(d)
}

// Child returns the child definition with the given id.
func (c *containerBase) Child(id string) (Definition, bool) {
	return c.children.get(id)
}

func (c *containerBase) HasChild(id string) bool {
	_, ok := c.children.get(id)
	return ok
}

// Children returns the child definitions in declaration order.
func (c *containerBase) Children() []Definition {
	return c.children.all()
}

// MakeImmutable locks the container and, recursively, its children.
// Resolved definition graphs may be cyclic through unions; already locked
// nodes stop the recursion.
func (c *containerBase) MakeImmutable() {
	if c.immutable {
		return
	}
	c.immutable = true
	for _, d := range c.children.items {
		d.MakeImmutable()
	}
}
