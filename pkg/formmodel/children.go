package formmodel

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrymomot/formtree/pkg/render"
)

// widgetList is the ordered, id-indexed child list composed into every
// container widget. It implements the broadcasts containers share.
type widgetList struct {
	index map[string]Widget
	items []Widget
}

// create instantiates defs and attaches the widgets to parent.
// Definitions that are never instantiated are skipped.
func (l *widgetList) create(parent Widget, defs []Definition) {
	for _, d := range defs {
		w := d.CreateInstance()
		if w == nil {
			continue
		}
		if err := l.add(parent, w); err != nil {
			// Resolved definitions have unique sibling ids.
			panic(err)
		}
	}
}

func (l *widgetList) add(parent, w Widget) error {
	if _, dup := l.index[w.ID()]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateID, w.ID())
	}
	if err := w.SetParent(parent); err != nil {
		return err
	}
	if l.index == nil {
		l.index = make(map[string]Widget)
	}
	l.index[w.ID()] = w
	l.items = append(l.items, w)
	return nil
}

func (l *widgetList) get(id string) Widget {
	if w, ok := l.index[id]; ok {
		return w
	}
	return nil
}

func (l *widgetList) has(id string) bool {
	_, ok := l.index[id]
	return ok
}

func (l *widgetList) all() []Widget {
	return slices.Clone(l.items)
}

func (l *widgetList) initialize() error {
	for _, w := range l.items {
		if err := w.initialize(); err != nil {
			return err
		}
	}
	return nil
}

// readFromRequest reads every child in order. Only fatal errors stop the walk.
func (l *widgetList) readFromRequest(req Request) error {
	for _, w := range l.items {
		if err := w.ReadFromRequest(req); err != nil {
			return err
		}
	}
	return nil
}

// validate asks every child, even after a failure, and reports whether all passed.
func (l *widgetList) validate() bool {
	valid := true
	for _, w := range l.items {
		if !w.Validate() {
			valid = false
		}
	}
	return valid
}

func (l *widgetList) generate(ctx context.Context, sink render.Sink) error {
	for _, w := range l.items {
		if err := w.Generate(ctx, sink); err != nil {
			return err
		}
	}
	return nil
}

// Struct is a container with a fixed set of children.
type Struct struct {
	widgetBase
	def      *StructDefinition
	children widgetList
}

func (s *Struct) Kind() string { return "struct" }

// Child returns the child with the given id, nil when absent.
func (s *Struct) Child(id string) Widget { return s.children.get(id) }

func (s *Struct) HasChild(id string) bool { return s.children.has(id) }

func (s *Struct) Children() []Widget { return s.children.all() }

func (s *Struct) lookupChild(id string) Widget { return s.children.get(id) }

func (s *Struct) initialize() error {
	if err := s.widgetBase.initialize(); err != nil {
		return err
	}
	return s.children.initialize()
}

func (s *Struct) ReadFromRequest(req Request) error {
	if !s.CombinedState().AcceptsInput() {
		return nil
	}
	return s.children.readFromRequest(req)
}

func (s *Struct) Validate() bool {
	s.validationError = nil
	if !s.CombinedState().Validates() {
		return true
	}
	valid := s.children.validate()
	return runValidators(s) && valid
}

func (s *Struct) generateContent(ctx context.Context, sink render.Sink) error {
	return s.children.generate(ctx, sink)
}
