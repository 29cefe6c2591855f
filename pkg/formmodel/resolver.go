package formmodel

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// resolver expands NewDefinition nodes into the children of the classes
// they reference.
//
// The walk keeps an explicit stack of the containers being resolved. A
// reference to a class whose list is still being resolved is recursion: it is
// accepted only when a union sits between the class and the reference on the
// stack, because union cases are instantiated on demand. Such references are
// left in place and spliced once every class is complete, which yields a
// cyclic definition graph.
//
// A resolver works on either a form or a library. Imported libraries are
// resolved and locked before the form walk starts, so resolving a form
// never writes to library nodes.
type resolver struct {
	form  *FormDefinition
	lib   *Library
	stack []containerDefinition
}

func (r *resolver) resolve() error {
	for _, prefix := range slices.Sorted(maps.Keys(r.form.libraries)) {
		if err := r.form.libraries[prefix].Resolve(); err != nil {
			return err
		}
	}
	if err := r.resolveContainer(r.form, nil); err != nil {
		return err
	}
	// Unused classes are resolved too so that their errors surface.
	for _, id := range slices.Sorted(maps.Keys(r.form.classes)) {
		if err := r.resolveContainer(r.form.classes[id], nil); err != nil {
			return err
		}
	}

	visited := make(map[*definitionList]bool)
	if err := r.splicePending(r.form, visited); err != nil {
		return err
	}
	for _, c := range r.form.classes {
		if err := r.splicePending(c, visited); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveLibrary() error {
	ids := slices.Sorted(maps.Keys(r.lib.classes))
	for _, id := range ids {
		if err := r.resolveContainer(r.lib.classes[id], r.lib); err != nil {
			return err
		}
	}
	visited := make(map[*definitionList]bool)
	for _, id := range ids {
		if err := r.splicePending(r.lib.classes[id], visited); err != nil {
			return err
		}
	}
	return nil
}

// resolveContainer resolves the children of c. scope is the library c was
// declared in, used for unprefixed class references.
func (r *resolver) resolveContainer(c containerDefinition, scope *Library) error {
	l := c.list()
	if l.resolved || l.resolving {
		return nil
	}
	l.resolving = true
	r.stack = append(r.stack, c)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		l.resolving = false
	}()

	for _, d := range l.reset() {
		switch def := d.(type) {
		case *ClassDefinition:
			return definitionError(def, ErrMisplacedClass)

		case *NewDefinition:
			class, classScope, err := r.lookup(def, scope)
			if err != nil {
				return err
			}
			def.class = class

			if class.children.resolving {
				if err := r.checkCycle(class); err != nil {
					return err
				}
				if err := l.put(def); err != nil {
					return err
				}
				continue
			}

			if err := r.resolveContainer(class, classScope); err != nil {
				return err
			}
			for _, child := range class.children.items {
				if err := l.put(child); err != nil {
					return err
				}
			}

		default:
			if cd, ok := d.(containerDefinition); ok {
				if err := r.resolveContainer(cd, scope); err != nil {
					return err
				}
			}
			if err := l.put(d); err != nil {
				return err
			}
		}
	}

	l.resolved = true
	return nil
}

// lookup finds the class referenced by nd.
func (r *resolver) lookup(nd *NewDefinition, scope *Library) (*ClassDefinition, *Library, error) {
	ref := nd.ClassRef()
	if r.form == nil {
		if strings.Contains(ref, ":") {
			return nil, nil, definitionError(nd, fmt.Errorf("%w: library %q imports no libraries", ErrUnknownClass, scope.id))
		}
		if class, ok := scope.classes[ref]; ok {
			return class, scope, nil
		}
		return nil, nil, definitionError(nd, ErrUnknownClass)
	}
	if prefix, name, ok := strings.Cut(ref, ":"); ok {
		lib, ok := r.form.libraries[prefix]
		if !ok {
			return nil, nil, definitionError(nd, fmt.Errorf("%w: no library imported as %q", ErrUnknownClass, prefix))
		}
		class, ok := lib.classes[name]
		if !ok {
			return nil, nil, definitionError(nd, ErrUnknownClass)
		}
		return class, lib, nil
	}

	if class, ok := r.form.classes[ref]; ok {
		return class, nil, nil
	}
	if _, ok := r.form.children.get(ref); ok {
		return nil, nil, definitionError(nd, ErrNotAClass)
	}
	return nil, nil, definitionError(nd, ErrUnknownClass)
}

// checkCycle scans the stack from the top down to class. Meeting a union
// first makes the recursion legal.
func (r *resolver) checkCycle(class *ClassDefinition) error {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if _, ok := r.stack[i].(*UnionDefinition); ok {
			return nil
		}
		if r.stack[i] == containerDefinition(class) {
			chain := make([]string, 0, len(r.stack)-i+1)
			for _, d := range r.stack[i:] {
				chain = append(chain, d.ID())
			}
			chain = append(chain, class.ID())
			return &CycleError{Chain: chain}
		}
	}
	return &CycleError{Chain: []string{class.ID()}}
}

// splicePending replaces the deferred class references left by
// resolveContainer, walking every reachable list once.
func (r *resolver) splicePending(c containerDefinition, visited map[*definitionList]bool) error {
	l := c.list()
	if visited[l] {
		return nil
	}
	visited[l] = true

	if slices.ContainsFunc(l.items, isPending) {
		items := l.reset()
		for _, d := range items {
			if nd, ok := d.(*NewDefinition); ok {
				expanded, err := expandClass(nd.class, nil)
				if err != nil {
					return err
				}
				for _, child := range expanded {
					if err := l.put(child); err != nil {
						return err
					}
				}
				continue
			}
			if err := l.put(d); err != nil {
				return err
			}
		}
	}

	for _, d := range l.items {
		if cd, ok := d.(containerDefinition); ok {
			if err := r.splicePending(cd, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

func isPending(d Definition) bool {
	_, ok := d.(*NewDefinition)
	return ok
}

// expandClass returns the children of class with top-level deferred
// references replaced by their own class children.
func expandClass(class *ClassDefinition, seen []*ClassDefinition) ([]Definition, error) {
	if slices.Contains(seen, class) {
		chain := make([]string, 0, len(seen)+1)
		for _, c := range seen {
			chain = append(chain, c.ID())
		}
		return nil, &CycleError{Chain: append(chain, class.ID())}
	}
	seen = append(seen, class)

	var out []Definition
	for _, d := range class.children.items {
		nd, ok := d.(*NewDefinition)
		if !ok {
			out = append(out, d)
			continue
		}
		nested, err := expandClass(nd.class, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}
