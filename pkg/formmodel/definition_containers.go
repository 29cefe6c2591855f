package formmodel

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrymomot/formtree/pkg/expression"
)

// StructDefinition groups a fixed set of children.
type StructDefinition struct {
	containerBase
}

func NewStructDefinition(id string) *StructDefinition {
	return &StructDefinition{containerBase{baseDefinition: newBase(id)}}
}

func (d *StructDefinition) CreateInstance() Widget {
	s := &Struct{def: d}
	s.init(s, d)
	s.children.create(s, d.children.items)
	return s
}

// RowOperation names a row operation a repeater may allow.
type RowOperation string

const (
	// OpMove and OpCopy act within one repeater.
	OpMove RowOperation = "move"
	OpCopy RowOperation = "copy"
	// OpMoveOut and OpCopyOut take rows from this repeater into another one.
	OpMoveOut RowOperation = "move-out"
	OpCopyOut RowOperation = "copy-out"
)

// ParseRowOperation validates an operation name.
func ParseRowOperation(s string) (RowOperation, error) {
	switch op := RowOperation(s); op {
	case OpMove, OpCopy, OpMoveOut, OpCopyOut:
		return op, nil
	}
	return "", fmt.Errorf("%w: unknown row operation %q", ErrInvalidRowAction, s)
}

// RepeaterDefinition describes a list of rows sharing one row shape.
// Its children are the child definitions of every row.
type RepeaterDefinition struct {
	containerBase
	row         *rowDefinition
	rowTypes    []string
	allowed     []RowOperation
	initialSize int
	minSize     int
	maxSize     int
}

// NewRepeaterDefinition creates a repeater with no rows initially and no
// cardinality constraint.
func NewRepeaterDefinition(id string) *RepeaterDefinition {
	return &RepeaterDefinition{
		containerBase: containerBase{baseDefinition: newBase(id)},
		row:           &rowDefinition{},
		maxSize:       -1,
	}
}

func (d *RepeaterDefinition) InitialSize() int { return d.initialSize }
func (d *RepeaterDefinition) MinSize() int     { return d.minSize }

// MaxSize returns the largest valid row count, -1 when unbounded.
func (d *RepeaterDefinition) MaxSize() int { return d.maxSize }

func (d *RepeaterDefinition) RowTypes() []string { return slices.Clone(d.rowTypes) }

func (d *RepeaterDefinition) AllowedOperations() []RowOperation { return slices.Clone(d.allowed) }

// SetInitialSize sets the number of rows created with the widget and restored by Clear.
func (d *RepeaterDefinition) SetInitialSize(n int) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if n < 0 || n > MaxRepeaterRows {
		return definitionError(d, fmt.Errorf("%w: initial size %d", ErrInvalidRowCount, n))
	}
	d.initialSize = n
	return nil
}

// SetSizeRange sets the valid row count range. A negative max is unbounded.
func (d *RepeaterDefinition) SetSizeRange(lo, hi int) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	if lo < 0 || (hi >= 0 && hi < lo) {
		return definitionError(d, fmt.Errorf("%w: range [%d,%d]", ErrInvalidRowCount, lo, hi))
	}
	d.minSize, d.maxSize = lo, hi
	return nil
}

// SetRowTypes tags the rows of this repeater. Rows may only be moved or
// copied between repeaters sharing a tag; a repeater without tags accepts
// rows from anywhere.
func (d *RepeaterDefinition) SetRowTypes(types ...string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.rowTypes = slices.Clone(types)
	return nil
}

// SetAllowedOperations restricts the row operations that take rows from
// this repeater. With no operations configured everything is allowed.
func (d *RepeaterDefinition) SetAllowedOperations(ops ...RowOperation) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.allowed = slices.Clone(ops)
	return nil
}

// Allows reports whether op may take rows from this repeater.
func (d *RepeaterDefinition) Allows(op RowOperation) bool {
	return len(d.allowed) == 0 || slices.Contains(d.allowed, op)
}

// AcceptsRowsFrom reports whether rows of src may be placed in this repeater.
func (d *RepeaterDefinition) AcceptsRowsFrom(src *RepeaterDefinition) bool {
	if len(d.rowTypes) == 0 {
		return true
	}
	for _, t := range src.rowTypes {
		if slices.Contains(d.rowTypes, t) {
			return true
		}
	}
	return false
}

func (d *RepeaterDefinition) MakeImmutable() {
	d.row.MakeImmutable()
	d.containerBase.MakeImmutable()
}

func (d *RepeaterDefinition) CreateInstance() Widget {
	r := &Repeater{def: d}
	r.init(r, d)
	for range d.initialSize {
		r.rows = append(r.rows, r.newRow())
	}
	return r
}

// rowDefinition is the anonymous definition of repeater rows.
type rowDefinition struct {
	baseDefinition
}

func (d *rowDefinition) CreateInstance() Widget { return nil }

// UnionDefinition describes a container showing exactly one of its children,
// selected by the value of a sibling widget.
type UnionDefinition struct {
	containerBase
	caseExpression *expression.Program
	caseWidgetID   string
	defaultCase    string
}

// NewUnionDefinition creates a union whose active case is the value of the
// sibling widget caseWidgetID.
func NewUnionDefinition(id, caseWidgetID string) *UnionDefinition {
	return &UnionDefinition{containerBase: containerBase{baseDefinition: newBase(id)}, caseWidgetID: caseWidgetID}
}

func (d *UnionDefinition) CaseWidgetID() string { return d.caseWidgetID }
func (d *UnionDefinition) DefaultCase() string  { return d.defaultCase }

// CaseExpression returns the expression selecting the case, if any.
func (d *UnionDefinition) CaseExpression() *expression.Program { return d.caseExpression }

// SetDefaultCase selects the case used when the discriminant names none.
func (d *UnionDefinition) SetDefaultCase(id string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.defaultCase = id
	return nil
}

// SetCaseExpression selects the case by evaluating p over sibling values
// instead of reading the case widget directly.
func (d *UnionDefinition) SetCaseExpression(p *expression.Program) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.caseExpression = p
	return nil
}

func (d *UnionDefinition) CreateInstance() Widget {
	u := &Union{def: d}
	u.init(u, d)
	return u
}

// ClassDefinition is a named, reusable group of definitions. It is never
// instantiated itself; NewDefinition nodes referencing it are replaced by
// its children during resolution.
type ClassDefinition struct {
	containerBase
}

func NewClassDefinition(id string) *ClassDefinition {
	return &ClassDefinition{containerBase{baseDefinition: newBase(id)}}
}

func (d *ClassDefinition) CreateInstance() Widget { return nil }

// NewDefinition references a class by id. A "prefix:class" reference names a
// class in the library imported under prefix.
type NewDefinition struct {
	baseDefinition
	class *ClassDefinition
}

// NewClassReference creates a reference to the class ref.
func NewClassReference(ref string) *NewDefinition {
	return &NewDefinition{baseDefinition: newBase(ref)}
}

// ClassRef returns the referenced class id.
func (d *NewDefinition) ClassRef() string { return d.id }

// Class returns the referenced class once resolved.
func (d *NewDefinition) Class() *ClassDefinition { return d.class }

func (d *NewDefinition) CreateInstance() Widget { return nil }

// Library is a set of classes imported into forms under a prefix.
//
// A library is resolved on its own: unprefixed references inside it name
// classes of the same library only. Once resolved it is locked and may be
// imported by any number of forms concurrently.
type Library struct {
	classes  map[string]*ClassDefinition
	id       string
	mu       sync.Mutex
	resolved bool
}

func NewLibrary(id string) *Library {
	return &Library{id: id, classes: make(map[string]*ClassDefinition)}
}

func (l *Library) ID() string { return l.id }

// AddClass registers c in the library.
func (l *Library) AddClass(c *ClassDefinition) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved {
		return definitionError(c, ErrImmutable)
	}
	if err := validateID(c); err != nil {
		return err
	}
	if _, dup := l.classes[c.ID()]; dup {
		return definitionError(c, ErrDuplicateID)
	}
	l.classes[c.ID()] = c
	return nil
}

// Class returns the class with the given id.
func (l *Library) Class(id string) (*ClassDefinition, bool) {
	c, ok := l.classes[id]
	return c, ok
}

// IsResolved reports whether Resolve has completed.
func (l *Library) IsResolved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolved
}

// Resolve expands the class references of every class in the library and
// locks the classes. It is safe to call from several goroutines; calls
// after the first success are no-ops.
func (l *Library) Resolve() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolved {
		return nil
	}
	r := &resolver{lib: l}
	if err := r.resolveLibrary(); err != nil {
		return err
	}
	for _, c := range l.classes {
		c.MakeImmutable()
	}
	l.resolved = true
	return nil
}
