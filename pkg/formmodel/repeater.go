package formmodel

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/formtree/pkg/render"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

// Repeater is a container of rows sharing one shape. A row's id is its
// current index, so moving rows changes the ids, and the request parameter
// names, of everything inside them.
type Repeater struct {
	widgetBase
	def       *RepeaterDefinition
	rows      []*RepeaterRow
	listeners listenerList[*RepeaterEvent]
}

func (r *Repeater) Kind() string { return "repeater" }

// Size returns the number of rows.
func (r *Repeater) Size() int { return len(r.rows) }

// Row returns the row at index, nil when out of range.
func (r *Repeater) Row(index int) *RepeaterRow {
	if index < 0 || index >= len(r.rows) {
		return nil
	}
	return r.rows[index]
}

// Rows returns the rows in order.
func (r *Repeater) Rows() []*RepeaterRow { return slices.Clone(r.rows) }

// IndexOf returns the index of row, -1 when it does not belong to r.
func (r *Repeater) IndexOf(row *RepeaterRow) int {
	return slices.Index(r.rows, row)
}

func (r *Repeater) Children() []Widget {
	out := make([]Widget, len(r.rows))
	for i, row := range r.rows {
		out[i] = row
	}
	return out
}

func (r *Repeater) lookupChild(id string) Widget {
	i, err := strconv.Atoi(id)
	if err != nil {
		return nil
	}
	if row := r.Row(i); row != nil {
		return row
	}
	return nil
}

// Value returns nil; rows hold the values.
func (r *Repeater) Value() any { return nil }

// OnRepeaterEvent registers fn for row changes of this widget.
func (r *Repeater) OnRepeaterEvent(fn func(*RepeaterEvent)) *Handle {
	return r.listeners.add(fn)
}

func (r *Repeater) RemoveRepeaterListener(h *Handle) bool {
	return r.listeners.remove(h)
}

func (r *Repeater) broadcastEvent(ev WidgetEvent) error {
	if re, ok := ev.(*RepeaterEvent); ok {
		r.listeners.fire(re)
	}
	return nil
}

func (r *Repeater) initialize() error {
	if err := r.widgetBase.initialize(); err != nil {
		return err
	}
	for _, row := range r.rows {
		if err := row.initialize(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repeater) newRow() *RepeaterRow {
	row := &RepeaterRow{repeater: r}
	row.init(row, r.def.row)
	row.parent = r
	row.children.create(row, r.def.children.items)
	return row
}

// attached reports whether the repeater belongs to a form, in which case new
// rows are initialized immediately.
func (r *Repeater) attached() bool { return r.Form() != nil }

func (r *Repeater) insertRow(index int) (*RepeaterRow, error) {
	row := r.newRow()
	r.rows = slices.Insert(r.rows, index, row)
	if r.attached() {
		if err := row.initialize(); err != nil {
			return nil, err
		}
	}
	if err := r.raise(&RepeaterEvent{Repeater: r, Action: RowAdded, Row: index, RowWidget: row}); err != nil {
		return nil, err
	}
	return row, nil
}

// AddRow appends a new row. It fails with ErrTooManyRows once the
// repeater holds MaxRepeaterRows rows.
func (r *Repeater) AddRow() (*RepeaterRow, error) {
	return r.AddRowAt(len(r.rows))
}

// AddRowAt inserts a new row before index; index may equal Size.
func (r *Repeater) AddRowAt(index int) (*RepeaterRow, error) {
	if index < 0 || index > len(r.rows) {
		return nil, r.rangeError(index)
	}
	if len(r.rows) >= MaxRepeaterRows {
		return nil, fmt.Errorf("%w: %q already has %d rows", ErrTooManyRows, r.FullyQualifiedID(), len(r.rows))
	}
	return r.insertRow(index)
}

// RemoveRow deletes the row at index, raising RowDeleting before and
// RowDeleted after the removal.
func (r *Repeater) RemoveRow(index int) error {
	if index < 0 || index >= len(r.rows) {
		return r.rangeError(index)
	}
	row := r.rows[index]
	if err := r.raise(&RepeaterEvent{Repeater: r, Action: RowDeleting, Row: index, RowWidget: row}); err != nil {
		return err
	}
	r.rows = slices.Delete(r.rows, index, index+1)
	releaseResources(row)
	return r.raise(&RepeaterEvent{Repeater: r, Action: RowDeleted, Row: index, RowWidget: row})
}

// RemoveRows deletes the rows at the given indices. All indices are checked
// before any row is removed.
func (r *Repeater) RemoveRows(indices []int) error {
	idx, err := r.checkIndices(indices)
	if err != nil {
		return err
	}
	for _, i := range slices.Backward(idx) {
		if err := r.RemoveRow(i); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every row and restores the initial row count.
func (r *Repeater) Clear() error {
	for _, row := range r.rows {
		releaseResources(row)
	}
	r.rows = nil
	for range r.def.initialSize {
		row := r.newRow()
		r.rows = append(r.rows, row)
		if r.attached() {
			if err := row.initialize(); err != nil {
				return err
			}
		}
	}
	return r.raise(&RepeaterEvent{Repeater: r, Action: RowsCleared, Row: -1})
}

// resize grows or shrinks the row list to n rows.
func (r *Repeater) resize(n int) error {
	for len(r.rows) > n {
		if err := r.RemoveRow(len(r.rows) - 1); err != nil {
			return err
		}
	}
	for len(r.rows) < n {
		if _, err := r.AddRow(); err != nil {
			return err
		}
	}
	return nil
}

// ReadFromRequest resizes the row list to "<id>.size", reads every row and
// then performs the row operation requested by "<id>.action".
func (r *Repeater) ReadFromRequest(req Request) error {
	if !r.CombinedState().AcceptsInput() {
		return nil
	}
	name := r.RequestParameterName()

	if raw, ok := req.Parameter(name + ".size"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %q for %q", ErrInvalidRowCount, raw, name)
		}
		if n > MaxRepeaterRows {
			return fmt.Errorf("%w: %d requested for %q, limit is %d", ErrTooManyRows, n, name, MaxRepeaterRows)
		}
		if err := r.resize(n); err != nil {
			return err
		}
	}

	for _, row := range r.rows {
		if err := row.ReadFromRequest(req); err != nil {
			return err
		}
	}

	return r.readAction(req, name)
}

func (r *Repeater) Validate() bool {
	r.validationError = nil
	if !r.CombinedState().Validates() {
		return true
	}
	valid := true
	for _, row := range r.rows {
		if !row.Validate() {
			valid = false
		}
	}
	if n := len(r.rows); n < r.def.minSize || (r.def.maxSize >= 0 && n > r.def.maxSize) {
		r.validationError = r.cardinalityError(n)
		return false
	}
	return runValidators(r) && valid
}

func (r *Repeater) cardinalityError(n int) *validator.ValidationError {
	values := map[string]any{"min": r.def.minSize, "count": n}
	msg := fmt.Sprintf("must have at least %d rows", r.def.minSize)
	if r.def.maxSize >= 0 {
		values["max"] = r.def.maxSize
		msg = fmt.Sprintf("must have between %d and %d rows", r.def.minSize, r.def.maxSize)
	}
	return validationFailure(r, "validation.rows", msg, values)
}

func (r *Repeater) renderAttrs() []render.Attr {
	return []render.Attr{{Name: "size", Value: strconv.Itoa(len(r.rows))}}
}

func (r *Repeater) generateContent(ctx context.Context, sink render.Sink) error {
	for _, row := range r.rows {
		if err := row.Generate(ctx, sink); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repeater) rangeError(index int) error {
	return fmt.Errorf("%w: %d not in [0,%d) for %q", ErrRowIndexOutOfRange, index, len(r.rows), r.FullyQualifiedID())
}

// checkIndices returns indices sorted and deduplicated, failing when any is out of range.
func (r *Repeater) checkIndices(indices []int) ([]int, error) {
	idx := slices.Clone(indices)
	slices.Sort(idx)
	idx = slices.Compact(idx)
	for _, i := range idx {
		if i < 0 || i >= len(r.rows) {
			return nil, r.rangeError(i)
		}
	}
	return idx, nil
}

// RepeaterRow is one row of a repeater. Its id is its current index.
type RepeaterRow struct {
	widgetBase
	repeater *Repeater
	children widgetList
}

func (row *RepeaterRow) Kind() string { return "repeater-row" }

func (row *RepeaterRow) ID() string {
	return strconv.Itoa(row.repeater.IndexOf(row))
}

// Index returns the row's current position.
func (row *RepeaterRow) Index() int { return row.repeater.IndexOf(row) }

// Repeater returns the owning repeater.
func (row *RepeaterRow) Repeater() *Repeater { return row.repeater }

func (row *RepeaterRow) Child(id string) Widget { return row.children.get(id) }

func (row *RepeaterRow) Children() []Widget { return row.children.all() }

func (row *RepeaterRow) lookupChild(id string) Widget { return row.children.get(id) }

func (row *RepeaterRow) initialize() error {
	if err := row.widgetBase.initialize(); err != nil {
		return err
	}
	return row.children.initialize()
}

func (row *RepeaterRow) ReadFromRequest(req Request) error {
	if !row.CombinedState().AcceptsInput() {
		return nil
	}
	return row.children.readFromRequest(req)
}

func (row *RepeaterRow) Validate() bool {
	row.validationError = nil
	if !row.CombinedState().Validates() {
		return true
	}
	valid := row.children.validate()
	return runValidators(row) && valid
}

func (row *RepeaterRow) generateContent(ctx context.Context, sink render.Sink) error {
	return row.children.generate(ctx, sink)
}
