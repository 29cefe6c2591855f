package formmodel

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MoveRow moves the row at from so that it ends up before the row that was
// at to. to is an index into the original list and may equal Size; because
// the row is removed first, a target after from is decremented by one.
func (r *Repeater) MoveRow(from, to int) error {
	if from < 0 || from >= len(r.rows) {
		return r.rangeError(from)
	}
	if to < 0 || to > len(r.rows) {
		return r.rangeError(to)
	}
	row := r.rows[from]
	r.rows = slices.Delete(r.rows, from, from+1)
	if to > from {
		to--
	}
	r.rows = slices.Insert(r.rows, to, row)
	return r.rearranged()
}

// MoveRowLeft swaps the row at index with its predecessor. It does nothing
// for the first row or an index out of range.
func (r *Repeater) MoveRowLeft(index int) {
	if index <= 0 || index >= len(r.rows) {
		return
	}
	r.rows[index-1], r.rows[index] = r.rows[index], r.rows[index-1]
	r.logRaiseError(r.rearranged())
}

// MoveRowRight swaps the row at index with its successor. It does nothing
// for the last row or an index out of range.
func (r *Repeater) MoveRowRight(index int) {
	if index < 0 || index >= len(r.rows)-1 {
		return
	}
	r.rows[index], r.rows[index+1] = r.rows[index+1], r.rows[index]
	r.logRaiseError(r.rearranged())
}

func (r *Repeater) rearranged() error {
	return r.raise(&RepeaterEvent{Repeater: r, Action: RowsRearranged, Row: -1})
}

func (r *Repeater) logRaiseError(err error) {
	if err != nil {
		r.logger().Warn("repeater event handler failed", "repeater", r.FullyQualifiedID(), "error", err)
	}
}

// MoveRows moves the rows at indices, keeping their relative order, so that
// they end up before the row that was at before. The repeater must allow OpMove.
func (r *Repeater) MoveRows(indices []int, before int) error {
	idx, err := r.checkIndices(indices)
	if err != nil {
		return err
	}
	if before < 0 || before > len(r.rows) {
		return r.rangeError(before)
	}
	if !r.def.Allows(OpMove) {
		return r.notAllowed(OpMove)
	}
	if len(idx) == 0 {
		return nil
	}

	selected := make([]*RepeaterRow, 0, len(idx))
	remaining := make([]*RepeaterRow, 0, len(r.rows)-len(idx))
	var anchor *RepeaterRow
	for i, row := range r.rows {
		if _, found := slices.BinarySearch(idx, i); found {
			selected = append(selected, row)
			continue
		}
		if anchor == nil && i >= before {
			anchor = row
		}
		remaining = append(remaining, row)
	}

	pos := len(remaining)
	if anchor != nil {
		pos = slices.Index(remaining, anchor)
	}
	r.rows = slices.Concat(remaining[:pos], selected, remaining[pos:])
	return r.rearranged()
}

// CopyRows inserts copies of the rows at indices before the row at before.
// The repeater must allow OpCopy.
func (r *Repeater) CopyRows(indices []int, before int) error {
	idx, err := r.checkIndices(indices)
	if err != nil {
		return err
	}
	if before < 0 || before > len(r.rows) {
		return r.rangeError(before)
	}
	if !r.def.Allows(OpCopy) {
		return r.notAllowed(OpCopy)
	}
	if len(r.rows)+len(idx) > MaxRepeaterRows {
		return fmt.Errorf("%w: copying %d rows into %q", ErrTooManyRows, len(idx), r.FullyQualifiedID())
	}
	return r.insertCopies(r.rowsAt(idx), before, false)
}

// MoveRowsFrom moves rows of src into r before the row at before.
// src must allow OpMoveOut and r must accept src's row types. Uploaded
// parts move with their rows. Nothing is changed when a check fails.
func (r *Repeater) MoveRowsFrom(src *Repeater, indices []int, before int) error {
	if src == r {
		return r.MoveRows(indices, before)
	}
	idx, err := r.checkTransfer(src, indices, before, OpMoveOut)
	if err != nil {
		return err
	}
	if err := r.insertCopies(src.rowsAt(idx), before, true); err != nil {
		return err
	}
	return src.RemoveRows(idx)
}

// CopyRowsFrom copies rows of src into r before the row at before.
// src must allow OpCopyOut and r must accept src's row types.
func (r *Repeater) CopyRowsFrom(src *Repeater, indices []int, before int) error {
	if src == r {
		return r.CopyRows(indices, before)
	}
	idx, err := r.checkTransfer(src, indices, before, OpCopyOut)
	if err != nil {
		return err
	}
	return r.insertCopies(src.rowsAt(idx), before, false)
}

func (r *Repeater) checkTransfer(src *Repeater, indices []int, before int, op RowOperation) ([]int, error) {
	idx, err := src.checkIndices(indices)
	if err != nil {
		return nil, err
	}
	if before < 0 || before > len(r.rows) {
		return nil, r.rangeError(before)
	}
	if !r.def.AcceptsRowsFrom(src.def) {
		return nil, fmt.Errorf("%w: %w: %q does not accept rows of %q",
			ErrRowOperationNotAllowed, ErrIncompatibleRowTypes, r.FullyQualifiedID(), src.FullyQualifiedID())
	}
	if !src.def.Allows(op) {
		return nil, src.notAllowed(op)
	}
	if len(r.rows)+len(idx) > MaxRepeaterRows {
		return nil, fmt.Errorf("%w: transferring %d rows into %q", ErrTooManyRows, len(idx), r.FullyQualifiedID())
	}
	return idx, nil
}

func (r *Repeater) rowsAt(idx []int) []*RepeaterRow {
	rows := make([]*RepeaterRow, len(idx))
	for k, i := range idx {
		rows[k] = r.rows[i]
	}
	return rows
}

// insertCopies inserts a copy of each source row. With move set, uploaded
// parts are handed over to the copies instead of staying with the sources.
func (r *Repeater) insertCopies(sources []*RepeaterRow, before int, move bool) error {
	log := r.logger()
	for k, src := range sources {
		row, err := r.insertRow(before + k)
		if err != nil {
			return err
		}
		copyWidget(src, row, move, log)
	}
	return nil
}

func (r *Repeater) notAllowed(op RowOperation) error {
	return fmt.Errorf("%w: %s on %q", ErrRowOperationNotAllowed, op, r.FullyQualifiedID())
}

// readAction performs the row operation requested by "<name>.action":
//
//	move, copy  rows listed in ".from" (or ".sourceRepeaterIndex" for rows of
//	            the repeater named by ".sourceRepeaterId") go before ".before"
//	delete      rows listed in ".from" are removed
//	add         a row is inserted before ".before"
//
// A missing ".before" means after the last row.
func (r *Repeater) readAction(req Request, name string) error {
	action, ok := req.Parameter(name + ".action")
	if !ok || action == "" {
		return nil
	}

	before := len(r.rows)
	if raw, ok := req.Parameter(name + ".before"); ok && raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: before %q for %q", ErrInvalidRowAction, raw, name)
		}
		before = n
	}

	switch action {
	case "move", "copy":
		src, err := r.sourceRepeater(req, name)
		if err != nil {
			return err
		}
		param := ".from"
		if src != r {
			if _, ok := req.Parameter(name + ".sourceRepeaterIndex"); ok {
				param = ".sourceRepeaterIndex"
			}
		}
		indices, err := parseIndexList(req, name+param)
		if err != nil {
			return err
		}
		if action == "move" {
			return r.MoveRowsFrom(src, indices, before)
		}
		return r.CopyRowsFrom(src, indices, before)

	case "delete":
		indices, err := parseIndexList(req, name+".from")
		if err != nil {
			return err
		}
		return r.RemoveRows(indices)

	case "add":
		_, err := r.AddRowAt(before)
		return err
	}
	return fmt.Errorf("%w: %q for %q", ErrInvalidRowAction, action, name)
}

func (r *Repeater) sourceRepeater(req Request, name string) (*Repeater, error) {
	id, ok := req.Parameter(name + ".sourceRepeaterId")
	if !ok || id == "" || id == name {
		return r, nil
	}
	f := r.Form()
	if f == nil {
		return nil, fmt.Errorf("%w: source repeater %q", ErrWidgetNotFound, id)
	}
	src, ok := f.LookupFullyQualified(id).(*Repeater)
	if !ok {
		return nil, fmt.Errorf("%w: source repeater %q", ErrWidgetNotFound, id)
	}
	return src, nil
}

// parseIndexList reads comma-separated and repeated index parameters.
func parseIndexList(req Request, param string) ([]int, error) {
	var out []int
	for _, v := range req.Parameters(param) {
		for part := range strings.SplitSeq(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%w: index %q in %s", ErrInvalidRowAction, part, param)
			}
			out = append(out, n)
		}
	}
	return out, nil
}
