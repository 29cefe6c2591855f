package formmodel

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formtree/pkg/render"
)

// actionDefinition is implemented by every action-emitting definition.
type actionDefinition interface {
	Definition
	action() *actionBase
}

// activator is a widget that decides how processing continues when it
// submits the form.
type activator interface {
	Widget
	activate() error
}

// Action is a button. Submitting the form through an action raises an
// ActionEvent; what happens next depends on the definition:
//
//   - action: the form is redisplayed without validation
//   - submit: the form is validated, or finished without validation
//   - repeater-action: rows are added to or deleted from a sibling repeater
//   - row-action: the enclosing row is deleted, moved or followed by a new row
//
// Row manipulation runs while the event is dispatched, after every widget has
// read its value, because it changes row ids.
type Action struct {
	widgetBase
	def       actionDefinition
	kind      string
	listeners listenerList[*ActionEvent]
}

func newAction(def actionDefinition, kind string) *Action {
	a := &Action{def: def, kind: kind}
	a.init(a, def)
	return a
}

func (a *Action) Kind() string { return a.kind }

// Command returns the command carried by the action's events.
func (a *Action) Command() string { return a.def.action().command }

func (a *Action) ReadFromRequest(req Request) error {
	if !a.CombinedState().AcceptsInput() {
		return nil
	}
	if _, ok := req.Parameter(a.RequestParameterName()); !ok {
		return nil
	}
	f := a.Form()
	if f == nil {
		return nil
	}
	return f.SetSubmitWidget(a)
}

// OnAction registers fn for this widget only.
func (a *Action) OnAction(fn func(*ActionEvent)) *Handle {
	return a.listeners.add(fn)
}

func (a *Action) RemoveActionListener(h *Handle) bool {
	return a.listeners.remove(h)
}

func (a *Action) activate() error {
	if err := a.raise(&ActionEvent{Widget: a, Command: a.Command()}); err != nil {
		return err
	}
	f := a.Form()
	if f == nil {
		return nil
	}
	switch def := a.def.(type) {
	case *SubmitDefinition:
		if !def.validateForm {
			f.EndProcessing(false)
		}
	default:
		f.EndProcessing(true)
	}
	return nil
}

func (a *Action) broadcastEvent(ev WidgetEvent) error {
	ae, ok := ev.(*ActionEvent)
	if !ok {
		return nil
	}
	switch def := a.def.(type) {
	case *RepeaterActionDefinition:
		if err := a.performRepeaterAction(def); err != nil {
			return err
		}
	case *RowActionDefinition:
		if err := a.performRowAction(def); err != nil {
			return err
		}
	}
	a.def.action().listeners.fire(ae)
	a.listeners.fire(ae)
	return nil
}

func (a *Action) performRepeaterAction(def *RepeaterActionDefinition) error {
	r, ok := a.Lookup("../" + def.repeaterID).(*Repeater)
	if !ok {
		return fmt.Errorf("%w: repeater %q for action %q", ErrWidgetNotFound, def.repeaterID, a.FullyQualifiedID())
	}
	switch def.kind {
	case RepeaterActionAddRow:
		_, err := r.AddRow()
		return err
	case RepeaterActionDeleteRows:
		var selected []int
		for i, row := range r.rows {
			if sel := row.Lookup(def.selectID); sel != nil && sel.Value() == true {
				selected = append(selected, i)
			}
		}
		return r.RemoveRows(selected)
	}
	return fmt.Errorf("%w: %q", ErrInvalidRowAction, def.kind)
}

func (a *Action) performRowAction(def *RowActionDefinition) error {
	row := enclosingRow(a)
	if row == nil {
		return fmt.Errorf("%w: row action %q is not inside a repeater row", ErrWidgetNotFound, a.FullyQualifiedID())
	}
	r := row.repeater
	idx := r.IndexOf(row)
	switch def.kind {
	case RowActionDelete:
		return r.RemoveRow(idx)
	case RowActionMoveUp:
		r.MoveRowLeft(idx)
		return nil
	case RowActionMoveDown:
		r.MoveRowRight(idx)
		return nil
	case RowActionAddAfter:
		_, err := r.AddRowAt(idx + 1)
		return err
	}
	return fmt.Errorf("%w: %q", ErrInvalidRowAction, def.kind)
}

func (a *Action) renderAttrs() []render.Attr {
	return []render.Attr{{Name: "command", Value: a.Command()}}
}

func (a *Action) generateContent(context.Context, render.Sink) error { return nil }

// enclosingRow returns the nearest repeater row above w.
func enclosingRow(w Widget) *RepeaterRow {
	for p := w.Parent(); p != nil; p = p.Parent() {
		if row, ok := p.(*RepeaterRow); ok {
			return row
		}
	}
	return nil
}
