package formmodel

// WidgetEvent is raised by a widget and delivered through the form's event queue.
type WidgetEvent interface {
	Source() Widget
}

// ValueChangedEvent is raised when a widget's value changes.
type ValueChangedEvent struct {
	Widget Widget
	Old    any
	New    any
}

func (e *ValueChangedEvent) Source() Widget { return e.Widget }

// ActionEvent is raised when an action widget is activated.
type ActionEvent struct {
	Widget  Widget
	Command string
}

func (e *ActionEvent) Source() Widget { return e.Widget }

// RepeaterAction identifies a repeater change.
type RepeaterAction int

const (
	RowAdded RepeaterAction = iota
	RowDeleting
	RowDeleted
	RowsRearranged
	RowsCleared
)

func (a RepeaterAction) String() string {
	switch a {
	case RowAdded:
		return "row-added"
	case RowDeleting:
		return "row-deleting"
	case RowDeleted:
		return "row-deleted"
	case RowsRearranged:
		return "rows-rearranged"
	case RowsCleared:
		return "rows-cleared"
	}
	return "unknown"
}

// RepeaterEvent is raised when rows are added, removed or reordered.
// Row is the affected index, -1 for whole-list changes.
type RepeaterEvent struct {
	Repeater  *Repeater
	RowWidget *RepeaterRow
	Action    RepeaterAction
	Row       int
}

func (e *RepeaterEvent) Source() Widget { return e.Repeater }

// ProcessingPhase identifies a completed phase of Form.Process.
type ProcessingPhase int

const (
	ProcessingPhaseRead ProcessingPhase = iota
	ProcessingPhaseValidate
)

func (p ProcessingPhase) String() string {
	if p == ProcessingPhaseRead {
		return "read"
	}
	return "validate"
}

// PhaseEvent notifies listeners that a processing phase has ended.
type PhaseEvent struct {
	Form  *Form
	Phase ProcessingPhase
}

// CreateListener is called once for every widget instance created from a
// definition, after the widget has been attached to its form.
type CreateListener func(w Widget)
