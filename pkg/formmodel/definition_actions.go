package formmodel

import "fmt"

// actionBase is shared by every action-emitting definition.
type actionBase struct {
	baseDefinition
	command   string
	listeners listenerList[*ActionEvent]
}

func (d *actionBase) Command() string { return d.command }

func (d *actionBase) SetCommand(cmd string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.command = cmd
	return nil
}

// AddActionListener registers fn for every widget created from the definition.
func (d *actionBase) AddActionListener(fn func(*ActionEvent)) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.listeners.add(fn)
	return nil
}

func (d *actionBase) action() *actionBase { return d }

// ActionDefinition describes a button that triggers server-side handling and
// redisplays the form.
type ActionDefinition struct {
	actionBase
}

func NewActionDefinition(id string) *ActionDefinition {
	return &ActionDefinition{actionBase{baseDefinition: newBase(id), command: id}}
}

func (d *ActionDefinition) CreateInstance() Widget {
	return newAction(d, "action")
}

// SubmitDefinition describes a button that completes the form, with or
// without validation.
type SubmitDefinition struct {
	actionBase
	validateForm bool
}

func NewSubmitDefinition(id string, validateForm bool) *SubmitDefinition {
	return &SubmitDefinition{actionBase: actionBase{baseDefinition: newBase(id), command: id}, validateForm: validateForm}
}

func (d *SubmitDefinition) ValidateForm() bool { return d.validateForm }

func (d *SubmitDefinition) CreateInstance() Widget {
	return newAction(d, "submit")
}

// RepeaterActionKind selects what a repeater action does.
type RepeaterActionKind string

const (
	RepeaterActionAddRow     RepeaterActionKind = "add-row"
	RepeaterActionDeleteRows RepeaterActionKind = "delete-rows"
)

// ParseRepeaterActionKind validates a repeater action name.
func ParseRepeaterActionKind(s string) (RepeaterActionKind, error) {
	switch k := RepeaterActionKind(s); k {
	case RepeaterActionAddRow, RepeaterActionDeleteRows:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRowAction, s)
}

// RepeaterActionDefinition describes a button acting on a sibling repeater.
type RepeaterActionDefinition struct {
	actionBase
	kind       RepeaterActionKind
	repeaterID string
	selectID   string
}

// NewRepeaterActionDefinition creates an action operating on the sibling
// repeater repeaterID. Delete actions remove the rows whose boolean field
// named by SetSelectID is checked.
func NewRepeaterActionDefinition(id string, kind RepeaterActionKind, repeaterID string) *RepeaterActionDefinition {
	return &RepeaterActionDefinition{
		actionBase: actionBase{baseDefinition: newBase(id), command: string(kind)},
		kind:       kind,
		repeaterID: repeaterID,
		selectID:   "select",
	}
}

func (d *RepeaterActionDefinition) Kind() RepeaterActionKind { return d.kind }
func (d *RepeaterActionDefinition) RepeaterID() string       { return d.repeaterID }
func (d *RepeaterActionDefinition) SelectID() string         { return d.selectID }

func (d *RepeaterActionDefinition) SetSelectID(id string) error {
	if err := d.checkMutable(); err != nil {
		return err
	}
	d.selectID = id
	return nil
}

func (d *RepeaterActionDefinition) CreateInstance() Widget {
	return newAction(d, "repeater-action")
}

// RowActionKind selects what a row action does.
type RowActionKind string

const (
	RowActionDelete   RowActionKind = "delete"
	RowActionMoveUp   RowActionKind = "move-up"
	RowActionMoveDown RowActionKind = "move-down"
	RowActionAddAfter RowActionKind = "add-after"
)

// ParseRowActionKind validates a row action name.
func ParseRowActionKind(s string) (RowActionKind, error) {
	switch k := RowActionKind(s); k {
	case RowActionDelete, RowActionMoveUp, RowActionMoveDown, RowActionAddAfter:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRowAction, s)
}

// RowActionDefinition describes a button placed inside a repeater row that
// acts on that row.
type RowActionDefinition struct {
	actionBase
	kind RowActionKind
}

func NewRowActionDefinition(id string, kind RowActionKind) *RowActionDefinition {
	return &RowActionDefinition{actionBase: actionBase{baseDefinition: newBase(id), command: string(kind)}, kind: kind}
}

func (d *RowActionDefinition) Kind() RowActionKind { return d.kind }

func (d *RowActionDefinition) CreateInstance() Widget {
	return newAction(d, "row-action")
}
