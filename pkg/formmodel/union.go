package formmodel

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formtree/pkg/datatype"
	"github.com/dmitrymomot/formtree/pkg/render"
)

// Union shows exactly one of its cases, selected by the value of a sibling
// widget. Cases are created the first time they become active and keep
// their values when the selection moves away and back.
type Union struct {
	widgetBase
	def      *UnionDefinition
	cases    widgetList
	lastCase string
}

func (u *Union) Kind() string { return "union" }

// CaseWidget returns the discriminant, nil when it cannot be found.
func (u *Union) CaseWidget() Widget {
	if u.def.caseWidgetID == "" {
		return nil
	}
	return u.Lookup("../" + u.def.caseWidgetID)
}

// Value returns the discriminant's value.
func (u *Union) Value() any {
	if u.def.caseExpression != nil {
		v, err := u.def.caseExpression.Eval(expressionEnv(u))
		if err != nil {
			u.logger().Warn("union case expression failed", "widget", u.FullyQualifiedID(), "error", err)
			return nil
		}
		return v
	}
	if w := u.CaseWidget(); w != nil {
		return w.Value()
	}
	return nil
}

// ActiveCaseID returns the id of the selected case, falling back to the
// default case when the discriminant names none.
func (u *Union) ActiveCaseID() string {
	if id := u.caseID(u.Value()); id != "" && u.def.HasChild(id) {
		return id
	}
	return u.def.defaultCase
}

func (u *Union) caseID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	if w := u.CaseWidget(); w != nil {
		if dt, ok := w.Definition().(interface{ Datatype() datatype.Datatype }); ok {
			return dt.Datatype().Format(v, u.locale())
		}
	}
	return fmt.Sprint(v)
}

// ActiveCase returns the widget of the selected case, creating it on first use.
func (u *Union) ActiveCase() Widget {
	id := u.ActiveCaseID()
	if id == "" {
		return nil
	}
	return u.Child(id)
}

// Child returns the case with the given id, creating it on first use.
func (u *Union) Child(id string) Widget {
	if w := u.cases.get(id); w != nil {
		return w
	}
	def, ok := u.def.Child(id)
	if !ok {
		return nil
	}
	w := def.CreateInstance()
	if w == nil {
		return nil
	}
	if err := u.cases.add(u, w); err != nil {
		u.logger().Error("union case", "widget", u.FullyQualifiedID(), "case", id, "error", err)
		return nil
	}
	if u.Form() != nil {
		if err := w.initialize(); err != nil {
			u.logger().Error("initialize union case", "widget", u.FullyQualifiedID(), "case", id, "error", err)
		}
	}
	return w
}

// Children returns the cases created so far.
func (u *Union) Children() []Widget { return u.cases.all() }

func (u *Union) lookupChild(id string) Widget { return u.Child(id) }

func (u *Union) initialize() error {
	if err := u.widgetBase.initialize(); err != nil {
		return err
	}
	return u.cases.initialize()
}

// ReadFromRequest reads the discriminant and then the active case. When the
// discriminant itself submitted the form and changed the selection, the
// previous case is read instead so that its values survive the switch.
//
// The discriminant may be declared after the union; reading it here first is
// safe because widgets ignore a second read of an unchanged parameter.
func (u *Union) ReadFromRequest(req Request) error {
	if !u.CombinedState().AcceptsInput() {
		return nil
	}
	if w := u.CaseWidget(); w != nil {
		if err := w.ReadFromRequest(req); err != nil {
			return err
		}
	}
	current := u.ActiveCaseID()
	target := current
	if u.lastCase != "" && current != u.lastCase {
		if f := u.Form(); f != nil && f.isSubmitter(req, u.CaseWidget()) {
			target = u.lastCase
		}
	}
	u.lastCase = current
	if target == "" {
		return nil
	}
	if w := u.Child(target); w != nil {
		return w.ReadFromRequest(req)
	}
	return nil
}

func (u *Union) Validate() bool {
	u.validationError = nil
	if !u.CombinedState().Validates() {
		return true
	}
	valid := true
	if w := u.ActiveCase(); w != nil {
		valid = w.Validate()
	}
	return runValidators(u) && valid
}

func (u *Union) renderAttrs() []render.Attr {
	return []render.Attr{{Name: "case", Value: u.ActiveCaseID()}}
}

func (u *Union) generateContent(ctx context.Context, sink render.Sink) error {
	id := u.ActiveCaseID()
	u.lastCase = id
	if id == "" {
		return nil
	}
	if w := u.Child(id); w != nil {
		return w.Generate(ctx, sink)
	}
	return nil
}
