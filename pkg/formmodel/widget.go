package formmodel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/logger"
	"github.com/dmitrymomot/formtree/pkg/render"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

// Widget is the per-request instance of a definition.
type Widget interface {
	// ID is the widget's id among its siblings.
	ID() string

	// Kind names the widget type; it is also the element name in output.
	Kind() string

	Definition() Definition
	Parent() Widget

	// SetParent attaches the widget. It fails with ErrParentAlreadySet when
	// called a second time.
	SetParent(parent Widget) error

	// Form returns the root of the widget's tree, nil while detached.
	Form() *Form

	// FullyQualifiedID is the dot-joined path of ids from the root.
	FullyQualifiedID() string

	// RequestParameterName is the name the widget reads from the request.
	RequestParameterName() string

	State() WidgetState
	SetState(s WidgetState)

	// CombinedState is the most restrictive of the widget's and its ancestors' states.
	CombinedState() WidgetState

	Value() any
	SetValue(v any) error

	ReadFromRequest(req Request) error

	// Validate checks the widget and its descendants and reports whether all passed.
	Validate() bool

	ValidationError() *validator.ValidationError
	SetValidationError(err *validator.ValidationError)

	Attribute(name string) any
	SetAttribute(name string, v any)

	// Lookup resolves a "/"-separated path relative to the widget. ".."
	// selects the parent and a leading "/" starts at the form.
	Lookup(path string) Widget

	AddValidator(v Validator)

	Generate(ctx context.Context, sink render.Sink) error

	base() *widgetBase
	initialize() error
	broadcastEvent(ev WidgetEvent) error
	generateContent(ctx context.Context, sink render.Sink) error
}

// containerWidget is a widget with addressable children.
type containerWidget interface {
	Widget
	Children() []Widget
	lookupChild(id string) Widget
}

// renderAttributer adds kind-specific attributes to the widget element.
type renderAttributer interface {
	renderAttrs() []render.Attr
}

// widgetBase implements the behavior shared by all widgets.
type widgetBase struct {
	self            Widget
	def             Definition
	parent          Widget
	form            *Form
	attrs           map[string]any
	validationError *validator.ValidationError
	validators      []Validator
	state           WidgetState
}

func (w *widgetBase) init(self Widget, def Definition) {
	w.self = self
	w.def = def
	w.state = def.State()
}

func (w *widgetBase) base() *widgetBase      { return w }
func (w *widgetBase) ID() string             { return w.def.ID() }
func (w *widgetBase) Definition() Definition { return w.def }
func (w *widgetBase) Parent() Widget         { return w.parent }

func (w *widgetBase) SetParent(parent Widget) error {
	if w.parent != nil {
		return fmt.Errorf("%w: %q", ErrParentAlreadySet, w.self.ID())
	}
	w.parent = parent
	return nil
}

func (w *widgetBase) Form() *Form {
	if w.form == nil {
		if f, ok := w.self.(*Form); ok {
			w.form = f
		} else if w.parent != nil {
			w.form = w.parent.Form()
		}
	}
	return w.form
}

func (w *widgetBase) FullyQualifiedID() string {
	id := w.self.ID()
	if w.parent == nil {
		return id
	}
	prefix := w.parent.FullyQualifiedID()
	if prefix == "" {
		return id
	}
	return prefix + "." + id
}

func (w *widgetBase) RequestParameterName() string {
	return w.self.FullyQualifiedID()
}

func (w *widgetBase) State() WidgetState     { return w.state }
func (w *widgetBase) SetState(s WidgetState) { w.state = s }

func (w *widgetBase) CombinedState() WidgetState {
	if w.parent == nil {
		return w.state
	}
	return combineStates(w.parent.CombinedState(), w.state)
}

func (w *widgetBase) Value() any { return nil }

func (w *widgetBase) SetValue(any) error {
	return fmt.Errorf("%w: %s %q", ErrValueNotSupported, w.self.Kind(), w.self.FullyQualifiedID())
}

func (w *widgetBase) ReadFromRequest(Request) error { return nil }

func (w *widgetBase) Validate() bool {
	w.validationError = nil
	if !w.self.CombinedState().Validates() {
		return true
	}
	return runValidators(w.self)
}

func (w *widgetBase) ValidationError() *validator.ValidationError { return w.validationError }

func (w *widgetBase) SetValidationError(err *validator.ValidationError) {
	w.validationError = err
}

// Attribute returns the instance attribute name, falling back to the
// definition's static attribute.
func (w *widgetBase) Attribute(name string) any {
	if v, ok := w.attrs[name]; ok {
		return v
	}
	if v, ok := w.def.Attribute(name); ok {
		return v
	}
	return nil
}

func (w *widgetBase) SetAttribute(name string, v any) {
	if w.attrs == nil {
		w.attrs = make(map[string]any)
	}
	w.attrs[name] = v
}

func (w *widgetBase) Lookup(path string) Widget {
	cur := w.self
	if rest, ok := strings.CutPrefix(path, "/"); ok {
		f := w.Form()
		if f == nil {
			return nil
		}
		cur, path = f, rest
	}
	for seg := range strings.SplitSeq(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			cur = cur.Parent()
		default:
			c, ok := cur.(containerWidget)
			if !ok {
				return nil
			}
			cur = c.lookupChild(seg)
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

func (w *widgetBase) AddValidator(v Validator) {
	w.validators = append(w.validators, v)
}

func (w *widgetBase) Generate(ctx context.Context, sink render.Sink) error {
	return generateWidget(ctx, w.self, sink)
}

func (w *widgetBase) generateContent(context.Context, render.Sink) error { return nil }

func (w *widgetBase) broadcastEvent(WidgetEvent) error { return nil }

// initialize runs the definition's create listeners once the widget is attached.
func (w *widgetBase) initialize() error {
	for _, fn := range w.def.base().createListeners {
		fn(w.self)
	}
	return nil
}

// raise delivers ev through the form's queue, or directly while detached.
func (w *widgetBase) raise(ev WidgetEvent) error {
	if f := w.Form(); f != nil {
		return f.AddWidgetEvent(ev)
	}
	return w.self.broadcastEvent(ev)
}

func (w *widgetBase) logger() *slog.Logger {
	if f := w.Form(); f != nil {
		return f.Logger()
	}
	return logger.NewNope()
}

// locale returns the form's current locale.
func (w *widgetBase) locale() language.Tag {
	if f := w.Form(); f != nil {
		return f.Locale()
	}
	return language.English
}

// generateWidget writes the element wrapping every widget: the display data,
// the kind-specific content and the validation message.
func generateWidget(ctx context.Context, w Widget, sink render.Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state := w.CombinedState()
	if !state.Rendered() {
		return nil
	}

	var attrs []render.Attr
	if id := w.FullyQualifiedID(); id != "" {
		attrs = append(attrs, render.Attr{Name: "id", Value: id})
	}
	if state != StateActive {
		attrs = append(attrs, render.Attr{Name: "state", Value: state.String()})
	}
	if ra, ok := w.(renderAttributer); ok {
		attrs = append(attrs, ra.renderAttrs()...)
	}

	return render.Element(sink, w.Kind(), attrs, func() error {
		if err := w.Definition().DisplayData().generate(sink); err != nil {
			return err
		}
		if err := w.generateContent(ctx, sink); err != nil {
			return err
		}
		if ve := w.ValidationError(); ve != nil {
			msg := ve.Message
			if f := w.Form(); f != nil {
				msg = ve.Translated(f.translator()).Message
			}
			return render.TextElement(sink, "validation-message", msg)
		}
		return nil
	})
}

// parentOf returns the widget's parent as a container.
func parentOf(w Widget) containerWidget {
	c, _ := w.Parent().(containerWidget)
	return c
}
