package formmodel

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrymomot/formtree/pkg/render"
)

// Field is a single-valued input converted by its definition's datatype.
// When conversion fails the submitted text is kept for redisplay and the
// field reports a conversion error on validation.
type Field struct {
	widgetBase
	def           *FieldDefinition
	value         any
	conversionErr error
	listeners     listenerList[*ValueChangedEvent]
	entered       string
}

func (f *Field) Kind() string { return "field" }

func (f *Field) Value() any { return f.value }

// EnteredValue returns the text last read from the request.
func (f *Field) EnteredValue() string { return f.entered }

// SetValue assigns v, which must be acceptable to the field's datatype.
func (f *Field) SetValue(v any) error {
	if !f.def.datatype.Accepts(v) {
		return fmt.Errorf("%w: %T is not a %s value for %q", ErrInvalidValue, v, f.def.datatype.Name(), f.FullyQualifiedID())
	}
	f.conversionErr = nil
	f.entered = f.def.datatype.Format(v, f.locale())
	return f.assign(v)
}

func (f *Field) assign(v any) error {
	old := f.value
	f.value = v
	if valuesEqual(old, v) {
		return nil
	}
	return f.raise(&ValueChangedEvent{Widget: f, Old: old, New: v})
}

func (f *Field) ReadFromRequest(req Request) error {
	if !f.CombinedState().AcceptsInput() {
		return nil
	}
	raw, ok := req.Parameter(f.RequestParameterName())
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == f.entered && f.conversionErr == nil && f.value != nil {
		return nil
	}
	f.entered = raw

	v, err := f.def.datatype.Convert(raw, f.locale())
	f.conversionErr = err
	if err != nil {
		v = nil
	}
	return f.assign(v)
}

func (f *Field) Validate() bool {
	f.validationError = nil
	if !f.CombinedState().Validates() {
		return true
	}
	if f.conversionErr != nil {
		f.validationError = validationFailure(f, "validation.conversion",
			fmt.Sprintf("is not a valid %s", f.def.datatype.Name()),
			map[string]any{"datatype": f.def.datatype.Name(), "value": f.entered})
		return false
	}
	if f.value == nil {
		if f.def.required {
			f.validationError = validationFailure(f, "validation.required", "is required", nil)
			return false
		}
		return true
	}
	if len(f.def.selection) > 0 && !f.inSelection(f.value) {
		f.validationError = validationFailure(f, "validation.selection", "is not one of the allowed values", nil)
		return false
	}
	return runValidators(f)
}

func (f *Field) inSelection(v any) bool {
	for _, item := range f.def.selection {
		if valuesEqual(item.Value, v) {
			return true
		}
	}
	return false
}

// OnValueChanged registers fn for this widget only.
func (f *Field) OnValueChanged(fn func(*ValueChangedEvent)) *Handle {
	return f.listeners.add(fn)
}

// RemoveValueChangedListener unregisters a listener added with OnValueChanged.
func (f *Field) RemoveValueChangedListener(h *Handle) bool {
	return f.listeners.remove(h)
}

func (f *Field) broadcastEvent(ev WidgetEvent) error {
	if vc, ok := ev.(*ValueChangedEvent); ok {
		f.def.listeners.fire(vc)
		f.listeners.fire(vc)
	}
	return nil
}

func (f *Field) renderAttrs() []render.Attr {
	attrs := []render.Attr{{Name: "datatype", Value: f.def.datatype.Name()}}
	if f.def.required {
		attrs = append(attrs, render.Attr{Name: "required", Value: "true"})
	}
	return attrs
}

func (f *Field) generateContent(_ context.Context, sink render.Sink) error {
	text := f.entered
	if f.conversionErr == nil {
		text = f.def.datatype.Format(f.value, f.locale())
	}
	if err := render.TextElement(sink, "value", text); err != nil {
		return err
	}
	if len(f.def.selection) == 0 {
		return nil
	}
	return render.Element(sink, "selection-list", nil, func() error {
		for _, item := range f.def.selection {
			value := f.def.datatype.Format(item.Value, f.locale())
			err := render.Element(sink, "item", []render.Attr{{Name: "value", Value: value}}, func() error {
				if item.Label == nil {
					return nil
				}
				return render.Element(sink, "label", nil, func() error { return item.Label.Generate(sink) })
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// BooleanField is a checkbox-like input. An absent parameter means false.
type BooleanField struct {
	widgetBase
	def       *BooleanFieldDefinition
	listeners listenerList[*ValueChangedEvent]
	value     bool
}

func (b *BooleanField) Kind() string { return "booleanfield" }

func (b *BooleanField) Value() any { return b.value }

// Checked returns the boolean value.
func (b *BooleanField) Checked() bool { return b.value }

func (b *BooleanField) SetValue(v any) error {
	switch x := v.(type) {
	case bool:
		return b.assign(x)
	case nil:
		return b.assign(false)
	}
	return fmt.Errorf("%w: %T is not a boolean value for %q", ErrInvalidValue, v, b.FullyQualifiedID())
}

func (b *BooleanField) assign(v bool) error {
	if b.value == v {
		return nil
	}
	old := b.value
	b.value = v
	return b.raise(&ValueChangedEvent{Widget: b, Old: old, New: v})
}

func (b *BooleanField) ReadFromRequest(req Request) error {
	if !b.CombinedState().AcceptsInput() {
		return nil
	}
	raw, _ := req.Parameter(b.RequestParameterName())
	return b.assign(raw == b.def.trueParamValue)
}

func (b *BooleanField) OnValueChanged(fn func(*ValueChangedEvent)) *Handle {
	return b.listeners.add(fn)
}

func (b *BooleanField) RemoveValueChangedListener(h *Handle) bool {
	return b.listeners.remove(h)
}

func (b *BooleanField) broadcastEvent(ev WidgetEvent) error {
	if vc, ok := ev.(*ValueChangedEvent); ok {
		b.def.listeners.fire(vc)
		b.listeners.fire(vc)
	}
	return nil
}

func (b *BooleanField) renderAttrs() []render.Attr {
	return []render.Attr{{Name: "true-value", Value: b.def.trueParamValue}}
}

func (b *BooleanField) generateContent(_ context.Context, sink render.Sink) error {
	return render.TextElement(sink, "value", fmt.Sprint(b.value))
}

// Output displays a value without reading it from the request. With an
// expression configured the value is computed from sibling values on every
// access.
type Output struct {
	widgetBase
	def        *OutputDefinition
	value      any
	evaluating bool
}

func (o *Output) Kind() string { return "output" }

func (o *Output) Value() any {
	if o.def.expression == nil {
		return o.value
	}
	if o.evaluating {
		return nil
	}
	o.evaluating = true
	defer func() { o.evaluating = false }()

	v, err := o.def.expression.Eval(expressionEnv(o))
	if err != nil {
		if f := o.Form(); f != nil {
			f.Logger().Warn("output expression failed", "widget", o.FullyQualifiedID(), "error", err)
		}
		return nil
	}
	return v
}

func (o *Output) SetValue(v any) error {
	if o.def.expression != nil {
		return fmt.Errorf("%w: output %q is computed", ErrValueNotSupported, o.FullyQualifiedID())
	}
	if !o.def.datatype.Accepts(v) {
		return fmt.Errorf("%w: %T is not a %s value for %q", ErrInvalidValue, v, o.def.datatype.Name(), o.FullyQualifiedID())
	}
	o.value = v
	return nil
}

func (o *Output) generateContent(_ context.Context, sink render.Sink) error {
	v := o.Value()
	text := o.def.datatype.Format(v, o.locale())
	if text == "" && v != nil {
		text = fmt.Sprint(v)
	}
	return render.TextElement(sink, "value", text)
}

// valuesEqual compares widget values, including *big.Rat and time.Time.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *big.Rat:
		y, ok := b.(*big.Rat)
		return ok && x.Cmp(y) == 0
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}
