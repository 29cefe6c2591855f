package formmodel

import (
	"maps"

	"github.com/dmitrymomot/formtree/pkg/expression"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

// Validator checks a widget. It returns nil when the widget is valid.
type Validator interface {
	Validate(w Widget) *validator.ValidationError
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(w Widget) *validator.ValidationError

func (f ValidatorFunc) Validate(w Widget) *validator.ValidationError { return f(w) }

// RuleValidator applies a value rule to the widget's value.
type RuleValidator struct {
	Rule validator.ValueRule
}

func (v RuleValidator) Validate(w Widget) *validator.ValidationError {
	if w.Value() == nil {
		return nil
	}
	r := v.Rule.Check(w.FullyQualifiedID(), w.Value())
	if r.Check {
		return nil
	}
	return &r.Error
}

// ExpressionValidator fails when its expression evaluates to false. The
// expression sees the widget's siblings by id, the form variables and the
// widget's own value as "value".
type ExpressionValidator struct {
	Program        *expression.Program
	Message        string
	TranslationKey string
}

func (v ExpressionValidator) Validate(w Widget) *validator.ValidationError {
	env := expressionEnv(w)
	env["value"] = w.Value()
	ok, err := v.Program.EvalBool(env)
	if err != nil && w.Form() != nil {
		w.Form().Logger().Warn("validation expression failed",
			"widget", w.FullyQualifiedID(),
			"expression", v.Program.Source(),
			"error", err)
	}
	if ok && err == nil {
		return nil
	}
	key := v.TranslationKey
	if key == "" {
		key = "validation.expression"
	}
	msg := v.Message
	if msg == "" {
		msg = "is invalid"
	}
	return &validator.ValidationError{
		Field:             w.FullyQualifiedID(),
		Message:           msg,
		TranslationKey:    key,
		TranslationValues: map[string]any{"field": w.FullyQualifiedID()},
	}
}

// runValidators runs the definition's validators, then the widget's own,
// stopping at the first failure.
func runValidators(w Widget) bool {
	b := w.base()
	for _, list := range [][]Validator{b.def.base().validators, b.validators} {
		for _, v := range list {
			if err := v.Validate(w); err != nil {
				b.validationError = err
				return false
			}
		}
	}
	return true
}

// validationFailure builds an error attached to w.
func validationFailure(w Widget, key, msg string, values map[string]any) *validator.ValidationError {
	vals := map[string]any{"field": w.FullyQualifiedID()}
	maps.Copy(vals, values)
	return &validator.ValidationError{
		Field:             w.FullyQualifiedID(),
		Message:           msg,
		TranslationKey:    key,
		TranslationValues: vals,
	}
}

// expressionEnv exposes the form variables and the values of w's siblings.
// Containers and w itself are left out.
func expressionEnv(w Widget) map[string]any {
	env := make(map[string]any)
	if f := w.Form(); f != nil {
		maps.Copy(env, f.cfg.Variables)
	}
	parent := parentOf(w)
	if parent == nil {
		return env
	}
	for _, sib := range parent.Children() {
		if sib == w {
			continue
		}
		if _, ok := sib.(containerWidget); ok {
			continue
		}
		env[sib.ID()] = sib.Value()
	}
	return env
}
