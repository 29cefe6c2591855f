package formmodel_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/pkg/datatype"
	"github.com/dmitrymomot/formtree/pkg/expression"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/validator"
)

func requiredField(t *testing.T, id string, dt datatype.Datatype) *formmodel.FieldDefinition {
	t.Helper()
	d := formmodel.NewFieldDefinition(id, dt)
	require.NoError(t, d.SetRequired(true))
	return d
}

func TestForm_FullyQualifiedID(t *testing.T) {
	t.Parallel()

	build := func(formID string) *formmodel.Form {
		def := formmodel.NewFormDefinition(formID)
		s := formmodel.NewStructDefinition("a")
		require.NoError(t, s.AddChild(formmodel.NewFieldDefinition("b", nil)))
		require.NoError(t, def.AddChild(s))
		return newForm(t, def)
	}

	t.Run("empty root id", func(t *testing.T) {
		t.Parallel()

		f := build("")
		w := f.LookupFullyQualified("a.b")
		require.NotNil(t, w)
		assert.Equal(t, "a.b", w.FullyQualifiedID())
		assert.Equal(t, "a.b", w.RequestParameterName())
		assert.Same(t, f, w.Form())
	})

	t.Run("root id prefixes every path", func(t *testing.T) {
		t.Parallel()

		f := build("f")
		w := f.LookupFullyQualified("f.a.b")
		require.NotNil(t, w)
		assert.Equal(t, "f.a.b", w.FullyQualifiedID())
		assert.Same(t, w, f.LookupFullyQualified("a.b"))
		assert.Same(t, f, f.LookupFullyQualified("f"))
		assert.Nil(t, f.LookupFullyQualified("f.a.missing"))
	})

	t.Run("relative lookup", func(t *testing.T) {
		t.Parallel()

		f := build("f")
		b := f.LookupFullyQualified("f.a.b")
		assert.Same(t, f.Child("a"), b.Lookup(".."))
		assert.Same(t, b, b.Lookup("../b"))
		assert.Same(t, b, b.Lookup("/a/b"))
	})
}

func TestForm_Process(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("reads and validates", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(requiredField(t, "age", datatype.Integer())))
		f := newForm(t, def)

		done, err := f.Process(ctx, formmodel.NewParams("age", " 42 "))
		require.NoError(t, err)
		assert.True(t, done)
		assert.True(t, f.IsValid())
		assert.Equal(t, int64(42), f.Child("age").Value())
		assert.Equal(t, formmodel.PhaseDone, f.Phase())
	})

	t.Run("validates every widget after a failure", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(requiredField(t, "a", nil)))
		require.NoError(t, def.AddChild(requiredField(t, "b", datatype.Integer())))
		require.NoError(t, def.AddChild(requiredField(t, "c", nil)))
		f := newForm(t, def)

		done, err := f.Process(ctx, formmodel.NewParams("b", "x", "c", "ok"))
		require.NoError(t, err)
		assert.False(t, done)

		errs := f.ValidationErrors()
		require.Len(t, errs, 2)
		assert.Equal(t, "validation.required", errs.GetErrors("a")[0].TranslationKey)
		assert.Equal(t, "validation.conversion", errs.GetErrors("b")[0].TranslationKey)
		assert.False(t, errs.Has("c"))
		assert.Equal(t, "x", f.Child("b").(*formmodel.Field).EnteredValue())
	})

	t.Run("translates validation errors", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("", formmodel.WithTranslator(func(key string, values map[string]any) string {
			return fmt.Sprintf("%s(%v)", key, values["field"])
		}))
		require.NoError(t, def.AddChild(requiredField(t, "a", nil)))
		f := newForm(t, def)

		_, err := f.Process(ctx, formmodel.NewParams())
		require.NoError(t, err)
		errs := f.ValidationErrors()
		require.Len(t, errs, 1)
		assert.Equal(t, "validation.required(a)", errs[0].Message)
	})

	t.Run("localizes validation errors for the request locale", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("",
			formmodel.WithTranslator(func(string, map[string]any) string { return "unused" }),
			formmodel.WithLocalizer(func(tag language.Tag) validator.TranslateFunc {
				return func(key string, _ map[string]any) string { return tag.String() + ":" + key }
			}),
		)
		require.NoError(t, def.AddChild(requiredField(t, "a", nil)))
		f := newForm(t, def)

		req := formmodel.NewParams()
		req.Tag = language.German
		_, err := f.Process(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"de:validation.required"}, f.ValidationErrors().Get("a"))

		_, err = f.Process(ctx, formmodel.NewParams())
		require.NoError(t, err)
		assert.Equal(t, []string{"en:validation.required"}, f.ValidationErrors().Get("a"))
	})

	t.Run("skips inactive widgets", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		s := formmodel.NewStructDefinition("s")
		require.NoError(t, s.SetState(formmodel.StateDisabled))
		require.NoError(t, s.AddChild(requiredField(t, "a", nil)))
		require.NoError(t, def.AddChild(s))
		f := newForm(t, def)

		done, err := f.Process(ctx, formmodel.NewParams("s.a", "ignored"))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, f.LookupFullyQualified("s.a").Value())
		assert.Equal(t, formmodel.StateDisabled, f.LookupFullyQualified("s.a").CombinedState())
	})

	t.Run("runs definition validators", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		email := formmodel.NewFieldDefinition("email", nil)
		require.NoError(t, email.AddValidator(formmodel.RuleValidator{Rule: validator.Email()}))
		require.NoError(t, def.AddChild(email))
		qty := formmodel.NewFieldDefinition("qty", datatype.Integer())
		require.NoError(t, qty.AddValidator(formmodel.ExpressionValidator{
			Program: expression.MustCompile("value <= stock"),
			Message: "not enough stock",
		}))
		require.NoError(t, def.AddChild(qty))
		require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("stock", datatype.Integer())))
		f := newForm(t, def)

		done, err := f.Process(ctx, formmodel.NewParams("email", "nope", "qty", "5", "stock", "3"))
		require.NoError(t, err)
		assert.False(t, done)
		errs := f.ValidationErrors()
		assert.Equal(t, "validation.email", errs.GetErrors("email")[0].TranslationKey)
		assert.Equal(t, "not enough stock", errs.Get("qty")[0])

		done, err = f.Process(ctx, formmodel.NewParams("email", "a@example.com", "qty", "2", "stock", "3"))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Empty(t, f.ValidationErrors())
	})
}

func TestForm_EventOrder(t *testing.T) {
	t.Parallel()

	var fired []string
	def := formmodel.NewFormDefinition("")

	w2 := formmodel.NewFieldDefinition("w2", nil)
	require.NoError(t, w2.AddValueChangedListener(func(*formmodel.ValueChangedEvent) {
		fired = append(fired, "E3")
	}))
	w1 := formmodel.NewFieldDefinition("w1", nil)
	require.NoError(t, w1.AddValueChangedListener(func(ev *formmodel.ValueChangedEvent) {
		fired = append(fired, "E1")
		require.NoError(t, ev.Widget.Lookup("../w3").SetValue("derived"))
	}))
	w3 := formmodel.NewFieldDefinition("w3", nil)
	require.NoError(t, w3.AddValueChangedListener(func(*formmodel.ValueChangedEvent) {
		fired = append(fired, "E2")
	}))
	for _, d := range []formmodel.Definition{w2, w1, w3} {
		require.NoError(t, def.AddChild(d))
	}
	f := newForm(t, def)

	_, err := f.Process(context.Background(), formmodel.NewParams("w1", "x", "w2", "y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"E3", "E1", "E2"}, fired)
}

func TestForm_EventOrderDuringValidation(t *testing.T) {
	t.Parallel()

	var fired []string
	def := formmodel.NewFormDefinition("")

	w1 := formmodel.NewFieldDefinition("w1", nil)
	require.NoError(t, w1.AddValidator(formmodel.ValidatorFunc(func(w formmodel.Widget) *validator.ValidationError {
		require.NoError(t, w.Lookup("../mark").SetValue("checked"))
		return nil
	})))
	w2 := formmodel.NewFieldDefinition("w2", nil)
	require.NoError(t, w2.AddValueChangedListener(func(*formmodel.ValueChangedEvent) {
		fired = append(fired, "E3")
	}))
	mark := formmodel.NewFieldDefinition("mark", nil)
	require.NoError(t, mark.AddValueChangedListener(func(ev *formmodel.ValueChangedEvent) {
		fired = append(fired, "E1")
		require.NoError(t, ev.Widget.Lookup("../derived").SetValue("from mark"))
	}))
	derived := formmodel.NewFieldDefinition("derived", nil)
	require.NoError(t, derived.AddValueChangedListener(func(*formmodel.ValueChangedEvent) {
		fired = append(fired, "E2")
	}))
	for _, d := range []formmodel.Definition{w1, w2, mark, derived} {
		require.NoError(t, def.AddChild(d))
	}
	f := newForm(t, def)

	done, err := f.Process(context.Background(), formmodel.NewParams("w1", "x", "w2", "y"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"E3", "E1", "E2"}, fired)
	assert.Equal(t, "from mark", f.Child("derived").Value())
}

func TestForm_EndProcessing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	build := func(t *testing.T) *formmodel.Form {
		def := formmodel.NewFormDefinition("f")
		require.NoError(t, def.AddChild(requiredField(t, "name", nil)))
		require.NoError(t, def.AddChild(formmodel.NewActionDefinition("refresh")))
		require.NoError(t, def.AddChild(formmodel.NewSubmitDefinition("cancel", false)))
		require.NoError(t, def.AddChild(formmodel.NewSubmitDefinition("save", true)))
		return newForm(t, def)
	}

	t.Run("action redisplays without validation", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		var commands []string
		f.OnEvent(func(ev formmodel.WidgetEvent) {
			if ae, ok := ev.(*formmodel.ActionEvent); ok {
				commands = append(commands, ae.Command)
			}
		})

		done, err := f.Process(ctx, formmodel.NewParams("f.refresh", "1"))
		require.NoError(t, err)
		assert.False(t, done)
		assert.Empty(t, f.ValidationErrors())
		assert.Equal(t, []string{"refresh"}, commands)
		assert.Same(t, f.Child("refresh"), f.SubmitWidget())
	})

	t.Run("submit without validation finishes", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		done, err := f.Process(ctx, formmodel.NewParams("f.cancel", "1"))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Empty(t, f.ValidationErrors())
	})

	t.Run("submit with validation validates", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		done, err := f.Process(ctx, formmodel.NewParams("f.save", "1"))
		require.NoError(t, err)
		assert.False(t, done)
		assert.True(t, f.ValidationErrors().Has("f.name"))

		done, err = f.Process(ctx, formmodel.NewParams("f.save", "1", "f.name", "Ann"))
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("phase listener ends processing", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		var phases []formmodel.ProcessingPhase
		f.OnProcessingPhase(func(ev *formmodel.PhaseEvent) {
			phases = append(phases, ev.Phase)
			ev.Form.EndProcessing(true)
		})

		done, err := f.Process(ctx, formmodel.NewParams())
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, []formmodel.ProcessingPhase{formmodel.ProcessingPhaseRead}, phases)
		assert.Empty(t, f.ValidationErrors())
	})
}

func TestForm_SubmitWidget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("resolved from the submit id parameter", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("f")
		require.NoError(t, def.AddChild(requiredField(t, "country", nil)))
		require.NoError(t, def.AddChild(requiredField(t, "city", nil)))
		f := newForm(t, def)

		done, err := f.Process(ctx, formmodel.NewParams("f.country", "NL", formmodel.DefaultSubmitIDParameter, "f.country"))
		require.NoError(t, err)
		assert.False(t, done, "non-action submit widgets redisplay")
		assert.Same(t, f.Child("country"), f.SubmitWidget())
		assert.Empty(t, f.ValidationErrors())
	})

	t.Run("custom parameter name", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("", formmodel.WithSubmitIDParameter("_trigger"))
		require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", nil)))
		f := newForm(t, def)

		_, err := f.Process(ctx, formmodel.NewParams("_trigger", "a"))
		require.NoError(t, err)
		assert.Same(t, f.Child("a"), f.SubmitWidget())
	})

	t.Run("unknown id is fatal", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("f")
		require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", nil)))
		f := newForm(t, def)

		_, err := f.Process(ctx, formmodel.NewParams(formmodel.DefaultSubmitIDParameter, "f.missing"))
		require.ErrorIs(t, err, formmodel.ErrUnknownSubmitWidget)
	})

	t.Run("two different submit widgets conflict", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(formmodel.NewActionDefinition("one")))
		require.NoError(t, def.AddChild(formmodel.NewActionDefinition("two")))
		f := newForm(t, def)

		_, err := f.Process(ctx, formmodel.NewParams("one", "1", "two", "1"))
		require.ErrorIs(t, err, formmodel.ErrSubmitWidgetConflict)
	})

	t.Run("setting the same widget twice is a no-op", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(formmodel.NewActionDefinition("one")))
		f := newForm(t, def)

		_, err := f.Process(ctx, formmodel.NewParams("one", "1", formmodel.DefaultSubmitIDParameter, "one"))
		require.NoError(t, err)
		require.NoError(t, f.SetSubmitWidget(f.Child("one")))
	})

	t.Run("widget must accept input", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		a := formmodel.NewFieldDefinition("a", nil)
		require.NoError(t, a.SetState(formmodel.StateOutput))
		require.NoError(t, def.AddChild(a))
		f := newForm(t, def)

		_, err := f.Process(ctx, formmodel.NewParams(formmodel.DefaultSubmitIDParameter, "a"))
		require.ErrorIs(t, err, formmodel.ErrWidgetNotAcceptingInput)
	})
}

func TestForm_Load(t *testing.T) {
	t.Parallel()

	def := formmodel.NewFormDefinition("")
	require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", nil)))
	require.NoError(t, def.AddChild(formmodel.NewBooleanFieldDefinition("b")))
	f := newForm(t, def)

	var events int
	f.OnEvent(func(formmodel.WidgetEvent) { events++ })

	f.BeginLoad()
	require.NoError(t, f.Child("a").SetValue("x"))
	require.NoError(t, f.Child("b").SetValue(true))
	assert.Zero(t, events)
	require.NoError(t, f.EndLoad())
	assert.Equal(t, 2, events)

	// Without buffering events are delivered at once.
	require.NoError(t, f.Child("a").SetValue("y"))
	assert.Equal(t, 3, events)

	assert.Equal(t, map[string]any{"a": "y", "b": true}, f.Values())
}

func TestForm_Output(t *testing.T) {
	t.Parallel()

	def := formmodel.NewFormDefinition("", formmodel.WithVariables(map[string]any{"vat": 2}))
	require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", datatype.Integer())))
	require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("b", datatype.Integer())))
	total := formmodel.NewOutputDefinition("total", datatype.Integer())
	require.NoError(t, total.SetExpression(expression.MustCompile("(a ?? 0) + (b ?? 0) + vat")))
	require.NoError(t, def.AddChild(total))
	f := newForm(t, def)

	_, err := f.Process(context.Background(), formmodel.NewParams("a", "2", "b", "3"))
	require.NoError(t, err)
	assert.EqualValues(t, 7, f.Child("total").Value())
	require.ErrorIs(t, f.Child("total").SetValue(int64(1)), formmodel.ErrValueNotSupported)
}
