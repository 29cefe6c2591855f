package formmodel_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/datatype"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/render"
)

func TestWidget_Generate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	build := func(t *testing.T) *formmodel.Form {
		t.Helper()
		def := formmodel.NewFormDefinition("")
		name := requiredField(t, "name", nil)
		require.NoError(t, name.SetDisplayData(formmodel.DisplayLabel, render.TextFragment("Name")))
		require.NoError(t, def.AddChild(name))

		color := formmodel.NewFieldDefinition("color", nil)
		require.NoError(t, color.SetSelectionList([]formmodel.SelectionItem{
			{Value: "r", Label: render.TextFragment("Red")},
			{Value: "g"},
		}))
		require.NoError(t, def.AddChild(color))

		secret := formmodel.NewFieldDefinition("secret", nil)
		require.NoError(t, secret.SetState(formmodel.StateInvisible))
		require.NoError(t, def.AddChild(secret))

		locked := formmodel.NewFieldDefinition("locked", datatype.Integer())
		require.NoError(t, locked.SetState(formmodel.StateDisabled))
		require.NoError(t, def.AddChild(locked))
		return newForm(t, def)
	}

	t.Run("writes display data, value and message", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		_, err := f.Process(ctx, formmodel.NewParams())
		require.NoError(t, err)

		rec := &render.Recorder{}
		require.NoError(t, f.Generate(ctx, rec))

		out := rec.String()
		assert.Contains(t, out, `<field id=name datatype=string required=true><label>Name</label><value></value><validation-message>is required</validation-message></field>`)
		assert.Contains(t, out, `<selection-list><item value=r><label>Red</label></item><item value=g></item></selection-list>`)
		assert.Equal(t, "form", rec.Elements()[0])
	})

	t.Run("skips invisible widgets and marks inactive ones", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		require.NoError(t, f.Child("locked").SetValue(int64(1234)))

		rec := &render.Recorder{}
		require.NoError(t, f.Generate(ctx, rec))

		_, found := rec.Find("field", "secret")
		assert.False(t, found)

		attrs, found := rec.Find("field", "locked")
		require.True(t, found)
		state, _ := render.AttrValue(attrs, "state")
		assert.Equal(t, "disabled", state)
		assert.Contains(t, rec.String(), "<value>1,234</value>")
	})

	t.Run("encodes as xml", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		var buf bytes.Buffer
		w := render.NewXMLWriter(&buf)
		require.NoError(t, f.Generate(ctx, w))
		require.NoError(t, w.Flush())

		assert.Contains(t, buf.String(), `<form xmlns="urn:formtree:widgets" instance="`+f.InstanceID()+`">`)
		assert.Contains(t, buf.String(), `<field id="name" datatype="string" required="true">`)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()

		f := build(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		require.ErrorIs(t, f.Generate(cctx, &render.Recorder{}), context.Canceled)
	})
}

func TestWidget_Listeners(t *testing.T) {
	t.Parallel()

	def := formmodel.NewFormDefinition("")
	require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", nil)))
	f := newForm(t, def)
	a := f.Child("a").(*formmodel.Field)

	var got []any
	h := a.OnValueChanged(func(ev *formmodel.ValueChangedEvent) { got = append(got, ev.New) })

	require.NoError(t, a.SetValue("x"))
	require.NoError(t, a.SetValue("x"))
	assert.True(t, a.RemoveValueChangedListener(h))
	assert.False(t, a.RemoveValueChangedListener(h))
	require.NoError(t, a.SetValue("y"))

	assert.Equal(t, []any{"x"}, got)
	require.ErrorIs(t, a.SetValue(42), formmodel.ErrInvalidValue)
}

func TestWidget_SetParent(t *testing.T) {
	t.Parallel()

	def := formmodel.NewFormDefinition("")
	require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", nil)))
	f := newForm(t, def)

	require.ErrorIs(t, f.Child("a").SetParent(f), formmodel.ErrParentAlreadySet)
}
