package definitions_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/cache"
	"github.com/dmitrymomot/formtree/pkg/definitions"
	"github.com/dmitrymomot/formtree/pkg/formbuilder"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
)

const (
	signupDoc = `
form: signup
imports:
  c: common
children:
  - field: email
    required: true
  - struct: home
    children:
      - new: c:address
`
	commonDoc = `
library: common
classes:
  - class: address
    children:
      - field: street
`
	commonDocV2 = `
library: common
classes:
  - class: address
    children:
      - field: street
      - field: zip
`
)

func newFS() fstest.MapFS {
	return fstest.MapFS{
		"signup.yaml": {Data: []byte(signupDoc)},
		"common.yaml": {Data: []byte(commonDoc)},
	}
}

func newManager(t *testing.T, fsys fstest.MapFS, opts ...definitions.Option) *definitions.Manager {
	t.Helper()
	m := definitions.NewManager(definitions.NewFSSource("test", fsys), opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_Form(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, newFS())

	def, err := m.Form(ctx, "signup")
	require.NoError(t, err)
	assert.True(t, def.IsResolved())
	home, ok := def.Child("home")
	require.True(t, ok)
	assert.True(t, home.(*formmodel.StructDefinition).HasChild("street"))

	again, err := m.Form(ctx, "signup")
	require.NoError(t, err)
	assert.Same(t, def, again)

	f, err := m.NewForm(ctx, "signup")
	require.NoError(t, err)
	assert.Same(t, def, f.FormDefinition())
}

func TestManager_ConcurrentImports(t *testing.T) {
	t.Parallel()

	const forms = 8
	fsys := newFS()
	for i := range forms {
		name := fmt.Sprintf("form%d", i)
		fsys[name+".yaml"] = &fstest.MapFile{Data: []byte(fmt.Sprintf(
			"form: %s\nimports:\n  c: common\nclasses:\n  - class: address\n    children:\n      - field: own%d\nchildren:\n  - struct: home\n    children:\n      - new: c:address\n  - struct: local\n    children:\n      - new: address\n",
			name, i))}
	}
	m := newManager(t, fsys)

	ctx := context.Background()
	defs := make([]*formmodel.FormDefinition, forms)
	errs := make([]error, forms)
	var wg sync.WaitGroup
	for i := range forms {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defs[i], errs[i] = m.Form(ctx, fmt.Sprintf("form%d", i))
		}()
	}
	wg.Wait()

	for i := range forms {
		require.NoError(t, errs[i])
		home, ok := defs[i].Child("home")
		require.True(t, ok)
		assert.True(t, home.(*formmodel.StructDefinition).HasChild("street"))
		local, ok := defs[i].Child("local")
		require.True(t, ok)
		assert.True(t, local.(*formmodel.StructDefinition).HasChild(fmt.Sprintf("own%d", i)))
	}
}

func TestManager_Revalidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("document change rebuilds", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		m := newManager(t, fsys)
		before, err := m.Form(ctx, "signup")
		require.NoError(t, err)

		fsys["signup.yaml"] = &fstest.MapFile{Data: []byte("form: signup\nchildren:\n  - field: name\n")}
		after, err := m.Form(ctx, "signup")
		require.NoError(t, err)
		assert.NotSame(t, before, after)
		assert.True(t, after.HasChild("name"))
	})

	t.Run("modification time change rebuilds", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		fsys["signup.yaml"].ModTime = stamp
		m := newManager(t, fsys)
		before, err := m.Form(ctx, "signup")
		require.NoError(t, err)

		fsys["signup.yaml"].ModTime = stamp.Add(time.Second)
		after, err := m.Form(ctx, "signup")
		require.NoError(t, err)
		assert.NotSame(t, before, after)
	})

	t.Run("imported library change rebuilds", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		m := newManager(t, fsys)
		before, err := m.Form(ctx, "signup")
		require.NoError(t, err)

		fsys["common.yaml"] = &fstest.MapFile{Data: []byte(commonDocV2)}
		after, err := m.Form(ctx, "signup")
		require.NoError(t, err)
		require.NotSame(t, before, after)
		home, _ := after.Child("home")
		assert.True(t, home.(*formmodel.StructDefinition).HasChild("zip"))
	})

	t.Run("revalidation disabled keeps the cached definition", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		m := newManager(t, fsys, definitions.WithRevalidate(false))
		before, err := m.Form(ctx, "signup")
		require.NoError(t, err)

		fsys["signup.yaml"] = &fstest.MapFile{Data: []byte("children: []\n")}
		after, err := m.Form(ctx, "signup")
		require.NoError(t, err)
		assert.Same(t, before, after)

		require.NoError(t, m.Invalidate(ctx, "signup"))
		after, err = m.Form(ctx, "signup")
		require.NoError(t, err)
		assert.NotSame(t, before, after)
	})

	t.Run("recheck interval defers revalidation", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		m := newManager(t, fsys, definitions.WithRecheckInterval(time.Hour))
		before, err := m.Form(ctx, "signup")
		require.NoError(t, err)

		fsys["signup.yaml"] = &fstest.MapFile{Data: []byte("children: []\n")}
		after, err := m.Form(ctx, "signup")
		require.NoError(t, err)
		assert.Same(t, before, after)
	})

	t.Run("removed document fails", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		m := newManager(t, fsys)
		_, err := m.Form(ctx, "signup")
		require.NoError(t, err)

		delete(fsys, "signup.yaml")
		_, err = m.Form(ctx, "signup")
		require.ErrorIs(t, err, definitions.ErrNotFound)
	})
}

func TestManager_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		_, err := newManager(t, newFS()).Form(ctx, "missing")
		require.ErrorIs(t, err, definitions.ErrNotFound)
		require.ErrorIs(t, err, cache.ErrLoad)
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()

		_, err := newManager(t, newFS()).Form(ctx, "../etc/passwd")
		require.ErrorIs(t, err, definitions.ErrInvalidName)
	})

	t.Run("unknown import", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		delete(fsys, "common.yaml")
		_, err := newManager(t, fsys).Form(ctx, "signup")
		require.ErrorIs(t, err, definitions.ErrNotFound)
	})

	t.Run("broken document is not cached", func(t *testing.T) {
		t.Parallel()

		fsys := newFS()
		fsys["signup.yaml"] = &fstest.MapFile{Data: []byte("children:\n  - field: a\n    bogus: 1\n")}
		m := newManager(t, fsys)
		_, err := m.Form(ctx, "signup")
		require.ErrorIs(t, err, formbuilder.ErrInvalidDocument)

		fsys["signup.yaml"] = &fstest.MapFile{Data: []byte(signupDoc)}
		_, err = m.Form(ctx, "signup")
		require.NoError(t, err)
	})

	t.Run("library requested as form", func(t *testing.T) {
		t.Parallel()

		_, err := newManager(t, newFS()).Form(ctx, "common")
		require.ErrorIs(t, err, formbuilder.ErrNotAForm)
	})
}

func TestManager_Fingerprint(t *testing.T) {
	t.Parallel()

	a := definitions.NewManager(definitions.NewFSSource("a", newFS()))
	b := definitions.NewManager(definitions.NewFSSource("b", newFS()))
	c := definitions.NewManager(definitions.NewFSSource("a", newFS()), definitions.WithRevalidate(false))
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
		_ = c.Close()
	})

	fp := a.Fingerprint(definitions.KindForm, "signup")
	assert.NotEqual(t, fp, a.Fingerprint(definitions.KindLibrary, "signup"))
	assert.NotEqual(t, fp, b.Fingerprint(definitions.KindForm, "signup"))
	assert.NotEqual(t, fp, c.Fingerprint(definitions.KindForm, "signup"))
}

func TestManager_SharedCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared := cache.NewMemory[*definitions.Entry]()
	t.Cleanup(func() { _ = shared.Close() })

	a := newManager(t, newFS(), definitions.WithCache(shared))
	b := newManager(t, newFS(), definitions.WithCache(shared))

	_, err := a.Form(ctx, "signup")
	require.NoError(t, err)
	assert.Equal(t, 2, shared.Len())

	_, err = b.Form(ctx, "signup")
	require.NoError(t, err)
	assert.Equal(t, 2, shared.Len())

	require.NoError(t, a.Close())
	ok, err := shared.Has(ctx, a.Fingerprint(definitions.KindForm, "signup"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_Healthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.NoError(t, newManager(t, newFS()).Healthcheck()(ctx))

	m := newManager(t, newFS())
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, m.Healthcheck()(cancelled), context.Canceled)
}
