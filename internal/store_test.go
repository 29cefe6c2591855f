package internal_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/formtree/internal"
	"github.com/dmitrymomot/formtree/pkg/definitions"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

func newSignupForm(t *testing.T) *formmodel.Form {
	t.Helper()
	manager := definitions.NewManager(definitions.NewFSSource("test", fstest.MapFS{
		"signup.yaml": {Data: []byte(signupDoc)},
	}))
	t.Cleanup(func() { _ = manager.Close() })
	f, err := manager.NewForm(context.Background(), "signup")
	require.NoError(t, err)
	return f
}

// withAvatar processes f with an uploaded avatar and returns the part.
func withAvatar(t *testing.T, f *formmodel.Form) *upload.MemoryPart {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("signup.avatar", "me.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("signup.more", "1"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, internal.ParseBody(r, internal.DefaultMaxMemory))

	_, err = f.Process(context.Background(), internal.NewRequest(r, formmodel.DefaultSubmitIDParameter, language.Und))
	require.NoError(t, err)
	part, ok := f.Values()["signup.avatar"].(*upload.MemoryPart)
	require.True(t, ok)
	return part
}

func TestFormStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get checks the definition name", func(t *testing.T) {
		t.Parallel()
		store := internal.NewFormStore()
		t.Cleanup(func() { _ = store.Close() })
		f := newSignupForm(t)

		require.NoError(t, store.Put(ctx, "signup", f))
		got, ok := store.Get(ctx, "signup", f.InstanceID())
		require.True(t, ok)
		assert.Same(t, f, got)

		_, ok = store.Get(ctx, "other", f.InstanceID())
		assert.False(t, ok)
		_, ok = store.Get(ctx, "signup", "missing")
		assert.False(t, ok)
	})

	t.Run("delete releases uploads", func(t *testing.T) {
		t.Parallel()
		store := internal.NewFormStore()
		t.Cleanup(func() { _ = store.Close() })
		f := newSignupForm(t)
		part := withAvatar(t, f)

		require.NoError(t, store.Put(ctx, "signup", f))
		require.NoError(t, store.Delete(ctx, f.InstanceID()))
		assert.Equal(t, 0, store.Len())
		assert.True(t, part.Released())
	})

	t.Run("least recently used form is evicted", func(t *testing.T) {
		t.Parallel()
		store := internal.NewFormStore(internal.WithMaxInstances(1))
		t.Cleanup(func() { _ = store.Close() })
		first := newSignupForm(t)
		part := withAvatar(t, first)
		second := newSignupForm(t)

		require.NoError(t, store.Put(ctx, "signup", first))
		require.NoError(t, store.Put(ctx, "signup", second))
		assert.Equal(t, 1, store.Len())
		assert.True(t, part.Released())
		_, ok := store.Get(ctx, "signup", first.InstanceID())
		assert.False(t, ok)
	})

	t.Run("expired forms are gone", func(t *testing.T) {
		t.Parallel()
		store := internal.NewFormStore(internal.WithInstanceTTL(10 * time.Millisecond))
		t.Cleanup(func() { _ = store.Close() })
		f := newSignupForm(t)

		require.NoError(t, store.Put(ctx, "signup", f))
		assert.Eventually(t, func() bool {
			_, ok := store.Get(ctx, "signup", f.InstanceID())
			return !ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("close releases everything", func(t *testing.T) {
		t.Parallel()
		store := internal.NewFormStore()
		f := newSignupForm(t)
		part := withAvatar(t, f)

		require.NoError(t, store.Put(ctx, "signup", f))
		require.NoError(t, store.Close())
		assert.True(t, part.Released())
		assert.NoError(t, store.Delete(ctx, f.InstanceID()))
	})
}
