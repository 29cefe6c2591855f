package formmodel_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/upload"
)

type memoryStore struct {
	keys []string
}

func (s *memoryStore) Put(_ context.Context, p upload.Part, _ ...upload.PutOption) (*upload.Stored, error) {
	s.keys = append(s.keys, p.Filename())
	return &upload.Stored{Key: "uploads/" + p.Filename(), Filename: p.Filename(), Size: p.Size(), ContentType: p.ContentType()}, nil
}

func uploadForm(t *testing.T) *formmodel.Form {
	t.Helper()
	doc := formmodel.NewUploadDefinition("doc")
	require.NoError(t, doc.SetMaxSize(10))
	require.NoError(t, doc.SetMIMETypes("text/*"))
	require.NoError(t, doc.SetRequired(true))

	def := formmodel.NewFormDefinition("")
	require.NoError(t, def.AddChild(doc))
	return newForm(t, def)
}

func TestUpload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("accepts a matching part", func(t *testing.T) {
		t.Parallel()

		f := uploadForm(t)
		part := upload.NewMemoryPart("a.txt", "text/plain", []byte("hello"))
		done, err := f.Process(ctx, formmodel.NewParams().AddFile("doc", part))
		require.NoError(t, err)
		assert.True(t, done)

		u := f.Child("doc").(*formmodel.Upload)
		assert.Same(t, part, u.Part())

		store := &memoryStore{}
		stored, err := u.Store(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, "uploads/a.txt", stored.Key)
		assert.Equal(t, []string{"a.txt"}, store.keys)
	})

	t.Run("rejects and releases an oversized part", func(t *testing.T) {
		t.Parallel()

		f := uploadForm(t)
		part := upload.NewMemoryPart("big.txt", "text/plain", bytes.Repeat([]byte("x"), 20))
		done, err := f.Process(ctx, formmodel.NewParams().AddFile("doc", part))
		require.NoError(t, err)
		assert.False(t, done)
		assert.True(t, part.Released())

		errs := f.ValidationErrors().GetErrors("doc")
		require.Len(t, errs, 1)
		assert.Equal(t, "validation.upload."+upload.CodeTooLarge, errs[0].TranslationKey)
		assert.EqualValues(t, 20, errs[0].TranslationValues["size"])
		assert.EqualValues(t, 10, errs[0].TranslationValues["limit"])
	})

	t.Run("rejects a wrong content type", func(t *testing.T) {
		t.Parallel()

		f := uploadForm(t)
		part := upload.NewMemoryPart("a.png", "image/png", []byte("x"))
		_, err := f.Process(ctx, formmodel.NewParams().AddFile("doc", part))
		require.NoError(t, err)
		assert.Equal(t, "validation.upload."+upload.CodeInvalidMIME, f.ValidationErrors().GetErrors("doc")[0].TranslationKey)
	})

	t.Run("releases a replaced part immediately", func(t *testing.T) {
		t.Parallel()

		f := uploadForm(t)
		first := upload.NewMemoryPart("a.txt", "text/plain", []byte("one"))
		second := upload.NewMemoryPart("b.txt", "text/plain", []byte("two"))

		_, err := f.Process(ctx, formmodel.NewParams().AddFile("doc", first))
		require.NoError(t, err)
		_, err = f.Process(ctx, formmodel.NewParams().AddFile("doc", second))
		require.NoError(t, err)

		assert.True(t, first.Released())
		assert.False(t, second.Released())

		f.Release()
		assert.True(t, second.Released())
		assert.Nil(t, f.Child("doc").Value())
	})

	t.Run("required", func(t *testing.T) {
		t.Parallel()

		f := uploadForm(t)
		done, err := f.Process(ctx, formmodel.NewParams())
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, "validation.required", f.ValidationErrors().GetErrors("doc")[0].TranslationKey)
	})
}

func TestUpload_RowLifecycle(t *testing.T) {
	t.Parallel()

	files := formmodel.NewRepeaterDefinition("files")
	require.NoError(t, files.AddChild(formmodel.NewUploadDefinition("file")))
	require.NoError(t, files.AddChild(formmodel.NewFieldDefinition("note", nil)))
	f := repeaterForm(t, files)

	part := upload.NewMemoryPart("a.txt", "text/plain", []byte("a"))
	_, err := f.Process(context.Background(), formmodel.NewParams("files.size", "1", "files.0.note", "n").AddFile("files.0.file", part))
	require.NoError(t, err)

	r := f.Child("files").(*formmodel.Repeater)
	require.NoError(t, r.CopyRows([]int{0}, 1))
	copied := r.Row(1)
	assert.Equal(t, "n", copied.Child("note").Value())
	assert.Nil(t, copied.Child("file").Value(), "parts are not shared between rows")

	require.NoError(t, r.RemoveRow(0))
	assert.True(t, part.Released())
}

func TestUpload_MoveBetweenRepeaters(t *testing.T) {
	t.Parallel()

	rows := func(id string) *formmodel.RepeaterDefinition {
		d := formmodel.NewRepeaterDefinition(id)
		require.NoError(t, d.AddChild(formmodel.NewUploadDefinition("file")))
		require.NoError(t, d.AddChild(formmodel.NewFieldDefinition("note", nil)))
		return d
	}
	f := repeaterForm(t, rows("src"), rows("dst"))

	part := upload.NewMemoryPart("a.txt", "text/plain", []byte("a"))
	_, err := f.Process(context.Background(), formmodel.NewParams("src.size", "1", "src.0.note", "n").AddFile("src.0.file", part))
	require.NoError(t, err)

	src := f.Child("src").(*formmodel.Repeater)
	dst := f.Child("dst").(*formmodel.Repeater)
	require.NoError(t, dst.MoveRowsFrom(src, []int{0}, 0))

	assert.Zero(t, src.Size())
	require.Equal(t, 1, dst.Size())
	assert.Equal(t, "n", dst.Row(0).Child("note").Value())
	assert.Same(t, part, dst.Row(0).Child("file").Value())
	assert.False(t, part.Released())

	require.NoError(t, dst.CopyRows([]int{0}, 1))
	assert.Nil(t, dst.Row(1).Child("file").Value(), "copies leave the part with its row")

	require.NoError(t, dst.RemoveRow(0))
	assert.True(t, part.Released())
}

func TestUpload_ReleaseWaitsForProcessing(t *testing.T) {
	t.Parallel()

	f := uploadForm(t)
	part := upload.NewMemoryPart("a.txt", "text/plain", []byte("a"))

	released := make(chan struct{})
	var heldDuringValidation bool
	f.OnProcessingPhase(func(ev *formmodel.PhaseEvent) {
		switch ev.Phase {
		case formmodel.ProcessingPhaseRead:
			go func() {
				f.Release()
				close(released)
			}()
			select {
			case <-released:
			case <-time.After(20 * time.Millisecond):
			}
		case formmodel.ProcessingPhaseValidate:
			heldDuringValidation = f.Child("doc").Value() == part && !part.Released()
		}
	})

	_, err := f.Process(context.Background(), formmodel.NewParams().AddFile("doc", part))
	require.NoError(t, err)
	assert.True(t, heldDuringValidation)

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("release did not return after processing")
	}
	assert.True(t, part.Released())
	assert.Nil(t, f.Child("doc").Value())
}
