package formmodel_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/datatype"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
)

func addressClass(t *testing.T) *formmodel.ClassDefinition {
	t.Helper()
	c := formmodel.NewClassDefinition("address")
	require.NoError(t, c.AddChild(formmodel.NewFieldDefinition("street", nil)))
	require.NoError(t, c.AddChild(formmodel.NewFieldDefinition("city", nil)))
	return c
}

func childIDs(defs []formmodel.Definition) []string {
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID()
	}
	return ids
}

func TestResolve_ClassExpansion(t *testing.T) {
	t.Parallel()

	t.Run("splices class children in place of the reference", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("f")
		require.NoError(t, def.AddChild(addressClass(t)))
		home := formmodel.NewStructDefinition("home")
		require.NoError(t, home.AddChild(formmodel.NewFieldDefinition("name", nil)))
		require.NoError(t, home.AddChild(formmodel.NewClassReference("address")))
		require.NoError(t, home.AddChild(formmodel.NewFieldDefinition("zip", nil)))
		require.NoError(t, def.AddChild(home))

		require.NoError(t, def.Resolve())

		assert.Equal(t, []string{"home"}, childIDs(def.Children()))
		assert.Equal(t, []string{"name", "street", "city", "zip"}, childIDs(home.Children()))
		_, ok := def.Class("address")
		assert.True(t, ok)

		f, err := def.NewForm()
		require.NoError(t, err)
		require.NotNil(t, f.LookupFullyQualified("f.home.city"))
	})

	t.Run("expands nested references", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		person := formmodel.NewClassDefinition("person")
		require.NoError(t, person.AddChild(formmodel.NewFieldDefinition("name", nil)))
		require.NoError(t, person.AddChild(formmodel.NewClassReference("address")))
		require.NoError(t, def.RegisterClass(person))
		require.NoError(t, def.RegisterClass(addressClass(t)))
		require.NoError(t, def.AddChild(formmodel.NewClassReference("person")))

		require.NoError(t, def.Resolve())
		assert.Equal(t, []string{"name", "street", "city"}, childIDs(def.Children()))
	})

	t.Run("resolves library classes by prefix", func(t *testing.T) {
		t.Parallel()

		lib := formmodel.NewLibrary("common")
		require.NoError(t, lib.AddClass(addressClass(t)))

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.Import("c", lib))
		require.NoError(t, def.AddChild(formmodel.NewClassReference("c:address")))

		require.NoError(t, def.Resolve())
		assert.Equal(t, []string{"street", "city"}, childIDs(def.Children()))
	})

	t.Run("detects id clashes introduced by expansion", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.RegisterClass(addressClass(t)))
		require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("city", nil)))
		require.NoError(t, def.AddChild(formmodel.NewClassReference("address")))

		require.ErrorIs(t, def.Resolve(), formmodel.ErrDuplicateID)
	})
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown class", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(formmodel.NewClassReference("missing")))
		require.ErrorIs(t, def.Resolve(), formmodel.ErrUnknownClass)
		assert.False(t, def.IsResolved())
	})

	t.Run("reference to a non-class", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(formmodel.NewFieldDefinition("a", nil)))
		s := formmodel.NewStructDefinition("s")
		require.NoError(t, s.AddChild(formmodel.NewClassReference("a")))
		require.NoError(t, def.AddChild(s))
		require.ErrorIs(t, def.Resolve(), formmodel.ErrNotAClass)
	})

	t.Run("unknown library prefix", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.AddChild(formmodel.NewClassReference("x:address")))
		require.ErrorIs(t, def.Resolve(), formmodel.ErrUnknownClass)
	})

	t.Run("class nested below the form", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		s := formmodel.NewStructDefinition("s")
		require.NoError(t, s.AddChild(addressClass(t)))
		require.NoError(t, def.AddChild(s))
		require.ErrorIs(t, def.Resolve(), formmodel.ErrMisplacedClass)
	})

	t.Run("errors in unused classes surface", func(t *testing.T) {
		t.Parallel()

		def := formmodel.NewFormDefinition("")
		broken := formmodel.NewClassDefinition("broken")
		require.NoError(t, broken.AddChild(formmodel.NewClassReference("missing")))
		require.NoError(t, def.RegisterClass(broken))
		require.ErrorIs(t, def.Resolve(), formmodel.ErrUnknownClass)
	})
}

// cardLibrary builds a library whose "card" class nests its own "extra"
// class and a union-recursive "node" class.
func cardLibrary(t *testing.T) *formmodel.Library {
	t.Helper()

	lib := formmodel.NewLibrary("widgets")
	extra := formmodel.NewClassDefinition("extra")
	require.NoError(t, extra.AddChild(formmodel.NewFieldDefinition("fromLibrary", nil)))
	require.NoError(t, lib.AddClass(extra))

	card := formmodel.NewClassDefinition("card")
	body := formmodel.NewStructDefinition("body")
	require.NoError(t, body.AddChild(formmodel.NewClassReference("extra")))
	require.NoError(t, card.AddChild(body))
	require.NoError(t, lib.AddClass(card))

	node := formmodel.NewClassDefinition("node")
	require.NoError(t, node.AddChild(formmodel.NewFieldDefinition("kind", datatype.String())))
	more := formmodel.NewUnionDefinition("more", "kind")
	leaf := formmodel.NewStructDefinition("leaf")
	require.NoError(t, leaf.AddChild(formmodel.NewFieldDefinition("label", nil)))
	branch := formmodel.NewStructDefinition("branch")
	require.NoError(t, branch.AddChild(formmodel.NewClassReference("node")))
	require.NoError(t, more.AddChild(leaf))
	require.NoError(t, more.AddChild(branch))
	require.NoError(t, more.SetDefaultCase("leaf"))
	require.NoError(t, node.AddChild(more))
	require.NoError(t, lib.AddClass(node))
	return lib
}

// cardForm imports lib and declares its own "extra" class holding field.
func cardForm(t *testing.T, lib *formmodel.Library, field string) *formmodel.FormDefinition {
	t.Helper()

	def := formmodel.NewFormDefinition("")
	extra := formmodel.NewClassDefinition("extra")
	require.NoError(t, extra.AddChild(formmodel.NewFieldDefinition(field, nil)))
	require.NoError(t, def.RegisterClass(extra))
	require.NoError(t, def.Import("w", lib))
	require.NoError(t, def.AddChild(formmodel.NewClassReference("w:card")))
	own := formmodel.NewStructDefinition("own")
	require.NoError(t, own.AddChild(formmodel.NewClassReference("extra")))
	require.NoError(t, def.AddChild(own))
	tree := formmodel.NewStructDefinition("tree")
	require.NoError(t, tree.AddChild(formmodel.NewClassReference("w:node")))
	require.NoError(t, def.AddChild(tree))
	return def
}

func structChildIDs(t *testing.T, def *formmodel.FormDefinition, id string) []string {
	t.Helper()
	d, ok := def.Child(id)
	require.True(t, ok, id)
	return childIDs(d.(*formmodel.StructDefinition).Children())
}

func TestResolve_Libraries(t *testing.T) {
	t.Parallel()

	t.Run("unprefixed references stay inside the library", func(t *testing.T) {
		t.Parallel()

		lib := cardLibrary(t)
		a := cardForm(t, lib, "fromA")
		b := cardForm(t, lib, "fromB")
		require.NoError(t, a.Resolve())
		require.NoError(t, b.Resolve())

		assert.Equal(t, []string{"fromLibrary"}, structChildIDs(t, a, "body"))
		assert.Equal(t, []string{"fromLibrary"}, structChildIDs(t, b, "body"))
		assert.Equal(t, []string{"fromA"}, structChildIDs(t, a, "own"))
		assert.Equal(t, []string{"fromB"}, structChildIDs(t, b, "own"))
	})

	t.Run("form classes are not visible to library classes", func(t *testing.T) {
		t.Parallel()

		lib := formmodel.NewLibrary("widgets")
		card := formmodel.NewClassDefinition("card")
		require.NoError(t, card.AddChild(formmodel.NewClassReference("extra")))
		require.NoError(t, lib.AddClass(card))

		def := formmodel.NewFormDefinition("")
		extra := formmodel.NewClassDefinition("extra")
		require.NoError(t, extra.AddChild(formmodel.NewFieldDefinition("fromForm", nil)))
		require.NoError(t, def.RegisterClass(extra))
		require.NoError(t, def.Import("w", lib))
		require.NoError(t, def.AddChild(formmodel.NewClassReference("w:card")))

		require.ErrorIs(t, def.Resolve(), formmodel.ErrUnknownClass)
		assert.False(t, lib.IsResolved())
	})

	t.Run("prefixed references inside a library fail", func(t *testing.T) {
		t.Parallel()

		lib := formmodel.NewLibrary("widgets")
		card := formmodel.NewClassDefinition("card")
		require.NoError(t, card.AddChild(formmodel.NewClassReference("x:extra")))
		require.NoError(t, lib.AddClass(card))
		require.ErrorIs(t, lib.Resolve(), formmodel.ErrUnknownClass)
	})

	t.Run("resolved libraries are locked", func(t *testing.T) {
		t.Parallel()

		lib := cardLibrary(t)
		require.NoError(t, lib.Resolve())
		require.NoError(t, lib.Resolve())
		assert.True(t, lib.IsResolved())
		require.ErrorIs(t, lib.AddClass(formmodel.NewClassDefinition("late")), formmodel.ErrImmutable)
	})

	t.Run("concurrent form builds share one library", func(t *testing.T) {
		t.Parallel()

		lib := cardLibrary(t)
		const builds = 8
		defs := make([]*formmodel.FormDefinition, builds)
		for i := range defs {
			defs[i] = cardForm(t, lib, "own")
		}

		errs := make([]error, builds)
		var wg sync.WaitGroup
		for i := range defs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = defs[i].Resolve()
			}()
		}
		wg.Wait()

		for i, def := range defs {
			require.NoError(t, errs[i])
			assert.Equal(t, []string{"fromLibrary"}, structChildIDs(t, def, "body"))

			f, err := def.NewForm()
			require.NoError(t, err)
			require.NoError(t, f.LookupFullyQualified("tree.kind").SetValue("branch"))
			assert.NotNil(t, f.LookupFullyQualified("tree.more.branch.more"))
		}
	})
}

func TestResolve_Cycles(t *testing.T) {
	t.Parallel()

	t.Run("direct recursion fails", func(t *testing.T) {
		t.Parallel()

		node := formmodel.NewClassDefinition("node")
		child := formmodel.NewStructDefinition("child")
		require.NoError(t, child.AddChild(formmodel.NewClassReference("node")))
		require.NoError(t, node.AddChild(child))

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.RegisterClass(node))
		require.NoError(t, def.AddChild(formmodel.NewClassReference("node")))

		err := def.Resolve()
		require.ErrorIs(t, err, formmodel.ErrResolutionCycle)
		var cycle *formmodel.CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"node", "child", "node"}, cycle.Chain)
	})

	t.Run("mutual recursion fails", func(t *testing.T) {
		t.Parallel()

		a := formmodel.NewClassDefinition("a")
		require.NoError(t, a.AddChild(formmodel.NewClassReference("b")))
		b := formmodel.NewClassDefinition("b")
		require.NoError(t, b.AddChild(formmodel.NewClassReference("a")))

		def := formmodel.NewFormDefinition("")
		require.NoError(t, def.RegisterClass(a))
		require.NoError(t, def.RegisterClass(b))
		require.ErrorIs(t, def.Resolve(), formmodel.ErrResolutionCycle)
	})

	t.Run("recursion through a union is allowed", func(t *testing.T) {
		t.Parallel()

		def := treeDefinition(t)
		require.NoError(t, def.Resolve())

		f, err := def.NewForm()
		require.NoError(t, err)

		root := f.Child("root").(*formmodel.Struct)
		u := root.Child("more").(*formmodel.Union)
		assert.Empty(t, u.Children(), "cases are created on demand")

		require.NoError(t, root.Child("kind").SetValue("branch"))
		branch := u.ActiveCase()
		require.NotNil(t, branch)
		assert.Equal(t, "branch", branch.ID())

		nested := f.LookupFullyQualified("root.more.branch.more")
		require.NotNil(t, nested)
		assert.Empty(t, nested.(*formmodel.Union).Children())
	})
}

// treeDefinition builds a form whose "node" class contains itself below a union.
func treeDefinition(t *testing.T) *formmodel.FormDefinition {
	t.Helper()

	node := formmodel.NewClassDefinition("node")
	kind := formmodel.NewFieldDefinition("kind", datatype.String())
	require.NoError(t, node.AddChild(kind))

	more := formmodel.NewUnionDefinition("more", "kind")
	leaf := formmodel.NewStructDefinition("leaf")
	require.NoError(t, leaf.AddChild(formmodel.NewFieldDefinition("label", nil)))
	branch := formmodel.NewStructDefinition("branch")
	require.NoError(t, branch.AddChild(formmodel.NewClassReference("node")))
	require.NoError(t, more.AddChild(leaf))
	require.NoError(t, more.AddChild(branch))
	require.NoError(t, more.SetDefaultCase("leaf"))
	require.NoError(t, node.AddChild(more))

	def := formmodel.NewFormDefinition("")
	require.NoError(t, def.RegisterClass(node))
	root := formmodel.NewStructDefinition("root")
	require.NoError(t, root.AddChild(formmodel.NewClassReference("node")))
	require.NoError(t, def.AddChild(root))
	return def
}
