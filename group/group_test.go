package group

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/schema"
)

func TestGroupAddHasTableCount(t *testing.T) {
	g := New(alloc.NewDefault(), 16)
	require.True(t, g.IsEmpty())

	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "a"})
	_, err := g.AddTable("users", spec)
	require.NoError(t, err)

	require.True(t, g.HasTable("users"))
	require.Equal(t, 1, g.TableCount())
	require.False(t, g.IsEmpty())

	_, err = g.AddTable("users", spec)
	require.Error(t, err)
}

func TestGroupRemoveTableRejectsLinkTarget(t *testing.T) {
	g := New(alloc.NewDefault(), 16)

	tSpec := schema.New()
	tSpec.AddColumn(schema.Column{Type: schema.Int, Name: "v"})
	_, err := g.AddTable("T", tSpec)
	require.NoError(t, err)

	oSpec := schema.New()
	oSpec.AddColumn(schema.Column{Type: schema.Link, Name: "ref", TargetTable: "T"})
	_, err = g.AddTable("O", oSpec)
	require.NoError(t, err)

	err = g.RemoveTable("T")
	require.Error(t, err)

	require.NoError(t, g.RemoveTable("O"))
	require.NoError(t, g.RemoveTable("T"))
	require.True(t, g.IsEmpty())
}

// buildSampleGroup populates a users/posts pair through nothing but the
// public Group/Table API: a string, an int, and a link from posts back
// to its author.
func buildSampleGroup(t *testing.T) *Group {
	t.Helper()
	g := New(alloc.NewDefault(), 4)
	require.True(t, g.IsValid())

	userSpec := schema.New()
	userSpec.AddColumn(schema.Column{Type: schema.StringCol, Name: "name"})
	users, err := g.AddTable("users", userSpec)
	require.NoError(t, err)

	postSpec := schema.New()
	postSpec.AddColumn(schema.Column{Type: schema.Int, Name: "views"})
	postSpec.AddColumn(schema.Column{Type: schema.Link, Name: "author", TargetTable: "users"})
	posts, err := g.AddTable("posts", postSpec)
	require.NoError(t, err)

	for _, name := range []string{"ada", "grace"} {
		row, err := users.AddEmptyRow()
		require.NoError(t, err)
		sc, err := users.StringColumn(0)
		require.NoError(t, err)
		require.NoError(t, sc.Set(row, name))
	}

	for i, views := range []int64{10, 20, 30} {
		row, err := posts.AddEmptyRow()
		require.NoError(t, err)
		ic, err := posts.IntColumn(0)
		require.NoError(t, err)
		require.NoError(t, ic.Set(row, views))
		require.NoError(t, posts.SetLink(1, row, i%2))
	}
	return g
}

func requireSampleContent(t *testing.T, g *Group) {
	t.Helper()
	require.Equal(t, 2, g.TableCount())

	users, ok := g.TableByName("users")
	require.True(t, ok)
	sc, err := users.StringColumn(0)
	require.NoError(t, err)
	n0, err := sc.Get(0)
	require.NoError(t, err)
	require.Equal(t, "ada", n0)

	posts, ok := g.TableByName("posts")
	require.True(t, ok)
	require.Equal(t, 3, posts.Size())
	ic, err := posts.IntColumn(0)
	require.NoError(t, err)
	v, err := ic.Get(2)
	require.NoError(t, err)
	require.EqualValues(t, 30, v)

	target, isNull, err := posts.GetLink(1, 1)
	require.NoError(t, err)
	require.False(t, isNull)
	require.Equal(t, 1, target)

	// The backlink the original SetLink call maintained round-trips
	// too: users row 0 has two inbound links (rows 0 and 2).
	require.Equal(t, 2, users.InboundLinkCount("posts", 1, 0))
}

func TestGroupWriteToMemRoundTrip(t *testing.T) {
	g := buildSampleGroup(t)

	data, err := g.WriteToMem()
	require.NoError(t, err)

	reopened, err := OpenMem(data)
	require.NoError(t, err)
	require.True(t, reopened.IsValid())
	requireSampleContent(t, reopened)
}

func TestGroupWriteOpenFileRoundTrip(t *testing.T) {
	g := buildSampleGroup(t)
	path := filepath.Join(t.TempDir(), "group.embeddb")

	require.NoError(t, g.Write(path))

	reopened, err := Open(path, ModeReadWrite)
	require.NoError(t, err)
	require.True(t, reopened.IsValid())
	requireSampleContent(t, reopened)

	// Opening read-only against a file that does exist behaves the same
	// as read-write.
	reopenedRO, err := Open(path, ModeReadOnly)
	require.NoError(t, err)
	requireSampleContent(t, reopenedRO)
}

func TestGroupWriteToMemPreservesSearchIndex(t *testing.T) {
	g := New(alloc.NewDefault(), 4)
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.StringCol, Name: "name"})
	users, err := g.AddTable("users", spec)
	require.NoError(t, err)

	for _, name := range []string{"ada", "grace"} {
		row, err := users.AddEmptyRow()
		require.NoError(t, err)
		sc, err := users.StringColumn(0)
		require.NoError(t, err)
		require.NoError(t, sc.Set(row, name))
	}
	require.NoError(t, users.AddSearchIndex(0))

	data, err := g.WriteToMem()
	require.NoError(t, err)

	reopened, err := OpenMem(data)
	require.NoError(t, err)
	reopenedUsers, ok := reopened.TableByName("users")
	require.True(t, ok)

	row, err := reopenedUsers.FindFirstIndexedString(0, "grace")
	require.NoError(t, err)
	require.Equal(t, 1, row)
}

func TestGroupOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.embeddb")

	_, err := Open(path, ModeReadOnly)
	require.Error(t, err)

	fresh, err := Open(path, ModeReadWrite)
	require.NoError(t, err)
	require.True(t, fresh.IsEmpty())
	require.True(t, fresh.IsValid())
}

func TestGroupRemoveTableSwapsLastIntoSlot(t *testing.T) {
	g := New(alloc.NewDefault(), 16)
	spec := schema.New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := g.AddTable(name, spec)
		require.NoError(t, err)
	}
	require.NoError(t, g.RemoveTable("a"))
	require.Equal(t, 2, g.TableCount())
	require.True(t, g.HasTable("b"))
	require.True(t, g.HasTable("c"))
	require.False(t, g.HasTable("a"))
}
