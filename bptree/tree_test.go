package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/array"
)

func newTestTree(t *testing.T, leafSize int) *Tree {
	t.Helper()
	arena := array.NewArena(alloc.NewDefault())
	tr, err := New(arena, leafSize)
	require.NoError(t, err)
	return tr
}

func TestTreeAppendAndGet(t *testing.T) {
	tr := newTestTree(t, 8)
	for i := 0; i < 100; i++ {
		require.NoError(t, tr.Append(int64(i)))
	}
	require.Equal(t, 100, tr.Len())

	for i := 0; i < 100; i++ {
		v, err := tr.Get(i)
		require.NoError(t, err)
		require.EqualValues(t, i, v)
	}
}

func TestTreeSplitsAtLeafSize(t *testing.T) {
	tr := newTestTree(t, 4)
	for i := 0; i < 20; i++ {
		require.NoError(t, tr.Append(int64(i)))
	}
	require.Equal(t, 20, tr.Len())
	for i := 0; i < 20; i++ {
		v, err := tr.Get(i)
		require.NoError(t, err)
		require.EqualValues(t, i, v)
	}
}

func TestTreeInsertMiddle(t *testing.T) {
	tr := newTestTree(t, 4)
	for i := 0; i < 10; i++ {
		require.NoError(t, tr.Append(int64(i)))
	}
	require.NoError(t, tr.Insert(3, 999))

	v, err := tr.Get(3)
	require.NoError(t, err)
	require.EqualValues(t, 999, v)

	v, err = tr.Get(4)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)
	require.Equal(t, 11, tr.Len())
}

func TestTreeErase(t *testing.T) {
	tr := newTestTree(t, 4)
	for i := 0; i < 30; i++ {
		require.NoError(t, tr.Append(int64(i)))
	}
	require.NoError(t, tr.Erase(10))
	require.Equal(t, 29, tr.Len())

	v, err := tr.Get(10)
	require.NoError(t, err)
	require.EqualValues(t, 11, v)
}

func TestLoadTreeRoundTrip(t *testing.T) {
	backing := alloc.NewDefault()
	arena := array.NewArena(backing)
	tr, err := New(arena, 4)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.NoError(t, tr.Append(int64(i*7)))
	}
	require.NoError(t, tr.Insert(10, 999))
	require.NoError(t, tr.Erase(3))

	rootRef := tr.RootRef()

	// A fresh arena over the same allocator stands in for "close and
	// reopen": nothing but the persisted ref and bytes carries over.
	reopened := array.NewArena(backing)
	loaded, err := LoadTree(reopened, rootRef, 4)
	require.NoError(t, err)
	require.Equal(t, tr.Len(), loaded.Len())

	for i := 0; i < tr.Len(); i++ {
		want, err := tr.Get(i)
		require.NoError(t, err)
		got, err := loaded.Get(i)
		require.NoError(t, err)
		require.Equal(t, want, got, "row %d", i)
	}

	// The reloaded tree is independently writable and persists through
	// the same allocator.
	require.NoError(t, loaded.Set(0, 424242))
	v, err := loaded.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 424242, v)
}

type recordingHandler struct{ seen []int64 }

func (r *recordingHandler) EraseElement(v int64) error {
	r.seen = append(r.seen, v)
	return nil
}

func TestTreeEraseInvokesHandler(t *testing.T) {
	tr := newTestTree(t, 8)
	h := &recordingHandler{}
	tr.SetEraseHandler(h)

	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Append(int64(i*10)))
	}
	require.NoError(t, tr.Erase(2))
	require.Equal(t, []int64{20}, h.seen)
}
