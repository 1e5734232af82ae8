package column

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/array"
)

func newArena() *array.Arena { return array.NewArena(alloc.NewDefault()) }

// TestIntColumnScenarioS1 exercises spec.md scenario S1.
func TestIntColumnScenarioS1(t *testing.T) {
	c, err := NewIntColumn(newArena(), 16, false)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, c.tree.Append(int64(i)))
	}

	require.EqualValues(t, 4950, c.Sum(0, c.Size(), -1))
	min, ok := c.Min(0, c.Size())
	require.True(t, ok)
	require.EqualValues(t, 0, min)
	max, ok := c.Max(0, c.Size())
	require.True(t, ok)
	require.EqualValues(t, 99, max)
	require.Equal(t, 42, c.FindFirst(42, 0, c.Size()))

	require.NoError(t, c.MoveLastOver(42))
	require.Equal(t, -1, c.FindFirst(42, 0, c.Size()))
	require.Equal(t, 42, c.FindFirst(99, 0, c.Size()))
	require.Equal(t, 99, c.Size())
}

func TestStringColumnShortToLongUpgrade(t *testing.T) {
	c, err := NewStringColumn(newArena(), 16, false)
	require.NoError(t, err)

	require.NoError(t, c.Insert(0, "short"))
	require.False(t, c.isLong)

	require.NoError(t, c.Insert(1, "this value is deliberately longer than the short slot width"))
	require.True(t, c.isLong)

	v0, err := c.Get(0)
	require.NoError(t, err)
	require.Equal(t, "short", v0)

	v1, err := c.Get(1)
	require.NoError(t, err)
	require.Equal(t, "this value is deliberately longer than the short slot width", v1)
}

func TestStringColumnOptimizeCollapsesAllEqual(t *testing.T) {
	c, err := NewStringColumn(newArena(), 16, false)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, c.Insert(i, "same"))
	}
	enum, ok, err := c.Optimize(newArena(), 16)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, enum.Keys(), 1)
	require.Equal(t, 0, enum.FindFirst("same", 0, enum.Size()))
}

// TestSearchIndexScenarioS5 exercises spec.md scenario S5 (abridged to
// 50 rows to keep the test fast).
func TestSearchIndexScenarioS5(t *testing.T) {
	idx := NewIndexColumn()
	const n = 50
	keyFor := func(i int) string { return "key-" + string(rune('a'+i%26)) + string(rune('0'+i)) }

	for i := 0; i < n; i++ {
		idx.InsertString(keyFor(i), i)
	}
	for i := 0; i < n; i++ {
		require.Equal(t, i, idx.FindFirstString(keyFor(i)))
	}

	removed := 10
	idx.EraseString(keyFor(removed), removed)
	idx.OnRowErased(removed)

	require.Equal(t, -1, idx.FindFirstString(keyFor(removed)))
	require.Equal(t, removed, idx.FindFirstString(keyFor(removed+1)))
}

func TestBacklinkColumnAddRemoveCount(t *testing.T) {
	b := NewBacklinkColumn()
	require.NoError(t, b.InsertDefault(0))
	require.NoError(t, b.InsertDefault(1))

	ref := BacklinkRef{OriginTable: "o", OriginColumn: 0, OriginRow: 3}
	b.Add(1, ref)
	require.Equal(t, 1, b.Count(1))

	b.Remove(1, ref)
	require.Equal(t, 0, b.Count(1))
}
