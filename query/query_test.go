package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/schema"
	"github.com/tidwell-embeddb/embeddb/table"
)

func newArena() *array.Arena { return array.NewArena(alloc.NewDefault()) }

func newIntTable(t *testing.T, n int) *table.Table {
	t.Helper()
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "v"})
	tbl, err := table.New("t", spec, newArena(), 16, nil)
	require.NoError(t, err)
	ic, err := tbl.IntColumn(0)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		row, err := tbl.AddEmptyRow()
		require.NoError(t, err)
		require.NoError(t, ic.Set(row, int64(i)))
	}
	return tbl
}

func TestQueryEqualAndAggregates(t *testing.T) {
	tbl := newIntTable(t, 10)

	q := New(tbl).GreaterEqual(0, int64(5))
	rows, err := q.FindAll(0, -1, -1)
	require.NoError(t, err)
	require.Equal(t, []int{5, 6, 7, 8, 9}, rows)

	sum, err := q.Sum(0)
	require.NoError(t, err)
	require.EqualValues(t, 35, sum)

	min, cnt, err := q.Min(0)
	require.NoError(t, err)
	require.Equal(t, 5, cnt)
	require.EqualValues(t, 5, min)

	max, _, err := q.Max(0)
	require.NoError(t, err)
	require.EqualValues(t, 9, max)

	avg, _, err := q.Average(0)
	require.NoError(t, err)
	require.InDelta(t, 7.0, avg, 0.0001)
}

func TestQueryBetweenAndOr(t *testing.T) {
	tbl := newIntTable(t, 10)

	q := New(tbl).Less(0, int64(2)).Or().Greater(0, int64(7))
	rows, err := q.FindAll(0, -1, -1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 8, 9}, rows)

	q2 := New(tbl).Between(0, int64(3), int64(5))
	rows2, err := q2.FindAll(0, -1, -1)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, 5}, rows2)
}

func TestQueryAggregateOverEmptyRangeReturnsZero(t *testing.T) {
	tbl := newIntTable(t, 10)
	q := New(tbl).Greater(0, int64(1000))

	sum, err := q.Sum(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, sum)

	_, cnt, err := q.Min(0)
	require.NoError(t, err)
	require.Equal(t, 0, cnt)
}

func TestQueryRemoveDeletesMatches(t *testing.T) {
	tbl := newIntTable(t, 10)
	q := New(tbl).GreaterEqual(0, int64(8))
	n, err := q.Remove()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 8, tbl.Size())
}

func TestQueryRunParallelMatchesSequential(t *testing.T) {
	tbl := newIntTable(t, 1000)
	seq, err := New(tbl).GreaterEqual(0, int64(500)).FindAll(0, -1, -1)
	require.NoError(t, err)

	par, err := New(tbl).GreaterEqual(0, int64(500)).RunParallel(4, -1)
	require.NoError(t, err)
	require.Equal(t, seq, par)
}

func TestQueryFingerprintStable(t *testing.T) {
	tbl := newIntTable(t, 1)
	a := New(tbl).Equal(0, int64(3))
	b := New(tbl).Equal(0, int64(3))
	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fa, fb)
}
