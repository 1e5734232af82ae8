package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/schema"
	"github.com/tidwell-embeddb/embeddb/table"
)

type testResolver struct {
	tables map[string]*table.Table
}

func (r *testResolver) TableByName(name string) (*table.Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

func newArena() *array.Arena { return array.NewArena(alloc.NewDefault()) }

// TestLinkViewScenarioS3 exercises spec.md scenario S3.
func TestLinkViewScenarioS3(t *testing.T) {
	resolver := &testResolver{tables: map[string]*table.Table{}}

	tSpec := schema.New()
	tSpec.AddColumn(schema.Column{Type: schema.Int, Name: "value"})
	tTable, err := table.New("T", tSpec, newArena(), 16, resolver)
	require.NoError(t, err)
	resolver.tables["T"] = tTable
	for i := 0; i < 3; i++ {
		_, err := tTable.AddEmptyRow()
		require.NoError(t, err)
	}

	oSpec := schema.New()
	oSpec.AddColumn(schema.Column{Type: schema.LinkList, Name: "list", TargetTable: "T"})
	oTable, err := table.New("O", oSpec, newArena(), 16, resolver)
	require.NoError(t, err)
	resolver.tables["O"] = oTable
	row, err := oTable.AddEmptyRow()
	require.NoError(t, err)

	lv := NewLinkView(oTable, 0, row)
	for _, target := range []int{2, 0, 1} {
		require.NoError(t, lv.Add(target))
	}
	all, err := lv.All()
	require.NoError(t, err)
	require.Equal(t, []int{2, 0, 1}, all)

	require.NoError(t, lv.Swap(0, 2))
	all, _ = lv.All()
	require.Equal(t, []int{1, 0, 2}, all)

	require.NoError(t, lv.Move(0, 1))
	all, _ = lv.All()
	require.Equal(t, []int{0, 1, 2}, all)

	require.NoError(t, lv.Remove(1))
	all, _ = lv.All()
	require.Equal(t, []int{0, 2}, all)

	require.NoError(t, lv.Clear())
	all, _ = lv.All()
	require.Empty(t, all)
}

func TestTableViewSortFindAllRemoveClear(t *testing.T) {
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "v"})
	tbl, err := table.New("t", spec, newArena(), 16, nil)
	require.NoError(t, err)

	ic, err := tbl.IntColumn(0)
	require.NoError(t, err)
	values := []int64{30, 10, 20}
	for _, v := range values {
		row, err := tbl.AddEmptyRow()
		require.NoError(t, err)
		require.NoError(t, ic.Set(row, v))
	}

	tv := NewTableView(tbl, nil, []int{0, 1, 2}, nil)
	require.NoError(t, tv.Sort(0, true))

	for i, want := range []int64{10, 20, 30} {
		got, err := tv.Get(i, 0)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	matches, err := tv.FindAll(0, int64(20))
	require.NoError(t, err)
	require.Equal(t, 1, matches.Len())

	require.NoError(t, tv.Remove(0))
	require.Equal(t, 2, tv.Len())
	require.Equal(t, 2, tbl.Size())

	require.NoError(t, tv.Clear())
	require.Equal(t, 0, tv.Len())
	require.Equal(t, 0, tbl.Size())
}
