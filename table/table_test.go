// Copyright 2026 The EmbedDB Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// testResolver is a minimal group.Group stand-in: a name -> *Table map
// satisfying Resolver, enough to exercise cross-table backlink
// maintenance without pulling in the group package.
type testResolver struct {
	tables map[string]*Table
}

func (r *testResolver) TableByName(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

func newArena() *array.Arena { return array.NewArena(alloc.NewDefault()) }

// TestTableLinkBacklinkScenarioS2 exercises spec.md scenario S2.
func TestTableLinkBacklinkScenarioS2(t *testing.T) {
	resolver := &testResolver{tables: map[string]*Table{}}

	tSpec := schema.New()
	tSpec.AddColumn(schema.Column{Type: schema.Int, Name: "value"})
	tTable, err := New("T", tSpec, newArena(), 16, resolver)
	require.NoError(t, err)
	resolver.tables["T"] = tTable

	oSpec := schema.New()
	oSpec.AddColumn(schema.Column{Type: schema.Link, Name: "ref", TargetTable: "T"})
	oTable, err := New("O", oSpec, newArena(), 16, resolver)
	require.NoError(t, err)
	resolver.tables["O"] = oTable

	for i := 0; i < 3; i++ {
		row, err := tTable.AddEmptyRow()
		require.NoError(t, err)
		ic, err := tTable.IntColumn(0)
		require.NoError(t, err)
		require.NoError(t, ic.Set(row, int64(i)))
	}

	links := []int{-1, 0, 1, 0}
	for _, target := range links {
		row, err := oTable.AddEmptyRow()
		require.NoError(t, err)
		if target >= 0 {
			require.NoError(t, oTable.SetLink(0, row, target))
		}
	}

	require.Equal(t, 1, tTable.InboundLinkCount("O", 0, 1))
	require.Equal(t, 2, tTable.InboundLinkCount("O", 0, 0))

	require.NoError(t, tTable.MoveLastOver(0))

	wantLinks := []int{-1, 2, 1, 2}
	for row, want := range wantLinks {
		target, isNull, err := oTable.GetLink(0, row)
		require.NoError(t, err)
		if want < 0 {
			require.True(t, isNull)
			continue
		}
		require.False(t, isNull)
		require.Equal(t, want, target)
	}

	require.Equal(t, 1, tTable.InboundLinkCount("O", 0, 1))
	require.Equal(t, 2, tTable.InboundLinkCount("O", 0, 2))
}

func TestTableAddRemoveColumn(t *testing.T) {
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "a"})
	tbl, err := New("t", spec, newArena(), 16, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := tbl.AddEmptyRow()
		require.NoError(t, err)
	}

	idx, err := tbl.AddColumn(schema.Column{Type: schema.StringCol, Name: "b"})
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	sc, err := tbl.StringColumn(idx)
	require.NoError(t, err)
	require.Equal(t, 5, sc.Size())

	require.NoError(t, tbl.RemoveColumn(0))
	require.Equal(t, 5, tbl.Size())
}

func TestTableRowAccessorSurvivesInsertAndDetachesOnErase(t *testing.T) {
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "a"})
	tbl, err := New("t", spec, newArena(), 16, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := tbl.AddEmptyRow()
		require.NoError(t, err)
	}

	row := tbl.NewRow(1)
	require.NoError(t, tbl.InsertEmptyRow(0))
	require.Equal(t, 2, row.Index())

	require.NoError(t, tbl.MoveLastOver(2))
	require.False(t, row.IsAttached())
}

func TestTableClearDetachesEverything(t *testing.T) {
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "a"})
	tbl, err := New("t", spec, newArena(), 16, nil)
	require.NoError(t, err)
	_, err = tbl.AddEmptyRow()
	require.NoError(t, err)

	row := tbl.NewRow(0)
	require.NoError(t, tbl.Clear())
	require.False(t, row.IsAttached())
	require.Equal(t, 0, tbl.Size())
}

func TestTableSearchIndexAndOptimize(t *testing.T) {
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.StringCol, Name: "s"})
	tbl, err := New("t", spec, newArena(), 16, nil)
	require.NoError(t, err)

	sc, err := tbl.StringColumn(0)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		row, err := tbl.AddEmptyRow()
		require.NoError(t, err)
		require.NoError(t, sc.Set(row, "same"))
	}
	require.NoError(t, tbl.AddSearchIndex(0))
	got, err := tbl.FindFirstIndexedString(0, "same")
	require.NoError(t, err)
	require.Equal(t, 0, got)

	require.NoError(t, tbl.Optimize(0))
	c, err := tbl.Column(0)
	require.NoError(t, err)
	enum, ok := c.(enumLike)
	require.True(t, ok)
	require.Len(t, enum.Keys(), 1)
}

// enumLike avoids importing column's concrete EnumStringColumn type just
// for this assertion; Keys() is the one method the test needs.
type enumLike interface {
	Keys() []string
}
