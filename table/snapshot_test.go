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

	"github.com/tidwell-embeddb/embeddb/column"
	"github.com/tidwell-embeddb/embeddb/schema"
)

func TestTableSnapshotRestoreRoundTrip(t *testing.T) {
	arena := newArena()
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "age"})
	spec.AddColumn(schema.Column{Type: schema.StringCol, Name: "name"})
	spec.AddColumn(schema.Column{Type: schema.Bool, Name: "active"})
	spec.AddColumn(schema.Column{Type: schema.Binary, Name: "blob"})

	src, err := New("people", spec, arena, 4, nil)
	require.NoError(t, err)

	for i, name := range []string{"ada", "grace", "linus"} {
		row, err := src.AddEmptyRow()
		require.NoError(t, err)

		ic, err := src.IntColumn(0)
		require.NoError(t, err)
		require.NoError(t, ic.Set(row, int64(i*10)))

		sc, err := src.StringColumn(1)
		require.NoError(t, err)
		require.NoError(t, sc.Set(row, name))

		bc, _ := src.Column(3)
		require.NoError(t, bc.(*column.BinaryColumn).Set(row, []byte(name)))
	}

	snap, err := src.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 3, len(snap.Rows))

	// Restore into a fresh table sharing nothing with src but its spec
	// shape, the same way Group.OpenMem restores over a freshly built
	// table.Table.
	dstArena := newArena()
	dst, err := New("people", spec.Clone(), dstArena, 4, nil)
	require.NoError(t, err)
	for range snap.Rows {
		_, err := dst.AddEmptyRow()
		require.NoError(t, err)
	}
	require.NoError(t, dst.RestoreRows(snap))

	for row, name := range []string{"ada", "grace", "linus"} {
		ic, err := dst.IntColumn(0)
		require.NoError(t, err)
		v, err := ic.Get(row)
		require.NoError(t, err)
		require.EqualValues(t, row*10, v)

		sc, err := dst.StringColumn(1)
		require.NoError(t, err)
		got, err := sc.Get(row)
		require.NoError(t, err)
		require.Equal(t, name, got)

		bc, _ := dst.Column(3)
		blob, err := bc.(*column.BinaryColumn).Get(row)
		require.NoError(t, err)
		require.Equal(t, []byte(name), blob)
	}
}

func TestTableSnapshotLinksRoundTrip(t *testing.T) {
	arena := newArena()
	userSpec := schema.New()
	userSpec.AddColumn(schema.Column{Type: schema.Int, Name: "id"})
	resolver := &testResolver{tables: map[string]*Table{}}

	users, err := New("users", userSpec, arena, 4, resolver)
	require.NoError(t, err)
	resolver.tables["users"] = users
	for i := 0; i < 2; i++ {
		row, err := users.AddEmptyRow()
		require.NoError(t, err)
		ic, _ := users.IntColumn(0)
		require.NoError(t, ic.Set(row, int64(i)))
	}

	postSpec := schema.New()
	postSpec.AddColumn(schema.Column{Type: schema.Link, Name: "author", TargetTable: "users"})
	posts, err := New("posts", postSpec, arena, 4, resolver)
	require.NoError(t, err)
	resolver.tables["posts"] = posts

	row, err := posts.AddEmptyRow()
	require.NoError(t, err)
	require.NoError(t, posts.SetLink(0, row, 1))

	snap, err := posts.Snapshot()
	require.NoError(t, err)

	dstResolver := &testResolver{tables: map[string]*Table{}}
	dstArena := newArena()
	dstUsers, err := New("users", userSpec.Clone(), dstArena, 4, dstResolver)
	require.NoError(t, err)
	dstResolver.tables["users"] = dstUsers
	for i := 0; i < 2; i++ {
		_, err := dstUsers.AddEmptyRow()
		require.NoError(t, err)
	}

	dstPosts, err := New("posts", postSpec.Clone(), dstArena, 4, dstResolver)
	require.NoError(t, err)
	dstResolver.tables["posts"] = dstPosts
	_, err = dstPosts.AddEmptyRow()
	require.NoError(t, err)

	require.NoError(t, dstPosts.RestoreRows(snap))

	target, isNull, err := dstPosts.GetLink(0, 0)
	require.NoError(t, err)
	require.False(t, isNull)
	require.Equal(t, 1, target)
	require.Equal(t, 1, dstUsers.InboundLinkCount("posts", 0, 1))
}
