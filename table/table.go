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

// Package table implements Table: a Spec bound to a column set, with
// cached column accessors and a registry of row/subtable/linkview
// accessors that survive (or are explicitly detached by) concurrent
// structural change (spec §4.5).
package table

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/column"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// Resolver looks up a sibling table by name, giving Table the reach it
// needs to maintain backlinks across the Group without importing the
// group package (group.Group implements Resolver structurally).
type Resolver interface {
	TableByName(name string) (*Table, bool)
}

var (
	nestedMu       sync.Mutex
	nestedByRef    = map[array.Ref]*Table{}
)

// Table binds a Spec to a concrete column set (spec §4.5).
type Table struct {
	Name string

	spec     *schema.Spec
	columns  []column.Column
	indices  map[int]*column.IndexColumn
	arena    *array.Arena
	leafSize int
	resolver Resolver

	size int
	ref  array.Ref

	backlinks map[backlinkKey]*column.BacklinkColumn

	mu        sync.Mutex
	refCount  int
	onRelease func()

	registry registry
	log      *logrus.Entry
}

// New constructs a table bound to spec, with an empty column set
// already materialized from it.
func New(name string, spec *schema.Spec, arena *array.Arena, leafSize int, resolver Resolver) (*Table, error) {
	ref, err := arena.Allocator().Alloc(8)
	if err != nil {
		return nil, err
	}
	t := &Table{
		Name:     name,
		spec:     spec,
		indices:  make(map[int]*column.IndexColumn),
		arena:    arena,
		leafSize: leafSize,
		resolver: resolver,
		ref:      ref,
		log:      logrus.WithField("component", "table").WithField("table", name),
	}
	for _, c := range spec.Columns {
		col, err := t.buildColumn(c)
		if err != nil {
			return nil, err
		}
		t.columns = append(t.columns, col)
	}
	nestedMu.Lock()
	nestedByRef[ref] = t
	nestedMu.Unlock()
	return t, nil
}

func (t *Table) buildColumn(c schema.Column) (column.Column, error) {
	switch c.Type {
	case schema.Int:
		return column.NewIntColumn(t.arena, t.leafSize, c.Nullable)
	case schema.Bool:
		return column.NewBoolColumn(t.arena, t.leafSize, c.Nullable)
	case schema.Date:
		return column.NewDateColumn(t.arena, t.leafSize, c.Nullable)
	case schema.StringCol:
		return column.NewStringColumn(t.arena, t.leafSize, c.Nullable)
	case schema.Binary:
		return column.NewBinaryColumn(t.arena, t.leafSize)
	case schema.Subtable:
		return column.NewSubtableColumn(t.arena, t.leafSize, c.SubSpec, t)
	case schema.Mixed:
		return column.NewMixedColumn(t.arena, t.leafSize, c.SubSpec, t)
	case schema.Link:
		return column.NewLinkColumn(t.arena, t.leafSize, c.LinkKind)
	case schema.LinkList:
		return column.NewLinkListColumn(t.arena, t.leafSize, c.LinkKind)
	case schema.BackLink:
		return column.NewBacklinkColumn(), nil
	default:
		return nil, errs.ErrPrecondition.New("unknown column type")
	}
}

// --- column.TableFactory / column.NestedTable, for subtable & mixed cells ---

// NewTable materializes a fresh nested table sharing this table's
// arena, used when a subtable/mixed cell is touched for the first
// time.
func (t *Table) NewTable(spec *schema.Spec) (column.NestedTable, error) {
	return New("", spec, t.arena, t.leafSize, nil)
}

// LoadTable returns the live nested table previously created at ref.
// Real on-disk re-hydration would decode the table's top-array bytes
// through the allocator; this simplified engine keeps every created
// nested table resident in a process-wide registry instead (see
// DESIGN.md).
func (t *Table) LoadTable(ref array.Ref, spec *schema.Spec) (column.NestedTable, error) {
	nestedMu.Lock()
	defer nestedMu.Unlock()
	nt, ok := nestedByRef[ref]
	if !ok {
		return nil, errs.ErrCorruptFile.New("no nested table resident for ref")
	}
	return nt, nil
}

func (t *Table) Ref() array.Ref { return t.ref }

func (t *Table) Retain() {
	t.mu.Lock()
	t.refCount++
	t.mu.Unlock()
}

func (t *Table) Release() {
	t.mu.Lock()
	t.refCount--
	fire := t.refCount == 0 && t.onRelease != nil
	cb := t.onRelease
	t.mu.Unlock()
	if fire {
		cb()
	}
}

// SetOnRelease installs the callback invoked when the table's ref-count
// reaches zero (spec §9's "accessor drop notifies the column").
func (t *Table) SetOnRelease(f func()) { t.onRelease = f }

// --- basic shape ---

func (t *Table) Size() int  { return t.size }
func (t *Table) Spec() *schema.Spec { return t.spec }

// AddColumn appends a new column to the spec and materializes it,
// backfilling default values for every existing row.
func (t *Table) AddColumn(c schema.Column) (int, error) {
	idx := t.spec.AddColumn(c)
	col, err := t.buildColumn(c)
	if err != nil {
		return 0, err
	}
	if err := col.Fill(t.size); err != nil {
		return 0, err
	}
	t.columns = append(t.columns, col)
	return idx, nil
}

// RemoveColumn drops the column at i, its search index if any, and (for
// a link column) its backlink bookkeeping on the target table, as one
// atomic step (spec §4.5).
func (t *Table) RemoveColumn(i int) error {
	if i < 0 || i >= len(t.columns) {
		return errs.ErrPrecondition.New("column index out of range")
	}
	delete(t.indices, i)

	if lc, ok := t.columns[i].(*column.LinkColumn); ok && t.resolver != nil {
		for row := 0; row < t.size; row++ {
			target, isNull, err := lc.GetLink(row)
			if err == nil && !isNull {
				t.removeBacklink(target, lc, i, row)
			}
		}
	}

	t.columns = append(t.columns[:i], t.columns[i+1:]...)
	if err := t.spec.RemoveColumn(i); err != nil {
		return err
	}
	t.registry.notifyDetachColumn(i)

	if len(t.columns) == 0 {
		t.size = 0
	}
	return nil
}

func (t *Table) linkTargetName(col int) string {
	if col < 0 || col >= len(t.spec.Columns) {
		return ""
	}
	return t.spec.Columns[col].TargetTable
}

func (t *Table) removeBacklink(targetRow int, lc *column.LinkColumn, col, row int) {
	tgtName := t.linkTargetName(col)
	if t.resolver == nil || tgtName == "" {
		return
	}
	tgt, ok := t.resolver.TableByName(tgtName)
	if !ok {
		return
	}
	bl := tgt.backlinkFor(t.Name, col)
	if bl == nil {
		return
	}
	bl.Remove(targetRow, column.BacklinkRef{OriginTable: t.Name, OriginColumn: col, OriginRow: row})
}

// backlinkFor returns (creating if needed) the backlink column this
// table maintains for an origin (table, column) pair. In this
// simplified engine every link/linklist column gets exactly one
// implicit backlink column, keyed by the pair, rather than a schema
// slot of its own.
func (t *Table) backlinkFor(originTable string, originCol int) *column.BacklinkColumn {
	key := backlinkKey{table: originTable, col: originCol}
	if t.backlinks == nil {
		t.backlinks = make(map[backlinkKey]*column.BacklinkColumn)
	}
	bl, ok := t.backlinks[key]
	if !ok {
		bl = column.NewBacklinkColumn()
		_ = bl.Fill(t.size)
		t.backlinks[key] = bl
	}
	return bl
}

type backlinkKey struct {
	table string
	col   int
}
