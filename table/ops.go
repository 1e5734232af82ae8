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
	"github.com/tidwell-embeddb/embeddb/column"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// AddEmptyRow appends one default-valued row and returns its index.
func (t *Table) AddEmptyRow() (int, error) {
	row := t.size
	if err := t.InsertEmptyRow(row); err != nil {
		return 0, err
	}
	return row, nil
}

// InsertEmptyRow inserts one default-valued row at i, shifting every
// accessor at or after i forward by one (spec §4.5).
func (t *Table) InsertEmptyRow(i int) error {
	if i < 0 || i > t.size {
		return errs.ErrPrecondition.New("row index out of range")
	}
	for ci, c := range t.columns {
		if err := c.InsertDefault(i); err != nil {
			return err
		}
		if idx, ok := t.indices[ci]; ok {
			idx.OnRowInserted(i)
		}
	}
	t.size++
	t.registry.notifyInsert(i)
	return nil
}

// EraseRow removes row while preserving the order of every other row,
// shifting trailing rows down by one (spec §3's erase_row, as opposed
// to the O(1) unordered MoveLastOver). Links into the erased row are
// dropped the same way MoveLastOver drops them; links past it shift
// down with their target row.
func (t *Table) EraseRow(row int) error {
	if row < 0 || row >= t.size {
		return errs.ErrPrecondition.New("row index out of range")
	}
	for ci, c := range t.columns {
		if lc, ok := c.(*column.LinkColumn); ok {
			if target, isNull, _ := lc.GetLink(row); !isNull {
				t.removeBacklinkAndCascade(target, ci, row, map[cascadeKey]bool{})
			}
		}
	}
	for ci, c := range t.columns {
		if err := c.Erase(row); err != nil {
			return err
		}
		if idx, ok := t.indices[ci]; ok {
			idx.OnRowErased(row)
		}
	}
	t.size--
	t.registry.notifyErase(row)
	for _, bl := range t.backlinks {
		for r := row; r < t.size; r++ {
			entries := bl.At(r + 1)
			for _, ref := range entries {
				bl.Remove(r+1, ref)
				bl.Add(r, ref)
			}
		}
	}
	return nil
}

// MoveLastOver implements the primary unordered-deletion primitive
// (spec §4.4, §8): row's data is overwritten with the last row's data,
// then the table shrinks by one. It cascades strong-link deletions
// (spec §4.4, "a strong link triggers cascading deletion") using a
// cycle-detection set, resolving SPEC_FULL.md §5's open question.
func (t *Table) MoveLastOver(row int) error {
	return t.moveLastOverCascading(row, map[cascadeKey]bool{})
}

type cascadeKey struct {
	table string
	row   int
}

func (t *Table) moveLastOverCascading(row int, seen map[cascadeKey]bool) error {
	if row < 0 || row >= t.size {
		return errs.ErrPrecondition.New("row index out of range")
	}
	key := cascadeKey{table: t.Name, row: row}
	if seen[key] {
		return nil
	}
	seen[key] = true

	last := t.size - 1

	for ci, c := range t.columns {
		if lc, ok := c.(*column.LinkColumn); ok {
			target, isNull, _ := lc.GetLink(row)
			if !isNull {
				t.removeBacklinkAndCascade(target, ci, row, seen)
			}
		}
	}

	for ci, c := range t.columns {
		if idx, ok := t.indices[ci]; ok {
			idx.OnRowErased(row)
			_ = idx
		}
		if err := c.MoveLastOver(row); err != nil {
			return err
		}
	}

	t.registry.notifyMoveLastOver(last, row)
	t.size--
	t.rewriteBacklinksAfterMove(last, row)
	return nil
}

// removeBacklinkAndCascade drops the backlink entry the link at
// (col,row) created and, for a strong link whose target has no
// remaining inbound strong links, cascades into deleting the target
// row too.
func (t *Table) removeBacklinkAndCascade(target int, col, row int, seen map[cascadeKey]bool) {
	tgtName := t.linkTargetName(col)
	if t.resolver == nil || tgtName == "" {
		return
	}
	tgt, ok := t.resolver.TableByName(tgtName)
	if !ok {
		return
	}
	bl := tgt.backlinkFor(t.Name, col)
	ref := column.BacklinkRef{OriginTable: t.Name, OriginColumn: col, OriginRow: row}
	bl.Remove(target, ref)

	lc, _ := t.columns[col].(*column.LinkColumn)
	if lc != nil && lc.Kind == schema.LinkStrong && bl.Count(target) == 0 {
		_ = tgt.moveLastOverCascading(target, seen)
	}
}

// rewriteBacklinksAfterMove updates every backlink bookkeeping entry
// that pointed at `from` (the row moved into `to`) to point at `to`
// instead, and any origin-side link columns that referenced `from` on
// this table, mirroring the physical move_last_over shuffle.
func (t *Table) rewriteBacklinksAfterMove(from, to int) {
	if from == to {
		return
	}
	for _, bl := range t.backlinks {
		entries := bl.At(from)
		for _, ref := range entries {
			bl.Remove(from, ref)
			bl.Add(to, ref)
		}
	}
	for key, bl := range t.backlinks {
		for row := 0; row < t.size; row++ {
			for _, ref := range bl.At(row) {
				if ref.OriginTable == key.table {
					origin, ok := t.resolver.TableByName(ref.OriginTable)
					if !ok {
						continue
					}
					if lc, ok := origin.columns[ref.OriginColumn].(*column.LinkColumn); ok {
						tgt, _, _ := lc.GetLink(ref.OriginRow)
						if tgt == from {
							_ = lc.SetLink(ref.OriginRow, row)
						}
					}
				}
			}
		}
	}
}

// Clear detaches every row/linkview accessor and frees per-row data;
// clearing the last column also drops the row count to zero (spec
// §4.5, §8).
func (t *Table) Clear() error {
	for _, c := range t.columns {
		if err := c.Clear(); err != nil {
			return err
		}
	}
	for _, idx := range t.indices {
		*idx = *column.NewIndexColumn()
	}
	t.size = 0
	t.registry.notifyClear()
	return nil
}

// GetAny dispatches to the appropriate typed getter for col's type,
// for callers (Row, the query engine) that only know the column index.
func (t *Table) GetAny(col, row int) (interface{}, error) {
	if col < 0 || col >= len(t.columns) {
		return nil, errs.ErrPrecondition.New("column index out of range")
	}
	switch c := t.columns[col].(type) {
	case *column.IntColumn:
		return c.Get(row)
	case *column.BoolColumn:
		return c.GetBool(row)
	case *column.DateColumn:
		return c.GetDate(row)
	case *column.StringColumn:
		return c.Get(row)
	case *column.BinaryColumn:
		return c.Get(row)
	case *column.LinkColumn:
		target, isNull, err := c.GetLink(row)
		if err != nil {
			return nil, err
		}
		if isNull {
			return nil, nil
		}
		return target, nil
	case *column.MixedColumn:
		return c.Get(row)
	case *column.SubtableColumn:
		return c.GetSubtable(row)
	default:
		return nil, errs.ErrPrecondition.New("column has no generic accessor")
	}
}

// Column returns the raw column accessor at i for type-specific use
// (query engine fast paths, AddSearchIndex, Optimize).
func (t *Table) Column(i int) (column.Column, error) {
	if i < 0 || i >= len(t.columns) {
		return nil, errs.ErrPrecondition.New("column index out of range")
	}
	return t.columns[i], nil
}

// IntColumn returns the column at i as *column.IntColumn, or an error
// if it is not one (spec §4.4's int-only sum/min/max/average).
func (t *Table) IntColumn(i int) (*column.IntColumn, error) {
	c, err := t.Column(i)
	if err != nil {
		return nil, err
	}
	ic, ok := c.(*column.IntColumn)
	if !ok {
		if bc, ok := c.(*column.BoolColumn); ok {
			return bc.IntColumn, nil
		}
		if dc, ok := c.(*column.DateColumn); ok {
			return dc.IntColumn, nil
		}
		return nil, errs.ErrPrecondition.New("column is not an int column")
	}
	return ic, nil
}

// StringColumn returns the column at i as *column.StringColumn.
func (t *Table) StringColumn(i int) (*column.StringColumn, error) {
	c, err := t.Column(i)
	if err != nil {
		return nil, err
	}
	sc, ok := c.(*column.StringColumn)
	if !ok {
		return nil, errs.ErrPrecondition.New("column is not a string column")
	}
	return sc, nil
}

// GetSubtable returns the nested table accessor at (col, row).
func (t *Table) GetSubtable(col, row int) (*Table, error) {
	c, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	sc, ok := c.(*column.SubtableColumn)
	if !ok {
		return nil, errs.ErrPrecondition.New("column is not a subtable column")
	}
	nt, err := sc.GetSubtable(row)
	if err != nil {
		return nil, err
	}
	return nt.(*Table), nil
}

// GetLinkListColumn returns the linklist column at col for use by view.LinkView.
func (t *Table) GetLinkListColumn(col int) (*column.LinkListColumn, error) {
	c, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	llc, ok := c.(*column.LinkListColumn)
	if !ok {
		return nil, errs.ErrPrecondition.New("column is not a linklist column")
	}
	return llc, nil
}

// SetLink points (col, row) at target, maintaining the reciprocal
// backlink on the target table (spec §4.4).
func (t *Table) SetLink(col, row, target int) error {
	c, err := t.Column(col)
	if err != nil {
		return err
	}
	lc, ok := c.(*column.LinkColumn)
	if !ok {
		return errs.ErrPrecondition.New("column is not a link column")
	}

	tgtName := t.linkTargetName(col)
	var tgt *Table
	if t.resolver != nil && tgtName != "" {
		tgt, _ = t.resolver.TableByName(tgtName)
	}

	if old, isNull, _ := lc.GetLink(row); !isNull && tgt != nil {
		bl := tgt.backlinkFor(t.Name, col)
		bl.Remove(old, column.BacklinkRef{OriginTable: t.Name, OriginColumn: col, OriginRow: row})
	}
	if err := lc.SetLink(row, target); err != nil {
		return err
	}
	if tgt != nil {
		bl := tgt.backlinkFor(t.Name, col)
		bl.Add(target, column.BacklinkRef{OriginTable: t.Name, OriginColumn: col, OriginRow: row})
	}
	return nil
}

// GetLink returns the (target, isNull) pair at (col, row).
func (t *Table) GetLink(col, row int) (int, bool, error) {
	c, err := t.Column(col)
	if err != nil {
		return 0, false, err
	}
	lc, ok := c.(*column.LinkColumn)
	if !ok {
		return 0, false, errs.ErrPrecondition.New("column is not a link column")
	}
	return lc.GetLink(row)
}

// InboundLinkCount returns how many links currently point at
// (this table, targetRow) from originTable/originCol.
func (t *Table) InboundLinkCount(originTable string, originCol, targetRow int) int {
	if t.backlinks == nil {
		return 0
	}
	bl, ok := t.backlinks[backlinkKey{table: originTable, col: originCol}]
	if !ok {
		return 0
	}
	return bl.Count(targetRow)
}

// AddSearchIndex builds a search index over col, covering every
// existing row (spec §4.4).
func (t *Table) AddSearchIndex(col int) error {
	c, err := t.Column(col)
	if err != nil {
		return err
	}
	idx := column.NewIndexColumn()
	switch cc := c.(type) {
	case *column.StringColumn:
		for row := 0; row < t.size; row++ {
			v, err := cc.Get(row)
			if err != nil {
				return err
			}
			idx.InsertString(v, row)
		}
	case *column.IntColumn:
		for row := 0; row < t.size; row++ {
			v, err := cc.Get(row)
			if err != nil {
				return err
			}
			idx.InsertInt(v, row)
		}
	default:
		return errs.ErrPrecondition.New("search index unsupported for this column type")
	}
	t.indices[col] = idx
	if col < len(t.spec.Columns) {
		t.spec.Columns[col].Indexed = true
	}
	return nil
}

// RemoveSearchIndex drops the index built on col, if any.
func (t *Table) RemoveSearchIndex(col int) {
	delete(t.indices, col)
	if col < len(t.spec.Columns) {
		t.spec.Columns[col].Indexed = false
	}
}

// FindFirstIndexedString uses col's search index (must exist).
func (t *Table) FindFirstIndexedString(col int, v string) (int, error) {
	idx, ok := t.indices[col]
	if !ok {
		return -1, errs.ErrPrecondition.New("column has no search index")
	}
	return idx.FindFirstString(v), nil
}

// Optimize replaces the string column at col with an enumerated
// (dictionary + indices) form when few enough distinct values justify
// it (spec §4.4). If col already has a search index, the index is
// rebuilt against the new dictionary per SPEC_FULL.md §5's decision on
// that open question, rather than silently discarded.
func (t *Table) Optimize(col int) error {
	sc, err := t.StringColumn(col)
	if err != nil {
		return err
	}
	enum, ok, err := sc.Optimize(t.arena, t.leafSize)
	if err != nil || !ok {
		return err
	}
	t.columns[col] = enum

	if _, hadIndex := t.indices[col]; hadIndex {
		idx := column.NewIndexColumn()
		for row := 0; row < enum.Size(); row++ {
			v, err := enum.Get(row)
			if err != nil {
				return err
			}
			idx.InsertString(v, row)
		}
		t.indices[col] = idx
	}
	return nil
}

// --- linklist operations: every mutation keeps the target table's
// backlink bookkeeping in sync with the forward list, per spec §4.6's
// LinkView invariant ("(origin_row, list_position) -> target_row ...
// and a reciprocal (origin_row) entry in the target row's backlink
// column"). view.LinkView calls these rather than touching
// column.LinkListColumn directly. ---

func (t *Table) linkListTarget(col int) (*Table, bool) {
	name := t.linkTargetName(col)
	if t.resolver == nil || name == "" {
		return nil, false
	}
	return t.resolver.TableByName(name)
}

func (t *Table) linkListRef(col, row int) column.BacklinkRef {
	return column.BacklinkRef{OriginTable: t.Name, OriginColumn: col, OriginRow: row}
}

// LinkListAll returns the target rows in row's list, in order.
func (t *Table) LinkListAll(col, row int) ([]int, error) {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return nil, err
	}
	return llc.All(row)
}

// LinkListAdd appends target to row's list, recording the reciprocal
// backlink.
func (t *Table) LinkListAdd(col, row, target int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	if err := llc.Add(row, target); err != nil {
		return err
	}
	if tgt, ok := t.linkListTarget(col); ok {
		tgt.backlinkFor(t.Name, col).Add(target, t.linkListRef(col, row))
	}
	return nil
}

// LinkListInsert inserts target at position i in row's list.
func (t *Table) LinkListInsert(col, row, i, target int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	if err := llc.Insert(row, i, target); err != nil {
		return err
	}
	if tgt, ok := t.linkListTarget(col); ok {
		tgt.backlinkFor(t.Name, col).Add(target, t.linkListRef(col, row))
	}
	return nil
}

// LinkListSet overwrites position i in row's list with target.
func (t *Table) LinkListSet(col, row, i, target int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	old, err := llc.Get(row, i)
	if err != nil {
		return err
	}
	if err := llc.Set(row, i, target); err != nil {
		return err
	}
	if tgt, ok := t.linkListTarget(col); ok {
		bl := tgt.backlinkFor(t.Name, col)
		bl.Remove(old, t.linkListRef(col, row))
		bl.Add(target, t.linkListRef(col, row))
	}
	return nil
}

// LinkListRemove drops position i from row's list.
func (t *Table) LinkListRemove(col, row, i int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	old, err := llc.Get(row, i)
	if err != nil {
		return err
	}
	if err := llc.Remove(row, i); err != nil {
		return err
	}
	if tgt, ok := t.linkListTarget(col); ok {
		tgt.backlinkFor(t.Name, col).Remove(old, t.linkListRef(col, row))
	}
	return nil
}

// LinkListClear empties row's list, nullifying every reciprocal
// backlink (spec §4.6: "clearing a linklist nullifies each backlink").
func (t *Table) LinkListClear(col, row int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	targets, err := llc.All(row)
	if err != nil {
		return err
	}
	if err := llc.ClearList(row); err != nil {
		return err
	}
	if tgt, ok := t.linkListTarget(col); ok {
		bl := tgt.backlinkFor(t.Name, col)
		ref := t.linkListRef(col, row)
		for _, target := range targets {
			bl.Remove(target, ref)
		}
	}
	return nil
}

// LinkListMove relocates the element at from to position to within
// row's list; backlinks are unaffected (the set of targets, and which
// origin row references them, is unchanged).
func (t *Table) LinkListMove(col, row, from, to int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	return llc.Move(row, from, to)
}

// LinkListSwap exchanges positions i and j within row's list.
func (t *Table) LinkListSwap(col, row, i, j int) error {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return err
	}
	return llc.Swap(row, i, j)
}

// LinkListLen returns the number of entries in row's list.
func (t *Table) LinkListLen(col, row int) (int, error) {
	llc, err := t.GetLinkListColumn(col)
	if err != nil {
		return 0, err
	}
	return llc.Len(row), nil
}
