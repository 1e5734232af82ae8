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

// Package view implements TableView (a materialized row-index
// sequence over a parent table) and LinkView (a persistent, ordered
// view of a linklist cell), per spec §4.6.
package view

import (
	"sort"

	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/table"
)

// Source is the minimal surface view needs from a table: enough to
// proxy typed get/set calls through a refs array and to re-run a
// defining query on sync.
type Source interface {
	Size() int
	GetAny(col, row int) (interface{}, error)
	EraseRow(row int) error
}

// Definer builds the row set a TableView materializes, used by
// SyncIfNeeded to re-run the query the view was created from.
type Definer interface {
	FindAllRows(t *table.Table) ([]int, error)
}

// TableView is a materialized snapshot of row indices (spec §4.6).
// "Out of sync" tracks whether the source's version has advanced past
// the view's last sync without the view noticing yet; "detached"
// tracks whether the view's source was torn down underneath it.
type TableView struct {
	source      *table.Table
	definer     Definer
	refs        []int
	syncVersion uint64
	sourceVer   func() uint64
	detached    bool
}

// NewTableView wraps refs (already computed, e.g. by a Query) over
// source. sourceVersion reports the source's current structural
// version for SyncIfNeeded to compare against.
func NewTableView(source *table.Table, definer Definer, refs []int, sourceVersion func() uint64) *TableView {
	v := &TableView{source: source, definer: definer, refs: append([]int(nil), refs...), sourceVer: sourceVersion}
	if sourceVersion != nil {
		v.syncVersion = sourceVersion()
	}
	return v
}

func (v *TableView) Len() int { return len(v.refs) }

// IsInSync reports whether the source's version still matches the
// view's last-synced version.
func (v *TableView) IsInSync() bool {
	if v.detached || v.sourceVer == nil {
		return !v.detached
	}
	return v.sourceVer() == v.syncVersion
}

// SyncIfNeeded re-runs the defining query when the source has advanced
// (spec §4.6).
func (v *TableView) SyncIfNeeded() error {
	if v.detached {
		return errs.ErrPrecondition.New("table view is detached")
	}
	if v.IsInSync() || v.definer == nil {
		return nil
	}
	refs, err := v.definer.FindAllRows(v.source)
	if err != nil {
		return err
	}
	v.refs = refs
	if v.sourceVer != nil {
		v.syncVersion = v.sourceVer()
	}
	return nil
}

// Get proxies a typed get through the refs array, translating the
// view-local index i into the source table's row index.
func (v *TableView) Get(i, col int) (interface{}, error) {
	row, err := v.rowAt(i)
	if err != nil {
		return nil, err
	}
	return v.source.GetAny(col, row)
}

func (v *TableView) rowAt(i int) (int, error) {
	if v.detached {
		return 0, errs.ErrPrecondition.New("table view is detached")
	}
	if i < 0 || i >= len(v.refs) {
		return 0, errs.ErrPrecondition.New("view index out of range")
	}
	return v.refs[i], nil
}

// SourceRow returns the source table row index backing view index i.
func (v *TableView) SourceRow(i int) (int, error) { return v.rowAt(i) }

// Sort extracts col's values, computes a stable permutation, and
// rewrites refs in place (spec §4.6).
func (v *TableView) Sort(col int, ascending bool) error {
	if v.detached {
		return errs.ErrPrecondition.New("table view is detached")
	}
	type keyed struct {
		ref int
		key float64
	}
	scratch := make([]keyed, len(v.refs))
	for i, row := range v.refs {
		val, err := v.source.GetAny(col, row)
		if err != nil {
			return err
		}
		scratch[i] = keyed{ref: row, key: toFloat(val)}
	}
	sort.SliceStable(scratch, func(i, j int) bool {
		if ascending {
			return scratch[i].key < scratch[j].key
		}
		return scratch[i].key > scratch[j].key
	})
	for i, k := range scratch {
		v.refs[i] = k.ref
	}
	return nil
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return 0
	default:
		return 0
	}
}

// FindAll scans refs and returns a new view over every row whose col
// equals v.
func (v *TableView) FindAll(col int, v2 interface{}) (*TableView, error) {
	var out []int
	for _, row := range v.refs {
		got, err := v.source.GetAny(col, row)
		if err != nil {
			return nil, err
		}
		if got == v2 {
			out = append(out, row)
		}
	}
	return &TableView{source: v.source, definer: v.definer, refs: out, sourceVer: v.sourceVer, syncVersion: v.syncVersion}, nil
}

// Remove deletes the source row referenced by view index i and shifts
// trailing refs down by one, since an ordered erase_row renumbers
// every row after it (spec §4.6).
func (v *TableView) Remove(i int) error {
	row, err := v.rowAt(i)
	if err != nil {
		return err
	}
	if err := v.source.EraseRow(row); err != nil {
		return err
	}
	v.refs = append(v.refs[:i], v.refs[i+1:]...)
	for j, r := range v.refs {
		if r > row {
			v.refs[j] = r - 1
		}
	}
	return nil
}

// Clear deletes every referenced row in reverse order, the order that
// keeps earlier refs' row numbers from shifting underneath later
// deletes (spec §4.6).
func (v *TableView) Clear() error {
	for len(v.refs) > 0 {
		if err := v.Remove(len(v.refs) - 1); err != nil {
			return err
		}
	}
	return nil
}

// Detach marks the view as no longer tracking a live source, e.g.
// after the source table itself was removed from its group.
func (v *TableView) Detach() { v.detached = true }
