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

import "github.com/tidwell-embeddb/embeddb/errs"

// Row is a (table, row index) accessor. On structural change it is
// either adjusted in place or detached (spec §3's "Row accessor").
type Row struct {
	t        *Table
	index    int
	detached bool
}

// NewRow creates and registers a row accessor at index.
func (t *Table) NewRow(index int) *Row {
	r := &Row{t: t, index: index}
	t.registry.attach(r)
	return r
}

// Index returns the row's current index, or -1 if detached.
func (r *Row) Index() int {
	if r.detached {
		return -1
	}
	return r.index
}

// IsAttached reports whether the row survived every structural change
// since creation.
func (r *Row) IsAttached() bool { return !r.detached }

// Detach releases the accessor from its table's registry. Callers must
// call this (or let structural mutation do it) before discarding a Row.
func (r *Row) Detach() {
	if r.detached {
		return
	}
	r.detached = true
	r.t.registry.detach(r)
}

func (r *Row) onInsert(row int) {
	if !r.detached && row <= r.index {
		r.index++
	}
}

func (r *Row) onErase(row int) {
	if r.detached {
		return
	}
	switch {
	case row < r.index:
		r.index--
	case row == r.index:
		r.detached = true
	}
}

func (r *Row) onMoveLastOver(from, to int) {
	if r.detached {
		return
	}
	switch {
	case r.index == from:
		r.index = to
	case r.index == to && to != from:
		r.detached = true
	}
}

func (r *Row) onClear() {
	if !r.detached {
		r.detached = true
	}
}

func (r *Row) onDetachColumn(_ int) {
	r.detached = true
}

// Get returns the value of column col at this row's current index.
func (r *Row) Get(col int) (interface{}, error) {
	if r.detached {
		return nil, errs.ErrPrecondition.New("row accessor is detached")
	}
	return r.t.GetAny(col, r.index)
}
