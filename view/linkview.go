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

package view

import (
	"github.com/tidwell-embeddb/embeddb/table"
)

// LinkView is an ordered, mutable list of row indices into a target
// table, backed by real storage in a linklist cell: mutations are
// persistent, not materialized (spec §4.6). It is identified by
// (origin_table, col, origin_row); all mutation is delegated to
// table.Table's LinkList* methods, which keep the reciprocal backlink
// column on the target table consistent.
type LinkView struct {
	origin *table.Table
	col    int
	row    int
}

// NewLinkView returns the view over the linklist cell at (col, row) on
// origin. origin must have a LinkList column at col (spec §3).
func NewLinkView(origin *table.Table, col, row int) *LinkView {
	return &LinkView{origin: origin, col: col, row: row}
}

// Len returns the number of entries currently in the list.
func (lv *LinkView) Len() (int, error) { return lv.origin.LinkListLen(lv.col, lv.row) }

// All returns the target rows in order.
func (lv *LinkView) All() ([]int, error) { return lv.origin.LinkListAll(lv.col, lv.row) }

// Add appends target to the end of the list.
func (lv *LinkView) Add(target int) error { return lv.origin.LinkListAdd(lv.col, lv.row, target) }

// Insert inserts target at position i.
func (lv *LinkView) Insert(i, target int) error {
	return lv.origin.LinkListInsert(lv.col, lv.row, i, target)
}

// Set overwrites position i with target.
func (lv *LinkView) Set(i, target int) error {
	return lv.origin.LinkListSet(lv.col, lv.row, i, target)
}

// Remove drops position i.
func (lv *LinkView) Remove(i int) error { return lv.origin.LinkListRemove(lv.col, lv.row, i) }

// Clear empties the list, nullifying every reciprocal backlink.
func (lv *LinkView) Clear() error { return lv.origin.LinkListClear(lv.col, lv.row) }

// Move relocates the element at from to position to.
func (lv *LinkView) Move(from, to int) error {
	return lv.origin.LinkListMove(lv.col, lv.row, from, to)
}

// Swap exchanges positions i and j.
func (lv *LinkView) Swap(i, j int) error { return lv.origin.LinkListSwap(lv.col, lv.row, i, j) }
