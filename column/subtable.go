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

package column

import (
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/bptree"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// SubtableColumn's cells are refs to nested table top-arrays; 0 means
// "never materialized" (the column only implies an empty table through
// the shared spec, per spec §3).
type SubtableColumn struct {
	tree    *bptree.Tree
	spec    *schema.Spec
	factory TableFactory

	// cache holds the live accessor for a row, keyed by row index, so
	// repeated GetSubtable(row) returns the same object (spec §4.4,
	// §9's "weak reference column-side cache").
	cache map[int]NestedTable
}

func NewSubtableColumn(arena *array.Arena, leafSize int, spec *schema.Spec, factory TableFactory) (*SubtableColumn, error) {
	tr, err := bptree.New(arena, leafSize)
	if err != nil {
		return nil, err
	}
	return &SubtableColumn{tree: tr, spec: spec, factory: factory, cache: make(map[int]NestedTable)}, nil
}

func (c *SubtableColumn) Type() schema.ColumnType { return schema.Subtable }
func (c *SubtableColumn) Size() int               { return c.tree.Len() }

func (c *SubtableColumn) InsertDefault(row int) error {
	if err := c.tree.Insert(row, 0); err != nil {
		return err
	}
	c.shiftCache(row, 1)
	return nil
}

func (c *SubtableColumn) Erase(row int) error {
	c.releaseCached(row)
	if err := c.tree.Erase(row); err != nil {
		return err
	}
	c.shiftCache(row, -1)
	return nil
}

func (c *SubtableColumn) Clear() error {
	for row := range c.cache {
		c.releaseCached(row)
	}
	c.cache = make(map[int]NestedTable)
	for c.tree.Len() > 0 {
		if err := c.tree.Erase(c.tree.Len() - 1); err != nil {
			return err
		}
	}
	return nil
}

func (c *SubtableColumn) MoveLastOver(row int) error {
	last := c.tree.Len() - 1
	if row < 0 || row > last {
		return errs.ErrPrecondition.New("move_last_over index out of range")
	}
	c.releaseCached(row)
	v, err := c.tree.Get(last)
	if err != nil {
		return err
	}
	if row != last {
		if err := c.tree.Set(row, v); err != nil {
			return err
		}
		if acc, ok := c.cache[last]; ok {
			c.cache[row] = acc
			delete(c.cache, last)
		}
	}
	c.releaseCached(last)
	return c.tree.Erase(last)
}

func (c *SubtableColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := c.InsertDefault(c.Size()); err != nil {
			return err
		}
	}
	return nil
}

func (c *SubtableColumn) releaseCached(row int) {
	if acc, ok := c.cache[row]; ok {
		acc.Release()
		delete(c.cache, row)
	}
}

// shiftCache renumbers cached accessors for a non-end insert/erase at
// row (delta is +1 for insert, -1 for erase), matching the row/view
// accessor adjustment discipline of table.registry (spec §4.5).
func (c *SubtableColumn) shiftCache(row int, delta int) {
	if delta > 0 {
		shifted := make(map[int]NestedTable, len(c.cache))
		for r, acc := range c.cache {
			if r >= row {
				shifted[r+1] = acc
			} else {
				shifted[r] = acc
			}
		}
		c.cache = shifted
		return
	}
	shifted := make(map[int]NestedTable, len(c.cache))
	for r, acc := range c.cache {
		switch {
		case r < row:
			shifted[r] = acc
		case r > row:
			shifted[r-1] = acc
		}
	}
	c.cache = shifted
}

// GetSubtable returns the live accessor for row, creating or loading it
// on first access and returning the cached instance thereafter.
func (c *SubtableColumn) GetSubtable(row int) (NestedTable, error) {
	if acc, ok := c.cache[row]; ok {
		acc.Retain()
		return acc, nil
	}
	ref, err := c.tree.Get(row)
	if err != nil {
		return nil, err
	}

	var acc NestedTable
	if ref == 0 {
		acc, err = c.factory.NewTable(c.spec)
		if err != nil {
			return nil, err
		}
		if err := c.tree.Set(row, int64(acc.Ref())); err != nil {
			return nil, err
		}
	} else {
		acc, err = c.factory.LoadTable(array.Ref(ref), c.spec)
		if err != nil {
			return nil, err
		}
	}
	c.cache[row] = acc
	acc.Retain()
	return acc, nil
}

// ReleaseNotify is invoked by a nested table's handle when its
// ref-count drops to zero, per spec §9's callback-on-drop cache design.
func (c *SubtableColumn) ReleaseNotify(row int) {
	delete(c.cache, row)
}
