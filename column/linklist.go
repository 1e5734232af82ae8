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

// LinkListColumn's cell is an ordered list of target rows, backed by
// its own small integer bptree.Tree (ref 0 = empty list), per spec §4.4.
// As with LinkColumn, backlink maintenance is orchestrated by
// table.Table; this type is pure storage plus list-shape operations.
type LinkListColumn struct {
	arena *array.Arena
	leaf  int
	Kind  schema.LinkType

	lists map[int]*bptree.Tree
	size  int
}

func NewLinkListColumn(arena *array.Arena, leafSize int, kind schema.LinkType) (*LinkListColumn, error) {
	return &LinkListColumn{arena: arena, leaf: leafSize, Kind: kind, lists: make(map[int]*bptree.Tree)}, nil
}

func (c *LinkListColumn) Type() schema.ColumnType { return schema.LinkList }
func (c *LinkListColumn) Size() int               { return c.size }

func (c *LinkListColumn) InsertDefault(row int) error {
	c.shift(row, 1)
	c.size++
	return nil
}

func (c *LinkListColumn) Erase(row int) error {
	delete(c.lists, row)
	c.shift(row, -1)
	c.size--
	return nil
}

func (c *LinkListColumn) Clear() error {
	c.lists = make(map[int]*bptree.Tree)
	c.size = 0
	return nil
}

func (c *LinkListColumn) MoveLastOver(row int) error {
	last := c.size - 1
	if row < 0 || row > last {
		return errs.ErrPrecondition.New("move_last_over index out of range")
	}
	if t, ok := c.lists[last]; ok {
		c.lists[row] = t
		delete(c.lists, last)
	} else {
		delete(c.lists, row)
	}
	c.size--
	return nil
}

func (c *LinkListColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := c.InsertDefault(c.Size()); err != nil {
			return err
		}
	}
	return nil
}

func (c *LinkListColumn) shift(row, delta int) {
	if delta > 0 {
		shifted := make(map[int]*bptree.Tree, len(c.lists))
		for r, v := range c.lists {
			if r >= row {
				shifted[r+1] = v
			} else {
				shifted[r] = v
			}
		}
		c.lists = shifted
		return
	}
	shifted := make(map[int]*bptree.Tree, len(c.lists))
	for r, v := range c.lists {
		switch {
		case r < row:
			shifted[r] = v
		case r > row:
			shifted[r-1] = v
		}
	}
	c.lists = shifted
}

func (c *LinkListColumn) treeFor(row int, create bool) (*bptree.Tree, error) {
	if t, ok := c.lists[row]; ok {
		return t, nil
	}
	if !create {
		return nil, nil
	}
	t, err := bptree.New(c.arena, c.leaf)
	if err != nil {
		return nil, err
	}
	c.lists[row] = t
	return t, nil
}

// Len returns the number of targets in row's list.
func (c *LinkListColumn) Len(row int) int {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return 0
	}
	return t.Len()
}

// Get returns the target row at position i within row's list.
func (c *LinkListColumn) Get(row, i int) (int, error) {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return 0, errs.ErrPrecondition.New("linklist index out of range")
	}
	v, err := t.Get(i)
	return int(v), err
}

// Add appends target to the end of row's list.
func (c *LinkListColumn) Add(row int, target int) error {
	t, err := c.treeFor(row, true)
	if err != nil {
		return err
	}
	return t.Append(int64(target))
}

// Insert places target at position i in row's list.
func (c *LinkListColumn) Insert(row, i, target int) error {
	t, err := c.treeFor(row, true)
	if err != nil {
		return err
	}
	return t.Insert(i, int64(target))
}

// Set overwrites the target at position i in row's list.
func (c *LinkListColumn) Set(row, i, target int) error {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return errs.ErrPrecondition.New("linklist index out of range")
	}
	return t.Set(i, int64(target))
}

// Remove deletes position i from row's list.
func (c *LinkListColumn) Remove(row, i int) error {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return errs.ErrPrecondition.New("linklist index out of range")
	}
	return t.Erase(i)
}

// ClearList empties row's list.
func (c *LinkListColumn) ClearList(row int) error {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return nil
	}
	for t.Len() > 0 {
		if err := t.Erase(t.Len() - 1); err != nil {
			return err
		}
	}
	return nil
}

// Move relocates the element at position from to position to, shifting
// the elements in between (spec S3 scenario).
func (c *LinkListColumn) Move(row, from, to int) error {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return errs.ErrPrecondition.New("linklist index out of range")
	}
	v, err := t.Get(from)
	if err != nil {
		return err
	}
	if err := t.Erase(from); err != nil {
		return err
	}
	return t.Insert(to, v)
}

// Swap exchanges the elements at positions i and j.
func (c *LinkListColumn) Swap(row, i, j int) error {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return errs.ErrPrecondition.New("linklist index out of range")
	}
	vi, err := t.Get(i)
	if err != nil {
		return err
	}
	vj, err := t.Get(j)
	if err != nil {
		return err
	}
	if err := t.Set(i, vj); err != nil {
		return err
	}
	return t.Set(j, vi)
}

// All returns every target currently in row's list, in order.
func (c *LinkListColumn) All(row int) ([]int, error) {
	t, _ := c.treeFor(row, false)
	if t == nil {
		return nil, nil
	}
	out := make([]int, t.Len())
	for i := range out {
		v, err := t.Get(i)
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}
