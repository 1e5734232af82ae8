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

// shortLeafLimit is the inline-slot width ceiling (spec §4.4: "fixed
// slot width >= the longest current string + 1 for a length byte").
// Past this, the column upgrades from the short to the long
// representation.
const shortLeafLimit = 15

// StringColumn starts in the short representation (values held inline)
// and upgrades, on any write exceeding shortLeafLimit, to the long
// representation (values held as blob refs in a bptree.Tree of refs
// plus a side blob store), per spec §4.4. Both forms share this one
// Get/Set surface.
type StringColumn struct {
	arena    *array.Arena
	nullable bool

	isLong bool
	short  []string // short representation storage

	refs  *bptree.Tree        // long representation: one ref per row
	blobs map[array.Ref]string // long representation: ref -> bytes
	next  array.Ref
}

func NewStringColumn(arena *array.Arena, leafSize int, nullable bool) (*StringColumn, error) {
	return &StringColumn{arena: arena, nullable: nullable}, nil
}

func (c *StringColumn) Type() schema.ColumnType { return schema.StringCol }

func (c *StringColumn) Size() int {
	if c.isLong {
		return c.refs.Len()
	}
	return len(c.short)
}

func (c *StringColumn) InsertDefault(row int) error { return c.Insert(row, "") }

func (c *StringColumn) Insert(row int, v string) error {
	if c.isLong {
		ref := c.allocBlob(v)
		return c.refs.Insert(row, int64(ref))
	}
	if row < 0 || row > len(c.short) {
		return errs.ErrPrecondition.New("string column index out of range")
	}
	c.short = append(c.short, "")
	copy(c.short[row+1:], c.short[row:])
	c.short[row] = v
	if len(v) > shortLeafLimit {
		return c.upgradeToLong()
	}
	return nil
}

func (c *StringColumn) Erase(row int) error {
	if c.isLong {
		ref, err := c.refs.Get(row)
		if err != nil {
			return err
		}
		delete(c.blobs, array.Ref(ref))
		return c.refs.Erase(row)
	}
	if row < 0 || row >= len(c.short) {
		return errs.ErrPrecondition.New("string column index out of range")
	}
	c.short = append(c.short[:row], c.short[row+1:]...)
	return nil
}

func (c *StringColumn) Clear() error {
	if c.isLong {
		c.blobs = make(map[array.Ref]string)
		for c.refs.Len() > 0 {
			if err := c.refs.Erase(c.refs.Len() - 1); err != nil {
				return err
			}
		}
		return nil
	}
	c.short = c.short[:0]
	return nil
}

func (c *StringColumn) MoveLastOver(row int) error {
	n := c.Size()
	last := n - 1
	if row < 0 || row > last {
		return errs.ErrPrecondition.New("move_last_over index out of range")
	}
	v, err := c.Get(last)
	if err != nil {
		return err
	}
	if row != last {
		if err := c.Set(row, v); err != nil {
			return err
		}
	}
	return c.Erase(last)
}

func (c *StringColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := c.Insert(c.Size(), ""); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the string at row, whichever representation is active.
func (c *StringColumn) Get(row int) (string, error) {
	if c.isLong {
		ref, err := c.refs.Get(row)
		if err != nil {
			return "", err
		}
		return c.blobs[array.Ref(ref)], nil
	}
	if row < 0 || row >= len(c.short) {
		return "", errs.ErrPrecondition.New("string column index out of range")
	}
	return c.short[row], nil
}

// Set overwrites row, upgrading short->long if v no longer fits.
func (c *StringColumn) Set(row int, v string) error {
	if c.isLong {
		old, err := c.refs.Get(row)
		if err != nil {
			return err
		}
		delete(c.blobs, array.Ref(old))
		ref := c.allocBlob(v)
		return c.refs.Set(row, int64(ref))
	}
	if row < 0 || row >= len(c.short) {
		return errs.ErrPrecondition.New("string column index out of range")
	}
	c.short[row] = v
	if len(v) > shortLeafLimit {
		return c.upgradeToLong()
	}
	return nil
}

func (c *StringColumn) allocBlob(v string) array.Ref {
	c.next++
	ref := c.next
	c.blobs[ref] = v
	return ref
}

// upgradeToLong copies every short-form value into the long
// representation without data loss, per spec §8's boundary-behavior
// requirement.
func (c *StringColumn) upgradeToLong() error {
	if c.isLong {
		return nil
	}
	tr, err := bptree.New(c.arena, bptree.DefaultLeafSize)
	if err != nil {
		return err
	}
	c.blobs = make(map[array.Ref]string)
	for _, v := range c.short {
		ref := c.allocBlob(v)
		if err := tr.Append(int64(ref)); err != nil {
			return err
		}
	}
	c.refs = tr
	c.short = nil
	c.isLong = true
	return nil
}

// FindFirst returns the first row in [lo, hi) whose value equals v.
func (c *StringColumn) FindFirst(v string, lo, hi int) int {
	lo, hi = clampRange(c.Size(), lo, hi)
	for i := lo; i < hi; i++ {
		got, _ := c.Get(i)
		if got == v {
			return i
		}
	}
	return -1
}

// FindAll appends every row in [lo, hi) whose value equals v.
func (c *StringColumn) FindAll(out []int, v string, lo, hi int) []int {
	lo, hi = clampRange(c.Size(), lo, hi)
	for i := lo; i < hi; i++ {
		got, _ := c.Get(i)
		if got == v {
			out = append(out, i)
		}
	}
	return out
}

// enumThresholdRatio: optimize() collapses to an enumerated form only
// when the number of distinct values is at most this fraction of total
// rows, or when there is a single distinct value.
const enumThresholdRatio = 0.1

// EnumStringColumn is the (keys, indices) dictionary-encoded form an
// optimize() pass produces (spec §4.4).
type EnumStringColumn struct {
	keys    []string
	indices *IntColumn
}

// Optimize scans c and, if few enough distinct values justify it,
// returns a dictionary-encoded EnumStringColumn; otherwise ok is false
// and c is left untouched.
func (c *StringColumn) Optimize(arena *array.Arena, leafSize int) (enum *EnumStringColumn, ok bool, err error) {
	n := c.Size()
	if n == 0 {
		return nil, false, nil
	}
	keyIndex := map[string]int{}
	var keys []string
	idxCol, err := NewIntColumn(arena, leafSize, c.nullable)
	if err != nil {
		return nil, false, err
	}
	for i := 0; i < n; i++ {
		v, err := c.Get(i)
		if err != nil {
			return nil, false, err
		}
		idx, seen := keyIndex[v]
		if !seen {
			idx = len(keys)
			keys = append(keys, v)
			keyIndex[v] = idx
		}
		if err := idxCol.tree.Append(int64(idx)); err != nil {
			return nil, false, err
		}
	}

	if float64(len(keys)) > enumThresholdRatio*float64(n) && len(keys) > 1 {
		return nil, false, nil
	}

	return &EnumStringColumn{keys: keys, indices: idxCol}, true, nil
}

func (e *EnumStringColumn) Type() schema.ColumnType { return schema.StringCol }
func (e *EnumStringColumn) Size() int               { return e.indices.Size() }

// keyIndex returns v's dictionary index, adding v to the dictionary if
// it is not already present (spec §4.4: a table keeps accepting writes
// after optimize()).
func (e *EnumStringColumn) keyIndex(v string) int {
	for i, k := range e.keys {
		if k == v {
			return i
		}
	}
	e.keys = append(e.keys, v)
	return len(e.keys) - 1
}

func (e *EnumStringColumn) InsertDefault(row int) error {
	return e.indices.tree.Insert(row, int64(e.keyIndex("")))
}

func (e *EnumStringColumn) Insert(row int, v string) error {
	return e.indices.tree.Insert(row, int64(e.keyIndex(v)))
}

func (e *EnumStringColumn) Erase(row int) error { return e.indices.Erase(row) }

func (e *EnumStringColumn) Clear() error { return e.indices.Clear() }

func (e *EnumStringColumn) MoveLastOver(row int) error { return e.indices.MoveLastOver(row) }

func (e *EnumStringColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := e.InsertDefault(e.Size()); err != nil {
			return err
		}
	}
	return nil
}

// Set overwrites row with v, extending the dictionary if needed.
func (e *EnumStringColumn) Set(row int, v string) error {
	return e.indices.Set(row, int64(e.keyIndex(v)))
}

func (e *EnumStringColumn) Get(row int) (string, error) {
	idx, err := e.indices.Get(row)
	if err != nil {
		return "", err
	}
	return e.keys[idx], nil
}

// FindFirst compares dictionary indices directly rather than strings,
// the fast path spec §4.7 calls out for enum-string columns.
func (e *EnumStringColumn) FindFirst(v string, lo, hi int) int {
	target := -1
	for i, k := range e.keys {
		if k == v {
			target = i
			break
		}
	}
	if target < 0 {
		return -1
	}
	return e.indices.FindFirst(int64(target), lo, hi)
}

func (e *EnumStringColumn) Keys() []string { return e.keys }
