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

// IntColumn is a B+-tree of packed integers. Bool and Date columns
// (bool_date.go) are thin encodings over the same tree, per spec §3's
// "bool/date encoded as int".
type IntColumn struct {
	tree     *bptree.Tree
	nullable bool
	typ      schema.ColumnType
}

// NewIntColumn constructs an int column over a fresh tree.
func NewIntColumn(arena *array.Arena, leafSize int, nullable bool) (*IntColumn, error) {
	tr, err := bptree.New(arena, leafSize)
	if err != nil {
		return nil, err
	}
	return &IntColumn{tree: tr, nullable: nullable, typ: schema.Int}, nil
}

// LoadIntColumn reconstructs an int column from the ref of a previously
// persisted tree root. Bool, Date, and Link columns reuse this directly
// since each is a thin wrapper embedding *IntColumn.
func LoadIntColumn(arena *array.Arena, leafSize int, nullable bool, typ schema.ColumnType, rootRef array.Ref) (*IntColumn, error) {
	tr, err := bptree.LoadTree(arena, rootRef, leafSize)
	if err != nil {
		return nil, err
	}
	return &IntColumn{tree: tr, nullable: nullable, typ: typ}, nil
}

// RootRef exposes the column's current tree root, the ref a Group
// catalog persists so LoadIntColumn can find the tree again after
// reopen.
func (c *IntColumn) RootRef() array.Ref { return c.tree.RootRef() }

func (c *IntColumn) Type() schema.ColumnType { return c.typ }
func (c *IntColumn) Size() int               { return c.tree.Len() }

func (c *IntColumn) InsertDefault(row int) error { return c.tree.Insert(row, 0) }
func (c *IntColumn) Erase(row int) error         { return c.tree.Erase(row) }
func (c *IntColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := c.tree.Append(0); err != nil {
			return err
		}
	}
	return nil
}

func (c *IntColumn) Clear() error {
	n := c.tree.Len()
	for i := n - 1; i >= 0; i-- {
		if err := c.tree.Erase(i); err != nil {
			return err
		}
	}
	return nil
}

// MoveLastOver swaps the last element into row and shrinks by one.
func (c *IntColumn) MoveLastOver(row int) error {
	last := c.tree.Len() - 1
	if row < 0 || row > last {
		return errs.ErrPrecondition.New("move_last_over index out of range")
	}
	if row == last {
		return c.tree.Erase(last)
	}
	v, err := c.tree.Get(last)
	if err != nil {
		return err
	}
	if err := c.tree.Set(row, v); err != nil {
		return err
	}
	return c.tree.Erase(last)
}

// Get returns the value at row.
func (c *IntColumn) Get(row int) (int64, error) { return c.tree.Get(row) }

// Set overwrites the value at row.
func (c *IntColumn) Set(row int, v int64) error { return c.tree.Set(row, v) }

// FindFirst returns the first row in [lo, hi) with value v, or -1.
func (c *IntColumn) FindFirst(v int64, lo, hi int) int {
	lo, hi = clampRange(c.Size(), lo, hi)
	for i := lo; i < hi; i++ {
		got, _ := c.tree.Get(i)
		if got == v {
			return i
		}
	}
	return -1
}

// FindAll appends every row in [lo, hi) with value v to out.
func (c *IntColumn) FindAll(out []int, v int64, lo, hi int) []int {
	lo, hi = clampRange(c.Size(), lo, hi)
	for i := lo; i < hi; i++ {
		got, _ := c.tree.Get(i)
		if got == v {
			out = append(out, i)
		}
	}
	return out
}

// Sum totals values in [lo, hi), stopping early if limit rows have
// been folded (spec §4.4's "limit" parameter).
func (c *IntColumn) Sum(lo, hi, limit int) int64 {
	lo, hi = clampRange(c.Size(), lo, hi)
	var sum int64
	n := 0
	for i := lo; i < hi && (limit < 0 || n < limit); i++ {
		v, _ := c.tree.Get(i)
		sum += v
		n++
	}
	return sum
}

// Min returns the minimum in [lo, hi), or (0, false) if the range is
// empty (spec §4.7 documents a zero result for empty aggregates).
func (c *IntColumn) Min(lo, hi int) (int64, bool) {
	lo, hi = clampRange(c.Size(), lo, hi)
	if lo >= hi {
		return 0, false
	}
	m, _ := c.tree.Get(lo)
	for i := lo + 1; i < hi; i++ {
		v, _ := c.tree.Get(i)
		if v < m {
			m = v
		}
	}
	return m, true
}

// Max returns the maximum in [lo, hi), or (0, false) if empty.
func (c *IntColumn) Max(lo, hi int) (int64, bool) {
	lo, hi = clampRange(c.Size(), lo, hi)
	if lo >= hi {
		return 0, false
	}
	m, _ := c.tree.Get(lo)
	for i := lo + 1; i < hi; i++ {
		v, _ := c.tree.Get(i)
		if v > m {
			m = v
		}
	}
	return m, true
}

// Average returns the mean over [lo, hi); count is the number of rows
// folded, 0 if the range is empty.
func (c *IntColumn) Average(lo, hi int) (avg float64, count int) {
	lo, hi = clampRange(c.Size(), lo, hi)
	if lo >= hi {
		return 0, 0
	}
	sum := c.Sum(lo, hi, -1)
	count = hi - lo
	return float64(sum) / float64(count), count
}

// LowerBoundInt returns the first index whose value is >= v, assuming
// the column's content in [lo,hi) is sorted ascending.
func (c *IntColumn) LowerBoundInt(v int64, lo, hi int) int {
	lo, hi = clampRange(c.Size(), lo, hi)
	for lo < hi {
		mid := (lo + hi) / 2
		got, _ := c.tree.Get(mid)
		if got < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// UpperBoundInt returns the first index whose value is > v, assuming
// sorted ascending content.
func (c *IntColumn) UpperBoundInt(v int64, lo, hi int) int {
	lo, hi = clampRange(c.Size(), lo, hi)
	for lo < hi {
		mid := (lo + hi) / 2
		got, _ := c.tree.Get(mid)
		if got <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func clampRange(size, lo, hi int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi < 0 || hi > size {
		hi = size
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
