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
	"encoding/binary"
	"hash/fnv"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/tidwell-embeddb/embeddb/schema"
)

// IndexColumn is the search index of spec §4.4: "a radix/trie column
// keyed on 4-byte key slices" over a 32-bit fold of the indexed value.
// Rather than hand-roll a mutable radix trie with its own
// sorted-keys/children arrays, this wraps
// github.com/hashicorp/go-immutable-radix, whose copy-on-write tree is
// a natural fit for a column that otherwise lives inside a
// copy-on-write array discipline: every mutation produces a new tree
// root, which is exactly the ref-rewrite-on-write semantics the rest of
// the engine already has.
//
// Collisions (two keys folding to the same 32-bit prefix) are stored as
// a slice of row indices under one trie entry.
type IndexColumn struct {
	tree *iradix.Tree
}

func NewIndexColumn() *IndexColumn {
	return &IndexColumn{tree: iradix.New()}
}

func (c *IndexColumn) Type() schema.ColumnType { return schema.BackLink } // indices have no schema slot of their own

func foldString(v string) []byte {
	h := fnv.New32a()
	_, _ = h.Write([]byte(v))
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.Sum32())
	return b[:]
}

func foldInt(v int64) []byte {
	h := fnv.New32a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, _ = h.Write(buf[:])
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.Sum32())
	return b[:]
}

// InsertString indexes row under v's key fold.
func (c *IndexColumn) InsertString(v string, row int) {
	c.insert(foldString(v), row)
}

// InsertInt indexes row under v's key fold.
func (c *IndexColumn) InsertInt(v int64, row int) {
	c.insert(foldInt(v), row)
}

func (c *IndexColumn) insert(key []byte, row int) {
	existing, ok := c.tree.Get(key)
	if !ok {
		tree, _, _ := c.tree.Insert(key, row)
		c.tree = tree
		return
	}
	switch e := existing.(type) {
	case int:
		tree, _, _ := c.tree.Insert(key, []int{e, row})
		c.tree = tree
	case []int:
		tree, _, _ := c.tree.Insert(key, append(append([]int{}, e...), row))
		c.tree = tree
	}
}

// EraseString removes row from v's bucket.
func (c *IndexColumn) EraseString(v string, row int) {
	c.erase(foldString(v), row)
}

// EraseInt removes row from v's bucket.
func (c *IndexColumn) EraseInt(v int64, row int) {
	c.erase(foldInt(v), row)
}

func (c *IndexColumn) erase(key []byte, row int) {
	existing, ok := c.tree.Get(key)
	if !ok {
		return
	}
	switch e := existing.(type) {
	case int:
		if e == row {
			tree, _, _ := c.tree.Delete(key)
			c.tree = tree
		}
	case []int:
		var out []int
		for _, r := range e {
			if r != row {
				out = append(out, r)
			}
		}
		switch len(out) {
		case 0:
			tree, _, _ := c.tree.Delete(key)
			c.tree = tree
		case 1:
			tree, _, _ := c.tree.Insert(key, out[0])
			c.tree = tree
		default:
			tree, _, _ := c.tree.Insert(key, out)
			c.tree = tree
		}
	}
}

// FindFirstString returns the first indexed row for v, or -1.
func (c *IndexColumn) FindFirstString(v string) int { return c.findFirst(foldString(v)) }

// FindFirstInt returns the first indexed row for v, or -1.
func (c *IndexColumn) FindFirstInt(v int64) int { return c.findFirst(foldInt(v)) }

func (c *IndexColumn) findFirst(key []byte) int {
	existing, ok := c.tree.Get(key)
	if !ok {
		return -1
	}
	switch e := existing.(type) {
	case int:
		return e
	case []int:
		if len(e) == 0 {
			return -1
		}
		min := e[0]
		for _, r := range e[1:] {
			if r < min {
				min = r
			}
		}
		return min
	}
	return -1
}

// OnRowErased shifts down every stored row index greater than erased,
// keeping the index consistent after an ordered row removal (spec
// §4.4: "insert/erase track row-index drift").
func (c *IndexColumn) OnRowErased(erased int) {
	c.tree.Root().Walk(func(k []byte, v interface{}) bool {
		switch e := v.(type) {
		case int:
			if e > erased {
				tree, _, _ := c.tree.Insert(k, e-1)
				c.tree = tree
			}
		case []int:
			out := make([]int, len(e))
			for i, r := range e {
				if r > erased {
					out[i] = r - 1
				} else {
					out[i] = r
				}
			}
			tree, _, _ := c.tree.Insert(k, out)
			c.tree = tree
		}
		return false
	})
}

// OnRowInserted shifts up every stored row index at or after inserted.
func (c *IndexColumn) OnRowInserted(inserted int) {
	c.tree.Root().Walk(func(k []byte, v interface{}) bool {
		switch e := v.(type) {
		case int:
			if e >= inserted {
				tree, _, _ := c.tree.Insert(k, e+1)
				c.tree = tree
			}
		case []int:
			out := make([]int, len(e))
			for i, r := range e {
				if r >= inserted {
					out[i] = r + 1
				} else {
					out[i] = r
				}
			}
			tree, _, _ := c.tree.Insert(k, out)
			c.tree = tree
		}
		return false
	})
}
