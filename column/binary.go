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

// BinaryColumn is always "long": a tree of refs into a blob side-store,
// since binary cells have no small-inline fast path in this engine
// (spec §3's binary row: "refs to blob arrays").
type BinaryColumn struct {
	refs  *bptree.Tree
	blobs map[array.Ref][]byte
	next  array.Ref
}

func NewBinaryColumn(arena *array.Arena, leafSize int) (*BinaryColumn, error) {
	tr, err := bptree.New(arena, leafSize)
	if err != nil {
		return nil, err
	}
	return &BinaryColumn{refs: tr, blobs: make(map[array.Ref][]byte)}, nil
}

func (c *BinaryColumn) Type() schema.ColumnType { return schema.Binary }
func (c *BinaryColumn) Size() int               { return c.refs.Len() }

func (c *BinaryColumn) alloc(v []byte) array.Ref {
	c.next++
	ref := c.next
	buf := make([]byte, len(v))
	copy(buf, v)
	c.blobs[ref] = buf
	return ref
}

func (c *BinaryColumn) InsertDefault(row int) error { return c.Insert(row, nil) }

func (c *BinaryColumn) Insert(row int, v []byte) error {
	return c.refs.Insert(row, int64(c.alloc(v)))
}

func (c *BinaryColumn) Erase(row int) error {
	ref, err := c.refs.Get(row)
	if err != nil {
		return err
	}
	delete(c.blobs, array.Ref(ref))
	return c.refs.Erase(row)
}

func (c *BinaryColumn) Clear() error {
	c.blobs = make(map[array.Ref][]byte)
	for c.refs.Len() > 0 {
		if err := c.refs.Erase(c.refs.Len() - 1); err != nil {
			return err
		}
	}
	return nil
}

func (c *BinaryColumn) MoveLastOver(row int) error {
	last := c.refs.Len() - 1
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

func (c *BinaryColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := c.Insert(c.Size(), nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *BinaryColumn) Get(row int) ([]byte, error) {
	ref, err := c.refs.Get(row)
	if err != nil {
		return nil, err
	}
	return c.blobs[array.Ref(ref)], nil
}

func (c *BinaryColumn) Set(row int, v []byte) error {
	old, err := c.refs.Get(row)
	if err != nil {
		return err
	}
	delete(c.blobs, array.Ref(old))
	return c.refs.Set(row, int64(c.alloc(v)))
}
