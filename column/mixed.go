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
	"time"

	"github.com/spf13/cast"

	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// MixedType tags the payload currently held by a mixed cell.
type MixedType int

const (
	MixedNull MixedType = iota
	MixedInt
	MixedBool
	MixedDate
	MixedString
	MixedBinary
	MixedSubtable
)

// MixedColumn is three parallel structures (spec §4.4): a types column,
// a values column holding either an inline int/bool/date or a ref
// (string blob, binary blob, or nested table), and a binary side-store
// for binary-tagged cells.
type MixedColumn struct {
	types  *IntColumn
	values *IntColumn // inline payload, or a ref for string/binary/subtable
	arena  *array.Arena
	leaf   int

	strings map[array.Ref]string
	blobs   map[array.Ref][]byte
	nextRef array.Ref

	spec    *schema.Spec // own (non-shared) sub-spec for subtable-tagged cells
	factory TableFactory
	tables  map[int]NestedTable
}

func NewMixedColumn(arena *array.Arena, leafSize int, spec *schema.Spec, factory TableFactory) (*MixedColumn, error) {
	types, err := NewIntColumn(arena, leafSize, true)
	if err != nil {
		return nil, err
	}
	values, err := NewIntColumn(arena, leafSize, true)
	if err != nil {
		return nil, err
	}
	return &MixedColumn{
		types:   types,
		values:  values,
		arena:   arena,
		leaf:    leafSize,
		strings: make(map[array.Ref]string),
		blobs:   make(map[array.Ref][]byte),
		spec:    spec,
		factory: factory,
		tables:  make(map[int]NestedTable),
	}, nil
}

func (c *MixedColumn) Type() schema.ColumnType { return schema.Mixed }
func (c *MixedColumn) Size() int               { return c.types.Size() }

func (c *MixedColumn) InsertDefault(row int) error {
	if err := c.types.tree.Insert(row, int64(MixedNull)); err != nil {
		return err
	}
	return c.values.tree.Insert(row, 0)
}

// freePayload releases any out-of-line resource (blob, nested table)
// the current value at row holds, per spec §4.4: "writing a value of a
// different type frees the previous payload's resources".
func (c *MixedColumn) freePayload(row int) error {
	t, err := c.types.Get(row)
	if err != nil {
		return err
	}
	v, err := c.values.Get(row)
	if err != nil {
		return err
	}
	switch MixedType(t) {
	case MixedString:
		delete(c.strings, array.Ref(v))
	case MixedBinary:
		delete(c.blobs, array.Ref(v))
	case MixedSubtable:
		if acc, ok := c.tables[row]; ok {
			acc.Release()
			delete(c.tables, row)
		}
	}
	return nil
}

func (c *MixedColumn) Erase(row int) error {
	if err := c.freePayload(row); err != nil {
		return err
	}
	if err := c.types.tree.Erase(row); err != nil {
		return err
	}
	return c.values.tree.Erase(row)
}

func (c *MixedColumn) Clear() error {
	for i := 0; i < c.Size(); i++ {
		_ = c.freePayload(i)
	}
	c.strings = make(map[array.Ref]string)
	c.blobs = make(map[array.Ref][]byte)
	c.tables = make(map[int]NestedTable)
	if err := c.types.Clear(); err != nil {
		return err
	}
	return c.values.Clear()
}

func (c *MixedColumn) MoveLastOver(row int) error {
	last := c.Size() - 1
	if row < 0 || row > last {
		return errs.ErrPrecondition.New("move_last_over index out of range")
	}
	if err := c.freePayload(row); err != nil {
		return err
	}
	t, _ := c.types.Get(last)
	v, _ := c.values.Get(last)
	if row != last {
		if err := c.types.Set(row, t); err != nil {
			return err
		}
		if err := c.values.Set(row, v); err != nil {
			return err
		}
		if acc, ok := c.tables[last]; ok {
			c.tables[row] = acc
			delete(c.tables, last)
		}
	}
	if err := c.types.tree.Erase(last); err != nil {
		return err
	}
	return c.values.tree.Erase(last)
}

func (c *MixedColumn) Fill(n int) error {
	for i := 0; i < n; i++ {
		if err := c.InsertDefault(c.Size()); err != nil {
			return err
		}
	}
	return nil
}

// GetMixedType returns the tag currently held at row.
func (c *MixedColumn) GetMixedType(row int) (MixedType, error) {
	v, err := c.types.Get(row)
	return MixedType(v), err
}

// Get returns the Go value currently held at row, using spf13/cast-
// compatible primitive types (int64, bool, time.Time, string, []byte)
// or a NestedTable for a subtable-tagged cell.
func (c *MixedColumn) Get(row int) (interface{}, error) {
	t, err := c.GetMixedType(row)
	if err != nil {
		return nil, err
	}
	v, err := c.values.Get(row)
	if err != nil {
		return nil, err
	}
	switch t {
	case MixedNull:
		return nil, nil
	case MixedInt:
		return v, nil
	case MixedBool:
		return v != 0, nil
	case MixedDate:
		return time.Unix(v, 0).UTC(), nil
	case MixedString:
		return c.strings[array.Ref(v)], nil
	case MixedBinary:
		return c.blobs[array.Ref(v)], nil
	case MixedSubtable:
		acc := c.tables[row]
		acc.Retain()
		return acc, nil
	default:
		return nil, errs.ErrPrecondition.New("unknown mixed type tag")
	}
}

// Set coerces value into the mixed representation, freeing whatever
// the cell previously held.
func (c *MixedColumn) Set(row int, value interface{}) error {
	if err := c.freePayload(row); err != nil {
		return err
	}
	switch val := value.(type) {
	case nil:
		return c.write(row, MixedNull, 0)
	case bool:
		iv := int64(0)
		if val {
			iv = 1
		}
		return c.write(row, MixedBool, iv)
	case time.Time:
		return c.write(row, MixedDate, val.Unix())
	case string:
		c.nextRef++
		c.strings[c.nextRef] = val
		return c.write(row, MixedString, int64(c.nextRef))
	case []byte:
		c.nextRef++
		buf := make([]byte, len(val))
		copy(buf, val)
		c.blobs[c.nextRef] = buf
		return c.write(row, MixedBinary, int64(c.nextRef))
	default:
		iv, err := cast.ToInt64E(value)
		if err != nil {
			return errs.ErrPrecondition.New("value cannot be coerced into a mixed cell")
		}
		return c.write(row, MixedInt, iv)
	}
}

func (c *MixedColumn) write(row int, t MixedType, v int64) error {
	if err := c.types.Set(row, int64(t)); err != nil {
		return err
	}
	return c.values.Set(row, v)
}

// SetSubtable tags row as a nested table, materializing one via the
// column's factory.
func (c *MixedColumn) SetSubtable(row int) (NestedTable, error) {
	if err := c.freePayload(row); err != nil {
		return nil, err
	}
	acc, err := c.factory.NewTable(c.spec)
	if err != nil {
		return nil, err
	}
	if err := c.write(row, MixedSubtable, int64(acc.Ref())); err != nil {
		return nil, err
	}
	c.tables[row] = acc
	acc.Retain()
	return acc, nil
}
