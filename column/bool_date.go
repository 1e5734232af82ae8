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

	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// BoolColumn encodes true/false as 1/0 over an IntColumn.
type BoolColumn struct{ *IntColumn }

func NewBoolColumn(arena *array.Arena, leafSize int, nullable bool) (*BoolColumn, error) {
	ic, err := NewIntColumn(arena, leafSize, nullable)
	if err != nil {
		return nil, err
	}
	ic.typ = schema.Bool
	return &BoolColumn{ic}, nil
}

// LoadBoolColumn reconstructs a bool column from a persisted tree root.
func LoadBoolColumn(arena *array.Arena, leafSize int, nullable bool, rootRef array.Ref) (*BoolColumn, error) {
	ic, err := LoadIntColumn(arena, leafSize, nullable, schema.Bool, rootRef)
	if err != nil {
		return nil, err
	}
	return &BoolColumn{ic}, nil
}

func (c *BoolColumn) GetBool(row int) (bool, error) {
	v, err := c.Get(row)
	return v != 0, err
}

func (c *BoolColumn) SetBool(row int, v bool) error {
	if v {
		return c.Set(row, 1)
	}
	return c.Set(row, 0)
}

// DateColumn encodes a time.Time as Unix seconds over an IntColumn.
type DateColumn struct{ *IntColumn }

func NewDateColumn(arena *array.Arena, leafSize int, nullable bool) (*DateColumn, error) {
	ic, err := NewIntColumn(arena, leafSize, nullable)
	if err != nil {
		return nil, err
	}
	ic.typ = schema.Date
	return &DateColumn{ic}, nil
}

// LoadDateColumn reconstructs a date column from a persisted tree root.
func LoadDateColumn(arena *array.Arena, leafSize int, nullable bool, rootRef array.Ref) (*DateColumn, error) {
	ic, err := LoadIntColumn(arena, leafSize, nullable, schema.Date, rootRef)
	if err != nil {
		return nil, err
	}
	return &DateColumn{ic}, nil
}

func (c *DateColumn) GetDate(row int) (time.Time, error) {
	v, err := c.Get(row)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

func (c *DateColumn) SetDate(row int, v time.Time) error {
	return c.Set(row, v.Unix())
}
