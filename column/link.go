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
	"github.com/tidwell-embeddb/embeddb/schema"
)

// LinkColumn stores target_row+1 per cell (0 = null), per spec §4.4.
// Backlink maintenance (adding/removing the reciprocal entry on the
// target table, cascading strong-link deletes) is orchestrated one
// level up by table.Table, which has visibility into the rest of the
// Group's tables; LinkColumn itself is pure storage.
type LinkColumn struct {
	*IntColumn
	Kind schema.LinkType
}

func NewLinkColumn(arena *array.Arena, leafSize int, kind schema.LinkType) (*LinkColumn, error) {
	ic, err := NewIntColumn(arena, leafSize, true)
	if err != nil {
		return nil, err
	}
	ic.typ = schema.Link
	return &LinkColumn{IntColumn: ic, Kind: kind}, nil
}

// LoadLinkColumn reconstructs a link column from a persisted tree root.
func LoadLinkColumn(arena *array.Arena, leafSize int, kind schema.LinkType, rootRef array.Ref) (*LinkColumn, error) {
	ic, err := LoadIntColumn(arena, leafSize, true, schema.Link, rootRef)
	if err != nil {
		return nil, err
	}
	return &LinkColumn{IntColumn: ic, Kind: kind}, nil
}

// GetLink returns the (target row, isNull) pair at row.
func (c *LinkColumn) GetLink(row int) (target int, isNull bool, err error) {
	v, err := c.Get(row)
	if err != nil {
		return 0, false, err
	}
	if v == 0 {
		return 0, true, nil
	}
	return int(v) - 1, false, nil
}

// SetLink points row at target (>= 0); use SetNull to clear.
func (c *LinkColumn) SetLink(row int, target int) error {
	return c.Set(row, int64(target)+1)
}

// SetNull clears row's link.
func (c *LinkColumn) SetNull(row int) error {
	return c.Set(row, 0)
}
