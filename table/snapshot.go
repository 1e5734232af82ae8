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

package table

import (
	"time"

	"github.com/tidwell-embeddb/embeddb/column"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// CellKind tags the payload a Cell carries, so a Snapshot's row data is
// a concrete tagged union rather than an interface{} value (keeping
// encoding/gob's required type registration to zero).
type CellKind int

const (
	CellNull CellKind = iota
	CellInt
	CellBool
	CellDate
	CellString
	CellBinary
	CellLink
	CellLinkList
	// CellUnsupported marks a Subtable cell or any Mixed cell (whatever
	// value it holds): Snapshot does not record their content (see
	// Table.LoadTable's doc comment on the same simplification), so
	// Group.Write/WriteToMem drop these cells' content rather than
	// faithfully round-tripping it.
	CellUnsupported
)

// Cell is one column's value at one row, in a form plain enough to
// gob-encode without registering any type.
type Cell struct {
	Kind CellKind
	I    int64
	Str  string
	Bin  []byte
	List []int
}

// Snapshot is the logical content of one table: its spec and, per row,
// one Cell per column. It is the unit Group's catalog persists and
// replays, in place of true byte-for-byte B+-tree serialization (see
// DESIGN.md's note on the Subtable/Mixed exclusion above).
type Snapshot struct {
	Name string
	Spec *schema.Spec
	Rows [][]Cell
}

// Snapshot captures t's current spec and row content. Every Subtable
// cell and every Mixed cell, whatever value it holds, is recorded as
// CellUnsupported: its content is not walked (consistent with LoadTable's existing
// registry-backed simplification for nested accessors).
func (t *Table) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		Name: t.Name,
		Spec: t.spec.Clone(),
		Rows: make([][]Cell, t.size),
	}
	for row := 0; row < t.size; row++ {
		cells := make([]Cell, len(t.columns))
		for ci, c := range t.spec.Columns {
			cell, err := t.snapshotCell(c, ci, row)
			if err != nil {
				return nil, err
			}
			cells[ci] = cell
		}
		snap.Rows[row] = cells
	}
	return snap, nil
}

func (t *Table) snapshotCell(c schema.Column, ci, row int) (Cell, error) {
	switch c.Type {
	case schema.Int:
		ic := t.columns[ci].(*column.IntColumn)
		v, err := ic.Get(row)
		return Cell{Kind: CellInt, I: v}, err
	case schema.Bool:
		bc := t.columns[ci].(*column.BoolColumn)
		v, err := bc.GetBool(row)
		iv := int64(0)
		if v {
			iv = 1
		}
		return Cell{Kind: CellBool, I: iv}, err
	case schema.Date:
		dc := t.columns[ci].(*column.DateColumn)
		v, err := dc.GetDate(row)
		return Cell{Kind: CellDate, I: v.Unix()}, err
	case schema.StringCol:
		v, err := t.getStringCell(ci, row)
		return Cell{Kind: CellString, Str: v}, err
	case schema.Binary:
		bc := t.columns[ci].(*column.BinaryColumn)
		v, err := bc.Get(row)
		return Cell{Kind: CellBinary, Bin: v}, err
	case schema.Link:
		target, isNull, err := t.GetLink(ci, row)
		if err != nil {
			return Cell{}, err
		}
		if isNull {
			return Cell{Kind: CellNull}, nil
		}
		return Cell{Kind: CellLink, I: int64(target)}, nil
	case schema.LinkList:
		targets, err := t.LinkListAll(ci, row)
		if err != nil {
			return Cell{}, err
		}
		return Cell{Kind: CellLinkList, List: targets}, nil
	case schema.Subtable, schema.Mixed:
		return Cell{Kind: CellUnsupported}, nil
	case schema.BackLink:
		// Derived bookkeeping, rebuilt automatically as Link/LinkList
		// cells replay through SetLink/LinkListAdd.
		return Cell{Kind: CellNull}, nil
	default:
		return Cell{}, errs.ErrPrecondition.New("snapshot: unknown column type")
	}
}

type stringGetter interface {
	Get(row int) (string, error)
}

func (t *Table) getStringCell(ci, row int) (string, error) {
	sg, ok := t.columns[ci].(stringGetter)
	if !ok {
		return "", errs.ErrPrecondition.New("column is not string-valued")
	}
	return sg.Get(row)
}

// RestoreRows replays snap's row content onto t through the table's own
// public mutation API (AddEmptyRow, Set-style setters, SetLink,
// LinkListAdd), so backlink bookkeeping comes out correct exactly as it
// would from live writes. Every sibling table in the Group must already
// have been grown to its own snapshot's row count before any table's
// links are replayed, since a link only resolves if its target row
// already exists.
func (t *Table) RestoreRows(snap *Snapshot) error {
	for row, cells := range snap.Rows {
		for ci, cell := range cells {
			if ci >= len(t.spec.Columns) {
				continue
			}
			if err := t.restoreCell(t.spec.Columns[ci], ci, row, cell); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) restoreCell(c schema.Column, ci, row int, cell Cell) error {
	switch c.Type {
	case schema.Int:
		ic := t.columns[ci].(*column.IntColumn)
		return ic.Set(row, cell.I)
	case schema.Bool:
		bc := t.columns[ci].(*column.BoolColumn)
		return bc.SetBool(row, cell.I != 0)
	case schema.Date:
		dc := t.columns[ci].(*column.DateColumn)
		return dc.SetDate(row, time.Unix(cell.I, 0).UTC())
	case schema.StringCol:
		sc, ok := t.columns[ci].(*column.StringColumn)
		if !ok {
			return errs.ErrPrecondition.New("restore: string column required before Optimize")
		}
		return sc.Set(row, cell.Str)
	case schema.Binary:
		bc := t.columns[ci].(*column.BinaryColumn)
		return bc.Set(row, cell.Bin)
	case schema.Link:
		if cell.Kind == CellNull {
			return nil
		}
		return t.SetLink(ci, row, int(cell.I))
	case schema.LinkList:
		for _, target := range cell.List {
			if err := t.LinkListAdd(ci, row, target); err != nil {
				return err
			}
		}
		return nil
	case schema.Subtable, schema.Mixed, schema.BackLink:
		return nil
	default:
		return errs.ErrPrecondition.New("restore: unknown column type")
	}
}
