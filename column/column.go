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

// Package column implements the column family (spec §4.4): typed
// wrappers over a bptree.Tree (or, for the two specialized leaf
// flavors spec.md calls out, over their own leaf shape) exposing a
// common value-oriented API.
package column

import (
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/errs"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// Column is the structural surface every column type implements,
// dispatched directly by table.Table for row-shape maintenance. Typed
// value access (Get/Set/FindFirst/...) lives on each concrete type and
// is reached by a type switch at the few call sites that need it (the
// query engine, the mixed column), per spec §9's "tagged enum of
// accessor variants plus trait-object dispatch for the common surface".
type Column interface {
	Type() schema.ColumnType
	Size() int
	// InsertDefault inserts one default-valued cell at row.
	InsertDefault(row int) error
	Erase(row int) error
	Clear() error
	// MoveLastOver implements spec §4.4's primary unordered-deletion
	// primitive: swap the last cell into row, then shrink by one.
	MoveLastOver(row int) error
	// Fill appends n default-valued cells (spec §4.4).
	Fill(n int) error
}

// NestedTable is the minimal surface a Subtable or Mixed column needs
// from the table package to cache and release subtable accessors,
// without column importing table (table imports column instead; see
// DESIGN.md).
type NestedTable interface {
	Ref() array.Ref
	Retain()
	Release()
}

// TableFactory constructs or loads a nested table for a Subtable/Mixed
// cell. table.Table satisfies this via table.NewNestedFactory.
type TableFactory interface {
	NewTable(spec *schema.Spec) (NestedTable, error)
	LoadTable(ref array.Ref, spec *schema.Spec) (NestedTable, error)
}

// ErrWrongType is returned when a caller asks for a typed accessor a
// concrete column does not implement (e.g. FindFirst on a mixed
// column).
var ErrWrongType = errs.ErrPrecondition
