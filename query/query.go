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

// Package query implements the predicate tree and execution engine of
// spec §4.7: a Query is built by fluent composition of ParentNode
// conditions, then executed row-by-row (or, via RunParallel, across a worker
// pool) against a table.Table.
package query

import (
	"github.com/mitchellh/hashstructure"

	"github.com/tidwell-embeddb/embeddb/metrics"
	"github.com/tidwell-embeddb/embeddb/table"
)

// op enumerates the comparison a leaf ParentNode applies.
type op int

const (
	opEqual op = iota
	opNotEqual
	opGreater
	opGreaterEqual
	opLess
	opLessEqual
	opBetween
	opBeginsWith
	opEndsWith
	opContains
	opGroupStart
	opGroupEnd
	opOr
)

// ParentNode is one node of the predicate tree: either a leaf
// comparison against a column, or a structural marker (group
// start/end, or). Nodes chain via Next, mirroring spec §4.7's
// "nodes are chained via next pointers".
type ParentNode struct {
	kind     op
	col      int
	value    interface{}
	value2   interface{} // upper bound for Between
	Next     *ParentNode
}

// Query is the chainable predicate builder of spec §4.7, holding a
// back-reference to the table it was built against.
type Query struct {
	table   *table.Table
	head    *ParentNode
	tail    *ParentNode
	metrics *metrics.Metrics
}

// New starts a query over t.
func New(t *table.Table) *Query { return &Query{table: t} }

// WithMetrics attaches m so scan methods report rows visited against
// it; m may be nil, in which case every Observe* call is a no-op.
func (q *Query) WithMetrics(m *metrics.Metrics) *Query {
	q.metrics = m
	return q
}

func (q *Query) push(n *ParentNode) *Query {
	if q.head == nil {
		q.head = n
	} else {
		q.tail.Next = n
	}
	q.tail = n
	return q
}

func (q *Query) Equal(col int, v interface{}) *Query {
	return q.push(&ParentNode{kind: opEqual, col: col, value: v})
}
func (q *Query) NotEqual(col int, v interface{}) *Query {
	return q.push(&ParentNode{kind: opNotEqual, col: col, value: v})
}
func (q *Query) Greater(col int, v interface{}) *Query {
	return q.push(&ParentNode{kind: opGreater, col: col, value: v})
}
func (q *Query) GreaterEqual(col int, v interface{}) *Query {
	return q.push(&ParentNode{kind: opGreaterEqual, col: col, value: v})
}
func (q *Query) Less(col int, v interface{}) *Query {
	return q.push(&ParentNode{kind: opLess, col: col, value: v})
}
func (q *Query) LessEqual(col int, v interface{}) *Query {
	return q.push(&ParentNode{kind: opLessEqual, col: col, value: v})
}
func (q *Query) Between(col int, lo, hi interface{}) *Query {
	return q.push(&ParentNode{kind: opBetween, col: col, value: lo, value2: hi})
}
func (q *Query) BeginsWith(col int, prefix string) *Query {
	return q.push(&ParentNode{kind: opBeginsWith, col: col, value: prefix})
}
func (q *Query) EndsWith(col int, suffix string) *Query {
	return q.push(&ParentNode{kind: opEndsWith, col: col, value: suffix})
}
func (q *Query) Contains(col int, substr string) *Query {
	return q.push(&ParentNode{kind: opContains, col: col, value: substr})
}

// Group and EndGroup add group-start and group-end markers to the
// chain; the evaluator skips them, so they do not change precedence.
// Or introduces a disjunction between the preceding and following term.
// This engine evaluates left-to-right with And as the default
// combinator and treats Group/EndGroup/Or as markers the evaluator
// consumes, matching the teacher's "bytecode of chained predicate
// nodes" idiom rather than building a separate AST.
func (q *Query) Group() *Query    { return q.push(&ParentNode{kind: opGroupStart}) }
func (q *Query) EndGroup() *Query { return q.push(&ParentNode{kind: opGroupEnd}) }
func (q *Query) Or() *Query       { return q.push(&ParentNode{kind: opOr}) }

// Parent returns the back-reference to the table this query was built
// against, per spec §4.7.
func (q *Query) Parent() *table.Table { return q.table }

// Subtable narrows the query to the subtable at (col, row) of the
// table this Query was built against, returning a fresh Query scoped
// to it.
func (q *Query) Subtable(col, row int) (*Query, error) {
	sub, err := q.table.GetSubtable(col, row)
	if err != nil {
		return nil, err
	}
	return New(sub), nil
}

// Fingerprint hashes the compiled predicate tree's shape, for an
// optional plan-result cache a TableView can key on (spec §4.7's
// note that a view "tracks whether it is in sync"; in this engine the
// cache key needs the predicate's own identity too).
func (q *Query) Fingerprint() (uint64, error) {
	type flatNode struct {
		Kind   op
		Col    int
		Value  interface{}
		Value2 interface{}
	}
	var flat []flatNode
	for n := q.head; n != nil; n = n.Next {
		flat = append(flat, flatNode{Kind: n.kind, Col: n.col, Value: n.value, Value2: n.value2})
	}
	return hashstructure.Hash(flat, nil)
}
