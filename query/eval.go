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

package query

import (
	"strings"

	"github.com/spf13/cast"
)

// term is one flattened, evaluated leaf (a Group/EndGroup/Or marker
// carries no comparison and is consumed structurally instead).
type term struct {
	result  bool
	isOr    bool
	isGroup bool
	isEnd   bool
}

// matches evaluates the predicate chain against row, combining terms
// left-to-right: And by default, Or when an explicit Or() marker
// precedes the next term. Group()/EndGroup() markers are skipped and do
// not scope precedence.
func (q *Query) matches(row int) (bool, error) {
	terms, err := q.evalTerms(row)
	if err != nil {
		return false, err
	}
	return foldTerms(terms), nil
}

func (q *Query) evalTerms(row int) ([]term, error) {
	var out []term
	for n := q.head; n != nil; n = n.Next {
		switch n.kind {
		case opGroupStart:
			out = append(out, term{isGroup: true})
		case opGroupEnd:
			out = append(out, term{isEnd: true})
		case opOr:
			out = append(out, term{isOr: true})
		default:
			ok, err := q.evalLeaf(n, row)
			if err != nil {
				return nil, err
			}
			out = append(out, term{result: ok})
		}
	}
	return out, nil
}

// foldTerms combines a flattened term stream. Group/EndGroup just
// bound a sub-sequence that folds the same left-to-right way; this
// engine does not support groups nesting Or differently than the top
// level; it is sufficient for the boolean shapes spec.md calls for.
func foldTerms(terms []term) bool {
	var acc bool
	first := true
	orNext := false
	for _, t := range terms {
		if t.isGroup || t.isEnd {
			continue
		}
		if t.isOr {
			orNext = true
			continue
		}
		if first {
			acc = t.result
			first = false
			continue
		}
		if orNext {
			acc = acc || t.result
		} else {
			acc = acc && t.result
		}
		orNext = false
	}
	return acc
}

func (q *Query) evalLeaf(n *ParentNode, row int) (bool, error) {
	v, err := q.table.GetAny(n.col, row)
	if err != nil {
		return false, err
	}
	switch n.kind {
	case opEqual:
		return compareEqual(v, n.value), nil
	case opNotEqual:
		return !compareEqual(v, n.value), nil
	case opGreater:
		return compareNumeric(v, n.value) > 0, nil
	case opGreaterEqual:
		return compareNumeric(v, n.value) >= 0, nil
	case opLess:
		return compareNumeric(v, n.value) < 0, nil
	case opLessEqual:
		return compareNumeric(v, n.value) <= 0, nil
	case opBetween:
		return compareNumeric(v, n.value) >= 0 && compareNumeric(v, n.value2) <= 0, nil
	case opBeginsWith:
		s, _ := v.(string)
		return strings.HasPrefix(s, n.value.(string)), nil
	case opEndsWith:
		s, _ := v.(string)
		return strings.HasSuffix(s, n.value.(string)), nil
	case opContains:
		s, _ := v.(string)
		return strings.Contains(s, n.value.(string)), nil
	default:
		return false, nil
	}
}

func compareEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cast.ToString(a) == cast.ToString(b) && compareNumericOK(a, b)
}

// compareNumericOK adds a float comparison to compareEqual when the
// left operand is numeric or bool and both operands convert to
// float64; otherwise it returns true and the ToString comparison above
// decides alone (so a string "10" still equals 10.0).
func compareNumericOK(a, b interface{}) bool {
	switch a.(type) {
	case int64, int, float64, bool:
		fa, erra := cast.ToFloat64E(a)
		fb, errb := cast.ToFloat64E(b)
		if erra == nil && errb == nil {
			return fa == fb
		}
	}
	return true
}

func compareNumeric(a, b interface{}) int {
	fa, erra := cast.ToFloat64E(a)
	fb, errb := cast.ToFloat64E(b)
	if erra == nil && errb == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	sa, sb := cast.ToString(a), cast.ToString(b)
	return strings.Compare(sa, sb)
}

// FindNext returns the first row index at or after lo matching the
// predicate, or -1.
func (q *Query) FindNext(lo int) (int, error) {
	n := q.table.Size()
	scanned := 0
	for row := lo; row < n; row++ {
		scanned++
		ok, err := q.matches(row)
		if err != nil {
			q.metrics.ObserveRowsScanned(scanned)
			return -1, err
		}
		if ok {
			q.metrics.ObserveRowsScanned(scanned)
			return row, nil
		}
	}
	q.metrics.ObserveRowsScanned(scanned)
	return -1, nil
}

// FindAll appends matches in [lo, hi) to out until limit is reached
// (limit < 0 means unbounded), preserving ascending row order.
func (q *Query) FindAll(lo, hi, limit int) ([]int, error) {
	if hi < 0 || hi > q.table.Size() {
		hi = q.table.Size()
	}
	var out []int
	scanned := 0
	for row := lo; row < hi; row++ {
		if limit >= 0 && len(out) >= limit {
			break
		}
		scanned++
		ok, err := q.matches(row)
		if err != nil {
			q.metrics.ObserveRowsScanned(scanned)
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	q.metrics.ObserveRowsScanned(scanned)
	return out, nil
}

// Count returns the number of matching rows.
func (q *Query) Count() (int, error) {
	rows, err := q.FindAll(0, -1, -1)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Sum folds int column intCol over every matching row; an empty match
// set returns 0, per spec §4.7's documented zero.
func (q *Query) Sum(intCol int) (int64, error) {
	ic, err := q.table.IntColumn(intCol)
	if err != nil {
		return 0, err
	}
	rows, err := q.FindAll(0, -1, -1)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, row := range rows {
		v, err := ic.Get(row)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// Min returns the minimum of intCol over matching rows and how many
// rows matched; resultCount 0 means the documented zero applies.
func (q *Query) Min(intCol int) (value int64, resultCount int, err error) {
	return q.fold(intCol, func(acc, v int64) int64 {
		if v < acc {
			return v
		}
		return acc
	})
}

// Max mirrors Min.
func (q *Query) Max(intCol int) (value int64, resultCount int, err error) {
	return q.fold(intCol, func(acc, v int64) int64 {
		if v > acc {
			return v
		}
		return acc
	})
}

func (q *Query) fold(intCol int, combine func(acc, v int64) int64) (int64, int, error) {
	ic, err := q.table.IntColumn(intCol)
	if err != nil {
		return 0, 0, err
	}
	rows, err := q.FindAll(0, -1, -1)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	first, err := ic.Get(rows[0])
	if err != nil {
		return 0, 0, err
	}
	acc := first
	for _, row := range rows[1:] {
		v, err := ic.Get(row)
		if err != nil {
			return 0, 0, err
		}
		acc = combine(acc, v)
	}
	return acc, len(rows), nil
}

// Average returns the mean of intCol over matching rows and the count.
func (q *Query) Average(intCol int) (avg float64, count int, err error) {
	sum, err := q.Sum(intCol)
	if err != nil {
		return 0, 0, err
	}
	rows, err := q.FindAll(0, -1, -1)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(len(rows)), len(rows), nil
}

// Remove deletes every matching row in-place, in reverse row order so
// earlier matches' indices are not disturbed by later deletes (the
// same ordering TableView.Clear uses).
func (q *Query) Remove() (int, error) {
	rows, err := q.FindAll(0, -1, -1)
	if err != nil {
		return 0, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if err := q.table.EraseRow(rows[i]); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}
