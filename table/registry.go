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

// Adjustable is the structural-change notification surface every
// row/subtable/linkview accessor registers for (spec §9: "an intrusive
// list of interested accessors on each table"). In a non-GC language
// this would be a list of weak handles; here the registry holds an
// ordinary reference to each registered accessor, which keeps it alive
// until it is removed from the registry.
type Adjustable interface {
	onInsert(row int)
	onErase(row int)
	onMoveLastOver(from, to int)
	onClear()
	onDetachColumn(col int)
}

// registry is the intrusive adjustment list consumed by every
// structural mutation (spec §4.5, §4.6).
type registry struct {
	accessors []Adjustable
}

func (r *registry) attach(a Adjustable) {
	r.accessors = append(r.accessors, a)
}

func (r *registry) detach(a Adjustable) {
	for i, acc := range r.accessors {
		if acc == a {
			r.accessors = append(r.accessors[:i], r.accessors[i+1:]...)
			return
		}
	}
}

func (r *registry) notifyInsert(row int) {
	for _, a := range r.accessors {
		a.onInsert(row)
	}
}

func (r *registry) notifyErase(row int) {
	for _, a := range r.accessors {
		a.onErase(row)
	}
}

func (r *registry) notifyMoveLastOver(from, to int) {
	for _, a := range r.accessors {
		a.onMoveLastOver(from, to)
	}
}

func (r *registry) notifyClear() {
	for _, a := range r.accessors {
		a.onClear()
	}
}

func (r *registry) notifyDetachColumn(col int) {
	for _, a := range r.accessors {
		a.onDetachColumn(col)
	}
}
