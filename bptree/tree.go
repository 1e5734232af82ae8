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

// Package bptree composes array.Array nodes into the B+-tree shape
// every bulk collection in the engine uses: column roots, linklist
// cells, and the Spec's own parallel arrays (spec §4.3).
package bptree

import (
	"github.com/tidwell-embeddb/embeddb/array"
	"github.com/tidwell-embeddb/embeddb/errs"
)

// DefaultLeafSize is BPNODE_SIZE from spec §4.3: the target element
// count of a leaf before it splits.
const DefaultLeafSize = 1000

// EraseHandler lets a column supply the concrete per-element cleanup a
// generic tree can't know about (freeing a blob ref, dropping a nested
// table, removing a backlink) without the tree itself depending on any
// column type. The tree locates the leaf and local index; the handler
// does the rest (spec §4.3, "a cooperating EraseHandler callback").
type EraseHandler interface {
	EraseElement(value int64) error
}

// node is the in-memory representation of one level of the tree. A
// leaf node wraps a plain (non-has-refs) array.Array holding values
// directly; an inner node wraps a has-refs array.Array whose slots are
// child refs, alongside the live child pointers and per-child counts.
type node struct {
	arr      *array.Array
	isInner  bool
	children []*node
	counts   []int
}

func (n *node) count() int {
	if !n.isInner {
		return n.arr.Len()
	}
	total := 0
	for _, c := range n.counts {
		total += c
	}
	return total
}

// Tree is a B+-tree of array.Array nodes over int64-encoded values.
// Most column types (int/bool/date, link, linklist entries, and every
// ref-typed leaf: string-long, binary, subtable, mixed-value) build on
// this one generic tree; string-short and the search-index trie are
// the two specialized exceptions spec §4.4 calls out explicitly.
type Tree struct {
	arena    *array.Arena
	leafSize int
	root     *node
	erase    EraseHandler
}

// New constructs an empty tree (a single empty leaf as root).
func New(arena *array.Arena, leafSize int) (*Tree, error) {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	leaf, err := arena.New(false)
	if err != nil {
		return nil, err
	}
	return &Tree{
		arena:    arena,
		leafSize: leafSize,
		root:     &node{arr: leaf},
	}, nil
}

// LoadTree reconstructs a tree from the ref of a previously persisted
// root array, recursively loading every descendant through
// array.LoadArray and recomputing each inner node's per-child counts
// bottom-up. Used to reopen a column whose root ref survived a close
// (spec §6, "on reopen the column's root ref resolves back to the same
// tree shape it had at write time").
func LoadTree(arena *array.Arena, rootRef array.Ref, leafSize int) (*Tree, error) {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	root, err := loadNode(arena, rootRef)
	if err != nil {
		return nil, err
	}
	return &Tree{arena: arena, leafSize: leafSize, root: root}, nil
}

func loadNode(arena *array.Arena, ref array.Ref) (*node, error) {
	arr, err := array.LoadArray(arena, ref)
	if err != nil {
		return nil, err
	}
	if !arr.HasRefs {
		return &node{arr: arr}, nil
	}

	n := &node{arr: arr, isInner: true}
	for i := 0; i < arr.Len(); i++ {
		childRef, err := arr.GetRef(i)
		if err != nil {
			return nil, err
		}
		child, err := loadNode(arena, childRef)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
		n.counts = append(n.counts, child.count())
	}
	return n, nil
}

// SetEraseHandler installs the column-specific element-deletion
// callback (see EraseHandler).
func (t *Tree) SetEraseHandler(h EraseHandler) { t.erase = h }

// Len returns the total element count.
func (t *Tree) Len() int { return t.root.count() }

// RootRef is the ref of the tree's current root array, used by the
// owning column/table to persist the "current top of this B+-tree".
func (t *Tree) RootRef() array.Ref { return t.root.arr.Ref() }

// descend walks from n to the leaf containing logical index i, which
// must satisfy 0 <= i <= n.count() (== allowed for "insert at end").
func descend(n *node, i int) (*node, int) {
	if !n.isInner {
		return n, i
	}
	for idx, c := range n.counts {
		if i < c {
			return descend(n.children[idx], i)
		}
		i -= c
	}
	// "insert at end" hot path: land in the last child.
	last := len(n.children) - 1
	return descend(n.children[last], n.children[last].count())
}

// Get returns the value at logical index i.
func (t *Tree) Get(i int) (int64, error) {
	if i < 0 || i >= t.Len() {
		return 0, errs.ErrPrecondition.New("bptree index out of range")
	}
	leaf, local := descend(t.root, i)
	return leaf.arr.Get(local)
}

// Set overwrites the value at logical index i.
func (t *Tree) Set(i int, v int64) error {
	if i < 0 || i >= t.Len() {
		return errs.ErrPrecondition.New("bptree index out of range")
	}
	leaf, local := descend(t.root, i)
	return leaf.arr.Set(local, v)
}

// Insert places v at logical index i (0 <= i <= Len()), splitting the
// containing leaf (and propagating splits upward, growing the root if
// necessary) when it would exceed leafSize.
func (t *Tree) Insert(i int, v int64) error {
	n := t.Len()
	if i < 0 || i > n {
		return errs.ErrPrecondition.New("bptree insert index out of range")
	}
	path := t.pathTo(i)
	leaf := path[len(path)-1].n
	local := path[len(path)-1].local

	if err := leaf.arr.Insert(local, v); err != nil {
		return err
	}
	t.bumpCounts(path, 1)

	if leaf.arr.Len() > t.leafSize {
		return t.splitLeaf(path)
	}
	return nil
}

// Erase removes the element at logical index i, invoking the erase
// handler (if any) first, then collapsing an inner root left with a
// single child. An underflowed leaf is neither merged nor rebalanced;
// a leaf emptied by erasure stays in the tree with a count of zero.
func (t *Tree) Erase(i int) error {
	n := t.Len()
	if i < 0 || i >= n {
		return errs.ErrPrecondition.New("bptree erase index out of range")
	}
	path := t.pathTo(i)
	leaf := path[len(path)-1].n
	local := path[len(path)-1].local

	if t.erase != nil {
		v, err := leaf.arr.Get(local)
		if err != nil {
			return err
		}
		if err := t.erase.EraseElement(v); err != nil {
			return err
		}
	}
	if err := leaf.arr.Erase(local); err != nil {
		return err
	}
	t.bumpCounts(path, -1)
	t.collapseIfNeeded()
	return nil
}

// Append inserts v at the end; the B+-tree's hot path.
func (t *Tree) Append(v int64) error { return t.Insert(t.Len(), v) }

type step struct {
	n     *node
	local int // index within this node's own local addressing before descent (unused for leaf)
}

// pathTo returns the chain of nodes from root to the leaf containing
// logical index i (i may equal Len() for append), along with the local
// index to use for an insert/erase/get at each level.
func (t *Tree) pathTo(i int) []step {
	var path []step
	n := t.root
	for {
		if !n.isInner {
			path = append(path, step{n: n, local: i})
			return path
		}
		path = append(path, step{n: n, local: i})
		idx := len(n.children) - 1
		for k, c := range n.counts {
			if i < c || (i == c && k == len(n.counts)-1) {
				idx = k
				break
			}
			i -= c
		}
		n = n.children[idx]
	}
}

func (t *Tree) bumpCounts(path []step, delta int) {
	for k := 0; k < len(path)-1; k++ {
		inner := path[k].n
		// find which child the next path step is and bump its count.
		next := path[k+1].n
		for idx, c := range inner.children {
			if c == next {
				inner.counts[idx] += delta
				break
			}
		}
	}
}

// splitLeaf halves an overfull leaf into two siblings and threads the
// new sibling into the parent inner node, growing the root if the
// split propagates all the way up.
func (t *Tree) splitLeaf(path []step) error {
	leafNode := path[len(path)-1].n
	mid := leafNode.arr.Len() / 2

	sibling, err := t.arena.New(false)
	if err != nil {
		return err
	}
	for i := mid; i < leafNode.arr.Len(); i++ {
		v, _ := leafNode.arr.Get(i)
		if err := sibling.Insert(sibling.Len(), v); err != nil {
			return err
		}
	}
	if err := leafNode.arr.Truncate(mid); err != nil {
		return err
	}
	newNode := &node{arr: sibling}
	return t.insertSiblingIntoParent(path, len(path)-1, newNode)
}

// insertSiblingIntoParent inserts newChild immediately after the node
// at path[level] in its parent, splitting the parent in turn if it
// overflows, and growing a new root if the split reaches the top.
func (t *Tree) insertSiblingIntoParent(path []step, level int, newChild *node) error {
	if level == 0 {
		// root split: create a new inner root over the old root and newChild.
		oldRoot := t.root
		rootArr, err := t.arena.New(true)
		if err != nil {
			return err
		}
		if err := rootArr.Insert(0, int64(oldRoot.arr.Ref())); err != nil {
			return err
		}
		if err := rootArr.Insert(1, int64(newChild.arr.Ref())); err != nil {
			return err
		}
		t.root = &node{
			arr:      rootArr,
			isInner:  true,
			children: []*node{oldRoot, newChild},
			counts:   []int{oldRoot.count(), newChild.count()},
		}
		return nil
	}

	parent := path[level-1].n
	child := path[level].n
	idx := -1
	for k, c := range parent.children {
		if c == child {
			idx = k
			break
		}
	}
	if idx < 0 {
		return errs.ErrPrecondition.New("corrupt bptree: child not found in parent")
	}

	parent.children = append(parent.children, nil)
	copy(parent.children[idx+2:], parent.children[idx+1:len(parent.children)-1])
	parent.children[idx+1] = newChild

	parent.counts = append(parent.counts, 0)
	copy(parent.counts[idx+2:], parent.counts[idx+1:len(parent.counts)-1])
	parent.counts[idx] = child.count()
	parent.counts[idx+1] = newChild.count()

	if err := parent.arr.Insert(idx+1, int64(newChild.arr.Ref())); err != nil {
		return err
	}

	if len(parent.children) > t.leafSize {
		return t.splitInner(path, level-1)
	}
	return nil
}

// splitInner splits an overfull inner node at path[level] and threads
// the new sibling into its own parent.
func (t *Tree) splitInner(path []step, level int) error {
	n := path[level].n
	mid := len(n.children) / 2

	siblingArr, err := t.arena.New(true)
	if err != nil {
		return err
	}
	sibling := &node{arr: siblingArr, isInner: true}
	for i := mid; i < len(n.children); i++ {
		sibling.children = append(sibling.children, n.children[i])
		sibling.counts = append(sibling.counts, n.counts[i])
		if err := siblingArr.Insert(siblingArr.Len(), int64(n.children[i].arr.Ref())); err != nil {
			return err
		}
	}
	n.children = n.children[:mid]
	n.counts = n.counts[:mid]
	if err := n.arr.Truncate(mid); err != nil {
		return err
	}

	return t.insertSiblingIntoParent(path, level, sibling)
}

// collapseIfNeeded shrinks an inner root with a single remaining child
// down to that child. It does not merge, borrow for, or remove an
// underflowed non-root leaf.
func (t *Tree) collapseIfNeeded() {
	for t.root.isInner && len(t.root.children) == 1 {
		t.root = t.root.children[0]
	}
}
