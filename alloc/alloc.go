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

// Package alloc implements the allocator layer of the storage engine:
// it hands out {ref} handles for byte regions, translates refs back to
// memory, and recycles freed regions only once no pinned reader could
// still observe them (spec §4.1).
package alloc

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tidwell-embeddb/embeddb/errs"
)

// Ref is an 8-byte-aligned, opaque handle into the allocator's address
// space. Zero is reserved to mean "null ref".
type Ref uint64

// NullRef is the reserved ref value meaning "no array".
const NullRef Ref = 0

const alignment = 8

// Allocator hands out and recycles byte regions addressed by Ref. A
// process may use the in-memory DefaultAllocator for scratch structures
// or a file-backed SlabAllocator (see slab.go) for durable storage.
//
// Free is deferred: a freed ref is not available for reuse until
// Reclaim is called with a version that has passed every pinned
// reader's snapshot, per the free-list discipline in spec §4.1 and §5.
type Allocator interface {
	// Alloc returns a new ref with room for at least size bytes.
	Alloc(size int) (Ref, error)
	// Realloc grows or shrinks the region at ref, possibly returning a
	// new ref. The old ref is not released here; the caller frees it
	// with Free.
	Realloc(ref Ref, newSize int) (Ref, error)
	// Free releases ref to the version-tagged free-list.
	Free(ref Ref, version uint64)
	// Translate returns a byte slice view of the region at ref.
	Translate(ref Ref) ([]byte, error)
	// Write overwrites the region at ref with data, the mechanism every
	// structural edit (array payload rewrite, B+-tree node split,
	// Group catalog update) uses to make a logical change durable.
	Write(ref Ref, data []byte) error
	// Reclaim makes every freed ref whose free-version is older than
	// oldestPinnedVersion eligible for reuse.
	Reclaim(oldestPinnedVersion uint64)
	// SetRoot stashes the single "superblock" ref a Group needs to find
	// its catalog again after a reopen (spec §6's persisted state
	// layout: one stable entry point the rest of the file hangs off).
	SetRoot(ref Ref) error
	// Root returns the ref last passed to SetRoot, or NullRef if none.
	Root() (Ref, error)
	// Close releases any OS resources (file descriptors, mappings).
	Close() error
}

type freeEntry struct {
	ref     Ref
	size    int
	version uint64
}

// DefaultAllocator is the process-wide, lazily constructed in-memory
// allocator. Components may also construct their own instance; the
// shared instance is reachable only through Default(), per the
// "explicit allocator handle, reachable only by opt-in" design note.
type DefaultAllocator struct {
	mu       sync.Mutex
	regions  map[Ref][]byte
	next     Ref
	pending  []freeEntry
	ready    []freeEntry
	root     Ref
	log      *logrus.Entry
}

var (
	defaultOnce sync.Once
	defaultInst *DefaultAllocator
)

// Default returns the process-wide default allocator, constructing it
// on first use.
func Default() *DefaultAllocator {
	defaultOnce.Do(func() {
		defaultInst = NewDefault()
	})
	return defaultInst
}

// NewDefault constructs a fresh in-memory allocator. Most callers
// should prefer Default() unless isolation between allocators is
// required (e.g. unit tests).
func NewDefault() *DefaultAllocator {
	return &DefaultAllocator{
		regions: make(map[Ref][]byte),
		next:    alignment,
		log:     logrus.WithField("component", "alloc.default"),
	}
}

func align(size int) int {
	if size <= 0 {
		return alignment
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

func (a *DefaultAllocator) Alloc(size int) (Ref, error) {
	if size <= 0 {
		return NullRef, errs.ErrPrecondition.New("alloc size must be > 0")
	}
	size = align(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, e := range a.ready {
		if e.size >= size {
			a.ready = append(a.ready[:i], a.ready[i+1:]...)
			a.regions[e.ref] = make([]byte, size)
			return e.ref, nil
		}
	}

	ref := a.next
	a.next += Ref(size)
	a.regions[ref] = make([]byte, size)
	return ref, nil
}

func (a *DefaultAllocator) Realloc(ref Ref, newSize int) (Ref, error) {
	a.mu.Lock()
	old, ok := a.regions[ref]
	a.mu.Unlock()
	if !ok {
		return NullRef, errs.ErrPrecondition.New("realloc of unknown ref")
	}

	newRef, err := a.Alloc(newSize)
	if err != nil {
		return NullRef, errors.Wrap(err, "realloc")
	}

	a.mu.Lock()
	n := copy(a.regions[newRef], old)
	_ = n
	a.mu.Unlock()

	return newRef, nil
}

func (a *DefaultAllocator) Free(ref Ref, version uint64) {
	if ref == NullRef {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	size := len(a.regions[ref])
	delete(a.regions, ref)
	a.pending = append(a.pending, freeEntry{ref: ref, size: size, version: version})
}

func (a *DefaultAllocator) Translate(ref Ref) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.regions[ref]
	if !ok {
		return nil, errs.ErrPrecondition.New("translate of unknown ref")
	}
	return b, nil
}

func (a *DefaultAllocator) Write(ref Ref, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.regions[ref]; !ok {
		return errs.ErrPrecondition.New("write to unknown ref")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	a.regions[ref] = buf
	return nil
}

func (a *DefaultAllocator) SetRoot(ref Ref) error {
	a.mu.Lock()
	a.root = ref
	a.mu.Unlock()
	return nil
}

func (a *DefaultAllocator) Root() (Ref, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.root, nil
}

// Reclaim moves every pending free entry older than oldestPinnedVersion
// into the reusable pool.
func (a *DefaultAllocator) Reclaim(oldestPinnedVersion uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var stillPending []freeEntry
	for _, e := range a.pending {
		if e.version < oldestPinnedVersion {
			a.ready = append(a.ready, e)
		} else {
			stillPending = append(stillPending, e)
		}
	}
	a.pending = stillPending
}

func (a *DefaultAllocator) Close() error { return nil }
