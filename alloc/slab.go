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

package alloc

import (
	"encoding/binary"
	"sync"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tidwell-embeddb/embeddb/errs"
)

var (
	dataBucket = []byte("arrays")
	metaBucket = []byte("meta")
)

// SlabAllocator is the durable allocator described in spec §4.1: refs
// are stable, 8-byte-aligned handles whose bytes live in a single
// memory-mapped file. Rather than re-implement page management and
// mmap bookkeeping by hand, the slab allocator delegates the actual
// paged, mmap'd file to a github.com/boltdb/bolt database: every ref is
// an 8-byte big-endian key in one bucket, and bolt's own commit path
// (write new pages, fsync, swap the meta page, fsync) gives the
// allocator the same atomicity spec §6 asks for at the file-format
// level, without hand-rolled mmap growth.
type SlabAllocator struct {
	mu      sync.Mutex
	db      *bolt.DB
	next    Ref
	pending []freeEntry
	ready   []freeEntry
	log     *logrus.Entry
}

// OpenSlab opens (creating if absent) a slab-allocated file at path.
func OpenSlab(path string) (*SlabAllocator, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errs.ErrIO.New(err.Error())
	}

	a := &SlabAllocator{
		db:  db,
		log: logrus.WithField("component", "alloc.slab").WithField("path", path),
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(dataBucket); err != nil {
			return err
		}
		b, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if v := b.Get([]byte("next")); v != nil {
			a.next = Ref(binary.BigEndian.Uint64(v))
		} else {
			a.next = alignment
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening slab allocator")
	}

	return a, nil
}

func refKey(ref Ref) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(ref))
	return b[:]
}

func (a *SlabAllocator) Alloc(size int) (Ref, error) {
	if size <= 0 {
		return NullRef, errs.ErrPrecondition.New("alloc size must be > 0")
	}
	size = align(size)

	a.mu.Lock()
	for i, e := range a.ready {
		if e.size >= size {
			a.ready = append(a.ready[:i], a.ready[i+1:]...)
			ref := e.ref
			a.mu.Unlock()
			return ref, a.write(ref, make([]byte, size))
		}
	}
	ref := a.next
	a.next += Ref(size)
	a.mu.Unlock()

	if err := a.write(ref, make([]byte, size)); err != nil {
		return NullRef, err
	}
	return ref, a.saveNext()
}

func (a *SlabAllocator) saveNext() error {
	a.mu.Lock()
	next := a.next
	a.mu.Unlock()
	return a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(next))
		return b.Put([]byte("next"), buf[:])
	})
}

func (a *SlabAllocator) write(ref Ref, data []byte) error {
	err := a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(dataBucket).Put(refKey(ref), data)
	})
	if err != nil {
		return errs.ErrIO.New(err.Error())
	}
	return nil
}

// Write overwrites the region at ref, exported so array/bptree/group
// persistence can make a logical change durable without reaching past
// the Allocator interface into slab-specific internals.
func (a *SlabAllocator) Write(ref Ref, data []byte) error {
	return a.write(ref, data)
}

func (a *SlabAllocator) SetRoot(ref Ref) error {
	return a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(ref))
		return b.Put([]byte("root"), buf[:])
	})
}

func (a *SlabAllocator) Root() (Ref, error) {
	var ref Ref
	err := a.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(metaBucket).Get([]byte("root"))
		if v != nil {
			ref = Ref(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	if err != nil {
		return NullRef, errs.ErrIO.New(err.Error())
	}
	return ref, nil
}

func (a *SlabAllocator) Realloc(ref Ref, newSize int) (Ref, error) {
	old, err := a.Translate(ref)
	if err != nil {
		return NullRef, err
	}
	newRef, err := a.Alloc(newSize)
	if err != nil {
		return NullRef, errors.Wrap(err, "realloc")
	}
	buf := make([]byte, len(old))
	copy(buf, old)
	if err := a.write(newRef, buf); err != nil {
		return NullRef, err
	}
	return newRef, nil
}

func (a *SlabAllocator) Free(ref Ref, version uint64) {
	if ref == NullRef {
		return
	}
	b, err := a.Translate(ref)
	size := 0
	if err == nil {
		size = len(b)
	}
	a.mu.Lock()
	a.pending = append(a.pending, freeEntry{ref: ref, size: size, version: version})
	a.mu.Unlock()
}

func (a *SlabAllocator) Translate(ref Ref) ([]byte, error) {
	var out []byte
	err := a.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(dataBucket).Get(refKey(ref))
		if v == nil {
			return errs.ErrPrecondition.New("translate of unknown ref")
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SlabAllocator) Reclaim(oldestPinnedVersion uint64) {
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

func (a *SlabAllocator) Close() error {
	if err := a.db.Close(); err != nil {
		return errs.ErrIO.New(err.Error())
	}
	return nil
}
