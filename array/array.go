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

// Package array implements the universal building block of the storage
// engine: a dense, bit-width-specialized vector of integers (spec
// §4.2). Every B+-tree node, every column leaf, and every "has-refs"
// tree of child pointers is one of these.
package array

import (
	"encoding/binary"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/errs"
)

// Ref re-exports alloc.Ref so callers rarely need to import alloc
// directly for the common case of naming an array.
type Ref = alloc.Ref

// NullRef is the reserved ref meaning "no array".
const NullRef = alloc.NullRef

// Parent is implemented by anything that can receive a new ref for one
// of its slots: another Array (an inner B+-tree node), a Column's root
// holder, or a Table's columns-array slot. Routing every structural
// edit through this interface avoids raw aliased back-pointers (spec
// §9, "parent-back-pointer graph on arrays").
type Parent interface {
	SetChildRef(slot int, ref Ref) error
}

// Link is the (parent, slot) pair an attached Array writes its new ref
// into whenever a copy-on-write reallocation changes that ref.
type Link struct {
	Parent Parent
	Slot   int
}

// bitWidthFor returns the smallest supported width in {0,1,2,4,8,16,32,64}
// that can represent v in two's complement. Width 0 means every element
// seen so far is 0.
func bitWidthFor(v int64) int {
	switch {
	case v == 0:
		return 0
	case v == -1:
		return 1
	case v >= -2 && v <= 1:
		return 2
	case v >= -8 && v <= 7:
		return 4
	case v >= -128 && v <= 127:
		return 8
	case v >= -32768 && v <= 32767:
		return 16
	case v >= -(1<<31) && v <= (1<<31)-1:
		return 32
	default:
		return 64
	}
}

func widen(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// widthTable maps a 3-bit width code to its bit width, per spec §6's
// on-disk array header ("3-bit width code").
var widthTable = [8]int{0, 1, 2, 4, 8, 16, 32, 64}

func widthCode(width int) byte {
	for code, w := range widthTable {
		if w == width {
			return byte(code)
		}
	}
	return 0
}

const headerSize = 8

// encodeArray serializes a header (flags, width code, element count,
// payload byte count) plus the bit-packed payload into one 8-byte-
// aligned buffer, per spec §6's on-disk array format.
func encodeArray(hasRefs, isInner bool, width int, data []int64) []byte {
	payload := packPayload(data, width)
	total := alignUp(headerSize + len(payload))
	buf := make([]byte, total)

	var flags byte
	if hasRefs {
		flags |= 1 << 0
	}
	if isInner {
		flags |= 1 << 1
	}
	buf[0] = flags
	buf[1] = widthCode(width)

	count := len(data)
	buf[2] = byte(count)
	buf[3] = byte(count >> 8)
	buf[4] = byte(count >> 16)

	payloadLen := len(payload)
	buf[5] = byte(payloadLen)
	buf[6] = byte(payloadLen >> 8)
	buf[7] = byte(payloadLen >> 16)

	copy(buf[headerSize:], payload)
	return buf
}

// decodeArray is encodeArray's inverse, used by LoadArray (full
// reconstruction from a ref).
func decodeArray(buf []byte) (hasRefs, isInner bool, width int, data []int64, err error) {
	if len(buf) < headerSize {
		return false, false, 0, nil, errs.ErrCorruptFile.New("array region shorter than header")
	}
	flags := buf[0]
	hasRefs = flags&(1<<0) != 0
	isInner = flags&(1<<1) != 0
	code := int(buf[1] & 0x7)
	if code >= len(widthTable) {
		return false, false, 0, nil, errs.ErrCorruptFile.New("array header has invalid width code")
	}
	width = widthTable[code]
	count := int(buf[2]) | int(buf[3])<<8 | int(buf[4])<<16
	payloadLen := int(buf[5]) | int(buf[6])<<8 | int(buf[7])<<16
	if headerSize+payloadLen > len(buf) {
		return false, false, 0, nil, errs.ErrCorruptFile.New("array payload exceeds region size")
	}
	data = unpackPayload(buf[headerSize:headerSize+payloadLen], width, count)
	return hasRefs, isInner, width, data, nil
}

// packPayload bit-packs count values of the given width, little-endian
// within each byte, matching spec §6: "payload follows, bit-packed".
func packPayload(data []int64, width int) []byte {
	if width == 0 || len(data) == 0 {
		return nil
	}
	if width%8 == 0 {
		stride := width / 8
		buf := make([]byte, len(data)*stride)
		for i, v := range data {
			switch width {
			case 8:
				buf[i] = byte(v)
			case 16:
				binary.LittleEndian.PutUint16(buf[i*stride:], uint16(v))
			case 32:
				binary.LittleEndian.PutUint32(buf[i*stride:], uint32(v))
			case 64:
				binary.LittleEndian.PutUint64(buf[i*stride:], uint64(v))
			}
		}
		return buf
	}

	totalBits := len(data) * width
	buf := make([]byte, (totalBits+7)/8)
	mask := uint64(1)<<uint(width) - 1
	for i, v := range data {
		uv := uint64(v) & mask
		base := i * width
		for b := 0; b < width; b++ {
			if uv&(1<<uint(b)) != 0 {
				pos := base + b
				buf[pos/8] |= 1 << uint(pos%8)
			}
		}
	}
	return buf
}

// unpackPayload is packPayload's inverse, sign-extending each value back
// to a full int64 per its two's-complement width.
func unpackPayload(buf []byte, width, count int) []int64 {
	out := make([]int64, count)
	if width == 0 {
		return out
	}
	if width%8 == 0 {
		stride := width / 8
		for i := 0; i < count; i++ {
			off := i * stride
			switch width {
			case 8:
				out[i] = int64(int8(buf[off]))
			case 16:
				out[i] = int64(int16(binary.LittleEndian.Uint16(buf[off:])))
			case 32:
				out[i] = int64(int32(binary.LittleEndian.Uint32(buf[off:])))
			case 64:
				out[i] = int64(binary.LittleEndian.Uint64(buf[off:]))
			}
		}
		return out
	}

	signBit := uint64(1) << uint(width-1)
	for i := 0; i < count; i++ {
		var uv uint64
		base := i * width
		for b := 0; b < width; b++ {
			pos := base + b
			if pos/8 < len(buf) && buf[pos/8]&(1<<uint(pos%8)) != 0 {
				uv |= 1 << uint(b)
			}
		}
		if uv&signBit != 0 {
			uv |= ^uint64(0) << uint(width)
		}
		out[i] = int64(uv)
	}
	return out
}

// Array is a self-describing, densely packed vector of int64-encoded
// slots. When HasRefs is set, every slot is either 0 or a valid Ref to
// another Array, and the Array additionally behaves as a Parent for
// each of its children at the matching slot index.
type Array struct {
	arena   *Arena
	ref     Ref
	HasRefs bool
	// IsInner marks a B+-tree inner node payload (child refs plus
	// per-child counts), as opposed to a leaf.
	IsInner bool
	width   int
	data    []int64
	link    *Link

	// byteCap is the size, in bytes, of the region currently allocated
	// at ref. rewriteInPlace writes the new serialized form under the
	// same ref whatever its size; only a width upgrade reallocates.
	byteCap int
}

// Arena owns the set of live, attached Array nodes and the allocator
// backing their storage. Routing allocation through one Arena per Group
// keeps ref bookkeeping (and free-list deferral) in one place.
type Arena struct {
	alloc   alloc.Allocator
	version uint64
}

// NewArena wraps an Allocator for use by array/column/table code. The
// version is the Arena's current write version; Free calls tag the
// free-list entry with it.
func NewArena(a alloc.Allocator) *Arena {
	return &Arena{alloc: a}
}

func (ar *Arena) Allocator() alloc.Allocator { return ar.alloc }

func (ar *Arena) SetVersion(v uint64) { ar.version = v }

// New allocates a fresh, empty array in the arena, writing its initial
// (empty, width-0) header through the allocator immediately so the
// region is byte-valid even before the first mutation.
func (ar *Arena) New(hasRefs bool) (*Array, error) {
	buf := encodeArray(hasRefs, false, 0, nil)
	ref, err := ar.alloc.Alloc(len(buf))
	if err != nil {
		return nil, err
	}
	if err := ar.alloc.Write(ref, buf); err != nil {
		return nil, err
	}
	return &Array{arena: ar, ref: ref, HasRefs: hasRefs, width: 0, byteCap: len(buf)}, nil
}

// LoadArray reconstructs an Array from its previously persisted bytes at
// ref, the inverse of the encodeArray write every mutating method makes. The
// returned Array has no parent Link attached; callers that need ref
// updates to propagate (an inner B+-tree node) must SetParent it.
func LoadArray(arena *Arena, ref Ref) (*Array, error) {
	buf, err := arena.alloc.Translate(ref)
	if err != nil {
		return nil, err
	}
	hasRefs, isInner, width, data, err := decodeArray(buf)
	if err != nil {
		return nil, err
	}
	return &Array{
		arena:   arena,
		ref:     ref,
		HasRefs: hasRefs,
		IsInner: isInner,
		width:   width,
		data:    data,
		byteCap: alignUp(len(buf)),
	}, nil
}

func alignUp(n int) int {
	if n < 8 {
		return 8
	}
	return (n + 7) &^ 7
}

// Ref is the array's current stable handle. It changes only across a
// copy-on-write reallocation (Set triggering a width upgrade).
func (a *Array) Ref() Ref { return a.ref }

// Len returns the element count.
func (a *Array) Len() int { return len(a.data) }

// SetParent attaches (or clears, with parent==nil) the (parent, slot)
// link this array notifies on a ref change.
func (a *Array) SetParent(p Parent, slot int) {
	if p == nil {
		a.link = nil
		return
	}
	a.link = &Link{Parent: p, Slot: slot}
}

func (a *Array) updateParent() error {
	if a.link == nil {
		return nil
	}
	return a.link.Parent.SetChildRef(a.link.Slot, a.ref)
}

// SetChildRef implements Parent: a.data[slot] receives ref. Used when
// this array is itself a B+-tree inner node or any has-refs array.
func (a *Array) SetChildRef(slot int, ref Ref) error {
	if !a.HasRefs {
		return errs.ErrPrecondition.New("SetChildRef on a non has-refs array")
	}
	if slot < 0 || slot >= len(a.data) {
		return errs.ErrPrecondition.New("child slot out of range")
	}
	a.data[slot] = int64(ref)
	return a.rewriteInPlace()
}

// Get returns the logical value at i.
func (a *Array) Get(i int) (int64, error) {
	if i < 0 || i >= len(a.data) {
		return 0, errs.ErrPrecondition.New("array index out of range")
	}
	return a.data[i], nil
}

// GetRef is a convenience for HasRefs arrays.
func (a *Array) GetRef(i int) (Ref, error) {
	v, err := a.Get(i)
	return Ref(v), err
}

// Set assigns v at i, upgrading the array's bit width (via
// copy-on-write reallocation) if v no longer fits.
func (a *Array) Set(i int, v int64) error {
	if i < 0 || i >= len(a.data) {
		return errs.ErrPrecondition.New("array index out of range")
	}
	need := widen(a.width, bitWidthFor(v))
	a.data[i] = v
	if need != a.width {
		return a.upgrade(need)
	}
	return a.rewriteInPlace()
}

// Insert adds v at position i, shifting trailing elements right.
func (a *Array) Insert(i int, v int64) error {
	if i < 0 || i > len(a.data) {
		return errs.ErrPrecondition.New("array insert index out of range")
	}
	a.data = append(a.data, 0)
	copy(a.data[i+1:], a.data[i:len(a.data)-1])
	a.data[i] = v

	need := widen(a.width, bitWidthFor(v))
	if need != a.width {
		return a.upgrade(need)
	}
	return a.rewriteInPlace()
}

// Erase removes the element at i, shifting trailing elements left.
func (a *Array) Erase(i int) error {
	if i < 0 || i >= len(a.data) {
		return errs.ErrPrecondition.New("array erase index out of range")
	}
	a.data = append(a.data[:i], a.data[i+1:]...)
	return a.rewriteInPlace()
}

// Truncate drops the array to n elements (n <= Len()).
func (a *Array) Truncate(n int) error {
	if n < 0 || n > len(a.data) {
		return errs.ErrPrecondition.New("truncate length out of range")
	}
	a.data = a.data[:n]
	return a.rewriteInPlace()
}

// Clear removes every element, keeping the array ref in place and
// resetting the width to 0; leaf byte reclamation is deferred to the allocator free-list,
// matching spec §4.4 ("clear is O(1) at the root").
func (a *Array) Clear() error {
	a.data = a.data[:0]
	a.width = 0
	return a.rewriteInPlace()
}

// Fill appends n default-valued (zero) slots.
func (a *Array) Fill(n int) error {
	if n < 0 {
		return errs.ErrPrecondition.New("fill count must be >= 0")
	}
	for i := 0; i < n; i++ {
		a.data = append(a.data, 0)
	}
	return a.rewriteInPlace()
}

// upgrade performs the copy-on-write width change: a new array is
// allocated, the payload re-encoded at newWidth and written there, the
// old ref released to the free-list, and the parent notified of the new
// ref.
func (a *Array) upgrade(newWidth int) error {
	a.width = newWidth
	buf := encodeArray(a.HasRefs, a.IsInner, a.width, a.data)

	newRef, err := a.arena.alloc.Realloc(a.ref, len(buf))
	if err != nil {
		return errs.ErrOutOfMemory.New(err.Error())
	}
	if err := a.arena.alloc.Write(newRef, buf); err != nil {
		return errs.ErrIO.New(err.Error())
	}
	oldRef := a.ref
	a.arena.alloc.Free(oldRef, a.arena.version)
	a.ref = newRef
	a.byteCap = len(buf)
	return a.updateParent()
}

// rewriteInPlace persists the current payload to the backing allocator
// region, under the same ref, matching spec §6's on-disk array header
// (flags, 3-bit width code, element count, byte capacity, bit-packed
// payload). Every mutating method funnels through here or upgrade, so
// the allocator's byte store — not a.data — is the durable record of an
// Array's contents; a.data is a decoded cache of whatever was last
// written.
func (a *Array) rewriteInPlace() error {
	buf := encodeArray(a.HasRefs, a.IsInner, a.width, a.data)
	if err := a.arena.alloc.Write(a.ref, buf); err != nil {
		return errs.ErrIO.New(err.Error())
	}
	a.byteCap = len(buf)
	return nil
}

// FindFirst returns the first index in [lo, hi) whose value equals v,
// or -1.
func (a *Array) FindFirst(v int64, lo, hi int) int {
	if hi > len(a.data) {
		hi = len(a.data)
	}
	for i := lo; i < hi; i++ {
		if a.data[i] == v {
			return i
		}
	}
	return -1
}

// FindAll appends every index in [lo, hi) whose value equals v to out.
func (a *Array) FindAll(out []int, v int64, lo, hi int) []int {
	if hi > len(a.data) {
		hi = len(a.data)
	}
	for i := lo; i < hi; i++ {
		if a.data[i] == v {
			out = append(out, i)
		}
	}
	return out
}

// Min returns the minimum value and true, or 0, false if empty.
func (a *Array) Min() (int64, bool) {
	if len(a.data) == 0 {
		return 0, false
	}
	m := a.data[0]
	for _, v := range a.data[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

// Max returns the maximum value and true, or 0, false if empty.
func (a *Array) Max() (int64, bool) {
	if len(a.data) == 0 {
		return 0, false
	}
	m := a.data[0]
	for _, v := range a.data[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// Sum totals the array's values.
func (a *Array) Sum() int64 {
	var s int64
	for _, v := range a.data {
		s += v
	}
	return s
}
