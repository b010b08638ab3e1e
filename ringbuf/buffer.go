/*
 * Copyright 2025 The shmq authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package ringbuf implements a fixed-capacity FIFO ring buffer of
// variable-length byte items laid out inside a caller-supplied memory region,
// typically a memory-mapped shared memory segment.
//
// Region layout (little-endian):
//
//	offset 0:  read index   (uint32)  next payload offset to read
//	offset 4:  write index  (uint32)  next payload offset to write
//	offset 8:  max size     (uint32)  payload region length (ring modulus)
//	offset 12: payload region, max size bytes, circularly addressed
//
// Each stored item is framed as a 4-byte little-endian length prefix followed
// by that many raw bytes; both fields wrap transparently across the end of
// the payload region. One payload slot is permanently reserved as a sentinel
// so that the full and empty states remain distinguishable from the indices
// alone: the usable capacity is max size minus one.
//
// The Buffer itself is stateless: every operation reads and writes the header
// fields in place, so any number of attachments over the same region observe
// a single shared state. No internal synchronization is performed; callers
// must enforce a single-producer/single-consumer discipline externally.
package ringbuf

import "encoding/binary"

// Memory layout constants.
const (
	// HeaderSize is the fixed size of the control block at offset 0.
	HeaderSize = 12

	// ItemPrefixSize is the size of the per-item length prefix.
	ItemPrefixSize = 4

	// Header field offsets.
	readIndexOffset  = 0
	writeIndexOffset = 4
	maxSizeOffset    = 8
)

// State is a snapshot of the raw header fields for diagnostics. It carries no
// synchronization guarantees beyond those of the operation that produced it.
type State struct {
	ReadIndex  uint32 // next payload offset to read
	WriteIndex uint32 // next payload offset to write
	MaxSize    uint32 // payload region length (ring modulus)
}

// Buffer is a FIFO ring buffer of length-prefixed byte items stored in a
// borrowed memory region. The zero value is not usable; construct with New.
//
// Buffer holds no state of its own: indices live in the region's header and
// item bytes in its payload, so a Buffer may be discarded and re-created over
// the same region at any time without losing data. Destroying a Buffer never
// mutates or frees the region.
type Buffer struct {
	mem []byte
}

// New binds a Buffer to a memory region. The region must be at least
// HeaderSize+1 bytes, enough for the header plus one payload sentinel byte;
// otherwise New fails with ErrInsufficientBufferSize.
//
// When the region's stored max size reads as zero (fresh, zero-filled
// memory), the header is initialized: max size becomes len(mem)-HeaderSize
// and both indices are set to zero. A non-zero max size marks an already
// initialized buffer (for example a segment populated by another process)
// and the existing header is honored unchanged. Payload bytes are never
// touched by construction.
func New(mem []byte) (*Buffer, error) {
	if len(mem) < HeaderSize+1 {
		return nil, ErrInsufficientBufferSize
	}

	b := &Buffer{mem: mem}
	if b.maxSize() == 0 {
		b.setMaxSize(uint32(len(mem) - HeaderSize))
		b.setReadIndex(0)
		b.setWriteIndex(0)
	}

	return b, nil
}

// Header accessors. All header state is read and written in place so that
// other attachments over the same region observe every mutation.

func (b *Buffer) readIndex() uint32 {
	return binary.LittleEndian.Uint32(b.mem[readIndexOffset:])
}

func (b *Buffer) setReadIndex(idx uint32) {
	binary.LittleEndian.PutUint32(b.mem[readIndexOffset:], idx)
}

func (b *Buffer) writeIndex() uint32 {
	return binary.LittleEndian.Uint32(b.mem[writeIndexOffset:])
}

func (b *Buffer) setWriteIndex(idx uint32) {
	binary.LittleEndian.PutUint32(b.mem[writeIndexOffset:], idx)
}

func (b *Buffer) maxSize() uint32 {
	return binary.LittleEndian.Uint32(b.mem[maxSizeOffset:])
}

func (b *Buffer) setMaxSize(size uint32) {
	binary.LittleEndian.PutUint32(b.mem[maxSizeOffset:], size)
}

// payload returns the circular payload region following the header.
func (b *Buffer) payload() []byte {
	return b.mem[HeaderSize:]
}

// State returns a snapshot of the raw header fields.
func (b *Buffer) State() State {
	return State{
		ReadIndex:  b.readIndex(),
		WriteIndex: b.writeIndex(),
		MaxSize:    b.maxSize(),
	}
}

// Empty reports whether the buffer holds no items.
func (b *Buffer) Empty() bool {
	return b.readIndex() == b.writeIndex()
}

// Full reports whether the buffer cannot accept another byte without
// evicting. Full is exact and O(1): it holds iff the write index is
// immediately behind the read index modulo the ring.
func (b *Buffer) Full() bool {
	return (b.writeIndex()+1)%b.maxSize() == b.readIndex()
}

// Capacity returns the maximum number of payload bytes, framing included,
// the buffer can hold simultaneously. One slot is reserved as a sentinel, so
// this is max size minus one.
func (b *Buffer) Capacity() int {
	return int(b.maxSize()) - 1
}

// Size returns the number of payload bytes currently occupied: the sum of
// all stored items' length prefixes and raw bytes. It is computed from the
// indices alone, without scanning items.
func (b *Buffer) Size() int {
	if b.Full() {
		return b.Capacity()
	}

	r, w := b.readIndex(), b.writeIndex()
	if w >= r {
		return int(w - r)
	}
	return int(b.maxSize() - r + w)
}

// AvailableSize returns the largest item, in raw bytes, that a Put can store
// without evicting anything: the free space minus the item's own length
// prefix. The result is negative when even an empty item would evict.
func (b *Buffer) AvailableSize() int {
	return b.Capacity() - b.Size() - ItemPrefixSize
}

// Reset discards all contents by returning both indices to zero. Payload
// bytes are not zeroed; they become unreachable, not erased.
func (b *Buffer) Reset() {
	b.setReadIndex(0)
	b.setWriteIndex(0)
}

// Put appends an item to the buffer.
//
// An item whose framed size (len(item)+ItemPrefixSize) exceeds Capacity can
// never fit and is rejected with ErrInsufficientSpace; the buffer is left
// unchanged. Otherwise, when free space is short, the oldest stored items
// are evicted whole, one at a time, until the new item fits. The read cursor
// always lands on an item boundary: items are never half-evicted.
func (b *Buffer) Put(item []byte) error {
	framed := len(item) + ItemPrefixSize
	if framed > b.Capacity() {
		return ErrInsufficientSpace
	}

	for b.Capacity()-b.Size() < framed {
		b.evictOldest()
	}

	var prefix [ItemPrefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(item)))

	w := b.writeIndex()
	w = b.writeAt(w, prefix[:])
	w = b.writeAt(w, item)
	b.setWriteIndex(w)

	return nil
}

// Get removes and returns the oldest stored item. It fails with ErrEmpty,
// leaving the buffer unchanged, when no item is available. The returned
// slice is a copy; it does not alias the backing region.
func (b *Buffer) Get() ([]byte, error) {
	if b.Empty() {
		return nil, ErrEmpty
	}

	length, r := b.peekLength(b.readIndex())

	item := make([]byte, length)
	r = b.readAt(r, item)
	b.setReadIndex(r)

	return item, nil
}

// evictOldest drops the oldest stored item by advancing the read index past
// its frame. The caller must ensure the buffer is non-empty, which Put's
// free-space loop guarantees.
func (b *Buffer) evictOldest() {
	length, r := b.peekLength(b.readIndex())
	b.setReadIndex((r + length) % b.maxSize())
}

// peekLength reads the 4-byte length prefix at off, wrapping as needed, and
// returns the item length together with the offset just past the prefix.
func (b *Buffer) peekLength(off uint32) (length, next uint32) {
	var prefix [ItemPrefixSize]byte
	next = b.readAt(off, prefix[:])
	return binary.LittleEndian.Uint32(prefix[:]), next
}

// writeAt copies p into the payload region starting at off, wrapping to
// offset 0 at the end of the region, and returns the offset just past the
// written bytes.
func (b *Buffer) writeAt(off uint32, p []byte) uint32 {
	max := int(b.maxSize())
	payload := b.payload()
	pos := int(off)

	first := len(p)
	if pos+first > max {
		// Split the copy across the physical end of the region.
		first = max - pos
	}
	copy(payload[pos:pos+first], p[:first])
	copy(payload[:len(p)-first], p[first:])

	return uint32((pos + len(p)) % max)
}

// readAt copies len(p) payload bytes starting at off into p, wrapping to
// offset 0 at the end of the region, and returns the offset just past the
// read bytes.
func (b *Buffer) readAt(off uint32, p []byte) uint32 {
	max := int(b.maxSize())
	payload := b.payload()
	pos := int(off)

	first := len(p)
	if pos+first > max {
		// Split the copy across the physical end of the region.
		first = max - pos
	}
	copy(p[:first], payload[pos:pos+first])
	copy(p[first:], payload[:len(p)-first])

	return uint32((pos + len(p)) % max)
}
