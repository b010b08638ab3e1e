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

// Package queue provides a named shared-memory FIFO message queue: a
// ring buffer of length-prefixed byte items living in a memory-mapped
// segment, attachable by name from multiple processes.
//
// The queue performs no internal synchronization. At most one logical
// producer and one logical consumer may operate on a queue at a time;
// anything beyond that discipline must be arbitrated externally.
package queue

import (
	"fmt"

	"github.com/idkosilov/shmq/ringbuf"
	"github.com/idkosilov/shmq/shm"
)

// Queue is a named FIFO of byte messages stored in a shared memory segment.
type Queue struct {
	name string
	seg  *shm.Segment
	buf  *ringbuf.Buffer
}

// Create creates a new named queue backed by a fresh shared memory segment
// of the given total size in bytes (header included). It fails if a segment
// with the same name already exists or if the size cannot hold a ring
// buffer header plus one payload byte.
func Create(name string, size int) (*Queue, error) {
	if size < ringbuf.HeaderSize+1 {
		return nil, ringbuf.ErrInsufficientBufferSize
	}

	seg, err := shm.Create(name, size)
	if err != nil {
		return nil, fmt.Errorf("queue: create segment: %w", err)
	}

	buf, err := ringbuf.New(seg.Mem)
	if err != nil {
		seg.Close()
		shm.Remove(name)
		return nil, err
	}

	return &Queue{name: name, seg: seg, buf: buf}, nil
}

// Open attaches to an existing named queue. The segment's ring buffer
// header is honored unchanged, so items written by the creating process are
// immediately readable.
func Open(name string) (*Queue, error) {
	seg, err := shm.Open(name)
	if err != nil {
		return nil, fmt.Errorf("queue: open segment: %w", err)
	}

	buf, err := ringbuf.New(seg.Mem)
	if err != nil {
		seg.Close()
		return nil, err
	}

	return &Queue{name: name, seg: seg, buf: buf}, nil
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Path returns the segment file path backing the queue.
func (q *Queue) Path() string { return q.seg.Path }

// Put appends a message, evicting the oldest messages when space is short.
// Messages whose framed size exceeds Capacity are rejected with
// ringbuf.ErrInsufficientSpace.
func (q *Queue) Put(msg []byte) error { return q.buf.Put(msg) }

// Get removes and returns the oldest message, or ringbuf.ErrEmpty when the
// queue holds none.
func (q *Queue) Get() ([]byte, error) { return q.buf.Get() }

// Size returns the number of payload bytes currently occupied, framing
// included.
func (q *Queue) Size() int { return q.buf.Size() }

// Capacity returns the maximum number of payload bytes the queue can hold.
func (q *Queue) Capacity() int { return q.buf.Capacity() }

// AvailableSize returns the largest message that fits without eviction; it
// is negative when even an empty message would evict.
func (q *Queue) AvailableSize() int { return q.buf.AvailableSize() }

// Empty reports whether the queue holds no messages.
func (q *Queue) Empty() bool { return q.buf.Empty() }

// Full reports whether the queue cannot accept another byte without
// evicting.
func (q *Queue) Full() bool { return q.buf.Full() }

// Reset discards all messages.
func (q *Queue) Reset() { q.buf.Reset() }

// State returns a snapshot of the underlying ring buffer header.
func (q *Queue) State() ringbuf.State { return q.buf.State() }

// Close detaches from the segment. The segment file and its contents
// survive; a later Open resumes where this attachment left off.
func (q *Queue) Close() error { return q.seg.Close() }

// Remove deletes the named queue's segment file. Existing attachments keep
// their mappings until they close.
func Remove(name string) error { return shm.Remove(name) }

// Exists reports whether a queue segment with the given name exists.
func Exists(name string) bool { return shm.Exists(name) }
