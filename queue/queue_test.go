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

package queue

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/idkosilov/shmq/ringbuf"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestCreatePutGet(t *testing.T) {
	name := uniqueName("test-queue-basic")
	defer Remove(name)

	q, err := Create(name, 256)
	require.NoError(t, err)
	defer q.Close()

	require.True(t, q.Empty())
	require.Equal(t, 256-ringbuf.HeaderSize-1, q.Capacity())

	require.NoError(t, q.Put([]byte("hello")))
	require.NoError(t, q.Put([]byte("world")))
	require.Equal(t, 2*(ringbuf.ItemPrefixSize+5), q.Size())

	for _, want := range []string{"hello", "world"} {
		got, err := q.Get()
		require.NoError(t, err)
		require.Equal(t, []byte(want), got)
	}

	_, err = q.Get()
	require.ErrorIs(t, err, ringbuf.ErrEmpty)
}

func TestCreateRejectsTinySegment(t *testing.T) {
	_, err := Create(uniqueName("test-queue-tiny"), ringbuf.HeaderSize)
	require.ErrorIs(t, err, ringbuf.ErrInsufficientBufferSize)
}

func TestOpenReattachesWithoutReset(t *testing.T) {
	name := uniqueName("test-queue-reattach")
	defer Remove(name)

	producer, err := Create(name, 512)
	require.NoError(t, err)

	messages := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, msg := range messages {
		require.NoError(t, producer.Put(msg))
	}
	wantSize := producer.Size()
	wantState := producer.State()
	require.NoError(t, producer.Close())

	// A second attachment must see the producer's state untouched.
	consumer, err := Open(name)
	require.NoError(t, err)
	defer consumer.Close()

	require.Equal(t, wantState, consumer.State())
	require.Equal(t, wantSize, consumer.Size())

	for _, want := range messages {
		got, err := consumer.Get()
		require.NoError(t, err)
		require.True(t, bytes.Equal(got, want), "expected %q, got %q", want, got)
	}
	require.True(t, consumer.Empty())
}

func TestConcurrentAttachmentsShareState(t *testing.T) {
	name := uniqueName("test-queue-shared")
	defer Remove(name)

	producer, err := Create(name, 256)
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := Open(name)
	require.NoError(t, err)
	defer consumer.Close()

	require.NoError(t, producer.Put([]byte("ping")))

	got, err := consumer.Get()
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), got)

	require.True(t, producer.Empty())
}

func TestPutEvictsWhenFull(t *testing.T) {
	name := uniqueName("test-queue-evict")
	defer Remove(name)

	q, err := Create(name, ringbuf.HeaderSize+32)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Put(bytes.Repeat([]byte{'a'}, 8)))
	require.NoError(t, q.Put(bytes.Repeat([]byte{'b'}, 8)))
	require.NoError(t, q.Put(bytes.Repeat([]byte{'c'}, 10)))

	got, err := q.Get()
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{'b'}, 8), got, "oldest message should have been evicted")
}

func TestPutTooLarge(t *testing.T) {
	name := uniqueName("test-queue-toolarge")
	defer Remove(name)

	q, err := Create(name, 64)
	require.NoError(t, err)
	defer q.Close()

	err = q.Put(make([]byte, q.Capacity()))
	require.ErrorIs(t, err, ringbuf.ErrInsufficientSpace)
	require.True(t, q.Empty())
}

func TestReset(t *testing.T) {
	name := uniqueName("test-queue-reset")
	defer Remove(name)

	q, err := Create(name, 128)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Put([]byte("doomed")))
	q.Reset()

	require.True(t, q.Empty())
	require.Zero(t, q.Size())
}

func TestExistsAndRemove(t *testing.T) {
	name := uniqueName("test-queue-exists")

	require.False(t, Exists(name))

	q, err := Create(name, 64)
	require.NoError(t, err)
	require.True(t, Exists(name))

	require.NoError(t, q.Close())
	require.NoError(t, Remove(name))
	require.False(t, Exists(name))
}
