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

package shm

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestCreateAndRemove(t *testing.T) {
	name := uniqueName("test-create")
	defer Remove(name)

	seg, err := Create(name, 4096)
	require.NoError(t, err)

	require.Len(t, seg.Mem, 4096)
	require.True(t, Exists(name))

	// Fresh segments are zero-filled.
	for i, v := range seg.Mem {
		require.Zerof(t, v, "byte %d of fresh segment is non-zero", i)
	}

	require.NoError(t, seg.Close())
	require.NoError(t, Remove(name))
	require.False(t, Exists(name))
}

func TestCreateRejectsInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Create(uniqueName("test-badsize"), size)
		require.Error(t, err)
	}
}

func TestCreateExclusive(t *testing.T) {
	name := uniqueName("test-exclusive")
	defer Remove(name)

	seg, err := Create(name, 1024)
	require.NoError(t, err)
	defer seg.Close()

	_, err = Create(name, 1024)
	require.Error(t, err, "second Create with the same name must fail")
}

func TestOpenMissingSegment(t *testing.T) {
	_, err := Open(uniqueName("test-missing"))
	require.Error(t, err)
}

func TestOpenSharesMemory(t *testing.T) {
	name := uniqueName("test-shared")
	defer Remove(name)

	creator, err := Create(name, 2048)
	require.NoError(t, err)
	defer creator.Close()

	attacher, err := Open(name)
	require.NoError(t, err)
	defer attacher.Close()

	require.Len(t, attacher.Mem, 2048)

	// Writes through one mapping are visible through the other.
	copy(creator.Mem, []byte("written by creator"))
	require.Equal(t, []byte("written by creator"), attacher.Mem[:18])

	copy(attacher.Mem[100:], []byte("written by attacher"))
	require.Equal(t, []byte("written by attacher"), creator.Mem[100:119])
}

func TestCloseIsIdempotent(t *testing.T) {
	name := uniqueName("test-close")
	defer Remove(name)

	seg, err := Create(name, 1024)
	require.NoError(t, err)

	require.NoError(t, seg.Close())
	require.NoError(t, seg.Close())
}

func TestSegmentSurvivesClose(t *testing.T) {
	name := uniqueName("test-survive")
	defer Remove(name)

	creator, err := Create(name, 1024)
	require.NoError(t, err)
	copy(creator.Mem, []byte("persistent"))
	require.NoError(t, creator.Close())

	seg, err := Open(name)
	require.NoError(t, err)
	defer seg.Close()

	require.Equal(t, []byte("persistent"), seg.Mem[:10])
}

func TestRemoveMissingSegment(t *testing.T) {
	require.Error(t, Remove(uniqueName("test-rm-missing")))
}
