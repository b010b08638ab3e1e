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

// Package shm creates and attaches named shared memory segments backed by
// files, preferring /dev/shm where available and falling back to the
// system temporary directory. A Segment hands out the raw mapped region;
// interpreting its contents is the caller's concern.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
)

// segmentPrefix namespaces segment files so unrelated files in /dev/shm or
// the temporary directory are never touched.
const segmentPrefix = "shmq_"

// Segment is a named, memory-mapped shared memory region.
type Segment struct {
	File *os.File // file backing the mapping
	Mem  []byte   // the mapped region
	Path string   // file path on disk
}

// Create creates a new shared memory segment of the given size in bytes.
// The segment file is created exclusively: Create fails if a segment with
// the same name already exists. The region is zero-filled by the OS.
func Create(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size %d", size)
	}

	path := segmentPath(name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create segment file %s: %w", path, err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(size)); err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: resize segment file: %w", err)
	}

	mem, err := mapFile(file, size)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: mmap segment: %w", err)
	}

	return &Segment{File: file, Mem: mem, Path: path}, nil
}

// Open attaches to an existing shared memory segment by name. The mapping
// spans the whole segment file; its current contents are honored unchanged.
func Open(name string) (*Segment, error) {
	path := segmentPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open segment file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: stat segment file: %w", err)
	}

	size := int(info.Size())
	if size <= 0 {
		file.Close()
		return nil, fmt.Errorf("shm: segment file %s is empty", path)
	}

	mem, err := mapFile(file, size)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: mmap segment: %w", err)
	}

	return &Segment{File: file, Mem: mem, Path: path}, nil
}

// Close unmaps the region and closes the backing file. The segment file
// itself is left in place so other attachments keep working; use Remove to
// delete it. Close reports the first error encountered.
func (s *Segment) Close() error {
	var firstErr error

	if s.Mem != nil {
		if err := unmapFile(s.Mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.Mem = nil
	}

	if s.File != nil {
		if err := s.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.File = nil
	}

	return firstErr
}

// Remove deletes a segment file by name, probing every candidate location.
func Remove(name string) error {
	var lastErr error
	for _, path := range candidatePaths(name) {
		if err := os.Remove(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return lastErr
	}
	return os.ErrNotExist
}

// Exists reports whether a segment file with the given name exists in any
// candidate location.
func Exists(name string) bool {
	for _, path := range candidatePaths(name) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// segmentPath returns the preferred file path for a named segment.
func segmentPath(name string) string {
	if isDevShmAvailable() {
		return filepath.Join("/dev/shm", segmentPrefix+name)
	}
	return filepath.Join(os.TempDir(), segmentPrefix+name)
}

// candidatePaths returns every location a named segment may live in.
func candidatePaths(name string) []string {
	return []string{
		filepath.Join("/dev/shm", segmentPrefix+name),
		filepath.Join(os.TempDir(), segmentPrefix+name),
	}
}

// isDevShmAvailable checks whether /dev/shm exists and is a directory.
func isDevShmAvailable() bool {
	info, err := os.Stat("/dev/shm")
	if err != nil {
		return false
	}
	return info.IsDir()
}
