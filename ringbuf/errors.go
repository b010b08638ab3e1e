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

package ringbuf

import "errors"

// ErrInsufficientBufferSize indicates that the supplied memory region cannot
// hold even a header plus one payload sentinel byte.
var ErrInsufficientBufferSize = errors.New("ringbuf: region too small for header and payload")

// ErrInsufficientSpace indicates that an item's framed size exceeds the total
// buffer capacity; such an item could never fit even in an empty buffer.
var ErrInsufficientSpace = errors.New("ringbuf: item exceeds buffer capacity")

// ErrEmpty indicates that no item is available to read.
var ErrEmpty = errors.New("ringbuf: buffer is empty")
