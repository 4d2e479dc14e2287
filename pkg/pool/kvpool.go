// Copyright 2026 The NexusDB Authors
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

// Package pool provides sync.Pool-backed slice pools for the engine's
// hot paths: range-scan merge buffers and grouped-commit batch
// buffers churn through short-lived slices at a rate where reuse
// measurably trims GC pressure.
package pool

import "sync"

// SlicePool hands out zero-length slices with a pre-sized capacity.
//
// Callers MUST return a slice with Put when done with it and not use
// it afterwards; a forgotten Put only costs the reuse, the GC still
// collects the slice eventually.
type SlicePool[T any] struct {
	p sync.Pool
}

// NewSlicePool creates a pool whose fresh slices start with the given
// capacity. Most range scans return under a hundred keys, so a
// capacity in that region avoids growth in the common case without
// pinning large buffers.
func NewSlicePool[T any](capacity int) *SlicePool[T] {
	if capacity <= 0 {
		capacity = 64
	}
	return &SlicePool[T]{
		p: sync.Pool{
			New: func() any {
				s := make([]T, 0, capacity)
				return &s
			},
		},
	}
}

// Get returns a zero-length slice ready to append into.
func (p *SlicePool[T]) Get() []T {
	sp := p.p.Get().(*[]T)
	return (*sp)[:0]
}

// Put returns a slice for reuse. Element references are cleared first
// so pooled buffers don't pin their previous contents.
func (p *SlicePool[T]) Put(s []T) {
	if s == nil {
		return
	}
	var zero T
	for i := range s {
		s[i] = zero
	}
	s = s[:0]
	p.p.Put(&s)
}
