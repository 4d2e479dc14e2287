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

package hnsw

import "container/heap"

// candidate pairs an ElementId with a distance, the unit every search
// and heuristic-selection queue in this package works over.
type candidate struct {
	id   ElementId
	dist float64
}

// candidateHeap is container/heap.Interface over candidates. max
// selects a max-heap (root is the farthest candidate, used for the
// bounded ef-sized result set during best-first search) instead of
// the default min-heap (root is the nearest candidate, used for the
// search frontier).
type candidateHeap struct {
	items []candidate
	max   bool
}

func (h *candidateHeap) Len() int { return len(h.items) }
func (h *candidateHeap) Less(i, j int) bool {
	if h.max {
		return h.items[i].dist > h.items[j].dist
	}
	return h.items[i].dist < h.items[j].dist
}
func (h *candidateHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *candidateHeap) Push(x any)    { h.items = append(h.items, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	n := len(h.items)
	it := h.items[n-1]
	h.items = h.items[:n-1]
	return it
}

func (h *candidateHeap) top() candidate { return h.items[0] }

func newMinHeap() *candidateHeap { return &candidateHeap{} }
func newMaxHeap() *candidateHeap { return &candidateHeap{max: true} }

var _ = heap.Interface(newMinHeap())
