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

package physical

import (
	"container/heap"
	"sort"

	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
)

// Sort materializes Child's entire output, orders it by Keys, and
// replays it as a single ordered stream. When
// TopK is positive and smaller than the input, it instead selects the
// best TopK rows through a bounded max-heap of size TopK rather than
// sorting every row; the input is still collected in full first.
type Sort struct {
	Child     Operator
	Keys      []SortProperty
	TopK      int
	BatchSize int
}

func (s *Sort) Name() string                      { return "Sort" }
func (s *Sort) RequiredContext() expr.ContextLevel { return s.Child.RequiredContext() }
func (s *Sort) AccessMode() expr.AccessMode        { return s.Child.AccessMode() }
func (s *Sort) OutputOrdering() OutputOrdering     { return SortedOutput(s.Keys...) }
func (s *Sort) CardinalityHint() CardinalityHint {
	if s.TopK > 0 {
		return CardinalityFew
	}
	return s.Child.CardinalityHint()
}

func (s *Sort) Execute(ctx *exec.Context) (Stream, error) {
	if s.Child.OutputOrdering().Satisfies(s.OutputOrdering()) {
		return s.Child.Execute(ctx)
	}
	rows, err := Collect(ctx, s.Child)
	if err != nil {
		return nil, err
	}
	if s.TopK > 0 && s.TopK < len(rows) {
		rows, err = s.topK(ctx, rows)
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.sortAll(ctx, rows); err != nil {
			return nil, err
		}
	}
	return NewSliceStream(rows, s.BatchSize), nil
}

// sortKeyed pairs a row with its pre-evaluated sort-key values so the
// comparator never re-evaluates an expression mid-sort.
type sortKeyed struct {
	row  value.Value
	keys []value.Value
}

func (s *Sort) evalKeys(ctx *exec.Context, rows []value.Value) ([]sortKeyed, error) {
	keyed := make([]sortKeyed, len(rows))
	cols := make([][]value.Value, len(s.Keys))
	for i, k := range s.Keys {
		col, err := k.Path.EvaluateBatch(ctx, rows)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	for i, row := range rows {
		ks := make([]value.Value, len(s.Keys))
		for j := range s.Keys {
			ks[j] = cols[j][i]
		}
		keyed[i] = sortKeyed{row: row, keys: ks}
	}
	return keyed, nil
}

func (s *Sort) less(a, b sortKeyed) bool {
	for i, k := range s.Keys {
		c := value.Compare(a.keys[i], b.keys[i])
		if c == 0 {
			continue
		}
		if k.Direction == Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

func (s *Sort) sortAll(ctx *exec.Context, rows []value.Value) error {
	keyed, err := s.evalKeys(ctx, rows)
	if err != nil {
		return err
	}
	sort.SliceStable(keyed, func(i, j int) bool { return s.less(keyed[i], keyed[j]) })
	for i := range rows {
		rows[i] = keyed[i].row
	}
	return nil
}

// topKHeap is a max-heap over the "worse" direction so Push/Pop evict
// the current worst element once the heap exceeds its bound.
type topKHeap struct {
	items []sortKeyed
	s     *Sort
}

func (h *topKHeap) Len() int      { return len(h.items) }
func (h *topKHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topKHeap) Less(i, j int) bool {
	// Inverted: heap root is the worst-ranked element so it pops first.
	return h.s.less(h.items[j], h.items[i])
}
func (h *topKHeap) Push(x any) { h.items = append(h.items, x.(sortKeyed)) }
func (h *topKHeap) Pop() any {
	n := len(h.items)
	it := h.items[n-1]
	h.items = h.items[:n-1]
	return it
}

func (s *Sort) topK(ctx *exec.Context, rows []value.Value) ([]value.Value, error) {
	keyed, err := s.evalKeys(ctx, rows)
	if err != nil {
		return nil, err
	}
	h := &topKHeap{s: s}
	heap.Init(h)
	for _, kv := range keyed {
		if h.Len() < s.TopK {
			heap.Push(h, kv)
			continue
		}
		if s.less(kv, h.items[0]) {
			heap.Pop(h)
			heap.Push(h, kv)
		}
	}
	out := make([]sortKeyed, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(sortKeyed)
	}
	rows = rows[:0]
	for _, kv := range out {
		rows = append(rows, kv.row)
	}
	return rows, nil
}
