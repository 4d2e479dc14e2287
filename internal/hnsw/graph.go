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

import (
	"container/heap"
	"math"
	"math/rand"
	"sync"
)

// ElementId identifies a vector in the graph. The caller (store.go)
// maps it to a document through the Hh/Hv KVS keys; the graph itself
// never looks past the id.
type ElementId uint64

// Params configures one index's graph.
type Params struct {
	M              int
	MMax           int
	MMax0          int
	EfConstruction int
	ML             float64
	Distance       DistanceKind
	Heuristic      Heuristic
}

// DefaultParams returns the conventional HNSW constants (Malkov &
// Yashunin): M=16, MMax=M, MMax0=2M, EfConstruction=200,
// ML=1/ln(M).
func DefaultParams() Params {
	const m = 16
	return Params{
		M:              m,
		MMax:           m,
		MMax0:          2 * m,
		EfConstruction: 200,
		ML:             1 / math.Log(float64(m)),
		Distance:       DistEuclidean,
		Heuristic:      HeuristicStandard,
	}
}

type node struct {
	id        ElementId
	vec       Vector
	topLayer  int
	neighbors []map[ElementId]struct{} // neighbors[l] valid for l in [0, topLayer]
}

// Graph is an in-memory layered HNSW graph. One Graph instance backs
// one DEFINE INDEX ... HNSW.
type Graph struct {
	mu       sync.Mutex
	params   Params
	nodes    map[ElementId]*node
	entry    ElementId
	hasEntry bool
	topLayer int
	rng      *rand.Rand
}

// New creates an empty graph. seed makes level assignment
// reproducible for tests; production callers should seed from a
// real entropy source.
func New(params Params, seed int64) *Graph {
	return &Graph{
		params: params,
		nodes:  make(map[ElementId]*node),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Len reports how many elements are currently indexed.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Has reports whether id is present in the graph.
func (g *Graph) Has(id ElementId) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) vectorOf(id ElementId) Vector {
	if n := g.nodes[id]; n != nil {
		return n.vec
	}
	return nil
}

func (g *Graph) randomLevel() int {
	// Standard HNSW exponential level draw: -ln(U) * mL, floored.
	u := g.rng.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	return int(-math.Log(u) * g.params.ML)
}

func (g *Graph) mMaxFor(layer int) int {
	if layer == 0 {
		return g.params.MMax0
	}
	return g.params.MMax
}

// Insert adds id/vec to the graph, or is a no-op if id is already
// present (the caller is expected to dedup by vector hash first via
// store.go; this is a defensive second line).
func (g *Graph) Insert(id ElementId, vec Vector) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return
	}

	layer := g.randomLevel()
	n := &node{id: id, vec: vec, topLayer: layer, neighbors: make([]map[ElementId]struct{}, layer+1)}
	for i := range n.neighbors {
		n.neighbors[i] = make(map[ElementId]struct{})
	}
	g.nodes[id] = n

	if !g.hasEntry {
		g.entry = id
		g.hasEntry = true
		g.topLayer = layer
		return
	}

	entry := g.entry
	for l := g.topLayer; l > layer; l-- {
		entry = g.greedyClosest(vec, entry, l)
	}

	top := g.topLayer
	if layer < top {
		top = layer
	}
	for l := top; l >= 0; l-- {
		cands := g.searchLayer(vec, entry, g.params.EfConstruction, l)
		selected := g.selectNeighbors(vec, cands, l, g.mMaxFor(l))
		for _, c := range selected {
			g.connect(id, c.id, l)
			g.connect(c.id, id, l)
			g.pruneIfNeeded(c.id, l)
		}
		if len(selected) > 0 {
			entry = selected[0].id
		}
	}

	if layer > g.topLayer {
		g.entry = id
		g.topLayer = layer
	}
}

// Delete removes id and every edge referencing it, promoting a new
// entry point if id was the current one.
func (g *Graph) Delete(id ElementId) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for l, neighbors := range n.neighbors {
		for nb := range neighbors {
			if other := g.nodes[nb]; other != nil && l < len(other.neighbors) {
				delete(other.neighbors[l], id)
			}
		}
	}
	delete(g.nodes, id)

	if g.entry == id {
		g.promoteEntry()
	}
}

func (g *Graph) promoteEntry() {
	g.hasEntry = false
	g.topLayer = 0
	var best *node
	for _, n := range g.nodes {
		if best == nil || n.topLayer > best.topLayer {
			best = n
		}
	}
	if best != nil {
		g.entry = best.id
		g.hasEntry = true
		g.topLayer = best.topLayer
	}
}

// ScoredElement is one Search result.
type ScoredElement struct {
	ID       ElementId
	Distance float64
}

// Search returns up to k elements nearest query, searching the base
// layer with the wider of ef or k candidates under consideration at
// once.
func (g *Graph) Search(query Vector, k, ef int) []ScoredElement {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasEntry {
		return nil
	}
	if ef < k {
		ef = k
	}

	entry := g.entry
	for l := g.topLayer; l > 0; l-- {
		entry = g.greedyClosest(query, entry, l)
	}

	cands := g.searchLayer(query, entry, ef, 0)
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]ScoredElement, len(cands))
	for i, c := range cands {
		out[i] = ScoredElement{ID: c.id, Distance: c.dist}
	}
	return out
}

// greedyClosest repeatedly steps to the nearest layer-neighbor of cur
// until no neighbor improves on it (the single-path descent used
// between upper layers).
func (g *Graph) greedyClosest(q Vector, cur ElementId, layer int) ElementId {
	curDist := Distance(g.params.Distance, q, g.vectorOf(cur))
	for {
		n := g.nodes[cur]
		if n == nil || layer >= len(n.neighbors) {
			return cur
		}
		improved := false
		for nb := range n.neighbors[layer] {
			d := Distance(g.params.Distance, q, g.vectorOf(nb))
			if d < curDist {
				cur, curDist, improved = nb, d, true
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer is the SEARCH-LAYER primitive: best-first expansion
// from entry, maintaining an ef-bounded result set, returned sorted
// ascending by distance.
func (g *Graph) searchLayer(q Vector, entry ElementId, ef, layer int) []candidate {
	visited := map[ElementId]bool{entry: true}
	entryDist := Distance(g.params.Distance, q, g.vectorOf(entry))

	cset := newMinHeap()
	heap.Push(cset, candidate{id: entry, dist: entryDist})
	rset := newMaxHeap()
	heap.Push(rset, candidate{id: entry, dist: entryDist})

	for cset.Len() > 0 {
		c := heap.Pop(cset).(candidate)
		if rset.Len() >= ef && c.dist > rset.top().dist {
			break
		}
		n := g.nodes[c.id]
		if n == nil || layer >= len(n.neighbors) {
			continue
		}
		for nb := range n.neighbors[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := Distance(g.params.Distance, q, g.vectorOf(nb))
			if rset.Len() < ef || d < rset.top().dist {
				heap.Push(cset, candidate{id: nb, dist: d})
				heap.Push(rset, candidate{id: nb, dist: d})
				if rset.Len() > ef {
					heap.Pop(rset)
				}
			}
		}
	}

	out := make([]candidate, rset.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(rset).(candidate)
	}
	return out
}

func (g *Graph) connect(from, to ElementId, layer int) {
	n := g.nodes[from]
	if n == nil || layer >= len(n.neighbors) {
		return
	}
	n.neighbors[layer][to] = struct{}{}
}

func (g *Graph) disconnect(from, to ElementId, layer int) {
	n := g.nodes[from]
	if n == nil || layer >= len(n.neighbors) {
		return
	}
	delete(n.neighbors[layer], to)
}

// pruneIfNeeded re-applies the configured heuristic to id's neighbor
// list at layer if it has grown past mMax, dropping (and
// disconnecting) whichever neighbors the heuristic no longer selects.
func (g *Graph) pruneIfNeeded(id ElementId, layer int) {
	n := g.nodes[id]
	if n == nil || layer >= len(n.neighbors) {
		return
	}
	mMax := g.mMaxFor(layer)
	if len(n.neighbors[layer]) <= mMax {
		return
	}
	cands := make([]candidate, 0, len(n.neighbors[layer]))
	for nb := range n.neighbors[layer] {
		nbVec := g.vectorOf(nb)
		if nbVec == nil {
			continue
		}
		cands = append(cands, candidate{id: nb, dist: Distance(g.params.Distance, n.vec, nbVec)})
	}
	selected := g.selectNeighbors(n.vec, cands, layer, mMax)
	kept := make(map[ElementId]struct{}, len(selected))
	for _, c := range selected {
		kept[c.id] = struct{}{}
	}
	for nb := range n.neighbors[layer] {
		if _, ok := kept[nb]; !ok {
			g.disconnect(nb, id, layer)
		}
	}
	n.neighbors[layer] = kept
}
