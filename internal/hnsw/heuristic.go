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

import "sort"

// Heuristic names a neighbor-selection strategy evaluated when a new
// element is connected into a layer, or when an over-full neighbor
// list is pruned back down to mMax.
type Heuristic int

const (
	// HeuristicStandard keeps the closest candidates that are each
	// closer to the query than to every candidate already kept
	// (simple distance-diversity greedy pick).
	HeuristicStandard Heuristic = iota
	// HeuristicKeep is Standard, but backfills the result with
	// otherwise-pruned candidates (in ascending distance order) when
	// the diversity test alone doesn't fill mMax slots.
	HeuristicKeep
	// HeuristicExt extends the candidate set with each candidate's
	// own layer neighbors before running Standard, trading extra
	// distance computations for a better-connected graph.
	HeuristicExt
	// HeuristicExtAndKeep combines Ext's extension with Keep's
	// backfill.
	HeuristicExtAndKeep
)

// ParseHeuristic resolves a DEFINE INDEX ... HEURISTIC name, defaulting
// to Standard for an unrecognized name.
func ParseHeuristic(name string) Heuristic {
	switch name {
	case "KEEP":
		return HeuristicKeep
	case "EXT":
		return HeuristicExt
	case "EXTANDKEEP", "EXT_AND_KEEP":
		return HeuristicExtAndKeep
	default:
		return HeuristicStandard
	}
}

// selectNeighbors picks at most mMax candidates for id (whose vector
// is qVec) to connect to at layer, dispatching to the graph's
// configured Heuristic. cands need not be pre-sorted.
func (g *Graph) selectNeighbors(qVec Vector, cands []candidate, layer, mMax int) []candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].dist < sorted[j].dist })

	switch g.params.Heuristic {
	case HeuristicKeep:
		return g.heuristicKeep(sorted, mMax)
	case HeuristicExt:
		return g.heuristicStandard(g.extendCandidates(qVec, sorted, layer), mMax)
	case HeuristicExtAndKeep:
		return g.heuristicKeep(g.extendCandidates(qVec, sorted, layer), mMax)
	default:
		return g.heuristicStandard(sorted, mMax)
	}
}

// heuristicStandard walks the
// ascending-distance candidates, keeping c whenever it is closer to
// the query than to every already-kept candidate, until mMax are
// kept.
func (g *Graph) heuristicStandard(sorted []candidate, mMax int) []candidate {
	if len(sorted) <= mMax {
		return sorted
	}
	res := make([]candidate, 0, mMax)
	for _, c := range sorted {
		if g.isCloser(c, res) {
			res = append(res, c)
			if len(res) == mMax {
				break
			}
		}
	}
	return res
}

// heuristicKeep runs the same
// diversity walk as Standard, but candidates that fail the diversity
// test are kept aside in `pruned` and used to backfill the result up
// to mMax if the diversity pass alone didn't fill it.
func (g *Graph) heuristicKeep(sorted []candidate, mMax int) []candidate {
	if len(sorted) <= mMax {
		return sorted
	}
	res := make([]candidate, 0, mMax)
	var pruned []candidate
	for _, c := range sorted {
		if g.isCloser(c, res) {
			res = append(res, c)
			if len(res) == mMax {
				break
			}
		} else {
			pruned = append(pruned, c)
		}
	}
	if n := mMax - len(res); n > 0 {
		if n > len(pruned) {
			n = len(pruned)
		}
		res = append(res, pruned[:n]...)
	}
	return res
}

// extendCandidates adds
// each candidate's own layer-neighbors to the candidate pool (if not
// already present), scored by distance to the query, before the
// diversity pass runs. Widens the pool Standard/Keep choose from at
// the cost of extra distance computations.
func (g *Graph) extendCandidates(qVec Vector, sorted []candidate, layer int) []candidate {
	seen := make(map[ElementId]bool, len(sorted))
	for _, c := range sorted {
		seen[c.id] = true
	}
	out := make([]candidate, len(sorted))
	copy(out, sorted)
	for _, c := range sorted {
		n := g.nodes[c.id]
		if n == nil || layer >= len(n.neighbors) {
			continue
		}
		for nb := range n.neighbors[layer] {
			if seen[nb] {
				continue
			}
			seen[nb] = true
			nbVec := g.vectorOf(nb)
			if nbVec == nil {
				continue
			}
			out = append(out, candidate{id: nb, dist: Distance(g.params.Distance, qVec, nbVec)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dist < out[j].dist })
	return out
}

// isCloser: c is kept only if it
// is closer to the query (c.dist) than it is to every candidate
// already in res — the standard HNSW diversity condition that keeps
// the neighbor list from clustering in one direction.
func (g *Graph) isCloser(c candidate, res []candidate) bool {
	cVec := g.vectorOf(c.id)
	if cVec == nil {
		return false
	}
	for _, r := range res {
		rVec := g.vectorOf(r.id)
		if rVec == nil {
			continue
		}
		if c.dist > Distance(g.params.Distance, cVec, rVec) {
			return false
		}
	}
	return true
}
