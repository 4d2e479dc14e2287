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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEuclideanDistance(t *testing.T) {
	d := Distance(DistEuclidean, Vector{0, 0}, Vector{3, 4})
	require.InDelta(t, 5.0, d, 1e-9)
}

func TestManhattanDistance(t *testing.T) {
	d := Distance(DistManhattan, Vector{0, 0}, Vector{3, 4})
	require.InDelta(t, 7.0, d, 1e-9)
}

func TestCosineDistanceIdenticalVectorsIsZero(t *testing.T) {
	d := Distance(DistCosine, Vector{1, 2, 3}, Vector{2, 4, 6})
	require.InDelta(t, 0, d, 1e-9)
}

func TestCosineDistanceZeroVectorIsMaximal(t *testing.T) {
	d := Distance(DistCosine, Vector{0, 0}, Vector{1, 1})
	require.Equal(t, 1.0, d)
}

func TestDotDistanceIsNegated(t *testing.T) {
	d := Distance(DistDot, Vector{1, 2}, Vector{3, 4})
	require.InDelta(t, -11.0, d, 1e-9)
}

func TestParseDistance(t *testing.T) {
	require.Equal(t, DistCosine, ParseDistance("COSINE"))
	require.Equal(t, DistManhattan, ParseDistance("MANHATTAN"))
	require.Equal(t, DistDot, ParseDistance("DOT"))
	require.Equal(t, DistEuclidean, ParseDistance("nonsense"))
}
