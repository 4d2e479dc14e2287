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

func TestGraphInsertAndSearchFindsNearest(t *testing.T) {
	g := New(DefaultParams(), 1)
	g.Insert(1, Vector{0, 0})
	g.Insert(2, Vector{10, 10})
	g.Insert(3, Vector{0.1, 0.1})

	require.Equal(t, 3, g.Len())
	results := g.Search(Vector{0, 0}, 1, 10)
	require.Len(t, results, 1)
	require.Equal(t, ElementId(1), results[0].ID)
}

func TestGraphInsertIsNoopForExistingID(t *testing.T) {
	g := New(DefaultParams(), 1)
	g.Insert(1, Vector{0, 0})
	g.Insert(1, Vector{99, 99})
	require.Equal(t, 1, g.Len())
	require.True(t, g.Has(1))
}

func TestGraphDeleteRemovesElement(t *testing.T) {
	g := New(DefaultParams(), 1)
	g.Insert(1, Vector{0, 0})
	g.Insert(2, Vector{5, 5})
	g.Delete(1)
	require.Equal(t, 1, g.Len())
	require.False(t, g.Has(1))

	results := g.Search(Vector{5, 5}, 1, 10)
	require.Len(t, results, 1)
	require.Equal(t, ElementId(2), results[0].ID)
}

func TestGraphSearchEmptyGraphReturnsNothing(t *testing.T) {
	g := New(DefaultParams(), 1)
	require.Nil(t, g.Search(Vector{0, 0}, 5, 10))
}

func TestGraphSearchReturnsTopKOrderedByDistance(t *testing.T) {
	g := New(DefaultParams(), 7)
	g.Insert(1, Vector{0, 0})
	g.Insert(2, Vector{1, 1})
	g.Insert(3, Vector{5, 5})
	g.Insert(4, Vector{10, 10})

	results := g.Search(Vector{0, 0}, 2, 50)
	require.Len(t, results, 2)
	require.Equal(t, ElementId(1), results[0].ID)
	require.LessOrEqual(t, results[0].Distance, results[1].Distance)
}
