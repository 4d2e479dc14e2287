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

package fulltext

import (
	"context"
	"testing"

	"github.com/nexusdb/core/internal/batch"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/mvcc"
	"github.com/stretchr/testify/require"
)

func newTestTx(t *testing.T) (kvs.Transaction, func()) {
	t.Helper()
	e := kvs.NewEngine(mvcc.NewMemoryStore(), batch.DefaultConfig(), kvs.Never, 0)
	tx, err := e.Begin(context.Background(), kvs.Write, kvs.Optimistic)
	require.NoError(t, err)
	return tx, func() { _ = e.Close() }
}

func TestIndexDocumentThenSearch(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := context.Background()

	ix := &Index{NS: "n", DB: "d", Table: "article", Name: "content_ft", Analyzer: NewDefault()}
	require.NoError(t, ix.IndexDocument(ctx, tx, []byte("doc1"), "the quick brown fox"))
	require.NoError(t, ix.IndexDocument(ctx, tx, []byte("doc2"), "the lazy dog"))

	hits, err := ix.Search(ctx, tx, "fox", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, DocID(1), hits[0].DocID)

	hits, err = ix.Search(ctx, tx, "the", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestIndexDocumentReusesDocIDOnReindex(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := context.Background()

	ix := &Index{NS: "n", DB: "d", Table: "article", Name: "content_ft", Analyzer: NewDefault()}
	require.NoError(t, ix.IndexDocument(ctx, tx, []byte("doc1"), "hello world"))
	id1, ok, err := ResolveDocID(ctx, tx, "n", "d", "article", "content_ft", []byte("doc1"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ix.Reindex(ctx, tx, []byte("doc1"), "hello world", "goodbye world"))
	id2, ok, err := ResolveDocID(ctx, tx, "n", "d", "article", "content_ft", []byte("doc1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id1, id2)

	hits, err := ix.Search(ctx, tx, "hello", 10)
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = ix.Search(ctx, tx, "goodbye", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRemoveDocumentDropsPostings(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := context.Background()

	ix := &Index{NS: "n", DB: "d", Table: "article", Name: "content_ft", Analyzer: NewDefault()}
	require.NoError(t, ix.IndexDocument(ctx, tx, []byte("doc1"), "hello world"))
	require.NoError(t, ix.RemoveDocument(ctx, tx, []byte("doc1"), "hello world"))

	hits, err := ix.Search(ctx, tx, "hello", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestAllocateDocIDIsMonotonic(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := context.Background()

	id1, err := AllocateDocID(ctx, tx, "n", "d", "t", "ix", []byte("a"))
	require.NoError(t, err)
	id2, err := AllocateDocID(ctx, tx, "n", "d", "t", "ix", []byte("b"))
	require.NoError(t, err)
	require.Equal(t, DocID(1), id1)
	require.Equal(t, DocID(2), id2)

	again, err := AllocateDocID(ctx, tx, "n", "d", "t", "ix", []byte("a"))
	require.NoError(t, err)
	require.Equal(t, id1, again)
}
