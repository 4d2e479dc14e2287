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
	"context"
	"time"

	"github.com/nexusdb/core/internal/codec"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/permission"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// VectorSearcher is the seam a vector index exposes to the read path:
// top-k nearest document keys for a query vector. internal/hnsw.Store
// satisfies it structurally, keeping this package free of an
// internal/hnsw import the same way IndexWriter keeps the write path
// free of one.
type VectorSearcher interface {
	Search(ctx context.Context, tx kvs.Transaction, query []float32, k, ef int) ([][]byte, error)
}

// TextSearcher is VectorSearcher's full-text sibling, satisfied by
// internal/fulltext.Index.
type TextSearcher interface {
	SearchDocs(ctx context.Context, tx kvs.Transaction, term string, topK int) ([][]byte, error)
}

// fetchDocs loads each doc key's record, applies the table's SELECT
// permission and drops keys whose record has vanished (an index can
// briefly trail the primary within a statement that both searched and
// mutated).
func fetchDocs(ctx *exec.Context, tx kvs.Transaction, ns, db, table string, docs [][]byte, perm permission.Physical, m *metrics.Metrics) ([]value.Value, error) {
	isRoot := ctx.Auth().IsRoot
	out := make([]value.Value, 0, len(docs))
	for _, doc := range docs {
		raw, ok, err := tx.Get(context.Background(), keys.Record(ns, db, table, doc))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		row, err := codec.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		allowed, err := permission.Check(perm, isRoot, row, ctx.WithThis)
		if err != nil {
			return nil, err
		}
		if m != nil {
			m.RecordPermissionCheck(allowed)
		}
		if allowed {
			out = append(out, row)
		}
	}
	return out, nil
}

// VectorSearch emits the K records whose indexed vector is nearest to
// Query, nearest first. Ef bounds the search beam; zero falls back to
// a beam of 2*K.
type VectorSearch struct {
	NS, DB, Table string
	Searcher      VectorSearcher
	Query         []float32
	K, Ef         int
	Select        permission.Physical
	Metrics       *metrics.Metrics
}

func (v *VectorSearch) Name() string                       { return "VectorSearch" }
func (v *VectorSearch) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (v *VectorSearch) AccessMode() expr.AccessMode        { return expr.ReadOnly }
func (v *VectorSearch) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (v *VectorSearch) CardinalityHint() CardinalityHint   { return CardinalityFew }

func (v *VectorSearch) Execute(ctx *exec.Context) (Stream, error) {
	start := time.Now()
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	ef := v.Ef
	if ef <= 0 {
		ef = 2 * v.K
	}
	docs, err := v.Searcher.Search(context.Background(), tx, v.Query, v.K, ef)
	if err != nil {
		return nil, err
	}
	rows, err := fetchDocs(ctx, tx, v.NS, v.DB, v.Table, docs, v.Select, v.Metrics)
	if err != nil {
		return nil, err
	}
	if v.K > 0 && len(rows) > v.K {
		rows = rows[:v.K]
	}
	recordOperator(v.Metrics, v.Name(), len(rows), 1, time.Since(start).Seconds())
	return NewSliceStream(rows, len(rows)+1), nil
}

// TextSearch emits the TopK records best matching Term under the
// index's relevance scoring, best first.
type TextSearch struct {
	NS, DB, Table string
	Searcher      TextSearcher
	Term          string
	TopK          int
	Select        permission.Physical
	Metrics       *metrics.Metrics
}

func (t *TextSearch) Name() string                       { return "TextSearch" }
func (t *TextSearch) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (t *TextSearch) AccessMode() expr.AccessMode        { return expr.ReadOnly }
func (t *TextSearch) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (t *TextSearch) CardinalityHint() CardinalityHint   { return CardinalityFew }

func (t *TextSearch) Execute(ctx *exec.Context) (Stream, error) {
	start := time.Now()
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	docs, err := t.Searcher.SearchDocs(context.Background(), tx, t.Term, t.TopK)
	if err != nil {
		return nil, err
	}
	rows, err := fetchDocs(ctx, tx, t.NS, t.DB, t.Table, docs, t.Select, t.Metrics)
	if err != nil {
		return nil, err
	}
	recordOperator(t.Metrics, t.Name(), len(rows), 1, time.Since(start).Seconds())
	return NewSliceStream(rows, len(rows)+1), nil
}
