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
	"encoding/binary"
	"math"
	"sort"

	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/vmihailenco/msgpack/v5"
)

// BM25 tuning constants (standard defaults; the choice of
// exact scoring formula out of scope beyond naming "BM25 or similar").
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Hit is one search result: a matching DocID and its relevance score.
type Hit struct {
	DocID DocID
	Score float64
}

// Search scans every posting for term and scores each matching
// document by BM25 against the index's corpus statistics, returning
// the top-k hits ordered by descending score.
func (ix *Index) Search(ctx context.Context, tx kvs.Transaction, term string, topK int) ([]Hit, error) {
	stats, err := ix.corpusStats(ctx, tx)
	if err != nil {
		return nil, err
	}
	if stats.docCount == 0 {
		return nil, nil
	}
	prefix := keys.TermDocPrefix(ix.NS, ix.DB, ix.Table, ix.Name, term)
	end := keys.PrefixEnd(prefix)
	rows, err := tx.Scan(ctx, prefix, end, 0, kvs.Forward)
	if err != nil {
		return nil, err
	}
	idf := math.Log(1 + (float64(stats.docCount)-float64(len(rows))+0.5)/(float64(len(rows))+0.5))
	hits := make([]Hit, 0, len(rows))
	for _, kv := range rows {
		suffix := kv.Key[len(prefix):]
		docID, err := keys.DecodeUint64(suffix)
		if err != nil {
			return nil, err
		}
		var td TermDocument
		if err := msgpack.Unmarshal(kv.Value, &td); err != nil {
			return nil, err
		}
		dl := stats.lengths[DocID(docID)]
		denom := float64(td.Freq) + bm25K1*(1-bm25B+bm25B*float64(dl)/stats.avgDL())
		score := idf * (float64(td.Freq) * (bm25K1 + 1)) / denom
		hits = append(hits, Hit{DocID: DocID(docID), Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// SearchDocs runs Search and resolves each hit's DocID back to the
// record key that was indexed under it, preserving score order. The
// reverse resolution walks the forward doc-key mapping once inside
// the transaction's snapshot.
func (ix *Index) SearchDocs(ctx context.Context, tx kvs.Transaction, term string, topK int) ([][]byte, error) {
	hits, err := ix.Search(ctx, tx, term, topK)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	fwdPrefix := keys.DocIDForward(ix.NS, ix.DB, ix.Table, ix.Name, nil)
	rows, err := tx.Scan(ctx, fwdPrefix, keys.PrefixEnd(fwdPrefix), 0, kvs.Forward)
	if err != nil {
		return nil, err
	}
	byID := make(map[DocID][]byte, len(rows))
	for _, kv := range rows {
		if len(kv.Value) != 8 {
			continue
		}
		byID[DocID(binary.BigEndian.Uint64(kv.Value))] = kv.Key[len(fwdPrefix):]
	}
	docs := make([][]byte, 0, len(hits))
	for _, h := range hits {
		if doc, ok := byID[h.DocID]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

type corpusStats struct {
	docCount int
	totalLen uint64
	lengths  map[DocID]uint64
}

func (s *corpusStats) avgDL() float64 {
	if s.docCount == 0 {
		return 0
	}
	return float64(s.totalLen) / float64(s.docCount)
}

func (ix *Index) corpusStats(ctx context.Context, tx kvs.Transaction) (*corpusStats, error) {
	prefix := keys.DocLengthPrefix(ix.NS, ix.DB, ix.Table, ix.Name)
	end := keys.PrefixEnd(prefix)
	rows, err := tx.Scan(ctx, prefix, end, 0, kvs.Forward)
	if err != nil {
		return nil, err
	}
	stats := &corpusStats{lengths: make(map[DocID]uint64, len(rows))}
	for _, kv := range rows {
		suffix := kv.Key[len(prefix):]
		docID, err := keys.DecodeUint64(suffix)
		if err != nil {
			return nil, err
		}
		dl := binary.BigEndian.Uint64(kv.Value)
		stats.lengths[DocID(docID)] = dl
		stats.totalLen += dl
		stats.docCount++
	}
	return stats, nil
}
