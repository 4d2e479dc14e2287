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

	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/vmihailenco/msgpack/v5"
)

// TermDocument is one posting's payload. Offsets is nil unless the index has
// highlighting enabled.
type TermDocument struct {
	Freq    uint32   `msgpack:"f"`
	Offsets [][2]int `msgpack:"o,omitempty"`
}

// Index is one table+index's full-text posting set: the analyzer
// that tokenizes content, plus whether per-term offsets are stored.
type Index struct {
	NS, DB, Table, Name string
	Analyzer            *Analyzer
	Highlighting         bool
}

// IndexDocument tokenizes content and writes one Td posting per
// distinct term plus one Dl doc-length entry, overwriting the Dl entry
// and the postings of terms that recur; postings of earlier terms that
// content no longer has are left in place (Reindex removes them
// first). docKey is the record's encoded
// RecordIDKey, stable across re-indexing so the DocID is reused
// rather than re-allocated.
func (ix *Index) IndexDocument(ctx context.Context, tx kvs.Transaction, docKey []byte, content string) error {
	id, err := AllocateDocID(ctx, tx, ix.NS, ix.DB, ix.Table, ix.Name, docKey)
	if err != nil {
		return err
	}
	return ix.writeTerms(ctx, tx, id, content)
}

func (ix *Index) writeTerms(ctx context.Context, tx kvs.Transaction, id DocID, content string) error {
	tokens := ix.Analyzer.Tokenize(content)
	perTerm := map[string]*TermDocument{}
	order := make([]string, 0, len(tokens))
	for _, t := range tokens {
		td, ok := perTerm[t.Term]
		if !ok {
			td = &TermDocument{}
			perTerm[t.Term] = td
			order = append(order, t.Term)
		}
		td.Freq++
		if ix.Highlighting {
			td.Offsets = append(td.Offsets, [2]int{t.Start, t.End})
		}
	}
	for _, term := range order {
		body, err := msgpack.Marshal(perTerm[term])
		if err != nil {
			return err
		}
		key := keys.TermDoc(ix.NS, ix.DB, ix.Table, ix.Name, term, uint64(id))
		if err := tx.Set(ctx, key, body); err != nil {
			return err
		}
	}
	dlBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(dlBuf, uint64(len(tokens)))
	return tx.Set(ctx, keys.DocLength(ix.NS, ix.DB, ix.Table, ix.Name, uint64(id)), dlBuf)
}

// RemoveDocument resolves docKey's DocID (if it has ever been
// indexed) and deletes every Td posting the prior content wrote plus
// its Dl entry. The DocID itself is never reclaimed.
func (ix *Index) RemoveDocument(ctx context.Context, tx kvs.Transaction, docKey []byte, oldContent string) error {
	id, ok, err := ResolveDocID(ctx, tx, ix.NS, ix.DB, ix.Table, ix.Name, docKey)
	if err != nil || !ok {
		return err
	}
	tokens := ix.Analyzer.Tokenize(oldContent)
	seen := map[string]bool{}
	for _, t := range tokens {
		if seen[t.Term] {
			continue
		}
		seen[t.Term] = true
		if err := tx.Del(ctx, keys.TermDoc(ix.NS, ix.DB, ix.Table, ix.Name, t.Term, uint64(id))); err != nil {
			return err
		}
	}
	return tx.Del(ctx, keys.DocLength(ix.NS, ix.DB, ix.Table, ix.Name, uint64(id)))
}

// Reindex replaces a document's postings: it removes postings built
// from oldContent then writes fresh ones from newContent under the
// same DocID, matching the CREATE/UPDATE synchronous-index-maintenance
// invariant.
func (ix *Index) Reindex(ctx context.Context, tx kvs.Transaction, docKey []byte, oldContent, newContent string) error {
	if oldContent != "" {
		if err := ix.RemoveDocument(ctx, tx, docKey, oldContent); err != nil {
			return err
		}
	}
	if newContent == "" {
		return nil
	}
	return ix.IndexDocument(ctx, tx, docKey, newContent)
}
