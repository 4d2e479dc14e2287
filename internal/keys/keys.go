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

// Package keys implements the canonical byte layout for every logical
// entity the engine stores: records, index postings, HNSW
// element/doc mappings, graph edges, live queries and the change feed.
// Every key begins '/' and uses a single-byte separator per scope so a
// prefix scan always bounds exactly one logical collection.
package keys

import (
	"fmt"
)

const (
	sepNamespace = '*' // /*ns
	sepDatabase  = '*' // *db
	sepTable     = '*' // *tb (record) or +ix (index)
	sepIndex     = '+' // tb+ix
	sepField     = '!' // ix!td / ix!dl / ix!hh / ix!hv / tb!lq
	sepGraph     = '~' // tb~id
	sepFeed      = '#' // db#versionstamp
)

// Record returns the key for a single record: /*ns*db*tb*{encoded_key}.
func Record(ns, db, tb string, encodedKey []byte) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepTable)
	b = append(b, encodedKey...)
	return b
}

// RecordPrefix returns the prefix that bounds every record of a table:
// /*ns*db*tb* — a scan over [RecordPrefix, PrefixEnd(RecordPrefix))
// yields every record key in the table, in bytewise key order.
func RecordPrefix(ns, db, tb string) []byte {
	b := tablePrefix(ns, db, tb)
	return append(b, sepTable)
}

// indexPrefix returns /*ns*db*tb+ix.
func indexPrefix(ns, db, tb, ix string) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepIndex)
	b = append(b, ix...)
	return b
}

// TermDoc returns the full-text inverted-index posting key
// /*ns*db*tb+ix!td{term}\0{docId}.
func TermDoc(ns, db, tb, ix, term string, docID uint64) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "td"...)
	b = append(b, term...)
	b = append(b, 0)
	b = append(b, beUint64(docID)...)
	return b
}

// TermDocPrefix bounds every posting for one term: /*ns*db*tb+ix!td{term}\0.
func TermDocPrefix(ns, db, tb, ix, term string) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "td"...)
	b = append(b, term...)
	b = append(b, 0)
	return b
}

// DocLength returns the full-text doc-length key /*ns*db*tb+ix!dl{docId}.
func DocLength(ns, db, tb, ix string, docID uint64) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "dl"...)
	b = append(b, beUint64(docID)...)
	return b
}

// DocLengthPrefix bounds every doc-length entry of an index:
// /*ns*db*tb+ix!dl, used by full-text search to gather corpus
// statistics (document count, average document length).
func DocLengthPrefix(ns, db, tb, ix string) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	return append(b, "dl"...)
}

// HNSWHashElem returns the HNSW hash->element key
// /*ns*db*tb+ix!hh{blake3(vec)}.
func HNSWHashElem(ns, db, tb, ix string, hash []byte) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "hh"...)
	b = append(b, hash...)
	return b
}

// HNSWVecDocs returns the HNSW vector->docs key
// /*ns*db*tb+ix!hv{serialized_hash}.
func HNSWVecDocs(ns, db, tb, ix string, serializedHash []byte) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "hv"...)
	b = append(b, serializedHash...)
	return b
}

// DocIDForward returns the full-text docId allocator's forward
// mapping key: /*ns*db*tb+ix!di{doc_key} -> DocId. doc_key is the
// record's own encoded RecordIDKey, so a record's DocId is stable and
// reused across re-indexing.
func DocIDForward(ns, db, tb, ix string, docKey []byte) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "di"...)
	b = append(b, docKey...)
	return b
}

// DocIDSeq returns the per-index monotonic DocId counter key:
// /*ns*db*tb+ix!is. The DocId is never reused even after a record's
// entry is removed.
func DocIDSeq(ns, db, tb, ix string) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "is"...)
	return b
}

// HNSWElemSeq returns the per-index monotonic ElementId counter key:
// /*ns*db*tb+ix!hs. Mirrors DocIDSeq's role for the full-text index:
// every distinct vector hash gets a freshly allocated, never-reused
// ElementId the in-memory graph addresses nodes by.
func HNSWElemSeq(ns, db, tb, ix string) []byte {
	b := indexPrefix(ns, db, tb, ix)
	b = append(b, sepField)
	b = append(b, "hs"...)
	return b
}

// GraphDirection is the direction byte used by GraphEdge keys.
type GraphDirection byte

const (
	GraphOut GraphDirection = 'o'
	GraphIn  GraphDirection = 'i'
)

// GraphEdge returns the graph-edge key
// /*ns*db*tb~{id}{dir}{foreign_tb}\0{foreign_id}.
func GraphEdge(ns, db, tb string, id []byte, dir GraphDirection, foreignTB string, foreignID []byte) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepGraph)
	b = append(b, id...)
	b = append(b, byte(dir))
	b = append(b, foreignTB...)
	b = append(b, 0)
	b = append(b, foreignID...)
	return b
}

// GraphEdgePrefix bounds every edge for a given node and direction:
// /*ns*db*tb~{id}{dir}.
func GraphEdgePrefix(ns, db, tb string, id []byte, dir GraphDirection) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepGraph)
	b = append(b, id...)
	b = append(b, byte(dir))
	return b
}

// GraphEdgeAllPrefix bounds every edge for a given node across both
// directions: /*ns*db*tb~{id}.
func GraphEdgeAllPrefix(ns, db, tb string, id []byte) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepGraph)
	b = append(b, id...)
	return b
}

// SplitGraphForeign splits the tail of a graph-edge key — everything
// after the direction byte — back into the foreign table name and the
// foreign record's encoded id.
func SplitGraphForeign(tail []byte) (foreignTB string, foreignID []byte, err error) {
	for i, c := range tail {
		if c == 0 {
			return string(tail[:i]), tail[i+1:], nil
		}
	}
	return "", nil, fmt.Errorf("graph edge key: missing table terminator")
}

// LiveQuery returns the per-table live query key
// /*ns*db*tb!lq{lq_uuid}.
func LiveQuery(ns, db, tb string, lqUUID []byte) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepField)
	b = append(b, "lq"...)
	b = append(b, lqUUID...)
	return b
}

// LiveQueryPrefix bounds every live query registered on a table.
func LiveQueryPrefix(ns, db, tb string) []byte {
	b := tablePrefix(ns, db, tb)
	b = append(b, sepField)
	b = append(b, "lq"...)
	return b
}

// ChangeFeed returns the change-feed key /*ns*db#{versionstamp}.
// versionstamp must already be a big-endian-ordered byte encoding so
// that a prefix scan over ChangeFeedPrefix yields the feed in commit
// order.
func ChangeFeed(ns, db string, versionstamp []byte) []byte {
	b := dbPrefix(ns, db)
	b = append(b, sepFeed)
	b = append(b, versionstamp...)
	return b
}

// ChangeFeedPrefix bounds the whole change feed of a database.
func ChangeFeedPrefix(ns, db string) []byte {
	b := dbPrefix(ns, db)
	return append(b, sepFeed)
}

func dbPrefix(ns, db string) []byte {
	b := make([]byte, 0, 2+len(ns)+len(db)+2)
	b = append(b, '/')
	b = append(b, sepNamespace)
	b = append(b, ns...)
	b = append(b, sepDatabase)
	b = append(b, db...)
	return b
}

func tablePrefix(ns, db, tb string) []byte {
	b := dbPrefix(ns, db)
	b = append(b, sepTable)
	b = append(b, tb...)
	return b
}

// PrefixEnd returns the smallest key that is strictly greater than
// every key with the given prefix, suitable as the exclusive upper
// bound of a prefix scan ([prefix, PrefixEnd(prefix))).
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	// prefix is all 0xff bytes; there is no finite successor, so the
	// scan is unbounded above.
	return nil
}

func beUint64(v uint64) []byte {
	return []byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}

// DecodeUint64 is the inverse of beUint64, exposed for decoding DocId
// and similar monotonic counters back out of a key's suffix.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("keys: expected 8 bytes for uint64, got %d", len(b))
	}
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7]), nil
}
