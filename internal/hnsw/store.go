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
	"context"
	"encoding/binary"
	"math"

	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"lukechampine.com/blake3"
)

// Store is the KVS-backed identity layer in front of a Graph: it
// hashes an incoming vector with blake3, dedups
// repeat insertions of an identical vector onto one ElementId, and
// tracks which document keys currently reference that element so a
// delete can tell whether the element should actually leave the
// graph (another document may still be using the same vector).
type Store struct {
	NS, DB, Table, Name string
	Graph               *Graph
}

func vectorHash(vec Vector) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	sum := blake3.Sum256(buf)
	return sum[:]
}

// docSet is the msgpack-free wire format for Hv's value: a list of doc
// keys in insertion order, length-prefixed, avoiding a dependency on the codec
// package's record-oriented envelope for what is really a small set.
type docSet struct {
	keys [][]byte
}

func encodeDocSet(s docSet) []byte {
	var out []byte
	n := make([]byte, 4)
	binary.BigEndian.PutUint32(n, uint32(len(s.keys)))
	out = append(out, n...)
	for _, k := range s.keys {
		kl := make([]byte, 4)
		binary.BigEndian.PutUint32(kl, uint32(len(k)))
		out = append(out, kl...)
		out = append(out, k...)
	}
	return out
}

func decodeDocSet(b []byte) (docSet, error) {
	if len(b) < 4 {
		return docSet{}, errs.New(errs.InvalidArguments)
	}
	count := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	s := docSet{keys: make([][]byte, 0, count)}
	for i := uint32(0); i < count; i++ {
		if len(b) < 4 {
			return docSet{}, errs.New(errs.InvalidArguments)
		}
		kl := binary.BigEndian.Uint32(b[:4])
		b = b[4:]
		if uint32(len(b)) < kl {
			return docSet{}, errs.New(errs.InvalidArguments)
		}
		s.keys = append(s.keys, b[:kl])
		b = b[kl:]
	}
	return s, nil
}

func (s docSet) remove(docKey []byte) (docSet, bool) {
	out := docSet{keys: make([][]byte, 0, len(s.keys))}
	removed := false
	for _, k := range s.keys {
		if !removed && bytesEqual(k, docKey) {
			removed = true
			continue
		}
		out.keys = append(out.keys, k)
	}
	return out, removed
}

func (s docSet) contains(docKey []byte) bool {
	for _, k := range s.keys {
		if bytesEqual(k, docKey) {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Index resolves vec to an ElementId (allocating and inserting into
// the graph on first sight of this exact vector), associates docKey
// with it, and returns the id.
func (s *Store) Index(ctx context.Context, tx kvs.Transaction, docKey []byte, vec Vector) (ElementId, error) {
	hash := vectorHash(vec)
	hhKey := keys.HNSWHashElem(s.NS, s.DB, s.Table, s.Name, hash)

	var id ElementId
	if raw, ok, err := tx.Get(ctx, hhKey); err != nil {
		return 0, err
	} else if ok {
		if len(raw) != 8 {
			return 0, errs.New(errs.InvalidArguments)
		}
		id = ElementId(binary.BigEndian.Uint64(raw))
	} else {
		seqKey := keys.HNSWElemSeq(s.NS, s.DB, s.Table, s.Name)
		next := uint64(1)
		if raw, ok, err := tx.Get(ctx, seqKey); err != nil {
			return 0, err
		} else if ok {
			next = binary.BigEndian.Uint64(raw) + 1
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, next)
		if err := tx.Set(ctx, seqKey, buf); err != nil {
			return 0, err
		}
		if err := tx.Set(ctx, hhKey, buf); err != nil {
			return 0, err
		}
		id = ElementId(next)
		s.Graph.Insert(id, vec)
	}

	hvKey := keys.HNSWVecDocs(s.NS, s.DB, s.Table, s.Name, hash)
	set := docSet{}
	if raw, ok, err := tx.Get(ctx, hvKey); err != nil {
		return 0, err
	} else if ok {
		if set, err = decodeDocSet(raw); err != nil {
			return 0, err
		}
	}
	if !set.contains(docKey) {
		set.keys = append(set.keys, docKey)
		if err := tx.Set(ctx, hvKey, encodeDocSet(set)); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Search runs a top-k query against the graph and resolves each
// matched element back to the document keys currently associated with
// its vector, nearest first. Elements sharing an identical vector tie
// at the same distance, so every document on a matched element is
// included before the next element's. The element-to-hash resolution
// walks the hash-to-element key range once; a vector index is bounded
// by its table's size, and the walk stays inside the transaction's
// snapshot.
func (s *Store) Search(ctx context.Context, tx kvs.Transaction, query []float32, k, ef int) ([][]byte, error) {
	results := s.Graph.Search(Vector(query), k, ef)
	if len(results) == 0 {
		return nil, nil
	}
	want := make(map[ElementId][]byte, len(results))
	for _, r := range results {
		want[r.ID] = nil
	}
	hhPrefix := keys.HNSWHashElem(s.NS, s.DB, s.Table, s.Name, nil)
	rows, err := tx.Scan(ctx, hhPrefix, keys.PrefixEnd(hhPrefix), 0, kvs.Forward)
	if err != nil {
		return nil, err
	}
	for _, kv := range rows {
		if len(kv.Value) != 8 {
			continue
		}
		id := ElementId(binary.BigEndian.Uint64(kv.Value))
		if _, ok := want[id]; ok {
			want[id] = kv.Key[len(hhPrefix):]
		}
	}
	var docs [][]byte
	for _, r := range results {
		hash := want[r.ID]
		if hash == nil {
			continue
		}
		raw, ok, err := tx.Get(ctx, keys.HNSWVecDocs(s.NS, s.DB, s.Table, s.Name, hash))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		set, err := decodeDocSet(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, set.keys...)
	}
	return docs, nil
}

// Remove disassociates docKey from vec's element, deleting the
// element from the graph only once no other document references the
// same vector hash.
func (s *Store) Remove(ctx context.Context, tx kvs.Transaction, docKey []byte, vec Vector) error {
	hash := vectorHash(vec)
	hvKey := keys.HNSWVecDocs(s.NS, s.DB, s.Table, s.Name, hash)
	raw, ok, err := tx.Get(ctx, hvKey)
	if err != nil || !ok {
		return err
	}
	set, err := decodeDocSet(raw)
	if err != nil {
		return err
	}
	set, removed := set.remove(docKey)
	if !removed {
		return nil
	}
	if len(set.keys) == 0 {
		if err := tx.Del(ctx, hvKey); err != nil {
			return err
		}
		hhKey := keys.HNSWHashElem(s.NS, s.DB, s.Table, s.Name, hash)
		if idRaw, ok, err := tx.Get(ctx, hhKey); err != nil {
			return err
		} else if ok {
			s.Graph.Delete(ElementId(binary.BigEndian.Uint64(idRaw)))
			if err := tx.Del(ctx, hhKey); err != nil {
				return err
			}
		}
		return nil
	}
	return tx.Set(ctx, hvKey, encodeDocSet(set))
}
