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

package mvcc

import (
	"sync"

	"github.com/google/btree"
)

// MemoryStore is an in-memory MVCC store implementation, used for
// tests and for the in-process query path around cursors that never
// touch disk. It uses a B-tree for storing versioned key-value pairs
// and a KeyIndex for tracking revision history.
type MemoryStore struct {
	mu sync.RWMutex

	// keyIndex tracks all revisions for each key
	keyIndex *KeyIndex

	// revisionStore maps revision -> KeyValue
	// Uses B-tree for ordered iteration and efficient range queries
	revisionStore *btree.BTree

	// revisionGen generates new revisions
	revisionGen *RevisionGenerator

	// compactedRev is the revision that has been compacted
	compactedRev Revision

	// closed indicates if the store is closed
	closed bool
}

// revisionItem wraps a KeyValue with its revision for B-tree storage.
type revisionItem struct {
	rev Revision
	kv  *KeyValue
}

// Less implements btree.Item.
func (ri *revisionItem) Less(other btree.Item) bool {
	return ri.rev.LessThan(other.(*revisionItem).rev)
}

// NewMemoryStore creates a new in-memory MVCC store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keyIndex:      NewKeyIndex(),
		revisionStore: btree.New(32),
		revisionGen:   NewRevisionGenerator(Revision{0, 0}),
		compactedRev:  Zero,
	}
}

// Put stores a key-value pair and returns the new revision.
func (s *MemoryStore) Put(key, value []byte) (int64, error) {
	if len(key) == 0 {
		return 0, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	// Generate new revision
	rev := s.revisionGen.Next()

	// Get previous version info
	var createRev int64
	var version int64 = 1

	if ki := s.keyIndex.Get(key); ki != nil && !ki.IsDeleted() {
		// Key exists, increment version
		prevRev := ki.CurrentGeneration().LastRevision()
		if !prevRev.IsZero() {
			if item := s.revisionStore.Get(&revisionItem{rev: prevRev}); item != nil {
				prevKv := item.(*revisionItem).kv
				createRev = prevKv.CreateRevision
				version = prevKv.Version + 1
			}
		}
	} else {
		// New key
		createRev = rev.Main
	}

	// Create KeyValue
	kv := &KeyValue{
		Key:            append([]byte{}, key...),
		Value:          append([]byte{}, value...),
		CreateRevision: createRev,
		ModRevision:    rev.Main,
		Version:        version,
	}

	// Store in revision store
	s.revisionStore.ReplaceOrInsert(&revisionItem{rev: rev, kv: kv})

	// Update key index
	s.keyIndex.Put(key, rev)

	return rev.Main, nil
}

// Get retrieves the value for a key at a specific revision.
func (s *MemoryStore) Get(key []byte, rev int64) (*KeyValue, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	// A Main-only rev covers every sub-revision written under it
	// (DeleteRange tombstones its keys at {Main, 0..n-1}).
	atRev := Revision{Main: rev, Sub: 1<<63 - 1}
	if rev == 0 {
		atRev = s.revisionGen.Current()
	}

	// Check if revision is compacted
	if atRev.LessThan(s.compactedRev) {
		return nil, ErrCompacted
	}

	// Check if revision is in the future
	if atRev.Main > s.revisionGen.Current().Main {
		return nil, ErrFutureRevision
	}

	// Find the revision for this key
	keyRev := s.keyIndex.GetRevision(key, atRev)
	if keyRev.IsZero() {
		return nil, ErrKeyNotFound
	}

	// Get the KeyValue from revision store
	item := s.revisionStore.Get(&revisionItem{rev: keyRev})
	if item == nil {
		return nil, ErrKeyNotFound
	}

	kv := item.(*revisionItem).kv

	// Check if this is a delete marker (Version == 0)
	if kv.Version == 0 {
		return nil, ErrKeyNotFound
	}

	return kv.Clone(), nil
}

// Range retrieves key-value pairs in the range [start, end).
func (s *MemoryStore) Range(start, end []byte, rev int64, limit int64) ([]*KeyValue, int64, error) {
	if len(start) == 0 {
		return nil, 0, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, 0, ErrClosed
	}

	// A Main-only rev covers every sub-revision written under it
	// (DeleteRange tombstones its keys at {Main, 0..n-1}).
	atRev := Revision{Main: rev, Sub: 1<<63 - 1}
	if rev == 0 {
		atRev = s.revisionGen.Current()
	}

	// Check if revision is compacted
	if atRev.LessThan(s.compactedRev) {
		return nil, 0, ErrCompacted
	}

	// Check if revision is in the future
	if atRev.Main > s.revisionGen.Current().Main {
		return nil, 0, ErrFutureRevision
	}

	var result []*KeyValue
	var count int64

	s.keyIndex.Range(start, end, atRev, func(key []byte, keyRev Revision) bool {
		// Check limit
		if limit > 0 && count >= limit {
			return false
		}

		// Get the KeyValue
		item := s.revisionStore.Get(&revisionItem{rev: keyRev})
		if item == nil {
			return true
		}

		kv := item.(*revisionItem).kv

		// Skip delete markers
		if kv.Version == 0 {
			return true
		}

		result = append(result, kv.Clone())
		count++

		return true
	})

	return result, count, nil
}

// Delete deletes a key and returns the revision and number of deleted keys.
func (s *MemoryStore) Delete(key []byte) (int64, int64, error) {
	if len(key) == 0 {
		return 0, 0, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, ErrClosed
	}

	// Check if key exists
	ki := s.keyIndex.Get(key)
	if ki == nil || ki.IsDeleted() {
		// Key doesn't exist, return success with 0 deleted
		return s.revisionGen.Current().Main, 0, nil
	}

	// Generate new revision
	rev := s.revisionGen.Next()

	// Get previous KeyValue for the tombstone
	prevRev := ki.CurrentGeneration().LastRevision()
	var createRev int64
	if !prevRev.IsZero() {
		if item := s.revisionStore.Get(&revisionItem{rev: prevRev}); item != nil {
			createRev = item.(*revisionItem).kv.CreateRevision
		}
	}

	// Create tombstone (Version = 0)
	tombstone := &KeyValue{
		Key:            append([]byte{}, key...),
		Value:          nil,
		CreateRevision: createRev,
		ModRevision:    rev.Main,
		Version:        0, // Tombstone marker
	}

	// Store tombstone
	s.revisionStore.ReplaceOrInsert(&revisionItem{rev: rev, kv: tombstone})

	// Update key index
	s.keyIndex.Delete(key, rev)

	return rev.Main, 1, nil
}

// DeleteRange deletes all keys in the range [start, end).
func (s *MemoryStore) DeleteRange(start, end []byte) (int64, int64, error) {
	if len(start) == 0 {
		return 0, 0, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, ErrClosed
	}

	// Collect keys to delete (use Zero to get currently live keys)
	var keysToDelete [][]byte
	s.keyIndex.Range(start, end, Zero, func(key []byte, keyRev Revision) bool {
		keysToDelete = append(keysToDelete, append([]byte{}, key...))
		return true
	})

	if len(keysToDelete) == 0 {
		return s.revisionGen.Current().Main, 0, nil
	}

	// Generate revision for this batch delete
	rev := s.revisionGen.Next()
	var deleted int64
	var lastSubRev int64

	for i, key := range keysToDelete {
		ki := s.keyIndex.Get(key)
		if ki == nil || ki.IsDeleted() {
			continue
		}

		// For batch deletes, use sub-revisions
		deleteRev := Revision{Main: rev.Main, Sub: int64(i)}
		lastSubRev = int64(i)

		// Get previous KeyValue
		prevRev := ki.CurrentGeneration().LastRevision()
		var createRev int64
		if !prevRev.IsZero() {
			if item := s.revisionStore.Get(&revisionItem{rev: prevRev}); item != nil {
				createRev = item.(*revisionItem).kv.CreateRevision
			}
		}

		// Create tombstone
		tombstone := &KeyValue{
			Key:            key,
			Value:          nil,
			CreateRevision: createRev,
			ModRevision:    rev.Main,
			Version:        0,
		}

		// Store tombstone
		s.revisionStore.ReplaceOrInsert(&revisionItem{rev: deleteRev, kv: tombstone})

		// Update key index
		s.keyIndex.Delete(key, deleteRev)

		deleted++
	}

	// Update the revision generator to reflect the highest sub-revision used
	// This ensures that subsequent Range queries with current revision see all deletes
	if deleted > 0 && lastSubRev > 0 {
		s.revisionGen.current.Sub = lastSubRev
	}

	return rev.Main, deleted, nil
}

// CurrentRevision returns the current revision.
func (s *MemoryStore) CurrentRevision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revisionGen.Current().Main
}

// CompactedRevision returns the revision that has been compacted.
func (s *MemoryStore) CompactedRevision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compactedRev.Main
}

// Compact compacts all revisions before the given revision.
func (s *MemoryStore) Compact(rev int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	targetRev := Revision{Main: rev}

	// Check if already compacted
	if targetRev.LessThanOrEqual(s.compactedRev) {
		return ErrCompacted
	}

	// Check if future revision
	if targetRev.GreaterThan(s.revisionGen.Current()) {
		return ErrFutureRevision
	}

	// Compact key index
	s.keyIndex.Compact(targetRev)

	// Remove old revisions from revision store
	var toDelete []*revisionItem
	s.revisionStore.Ascend(func(item btree.Item) bool {
		ri := item.(*revisionItem)
		if ri.rev.LessThan(targetRev) {
			toDelete = append(toDelete, ri)
		}
		return true
	})

	for _, ri := range toDelete {
		s.revisionStore.Delete(ri)
	}

	s.compactedRev = targetRev

	return nil
}

// Sync is a no-op: MemoryStore holds nothing but heap, so there is
// nothing for durability mode Always or Interval to flush.
func (s *MemoryStore) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close closes the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.closed = true
	return nil
}
