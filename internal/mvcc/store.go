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

// Store is the versioned key-value backend underneath internal/kvs.
// Every write advances a monotonic revision; a kvs transaction pins
// one revision as its snapshot at Begin and reads through Get/Range
// at that snapshot for the rest of its lifetime, which is what gives
// the engine's transactions a consistent view regardless of writes
// landing concurrently in other grouped-commit batches.
type Store interface {
	// Put stores a key-value pair and returns the new revision.
	Put(key, value []byte) (rev int64, err error)

	// Get retrieves the value for a key at a specific revision.
	// If rev is 0, returns the latest version.
	// Returns ErrKeyNotFound if the key doesn't exist.
	// Returns ErrCompacted if the revision has been compacted.
	Get(key []byte, rev int64) (*KeyValue, error)

	// Range retrieves key-value pairs in the range [start, end).
	// If end is nil, it returns all keys >= start.
	// If rev is 0, returns the latest versions.
	// limit specifies the maximum number of keys to return (0 = no limit).
	Range(start, end []byte, rev int64, limit int64) ([]*KeyValue, int64, error)

	// Delete deletes a key and returns the revision and number of deleted keys.
	Delete(key []byte) (rev int64, deleted int64, err error)

	// DeleteRange deletes all keys in the range [start, end).
	// Returns the revision and number of deleted keys.
	DeleteRange(start, end []byte) (rev int64, deleted int64, err error)

	// CurrentRevision returns the current revision.
	CurrentRevision() int64

	// CompactedRevision returns the revision that has been compacted.
	CompactedRevision() int64

	// Compact drops revision history older than rev, bounding the
	// space (in-memory for MemoryStore, on-disk for RocksDBStore) a
	// long-lived table spends on superseded row versions. It never
	// touches the current version of a live key.
	// Returns ErrCompacted if rev <= CompactedRevision.
	// Returns ErrFutureRevision if rev > CurrentRevision.
	Compact(rev int64) error

	// Sync forces buffered writes to stable storage. kvs.Engine calls
	// this once per grouped-commit batch under durability mode Always,
	// and once per tick under Interval.
	Sync() error

	// Close closes the store.
	Close() error
}
