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

// Package kvs is the engine's transactional KVS abstraction:
// a byte-keyed store with snapshot reads, point writes, put-if-absent,
// range scans, prefix delete and grouped commit. It is a thin contract
// layer over internal/mvcc (which already gives it real versioned
// get/range reads) plus internal/batch (which gives it the grouped
// fsync-amortizing commit).
package kvs

import (
	"context"

	"github.com/nexusdb/core/internal/errs"
)

// Mode selects whether a Transaction may write.
type Mode int

const (
	Read Mode = iota
	Write
)

// LockHint selects how a Write transaction detects conflicting
// concurrent writers. Optimistic validates at commit time;
// Pessimistic acquires per-key locks as keys
// are touched, so commit never conflicts.
type LockHint int

const (
	Optimistic LockHint = iota
	Pessimistic
)

// Direction selects scan order.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Durability selects when a committed batch is made crash-durable.
type Durability int

const (
	// Always fsyncs every grouped-commit batch before acknowledging it.
	Always Durability = iota
	// Interval fsyncs on a background timer; writes since the last
	// flush are lost on crash.
	Interval
	// Never leaves fsync scheduling to the OS.
	Never
)

// KV is a single key/value pair returned from a scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Store opens transactions against one underlying engine.
type Store interface {
	Begin(ctx context.Context, mode Mode, lock LockHint) (Transaction, error)
	Close() error
}

// Transaction is the store's unit of work. Every method on a finished
// transaction returns errs.TxFinished; every write method on a Read
// transaction returns errs.TxReadonly.
type Transaction interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)

	// Put writes key only if absent. Returns errs.TxKeyAlreadyExists
	// if the key is already present (as of this call, or pending in
	// this transaction's own write set).
	Put(ctx context.Context, key, val []byte) error

	// Set writes key unconditionally.
	Set(ctx context.Context, key, val []byte) error

	// Del tombstones a single key.
	Del(ctx context.Context, key []byte) error

	// Delp tombstones every key under prefix.
	Delp(ctx context.Context, prefix []byte) error

	// Clrp deletes every key under prefix. It is applied through the
	// same store range delete as Delp, so each key is tombstoned; no
	// separate purge of the key history is performed.
	Clrp(ctx context.Context, prefix []byte) error

	// Scan returns every key in [start,end) in the requested
	// direction, bounded by limit (0 = unbounded), as observed by
	// this transaction's snapshot overlaid with its own pending
	// writes.
	Scan(ctx context.Context, start, end []byte, limit int, dir Direction) ([]KV, error)

	Commit(ctx context.Context) error
	Cancel(ctx context.Context) error

	// Mode and Lock report how this transaction was opened, so operators
	// can decide whether a ReadWrite plan is even legal.
	Mode() Mode
	Lock() LockHint
}

func readonly() error { return errs.New(errs.TxReadonly) }
func finished() error { return errs.New(errs.TxFinished) }
