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

package kvs

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nexusdb/core/internal/batch"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/mvcc"
	"github.com/nexusdb/core/pkg/pool"
	"github.com/nexusdb/core/pkg/reliability"
)

// orderPool recycles the key-order scratch buffer every Scan builds
// while merging committed rows with the transaction's own writes.
var orderPool = pool.NewSlicePool[string](256)

// Engine adapts an mvcc.Store into the kvs.Store contract,
// serializing every write transaction's commit through a
// batch.Coordinator so concurrent committers share one fsync.
type Engine struct {
	store       mvcc.Store
	coordinator *batch.Coordinator
	durability  Durability
	compactor   *mvcc.Compactor

	inputC chan *batch.Request

	keyLocksMu sync.Mutex
	keyLocks   map[string]*sync.Mutex

	flushMu      sync.Mutex
	intervalStop chan struct{}
}

// NewEngine wraps store with a grouped-commit coordinator. cfg
// controls batch sizing; durability selects the fsync policy; interval
// is only consulted when durability == Interval. It also starts a
// background mvcc.Compactor so old row versions get reclaimed without
// an operator having to trigger it by hand.
func NewEngine(store mvcc.Store, cfg batch.Config, durability Durability, interval time.Duration) *Engine {
	e := &Engine{
		store:      store,
		durability: durability,
		inputC:     make(chan *batch.Request, cfg.MaxBatchSize*2),
		keyLocks:   make(map[string]*sync.Mutex),
	}
	e.coordinator = batch.New(cfg, e.inputC, e.sync, nil)
	e.coordinator.Start(context.Background())
	if durability == Interval && interval > 0 {
		e.intervalStop = make(chan struct{})
		reliability.SafeGo("kvs-flush-loop", func() { e.flushLoop(interval) })
	}
	e.compactor = mvcc.NewCompactor(store, mvcc.DefaultCompactorConfig())
	e.compactor.Start()
	return e
}

// sync is the coordinator's commit callback, invoked once per
// grouped-commit batch. Under durability mode Always every batch must
// reach stable storage before its transactions are told they
// committed; under Interval the fsync instead happens on flushLoop's
// ticker, so sync is a no-op here.
func (e *Engine) sync() error {
	if e.durability != Always {
		return nil
	}
	return e.store.Sync()
}

func (e *Engine) flushLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			e.flushMu.Lock()
			_ = e.store.Sync()
			e.flushMu.Unlock()
		case <-e.intervalStop:
			return
		}
	}
}

func (e *Engine) Close() error {
	if e.intervalStop != nil {
		close(e.intervalStop)
	}
	e.coordinator.Stop()
	e.compactor.Stop()
	return e.store.Close()
}

func (e *Engine) Begin(ctx context.Context, mode Mode, lock LockHint) (Transaction, error) {
	snapshot := e.store.CurrentRevision()
	return &txn{
		engine:   e,
		mode:     mode,
		lock:     lock,
		snapshot: snapshot,
		reads:    make(map[string]int64),
	}, nil
}

func (e *Engine) lockFor(key string) *sync.Mutex {
	e.keyLocksMu.Lock()
	defer e.keyLocksMu.Unlock()
	m, ok := e.keyLocks[key]
	if !ok {
		m = &sync.Mutex{}
		e.keyLocks[key] = m
	}
	return m
}

type opKind int

const (
	opPut opKind = iota
	opSet
	opDel
	opDelp
	opClrp
)

type writeOp struct {
	kind  opKind
	key   []byte
	value []byte
}

// txn implements Transaction. Writes are buffered and replayed
// against the store by the coordinator's single Apply goroutine, so
// a batch's worth of transactions commit as one unit.
type txn struct {
	engine   *Engine
	mode     Mode
	lock     LockHint
	snapshot int64

	mu      sync.Mutex
	writes  []writeOp
	reads   map[string]int64 // key -> observed ModRevision, -1 = absent
	locked  []string         // pessimistic: keys locked by this txn, in acquire order
	done    bool
	aborted bool
}

func (t *txn) Mode() Mode     { return t.mode }
func (t *txn) Lock() LockHint { return t.lock }

func (t *txn) checkOpen() error {
	if t.done {
		return finished()
	}
	return nil
}

func (t *txn) touch(key []byte) {
	if t.lock != Pessimistic {
		return
	}
	k := string(key)
	m := t.engine.lockFor(k)
	m.Lock()
	t.locked = append(t.locked, k)
}

// pendingValue returns this txn's own uncommitted write for key, if
// any, implementing read-your-writes.
func (t *txn) pendingValue(key []byte) (val []byte, deleted, found bool) {
	for i := len(t.writes) - 1; i >= 0; i-- {
		w := t.writes[i]
		switch w.kind {
		case opPut, opSet:
			if bytes.Equal(w.key, key) {
				return w.value, false, true
			}
		case opDel:
			if bytes.Equal(w.key, key) {
				return nil, true, true
			}
		case opDelp, opClrp:
			if bytes.HasPrefix(key, w.key) {
				return nil, true, true
			}
		}
	}
	return nil, false, false
}

func (t *txn) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return nil, false, err
	}
	t.touch(key)

	if val, deleted, found := t.pendingValue(key); found {
		if deleted {
			return nil, false, nil
		}
		return val, true, nil
	}

	kv, err := t.engine.store.Get(key, t.snapshot)
	if err != nil {
		if err == mvcc.ErrKeyNotFound {
			t.reads[string(key)] = -1
			return nil, false, nil
		}
		return nil, false, err
	}
	t.reads[string(key)] = kv.ModRevision
	return kv.Value, true, nil
}

func (t *txn) Put(ctx context.Context, key, val []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.mode != Write {
		return readonly()
	}
	t.touch(key)

	if pv, deleted, found := t.pendingValue(key); found && !deleted {
		_ = pv
		return errs.New(errs.TxKeyAlreadyExists)
	}
	if _, _, found := t.pendingValue(key); !found {
		if kv, err := t.engine.store.Get(key, t.snapshot); err == nil {
			t.reads[string(key)] = kv.ModRevision
			return errs.New(errs.TxKeyAlreadyExists)
		} else if err != mvcc.ErrKeyNotFound {
			return err
		} else {
			t.reads[string(key)] = -1
		}
	}
	t.writes = append(t.writes, writeOp{kind: opPut, key: append([]byte(nil), key...), value: append([]byte(nil), val...)})
	return nil
}

func (t *txn) Set(ctx context.Context, key, val []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.mode != Write {
		return readonly()
	}
	t.touch(key)
	t.writes = append(t.writes, writeOp{kind: opSet, key: append([]byte(nil), key...), value: append([]byte(nil), val...)})
	return nil
}

func (t *txn) Del(ctx context.Context, key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.mode != Write {
		return readonly()
	}
	t.touch(key)
	t.writes = append(t.writes, writeOp{kind: opDel, key: append([]byte(nil), key...)})
	return nil
}

func (t *txn) Delp(ctx context.Context, prefix []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.mode != Write {
		return readonly()
	}
	t.writes = append(t.writes, writeOp{kind: opDelp, key: append([]byte(nil), prefix...)})
	return nil
}

func (t *txn) Clrp(ctx context.Context, prefix []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.mode != Write {
		return readonly()
	}
	t.writes = append(t.writes, writeOp{kind: opClrp, key: append([]byte(nil), prefix...)})
	return nil
}

func (t *txn) Scan(ctx context.Context, start, end []byte, limit int, dir Direction) ([]KV, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	kvs, _, err := t.engine.store.Range(start, end, t.snapshot, 0)
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]byte, len(kvs))
	order := orderPool.Get()
	defer func() { orderPool.Put(order) }()
	for _, kv := range kvs {
		k := string(kv.Key)
		merged[k] = kv.Value
		order = append(order, k)
	}
	present := make(map[string]bool, len(order))
	for _, k := range order {
		present[k] = true
	}
	for _, w := range t.writes {
		switch w.kind {
		case opPut, opSet:
			if !inRange(w.key, start, end) {
				continue
			}
			k := string(w.key)
			if !present[k] {
				order = append(order, k)
				present[k] = true
			}
			merged[k] = w.value
		case opDel:
			k := string(w.key)
			delete(merged, k)
		case opDelp, opClrp:
			for _, k := range order {
				if bytes.HasPrefix([]byte(k), w.key) {
					delete(merged, k)
				}
			}
		}
	}

	sort.Strings(order)
	out := make([]KV, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if seen[k] {
			continue
		}
		seen[k] = true
		if val, ok := merged[k]; ok {
			out = append(out, KV{Key: []byte(k), Value: val})
		}
	}
	if dir == Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func inRange(key, start, end []byte) bool {
	if bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(key, end) >= 0 {
		return false
	}
	return true
}

// Commit replays the write set against the store and submits the
// durability sync to the coordinator as one Request, so this
// transaction's fsync is shared with whichever other transactions
// land in the same batch window.
func (t *txn) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return finished()
	}
	t.done = true
	writes := t.writes
	reads := t.reads
	lock := t.lock
	t.mu.Unlock()
	defer t.releaseLocks()

	if t.mode != Write {
		return nil
	}

	done := make(chan batch.Result, 1)
	req := &batch.Request{
		Apply: func() (any, error) {
			if lock == Optimistic {
				for key, observedRev := range reads {
					kv, err := t.engine.store.Get([]byte(key), 0)
					switch {
					case err == mvcc.ErrKeyNotFound:
						if observedRev != -1 {
							return nil, errs.New(errs.TxConflict)
						}
					case err != nil:
						return nil, err
					default:
						if observedRev != kv.ModRevision {
							return nil, errs.New(errs.TxConflict)
						}
					}
				}
			}
			for _, w := range writes {
				if err := applyWrite(t.engine.store, w); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
		Done: done,
	}
	t.engine.inputC <- req
	res := <-done
	return res.Err
}

func applyWrite(store mvcc.Store, w writeOp) error {
	switch w.kind {
	case opPut:
		if _, err := store.Get(w.key, 0); err == nil {
			return errs.New(errs.TxKeyAlreadyExists)
		} else if err != mvcc.ErrKeyNotFound {
			return err
		}
		_, err := store.Put(w.key, w.value)
		return err
	case opSet:
		_, err := store.Put(w.key, w.value)
		return err
	case opDel:
		_, _, err := store.Delete(w.key)
		if err == mvcc.ErrKeyNotFound {
			return nil
		}
		return err
	case opDelp, opClrp:
		end := prefixEnd(w.key)
		_, _, err := store.DeleteRange(w.key, end)
		return err
	}
	return nil
}

func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (t *txn) Cancel(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return finished()
	}
	t.done = true
	t.mu.Unlock()
	t.releaseLocks()
	return nil
}

func (t *txn) releaseLocks() {
	if t.lock != Pessimistic {
		return
	}
	for i := len(t.locked) - 1; i >= 0; i-- {
		t.engine.lockFor(t.locked[i]).Unlock()
	}
	t.locked = nil
}
