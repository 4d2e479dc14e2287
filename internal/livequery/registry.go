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

// Package livequery implements live queries and the change
// feed: an in-process registry of standing WHERE-filtered
// subscriptions per table, a ChangeRecorder that buffers committed
// writes and evaluates them against that registry after commit, and
// an append-only change feed ordered by a monotonic versionstamp.
// Grounded on internal/exec's ChangeRecorder seam (added alongside
// this package) and internal/permission's withThis-bound evaluation
// pattern, which the WHERE check below reuses verbatim.
package livequery

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
)

// Entry is one standing LIVE SELECT subscription. Ctx is the
// subscriber's own execution context, captured at registration time so
// its WHERE clause evaluates under the subscriber's permissions, not
// the mutator's.
type Entry struct {
	ID       uuid.UUID
	NS, DB   string
	Table    string
	Where    expr.Expr // nil: unconditional subscription
	Ctx      *exec.Context
}

// Registry tracks every live Entry, indexed by table for O(matching
// entries) dispatch on each committed write.
type Registry struct {
	mu      sync.RWMutex
	byTable map[string][]*Entry
	byID    map[uuid.UUID]*Entry
}

func NewRegistry() *Registry {
	return &Registry{
		byTable: make(map[string][]*Entry),
		byID:    make(map[uuid.UUID]*Entry),
	}
}

func tableKey(ns, db, table string) string { return ns + "\x00" + db + "\x00" + table }

// Register adds e to the registry, replacing any prior registration
// under the same ID.
func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[e.ID]; ok {
		r.removeLocked(old)
	}
	r.byID[e.ID] = e
	key := tableKey(e.NS, e.DB, e.Table)
	r.byTable[key] = append(r.byTable[key], e)
}

// Kill removes one subscription by id, reporting whether it existed.
// It notifies broker with an ActionKilled Notification before removing
// the entry, so a subscriber sees its subscription end rather than
// just stop.
func (r *Registry) Kill(id uuid.UUID, broker Broker) bool {
	r.mu.Lock()
	e, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return false
	}

	if broker != nil {
		broker.Send(Notification{LiveID: e.ID, Action: ActionKilled})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(e)
	return true
}

func (r *Registry) removeLocked(e *Entry) {
	delete(r.byID, e.ID)
	key := tableKey(e.NS, e.DB, e.Table)
	entries := r.byTable[key]
	for i, other := range entries {
		if other.ID == e.ID {
			r.byTable[key] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// KillTable removes every subscription registered on a table,
// notifying broker
// with an ActionKilled Notification for each entry before it's
// removed.
func (r *Registry) KillTable(ns, db, table string, broker Broker) {
	key := tableKey(ns, db, table)

	r.mu.Lock()
	entries := r.byTable[key]
	snapshot := make([]*Entry, len(entries))
	copy(snapshot, entries)
	r.mu.Unlock()

	if broker != nil {
		for _, e := range snapshot {
			broker.Send(Notification{LiveID: e.ID, Action: ActionKilled})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range snapshot {
		delete(r.byID, e.ID)
	}
	delete(r.byTable, key)
}

// MatchingTable returns a snapshot of every Entry currently registered
// on ns/db/table, safe to range over without holding the registry
// lock.
func (r *Registry) MatchingTable(ns, db, table string) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.byTable[tableKey(ns, db, table)]
	out := make([]*Entry, len(entries))
	copy(out, entries)
	return out
}
