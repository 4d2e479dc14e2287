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

package livequery

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
	"github.com/nexusdb/core/pkg/reliability"
)

// Action names the kind of change a Notification reports.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionKilled Action = "killed"
)

// Notification is the delivered payload: which subscription
// it's for, what happened, and the row data (Data for create/update,
// Before additionally set for update/delete so a subscriber can diff).
type Notification struct {
	LiveID uuid.UUID
	Action Action
	Data   value.Value
	Before value.Value
}

// Broker delivers a Notification to whatever transport owns the
// subscription (a long-lived session's outbound channel, a websocket,
// a test double). Kept minimal and transport-agnostic; the engine
// deliberately doesn't pick a wire protocol.
type Broker interface {
	Send(Notification)
}

type pendingChange struct {
	ns, db, table, action string
	before, after         value.Value
}

// Recorder implements internal/exec.ChangeRecorder. It buffers every
// write a transaction makes and only evaluates/delivers them once
// Flush is called after the transaction commits.
type Recorder struct {
	mu       sync.Mutex
	pending  []pendingChange
	registry *Registry
	broker   Broker
	metrics  *metrics.Metrics
}

func NewRecorder(registry *Registry, broker Broker, m *metrics.Metrics) *Recorder {
	return &Recorder{registry: registry, broker: broker, metrics: m}
}

// Record implements internal/exec.ChangeRecorder.
func (r *Recorder) Record(ns, db, table, action string, before, after value.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pendingChange{ns: ns, db: db, table: table, action: action, before: before, after: after})
}

// Flush evaluates every buffered change against the registry's
// standing subscriptions and delivers matches through the broker.
// Callers invoke this once, after the owning transaction has
// committed; a transaction that cancels instead should call Discard.
func (r *Recorder) Flush() {
	r.mu.Lock()
	changes := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, c := range changes {
		row := c.after
		if c.action == string(ActionDelete) {
			row = c.before
		}
		entries := r.registry.MatchingTable(c.ns, c.db, c.table)
		for _, e := range entries {
			matched, err := r.matches(e, row)
			if err != nil || !matched {
				continue
			}
			if r.metrics != nil {
				r.metrics.RecordLiveQueryNotification(c.action)
			}
			n := Notification{
				LiveID: e.ID,
				Action: Action(c.action),
				Data:   c.after,
				Before: c.before,
			}
			_ = reliability.RecoverToError("live-broker", func() error {
				r.broker.Send(n)
				return nil
			})
		}
	}
}

// Discard drops every buffered change without delivering it, for a
// transaction that is cancelled rather than committed.
func (r *Recorder) Discard() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

func (r *Recorder) matches(e *Entry, row value.Value) (bool, error) {
	if e.Where == nil {
		return true, nil
	}
	rowCtx := e.Ctx.BindThis(row)
	v, err := e.Where.Evaluate(rowCtx)
	if err != nil {
		return false, err
	}
	return v.IsTruthy(), nil
}
