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
	"testing"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct{ sent []Notification }

func (b *fakeBroker) Send(n Notification) { b.sent = append(b.sent, n) }

func rootCtx() *exec.Context {
	return exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
}

func TestRecorderFlushDeliversToUnconditionalSubscription(t *testing.T) {
	registry := NewRegistry()
	broker := &fakeBroker{}
	id := uuid.New()
	registry.Register(&Entry{ID: id, NS: "n", DB: "d", Table: "t", Ctx: rootCtx()})

	r := NewRecorder(registry, broker, nil)
	r.Record("n", "d", "t", string(ActionCreate), value.None(), value.Str("row"))
	r.Flush()

	require.Len(t, broker.sent, 1)
	require.Equal(t, id, broker.sent[0].LiveID)
	require.Equal(t, ActionCreate, broker.sent[0].Action)
}

func TestRecorderFlushSkipsNonMatchingWhere(t *testing.T) {
	registry := NewRegistry()
	broker := &fakeBroker{}
	registry.Register(&Entry{
		ID: uuid.New(), NS: "n", DB: "d", Table: "t", Ctx: rootCtx(),
		Where: &expr.Literal{Value: value.Bool(false)},
	})

	r := NewRecorder(registry, broker, nil)
	r.Record("n", "d", "t", string(ActionCreate), value.None(), value.Str("row"))
	r.Flush()

	require.Empty(t, broker.sent)
}

func TestRecorderFlushDeliversMatchingWhere(t *testing.T) {
	registry := NewRegistry()
	broker := &fakeBroker{}
	id := uuid.New()
	registry.Register(&Entry{
		ID: id, NS: "n", DB: "d", Table: "t", Ctx: rootCtx(),
		Where: &expr.Literal{Value: value.Bool(true)},
	})

	r := NewRecorder(registry, broker, nil)
	r.Record("n", "d", "t", string(ActionUpdate), value.Str("before"), value.Str("after"))
	r.Flush()

	require.Len(t, broker.sent, 1)
	require.Equal(t, ActionUpdate, broker.sent[0].Action)
}

func TestRecorderDiscardDropsPendingWithoutDelivery(t *testing.T) {
	registry := NewRegistry()
	broker := &fakeBroker{}
	registry.Register(&Entry{ID: uuid.New(), NS: "n", DB: "d", Table: "t", Ctx: rootCtx()})

	r := NewRecorder(registry, broker, nil)
	r.Record("n", "d", "t", string(ActionCreate), value.None(), value.Str("row"))
	r.Discard()
	r.Flush()

	require.Empty(t, broker.sent)
}

func TestRecorderFlushIgnoresOtherTables(t *testing.T) {
	registry := NewRegistry()
	broker := &fakeBroker{}
	registry.Register(&Entry{ID: uuid.New(), NS: "n", DB: "d", Table: "other", Ctx: rootCtx()})

	r := NewRecorder(registry, broker, nil)
	r.Record("n", "d", "t", string(ActionCreate), value.None(), value.Str("row"))
	r.Flush()

	require.Empty(t, broker.sent)
}
