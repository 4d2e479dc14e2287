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

// Package exec implements the tiered execution context:
// Root -> Namespace -> Database, each carrying auth, the
// open transaction, bound parameters, cancellation and a timeout
// deadline. Context satisfies internal/expr.EvalContext structurally,
// so expressions evaluate against it without this package needing to
// be imported by internal/expr.
package exec

import (
	"context"
	"sync"
	"time"

	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/value"
)

// Auth describes the session's authenticated actor.
type Auth struct {
	// IsRoot actors (root, namespace or database level system users)
	// skip per-row permission checks entirely.
	IsRoot bool
	// ID is the authenticated record ($auth.id), set for record-users.
	ID value.Value
	// Roles names the scopes/roles this actor holds, used by
	// permission predicates that reference $auth.
	Roles []string
}

// CancellationToken is threaded through every execution context.
// Sleep races it; scans poll it between batches.
type CancellationToken struct {
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

func (c *CancellationToken) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *CancellationToken) Done() <-chan struct{} { return c.done }

func (c *CancellationToken) Cancelled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// IndexBuilder reports the background-build status of a secondary
// index, consumed by the InfoIndex operator.
type IndexBuilder interface {
	Status(indexName string) (building bool, ok bool)
}

// ChangeRecorder is the structural seam mutation operators use to
// record a committed-pending write for live-query/change-feed
// delivery, without internal/exec importing
// internal/livequery. internal/livequery's Recorder implements this.
type ChangeRecorder interface {
	Record(ns, db, table, action string, before, after value.Value)
}

// Context is the three nested variants collapsed into one
// struct discriminated by Level; Namespace/Database are nil until
// WithNamespace/WithDatabase narrows the scope.
type Context struct {
	level ContextLevelAlias

	ns *catalog.NamespaceDef
	db *catalog.DatabaseDef

	tx     kvs.Transaction
	auth   Auth
	cancel *CancellationToken

	hasDeadline bool
	deadline    time.Time

	params map[string]value.Value

	this, parentRow, before, after *value.Value

	indexBuilder IndexBuilder
	recorder     ChangeRecorder
}

// ContextLevelAlias is expr.ContextLevel, aliased so this file reads
// naturally without a qualifier on every field.
type ContextLevelAlias = expr.ContextLevel

const (
	LevelRoot      = expr.LevelRoot
	LevelNamespace = expr.LevelNamespace
	LevelDatabase  = expr.LevelDatabase
)

// NewRoot opens the outermost context for one statement's execution.
func NewRoot(auth Auth, tx kvs.Transaction, cancel *CancellationToken) *Context {
	if cancel == nil {
		cancel = NewCancellationToken()
	}
	return &Context{
		level:  LevelRoot,
		tx:     tx,
		auth:   auth,
		cancel: cancel,
		params: map[string]value.Value{},
	}
}

func (c *Context) clone() *Context {
	n := *c
	return &n
}

// Clone returns a shallow copy whose later rebinds don't leak back
// into c; loop iterations and conditional branches run under one.
func (c *Context) Clone() *Context { return c.clone() }

// WithNamespace narrows a Root context to a Namespace context.
func (c *Context) WithNamespace(ns *catalog.NamespaceDef) *Context {
	n := c.clone()
	n.level = LevelNamespace
	n.ns = ns
	return n
}

// WithDatabase narrows a Namespace context to a Database context.
func (c *Context) WithDatabase(db *catalog.DatabaseDef) *Context {
	n := c.clone()
	n.level = LevelDatabase
	n.db = db
	return n
}

// WithTransaction returns a child context bound to a freshly opened
// transaction, used by internal/engine.Session to attach one
// statement's transaction to an otherwise long-lived session context
// (whose namespace/database selection and LET bindings persist across
// statements).
func (c *Context) WithTransaction(tx kvs.Transaction) *Context {
	n := c.clone()
	n.tx = tx
	return n
}

// WithDeadline returns a child context with a timeout deadline.
func (c *Context) WithDeadline(d time.Duration) *Context {
	n := c.clone()
	n.hasDeadline = true
	n.deadline = time.Now().Add(d)
	return n
}

// WithIndexBuilder attaches an index-build status provider, consulted
// by InfoIndex.
func (c *Context) WithIndexBuilder(b IndexBuilder) *Context {
	n := c.clone()
	n.indexBuilder = b
	return n
}

func (c *Context) WithBeforeAfter(before, after *value.Value) *Context {
	n := c.clone()
	n.before = before
	n.after = after
	return n
}

func (c *Context) WithParentRow(row value.Value) *Context {
	n := c.clone()
	n.parentRow = &row
	return n
}

// WithRecorder attaches the change-feed/live-query recorder mutation
// operators report through.
func (c *Context) WithRecorder(r ChangeRecorder) *Context {
	n := c.clone()
	n.recorder = r
	return n
}

// Recorder returns the attached ChangeRecorder, or nil if none is
// wired (e.g. a read-only session that never mutates).
func (c *Context) Recorder() ChangeRecorder { return c.recorder }

// --- expr.EvalContext ---

func (c *Context) Param(name string) (value.Value, bool) {
	v, ok := c.params[name]
	return v, ok
}

func (c *Context) This() (value.Value, bool) {
	if c.this == nil {
		return value.None(), false
	}
	return *c.this, true
}

func (c *Context) Parent() (value.Value, bool) {
	if c.parentRow == nil {
		return value.None(), false
	}
	return *c.parentRow, true
}

func (c *Context) Before() (value.Value, bool) {
	if c.before == nil {
		return value.None(), false
	}
	return *c.before, true
}

func (c *Context) After() (value.Value, bool) {
	if c.after == nil {
		return value.None(), false
	}
	return *c.after, true
}

// WithThis returns a child context with $this rebound; satisfies
// expr.EvalContext so Filter/Project can bind each row in turn.
func (c *Context) WithThis(v value.Value) expr.EvalContext {
	return c.BindThis(v)
}

// BindThis is WithThis's concretely-typed analogue, used by
// internal/physical operators that need a *Context rather than the
// boxed expr.EvalContext interface.
func (c *Context) BindThis(v value.Value) *Context {
	n := c.clone()
	n.this = &v
	return n
}

// WithParam returns a new immutable context extended by one binding,
// the mechanism LET uses to propagate without mutating the caller's
// context in place.
func (c *Context) WithParam(name string, v value.Value) expr.EvalContext {
	return c.Bind(name, v)
}

// Bind is WithParam's concretely-typed analogue.
func (c *Context) Bind(name string, v value.Value) *Context {
	n := c.clone()
	n.params = make(map[string]value.Value, len(c.params)+1)
	for k, pv := range c.params {
		n.params[k] = pv
	}
	n.params[name] = v
	return n
}

func (c *Context) Cancelled() bool {
	if c.cancel != nil && c.cancel.Cancelled() {
		return true
	}
	if c.hasDeadline && time.Now().After(c.deadline) {
		return true
	}
	return false
}

func (c *Context) Level() expr.ContextLevel { return c.level }

// --- accessors used by internal/physical and internal/permission ---

func (c *Context) Transaction() kvs.Transaction    { return c.tx }
func (c *Context) CancelToken() *CancellationToken { return c.cancel }
func (c *Context) Auth() Auth                      { return c.auth }
func (c *Context) Namespace() *catalog.NamespaceDef { return c.ns }
func (c *Context) Database() *catalog.DatabaseDef   { return c.db }
func (c *Context) IndexBuilder() IndexBuilder       { return c.indexBuilder }

// Deadline returns the remaining time until this context's timeout,
// and whether one is set at all.
func (c *Context) Deadline() (time.Duration, bool) {
	if !c.hasDeadline {
		return 0, false
	}
	return time.Until(c.deadline), true
}

// ResolveGraph satisfies expr.GraphResolver: it scans the graph-edge
// key range rooted at from's record id in the requested direction and
// returns the referenced edge records' ids as an array, optionally
// filtered to one edge table. from may be a record object (its id
// field is used) or a bare record id; anything else resolves to an
// empty array.
func (c *Context) ResolveGraph(dir expr.GraphDirection, target string, from value.Value) (value.Value, error) {
	if c.tx == nil || c.ns == nil || c.db == nil {
		return value.Value{Kind: value.KindArray}, nil
	}
	if from.Kind == value.KindObject && from.Object != nil {
		if idv, ok := from.Object.Get("id"); ok {
			from = idv
		}
	}
	if from.Kind != value.KindRecordID {
		return value.Value{Kind: value.KindArray}, nil
	}
	id := from.RecordID
	doc := keys.EncodeRecordIDKey(id.Key)

	var dirs []keys.GraphDirection
	switch dir {
	case expr.GraphOut:
		dirs = []keys.GraphDirection{keys.GraphOut}
	case expr.GraphIn:
		dirs = []keys.GraphDirection{keys.GraphIn}
	default:
		dirs = []keys.GraphDirection{keys.GraphOut, keys.GraphIn}
	}

	var out []value.Value
	for _, d := range dirs {
		prefix := keys.GraphEdgePrefix(c.ns.Name, c.db.Name, id.Table, doc, d)
		rows, err := c.tx.Scan(context.Background(), prefix, keys.PrefixEnd(prefix), 0, kvs.Forward)
		if err != nil {
			return value.None(), err
		}
		for _, kv := range rows {
			foreignTB, foreignID, err := keys.SplitGraphForeign(kv.Key[len(prefix):])
			if err != nil {
				continue
			}
			if target != "" && foreignTB != target {
				continue
			}
			key, err := keys.DecodeRecordIDKey(foreignID)
			if err != nil {
				continue
			}
			out = append(out, value.Value{
				Kind:     value.KindRecordID,
				RecordID: value.RecordID{Table: foreignTB, Key: key},
			})
		}
	}
	return value.Value{Kind: value.KindArray, Array: out}, nil
}

// Satisfies reports whether this context's Level meets required; the
// planner's top-level validation rejects trees whose root needs more
// context than the session provides.
func (c *Context) Satisfies(required expr.ContextLevel) bool {
	return c.level >= required
}
