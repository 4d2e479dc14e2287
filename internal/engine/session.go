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

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/livequery"
	"github.com/nexusdb/core/internal/physical"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// indexBuilder tracks background index builds, consulted by InfoIndex.
// This core maintains every secondary index synchronously on each
// record write rather than on a background worker pool; nothing calls
// setBuilding, so Status never finds an entry. The seam exists so a future
// background builder for large HNSW/full-text backfills can report
// through exec.IndexBuilder without InfoIndex changing.
type indexBuilder struct {
	mu       sync.Mutex
	building map[string]bool
}

func (b *indexBuilder) Status(name string) (building bool, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, found := b.building[name]
	return v, found
}

func (b *indexBuilder) setBuilding(name string, building bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.building[name] = building
}

// QueryResult is one statement's outcome, mirroring what a driver
// reports back to its caller ("Time, Status, Result").
type QueryResult struct {
	Time   time.Duration
	Status string
	Result []value.Value
	Error  error
}

// Session is one client connection's worth of persistent state: its
// namespace/database selection and LET bindings survive across
// statements, while each statement gets its own KVS
// transaction.
type Session struct {
	catalog  *catalog.Catalog
	store    kvs.Store
	metrics  *metrics.Metrics
	registry *livequery.Registry
	vs       *livequery.VersionstampSource
	broker   livequery.Broker
	builder  *indexBuilder
	planner  *planner

	ctx *exec.Context
}

// NewSession opens a session for auth against catalog/store, with live
// queries dispatched through broker (a no-op broker is fine for a
// session that never issues LIVE SELECT).
func NewSession(auth exec.Auth, cat *catalog.Catalog, store kvs.Store, m *metrics.Metrics, registry *livequery.Registry, vs *livequery.VersionstampSource, broker livequery.Broker) *Session {
	builder := &indexBuilder{building: map[string]bool{}}
	root := exec.NewRoot(auth, nil, nil).WithIndexBuilder(builder)
	return &Session{
		catalog:  cat,
		store:    store,
		metrics:  m,
		registry: registry,
		vs:       vs,
		broker:   broker,
		builder:  builder,
		planner:  newPlanner(cat, m),
		ctx:      root,
	}
}

// accessModeFor picks the transaction mode a statement's plan needs, so a
// read-only SELECT never blocks behind a writer's lock.
func accessModeFor(op physical.Operator) kvs.Mode {
	if op.AccessMode() == expr.ReadWrite {
		return kvs.Write
	}
	return kvs.Read
}

// Execute runs one statement to completion: plan, open a transaction
// sized to what the plan needs, run it, commit (flushing live-query
// delivery and appending a change-feed entry when the table wants
// one) or cancel on error, and fold any LET/USE context mutation back
// into the session's persistent context.
func (sess *Session) Execute(stmt Statement) QueryResult {
	start := time.Now()

	// LIVE SELECT and KILL never reach internal/physical: a live
	// subscription is registry bookkeeping, not a row-producing plan.
	if live, ok := stmt.(*LiveSelectStatement); ok {
		return sess.executeLive(live, start)
	}
	if kill, ok := stmt.(*KillStatement); ok {
		sess.registry.Kill(kill.ID, sess.broker)
		return QueryResult{Time: time.Since(start), Status: "OK"}
	}

	// REMOVE TABLE is catalog/registry bookkeeping plus a prefix
	// delete, not a row-producing plan, so it bypasses the planner the
	// same way LIVE SELECT/KILL do.
	if rm, ok := stmt.(*RemoveTableStatement); ok {
		return sess.executeRemoveTable(rm, start)
	}

	if sc, ok := stmt.(*ShowChangesStatement); ok {
		return sess.executeShowChanges(sc, start)
	}

	// Control structures execute as driver logic around nested plans
	// rather than lowering to a single operator tree.
	switch stmt.(type) {
	case *BlockStatement, *ForeachStatement, *IfElseStatement,
		*BreakStatement, *ContinueStatement, *ReturnStatement:
		return sess.executeControl(stmt, start)
	}

	op, err := sess.planner.plan(stmt)
	if err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}

	if !sess.ctx.Satisfies(op.RequiredContext()) {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: errs.New(errs.InvalidStatementTarget)}
	}

	tx, err := sess.store.Begin(context.Background(), accessModeFor(op), kvs.Optimistic)
	if err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}

	recorder := livequery.NewRecorder(sess.registry, sess.broker, sess.metrics)
	stmtCtx := sess.ctx.WithTransaction(tx).WithRecorder(recorder)

	st, err := op.Execute(stmtCtx)
	if err != nil {
		_ = tx.Cancel(context.Background())
		recorder.Discard()
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	rows, err := physical.Collect(stmtCtx, &preparedOp{op: op, st: st})
	if err != nil {
		_ = tx.Cancel(context.Background())
		recorder.Discard()
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}

	if err := sess.appendChangeFeed(context.Background(), tx, stmt); err != nil {
		_ = tx.Cancel(context.Background())
		recorder.Discard()
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}

	if err := tx.Commit(context.Background()); err != nil {
		recorder.Discard()
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	recorder.Flush()

	if oc, ok := st.(physical.OutputContext); ok {
		// Detach the statement's transaction before the rebound
		// context outlives it.
		sess.ctx = oc.OutputContext().WithTransaction(nil)
	}

	return QueryResult{Time: time.Since(start), Status: "OK", Result: rows}
}

// preparedOp adapts an already-Executed Stream back into an Operator
// so it can be handed to physical.Collect, which otherwise re-invokes
// Execute itself; Session needs the Stream beforehand to check for
// OutputContext while the transaction is still open.
type preparedOp struct {
	op physical.Operator
	st physical.Stream
}

func (p *preparedOp) Name() string                         { return p.op.Name() }
func (p *preparedOp) RequiredContext() expr.ContextLevel    { return p.op.RequiredContext() }
func (p *preparedOp) AccessMode() expr.AccessMode           { return p.op.AccessMode() }
func (p *preparedOp) OutputOrdering() physical.OutputOrdering { return p.op.OutputOrdering() }
func (p *preparedOp) CardinalityHint() physical.CardinalityHint { return p.op.CardinalityHint() }
func (p *preparedOp) Execute(ctx *exec.Context) (physical.Stream, error) { return p.st, nil }

// appendChangeFeed records one change-feed entry per committed
// mutation when the target table has CHANGEFEED configured.
// Read-only statements and tables without the option are a no-op.
func (sess *Session) appendChangeFeed(ctx context.Context, tx kvs.Transaction, stmt Statement) error {
	var ns, db, table, action string
	switch s := stmt.(type) {
	case *CreateStatement:
		ns, db, table, action = s.NS, s.DB, s.Table, "create"
	case *UpdateStatement:
		ns, db, table, action = s.NS, s.DB, s.Table, "update"
	case *DeleteStatement:
		ns, db, table, action = s.NS, s.DB, s.Table, "delete"
	case *InsertStatement:
		ns, db, table, action = s.NS, s.DB, s.Table, "create"
	case *UpsertStatement:
		ns, db, table, action = s.NS, s.DB, s.Table, "update"
	case *RelateStatement:
		ns, db, table, action = s.NS, s.DB, s.EdgeTable, "create"
	default:
		return nil
	}
	def, err := sess.catalog.Table(ns, db, table)
	if err != nil || def.ChangeFeed == nil {
		return nil
	}
	return livequery.AppendChangeFeed(ctx, tx, sess.vs, ns, db, livequery.ChangeEntry{Action: action, Table: table}, sess.metrics)
}

// executeControl runs a block, loop or conditional under one write
// transaction (the body may mutate; sizing the transaction to the
// body's statements would mean planning them before their LET
// bindings exist). A return signal becomes the statement's result; a
// break or continue that escapes every loop simply ends the block.
func (sess *Session) executeControl(stmt Statement, start time.Time) QueryResult {
	tx, err := sess.store.Begin(context.Background(), kvs.Write, kvs.Optimistic)
	if err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	recorder := livequery.NewRecorder(sess.registry, sess.broker, sess.metrics)
	blockCtx := sess.ctx.WithTransaction(tx).WithRecorder(recorder)

	rows, outCtx, err := sess.runControl(stmt, blockCtx)
	if err != nil {
		if cf, ok := errs.AsControlFlow(err); ok {
			if cf.Signal == errs.SignalReturn {
				if v, ok := cf.Value.(value.Value); ok {
					rows = []value.Value{v}
				}
			}
			err = nil
		} else {
			_ = tx.Cancel(context.Background())
			recorder.Discard()
			return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
		}
	}
	if err := tx.Commit(context.Background()); err != nil {
		recorder.Discard()
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	recorder.Flush()

	if outCtx != nil {
		// Detach the block's transaction before the rebound context
		// outlives it.
		sess.ctx = outCtx.WithTransaction(nil)
	}
	return QueryResult{Time: time.Since(start), Status: "OK", Result: rows}
}

// executeShowChanges pages the database's change feed inside a
// read-only transaction.
func (sess *Session) executeShowChanges(stmt *ShowChangesStatement, start time.Time) QueryResult {
	tx, err := sess.store.Begin(context.Background(), kvs.Read, kvs.Optimistic)
	if err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	defer tx.Cancel(context.Background())

	entries, err := livequery.ReadChangeFeed(context.Background(), tx, stmt.NS, stmt.DB, stmt.Since, stmt.Limit)
	if err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	rows := make([]value.Value, 0, len(entries))
	for _, e := range entries {
		obj := value.NewObject()
		obj.Set("table", value.Str(e.Table))
		obj.Set("action", value.Str(e.Action))
		rows = append(rows, value.Obj(obj))
	}
	return QueryResult{Time: time.Since(start), Status: "OK", Result: rows}
}

// executeLive registers a standing subscription, capturing the
// session's current context so the subscription's later WHERE
// evaluation runs under the subscriber's own permissions, not the
// mutator's.
func (sess *Session) executeLive(stmt *LiveSelectStatement, start time.Time) QueryResult {
	id := uuid.New()
	sess.registry.Register(&livequery.Entry{
		ID: id, NS: stmt.NS, DB: stmt.DB, Table: stmt.Table,
		Where: stmt.Where, Ctx: sess.ctx,
	})
	idv := value.Value{Kind: value.KindString, String: id.String()}
	return QueryResult{Time: time.Since(start), Status: "OK", Result: []value.Value{idv}}
}

// executeRemoveTable drops a table's catalog definition, deletes its
// records, and kills any live queries standing on it. The catalog
// and registry updates aren't transactional with the KVS delete,
// matching the rest of this core's DDL, which treats the catalog as
// the authority and the KVS prefix delete as a best-effort cleanup of
// the now-unreachable data.
func (sess *Session) executeRemoveTable(stmt *RemoveTableStatement, start time.Time) QueryResult {
	tx, err := sess.store.Begin(context.Background(), kvs.Write, kvs.Optimistic)
	if err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	if err := tx.Clrp(context.Background(), keys.RecordPrefix(stmt.NS, stmt.DB, stmt.Table)); err != nil {
		_ = tx.Cancel(context.Background())
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}
	if err := tx.Commit(context.Background()); err != nil {
		return QueryResult{Time: time.Since(start), Status: "ERR", Error: err}
	}

	sess.catalog.RemoveTable(stmt.NS, stmt.DB, stmt.Table)
	sess.registry.KillTable(stmt.NS, stmt.DB, stmt.Table, sess.broker)

	return QueryResult{Time: time.Since(start), Status: "OK"}
}
