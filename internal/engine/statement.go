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

// Package engine implements the statement-to-plan pipeline and
// the session that drives it: a typed statement AST, a planner that
// lowers each statement into an internal/physical.Operator tree, and
// a Session that opens one transaction per statement, executes the
// plan against it, and threads live-query/change-feed delivery
// through the commit. The AST here is deliberately small — this core
// has no parser — so callers construct statements directly, the way a
// driver or test harness would build an already-resolved query.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/physical"
	"github.com/nexusdb/core/internal/value"
)

// Statement is one entry of the statement list. Every variant
// below is a direct struct, not an interface method set, because the
// planner switches on concrete type; Statement exists only so a block
// of mixed statements can be carried and range over as one slice.
type Statement interface {
	statement()
}

// KnnClause asks the read path to source rows from a vector index
// instead of a table scan: the K records nearest Target, searched with
// beam width Ef. Index names the vector index to search.
type KnnClause struct {
	Index  string
	Target []float32
	K, Ef  int
}

// MatchClause sources rows from a full-text index: the TopK records
// best matching Term under the index's relevance scoring.
type MatchClause struct {
	Index string
	Term  string
	TopK  int
}

// SelectStatement scans Table (or searches one of its secondary
// indexes when Knn/Match is set), applies Where, groups when GroupBy
// or Aggregates are present, orders by OrderBy, collapses with Only,
// then bounds by Start/Limit. Fields/Value implement the two
// projection shapes (object fields vs a single bare-value
// expression); leaving both nil projects the row unchanged.
type SelectStatement struct {
	NS, DB, Table string
	Where         expr.Expr
	Knn           *KnnClause
	Match         *MatchClause
	GroupBy       []expr.Expr
	GroupNames    []string
	Aggregates    []physical.Aggregation
	OrderBy       []physical.SortProperty
	TopK          int
	Start, Limit  int
	Only          bool
	OnlyRequired  bool
	Fields        []physical.ProjectField
	Value         expr.Expr
}

// CreateStatement is CREATE. Key is nil when the statement
// didn't supply an explicit id (the planner's Create operator then
// generates a uuid).
type CreateStatement struct {
	NS, DB, Table string
	Key           expr.Expr
	Content       expr.Expr
}

// UpdateStatement rewrites rows selected by Where (and Only). Under
// the default content mode Compute produces each row's full
// replacement with the old row bound as $this; Mode selects merge or
// patch semantics instead (Patch carries the operation list for the
// latter).
type UpdateStatement struct {
	NS, DB, Table string
	Where         expr.Expr
	Only          bool
	Compute       expr.Expr
	Mode          physical.UpdateMode
	Patch         []value.Operation
}

// InsertStatement writes a batch of rows with put-if-absent
// semantics; rows carrying their own id keep it. IgnoreExisting turns
// a key collision into a silent skip instead of an error.
type InsertStatement struct {
	NS, DB, Table  string
	Rows           []expr.Expr
	IgnoreExisting bool
}

// UpsertStatement is create-or-update on one record key: Compute runs
// against the existing row (bound as $this) when the key is present,
// or against an empty object when it isn't.
type UpsertStatement struct {
	NS, DB, Table string
	Key           expr.Expr
	Compute       expr.Expr
}

// RelateStatement connects two records through a new edge record in
// EdgeTable, writing the graph-edge pointers traversal reads.
type RelateStatement struct {
	NS, DB    string
	EdgeTable string
	From, To  expr.Expr
	Key       expr.Expr
	Content   expr.Expr
}

// DeleteStatement is DELETE: Where (and Only) select the
// rows to remove.
type DeleteStatement struct {
	NS, DB, Table string
	Where         expr.Expr
	Only          bool
}

// LetStatement is LET $param = value.
type LetStatement struct {
	Param string
	Value expr.Expr
}

// UseStatement is USE NS ns DB db. Either field may be
// empty to keep the session's current selection for that level.
type UseStatement struct {
	NS, DB string
}

// SleepStatement is SLEEP d.
type SleepStatement struct {
	Duration time.Duration
}

// InfoIndexStatement is INFO FOR INDEX, reporting whether
// a background build is still running.
type InfoIndexStatement struct {
	NS, DB, Table, Index string
}

// LiveSelectStatement is LIVE SELECT: it registers a
// standing subscription instead of running a one-shot query. Where
// nil means an unconditional subscription to every change on Table.
type LiveSelectStatement struct {
	NS, DB, Table string
	Where         expr.Expr
}

// KillStatement is KILL, removing a standing live query
// by the id LIVE SELECT returned.
type KillStatement struct {
	ID uuid.UUID
}

// RemoveTableStatement drops the table's catalog definition (fields,
// indexes, permissions), deletes every record under its key-space
// prefix, and kills any live queries standing on it.
type RemoveTableStatement struct {
	NS, DB, Table string
}

// ShowChangesStatement reads the change feed of a database: every
// committed mutation recorded for tables declared with a change-feed
// retention, starting after the Since versionstamp (nil reads from
// the beginning). Limit bounds the page; zero means no bound.
type ShowChangesStatement struct {
	NS, DB string
	Since  []byte
	Limit  int
}

// BlockStatement runs Body in order under one transaction. LET and
// USE inside the block rebind the context seen by later entries; a
// return signal ends the block with its value, and the block's result
// is otherwise the last entry's output.
type BlockStatement struct {
	Body []Statement
}

// ForeachStatement evaluates Iterable once (an array, or a range
// value expanded to integers), then executes Body for each element
// with Param bound to it. Break and continue signals raised in the
// body are caught here; a return signal propagates out.
type ForeachStatement struct {
	Param    string
	Iterable expr.Expr
	Body     []Statement
}

// IfElseStatement evaluates Cond and runs Then when truthy, Else
// otherwise. Either branch may be empty.
type IfElseStatement struct {
	Cond expr.Expr
	Then []Statement
	Else []Statement
}

// BreakStatement, ContinueStatement and ReturnStatement raise the
// three loop-control signals. Break and continue are caught by the
// nearest containing loop; return unwinds to the outermost block and
// becomes the statement's result.
type BreakStatement struct{}

type ContinueStatement struct{}

type ReturnStatement struct {
	Value expr.Expr
}

func (*SelectStatement) statement()      {}
func (*CreateStatement) statement()      {}
func (*UpdateStatement) statement()      {}
func (*DeleteStatement) statement()      {}
func (*InsertStatement) statement()      {}
func (*UpsertStatement) statement()      {}
func (*RelateStatement) statement()      {}
func (*LetStatement) statement()         {}
func (*UseStatement) statement()         {}
func (*SleepStatement) statement()       {}
func (*InfoIndexStatement) statement()   {}
func (*LiveSelectStatement) statement()  {}
func (*KillStatement) statement()        {}
func (*RemoveTableStatement) statement() {}
func (*ShowChangesStatement) statement() {}
func (*BlockStatement) statement()       {}
func (*ForeachStatement) statement()     {}
func (*IfElseStatement) statement()      {}
func (*BreakStatement) statement()       {}
func (*ContinueStatement) statement()    {}
func (*ReturnStatement) statement()      {}
