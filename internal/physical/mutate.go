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

package physical

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/codec"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/permission"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// IndexWriter is the seam a table's secondary indexes (full-text,
// HNSW) plug into the mutation operators through, so this package
// never imports internal/fulltext or internal/hnsw; index updates
// stay inside the same transaction as the data write. before/after
// are nil for the create and delete sides
// respectively. internal/fulltext.Maintainer and internal/hnsw.Maintainer
// satisfy this structurally.
type IndexWriter interface {
	Write(ctx *exec.Context, docKey []byte, before, after *value.Value) error
}

func recordAction(ctx *exec.Context, ns, db, table, action string, before, after value.Value) {
	if rec := ctx.Recorder(); rec != nil {
		rec.Record(ns, db, table, action, before, after)
	}
}

func maintainIndexes(ctx *exec.Context, writers []IndexWriter, docKey []byte, before, after *value.Value) error {
	for _, w := range writers {
		if err := w.Write(ctx, docKey, before, after); err != nil {
			return err
		}
	}
	return nil
}

// idField reads a row's "id" field as a value.RecordID, the shape
// every stored record carries.
func idField(row value.Value) (value.RecordID, bool) {
	idv := row.Pick([]value.Part{value.Field("id")})
	if idv.Kind != value.KindRecordID {
		return value.RecordID{}, false
	}
	return idv.RecordID, true
}

func recordKeyBytes(ns, db, table string, id value.RecordID) (full, doc []byte) {
	doc = keys.EncodeRecordIDKey(id.Key)
	full = keys.Record(ns, db, table, doc)
	return full, doc
}

// Create writes a new record, generating a uuid key when the
// statement didn't supply one.
type Create struct {
	NS, DB, Table string
	Key           expr.Expr // nil: auto-generate
	Content       expr.Expr
	Permission    permission.Physical
	Indexes       []IndexWriter
	Metrics       *metrics.Metrics
}

func (c *Create) Name() string                      { return "Create" }
func (c *Create) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (c *Create) AccessMode() expr.AccessMode        { return expr.ReadWrite }
func (c *Create) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (c *Create) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (c *Create) Execute(ctx *exec.Context) (Stream, error) {
	start := time.Now()
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}

	content, err := c.Content.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	obj := content.Object
	if content.Kind != value.KindObject || obj == nil {
		obj = value.NewObject()
	} else {
		obj = obj.Clone()
	}

	var key value.RecordIDKey
	if c.Key != nil {
		keyVal, err := c.Key.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		key = value.RecordIDKeyFromValue(keyVal)
	} else {
		key = value.RecordIDKey{Kind: value.RecordIDKeyUuid, Uuid: uuid.New()}
	}
	obj.Set("id", value.Value{Kind: value.KindRecordID, RecordID: value.RecordID{Table: c.Table, Key: key}})
	row := value.Obj(obj)

	if err := permission.Enforce(c.Permission, ctx.Auth().IsRoot, row, permission.OpCreate, c.Table, ctx.WithThis); err != nil {
		return nil, err
	}

	full, doc := recordKeyBytes(c.NS, c.DB, c.Table, value.RecordID{Table: c.Table, Key: key})
	encoded, err := codec.Marshal(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Put(context.Background(), full, encoded); err != nil {
		if errs.Is(err, errs.TxKeyAlreadyExists) {
			return nil, errs.NotFound(errs.RecordExists, c.Table)
		}
		return nil, err
	}
	if err := maintainIndexes(ctx, c.Indexes, doc, nil, &row); err != nil {
		return nil, err
	}
	recordAction(ctx, c.NS, c.DB, c.Table, "create", value.None(), row)

	recordOperator(c.Metrics, c.Name(), 1, 1, time.Since(start).Seconds())
	return NewSliceStream([]value.Value{row}, 1), nil
}

// UpdateMode selects how Update derives each row's replacement from
// the old row: a full CONTENT rewrite, a deep MERGE of the computed
// object into the old row, or a PATCH applying a stored operation
// sequence.
type UpdateMode int

const (
	UpdateContent UpdateMode = iota
	UpdateMerge
	UpdatePatch
)

// Update rewrites every row its Child stream yields. Under
// UpdateContent the new row is Compute evaluated with the old row
// bound as $this; UpdateMerge deep-merges that result into the old
// row instead of replacing it; UpdatePatch ignores Compute and
// applies the Patch operation list to the old row.
type Update struct {
	NS, DB, Table string
	Child         Operator
	Compute       expr.Expr
	Mode          UpdateMode
	Patch         []value.Operation
	Permission    permission.Physical
	Indexes       []IndexWriter
	Metrics       *metrics.Metrics
}

func (u *Update) Name() string                      { return "Update" }
func (u *Update) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (u *Update) AccessMode() expr.AccessMode        { return expr.ReadWrite }
func (u *Update) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (u *Update) CardinalityHint() CardinalityHint   { return u.Child.CardinalityHint() }

func (u *Update) Execute(ctx *exec.Context) (Stream, error) {
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	oldRows, err := Collect(ctx, u.Child)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(oldRows))
	start := time.Now()
	for _, oldRow := range oldRows {
		id, ok := idField(oldRow)
		if !ok {
			continue
		}
		var newVal value.Value
		switch u.Mode {
		case UpdatePatch:
			patched, perr := oldRow.ApplyPatch(u.Patch)
			if perr != nil {
				return nil, errs.Wrap(errs.InvalidPatch, perr)
			}
			newVal = patched
		case UpdateMerge:
			computed, cerr := u.Compute.Evaluate(ctx.BindThis(oldRow))
			if cerr != nil {
				return nil, cerr
			}
			newVal = oldRow.Merge(computed)
		default:
			computed, cerr := u.Compute.Evaluate(ctx.BindThis(oldRow))
			if cerr != nil {
				return nil, cerr
			}
			newVal = computed
		}
		newObj := newVal.Object
		if newVal.Kind != value.KindObject || newObj == nil {
			newObj = value.NewObject()
		} else {
			newObj = newObj.Clone()
		}
		newObj.Set("id", value.Value{Kind: value.KindRecordID, RecordID: id})
		newRow := value.Obj(newObj)

		if err := permission.Enforce(u.Permission, ctx.Auth().IsRoot, newRow, permission.OpUpdate, u.Table, ctx.WithThis); err != nil {
			return nil, err
		}

		full, doc := recordKeyBytes(u.NS, u.DB, u.Table, id)
		encoded, err := codec.Marshal(newRow)
		if err != nil {
			return nil, err
		}
		if err := tx.Set(context.Background(), full, encoded); err != nil {
			return nil, err
		}
		if err := maintainIndexes(ctx, u.Indexes, doc, &oldRow, &newRow); err != nil {
			return nil, err
		}
		recordAction(ctx, u.NS, u.DB, u.Table, "update", oldRow, newRow)
		out = append(out, newRow)
	}
	recordOperator(u.Metrics, u.Name(), len(out), 1, time.Since(start).Seconds())
	return NewSliceStream(out, len(out)+1), nil
}

// Delete removes every row its Child stream yields.
type Delete struct {
	NS, DB, Table string
	Child         Operator
	Permission    permission.Physical
	Indexes       []IndexWriter
	Metrics       *metrics.Metrics
}

func (d *Delete) Name() string                      { return "Delete" }
func (d *Delete) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (d *Delete) AccessMode() expr.AccessMode        { return expr.ReadWrite }
func (d *Delete) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (d *Delete) CardinalityHint() CardinalityHint   { return d.Child.CardinalityHint() }

func (d *Delete) Execute(ctx *exec.Context) (Stream, error) {
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	rows, err := Collect(ctx, d.Child)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(rows))
	start := time.Now()
	for _, row := range rows {
		id, ok := idField(row)
		if !ok {
			continue
		}
		if err := permission.Enforce(d.Permission, ctx.Auth().IsRoot, row, permission.OpDelete, d.Table, ctx.WithThis); err != nil {
			return nil, err
		}
		full, doc := recordKeyBytes(d.NS, d.DB, d.Table, id)
		if err := tx.Del(context.Background(), full); err != nil {
			return nil, err
		}
		if err := maintainIndexes(ctx, d.Indexes, doc, &row, nil); err != nil {
			return nil, err
		}
		if err := cascadeGraphEdges(ctx, tx, d.NS, d.DB, d.Table, doc); err != nil {
			return nil, err
		}
		recordAction(ctx, d.NS, d.DB, d.Table, "delete", row, value.None())
		out = append(out, row)
	}
	recordOperator(d.Metrics, d.Name(), len(out), 1, time.Since(start).Seconds())
	return NewSliceStream(out, len(out)+1), nil
}
