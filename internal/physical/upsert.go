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
	"github.com/nexusdb/core/internal/permission"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// Insert writes a batch of rows with put-if-absent semantics. Each Row
// expression evaluates to one object; a row carrying its own id field
// keeps it, otherwise a fresh uuid key is generated. A key collision
// surfaces as RecordExists unless IgnoreExisting is set, in which case
// the colliding row is skipped and the stored row is left untouched.
type Insert struct {
	NS, DB, Table  string
	Rows           []expr.Expr
	IgnoreExisting bool
	Permission     permission.Physical
	Indexes        []IndexWriter
	Metrics        *metrics.Metrics
}

func (i *Insert) Name() string                       { return "Insert" }
func (i *Insert) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (i *Insert) AccessMode() expr.AccessMode        { return expr.ReadWrite }
func (i *Insert) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (i *Insert) CardinalityHint() CardinalityHint   { return CardinalityFew }

func (i *Insert) Execute(ctx *exec.Context) (Stream, error) {
	start := time.Now()
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	out := make([]value.Value, 0, len(i.Rows))
	for _, rowExpr := range i.Rows {
		content, err := rowExpr.Evaluate(ctx)
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
		if idv, ok := obj.Get("id"); ok && idv.Kind == value.KindRecordID {
			key = idv.RecordID.Key
		} else {
			key = value.RecordIDKey{Kind: value.RecordIDKeyUuid, Uuid: uuid.New()}
		}
		id := value.RecordID{Table: i.Table, Key: key}
		obj.Set("id", value.Value{Kind: value.KindRecordID, RecordID: id})
		row := value.Obj(obj)

		if err := permission.Enforce(i.Permission, ctx.Auth().IsRoot, row, permission.OpCreate, i.Table, ctx.WithThis); err != nil {
			return nil, err
		}

		full, doc := recordKeyBytes(i.NS, i.DB, i.Table, id)
		encoded, err := codec.Marshal(row)
		if err != nil {
			return nil, err
		}
		if err := tx.Put(context.Background(), full, encoded); err != nil {
			if errs.Is(err, errs.TxKeyAlreadyExists) {
				if i.IgnoreExisting {
					continue
				}
				return nil, errs.NotFound(errs.RecordExists, i.Table)
			}
			return nil, err
		}
		if err := maintainIndexes(ctx, i.Indexes, doc, nil, &row); err != nil {
			return nil, err
		}
		recordAction(ctx, i.NS, i.DB, i.Table, "create", value.None(), row)
		out = append(out, row)
	}
	recordOperator(i.Metrics, i.Name(), len(out), 1, time.Since(start).Seconds())
	return NewSliceStream(out, len(out)+1), nil
}

// Upsert is create-or-update on a single record key: when the key
// already holds a row, Compute runs with that row bound as $this under
// the table's UPDATE permission; when it doesn't, Compute runs with an
// empty object bound under the CREATE permission and the result is
// written fresh. Either way the final row is re-keyed to Key.
type Upsert struct {
	NS, DB, Table string
	Key           expr.Expr
	Compute       expr.Expr
	CreatePerm    permission.Physical
	UpdatePerm    permission.Physical
	Indexes       []IndexWriter
	Metrics       *metrics.Metrics
}

func (u *Upsert) Name() string                       { return "Upsert" }
func (u *Upsert) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (u *Upsert) AccessMode() expr.AccessMode        { return expr.ReadWrite }
func (u *Upsert) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (u *Upsert) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (u *Upsert) Execute(ctx *exec.Context) (Stream, error) {
	start := time.Now()
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	keyVal, err := u.Key.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	id := value.RecordID{Table: u.Table, Key: value.RecordIDKeyFromValue(keyVal)}
	full, doc := recordKeyBytes(u.NS, u.DB, u.Table, id)

	raw, exists, err := tx.Get(context.Background(), full)
	if err != nil {
		return nil, err
	}
	oldRow := value.Obj(value.NewObject())
	var oldPtr *value.Value
	if exists {
		decoded, err := codec.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		oldRow = decoded
		oldPtr = &decoded
	}

	newVal, err := u.Compute.Evaluate(ctx.BindThis(oldRow))
	if err != nil {
		return nil, err
	}
	newObj := newVal.Object
	if newVal.Kind != value.KindObject || newObj == nil {
		newObj = value.NewObject()
	} else {
		newObj = newObj.Clone()
	}
	newObj.Set("id", value.Value{Kind: value.KindRecordID, RecordID: id})
	newRow := value.Obj(newObj)

	perm, op, action := u.CreatePerm, permission.OpCreate, "create"
	if exists {
		perm, op, action = u.UpdatePerm, permission.OpUpdate, "update"
	}
	if err := permission.Enforce(perm, ctx.Auth().IsRoot, newRow, op, u.Table, ctx.WithThis); err != nil {
		return nil, err
	}

	encoded, err := codec.Marshal(newRow)
	if err != nil {
		return nil, err
	}
	if err := tx.Set(context.Background(), full, encoded); err != nil {
		return nil, err
	}
	if err := maintainIndexes(ctx, u.Indexes, doc, oldPtr, &newRow); err != nil {
		return nil, err
	}
	if exists {
		recordAction(ctx, u.NS, u.DB, u.Table, action, *oldPtr, newRow)
	} else {
		recordAction(ctx, u.NS, u.DB, u.Table, action, value.None(), newRow)
	}

	recordOperator(u.Metrics, u.Name(), 1, 1, time.Since(start).Seconds())
	return NewSliceStream([]value.Value{newRow}, 1), nil
}
