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
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/permission"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// Relate connects two records through a new edge record: the edge row
// lands in EdgeTable with `in` and `out` fields naming the endpoints,
// and each endpoint gains a graph-edge pointer to it — an outbound
// pointer at the source, an inbound one at the target — so traversal
// from either side is a single prefix scan.
type Relate struct {
	NS, DB    string
	EdgeTable string
	From, To  expr.Expr
	Key       expr.Expr // nil: auto-generate
	Content   expr.Expr // nil: edge carries only id/in/out
	Permission permission.Physical
	Indexes    []IndexWriter
	Metrics    *metrics.Metrics
}

func (r *Relate) Name() string                       { return "Relate" }
func (r *Relate) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (r *Relate) AccessMode() expr.AccessMode        { return expr.ReadWrite }
func (r *Relate) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (r *Relate) CardinalityHint() CardinalityHint   { return CardinalityOne }

func evalRecordID(ctx *exec.Context, e expr.Expr) (value.RecordID, error) {
	v, err := e.Evaluate(ctx)
	if err != nil {
		return value.RecordID{}, err
	}
	if v.Kind == value.KindObject && v.Object != nil {
		if idv, ok := v.Object.Get("id"); ok {
			v = idv
		}
	}
	if v.Kind != value.KindRecordID {
		return value.RecordID{}, errs.New(errs.InvalidStatementTarget)
	}
	return v.RecordID, nil
}

func (r *Relate) Execute(ctx *exec.Context) (Stream, error) {
	start := time.Now()
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	from, err := evalRecordID(ctx, r.From)
	if err != nil {
		return nil, err
	}
	to, err := evalRecordID(ctx, r.To)
	if err != nil {
		return nil, err
	}

	obj := value.NewObject()
	if r.Content != nil {
		content, err := r.Content.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if content.Kind == value.KindObject && content.Object != nil {
			obj = content.Object.Clone()
		}
	}

	var key value.RecordIDKey
	if r.Key != nil {
		keyVal, err := r.Key.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		key = value.RecordIDKeyFromValue(keyVal)
	} else {
		key = value.RecordIDKey{Kind: value.RecordIDKeyUuid, Uuid: uuid.New()}
	}
	edgeID := value.RecordID{Table: r.EdgeTable, Key: key}
	obj.Set("id", value.Value{Kind: value.KindRecordID, RecordID: edgeID})
	obj.Set("in", value.Value{Kind: value.KindRecordID, RecordID: from})
	obj.Set("out", value.Value{Kind: value.KindRecordID, RecordID: to})
	row := value.Obj(obj)

	if err := permission.Enforce(r.Permission, ctx.Auth().IsRoot, row, permission.OpCreate, r.EdgeTable, ctx.WithThis); err != nil {
		return nil, err
	}

	full, doc := recordKeyBytes(r.NS, r.DB, r.EdgeTable, edgeID)
	encoded, err := codec.Marshal(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Put(context.Background(), full, encoded); err != nil {
		if errs.Is(err, errs.TxKeyAlreadyExists) {
			return nil, errs.NotFound(errs.RecordExists, r.EdgeTable)
		}
		return nil, err
	}

	fromDoc := keys.EncodeRecordIDKey(from.Key)
	toDoc := keys.EncodeRecordIDKey(to.Key)
	outKey := keys.GraphEdge(r.NS, r.DB, from.Table, fromDoc, keys.GraphOut, r.EdgeTable, doc)
	inKey := keys.GraphEdge(r.NS, r.DB, to.Table, toDoc, keys.GraphIn, r.EdgeTable, doc)
	if err := tx.Set(context.Background(), outKey, []byte{}); err != nil {
		return nil, err
	}
	if err := tx.Set(context.Background(), inKey, []byte{}); err != nil {
		return nil, err
	}

	if err := maintainIndexes(ctx, r.Indexes, doc, nil, &row); err != nil {
		return nil, err
	}
	recordAction(ctx, r.NS, r.DB, r.EdgeTable, "create", value.None(), row)

	recordOperator(r.Metrics, r.Name(), 1, 1, time.Since(start).Seconds())
	return NewSliceStream([]value.Value{row}, 1), nil
}

// cascadeGraphEdges removes every graph-edge pointer rooted at a
// just-deleted record, along with the edge records those pointers
// reference and the mirrored pointers at each edge's other endpoint.
// Deleting a node therefore never strands an edge record or leaves a
// dangling pointer on the surviving endpoint.
func cascadeGraphEdges(ctx *exec.Context, tx kvs.Transaction, ns, db, table string, doc []byte) error {
	prefix := keys.GraphEdgeAllPrefix(ns, db, table, doc)
	rows, err := tx.Scan(context.Background(), prefix, keys.PrefixEnd(prefix), 0, kvs.Forward)
	if err != nil {
		return err
	}
	for _, kv := range rows {
		if err := tx.Del(context.Background(), kv.Key); err != nil {
			return err
		}
		tail := kv.Key[len(prefix):]
		if len(tail) < 2 {
			continue
		}
		edgeTB, edgeDoc, err := keys.SplitGraphForeign(tail[1:])
		if err != nil {
			continue
		}
		edgeKey := keys.Record(ns, db, edgeTB, edgeDoc)
		raw, ok, err := tx.Get(context.Background(), edgeKey)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		edgeRow, err := codec.Unmarshal(raw)
		if err != nil {
			return err
		}
		if err := tx.Del(context.Background(), edgeKey); err != nil {
			return err
		}
		for _, field := range []struct {
			name string
			dir  keys.GraphDirection
		}{{"in", keys.GraphOut}, {"out", keys.GraphIn}} {
			if edgeRow.Kind != value.KindObject || edgeRow.Object == nil {
				continue
			}
			endpoint, ok := edgeRow.Object.Get(field.name)
			if !ok || endpoint.Kind != value.KindRecordID {
				continue
			}
			epDoc := keys.EncodeRecordIDKey(endpoint.RecordID.Key)
			mirror := keys.GraphEdge(ns, db, endpoint.RecordID.Table, epDoc, field.dir, edgeTB, edgeDoc)
			if err := tx.Del(context.Background(), mirror); err != nil {
				return err
			}
		}
	}
	return nil
}
