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
	"io"
	"time"

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

// Scan streams every record of one table in key order, applying the
// table's compiled SELECT permission row by row.
type Scan struct {
	NS, DB, Table string
	Select        permission.Physical
	Direction     kvs.Direction
	BatchSize     int
	Metrics       *metrics.Metrics
}

func (s *Scan) Name() string                      { return "Scan" }
func (s *Scan) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (s *Scan) AccessMode() expr.AccessMode        { return expr.ReadOnly }

// OutputOrdering declares the record-key order a scan emits in: id
// ascending forward, id descending reversed.
func (s *Scan) OutputOrdering() OutputOrdering {
	dir := Ascending
	if s.Direction == kvs.Reverse {
		dir = Descending
	}
	return SortedOutput(SortProperty{Field: "id", Direction: dir})
}
func (s *Scan) CardinalityHint() CardinalityHint { return CardinalityMany }

func (s *Scan) Execute(ctx *exec.Context) (Stream, error) {
	tx := ctx.Transaction()
	if tx == nil {
		return nil, errs.New(errs.TxFinished)
	}
	prefix := keys.RecordPrefix(s.NS, s.DB, s.Table)
	end := keys.PrefixEnd(prefix)
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 256
	}
	return &scanStream{
		ctx: ctx, tx: tx, table: s.Table, perm: s.Select,
		cur: prefix, end: end, dir: s.Direction, batchSize: batchSize,
		m: s.Metrics, name: s.Name(),
	}, nil
}

type scanStream struct {
	ctx       *exec.Context
	tx        kvs.Transaction
	table     string
	perm      permission.Physical
	cur, end  []byte
	dir       kvs.Direction
	batchSize int
	done      bool
	m         *metrics.Metrics
	name      string
}

func (s *scanStream) Next() (Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	if s.ctx.Cancelled() {
		return nil, errs.New(errs.QueryCancelled)
	}
	start := time.Now()
	kvRows, err := s.tx.Scan(context.Background(), s.cur, s.end, s.batchSize, s.dir)
	if err != nil {
		return nil, err
	}
	if len(kvRows) == 0 {
		s.done = true
		return nil, io.EOF
	}
	isRoot := s.ctx.Auth().IsRoot
	out := make(Batch, 0, len(kvRows))
	for _, kv := range kvRows {
		v, err := codec.Unmarshal(kv.Value)
		if err != nil {
			return nil, err
		}
		ok, err := permission.Check(s.perm, isRoot, v, func(row value.Value) expr.EvalContext {
			return s.ctx.WithThis(row)
		})
		if err != nil {
			return nil, err
		}
		if s.m != nil {
			s.m.RecordPermissionCheck(ok)
		}
		if ok {
			out = append(out, v)
		}
	}
	last := kvRows[len(kvRows)-1].Key
	if s.dir == kvs.Reverse {
		s.end = last
	} else {
		next := make([]byte, len(last)+1)
		copy(next, last)
		s.cur = next
	}
	if len(kvRows) < s.batchSize {
		s.done = true
	}
	recordOperator(s.m, s.name, len(out), 1, time.Since(start).Seconds())
	return out, nil
}
