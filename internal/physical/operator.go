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

// Package physical implements the streaming operator tree: a
// pull-based Stream of row Batches, and the concrete
// operators (Scan, Filter, Project, Sort, Limit, GroupAggregate, the
// mutation operators, and the control-flow operators) the planner
// wires together into one executable plan per statement.
package physical

import (
	"io"

	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// Batch is one pulled slice of rows. An operator is free to choose its
// own batch size; the only contract is that batches are emitted in
// the operator's declared OutputOrdering.
type Batch []value.Value

// Stream is the pull iterator every operator's Execute returns.
// Next returns io.EOF (with a nil Batch) once exhausted; it never
// returns a nil error together with a nil Batch.
type Stream interface {
	Next() (Batch, error)
}

// SortDirection orders one SortProperty.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// SortProperty names one key of a Sorted ordering, most significant
// first, mirroring ORDER BY field, direction. Field is the key's
// stable identity used when comparing orderings; Path evaluates it
// against a row.
type SortProperty struct {
	Field     string
	Path      expr.Expr
	Direction SortDirection
}

// OrderingKind discriminates OutputOrdering's two shapes.
type OrderingKind int

const (
	Unordered OrderingKind = iota
	Sorted
)

// OutputOrdering is the ordering contract an operator promises its
// output stream satisfies. Sort only has to do work when the
// requested order is not already a prefix of its input's ordering.
type OutputOrdering struct {
	Kind  OrderingKind
	Props []SortProperty
}

func UnorderedOutput() OutputOrdering { return OutputOrdering{Kind: Unordered} }
func SortedOutput(props ...SortProperty) OutputOrdering {
	return OutputOrdering{Kind: Sorted, Props: props}
}

// Satisfies reports whether this ordering already satisfies required
// as a prefix match: every SortProperty of required must appear, in
// the same order and direction, as a prefix of o's own properties.
func (o OutputOrdering) Satisfies(required OutputOrdering) bool {
	if required.Kind == Unordered {
		return true
	}
	if o.Kind == Unordered || len(o.Props) < len(required.Props) {
		return false
	}
	for i, p := range required.Props {
		if o.Props[i].Direction != p.Direction {
			return false
		}
		if p.Field == "" || o.Props[i].Field != p.Field {
			return false
		}
	}
	return true
}

// CardinalityHint is an operator's rough estimate of its output size.
// Operators report it, but no operator or planner step reads it to
// change how a plan runs.
type CardinalityHint int

const (
	CardinalityUnknown CardinalityHint = iota
	CardinalityOne
	CardinalityFew
	CardinalityMany
)

// Operator is the execution-operator trait: every node in the
// physical tree declares the context level and access mode it needs,
// the ordering of what it emits, a cardinality hint for the planner,
// and a pull-based Execute.
type Operator interface {
	RequiredContext() expr.ContextLevel
	AccessMode() expr.AccessMode
	OutputOrdering() OutputOrdering
	CardinalityHint() CardinalityHint
	Execute(ctx *exec.Context) (Stream, error)
	Name() string
}

// sliceStream replays a fixed slice of rows as however many Batches
// the caller asked for — used by operators (Sort, GroupAggregate,
// Only) that must materialize their whole input before they can
// produce their first output row.
type sliceStream struct {
	rows      []value.Value
	batchSize int
	pos       int
}

func NewSliceStream(rows []value.Value, batchSize int) Stream {
	if batchSize <= 0 {
		batchSize = 256
	}
	return &sliceStream{rows: rows, batchSize: batchSize}
}

func (s *sliceStream) Next() (Batch, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	end := s.pos + s.batchSize
	if end > len(s.rows) {
		end = len(s.rows)
	}
	out := Batch(s.rows[s.pos:end])
	s.pos = end
	return out, nil
}

// Collect drains a Stream to completion, checking ctx's cancellation
// between batches.
func Collect(ctx *exec.Context, op Operator) ([]value.Value, error) {
	st, err := op.Execute(ctx)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for {
		if ctx.Cancelled() {
			return nil, errs.New(errs.QueryCancelled)
		}
		b, err := st.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
}

func recordOperator(m *metrics.Metrics, name string, rows, batches int, d float64) {
	if m == nil {
		return
	}
	m.OperatorRowsEmitted.WithLabelValues(name).Add(float64(rows))
	m.OperatorBatchesEmitted.WithLabelValues(name).Add(float64(batches))
	m.OperatorDuration.WithLabelValues(name).Observe(d)
}

// Plan adapts a root Operator into expr.PlanRunner, the structural seam
// internal/expr's Subquery uses to run a nested physical plan without
// this package's Operator type being visible to internal/expr.
type Plan struct {
	Root Operator
}

func NewPlan(root Operator) *Plan { return &Plan{Root: root} }

// Run implements expr.PlanRunner. ctx must already satisfy the root
// operator's RequiredContext; callers that got ctx from an
// expr.EvalContext concretely typed as *exec.Context pass it straight
// through.
func (p *Plan) Run(ctx expr.EvalContext) ([]value.Value, error) {
	ec, ok := ctx.(*exec.Context)
	if !ok {
		return nil, errs.New(errs.InvalidStatementTarget)
	}
	return Collect(ec, p.Root)
}
