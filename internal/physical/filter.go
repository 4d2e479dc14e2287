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
	"time"

	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// Filter evaluates Predicate once per row of Child's output and drops
// rows that don't evaluate truthy.
type Filter struct {
	Child     Operator
	Predicate expr.Expr
	Metrics   *metrics.Metrics
}

func (f *Filter) Name() string                      { return "Filter" }
func (f *Filter) RequiredContext() expr.ContextLevel { return maxLevel(f.Child.RequiredContext(), f.Predicate.RequiredContext()) }
func (f *Filter) AccessMode() expr.AccessMode        { return expr.Combine(f.Child.AccessMode(), f.Predicate.AccessMode()) }
func (f *Filter) OutputOrdering() OutputOrdering     { return f.Child.OutputOrdering() }
func (f *Filter) CardinalityHint() CardinalityHint   { return f.Child.CardinalityHint() }

func (f *Filter) Execute(ctx *exec.Context) (Stream, error) {
	st, err := f.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &filterStream{ctx: ctx, child: st, pred: f.Predicate, m: f.Metrics, name: f.Name()}, nil
}

type filterStream struct {
	ctx   *exec.Context
	child Stream
	pred  expr.Expr
	m     *metrics.Metrics
	name  string
}

func (s *filterStream) Next() (Batch, error) {
	for {
		b, err := s.child.Next()
		if err != nil {
			return nil, err
		}
		start := time.Now()
		keep, err := s.pred.EvaluateBatch(s.ctx, []value.Value(b))
		if err != nil {
			return nil, err
		}
		out := make(Batch, 0, len(b))
		for i, row := range b {
			if keep[i].IsTruthy() {
				out = append(out, row)
			}
		}
		recordOperator(s.m, s.name, len(out), 1, time.Since(start).Seconds())
		if len(out) == 0 {
			continue
		}
		return out, nil
	}
}

func maxLevel(a, b expr.ContextLevel) expr.ContextLevel {
	if a > b {
		return a
	}
	return b
}
