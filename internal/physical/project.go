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

// ProjectField names one output column of a Project operator.
type ProjectField struct {
	Name string
	Expr expr.Expr
}

// Project evaluates each Field against every row of Child's output and
// reassembles the results into a new object row per input row.
type Project struct {
	Child   Operator
	Fields  []ProjectField
	Metrics *metrics.Metrics
}

func (p *Project) Name() string { return "Project" }
func (p *Project) RequiredContext() expr.ContextLevel {
	level := p.Child.RequiredContext()
	for _, f := range p.Fields {
		if l := f.Expr.RequiredContext(); l > level {
			level = l
		}
	}
	return level
}
func (p *Project) AccessMode() expr.AccessMode {
	modes := []expr.AccessMode{p.Child.AccessMode()}
	for _, f := range p.Fields {
		modes = append(modes, f.Expr.AccessMode())
	}
	return expr.Combine(modes...)
}
func (p *Project) OutputOrdering() OutputOrdering   { return UnorderedOutput() }
func (p *Project) CardinalityHint() CardinalityHint { return p.Child.CardinalityHint() }

func (p *Project) Execute(ctx *exec.Context) (Stream, error) {
	st, err := p.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &projectStream{ctx: ctx, child: st, fields: p.Fields, m: p.Metrics, name: p.Name()}, nil
}

type projectStream struct {
	ctx    *exec.Context
	child  Stream
	fields []ProjectField
	m      *metrics.Metrics
	name   string
}

func (s *projectStream) Next() (Batch, error) {
	b, err := s.child.Next()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := make(Batch, len(b))
	for i := range out {
		out[i] = value.Obj(value.NewObject())
	}
	for _, f := range s.fields {
		col, err := f.Expr.EvaluateBatch(s.ctx, []value.Value(b))
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if v.Kind != value.KindNone {
				out[i].Object.Set(f.Name, v)
			}
		}
	}
	recordOperator(s.m, s.name, len(out), 1, time.Since(start).Seconds())
	return out, nil
}

// ProjectValue evaluates a single expression per row and emits its
// result directly, implementing RETURN VALUE / SELECT VALUE semantics
// where the output isn't reassembled into an object.
type ProjectValue struct {
	Child   Operator
	Value   expr.Expr
	Metrics *metrics.Metrics
}

func (p *ProjectValue) Name() string                      { return "ProjectValue" }
func (p *ProjectValue) RequiredContext() expr.ContextLevel { return maxLevel(p.Child.RequiredContext(), p.Value.RequiredContext()) }
func (p *ProjectValue) AccessMode() expr.AccessMode        { return expr.Combine(p.Child.AccessMode(), p.Value.AccessMode()) }
func (p *ProjectValue) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (p *ProjectValue) CardinalityHint() CardinalityHint   { return p.Child.CardinalityHint() }

func (p *ProjectValue) Execute(ctx *exec.Context) (Stream, error) {
	st, err := p.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &projectValueStream{ctx: ctx, child: st, expr: p.Value, m: p.Metrics, name: p.Name()}, nil
}

type projectValueStream struct {
	ctx   *exec.Context
	child Stream
	expr  expr.Expr
	m     *metrics.Metrics
	name  string
}

func (s *projectValueStream) Next() (Batch, error) {
	b, err := s.child.Next()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := s.expr.EvaluateBatch(s.ctx, []value.Value(b))
	if err != nil {
		return nil, err
	}
	recordOperator(s.m, s.name, len(out), 1, time.Since(start).Seconds())
	return Batch(out), nil
}
