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
	"io"
	"time"

	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
)

// OutputContext is implemented by operators (Let, Use) whose purpose
// is to mutate the context seen by later statements in a block rather
// than to produce rows.
type OutputContext interface {
	OutputContext() *exec.Context
}

// Let evaluates Value once against ctx and rebinds Param as a
// parameter in the context it exposes through OutputContext. It
// produces no rows; LET is never itself a query's result.
type Let struct {
	Param string
	Value expr.Expr
}

func (l *Let) Name() string                      { return "Let" }
func (l *Let) RequiredContext() expr.ContextLevel { return expr.LevelRoot }
func (l *Let) AccessMode() expr.AccessMode        { return l.Value.AccessMode() }
func (l *Let) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (l *Let) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (l *Let) Execute(ctx *exec.Context) (Stream, error) {
	v, err := l.Value.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	out := ctx.Bind(l.Param, v)
	return &contextStream{ctx: out}, nil
}

// Use narrows ctx to the named namespace/database, mirroring
// *catalog.Catalog lookups the planner already resolved at plan time.
// Either field may be empty to mean "keep the current selection".
type Use struct {
	Catalog  *catalog.Catalog
	NS, DB   string
}

func (u *Use) Name() string                      { return "Use" }
func (u *Use) RequiredContext() expr.ContextLevel { return expr.LevelRoot }
func (u *Use) AccessMode() expr.AccessMode        { return expr.ReadOnly }
func (u *Use) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (u *Use) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (u *Use) Execute(ctx *exec.Context) (Stream, error) {
	out := ctx
	if u.NS != "" {
		ns, err := u.Catalog.Namespace(u.NS)
		if err != nil {
			return nil, err
		}
		out = out.WithNamespace(ns)
	}
	if u.DB != "" {
		db, err := u.Catalog.Database(u.NS, u.DB)
		if err != nil {
			return nil, err
		}
		out = out.WithDatabase(db)
	}
	return &contextStream{ctx: out}, nil
}

// contextStream yields zero rows and exposes the mutated context
// through OutputContext, satisfying both Stream and OutputContext.
type contextStream struct {
	ctx  *exec.Context
	done bool
}

func (s *contextStream) Next() (Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return Batch{}, nil
}

func (s *contextStream) OutputContext() *exec.Context { return s.ctx }

// Sleep blocks for Duration, racing the context's cancellation and
// deadline, then yields no rows.
type Sleep struct {
	Duration time.Duration
}

func (s *Sleep) Name() string                      { return "Sleep" }
func (s *Sleep) RequiredContext() expr.ContextLevel { return expr.LevelRoot }
func (s *Sleep) AccessMode() expr.AccessMode        { return expr.ReadOnly }
func (s *Sleep) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (s *Sleep) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (s *Sleep) Execute(ctx *exec.Context) (Stream, error) {
	timer := time.NewTimer(s.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return NewSliceStream(nil, 1), nil
	case <-ctx.CancelToken().Done():
		return nil, errs.New(errs.QueryCancelled)
	}
}

// InfoIndex reports whether a background index build is still in
// progress. Status is nil when the
// session never wired an exec.IndexBuilder (e.g. the index finished
// building before the session started, or the engine doesn't track
// progress for this index kind).
type InfoIndex struct {
	IndexName string
}

func (i *InfoIndex) Name() string                      { return "InfoIndex" }
func (i *InfoIndex) RequiredContext() expr.ContextLevel { return expr.LevelDatabase }
func (i *InfoIndex) AccessMode() expr.AccessMode        { return expr.ReadOnly }
func (i *InfoIndex) OutputOrdering() OutputOrdering     { return UnorderedOutput() }
func (i *InfoIndex) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (i *InfoIndex) Execute(ctx *exec.Context) (Stream, error) {
	obj := value.NewObject()
	if b := ctx.IndexBuilder(); b != nil {
		if building, ok := b.Status(i.IndexName); ok {
			obj.Set("building", value.Value{Kind: value.KindBool, Bool: building})
		}
	}
	return NewSliceStream([]value.Value{value.Obj(obj)}, 1), nil
}
