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

package expr

import (
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/value"
)

// Func is a callable builtin or user-defined function. The catalogue
// of builtins lives outside this package's scope; Call receives
// already-evaluated arguments.
type Func func(ctx EvalContext, args []value.Value) (value.Value, error)

// Call is a function-call expression.
type Call struct {
	Name string
	Args []Expr
	Fn   Func
	base Base
}

func NewCall(name string, fn Func, args ...Expr) *Call {
	c := &Call{Name: name, Args: args, Fn: fn}
	c.base.bind(c)
	return c
}

func (c *Call) Evaluate(ctx EvalContext) (value.Value, error) {
	if c.Fn == nil {
		return value.None(), errs.NotImplemented("function: " + c.Name)
	}
	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		args[i] = v
	}
	return c.Fn(ctx, args)
}

func (c *Call) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return c.base.EvaluateBatch(ctx, rows)
}
func (c *Call) ReferencesCurrentValue() bool {
	for _, a := range c.Args {
		if a.ReferencesCurrentValue() {
			return true
		}
	}
	return false
}
func (c *Call) AccessMode() AccessMode {
	modes := make([]AccessMode, len(c.Args))
	for i, a := range c.Args {
		modes[i] = a.AccessMode()
	}
	return Combine(modes...)
}
func (c *Call) RequiredContext() ContextLevel {
	level := LevelRoot
	for _, a := range c.Args {
		if a.RequiredContext() > level {
			level = a.RequiredContext()
		}
	}
	return level
}

// Future is a `<future>{ ... }` deferred block: the wrapped expression
// evaluates lazily, once, the first time it is read. This package
// models "once" as "on every Evaluate call the caller makes", since
// caching belongs to whatever holds the field value after the first
// read (the record object itself, once computed-field application
// writes it back).
type Future struct {
	Inner Expr
	base  Base
}

func NewFuture(inner Expr) *Future {
	f := &Future{Inner: inner}
	f.base.bind(f)
	return f
}

func (f *Future) Evaluate(ctx EvalContext) (value.Value, error) { return f.Inner.Evaluate(ctx) }
func (f *Future) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return f.base.EvaluateBatch(ctx, rows)
}
func (f *Future) ReferencesCurrentValue() bool  { return f.Inner.ReferencesCurrentValue() }
func (f *Future) AccessMode() AccessMode        { return f.Inner.AccessMode() }
func (f *Future) RequiredContext() ContextLevel { return f.Inner.RequiredContext() }

// Subquery wraps a nested physical plan behind the PlanRunner seam:
// internal/physical's plan wrapper satisfies PlanRunner without this
// package importing it.
type Subquery struct {
	Plan PlanRunner
	// Mode is fixed at construction time from the wrapped plan's own
	// access_mode, since a SELECT embedding `(UPSERT...)` must be known to
	// mutate wherever this Subquery sits in a larger tree.
	Mode AccessMode
	ctxLevel ContextLevel
}

func NewSubquery(plan PlanRunner, mode AccessMode, level ContextLevel) *Subquery {
	return &Subquery{Plan: plan, Mode: mode, ctxLevel: level}
}

func (s *Subquery) Evaluate(ctx EvalContext) (value.Value, error) {
	rows, err := s.Plan.Run(ctx)
	if err != nil {
		return value.None(), err
	}
	return value.Value{Kind: value.KindArray, Array: rows}, nil
}

func (s *Subquery) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	out := make([]value.Value, len(rows))
	for i, row := range rows {
		v, err := s.Evaluate(ctx.WithThis(row))
		if err != nil {
			if !ctx.Cancelled() {
				return nil, err
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Subquery) ReferencesCurrentValue() bool  { return true }
func (s *Subquery) AccessMode() AccessMode        { return s.Mode }
func (s *Subquery) RequiredContext() ContextLevel { return s.ctxLevel }
