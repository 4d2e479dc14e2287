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

// Package expr implements the physical expression model: a
// capability set per node (evaluate, batch-evaluate,
// access-mode introspection, required context level) plus every node
// variant the planner can lower a statement's scalar expressions into.
// The SQL-level parser/AST that produces these trees is an external
// collaborator; this package starts one level below it, at
// the already-resolved physical tree.
package expr

import (
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/value"
)

// ContextLevel mirrors the three nested execution-context
// tiers. An expression (or operator) declares the minimum tier it
// needs to evaluate.
type ContextLevel int

const (
	LevelRoot ContextLevel = iota
	LevelNamespace
	LevelDatabase
)

// AccessMode is the ReadOnly/ReadWrite lattice over expressions.
// Combine is a join: any ReadWrite child makes the parent ReadWrite.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
)

// Combine implements the lattice-join rule.
func Combine(modes ...AccessMode) AccessMode {
	for _, m := range modes {
		if m == ReadWrite {
			return ReadWrite
		}
	}
	return ReadOnly
}

// EvalContext is the minimal surface an expression needs from the
// execution context to evaluate: parameter/special-identifier lookup,
// the row currently bound, and a child-context constructor for nested
// evaluation (WHERE predicates, FOR loops, subqueries). internal/exec's
// Context satisfies this interface structurally; internal/expr never
// imports it, so subqueries (which wrap a PlanRunner) don't create an
// import cycle with internal/physical.
type EvalContext interface {
	// Param resolves $name (session/statement variables).
	Param(name string) (value.Value, bool)

	// This returns $this, the row currently bound by the innermost
	// enclosing Scan/Filter/Project.
	This() (value.Value, bool)

	// Parent returns $parent, the row bound by the enclosing
	// subquery's outer iteration, if any.
	Parent() (value.Value, bool)

	// Before/After return $before/$after inside mutation contexts.
	Before() (value.Value, bool)
	After() (value.Value, bool)

	// WithThis returns a child context with $this rebound, used when
	// evaluating a predicate or projection per row.
	WithThis(v value.Value) EvalContext

	// WithParam returns a child context with one extra $name binding,
	// the evaluation-time analogue of LET.
	WithParam(name string, v value.Value) EvalContext

	// Cancelled reports whether the owning query has been cancelled
	// or has hit its timeout.
	Cancelled() bool

	// Level reports which context tier this EvalContext was built
	// from, so an expression needing more than Root can fail fast.
	Level() ContextLevel
}

// PlanRunner is the structural seam a subquery uses to run a nested
// physical plan without this package importing internal/physical.
// internal/physical's plan wrapper implements Run with this exact
// signature.
type PlanRunner interface {
	Run(ctx EvalContext) ([]value.Value, error)
}

// Expr is the PhysicalExpr trait.
type Expr interface {
	// Evaluate computes this expression's value in ctx. Errors may be
	// a genuine failure or a *errs.ControlFlow signal (Break/Continue/
	// Return) that the nearest containing loop/closure must catch.
	Evaluate(ctx EvalContext) (value.Value, error)

	// EvaluateBatch evaluates this expression once per input row.
	// Pure expressions may override this (see Literal, Param) to
	// evaluate over the whole slice at once; the default embedded in
	// Base loops per-row.
	EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error)

	// ReferencesCurrentValue reports whether this expression reads
	// $this, so the planner/executor know it cannot be hoisted above
	// a row-producing operator.
	ReferencesCurrentValue() bool

	// AccessMode reports ReadOnly unless this expression (or a child)
	// contains a mutating subquery.
	AccessMode() AccessMode

	// RequiredContext reports the minimum ContextLevel this
	// expression's evaluation needs.
	RequiredContext() ContextLevel
}

// Base gives every concrete node a default EvaluateBatch (the
// per-row loop default) so each variant below only
// implements Evaluate plus its three introspection methods. The pure
// leaf nodes (Literal, Param) define their own EvaluateBatch that fills
// the whole output slice at once.
type Base struct {
	self Expr
}

func (b *Base) bind(self Expr) { b.self = self }

func (b *Base) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	out := make([]value.Value, len(rows))
	for i, row := range rows {
		rowCtx := ctx.WithThis(row)
		v, err := b.self.Evaluate(rowCtx)
		if err != nil {
			if cf, ok := errs.AsControlFlow(err); ok && cf.Signal == errs.SignalReturn {
				// RETURN re-enters per-row mode; here that's already true, so just
				// surface the value.
				if rv, ok := cf.Value.(value.Value); ok {
					out[i] = rv
					continue
				}
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
