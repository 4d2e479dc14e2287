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

package engine

import (
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/physical"
	"github.com/nexusdb/core/internal/value"
)

// runInContext plans and executes one statement against an already
// open transaction, returning its rows and the (possibly rebound)
// context later statements in the same block should see.
func (sess *Session) runInContext(stmt Statement, ctx *exec.Context) ([]value.Value, *exec.Context, error) {
	op, err := sess.planner.plan(stmt)
	if err != nil {
		return nil, ctx, err
	}
	if !ctx.Satisfies(op.RequiredContext()) {
		return nil, ctx, errs.New(errs.InvalidStatementTarget)
	}
	st, err := op.Execute(ctx)
	if err != nil {
		return nil, ctx, err
	}
	rows, err := physical.Collect(ctx, &preparedOp{op: op, st: st})
	if err != nil {
		return nil, ctx, err
	}
	if oc, ok := st.(physical.OutputContext); ok {
		return rows, oc.OutputContext(), nil
	}
	return rows, ctx, nil
}

// runBlock executes a statement list in order under one transaction.
// LET/USE rebind the context seen by later entries; break, continue
// and return surface as control-flow signals through the error
// return, to be caught by the nearest containing loop (or the
// top-level driver, for return). The block's rows are its last
// entry's output, which is empty when that entry is a LET or USE.
func (sess *Session) runBlock(stmts []Statement, ctx *exec.Context) ([]value.Value, *exec.Context, error) {
	var rows []value.Value
	for _, stmt := range stmts {
		var err error
		rows, ctx, err = sess.runControl(stmt, ctx)
		if err != nil {
			return nil, ctx, err
		}
	}
	return rows, ctx, nil
}

// runControl dispatches one statement inside a block: the control
// structures execute as driver logic around nested plans, everything
// else lowers through the planner.
func (sess *Session) runControl(stmt Statement, ctx *exec.Context) ([]value.Value, *exec.Context, error) {
	switch s := stmt.(type) {
	case *BreakStatement:
		return nil, ctx, errs.Break()
	case *ContinueStatement:
		return nil, ctx, errs.Continue()
	case *ReturnStatement:
		v := value.None()
		if s.Value != nil {
			evaluated, err := s.Value.Evaluate(ctx)
			if err != nil {
				return nil, ctx, err
			}
			v = evaluated
		}
		return nil, ctx, errs.Return(v)
	case *BlockStatement:
		return sess.runBlock(s.Body, ctx)
	case *IfElseStatement:
		cond, err := s.Cond.Evaluate(ctx)
		if err != nil {
			return nil, ctx, err
		}
		branch := s.Else
		if cond.IsTruthy() {
			branch = s.Then
		}
		rows, _, err := sess.runBlock(branch, ctx.Clone())
		return rows, ctx, err
	case *ForeachStatement:
		return sess.runForeach(s, ctx)
	default:
		return sess.runInContext(stmt, ctx)
	}
}

// runForeach evaluates the iterable once, then executes the body per
// element under a child context with the loop variable bound. Breaks
// and continues raised in the body stop here; a return signal
// propagates to the enclosing block.
func (sess *Session) runForeach(s *ForeachStatement, ctx *exec.Context) ([]value.Value, *exec.Context, error) {
	iter, err := s.Iterable.Evaluate(ctx)
	if err != nil {
		return nil, ctx, err
	}
	items, err := iterableItems(iter)
	if err != nil {
		return nil, ctx, err
	}
	var rows []value.Value
	for _, item := range items {
		if ctx.Cancelled() {
			return nil, ctx, errs.New(errs.QueryCancelled)
		}
		iterCtx := ctx.Bind(s.Param, item)
		iterRows, _, err := sess.runBlock(s.Body, iterCtx)
		if err != nil {
			if cf, ok := errs.AsControlFlow(err); ok {
				if cf.Signal == errs.SignalBreak {
					break
				}
				if cf.Signal == errs.SignalContinue {
					continue
				}
			}
			return nil, ctx, err
		}
		rows = iterRows
	}
	return rows, ctx, nil
}

// iterableItems expands a loop's iterable value: arrays and sets
// iterate their elements, a bounded integer range iterates its
// half-open span, anything else is rejected.
func iterableItems(v value.Value) ([]value.Value, error) {
	switch v.Kind {
	case value.KindArray:
		return v.Array, nil
	case value.KindSet:
		return v.Set, nil
	case value.KindRange:
		if v.Range == nil || v.Range.Start == nil || v.Range.End == nil ||
			v.Range.Start.Kind != value.KindNumber || v.Range.End.Kind != value.KindNumber {
			return nil, errs.New(errs.InvalidArguments)
		}
		start := v.Range.Start.Number.Int64
		end := v.Range.End.Number.Int64
		if end < start {
			return nil, errs.New(errs.InvalidArguments)
		}
		items := make([]value.Value, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, value.Int64(i))
		}
		return items, nil
	default:
		return nil, errs.New(errs.InvalidArguments)
	}
}
