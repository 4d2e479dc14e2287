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

// Literal is a constant value, the simplest PhysicalExpr.
type Literal struct {
	Value value.Value
}

func NewLiteral(v value.Value) *Literal { return &Literal{Value: v} }

func (l *Literal) Evaluate(ctx EvalContext) (value.Value, error) { return l.Value, nil }

// EvaluateBatch overrides the per-row default: a literal is the same
// for every row.
func (l *Literal) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	out := make([]value.Value, len(rows))
	for i := range rows {
		out[i] = l.Value
	}
	return out, nil
}

func (l *Literal) ReferencesCurrentValue() bool   { return false }
func (l *Literal) AccessMode() AccessMode         { return ReadOnly }
func (l *Literal) RequiredContext() ContextLevel  { return LevelRoot }

// Param is `$name`.
type Param struct {
	Name string
}

func NewParam(name string) *Param { return &Param{Name: name} }

func (p *Param) Evaluate(ctx EvalContext) (value.Value, error) {
	switch p.Name {
	case "this":
		if v, ok := ctx.This(); ok {
			return v, nil
		}
		return value.None(), nil
	case "parent":
		if v, ok := ctx.Parent(); ok {
			return v, nil
		}
		return value.None(), nil
	case "before":
		if v, ok := ctx.Before(); ok {
			return v, nil
		}
		return value.None(), nil
	case "after":
		if v, ok := ctx.After(); ok {
			return v, nil
		}
		return value.None(), nil
	}
	if v, ok := ctx.Param(p.Name); ok {
		return v, nil
	}
	return value.None(), errs.NotFound(errs.ParamNotFound, p.Name)
}

func (p *Param) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	if p.Name == "this" {
		// $this varies per row; fall back to the per-row default.
		out := make([]value.Value, len(rows))
		for i, row := range rows {
			v, err := p.Evaluate(ctx.WithThis(row))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	v, err := p.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(rows))
	for i := range rows {
		out[i] = v
	}
	return out, nil
}

func (p *Param) ReferencesCurrentValue() bool { return p.Name == "this" }
func (p *Param) AccessMode() AccessMode       { return ReadOnly }
func (p *Param) RequiredContext() ContextLevel {
	if p.Name == "this" || p.Name == "parent" || p.Name == "before" || p.Name == "after" {
		return LevelRoot
	}
	return LevelRoot
}

// Idiom walks a chain of record-field path Parts against a base
// expression.
type Idiom struct {
	Base  Expr
	Parts []Part
	Base_ Base
}

// PartKind discriminates one Idiom segment, extending value.PartKind
// with the parts that need expression evaluation (Where/Method/Graph/
// Value) rather than plain structural walking.
type PartKind int

const (
	PartField PartKind = iota
	PartIndex
	PartAll
	PartFirst
	PartLast
	PartWhere
	PartMethod
	PartGraph
	PartValue
)

type GraphDirection int

const (
	GraphOut GraphDirection = iota
	GraphIn
	GraphBoth
)

// GraphResolver is the optional capability an EvalContext can offer
// for Graph parts: given a record (or its id), return the ids of the
// edge records reachable in dir, optionally restricted to one edge
// table. A context without a transaction simply doesn't satisfy it.
type GraphResolver interface {
	ResolveGraph(dir GraphDirection, target string, from value.Value) (value.Value, error)
}

// Part is one Idiom path segment.
type Part struct {
	Kind   PartKind
	Field  string
	Index  int
	Where  Expr
	Method string
	Args   []Expr
	Dir    GraphDirection
	Target string // foreign table for Graph
	Value  Expr   // index-expression part (computed index/key)
}

func NewIdiom(base Expr, parts ...Part) *Idiom {
	i := &Idiom{Base: base, Parts: parts}
	i.Base_.bind(i)
	return i
}

func (i *Idiom) Evaluate(ctx EvalContext) (value.Value, error) {
	cur, err := i.Base.Evaluate(ctx)
	if err != nil {
		return value.None(), err
	}
	for _, part := range i.Parts {
		cur, err = applyPart(ctx, cur, part)
		if err != nil {
			return value.None(), err
		}
	}
	return cur, nil
}

func applyPart(ctx EvalContext, cur value.Value, part Part) (value.Value, error) {
	switch part.Kind {
	case PartField:
		if cur.Kind != value.KindObject || cur.Object == nil {
			return value.None(), nil
		}
		v, ok := cur.Object.Get(part.Field)
		if !ok {
			return value.None(), nil
		}
		return v, nil

	case PartIndex:
		if cur.Kind != value.KindArray {
			return value.None(), nil
		}
		idx := part.Index
		if idx < 0 {
			idx += len(cur.Array)
		}
		if idx < 0 || idx >= len(cur.Array) {
			return value.None(), nil
		}
		return cur.Array[idx], nil

	case PartFirst:
		if cur.Kind != value.KindArray || len(cur.Array) == 0 {
			return value.None(), nil
		}
		return cur.Array[0], nil

	case PartLast:
		if cur.Kind != value.KindArray || len(cur.Array) == 0 {
			return value.None(), nil
		}
		return cur.Array[len(cur.Array)-1], nil

	case PartAll:
		return cur, nil

	case PartWhere:
		if cur.Kind != value.KindArray {
			v, err := part.Where.Evaluate(ctx.WithThis(cur))
			if err != nil {
				return value.None(), err
			}
			if v.IsTruthy() {
				return cur, nil
			}
			return value.None(), nil
		}
		out := make([]value.Value, 0, len(cur.Array))
		for _, item := range cur.Array {
			v, err := part.Where.Evaluate(ctx.WithThis(item))
			if err != nil {
				return value.None(), err
			}
			if v.IsTruthy() {
				out = append(out, item)
			}
		}
		return value.Value{Kind: value.KindArray, Array: out}, nil

	case PartMethod:
		return callMethod(ctx, cur, part.Method, part.Args)

	case PartValue:
		idxVal, err := part.Value.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		switch idxVal.Kind {
		case value.KindNumber:
			return applyPart(ctx, cur, Part{Kind: PartIndex, Index: int(idxVal.Number.Int64)})
		case value.KindString:
			return applyPart(ctx, cur, Part{Kind: PartField, Field: idxVal.String})
		}
		return value.None(), nil

	case PartGraph:
		// Graph traversal needs a key-range scan, which the bare
		// EvalContext surface can't do. Contexts that carry a
		// transaction satisfy GraphResolver; anything else leaves the
		// value untouched (the degenerate case where the base is
		// already the resolved neighbor set).
		r, ok := ctx.(GraphResolver)
		if !ok {
			return cur, nil
		}
		if cur.Kind == value.KindArray {
			out := make([]value.Value, 0, len(cur.Array))
			for _, item := range cur.Array {
				resolved, err := r.ResolveGraph(part.Dir, part.Target, item)
				if err != nil {
					return value.None(), err
				}
				if resolved.Kind == value.KindArray {
					out = append(out, resolved.Array...)
				} else if resolved.Kind != value.KindNone {
					out = append(out, resolved)
				}
			}
			return value.Value{Kind: value.KindArray, Array: out}, nil
		}
		return r.ResolveGraph(part.Dir, part.Target, cur)
	}
	return value.None(), nil
}

// callMethod dispatches Idiom method parts (`.len()`, `.join(sep)`, …).
// Only a minimal subset is implemented; the full builtin
// function catalogue belongs to the external parser/planner layer.
func callMethod(ctx EvalContext, cur value.Value, name string, args []Expr) (value.Value, error) {
	switch name {
	case "len":
		switch cur.Kind {
		case value.KindArray:
			return value.Int64(int64(len(cur.Array))), nil
		case value.KindSet:
			return value.Int64(int64(len(cur.Set))), nil
		case value.KindString:
			return value.Int64(int64(len(cur.String))), nil
		case value.KindObject:
			return value.Int64(int64(cur.Object.Len())), nil
		}
		return value.Int64(0), nil
	case "is_none", "is_empty":
		return value.Bool(cur.Kind == value.KindNone), nil
	default:
		return value.None(), errs.NotImplemented("idiom method: " + name)
	}
}

func (i *Idiom) ReferencesCurrentValue() bool {
	if i.Base.ReferencesCurrentValue() {
		return true
	}
	for _, p := range i.Parts {
		if p.Where != nil && p.Where.ReferencesCurrentValue() {
			return true
		}
	}
	return false
}

func (i *Idiom) AccessMode() AccessMode {
	modes := []AccessMode{i.Base.AccessMode()}
	for _, p := range i.Parts {
		if p.Where != nil {
			modes = append(modes, p.Where.AccessMode())
		}
		for _, a := range p.Args {
			modes = append(modes, a.AccessMode())
		}
	}
	return Combine(modes...)
}

func (i *Idiom) RequiredContext() ContextLevel {
	level := i.Base.RequiredContext()
	for _, p := range i.Parts {
		if p.Where != nil && p.Where.RequiredContext() > level {
			level = p.Where.RequiredContext()
		}
	}
	return level
}

func (i *Idiom) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return i.Base_.EvaluateBatch(ctx, rows)
}
