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
	"strings"

	"github.com/nexusdb/core/internal/value"
)

// BinaryOp enumerates the operators Binary supports.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpContains
	OpInside
)

// Binary is a two-operand expression.
type Binary struct {
	Left, Right Expr
	Op          BinaryOp
	base        Base
}

func NewBinary(left Expr, op BinaryOp, right Expr) *Binary {
	b := &Binary{Left: left, Right: right, Op: op}
	b.base.bind(b)
	return b
}

func (b *Binary) Evaluate(ctx EvalContext) (value.Value, error) {
	// Short-circuit And/Or before evaluating the right side.
	if b.Op == OpAnd {
		l, err := b.Left.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		if !l.IsTruthy() {
			return value.Bool(false), nil
		}
		r, err := b.Right.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		return value.Bool(r.IsTruthy()), nil
	}
	if b.Op == OpOr {
		l, err := b.Left.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		if l.IsTruthy() {
			return value.Bool(true), nil
		}
		r, err := b.Right.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		return value.Bool(r.IsTruthy()), nil
	}

	l, err := b.Left.Evaluate(ctx)
	if err != nil {
		return value.None(), err
	}
	r, err := b.Right.Evaluate(ctx)
	if err != nil {
		return value.None(), err
	}
	return applyBinary(b.Op, l, r), nil
}

func applyBinary(op BinaryOp, l, r value.Value) value.Value {
	switch op {
	case OpEqual:
		return value.Bool(value.Equal(l, r))
	case OpNotEqual:
		return value.Bool(!value.Equal(l, r))
	case OpLess:
		c, ok := compareNumbers(l, r)
		return value.Bool(ok && c < 0)
	case OpLessEqual:
		c, ok := compareNumbers(l, r)
		return value.Bool(ok && c <= 0)
	case OpGreater:
		c, ok := compareNumbers(l, r)
		return value.Bool(ok && c > 0)
	case OpGreaterEqual:
		c, ok := compareNumbers(l, r)
		return value.Bool(ok && c >= 0)
	case OpAdd:
		return addValues(l, r)
	case OpSub:
		return subValues(l, r)
	case OpMul:
		return mulValues(l, r)
	case OpDiv:
		return divValues(l, r)
	case OpContains:
		return value.Bool(containsValue(l, r))
	case OpInside:
		return value.Bool(containsValue(r, l))
	}
	return value.None()
}

func compareNumbers(l, r value.Value) (int, bool) {
	if l.Kind == value.KindNumber && r.Kind == value.KindNumber {
		lf := numAsFloat(l.Number)
		rf := numAsFloat(r.Number)
		switch {
		case lf < rf:
			return -1, true
		case lf > rf:
			return 1, true
		default:
			return 0, true
		}
	}
	if l.Kind == value.KindString && r.Kind == value.KindString {
		return strings.Compare(l.String, r.String), true
	}
	if l.Kind == value.KindDatetime && r.Kind == value.KindDatetime {
		switch {
		case l.Datetime.Before(r.Datetime):
			return -1, true
		case l.Datetime.After(r.Datetime):
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func numAsFloat(n value.Number) float64 {
	switch n.Kind {
	case value.NumberInt64:
		return float64(n.Int64)
	case value.NumberFloat64:
		return n.Float64
	default:
		f, _ := n.Decimal.Float64()
		return f
	}
}

func addValues(l, r value.Value) value.Value {
	if l.Kind == value.KindNumber && r.Kind == value.KindNumber {
		return value.Value{Kind: value.KindNumber, Number: value.Int(l.Number.Int64 + r.Number.Int64)}
	}
	if l.Kind == value.KindString && r.Kind == value.KindString {
		return value.Str(l.String + r.String)
	}
	if l.Kind == value.KindArray && r.Kind == value.KindArray {
		return value.Value{Kind: value.KindArray, Array: append(append([]value.Value(nil), l.Array...), r.Array...)}
	}
	return value.None()
}

func subValues(l, r value.Value) value.Value {
	if l.Kind == value.KindNumber && r.Kind == value.KindNumber {
		return value.Value{Kind: value.KindNumber, Number: value.Int(l.Number.Int64 - r.Number.Int64)}
	}
	return value.None()
}

func mulValues(l, r value.Value) value.Value {
	if l.Kind == value.KindNumber && r.Kind == value.KindNumber {
		return value.Value{Kind: value.KindNumber, Number: value.Int(l.Number.Int64 * r.Number.Int64)}
	}
	return value.None()
}

func divValues(l, r value.Value) value.Value {
	if l.Kind == value.KindNumber && r.Kind == value.KindNumber && r.Number.Int64 != 0 {
		return value.Value{Kind: value.KindNumber, Number: value.Float(numAsFloat(l.Number) / numAsFloat(r.Number))}
	}
	return value.None()
}

func containsValue(container, needle value.Value) bool {
	switch container.Kind {
	case value.KindArray:
		for _, v := range container.Array {
			if value.Equal(v, needle) {
				return true
			}
		}
	case value.KindSet:
		for _, v := range container.Set {
			if value.Equal(v, needle) {
				return true
			}
		}
	case value.KindString:
		return needle.Kind == value.KindString && strings.Contains(container.String, needle.String)
	}
	return false
}

func (b *Binary) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return b.base.EvaluateBatch(ctx, rows)
}

func (b *Binary) ReferencesCurrentValue() bool {
	return b.Left.ReferencesCurrentValue() || b.Right.ReferencesCurrentValue()
}

func (b *Binary) AccessMode() AccessMode {
	return Combine(b.Left.AccessMode(), b.Right.AccessMode())
}

func (b *Binary) RequiredContext() ContextLevel {
	if l, r := b.Left.RequiredContext(), b.Right.RequiredContext(); l > r {
		return l
	} else {
		return r
	}
}

// PrefixOp enumerates prefix (`NOT x`, `-x`) operators.
type PrefixOp int

const (
	PrefixNot PrefixOp = iota
	PrefixNeg
)

type Prefix struct {
	Op   PrefixOp
	Expr Expr
	base Base
}

func NewPrefix(op PrefixOp, e Expr) *Prefix {
	p := &Prefix{Op: op, Expr: e}
	p.base.bind(p)
	return p
}

func (p *Prefix) Evaluate(ctx EvalContext) (value.Value, error) {
	v, err := p.Expr.Evaluate(ctx)
	if err != nil {
		return value.None(), err
	}
	switch p.Op {
	case PrefixNot:
		return value.Bool(!v.IsTruthy()), nil
	case PrefixNeg:
		if v.Kind == value.KindNumber {
			return subValues(value.Int64(0), v), nil
		}
	}
	return value.None(), nil
}

func (p *Prefix) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return p.base.EvaluateBatch(ctx, rows)
}
func (p *Prefix) ReferencesCurrentValue() bool  { return p.Expr.ReferencesCurrentValue() }
func (p *Prefix) AccessMode() AccessMode        { return p.Expr.AccessMode() }
func (p *Prefix) RequiredContext() ContextLevel { return p.Expr.RequiredContext() }

// ArrayLit / ObjectLit / SetLit are composite literal expressions
// whose elements/fields are themselves expressions.
type ArrayLit struct {
	Items []Expr
	base  Base
}

func NewArrayLit(items ...Expr) *ArrayLit {
	a := &ArrayLit{Items: items}
	a.base.bind(a)
	return a
}

func (a *ArrayLit) Evaluate(ctx EvalContext) (value.Value, error) {
	out := make([]value.Value, len(a.Items))
	for i, it := range a.Items {
		v, err := it.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		out[i] = v
	}
	return value.Value{Kind: value.KindArray, Array: out}, nil
}

func (a *ArrayLit) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return a.base.EvaluateBatch(ctx, rows)
}
func (a *ArrayLit) ReferencesCurrentValue() bool {
	for _, it := range a.Items {
		if it.ReferencesCurrentValue() {
			return true
		}
	}
	return false
}
func (a *ArrayLit) AccessMode() AccessMode {
	modes := make([]AccessMode, len(a.Items))
	for i, it := range a.Items {
		modes[i] = it.AccessMode()
	}
	return Combine(modes...)
}
func (a *ArrayLit) RequiredContext() ContextLevel {
	level := LevelRoot
	for _, it := range a.Items {
		if it.RequiredContext() > level {
			level = it.RequiredContext()
		}
	}
	return level
}

type SetLit struct{ ArrayLit }

func NewSetLit(items ...Expr) *SetLit {
	s := &SetLit{ArrayLit{Items: items}}
	s.base.bind(s)
	return s
}

func (s *SetLit) Evaluate(ctx EvalContext) (value.Value, error) {
	out := make([]value.Value, 0, len(s.Items))
	for _, it := range s.Items {
		v, err := it.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		out = value.AddToSet(out, v)
	}
	return value.Value{Kind: value.KindSet, Set: out}, nil
}

// ObjectField is one key/value entry of an ObjectLit.
type ObjectField struct {
	Name  string
	Value Expr
}

type ObjectLit struct {
	Fields []ObjectField
	base   Base
}

func NewObjectLit(fields ...ObjectField) *ObjectLit {
	o := &ObjectLit{Fields: fields}
	o.base.bind(o)
	return o
}

func (o *ObjectLit) Evaluate(ctx EvalContext) (value.Value, error) {
	obj := value.NewObject()
	for _, f := range o.Fields {
		v, err := f.Value.Evaluate(ctx)
		if err != nil {
			return value.None(), err
		}
		if v.Kind != value.KindNone {
			obj.Set(f.Name, v)
		}
	}
	return value.Obj(obj), nil
}

func (o *ObjectLit) EvaluateBatch(ctx EvalContext, rows []value.Value) ([]value.Value, error) {
	return o.base.EvaluateBatch(ctx, rows)
}
func (o *ObjectLit) ReferencesCurrentValue() bool {
	for _, f := range o.Fields {
		if f.Value.ReferencesCurrentValue() {
			return true
		}
	}
	return false
}
func (o *ObjectLit) AccessMode() AccessMode {
	modes := make([]AccessMode, len(o.Fields))
	for i, f := range o.Fields {
		modes[i] = f.Value.AccessMode()
	}
	return Combine(modes...)
}
func (o *ObjectLit) RequiredContext() ContextLevel {
	level := LevelRoot
	for _, f := range o.Fields {
		if f.Value.RequiredContext() > level {
			level = f.Value.RequiredContext()
		}
	}
	return level
}
