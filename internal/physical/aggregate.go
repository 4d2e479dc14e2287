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
	"math"

	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
)

// AggFunc names one GROUP BY aggregate function.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggMean
	AggStddev
	AggMin
	AggMax
	AggArray
)

// Aggregation is one output column of a GroupAggregate: Func applied
// to Arg (Arg is nil for COUNT()).
type Aggregation struct {
	Name string
	Func AggFunc
	Arg  expr.Expr
}

// GroupAggregate groups Child's output by GroupBy and computes each
// Aggregation per group, two-phase (accumulate, then finalize) so
// streaming aggregates like mean/stddev never need a second pass over
// the raw rows.
type GroupAggregate struct {
	Child     Operator
	GroupBy   []expr.Expr
	GroupName []string // field name for each GroupBy expr in the output row
	Aggs      []Aggregation
	BatchSize int
}

func (g *GroupAggregate) Name() string { return "GroupAggregate" }
func (g *GroupAggregate) RequiredContext() expr.ContextLevel {
	level := g.Child.RequiredContext()
	for _, e := range g.GroupBy {
		if l := e.RequiredContext(); l > level {
			level = l
		}
	}
	return level
}
func (g *GroupAggregate) AccessMode() expr.AccessMode      { return g.Child.AccessMode() }
func (g *GroupAggregate) OutputOrdering() OutputOrdering   { return UnorderedOutput() }
func (g *GroupAggregate) CardinalityHint() CardinalityHint { return CardinalityFew }

type accState struct {
	groupRow *value.Object
	count    int64
	sums     map[string]float64
	sumsSq   map[string]float64
	mins     map[string]*value.Value
	maxs     map[string]*value.Value
	arrays   map[string][]value.Value
}

func (g *GroupAggregate) Execute(ctx *exec.Context) (Stream, error) {
	rows, err := Collect(ctx, g.Child)
	if err != nil {
		return nil, err
	}
	groups := map[string]*accState{}
	order := make([]string, 0)

	for _, row := range rows {
		keyParts := make([]value.Value, len(g.GroupBy))
		for i, e := range g.GroupBy {
			v, err := e.Evaluate(ctx.BindThis(row))
			if err != nil {
				return nil, err
			}
			keyParts[i] = v
		}
		gk := groupKey(keyParts)
		st, ok := groups[gk]
		if !ok {
			st = &accState{
				groupRow: value.NewObject(),
				sums:     map[string]float64{}, sumsSq: map[string]float64{},
				mins: map[string]*value.Value{}, maxs: map[string]*value.Value{},
				arrays: map[string][]value.Value{},
			}
			for i, name := range g.GroupName {
				st.groupRow.Set(name, keyParts[i])
			}
			groups[gk] = st
			order = append(order, gk)
		}
		st.count++
		for _, agg := range g.Aggs {
			if agg.Func == AggCount {
				continue
			}
			v, err := agg.Arg.Evaluate(ctx.BindThis(row))
			if err != nil {
				return nil, err
			}
			switch agg.Func {
			case AggSum, AggMean, AggStddev:
				f := numAsFloat(v)
				st.sums[agg.Name] += f
				st.sumsSq[agg.Name] += f * f
			case AggMin:
				if cur := st.mins[agg.Name]; cur == nil || value.Compare(v, *cur) < 0 {
					vv := v
					st.mins[agg.Name] = &vv
				}
			case AggMax:
				if cur := st.maxs[agg.Name]; cur == nil || value.Compare(v, *cur) > 0 {
					vv := v
					st.maxs[agg.Name] = &vv
				}
			case AggArray:
				st.arrays[agg.Name] = append(st.arrays[agg.Name], v)
			}
		}
	}

	out := make([]value.Value, 0, len(order))
	for _, gk := range order {
		st := groups[gk]
		obj := st.groupRow.Clone()
		for _, agg := range g.Aggs {
			switch agg.Func {
			case AggCount:
				obj.Set(agg.Name, value.Int64(st.count))
			case AggSum:
				obj.Set(agg.Name, value.Float64(st.sums[agg.Name]))
			case AggMean:
				if st.count > 0 {
					obj.Set(agg.Name, value.Float64(st.sums[agg.Name]/float64(st.count)))
				} else {
					obj.Set(agg.Name, value.Float64(0))
				}
			case AggStddev:
				obj.Set(agg.Name, value.Float64(stddev(st.sums[agg.Name], st.sumsSq[agg.Name], st.count)))
			case AggMin:
				if v := st.mins[agg.Name]; v != nil {
					obj.Set(agg.Name, *v)
				} else {
					obj.Set(agg.Name, value.None())
				}
			case AggMax:
				if v := st.maxs[agg.Name]; v != nil {
					obj.Set(agg.Name, *v)
				} else {
					obj.Set(agg.Name, value.None())
				}
			case AggArray:
				obj.Set(agg.Name, value.Value{Kind: value.KindArray, Array: st.arrays[agg.Name]})
			}
		}
		out = append(out, value.Obj(obj))
	}
	return NewSliceStream(out, g.BatchSize), nil
}

func stddev(sum, sumSq float64, n int64) float64 {
	if n < 2 {
		return 0
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func numAsFloat(v value.Value) float64 {
	if v.Kind != value.KindNumber {
		return 0
	}
	switch v.Number.Kind {
	case value.NumberInt64:
		return float64(v.Number.Int64)
	case value.NumberFloat64:
		return v.Number.Float64
	default:
		f, _ := v.Number.Decimal.Float64()
		return f
	}
}

// groupKey builds a comparable map key from a group's key values.
// Structural equality (not byte identity) is what GROUP BY needs, so
// this renders each part through its own kind-tagged representation
// rather than relying on Go struct equality over Value (which holds
// slices/pointers that aren't comparable).
func groupKey(parts []value.Value) string {
	var b []byte
	for _, p := range parts {
		b = append(b, renderKey(p)...)
		b = append(b, 0)
	}
	return string(b)
}

func renderKey(v value.Value) []byte {
	switch v.Kind {
	case value.KindString:
		return []byte("s:" + v.String)
	case value.KindNumber:
		return []byte("n:" + numberKeyString(v.Number))
	case value.KindBool:
		if v.Bool {
			return []byte("b:1")
		}
		return []byte("b:0")
	case value.KindUuid:
		return append([]byte("u:"), v.Uuid[:]...)
	default:
		return []byte("?")
	}
}

func numberKeyString(n value.Number) string {
	switch n.Kind {
	case value.NumberInt64:
		return "i" + itoa(n.Int64)
	default:
		return "f" + itoa(int64(n.Float64*1e6))
	}
}

func itoa(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
