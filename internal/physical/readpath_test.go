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
	"testing"

	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/permission"
	"github.com/nexusdb/core/internal/value"
	"github.com/stretchr/testify/require"
)

func createPerson(t *testing.T, ctx *exec.Context, key string, age int64) {
	t.Helper()
	obj := value.NewObject()
	obj.Set("age", value.Int64(age))
	op := &Create{
		NS: "n", DB: "d", Table: "person",
		Key:        &expr.Literal{Value: value.Str(key)},
		Content:    &expr.Literal{Value: value.Obj(obj)},
		Permission: permission.Physical{Kind: permission.Allow},
	}
	_, err := Collect(ctx, op)
	require.NoError(t, err)
}

func ageIdiom() expr.Expr {
	return expr.NewIdiom(expr.NewParam("this"), expr.Part{Kind: expr.PartField, Field: "age"})
}

func TestScanEmitsRecordsInKeyOrder(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	createPerson(t, ctx, "carol", 35)
	createPerson(t, ctx, "alice", 30)
	createPerson(t, ctx, "bob", 25)

	scan := &Scan{NS: "n", DB: "d", Table: "person", Select: permission.Physical{Kind: permission.Allow}}
	rows, err := Collect(ctx, scan)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var names []string
	for _, row := range rows {
		id, ok := idField(row)
		require.True(t, ok)
		names = append(names, id.Key.String)
	}
	require.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestScanReverseEmitsDescendingKeyOrder(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	createPerson(t, ctx, "a", 1)
	createPerson(t, ctx, "b", 2)

	scan := &Scan{NS: "n", DB: "d", Table: "person",
		Select: permission.Physical{Kind: permission.Allow}, Direction: kvs.Reverse}
	rows, err := Collect(ctx, scan)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	id, _ := idField(rows[0])
	require.Equal(t, "b", id.Key.String)
}

func TestScanDeniedPermissionFiltersSilently(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	root := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)
	createPerson(t, root, "alice", 30)

	user := exec.NewRoot(exec.Auth{IsRoot: false}, tx, nil)
	scan := &Scan{NS: "n", DB: "d", Table: "person", Select: permission.Physical{Kind: permission.Deny}}
	rows, err := Collect(user, scan)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestFilterKeepsTruthyRows(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	createPerson(t, ctx, "alice", 30)
	createPerson(t, ctx, "bob", 25)

	scan := &Scan{NS: "n", DB: "d", Table: "person", Select: permission.Physical{Kind: permission.Allow}}
	filter := &Filter{
		Child:     scan,
		Predicate: expr.NewBinary(ageIdiom(), expr.OpGreater, expr.NewLiteral(value.Int64(28))),
	}
	rows, err := Collect(ctx, filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSortOrdersByKeyDescendingWithTopK(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	rowsIn := []value.Value{
		recordWithAge("a", 30), recordWithAge("b", 25), recordWithAge("c", 35),
	}
	sortOp := &Sort{
		Child: &fixedRows{rows: rowsIn},
		Keys:  []SortProperty{{Field: "age", Path: ageIdiom(), Direction: Descending}},
		TopK:  2,
	}
	rows, err := Collect(ctx, sortOp)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	first, _ := rows[0].Object.Get("age")
	second, _ := rows[1].Object.Get("age")
	require.Equal(t, int64(35), first.Number.Int64)
	require.Equal(t, int64(30), second.Number.Int64)
}

func TestSortElidesWhenInputAlreadyOrdered(t *testing.T) {
	scan := &Scan{NS: "n", DB: "d", Table: "person"}
	sorted := SortedOutput(SortProperty{Field: "id", Direction: Ascending})
	require.True(t, scan.OutputOrdering().Satisfies(sorted))

	// A different key, direction, or an unlabeled property does not
	// count as satisfied.
	require.False(t, scan.OutputOrdering().Satisfies(SortedOutput(SortProperty{Field: "id", Direction: Descending})))
	require.False(t, scan.OutputOrdering().Satisfies(SortedOutput(SortProperty{Field: "age", Direction: Ascending})))
	require.False(t, scan.OutputOrdering().Satisfies(SortedOutput(SortProperty{Direction: Ascending})))
}

func TestSortAfterSortIsIdempotent(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	rowsIn := []value.Value{recordWithAge("a", 3), recordWithAge("b", 1), recordWithAge("c", 2)}
	keys := []SortProperty{{Field: "age", Path: ageIdiom(), Direction: Ascending}}
	once := &Sort{Child: &fixedRows{rows: rowsIn}, Keys: keys}
	twice := &Sort{Child: once, Keys: keys}

	a, err := Collect(ctx, once)
	require.NoError(t, err)
	b, err := Collect(ctx, twice)
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.True(t, value.Equal(a[i], b[i]))
	}
}

func TestLimitStartSkipsAndBounds(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	rowsIn := []value.Value{
		recordWithAge("a", 1), recordWithAge("b", 2), recordWithAge("c", 3), recordWithAge("d", 4),
	}
	op := &LimitStart{Child: &fixedRows{rows: rowsIn}, Start: 1, Limit: 2}
	rows, err := Collect(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	age, _ := rows[0].Object.Get("age")
	require.Equal(t, int64(2), age.Number.Int64)
}

func TestOnlyCollapsesCardinality(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	// One row passes through as the single value.
	one := &Only{Child: &fixedRows{rows: []value.Value{recordWithAge("a", 1)}}}
	rows, err := Collect(ctx, one)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Two rows is an error.
	two := &Only{Child: &fixedRows{rows: []value.Value{recordWithAge("a", 1), recordWithAge("b", 2)}}}
	_, err = Collect(ctx, two)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.SingleOnlyOutput))

	// Zero rows yields None unless the statement demanded a row.
	none := &Only{Child: &fixedRows{rows: nil}}
	rows, err = Collect(ctx, none)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, value.KindNone, rows[0].Kind)

	required := &Only{Child: &fixedRows{rows: nil}, Required: true}
	_, err = Collect(ctx, required)
	require.Error(t, err)
}

func TestGroupAggregateCountsPerGroup(t *testing.T) {
	tx, done := newTestTx(t)
	defer done()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, tx, nil)

	team := func(name string, age int64) value.Value {
		o := value.NewObject()
		o.Set("team", value.Str(name))
		o.Set("age", value.Int64(age))
		return value.Obj(o)
	}
	rowsIn := []value.Value{team("red", 10), team("red", 20), team("blue", 30)}

	teamIdiom := expr.NewIdiom(expr.NewParam("this"), expr.Part{Kind: expr.PartField, Field: "team"})
	op := &GroupAggregate{
		Child:     &fixedRows{rows: rowsIn},
		GroupBy:   []expr.Expr{teamIdiom},
		GroupName: []string{"team"},
		Aggs: []Aggregation{
			{Name: "n", Func: AggCount},
			{Name: "total", Func: AggSum, Arg: ageIdiom()},
		},
	}
	rows, err := Collect(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byTeam := map[string]value.Value{}
	for _, row := range rows {
		name, _ := row.Object.Get("team")
		byTeam[name.String] = row
	}
	redN, _ := byTeam["red"].Object.Get("n")
	require.Equal(t, int64(2), redN.Number.Int64)
	redTotal, _ := byTeam["red"].Object.Get("total")
	require.Equal(t, float64(30), redTotal.Number.AsFloat64())
}

func recordWithAge(key string, age int64) value.Value {
	obj := value.NewObject()
	obj.Set("age", value.Int64(age))
	obj.Set("id", value.Value{Kind: value.KindRecordID, RecordID: value.RecordID{
		Table: "person",
		Key:   value.RecordIDKey{Kind: value.RecordIDKeyString, String: key},
	}})
	return value.Obj(obj)
}
