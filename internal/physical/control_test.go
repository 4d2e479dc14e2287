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
	"time"

	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
	"github.com/stretchr/testify/require"
)

func TestLetBindsParamAndYieldsNoRows(t *testing.T) {
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
	op := &Let{Param: "x", Value: &expr.Literal{Value: value.Str("hello")}}

	st, err := op.Execute(ctx)
	require.NoError(t, err)

	rows, err := st.Next()
	require.NoError(t, err)
	require.Empty(t, rows)

	oc, ok := st.(OutputContext)
	require.True(t, ok)
	out := oc.OutputContext()
	v, ok := out.Param("x")
	require.True(t, ok)
	require.Equal(t, "hello", v.String)
}

func TestUseNarrowsToNamespaceAndDatabase(t *testing.T) {
	cat := catalog.New()
	cat.DefineNamespace("n", "")
	_, err := cat.DefineDatabase("n", "d", "")
	require.NoError(t, err)

	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
	op := &Use{Catalog: cat, NS: "n", DB: "d"}

	st, err := op.Execute(ctx)
	require.NoError(t, err)
	oc, ok := st.(OutputContext)
	require.True(t, ok)
	out := oc.OutputContext()
	require.Equal(t, expr.LevelDatabase, out.Level())
}

func TestUseErrorsOnUnknownNamespace(t *testing.T) {
	cat := catalog.New()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
	op := &Use{Catalog: cat, NS: "missing"}

	_, err := op.Execute(ctx)
	require.Error(t, err)
}

func TestSleepReturnsAfterDuration(t *testing.T) {
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
	op := &Sleep{Duration: time.Millisecond}

	rows, err := Collect(ctx, op)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestSleepCancelledByToken(t *testing.T) {
	token := exec.NewCancellationToken()
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, nil, token)
	op := &Sleep{Duration: time.Hour}

	token.Cancel()
	_, err := op.Execute(ctx)
	require.Error(t, err)
}

type fakeIndexBuilder struct {
	building bool
	ok       bool
}

func (f *fakeIndexBuilder) Status(name string) (bool, bool) { return f.building, f.ok }

func TestInfoIndexReportsBuildingStatus(t *testing.T) {
	base := exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
	ctx := base.WithIndexBuilder(&fakeIndexBuilder{building: true, ok: true})
	op := &InfoIndex{IndexName: "vec_ix"}

	rows, err := Collect(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	building, ok := rows[0].Object.Get("building")
	require.True(t, ok)
	require.True(t, building.Bool)
}

func TestInfoIndexOmitsFieldWithNoBuilder(t *testing.T) {
	ctx := exec.NewRoot(exec.Auth{IsRoot: true}, nil, nil)
	op := &InfoIndex{IndexName: "vec_ix"}

	rows, err := Collect(ctx, op)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, ok := rows[0].Object.Get("building")
	require.False(t, ok)
}
