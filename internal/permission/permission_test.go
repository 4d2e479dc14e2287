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

package permission

import (
	"testing"

	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
	"github.com/stretchr/testify/require"
)

type stubCtx struct{ this value.Value }

func (s stubCtx) Param(string) (value.Value, bool)          { return value.None(), false }
func (s stubCtx) This() (value.Value, bool)                 { return s.this, true }
func (s stubCtx) Parent() (value.Value, bool)                { return value.None(), false }
func (s stubCtx) Before() (value.Value, bool)                { return value.None(), false }
func (s stubCtx) After() (value.Value, bool)                 { return value.None(), false }
func (s stubCtx) WithThis(v value.Value) expr.EvalContext    { return stubCtx{this: v} }
func (s stubCtx) WithParam(string, value.Value) expr.EvalContext { return s }
func (s stubCtx) Cancelled() bool                            { return false }
func (s stubCtx) Level() expr.ContextLevel                    { return expr.LevelDatabase }

func withThis(v value.Value) expr.EvalContext { return stubCtx{this: v} }

func TestCompileFullAllowsEverything(t *testing.T) {
	phys := Compile(catalog.FullP())
	ok, err := Check(phys, false, value.None(), withThis)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompileNoneDeniesEverything(t *testing.T) {
	phys := Compile(catalog.NoneP())
	ok, err := Check(phys, false, value.None(), withThis)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRootBypassesDeny(t *testing.T) {
	phys := Compile(catalog.NoneP())
	ok, err := Check(phys, true, value.None(), withThis)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConditionalEvaluatesOwnerPredicate(t *testing.T) {
	ownerIdiom := expr.NewIdiom(expr.NewParam("this"), expr.Part{Kind: expr.PartField, Field: "owner"})
	pred := expr.NewBinary(ownerIdiom, expr.OpEqual, expr.NewLiteral(value.Str("bob")))
	phys := Compile(catalog.SpecificP(pred))

	row := value.NewObject()
	row.Set("owner", value.Str("bob"))
	ok, err := Check(phys, false, value.Obj(row), withThis)
	require.NoError(t, err)
	require.True(t, ok)

	row2 := value.NewObject()
	row2.Set("owner", value.Str("alice"))
	ok2, err := Check(phys, false, value.Obj(row2), withThis)
	require.NoError(t, err)
	require.False(t, ok2)
}

func TestEnforceRaisesPermissionDeniedOnWrite(t *testing.T) {
	phys := Compile(catalog.NoneP())
	err := Enforce(phys, false, value.None(), OpCreate, "post", withThis)
	require.True(t, errs.Is(err, errs.PermissionDenied))
}
