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

package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func objOf(pairs ...any) Value {
	o := NewObject()
	for i := 0; i < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return Obj(o)
}

func TestApplyPatchRoundTripsDiff(t *testing.T) {
	before := objOf("name", Str("ferris"), "age", Int64(7), "gone", Bool(true))
	after := objOf("name", Str("ferris the crab"), "age", Int64(8), "fresh", Null())

	ops := before.Diff(after)
	require.NotEmpty(t, ops)

	patched, err := before.ApplyPatch(ops)
	require.NoError(t, err)
	require.True(t, Equal(after, patched))
}

func TestApplyPatchRoundTripsNestedArrays(t *testing.T) {
	before := objOf("tags", Arr(Str("a"), Str("b"), Str("c")))
	after := objOf("tags", Arr(Str("a"), Str("x")))

	patched, err := before.ApplyPatch(before.Diff(after))
	require.NoError(t, err)
	require.True(t, Equal(after, patched))
}

func TestApplyPatchChangeAppliesTextDelta(t *testing.T) {
	before := objOf("bio", Str("writes rust"))
	after := objOf("bio", Str("writes go"))

	ops := before.Diff(after)
	require.Len(t, ops, 1)
	require.Equal(t, OpChange, ops[0].Kind)

	patched, err := before.ApplyPatch(ops)
	require.NoError(t, err)
	require.True(t, Equal(after, patched))
}

func TestApplyPatchRejectsMissingPath(t *testing.T) {
	doc := objOf("a", Int64(1))
	_, err := doc.ApplyPatch([]Operation{{Kind: OpReplace, Path: []string{"missing", "deep"}, Value: Int64(2)}})
	require.Error(t, err)
}

func TestApplyPatchDoesNotMutateReceiver(t *testing.T) {
	doc := objOf("a", Int64(1))
	_, err := doc.ApplyPatch([]Operation{{Kind: OpReplace, Path: []string{"a"}, Value: Int64(2)}})
	require.NoError(t, err)
	got, _ := doc.Object.Get("a")
	require.Equal(t, int64(1), got.Number.Int64)
}

func TestMergeOverwritesAndRecurses(t *testing.T) {
	base := objOf("name", Str("ferris"), "meta", objOf("a", Int64(1), "b", Int64(2)))
	delta := objOf("meta", objOf("b", Int64(3)), "extra", Bool(true))

	merged := base.Merge(delta)
	meta, _ := merged.Object.Get("meta")
	a, _ := meta.Object.Get("a")
	b, _ := meta.Object.Get("b")
	require.Equal(t, int64(1), a.Number.Int64)
	require.Equal(t, int64(3), b.Number.Int64)
	_, hasExtra := merged.Object.Get("extra")
	require.True(t, hasExtra)
}

func TestMergeNoneRemovesField(t *testing.T) {
	base := objOf("keep", Int64(1), "drop", Int64(2))
	merged := base.Merge(objOf("drop", None()))
	_, ok := merged.Object.Get("drop")
	require.False(t, ok)
	_, ok = merged.Object.Get("keep")
	require.True(t, ok)
}

func TestMergeNonObjectResolvesInDeltasFavor(t *testing.T) {
	require.True(t, Equal(Str("x"), Int64(1).Merge(Str("x"))))
}
