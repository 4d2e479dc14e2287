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

package codec

import (
	"testing"

	"github.com/nexusdb/core/internal/value"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	data, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, Revision, data[0])
	out, err := Unmarshal(data)
	require.NoError(t, err)
	return out
}

func TestRoundTripScalars(t *testing.T) {
	require.True(t, value.Equal(value.Int64(42), roundTrip(t, value.Int64(42))))
	require.True(t, value.Equal(value.Str("hi"), roundTrip(t, value.Str("hi"))))
	require.True(t, value.Equal(value.Bool(true), roundTrip(t, value.Bool(true))))
	require.True(t, value.Equal(value.None(), roundTrip(t, value.None())))
}

func TestRoundTripObjectPreservesKeyOrder(t *testing.T) {
	obj := value.NewObject()
	obj.Set("z", value.Int64(1))
	obj.Set("a", value.Int64(2))
	out := roundTrip(t, value.Obj(obj))
	require.Equal(t, []string{"z", "a"}, out.Object.Keys())
}

func TestRoundTripArray(t *testing.T) {
	v := value.Arr(value.Int64(1), value.Str("x"), value.Bool(false))
	out := roundTrip(t, v)
	require.True(t, value.Equal(v, out))
}

func TestUnsupportedRevisionRejected(t *testing.T) {
	data, err := Marshal(value.Int64(1))
	require.NoError(t, err)
	data[0] = 0xff
	_, err = Unmarshal(data)
	require.Error(t, err)
}
