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

package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := NotFound(TbNotFound, "person")

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, TbNotFound, kind)
	assert.True(t, Is(err, TbNotFound))
	assert.False(t, Is(err, NsNotFound))
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("flush failed: %w", Wrap(TxConflict, cause))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, TxConflict, kind)
	assert.ErrorIs(t, err, cause)
}

func TestKindOfNonTaxonomyError(t *testing.T) {
	_, ok := KindOf(errors.New("plain error"))
	assert.False(t, ok)
}

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := Denied("update", "person")
	b := Denied("select", "account")

	assert.True(t, errors.Is(a, b), "PermissionDenied errors should match regardless of op/table")
	assert.False(t, errors.Is(a, New(NsNotAllowed)))
}

func TestErrorMessageIncludesContext(t *testing.T) {
	err := Denied("update", "person")
	msg := err.Error()

	assert.Contains(t, msg, "PermissionDenied")
	assert.Contains(t, msg, "person")
	assert.Contains(t, msg, "update")
}

func TestNotImplemented(t *testing.T) {
	err := NotImplemented("embedding providers")
	assert.True(t, Is(err, FeatureNotYetImplemented))
	assert.Contains(t, err.Error(), "embedding providers")
}

func TestControlFlowSignals(t *testing.T) {
	_, isCF := AsControlFlow(Break())
	assert.True(t, isCF)

	ret := Return(42)
	cf, ok := AsControlFlow(ret)
	require.True(t, ok)
	assert.Equal(t, SignalReturn, cf.Signal)
	assert.Equal(t, 42, cf.Value)

	_, ok = AsControlFlow(errors.New("not control flow"))
	assert.False(t, ok)
}
