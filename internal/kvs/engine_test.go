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

package kvs

import (
	"context"
	"testing"

	"github.com/nexusdb/core/internal/batch"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/mvcc"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(mvcc.NewMemoryStore(), batch.DefaultConfig(), Never, 0)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestPutThenGet(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tx, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, []byte("k1"), []byte("v1")))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := e.Begin(ctx, Read, Optimistic)
	require.NoError(t, err)
	val, found, err := tx2.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v1"), val)
}

func TestPutIfAbsentRejectsDuplicate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tx, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, []byte("k1"), []byte("v1")))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	err = tx2.Put(ctx, []byte("k1"), []byte("v2"))
	require.True(t, errs.Is(err, errs.TxKeyAlreadyExists))
}

func TestFinishedTransactionRejectsOps(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tx, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	_, _, err = tx.Get(ctx, []byte("k1"))
	require.True(t, errs.Is(err, errs.TxFinished))
}

func TestReadonlyTransactionRejectsWrite(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tx, err := e.Begin(ctx, Read, Optimistic)
	require.NoError(t, err)
	err = tx.Set(ctx, []byte("k1"), []byte("v1"))
	require.True(t, errs.Is(err, errs.TxReadonly))
}

func TestDelpPrefixRemovesRange(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tx, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, []byte("/tb*1"), []byte("a")))
	require.NoError(t, tx.Put(ctx, []byte("/tb*2"), []byte("b")))
	require.NoError(t, tx.Commit(ctx))

	tx2, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, tx2.Delp(ctx, []byte("/tb*")))
	require.NoError(t, tx2.Commit(ctx))

	tx3, err := e.Begin(ctx, Read, Optimistic)
	require.NoError(t, err)
	kvs, err := tx3.Scan(ctx, []byte("/tb*"), prefixEnd([]byte("/tb*")), 0, Forward)
	require.NoError(t, err)
	require.Empty(t, kvs)
}

func TestOptimisticConflictDetected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	seed, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, seed.Set(ctx, []byte("k1"), []byte("v0")))
	require.NoError(t, seed.Commit(ctx))

	txA, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	_, _, err = txA.Get(ctx, []byte("k1"))
	require.NoError(t, err)

	txB, err := e.Begin(ctx, Write, Optimistic)
	require.NoError(t, err)
	require.NoError(t, txB.Set(ctx, []byte("k1"), []byte("v1")))
	require.NoError(t, txB.Commit(ctx))

	require.NoError(t, txA.Set(ctx, []byte("k1"), []byte("v2")))
	err = txA.Commit(ctx)
	require.True(t, errs.Is(err, errs.TxConflict))
}
