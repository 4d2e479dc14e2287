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

package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.MinBatchSize)
	assert.Equal(t, 256, cfg.MaxBatchSize)
	assert.Equal(t, 5*time.Millisecond, cfg.MinTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.MaxTimeout)
	assert.Equal(t, 0.7, cfg.LoadThreshold)
}

func TestCoordinatorSingleRequest(t *testing.T) {
	inputC := make(chan *Request, 10)
	cfg := DefaultConfig()
	cfg.MinTimeout = 30 * time.Millisecond

	var synced atomic.Int64
	coord := New(cfg, inputC, func() error {
		synced.Add(1)
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	coord.Start(ctx)
	defer coord.Stop()

	done := make(chan Result, 1)
	inputC <- &Request{
		Apply: func() (any, error) { return "applied", nil },
		Done:  done,
	}

	select {
	case res := <-done:
		require.NoError(t, res.Err)
		assert.Equal(t, "applied", res.Value)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for commit result")
	}

	assert.Equal(t, int64(1), synced.Load())
}

func TestCoordinatorBatchesBySize(t *testing.T) {
	inputC := make(chan *Request, 10)
	cfg := DefaultConfig()
	cfg.MinBatchSize = 3
	cfg.MinTimeout = 1 * time.Second // force size-triggered flush

	var syncCount atomic.Int64
	coord := New(cfg, inputC, func() error {
		syncCount.Add(1)
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	coord.Start(ctx)
	defer coord.Stop()

	dones := make([]chan Result, 3)
	var applied atomic.Int64
	for i := range dones {
		dones[i] = make(chan Result, 1)
		inputC <- &Request{
			Apply: func() (any, error) {
				applied.Add(1)
				return nil, nil
			},
			Done: dones[i],
		}
	}

	for _, d := range dones {
		select {
		case res := <-d:
			require.NoError(t, res.Err)
		case <-time.After(1 * time.Second):
			t.Fatal("timed out waiting for batched commit result")
		}
	}

	assert.Equal(t, int64(3), applied.Load())
	assert.Equal(t, int64(1), syncCount.Load(), "three requests should share one sync call")
}

func TestCoordinatorSyncErrorPropagatesToEveryWaiter(t *testing.T) {
	inputC := make(chan *Request, 10)
	cfg := DefaultConfig()
	cfg.MinBatchSize = 2
	cfg.MinTimeout = 1 * time.Second

	syncErr := assert.AnError
	coord := New(cfg, inputC, func() error { return syncErr }, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	coord.Start(ctx)
	defer coord.Stop()

	d1, d2 := make(chan Result, 1), make(chan Result, 1)
	inputC <- &Request{Apply: func() (any, error) { return nil, nil }, Done: d1}
	inputC <- &Request{Apply: func() (any, error) { return nil, nil }, Done: d2}

	for _, d := range []chan Result{d1, d2} {
		select {
		case res := <-d:
			assert.ErrorIs(t, res.Err, syncErr)
		case <-time.After(1 * time.Second):
			t.Fatal("timed out waiting for commit result")
		}
	}
}

func TestCoordinatorTimeoutFlush(t *testing.T) {
	inputC := make(chan *Request, 10)
	cfg := DefaultConfig()
	cfg.MinBatchSize = 10
	cfg.MinTimeout = 50 * time.Millisecond

	coord := New(cfg, inputC, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	coord.Start(ctx)
	defer coord.Stop()

	done := make(chan Result, 1)
	inputC <- &Request{Apply: func() (any, error) { return "ok", nil }, Done: done}

	select {
	case res := <-done:
		require.NoError(t, res.Err)
		assert.Equal(t, "ok", res.Value)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout-triggered flush did not fire")
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name                           string
		value, min, max, tMin, tMax    float64
		expected                       int
	}{
		{"min value", 0.0, 0.0, 1.0, 1.0, 256.0, 1},
		{"max value", 1.0, 0.0, 1.0, 1.0, 256.0, 256},
		{"mid value", 0.5, 0.0, 1.0, 1.0, 256.0, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interpolate(tt.value, tt.min, tt.max, tt.tMin, tt.tMax)
			assert.InDelta(t, tt.expected, got, 2)
		})
	}
}
