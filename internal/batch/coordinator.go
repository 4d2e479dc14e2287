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

// Package batch implements the grouped-commit coordinator that sits
// between a transaction's prepared writes and the underlying storage
// engine's single fsync. Its batching and
// load-adaptive sizing logic is carried over from a proposal batcher
// that used to feed a raft log; here it feeds a single durability sync
// instead of a consensus round.
package batch

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/nexusdb/core/pkg/pool"
	"github.com/nexusdb/core/pkg/reliability"
	"go.uber.org/zap"
)

// Request is one transaction's prepared write, waiting to be folded
// into the next durability-synced batch.
type Request struct {
	// Apply performs the transaction's writes against the store. It
	// runs on the coordinator's goroutine, once per request, in
	// submission order, before the batch's single Sync call.
	Apply func() (any, error)

	// Done receives exactly one Result once the batch this request
	// landed in has been applied and synced.
	Done chan Result
}

// Result is delivered to a Request's Done channel.
type Result struct {
	Value any
	Err   error
}

// Config controls the coordinator's batch sizing and timeout.
// Mirrors the batch_size/timeout knobs and pkg/config's
// GroupCommitConfig one field for one field.
type Config struct {
	MinBatchSize  int           // batch size under idle load (default 1)
	MaxBatchSize  int           // batch size under saturation (default 256)
	MinTimeout    time.Duration // flush deadline under idle load (default 5ms)
	MaxTimeout    time.Duration // flush deadline under saturation (default 20ms)
	LoadThreshold float64       // buffer occupancy ratio where "high load" begins (default 0.7)
}

// DefaultConfig returns the stock grouped-commit tuning (batch_size
// up to 256, timeout around 5ms).
func DefaultConfig() Config {
	return Config{
		MinBatchSize:  1,
		MaxBatchSize:  256,
		MinTimeout:    5 * time.Millisecond,
		MaxTimeout:    20 * time.Millisecond,
		LoadThreshold: 0.7,
	}
}

// Sync performs the engine's durability operation for one committed
// batch — an fsync, a RocksDB WAL sync, or a no-op, depending on the
// configured durability mode.
type Sync func() error

// Coordinator accumulates Requests and flushes them as a single unit:
// every buffered request's Apply runs, then Sync runs once, then every
// request in the batch receives its Result. This amortizes one fsync
// over every writer that lands in the same window without changing
// any individual transaction's atomicity.
type Coordinator struct {
	minBatchSize  int
	maxBatchSize  int
	minTimeout    time.Duration
	maxTimeout    time.Duration
	loadThreshold float64

	mu            sync.Mutex
	buffer        []*Request
	currentLoad   float64
	requestCount  int64
	batchCount    int64

	inputC <-chan *Request
	stopC  chan struct{}

	currentBatchSize int
	currentTimeout    time.Duration

	sync    Sync
	logger  *zap.Logger
	bufPool *pool.SlicePool[*Request]
}

// New builds a Coordinator reading requests from inputC and durability
// syncing each batch via sync.
func New(config Config, inputC <-chan *Request, sync Sync, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sync == nil {
		sync = func() error { return nil }
	}

	bufPool := pool.NewSlicePool[*Request](config.MaxBatchSize)
	return &Coordinator{
		minBatchSize:     config.MinBatchSize,
		maxBatchSize:     config.MaxBatchSize,
		minTimeout:       config.MinTimeout,
		maxTimeout:       config.MaxTimeout,
		loadThreshold:    config.LoadThreshold,
		buffer:           bufPool.Get(),
		bufPool:          bufPool,
		currentBatchSize: config.MinBatchSize,
		currentTimeout:   config.MinTimeout,
		inputC:           inputC,
		stopC:            make(chan struct{}),
		sync:             sync,
		logger:           logger,
	}
}

// Start runs the coordinator's loop in a new goroutine.
func (c *Coordinator) Start(ctx context.Context) {
	reliability.SafeGo("commit-coordinator", func() { c.run(ctx) })
}

// Stop signals the coordinator to flush any remainder and exit.
func (c *Coordinator) Stop() {
	close(c.stopC)
}

func (c *Coordinator) run(ctx context.Context) {
	ticker := time.NewTicker(c.currentTimeout)
	defer ticker.Stop()
	defer c.flush()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("commit coordinator stopped due to context cancellation")
			return
		case <-c.stopC:
			c.logger.Info("commit coordinator stopped")
			return

		case req, ok := <-c.inputC:
			if !ok {
				return
			}

			c.mu.Lock()
			c.buffer = append(c.buffer, req)
			bufferLen := len(c.buffer)
			c.mu.Unlock()

			if bufferLen >= c.currentBatchSize {
				c.flush()
				ticker.Reset(c.currentTimeout)
			}

		case <-ticker.C:
			c.flush()
			c.adjustParameters()
			ticker.Reset(c.currentTimeout)
		}
	}
}

// flush applies every buffered request, syncs once, and reports each
// request's individual result. A request whose Apply fails still
// takes part in the batch's Sync (its writes, if any landed in the
// store before failing, must not dangle un-synced) but reports its own
// error rather than the batch's.
func (c *Coordinator) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	reqs := c.buffer
	c.buffer = c.bufPool.Get()
	c.requestCount += int64(len(reqs))
	c.batchCount++
	c.mu.Unlock()

	results := make([]Result, len(reqs))
	for i, req := range reqs {
		v, err := req.Apply()
		results[i] = Result{Value: v, Err: err}
	}

	if err := c.sync(); err != nil {
		c.logger.Error("batch durability sync failed", zap.Error(err), zap.Int("batch_size", len(reqs)))
		for i, res := range results {
			if res.Err == nil {
				results[i].Err = err
			}
		}
	}

	c.logger.Debug("commit batch flushed",
		zap.Int("batch_size", len(reqs)),
		zap.Int64("batch_count", c.batchCount),
		zap.Int("current_batch_size", c.currentBatchSize),
		zap.Duration("current_timeout", c.currentTimeout))

	for i, req := range reqs {
		req.Done <- results[i]
	}
	c.bufPool.Put(reqs)
}

// adjustParameters adapts batch size and timeout to load using an EMA
// over buffer occupancy, with a fast-path when the buffer nears
// capacity so a traffic burst doesn't overflow it before the next
// tick.
func (c *Coordinator) adjustParameters() {
	c.mu.Lock()
	defer c.mu.Unlock()

	bufferUsage := float64(len(c.buffer)) / float64(c.maxBatchSize)

	loadDelta := math.Abs(bufferUsage - c.currentLoad)
	alpha := 0.3
	if loadDelta > 0.3 {
		alpha = 0.7
	} else if loadDelta > 0.15 {
		alpha = 0.5
	}

	c.currentLoad = alpha*bufferUsage + (1-alpha)*c.currentLoad

	effectiveLoad := c.currentLoad
	if bufferUsage > 0.8 {
		effectiveLoad = math.Max(effectiveLoad, c.loadThreshold+0.1)
	}

	if effectiveLoad > c.loadThreshold {
		c.currentBatchSize = interpolate(
			c.currentLoad,
			c.loadThreshold, 1.0,
			float64(c.maxBatchSize)/2, float64(c.maxBatchSize),
		)
		c.currentTimeout = time.Duration(interpolate(
			c.currentLoad,
			c.loadThreshold, 1.0,
			float64(c.maxTimeout)/2, float64(c.maxTimeout),
		))
	} else {
		c.currentBatchSize = interpolate(
			c.currentLoad,
			0.0, c.loadThreshold,
			float64(c.minBatchSize), float64(c.maxBatchSize)/2,
		)
		c.currentTimeout = time.Duration(interpolate(
			c.currentLoad,
			0.0, c.loadThreshold,
			float64(c.minTimeout), float64(c.maxTimeout)/2,
		))
	}
}

// interpolate maps value from [min,max] linearly onto [targetMin,targetMax].
func interpolate(value, min, max, targetMin, targetMax float64) int {
	if value <= min {
		return int(targetMin)
	}
	if value >= max {
		return int(targetMax)
	}
	ratio := (value - min) / (max - min)
	return int(targetMin + ratio*(targetMax-targetMin))
}

// Stats reports the coordinator's current sizing and throughput.
type Stats struct {
	TotalRequests    int64
	TotalBatches     int64
	AvgBatchSize     float64
	CurrentLoad      float64
	CurrentBatchSize int
	CurrentTimeout   time.Duration
	BufferLen        int
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var avg float64
	if c.batchCount > 0 {
		avg = float64(c.requestCount) / float64(c.batchCount)
	}

	return Stats{
		TotalRequests:    c.requestCount,
		TotalBatches:     c.batchCount,
		AvgBatchSize:     avg,
		CurrentLoad:      c.currentLoad,
		CurrentBatchSize: c.currentBatchSize,
		CurrentTimeout:   c.currentTimeout,
		BufferLen:        len(c.buffer),
	}
}
