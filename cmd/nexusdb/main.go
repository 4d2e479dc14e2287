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

// Command nexusdb starts the storage engine and hands out sessions.
// It has no wire protocol of its own; embedders import
// internal/engine directly, and this
// binary exists to prove out the wiring end to end and to give
// operators a process to point config and data-dir flags at.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nexusdb/core/internal/batch"
	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/engine"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/livequery"
	"github.com/nexusdb/core/internal/mvcc"
	"github.com/nexusdb/core/pkg/config"
	"github.com/nexusdb/core/pkg/log"
	"github.com/nexusdb/core/pkg/metrics"
	"github.com/nexusdb/core/pkg/reliability"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file (defaults built in if unset)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nexusdb: %v\n", err)
		os.Exit(1)
	}

	if err := log.InitFromConfig(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "nexusdb: init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open storage backend %q: %v", cfg.Engine.Backend, err)
	}

	durability, err := parseDurability(cfg.Engine.Durability)
	if err != nil {
		log.Fatalf("%v", err)
	}

	batchCfg := batch.Config{
		MinBatchSize:  cfg.Engine.GroupCommit.MinBatchSize,
		MaxBatchSize:  cfg.Engine.GroupCommit.MaxBatchSize,
		MinTimeout:    cfg.Engine.GroupCommit.MinTimeout,
		MaxTimeout:    cfg.Engine.GroupCommit.MaxTimeout,
		LoadThreshold: cfg.Engine.GroupCommit.LoadThreshold,
	}
	eng := kvs.NewEngine(store, batchCfg, durability, cfg.Engine.FlushInterval)

	cat := catalog.New()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	liveRegistry := livequery.NewRegistry()
	vs := &livequery.VersionstampSource{}

	root := engine.NewSession(exec.Auth{IsRoot: true}, cat, eng, m, liveRegistry, vs, &logBroker{})
	log.Info("nexusdb ready")
	_ = root

	shutdown := reliability.NewGracefulShutdown(10 * time.Second)
	shutdown.RegisterHook(reliability.PhaseCloseResources, func(ctx context.Context) error {
		err := eng.Close()
		closeStore()
		return err
	})
	shutdown.Wait()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func parseDurability(name string) (kvs.Durability, error) {
	switch name {
	case "always":
		return kvs.Always, nil
	case "interval":
		return kvs.Interval, nil
	case "never":
		return kvs.Never, nil
	default:
		return 0, fmt.Errorf("unknown durability mode %q", name)
	}
}

// openStore picks the mvcc.Store backend named by cfg.Engine.Backend,
// returning a cleanup func the caller runs after eng.Close (RocksDB's
// underlying handle outlives the mvcc.Store wrapper and needs its own
// Close).
func openStore(cfg *config.Config) (mvcc.Store, func(), error) {
	switch cfg.Engine.Backend {
	case "memory":
		return mvcc.NewMemoryStore(), func() {}, nil
	case "rocksdb":
		return openRocksDB(cfg)
	default:
		return nil, nil, fmt.Errorf("backend must be 'memory' or 'rocksdb', got %q", cfg.Engine.Backend)
	}
}

// logBroker delivers live-query notifications to the log, standing in
// for whatever transport an embedder wires in.
type logBroker struct{}

func (logBroker) Send(n livequery.Notification) {
	log.Info("live notification",
		zap.String("live_id", n.LiveID.String()),
		zap.String("action", string(n.Action)),
	)
}
