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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the unified configuration for a nexusdb process.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig controls the storage engine and executor.
type EngineConfig struct {
	// DataDir is where the rocksdb backend persists data. Ignored by the
	// in-memory backend.
	DataDir string `yaml:"data_dir"`

	// Backend selects the kvs.Store implementation: "memory" or "rocksdb".
	Backend string `yaml:"backend"`

	// Durability selects the fsync policy: "always", "interval" or "never".
	Durability string `yaml:"durability"`

	// FlushInterval is the background flush period when Durability is
	// "interval".
	FlushInterval time.Duration `yaml:"flush_interval"`

	GroupCommit GroupCommitConfig `yaml:"group_commit"`
	FullText    FullTextConfig    `yaml:"fulltext"`
	HNSW        HNSWConfig        `yaml:"hnsw"`
}

// GroupCommitConfig controls the grouped-commit coordinator.
type GroupCommitConfig struct {
	MinBatchSize  int           `yaml:"min_batch_size"`
	MaxBatchSize  int           `yaml:"max_batch_size"`
	MinTimeout    time.Duration `yaml:"min_timeout"`
	MaxTimeout    time.Duration `yaml:"max_timeout"`
	LoadThreshold float64       `yaml:"load_threshold"`
}

// FullTextConfig holds default full-text analyzer parameters.
type FullTextConfig struct {
	DefaultAnalyzer string `yaml:"default_analyzer"`
	Highlighting    bool   `yaml:"highlighting"`
}

// HNSWConfig holds default HNSW vector index parameters.
type HNSWConfig struct {
	MMax            int     `yaml:"m_max"`
	MMaxZero        int     `yaml:"m_max_zero"`
	EfConstruction  int     `yaml:"ef_construction"`
	ML              float64 `yaml:"m_l"`
	ExtendCandidate bool    `yaml:"extend_candidates"`
	KeepPruned      bool    `yaml:"keep_pruned_connections"`
}

// LogConfig mirrors pkg/log.Config's yaml-facing fields.
type LogConfig struct {
	Level            string   `yaml:"level"`
	OutputPaths      []string `yaml:"output_paths"`
	ErrorOutputPaths []string `yaml:"error_output_paths"`
	Encoding         string   `yaml:"encoding"`
}

// Default returns a config suitable for local development and tests.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DataDir:       "./data",
			Backend:       "memory",
			Durability:    "always",
			FlushInterval: 100 * time.Millisecond,
			GroupCommit: GroupCommitConfig{
				MinBatchSize:  1,
				MaxBatchSize:  256,
				MinTimeout:    5 * time.Millisecond,
				MaxTimeout:    20 * time.Millisecond,
				LoadThreshold: 0.7,
			},
			FullText: FullTextConfig{
				DefaultAnalyzer: "standard",
				Highlighting:    false,
			},
			HNSW: HNSWConfig{
				MMax:           16,
				MMaxZero:       32,
				EfConstruction: 150,
				ML:             1.0 / 1.4426950408889634, // = ln(2) ≈ 0.693; hnsw.DefaultParams uses 1/ln(M)
			},
		},
		Log: LogConfig{
			Level:            "info",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
			Encoding:         "console",
		},
	}
}

// Load reads and parses a yaml config file, filling any unset fields from
// Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Engine.Backend {
	case "memory", "rocksdb":
	default:
		return fmt.Errorf("engine.backend must be 'memory' or 'rocksdb', got %q", c.Engine.Backend)
	}

	switch c.Engine.Durability {
	case "always", "interval", "never":
	default:
		return fmt.Errorf("engine.durability must be 'always', 'interval' or 'never', got %q", c.Engine.Durability)
	}

	gc := c.Engine.GroupCommit
	if gc.MinBatchSize <= 0 || gc.MaxBatchSize <= 0 {
		return fmt.Errorf("engine.group_commit.{min,max}_batch_size must be > 0")
	}
	if gc.MinBatchSize > gc.MaxBatchSize {
		return fmt.Errorf("engine.group_commit.min_batch_size must be <= max_batch_size")
	}
	if gc.MinTimeout <= 0 || gc.MaxTimeout <= 0 || gc.MinTimeout > gc.MaxTimeout {
		return fmt.Errorf("engine.group_commit.{min,max}_timeout must be > 0 and ordered")
	}
	if gc.LoadThreshold < 0 || gc.LoadThreshold > 1 {
		return fmt.Errorf("engine.group_commit.load_threshold must be between 0.0 and 1.0")
	}

	if c.Engine.HNSW.MMax <= 0 {
		return fmt.Errorf("engine.hnsw.m_max must be > 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true,
		"error": true, "dpanic": true, "panic": true, "fatal": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error, dpanic, panic, fatal")
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return fmt.Errorf("log.encoding must be either 'json' or 'console'")
	}

	return nil
}
