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

//go:build !cgo
// +build !cgo

package main

import (
	"fmt"

	"github.com/nexusdb/core/internal/mvcc"
	"github.com/nexusdb/core/pkg/config"
)

func openRocksDB(cfg *config.Config) (mvcc.Store, func(), error) {
	return nil, nil, fmt.Errorf("rocksdb backend requires a cgo build")
}
