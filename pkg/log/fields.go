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

package log

import (
	"time"

	"go.uber.org/zap"
)

// Generic field constructors, re-exported so callers never import zap
// directly.

func String(key, val string) zap.Field {
	return zap.String(key, val)
}

func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

func Time(key string, val time.Time) zap.Field {
	return zap.Time(key, val)
}

func Err(err error) zap.Field {
	return zap.Error(err)
}

func Any(key string, val interface{}) zap.Field {
	return zap.Any(key, val)
}

// Namespace opens a zap field-grouping namespace.
func Namespace(key string) zap.Field {
	return zap.Namespace(key)
}

// Engine-domain fields.

// Key logs a raw storage key.
func Key(key []byte) zap.Field {
	return zap.ByteString("key", key)
}

func KeyString(key string) zap.Field {
	return zap.String("key", key)
}

// Value logs a stored value, falling back to its length past 1 KiB.
func Value(value []byte) zap.Field {
	if len(value) > 1024 {
		return zap.Int("value_size", len(value))
	}
	return zap.ByteString("value", value)
}

// Revision logs a storage revision.
func Revision(rev int64) zap.Field {
	return zap.Int64("revision", rev)
}

// Table logs the table a statement or index operation targets.
func Table(name string) zap.Field {
	return zap.String("table", name)
}

// Database logs the ns/db selection a session operates under.
func Database(ns, db string) zap.Field {
	return zap.String("database", ns + "/" + db)
}

// IndexName logs a secondary index by name.
func IndexName(name string) zap.Field {
	return zap.String("index", name)
}

// Statement logs the statement kind being executed.
func Statement(kind string) zap.Field {
	return zap.String("statement", kind)
}

// LiveID logs a live-query subscription id.
func LiveID(id string) zap.Field {
	return zap.String("live_id", id)
}

func Component(name string) zap.Field {
	return zap.String("component", name)
}

func Phase(phase string) zap.Field {
	return zap.String("phase", phase)
}

func Count(count int64) zap.Field {
	return zap.Int64("count", count)
}

func Goroutine(name string) zap.Field {
	return zap.String("goroutine", name)
}

func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}
