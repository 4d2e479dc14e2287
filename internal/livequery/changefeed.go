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

package livequery

import (
	"context"
	"encoding/binary"
	"sync/atomic"

	"github.com/nexusdb/core/internal/codec"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
)

// VersionstampSource hands out monotonically increasing 8-byte
// versionstamps, ordering the change feed within one database.
// An atomic in-process counter is sufficient because every write in
// one database serializes through the same KVS; a distributed
// deployment would source this from the
// storage engine itself instead.
type VersionstampSource struct {
	counter uint64
}

func (s *VersionstampSource) Next() []byte {
	v := atomic.AddUint64(&s.counter, 1)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// ChangeEntry is one row of the append-only change feed.
type ChangeEntry struct {
	Action string
	Table  string
	Before value.Value
	After  value.Value
}

func (e ChangeEntry) encode() ([]byte, error) {
	obj := value.NewObject()
	obj.Set("action", value.Str(e.Action))
	obj.Set("table", value.Str(e.Table))
	obj.Set("before", e.Before)
	obj.Set("after", e.After)
	return codec.Marshal(value.Obj(obj))
}

func decodeChangeEntry(raw []byte) (ChangeEntry, error) {
	v, err := codec.Unmarshal(raw)
	if err != nil {
		return ChangeEntry{}, err
	}
	action, _ := v.Object.Get("action")
	table, _ := v.Object.Get("table")
	before, _ := v.Object.Get("before")
	after, _ := v.Object.Get("after")
	return ChangeEntry{Action: action.String, Table: table.String, Before: before, After: after}, nil
}

// AppendChangeFeed writes one entry keyed by a fresh versionstamp.
// Callers append once per committed mutation, inside the same
// transaction as the data write, so the feed and the record store
// always agree after a crash.
func AppendChangeFeed(ctx context.Context, tx kvs.Transaction, vs *VersionstampSource, ns, db string, entry ChangeEntry, m *metrics.Metrics) error {
	versionstamp := vs.Next()
	raw, err := entry.encode()
	if err != nil {
		return err
	}
	if err := tx.Set(ctx, keys.ChangeFeed(ns, db, versionstamp), raw); err != nil {
		return err
	}
	if m != nil {
		m.ChangeFeedEntriesTotal.Inc()
	}
	return nil
}

// ReadChangeFeed returns every change-feed entry for a database in
// commit order, optionally starting after a previously-seen
// versionstamp (an empty after reads from the beginning).
func ReadChangeFeed(ctx context.Context, tx kvs.Transaction, ns, db string, after []byte, limit int) ([]ChangeEntry, error) {
	start := keys.ChangeFeedPrefix(ns, db)
	if len(after) > 0 {
		start = keys.ChangeFeed(ns, db, after)
		start = append(start, 0)
	}
	end := keys.PrefixEnd(keys.ChangeFeedPrefix(ns, db))
	rows, err := tx.Scan(ctx, start, end, limit, kvs.Forward)
	if err != nil {
		return nil, err
	}
	out := make([]ChangeEntry, 0, len(rows))
	for _, kv := range rows {
		e, err := decodeChangeEntry(kv.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
