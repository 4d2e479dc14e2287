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

package fulltext

import (
	"context"
	"encoding/binary"

	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/keys"
	"github.com/nexusdb/core/internal/kvs"
)

// DocID is the monotonic document id postings are keyed by.
type DocID uint64

// ResolveDocID looks up docKey's existing DocID without allocating one.
func ResolveDocID(ctx context.Context, tx kvs.Transaction, ns, db, tb, ix string, docKey []byte) (DocID, bool, error) {
	raw, ok, err := tx.Get(ctx, keys.DocIDForward(ns, db, tb, ix, docKey))
	if err != nil || !ok {
		return 0, false, err
	}
	if len(raw) != 8 {
		return 0, false, errs.New(errs.InvalidArguments)
	}
	return DocID(binary.BigEndian.Uint64(raw)), true, nil
}

// AllocateDocID resolves docKey's DocID, allocating the next value
// from the per-index sequence counter if this is the first time
// docKey has been seen.
func AllocateDocID(ctx context.Context, tx kvs.Transaction, ns, db, tb, ix string, docKey []byte) (DocID, error) {
	if id, ok, err := ResolveDocID(ctx, tx, ns, db, tb, ix, docKey); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	seqKey := keys.DocIDSeq(ns, db, tb, ix)
	next := uint64(1)
	if raw, ok, err := tx.Get(ctx, seqKey); err != nil {
		return 0, err
	} else if ok {
		next = binary.BigEndian.Uint64(raw) + 1
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := tx.Set(ctx, seqKey, buf); err != nil {
		return 0, err
	}
	if err := tx.Set(ctx, keys.DocIDForward(ns, db, tb, ix, docKey), buf); err != nil {
		return 0, err
	}
	return DocID(next), nil
}
