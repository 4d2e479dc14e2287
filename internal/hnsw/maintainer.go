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

package hnsw

import (
	"context"

	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/value"
)

// Maintainer adapts a Store to the planner's IndexWriter seam
// (internal/physical.IndexWriter), the same structural role
// internal/fulltext.Maintainer plays for full-text indexes. A record's
// vector-valued field is extracted, hashed and (de)associated with its
// graph element on every Create/Update/Delete.
type Maintainer struct {
	Store *Store
	Field string
}

// Write implements internal/physical.IndexWriter.
func (m *Maintainer) Write(ctx *exec.Context, docKey []byte, old, new *value.Value) error {
	tx := ctx.Transaction()
	oldVec, oldOK := m.extract(old)
	newVec, newOK := m.extract(new)

	if oldOK && (!newOK || !vectorsEqual(oldVec, newVec)) {
		if err := m.Store.Remove(context.Background(), tx, docKey, oldVec); err != nil {
			return err
		}
	}
	if newOK && (!oldOK || !vectorsEqual(oldVec, newVec)) {
		if _, err := m.Store.Index(context.Background(), tx, docKey, newVec); err != nil {
			return err
		}
	}
	return nil
}

func (m *Maintainer) extract(row *value.Value) (Vector, bool) {
	if row == nil {
		return nil, false
	}
	fv := row.Pick([]value.Part{value.Field(m.Field)})
	if fv.Kind != value.KindArray {
		return nil, false
	}
	vec := make(Vector, 0, len(fv.Array))
	for _, el := range fv.Array {
		if el.Kind != value.KindNumber {
			return nil, false
		}
		vec = append(vec, float32(el.Number.AsFloat64()))
	}
	return vec, len(vec) > 0
}

func vectorsEqual(a, b Vector) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
