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
	"strings"

	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/value"
)

// Maintainer adapts an Index to the planner's IndexWriter seam
// (internal/physical.IndexWriter), so Create/Update/Delete operators
// can keep a table's full-text postings synchronous with its record
// writes without internal/physical
// importing internal/fulltext.
type Maintainer struct {
	Index  *Index
	Fields []string
}

// Write implements internal/physical.IndexWriter.
func (m *Maintainer) Write(ctx *exec.Context, docKey []byte, old, new *value.Value) error {
	tx := ctx.Transaction()
	oldContent := m.extract(old)
	newContent := m.extract(new)
	if oldContent == newContent {
		return nil
	}
	return m.Index.Reindex(context.Background(), tx, docKey, oldContent, newContent)
}

func (m *Maintainer) extract(row *value.Value) string {
	if row == nil {
		return ""
	}
	var parts []string
	for _, field := range m.Fields {
		fv := row.Pick([]value.Part{value.Field(field)})
		if fv.Kind == value.KindString {
			parts = append(parts, fv.String)
		}
	}
	return strings.Join(parts, " ")
}
