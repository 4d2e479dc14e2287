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

package physical

import (
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
)

// Only implements FROM ONLY's cardinality collapse: zero
// rows become None (or a SingleOnlyOutput error when Required, i.e.
// the statement demanded exactly one record), exactly one row is
// unwrapped in place of its singleton array, and more than one row is
// always an error regardless of Required.
type Only struct {
	Child    Operator
	Required bool
}

func (o *Only) Name() string                      { return "Only" }
func (o *Only) RequiredContext() expr.ContextLevel { return o.Child.RequiredContext() }
func (o *Only) AccessMode() expr.AccessMode        { return o.Child.AccessMode() }
func (o *Only) OutputOrdering() OutputOrdering     { return o.Child.OutputOrdering() }
func (o *Only) CardinalityHint() CardinalityHint   { return CardinalityOne }

func (o *Only) Execute(ctx *exec.Context) (Stream, error) {
	rows, err := Collect(ctx, o.Child)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		if o.Required {
			return nil, errs.New(errs.SingleOnlyOutput)
		}
		return NewSliceStream([]value.Value{value.None()}, 1), nil
	case 1:
		return NewSliceStream(rows, 1), nil
	default:
		return nil, errs.New(errs.SingleOnlyOutput)
	}
}
