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
	"io"

	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
)

// LimitStart implements LIMIT/START: it skips the first Start rows of
// Child's output then emits at most Limit rows (0 = unbounded).
type LimitStart struct {
	Child Operator
	Start int
	Limit int
}

func (l *LimitStart) Name() string                      { return "LimitStart" }
func (l *LimitStart) RequiredContext() expr.ContextLevel { return l.Child.RequiredContext() }
func (l *LimitStart) AccessMode() expr.AccessMode        { return l.Child.AccessMode() }
func (l *LimitStart) OutputOrdering() OutputOrdering     { return l.Child.OutputOrdering() }
func (l *LimitStart) CardinalityHint() CardinalityHint {
	if l.Limit > 0 {
		return CardinalityFew
	}
	return l.Child.CardinalityHint()
}

func (l *LimitStart) Execute(ctx *exec.Context) (Stream, error) {
	st, err := l.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &limitStream{child: st, skip: l.Start, remain: l.Limit, unbounded: l.Limit <= 0}, nil
}

type limitStream struct {
	child     Stream
	skip      int
	remain    int
	unbounded bool
	done      bool
}

func (s *limitStream) Next() (Batch, error) {
	if s.done {
		return nil, io.EOF
	}
	for {
		if !s.unbounded && s.remain <= 0 {
			s.done = true
			return nil, io.EOF
		}
		b, err := s.child.Next()
		if err != nil {
			return nil, err
		}
		if s.skip > 0 {
			if s.skip >= len(b) {
				s.skip -= len(b)
				continue
			}
			b = b[s.skip:]
			s.skip = 0
		}
		if len(b) == 0 {
			continue
		}
		if !s.unbounded && len(b) > s.remain {
			b = b[:s.remain]
		}
		if !s.unbounded {
			s.remain -= len(b)
		}
		return b, nil
	}
}
