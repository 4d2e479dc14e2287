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

package expr

import (
	"testing"

	"github.com/nexusdb/core/internal/value"
	"github.com/stretchr/testify/require"
)

// fakeCtx is a minimal EvalContext for expression-level unit tests;
// internal/exec provides the real ExecutionContext the engine uses.
type fakeCtx struct {
	params map[string]value.Value
	this   value.Value
	hasThis bool
}

func newFakeCtx() *fakeCtx { return &fakeCtx{params: map[string]value.Value{}} }

func (c *fakeCtx) Param(name string) (value.Value, bool) { v, ok := c.params[name]; return v, ok }
func (c *fakeCtx) This() (value.Value, bool)              { return c.this, c.hasThis }
func (c *fakeCtx) Parent() (value.Value, bool)            { return value.None(), false }
func (c *fakeCtx) Before() (value.Value, bool)            { return value.None(), false }
func (c *fakeCtx) After() (value.Value, bool)             { return value.None(), false }
func (c *fakeCtx) WithThis(v value.Value) EvalContext {
	n := *c
	n.this, n.hasThis = v, true
	return &n
}
func (c *fakeCtx) WithParam(name string, v value.Value) EvalContext {
	n := *c
	n.params = map[string]value.Value{}
	for k, v := range c.params {
		n.params[k] = v
	}
	n.params[name] = v
	return &n
}
func (c *fakeCtx) Cancelled() bool         { return false }
func (c *fakeCtx) Level() ContextLevel { return LevelDatabase }

func TestIdiomFieldPath(t *testing.T) {
	obj := value.NewObject()
	obj.Set("age", value.Int64(30))
	ctx := newFakeCtx()

	idiom := NewIdiom(NewParam("this"), Part{Kind: PartField, Field: "age"})
	v, err := idiom.Evaluate(ctx.WithThis(value.Obj(obj)))
	require.NoError(t, err)
	require.Equal(t, value.Int64(30), v)
}

func TestBinaryAndShortCircuits(t *testing.T) {
	ctx := newFakeCtx()
	b := NewBinary(NewLiteral(value.Bool(false)), OpAnd, NewLiteral(value.Bool(true)))
	v, err := b.Evaluate(ctx)
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), v)
}

func TestAccessModeCombinesReadWrite(t *testing.T) {
	sub := NewSubquery(nil, ReadWrite, LevelDatabase)
	bin := NewBinary(NewLiteral(value.Bool(true)), OpAnd, sub)
	require.Equal(t, ReadWrite, bin.AccessMode())
}

func TestParamNotFoundError(t *testing.T) {
	ctx := newFakeCtx()
	p := NewParam("missing")
	_, err := p.Evaluate(ctx)
	require.Error(t, err)
}
