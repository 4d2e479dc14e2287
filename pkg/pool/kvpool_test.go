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

package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsEmptySliceWithCapacity(t *testing.T) {
	p := NewSlicePool[string](32)
	s := p.Get()
	require.Len(t, s, 0)
	require.GreaterOrEqual(t, cap(s), 32)
}

func TestPutClearsElementReferences(t *testing.T) {
	p := NewSlicePool[[]byte](4)
	s := p.Get()
	s = append(s, []byte("payload"))
	p.Put(s)

	// The pooled backing array must not pin the old payload.
	reused := p.Get()
	require.Len(t, reused, 0)
	if cap(reused) > 0 {
		full := reused[:1]
		require.Nil(t, full[0])
	}
}

func TestPutNilIsNoop(t *testing.T) {
	p := NewSlicePool[int](8)
	p.Put(nil)
	require.Len(t, p.Get(), 0)
}

func TestConcurrentGetPut(t *testing.T) {
	p := NewSlicePool[int](16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := p.Get()
				for k := 0; k < n+1; k++ {
					s = append(s, k)
				}
				p.Put(s)
			}
		}(i)
	}
	wg.Wait()
}
