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

package value

import (
	"strconv"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// OpKind discriminates a JSON-patch-like mutation operation.
type OpKind int

const (
	OpAdd OpKind = iota
	OpRemove
	OpReplace
	OpChange
)

// Operation is one step of a Diff, addressed by a slash-joined path
// the same way JSON Patch addresses document locations.
type Operation struct {
	Kind  OpKind
	Path  []string
	Value Value // unused for OpRemove
}

// Diff produces the sequence of Operations that would transform v into
// other: object diffs compare key sets field
// by field (removed old keys, added new keys, recursed into shared
// keys); array diffs are strictly positional (index by index, NOT
// LCS-based — an insertion in the middle of an array diffs as N
// replacements, not one insertion) with Add/Remove for any length
// difference at the tail; a changed pair of strings emits OpChange
// carrying a textual patch instead of OpReplace, everything else that
// differs emits OpReplace.
func (v Value) Diff(other Value) []Operation {
	var ops []Operation
	v.diffRec(other, nil, &ops)
	return ops
}

func (v Value) diffRec(other Value, path []string, ops *[]Operation) {
	switch {
	case v.Kind == KindObject && other.Kind == KindObject:
		if objectsEqual(v.Object, other.Object) {
			return
		}
		v.Object.Range(func(key string, _ Value) bool {
			if _, ok := other.Object.Get(key); !ok {
				*ops = append(*ops, Operation{Kind: OpRemove, Path: appendPath(path, key)})
			}
			return true
		})
		other.Object.Range(func(key string, newVal Value) bool {
			oldVal, ok := v.Object.Get(key)
			if !ok {
				*ops = append(*ops, Operation{Kind: OpAdd, Path: appendPath(path, key), Value: newVal})
				return true
			}
			oldVal.diffRec(newVal, appendPath(path, key), ops)
			return true
		})

	case v.Kind == KindArray && other.Kind == KindArray:
		if arraysEqual(v.Array, other.Array) {
			return
		}
		minLen := len(v.Array)
		if len(other.Array) < minLen {
			minLen = len(other.Array)
		}
		for i := 0; i < minLen; i++ {
			v.Array[i].diffRec(other.Array[i], appendPath(path, strconv.Itoa(i)), ops)
		}
		for i := minLen; i < len(other.Array); i++ {
			*ops = append(*ops, Operation{Kind: OpAdd, Path: appendPath(path, strconv.Itoa(i)), Value: other.Array[i]})
		}
		// Highest index first, so each removal's index is still valid
		// when ApplyPatch replays the ops in order.
		for i := len(v.Array) - 1; i >= minLen; i-- {
			*ops = append(*ops, Operation{Kind: OpRemove, Path: appendPath(path, strconv.Itoa(i))})
		}

	case v.Kind == KindString && other.Kind == KindString:
		if v.String == other.String {
			return
		}
		dmp := diffmatchpatch.New()
		patches := dmp.PatchMake(v.String, other.String)
		*ops = append(*ops, Operation{
			Kind:  OpChange,
			Path:  append([]string(nil), path...),
			Value: Str(dmp.PatchToText(patches)),
		})

	default:
		if !Equal(v, other) {
			*ops = append(*ops, Operation{Kind: OpReplace, Path: append([]string(nil), path...), Value: other})
		}
	}
}

func appendPath(path []string, segment string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = segment
	return out
}
