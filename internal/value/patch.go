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
	"fmt"
	"strconv"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// ApplyPatch applies a sequence of Operations (the shape Diff emits)
// to v and returns the patched value. Operations address locations by
// the same path segments Diff produced them with; an op whose path
// can't be resolved, or an OpChange whose stored patch text fails to
// apply cleanly, fails the whole patch.
func (v Value) ApplyPatch(ops []Operation) (Value, error) {
	out := v.cloneForPatch()
	for _, op := range ops {
		var err error
		out, err = applyOp(out, op.Path, op)
		if err != nil {
			return None(), err
		}
	}
	return out, nil
}

func (v Value) cloneForPatch() Value {
	switch v.Kind {
	case KindObject:
		if v.Object == nil {
			return v
		}
		return Obj(v.Object.Clone())
	case KindArray:
		arr := make([]Value, len(v.Array))
		for i, item := range v.Array {
			arr[i] = item.cloneForPatch()
		}
		return Value{Kind: KindArray, Array: arr}
	default:
		return v
	}
}

func applyOp(cur Value, path []string, op Operation) (Value, error) {
	if len(path) == 0 {
		switch op.Kind {
		case OpAdd, OpReplace:
			return op.Value, nil
		case OpRemove:
			return None(), nil
		case OpChange:
			if cur.Kind != KindString || op.Value.Kind != KindString {
				return None(), fmt.Errorf("patch: change op on non-string value")
			}
			dmp := diffmatchpatch.New()
			patches, err := dmp.PatchFromText(op.Value.String)
			if err != nil {
				return None(), fmt.Errorf("patch: %w", err)
			}
			text, applied := dmp.PatchApply(patches, cur.String)
			for _, ok := range applied {
				if !ok {
					return None(), fmt.Errorf("patch: change op did not apply cleanly")
				}
			}
			return Str(text), nil
		}
		return None(), fmt.Errorf("patch: unknown op")
	}

	seg := path[0]
	switch cur.Kind {
	case KindObject:
		obj := cur.Object.Clone()
		child, ok := obj.Get(seg)
		if !ok {
			if len(path) > 1 || op.Kind == OpRemove || op.Kind == OpChange {
				return None(), fmt.Errorf("patch: path %q not found", seg)
			}
			child = None()
		}
		if len(path) == 1 && op.Kind == OpRemove {
			obj.Delete(seg)
			return Obj(obj), nil
		}
		patched, err := applyOp(child, path[1:], op)
		if err != nil {
			return None(), err
		}
		obj.Set(seg, patched)
		return Obj(obj), nil

	case KindArray:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return None(), fmt.Errorf("patch: non-numeric index %q into array", seg)
		}
		arr := append([]Value(nil), cur.Array...)
		if len(path) == 1 {
			switch op.Kind {
			case OpAdd:
				if idx < 0 || idx > len(arr) {
					return None(), fmt.Errorf("patch: index %d out of range", idx)
				}
				arr = append(arr[:idx], append([]Value{op.Value}, arr[idx:]...)...)
				return Value{Kind: KindArray, Array: arr}, nil
			case OpRemove:
				if idx < 0 || idx >= len(arr) {
					return None(), fmt.Errorf("patch: index %d out of range", idx)
				}
				arr = append(arr[:idx], arr[idx+1:]...)
				return Value{Kind: KindArray, Array: arr}, nil
			}
		}
		if idx < 0 || idx >= len(arr) {
			return None(), fmt.Errorf("patch: index %d out of range", idx)
		}
		patched, err := applyOp(arr[idx], path[1:], op)
		if err != nil {
			return None(), err
		}
		arr[idx] = patched
		return Value{Kind: KindArray, Array: arr}, nil

	default:
		return None(), fmt.Errorf("patch: cannot descend %q into %v", seg, cur.Kind)
	}
}

// Merge deep-merges other's object fields into v: fields present in
// other overwrite or recurse into v's, a field set to None in other
// removes it (None is the one value that round-trips to an absent
// field on write), and non-object pairs resolve in other's favor.
func (v Value) Merge(other Value) Value {
	if v.Kind != KindObject || other.Kind != KindObject {
		return other
	}
	out := v.Object.Clone()
	other.Object.Range(func(key string, nv Value) bool {
		if nv.Kind == KindNone {
			out.Delete(key)
			return true
		}
		if old, ok := out.Get(key); ok && old.Kind == KindObject && nv.Kind == KindObject {
			out.Set(key, old.Merge(nv))
			return true
		}
		out.Set(key, nv)
		return true
	})
	return Obj(out)
}
