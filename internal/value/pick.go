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

// Pick walks path over v, one Part at a time. Objects index by field
// name, with All fanning out over every value; arrays handle All/
// First/Last/numeric-index directly, and when given a field part with
// no index fan out by mapping Pick over every element and collecting
// the results into a new array, preserving array shape even when the
// path descends into object fields of each element.
func (v Value) Pick(path []Part) Value {
	if len(path) == 0 {
		return v
	}
	p, rest := path[0], path[1:]

	switch v.Kind {
	case KindObject:
		switch p.Kind {
		case PartField:
			if fv, ok := v.Object.Get(p.Field); ok {
				return fv.Pick(rest)
			}
			return None()
		case PartAll:
			out := make([]Value, 0, v.Object.Len())
			v.Object.Range(func(_ string, fv Value) bool {
				out = append(out, fv.Pick(rest))
				return true
			})
			return Value{Kind: KindArray, Array: out}
		case PartIndex:
			// Old-style numeric field lookup ("obj.1"): look up the
			// stringified index as a field name.
			if fv, ok := v.Object.Get(indexToFieldName(p.Index)); ok {
				return fv.Pick(rest)
			}
			return None()
		default:
			return None()
		}

	case KindArray:
		switch p.Kind {
		case PartAll:
			out := make([]Value, len(v.Array))
			for i, ev := range v.Array {
				out[i] = ev.Pick(rest)
			}
			return Value{Kind: KindArray, Array: out}
		case PartFirst:
			if len(v.Array) == 0 {
				return None()
			}
			return v.Array[0].Pick(rest)
		case PartLast:
			if len(v.Array) == 0 {
				return None()
			}
			return v.Array[len(v.Array)-1].Pick(rest)
		case PartIndex:
			if p.Index < 0 || p.Index >= len(v.Array) {
				return None()
			}
			return v.Array[p.Index].Pick(rest)
		default:
			// No index: fan out over the array, re-applying the WHOLE
			// remaining path (including the current part) to each
			// element, preserving the array's shape
			// arm does.
			out := make([]Value, len(v.Array))
			for i, ev := range v.Array {
				out[i] = ev.Pick(path)
			}
			return Value{Kind: KindArray, Array: out}
		}

	default:
		return None()
	}
}

func indexToFieldName(i int) string {
	// Matches the historic "numeric field name" idiom part used by
	// old-style object indexing (`obj.1`).
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
