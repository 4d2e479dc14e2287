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

// Increment computes the new value for `current += delta`.
// The dispatch covers: Number+Number
// adds; Array+Array concatenates; Array+scalar appends the scalar;
// None+Number seeds from zero (0+delta); None+Array passes the array
// through unchanged; None+scalar wraps the scalar in a single-element
// array. Any other pairing is a no-op, returned as current unchanged.
func Increment(current, delta Value) Value {
	switch current.Kind {
	case KindNumber:
		if delta.Kind == KindNumber {
			return Value{Kind: KindNumber, Number: addNumbers(current.Number, delta.Number)}
		}
		return current

	case KindArray:
		switch delta.Kind {
		case KindArray:
			return Value{Kind: KindArray, Array: append(append([]Value(nil), current.Array...), delta.Array...)}
		default:
			return Value{Kind: KindArray, Array: append(append([]Value(nil), current.Array...), delta)}
		}

	case KindNone:
		switch delta.Kind {
		case KindNumber:
			return Value{Kind: KindNumber, Number: addNumbers(Int(0), delta.Number)}
		case KindArray:
			return delta
		default:
			return Value{Kind: KindArray, Array: []Value{delta}}
		}

	default:
		return current
	}
}

func addNumbers(a, b Number) Number {
	if a.Kind == NumberInt64 && b.Kind == NumberInt64 {
		return Int(a.Int64 + b.Int64)
	}
	if a.Kind == NumberDecimal || b.Kind == NumberDecimal {
		return Dec(numberAsDecimal(a).Add(numberAsDecimal(b)))
	}
	return Float(numberAsFloat(a) + numberAsFloat(b))
}

func numberAsFloat(n Number) float64 {
	switch n.Kind {
	case NumberInt64:
		return float64(n.Int64)
	case NumberFloat64:
		return n.Float64
	default:
		f, _ := n.Decimal.Float64()
		return f
	}
}
