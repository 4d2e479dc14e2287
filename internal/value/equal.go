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
	"bytes"

	"github.com/shopspring/decimal"
)

// Equal implements structural equality.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone, KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return numbersEqual(a.Number, b.Number)
	case KindString, KindRegex:
		return a.String == b.String
	case KindDuration:
		return a.Duration == b.Duration
	case KindDatetime:
		return a.Datetime.Equal(b.Datetime)
	case KindUuid:
		return a.Uuid == b.Uuid
	case KindBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	case KindArray:
		return arraysEqual(a.Array, b.Array)
	case KindSet:
		return setsEqual(a.Set, b.Set)
	case KindObject:
		return objectsEqual(a.Object, b.Object)
	case KindRange:
		return rangesEqual(a.Range, b.Range)
	case KindRecordID:
		return a.RecordID.Table == b.RecordID.Table && recordIDKeysEqual(a.RecordID.Key, b.RecordID.Key)
	case KindFile:
		return a.File == b.File
	default:
		return false
	}
}

func numbersEqual(a, b Number) bool {
	if a.Kind == b.Kind {
		switch a.Kind {
		case NumberInt64:
			return a.Int64 == b.Int64
		case NumberFloat64:
			return a.Float64 == b.Float64
		case NumberDecimal:
			return a.Decimal.Equal(b.Decimal)
		}
	}
	// Cross-representation numeric equality: compare as decimals.
	return numberAsDecimal(a).Equal(numberAsDecimal(b))
}

func numberAsDecimal(n Number) decimal.Decimal {
	switch n.Kind {
	case NumberInt64:
		return decimal.NewFromInt(n.Int64)
	case NumberFloat64:
		return decimal.NewFromFloat(n.Float64)
	default:
		return n.Decimal
	}
}

// Equal reports whether n and o denote the same numeric value,
// regardless of which representation each uses.
func (n Number) Equal(o Number) bool {
	return numbersEqual(n, o)
}

func arraysEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func setsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		found := false
		for _, w := range b {
			if Equal(v, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func objectsEqual(a, b *Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Range(func(k string, v Value) bool {
		ov, ok := b.Get(k)
		if !ok || !Equal(v, ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

func rangesEqual(a, b *Rng) bool {
	if a == nil || b == nil {
		return a == b
	}
	return optValueEqual(a.Start, b.Start) && optValueEqual(a.End, b.End)
}

func optValueEqual(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Equal(*a, *b)
}

func recordIDKeysEqual(a, b RecordIDKey) bool {
	return Equal(a.AsValue(), b.AsValue())
}
