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
	"strings"
)

// kindOrder fixes a total order across Kinds so values of different
// kinds still compare consistently (needed by ORDER BY over
// heterogeneous columns and by GroupAggregate's MIN/MAX).
var kindOrder = map[Kind]int{
	KindNone: 0, KindNull: 1, KindBool: 2, KindNumber: 3, KindString: 4,
	KindDuration: 5, KindDatetime: 6, KindUuid: 7, KindBytes: 8,
	KindArray: 9, KindSet: 10, KindObject: 11, KindGeometry: 12,
	KindRange: 13, KindRecordID: 14, KindRegex: 15, KindFile: 16, KindClosure: 17,
}

// Compare returns -1, 0 or 1 or order a before, equal to, or after b,
// used by Sort and GroupAggregate's MIN/MAX/ordering-sensitive
// aggregates. Differing kinds fall back to kindOrder. Same-kind
// booleans, numbers, strings, regexes, durations, datetimes, uuids,
// bytes, arrays and sets compare by their natural order; any other
// same-kind pair (objects, record ids, ranges, ...) compares 0 when
// Equal and -1 otherwise, so those values have no defined order.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		return intSign(kindOrder[a.Kind] - kindOrder[b.Kind])
	}
	switch a.Kind {
	case KindNone, KindNull:
		return 0
	case KindBool:
		return boolCompare(a.Bool, b.Bool)
	case KindNumber:
		return compareNumbers(a.Number, b.Number)
	case KindString, KindRegex:
		return strings.Compare(a.String, b.String)
	case KindDuration:
		return intSign(int(a.Duration - b.Duration))
	case KindDatetime:
		switch {
		case a.Datetime.Before(b.Datetime):
			return -1
		case a.Datetime.After(b.Datetime):
			return 1
		default:
			return 0
		}
	case KindUuid:
		return bytes.Compare(a.Uuid[:], b.Uuid[:])
	case KindBytes:
		return bytes.Compare(a.Bytes, b.Bytes)
	case KindArray, KindSet:
		return compareSlices(arrayOf(a), arrayOf(b))
	default:
		if Equal(a, b) {
			return 0
		}
		return -1
	}
}

func arrayOf(v Value) []Value {
	if v.Kind == KindSet {
		return v.Set
	}
	return v.Array
}

func compareSlices(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return intSign(len(a) - len(b))
}

func compareNumbers(a, b Number) int {
	da, db := numberAsDecimal(a), numberAsDecimal(b)
	return da.Cmp(db)
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func intSign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
