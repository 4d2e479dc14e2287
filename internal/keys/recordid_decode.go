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

package keys

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/value"
)

// DecodeRecordIDKey is the inverse of EncodeRecordIDKey: every key this
// package produces round-trips back to an equal RecordIDKey.
func DecodeRecordIDKey(b []byte) (value.RecordIDKey, error) {
	k, rest, err := decodeRecordIDKey(b)
	if err != nil {
		return value.RecordIDKey{}, err
	}
	if len(rest) != 0 {
		return value.RecordIDKey{}, fmt.Errorf("keys: trailing bytes after record id key")
	}
	return k, nil
}

func decodeRecordIDKey(b []byte) (value.RecordIDKey, []byte, error) {
	if len(b) == 0 {
		return value.RecordIDKey{}, nil, fmt.Errorf("keys: empty record id key")
	}
	tag, rest := b[0], b[1:]

	switch tag {
	case tagNumber:
		if len(rest) < 8 {
			return value.RecordIDKey{}, nil, fmt.Errorf("keys: truncated number")
		}
		n, err := decodeInt64(rest[:8])
		if err != nil {
			return value.RecordIDKey{}, nil, err
		}
		return value.RecordIDKey{Kind: value.RecordIDKeyNumber, Number: n}, rest[8:], nil

	case tagString:
		s, remainder, err := decodeString(rest)
		if err != nil {
			return value.RecordIDKey{}, nil, err
		}
		return value.RecordIDKey{Kind: value.RecordIDKeyString, String: s}, remainder, nil

	case tagUuid:
		if len(rest) < 16 {
			return value.RecordIDKey{}, nil, fmt.Errorf("keys: truncated uuid")
		}
		id, err := uuid.FromBytes(rest[:16])
		if err != nil {
			return value.RecordIDKey{}, nil, err
		}
		return value.RecordIDKey{Kind: value.RecordIDKeyUuid, Uuid: id}, rest[16:], nil

	case tagArray:
		var items []value.Value
		cur := rest
		for {
			if len(cur) >= 2 && cur[0] == 0 && cur[1] == 0 {
				cur = cur[2:]
				break
			}
			elem, remainder, err := decodeRecordIDKey(cur)
			if err != nil {
				return value.RecordIDKey{}, nil, err
			}
			items = append(items, elem.AsValue())
			cur = remainder
		}
		return value.RecordIDKey{Kind: value.RecordIDKeyArray, Array: items}, cur, nil

	case tagObject:
		obj := value.NewObject()
		cur := rest
		for {
			if len(cur) >= 2 && cur[0] == 0 && cur[1] == 0 {
				cur = cur[2:]
				break
			}
			fieldName, remainder, err := decodeString(cur)
			if err != nil {
				return value.RecordIDKey{}, nil, err
			}
			elem, remainder2, err := decodeRecordIDKey(remainder)
			if err != nil {
				return value.RecordIDKey{}, nil, err
			}
			obj.Set(fieldName, elem.AsValue())
			cur = remainder2
		}
		return value.RecordIDKey{Kind: value.RecordIDKeyObject, Object: obj}, cur, nil

	case tagRange:
		if len(rest) < 1 {
			return value.RecordIDKey{}, nil, fmt.Errorf("keys: truncated range start marker")
		}
		r := &value.Rng{}
		cur := rest
		hasStart := cur[0] == 1
		cur = cur[1:]
		if hasStart {
			start, remainder, err := decodeRecordIDKey(cur)
			if err != nil {
				return value.RecordIDKey{}, nil, err
			}
			sv := start.AsValue()
			r.Start = &sv
			cur = remainder
		}
		if len(cur) < 1 {
			return value.RecordIDKey{}, nil, fmt.Errorf("keys: truncated range end marker")
		}
		hasEnd := cur[0] == 1
		cur = cur[1:]
		if hasEnd {
			end, remainder, err := decodeRecordIDKey(cur)
			if err != nil {
				return value.RecordIDKey{}, nil, err
			}
			ev := end.AsValue()
			r.End = &ev
			cur = remainder
		}
		return value.RecordIDKey{Kind: value.RecordIDKeyRange, Range: r}, cur, nil

	default:
		return value.RecordIDKey{}, nil, fmt.Errorf("keys: unknown record id key tag %#x", tag)
	}
}
