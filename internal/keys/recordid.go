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

	"github.com/nexusdb/core/internal/value"
)

// RecordIDKey type tags, ordered so that (by design) Number < String <
// Uuid < Array < Object < Range sorts consistently across record id
// kinds sharing a table — the exact cross-kind order is not specified,
// only that same-kind keys sort correctly and every key round-trips.
const (
	tagNumber byte = 0x01
	tagString byte = 0x02
	tagUuid   byte = 0x03
	tagArray  byte = 0x04
	tagObject byte = 0x05
	tagRange  byte = 0x06
)

// EncodeRecordIDKey renders a RecordIDKey into an order-preserving
// byte string suitable for use inside a Record key.
func EncodeRecordIDKey(k value.RecordIDKey) []byte {
	switch k.Kind {
	case value.RecordIDKeyNumber:
		return append([]byte{tagNumber}, encodeInt64(k.Number)...)
	case value.RecordIDKeyString:
		return append([]byte{tagString}, encodeString(k.String)...)
	case value.RecordIDKeyUuid:
		b := k.Uuid
		return append([]byte{tagUuid}, b[:]...)
	case value.RecordIDKeyArray:
		out := []byte{tagArray}
		for _, v := range k.Array {
			out = append(out, encodeValueForKey(v)...)
		}
		out = append(out, 0, 0) // array terminator
		return out
	case value.RecordIDKeyObject:
		out := []byte{tagObject}
		k.Object.Range(func(fieldName string, v value.Value) bool {
			out = append(out, encodeString(fieldName)...)
			out = append(out, encodeValueForKey(v)...)
			return true
		})
		out = append(out, 0, 0)
		return out
	case value.RecordIDKeyRange:
		out := []byte{tagRange}
		if k.Range.Start != nil {
			out = append(out, 1)
			out = append(out, encodeValueForKey(*k.Range.Start)...)
		} else {
			out = append(out, 0)
		}
		if k.Range.End != nil {
			out = append(out, 1)
			out = append(out, encodeValueForKey(*k.Range.End)...)
		} else {
			out = append(out, 0)
		}
		return out
	default:
		return []byte{0}
	}
}

// encodeInt64 big-endian encodes a signed int64 with a flipped sign bit
// so that the byte encoding sorts the same way the integers do.
func encodeInt64(v int64) []byte {
	u := uint64(v) ^ (1 << 63)
	return []byte{
		byte(u >> 56), byte(u >> 48), byte(u >> 40), byte(u >> 32),
		byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u),
	}
}

func decodeInt64(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("keys: expected 8 bytes for encoded int64, got %d", len(b))
	}
	u := uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
	return int64(u ^ (1 << 63)), nil
}

// encodeString escapes embedded NUL bytes (0x00 -> 0x00 0xFF) and
// terminates with 0x00 0x00, so that shorter strings sort before
// longer strings that extend them.
func encodeString(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			out = append(out, 0, 0xff)
		} else {
			out = append(out, s[i])
		}
	}
	return append(out, 0, 0)
}

func decodeString(b []byte) (string, []byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			if i+1 >= len(b) {
				return "", nil, fmt.Errorf("keys: truncated string encoding")
			}
			if b[i+1] == 0 {
				return string(out), b[i+2:], nil
			}
			if b[i+1] == 0xff {
				out = append(out, 0)
				i++
				continue
			}
			return "", nil, fmt.Errorf("keys: invalid string escape")
		}
		out = append(out, b[i])
	}
	return "", nil, fmt.Errorf("keys: unterminated string encoding")
}

// encodeValueForKey encodes a scalar Value for use as an array/object
// element inside a RecordIDKey. Only the kinds RecordIDKeyFromValue
// accepts are supported.
func encodeValueForKey(v value.Value) []byte {
	return EncodeRecordIDKey(value.RecordIDKeyFromValue(v))
}
