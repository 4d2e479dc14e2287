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

// Package codec implements the engine's versioned binary record
// format: a MessagePack body behind an explicit revision prefix, via
// github.com/vmihailenco/msgpack.
package codec

import (
	"fmt"

	"github.com/nexusdb/core/internal/value"
	"github.com/vmihailenco/msgpack/v5"
)

// Revision is the format version written as the first byte of every
// encoded record, letting a future decoder detect and migrate an
// older layout without guessing from the payload shape.
const Revision byte = 1

// Marshal encodes v as Revision-prefixed MessagePack.
func Marshal(v value.Value) ([]byte, error) {
	w := toWire(v)
	body, err := msgpack.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, Revision)
	out = append(out, body...)
	return out, nil
}

// Unmarshal decodes a Revision-prefixed MessagePack payload back into
// a Value.
func Unmarshal(data []byte) (value.Value, error) {
	if len(data) == 0 {
		return value.None(), fmt.Errorf("codec: empty payload")
	}
	rev, body := data[0], data[1:]
	if rev != Revision {
		return value.None(), fmt.Errorf("codec: unsupported revision %d", rev)
	}
	var w wireValue
	if err := msgpack.Unmarshal(body, &w); err != nil {
		return value.None(), fmt.Errorf("codec: unmarshal: %w", err)
	}
	return fromWire(w), nil
}
