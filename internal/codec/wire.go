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

package codec

import (
	"time"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/value"
	"github.com/shopspring/decimal"
)

// wireValue is the MessagePack-mappable shadow of value.Value. Only
// the field matching Kind is populated; msgpack's struct tags keep
// the wire form compact (omitempty drops every unused variant field).
type wireValue struct {
	Kind     uint8         `msgpack:"k"`
	Bool     bool          `msgpack:"b,omitempty"`
	NumKind  uint8         `msgpack:"nk,omitempty"`
	Int64    int64         `msgpack:"i,omitempty"`
	Float64  float64       `msgpack:"f,omitempty"`
	Decimal  string        `msgpack:"d,omitempty"`
	String   string        `msgpack:"s,omitempty"`
	Duration int64         `msgpack:"du,omitempty"`
	Datetime time.Time     `msgpack:"dt,omitempty"`
	Uuid     []byte        `msgpack:"u,omitempty"`
	Bytes    []byte        `msgpack:"by,omitempty"`
	Array    []wireValue   `msgpack:"a,omitempty"`
	Set      []wireValue   `msgpack:"se,omitempty"`
	ObjKeys  []string      `msgpack:"ok,omitempty"`
	ObjVals  []wireValue   `msgpack:"ov,omitempty"`
	RangeSet bool          `msgpack:"rs,omitempty"`
	RangeStart *wireValue  `msgpack:"r0,omitempty"`
	RangeEnd   *wireValue  `msgpack:"r1,omitempty"`
	RIDTable string        `msgpack:"rt,omitempty"`
	RIDKey   *wireValue    `msgpack:"rk,omitempty"`
	Regex    string        `msgpack:"rx,omitempty"`
	FileBucket string      `msgpack:"fb,omitempty"`
	FileKey    string      `msgpack:"fk,omitempty"`
}

func toWire(v value.Value) wireValue {
	w := wireValue{Kind: uint8(v.Kind)}
	switch v.Kind {
	case value.KindBool:
		w.Bool = v.Bool
	case value.KindNumber:
		w.NumKind = uint8(v.Number.Kind)
		switch v.Number.Kind {
		case value.NumberInt64:
			w.Int64 = v.Number.Int64
		case value.NumberFloat64:
			w.Float64 = v.Number.Float64
		case value.NumberDecimal:
			w.Decimal = v.Number.Decimal.String()
		}
	case value.KindString, value.KindRegex:
		w.String = v.String
	case value.KindDuration:
		w.Duration = int64(v.Duration)
	case value.KindDatetime:
		w.Datetime = v.Datetime
	case value.KindUuid:
		b, _ := v.Uuid.MarshalBinary()
		w.Uuid = b
	case value.KindBytes:
		w.Bytes = v.Bytes
	case value.KindArray:
		w.Array = make([]wireValue, len(v.Array))
		for i, it := range v.Array {
			w.Array[i] = toWire(it)
		}
	case value.KindSet:
		w.Set = make([]wireValue, len(v.Set))
		for i, it := range v.Set {
			w.Set[i] = toWire(it)
		}
	case value.KindObject:
		if v.Object != nil {
			keys := v.Object.Keys()
			w.ObjKeys = keys
			w.ObjVals = make([]wireValue, len(keys))
			for i, k := range keys {
				fv, _ := v.Object.Get(k)
				w.ObjVals[i] = toWire(fv)
			}
		}
	case value.KindRange:
		w.RangeSet = true
		if v.Range != nil {
			if v.Range.Start != nil {
				s := toWire(*v.Range.Start)
				w.RangeStart = &s
			}
			if v.Range.End != nil {
				e := toWire(*v.Range.End)
				w.RangeEnd = &e
			}
		}
	case value.KindRecordID:
		w.RIDTable = v.RecordID.Table
		kv := v.RecordID.Key.AsValue()
		wv := toWire(kv)
		w.RIDKey = &wv
	case value.KindFile:
		w.FileBucket = v.File.Bucket
		w.FileKey = v.File.Key
	}
	return w
}

func fromWire(w wireValue) value.Value {
	kind := value.Kind(w.Kind)
	switch kind {
	case value.KindBool:
		return value.Bool(w.Bool)
	case value.KindNumber:
		switch value.NumberKind(w.NumKind) {
		case value.NumberInt64:
			return value.Int64(w.Int64)
		case value.NumberFloat64:
			return value.Float64(w.Float64)
		case value.NumberDecimal:
			d, _ := decimal.NewFromString(w.Decimal)
			return value.Value{Kind: value.KindNumber, Number: value.Dec(d)}
		}
		return value.Int64(0)
	case value.KindString:
		return value.Str(w.String)
	case value.KindRegex:
		return value.Value{Kind: value.KindRegex, Regex: w.String}
	case value.KindDuration:
		return value.Value{Kind: value.KindDuration, Duration: time.Duration(w.Duration)}
	case value.KindDatetime:
		return value.Value{Kind: value.KindDatetime, Datetime: w.Datetime}
	case value.KindUuid:
		var id uuid.UUID
		_ = id.UnmarshalBinary(w.Uuid)
		return value.Value{Kind: value.KindUuid, Uuid: id}
	case value.KindBytes:
		return value.Value{Kind: value.KindBytes, Bytes: w.Bytes}
	case value.KindArray:
		items := make([]value.Value, len(w.Array))
		for i, it := range w.Array {
			items[i] = fromWire(it)
		}
		return value.Value{Kind: value.KindArray, Array: items}
	case value.KindSet:
		items := make([]value.Value, len(w.Set))
		for i, it := range w.Set {
			items[i] = fromWire(it)
		}
		return value.Value{Kind: value.KindSet, Set: items}
	case value.KindObject:
		obj := value.NewObject()
		for i, k := range w.ObjKeys {
			obj.Set(k, fromWire(w.ObjVals[i]))
		}
		return value.Obj(obj)
	case value.KindRange:
		rng := &value.Rng{}
		if w.RangeStart != nil {
			s := fromWire(*w.RangeStart)
			rng.Start = &s
		}
		if w.RangeEnd != nil {
			e := fromWire(*w.RangeEnd)
			rng.End = &e
		}
		return value.Value{Kind: value.KindRange, Range: rng}
	case value.KindRecordID:
		var keyVal value.Value
		if w.RIDKey != nil {
			keyVal = fromWire(*w.RIDKey)
		}
		return value.Value{Kind: value.KindRecordID, RecordID: value.RecordID{
			Table: w.RIDTable,
			Key:   value.RecordIDKeyFromValue(keyVal),
		}}
	case value.KindFile:
		return value.Value{Kind: value.KindFile, File: value.File{Bucket: w.FileBucket, Key: w.FileKey}}
	case value.KindNull:
		return value.Null()
	default:
		return value.None()
	}
}
