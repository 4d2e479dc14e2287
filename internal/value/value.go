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

// Package value implements the engine's tagged value union: the one
// type every record, parameter, index key and expression result is
// built from.
package value

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind discriminates Value's variants.
type Kind int

const (
	KindNone Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindDuration
	KindDatetime
	KindUuid
	KindBytes
	KindArray
	KindSet
	KindObject
	KindGeometry
	KindRange
	KindRecordID
	KindRegex
	KindFile
	KindClosure
)

// NumberKind discriminates Number's three representations.
type NumberKind int

const (
	NumberInt64 NumberKind = iota
	NumberFloat64
	NumberDecimal
)

// Number is the tagged numeric variant: an i64, an f64 or an arbitrary
// precision Decimal (shopspring/decimal).
type Number struct {
	Kind    NumberKind
	Int64   int64
	Float64 float64
	Decimal decimal.Decimal
}

func Int(v int64) Number   { return Number{Kind: NumberInt64, Int64: v} }
func Float(v float64) Number { return Number{Kind: NumberFloat64, Float64: v} }
func Dec(v decimal.Decimal) Number { return Number{Kind: NumberDecimal, Decimal: v} }

// AsFloat64 converts n to a float64 regardless of its representation,
// for callers (e.g. internal/hnsw's vector extraction) that only need
// an approximate numeric value rather than exact decimal semantics.
func (n Number) AsFloat64() float64 {
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

// File is a reference into a storage bucket.
type File struct {
	Bucket string
	Key    string
}

// Rng is the Range variant; Start/End are nil for an open end.
type Rng struct {
	Start *Value
	End   *Value
}

// Object preserves insertion order of its key set.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Clone returns a deep-enough copy for copy-on-write mutation.
func (o *Object) Clone() *Object {
	c := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		c.values[k] = v
	}
	return c
}

// Range over key/value pairs in insertion order.
func (o *Object) Range(fn func(key string, v Value) bool) {
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// RecordID identifies a single record: a table name plus a RecordIDKey.
type RecordID struct {
	Table string
	Key   RecordIDKey
}

// RecordIDKeyKind discriminates RecordIDKey's variants.
type RecordIDKeyKind int

const (
	RecordIDKeyNumber RecordIDKeyKind = iota
	RecordIDKeyString
	RecordIDKeyUuid
	RecordIDKeyArray
	RecordIDKeyObject
	RecordIDKeyRange
)

// RecordIDKey is the record-id-key union; it always round-trips
// losslessly to/from a Value.
type RecordIDKey struct {
	Kind   RecordIDKeyKind
	Number int64
	String string
	Uuid   uuid.UUID
	Array  []Value
	Object *Object
	Range  *Rng
}

// AsValue converts a RecordIDKey back to the Value it was carved from.
func (k RecordIDKey) AsValue() Value {
	switch k.Kind {
	case RecordIDKeyNumber:
		return Value{Kind: KindNumber, Number: Int(k.Number)}
	case RecordIDKeyString:
		return Value{Kind: KindString, String: k.String}
	case RecordIDKeyUuid:
		return Value{Kind: KindUuid, Uuid: k.Uuid}
	case RecordIDKeyArray:
		return Value{Kind: KindArray, Array: k.Array}
	case RecordIDKeyObject:
		return Value{Kind: KindObject, Object: k.Object}
	case RecordIDKeyRange:
		return Value{Kind: KindRange, Range: k.Range}
	default:
		return Value{Kind: KindNone}
	}
}

// RecordIDKeyFromValue carves a RecordIDKey out of a Value, used when a
// record-id component is supplied as an arbitrary value (e.g. `person:[1,2]`).
func RecordIDKeyFromValue(v Value) RecordIDKey {
	switch v.Kind {
	case KindNumber:
		return RecordIDKey{Kind: RecordIDKeyNumber, Number: v.Number.Int64}
	case KindString:
		return RecordIDKey{Kind: RecordIDKeyString, String: v.String}
	case KindUuid:
		return RecordIDKey{Kind: RecordIDKeyUuid, Uuid: v.Uuid}
	case KindArray:
		return RecordIDKey{Kind: RecordIDKeyArray, Array: v.Array}
	case KindObject:
		return RecordIDKey{Kind: RecordIDKeyObject, Object: v.Object}
	case KindRange:
		return RecordIDKey{Kind: RecordIDKeyRange, Range: v.Range}
	default:
		return RecordIDKey{Kind: RecordIDKeyString, String: ""}
	}
}

// Value is the engine's tagged union. Exactly one of the
// typed fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Bool     bool
	Number   Number
	String   string
	Duration time.Duration
	Datetime time.Time
	Uuid     uuid.UUID
	Bytes    []byte
	Array    []Value
	Set      []Value // duplicate-free by construction, see AddToSet
	Object   *Object
	Geometry any // geometry payload, format-agnostic beyond its name
	Range    *Rng
	RecordID RecordID
	Regex    string
	File     File
	Closure  any // never persisted
}

func None() Value { return Value{Kind: KindNone} }
func Null() Value { return Value{Kind: KindNull} }
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func Str(s string) Value { return Value{Kind: KindString, String: s} }
func Int64(v int64) Value { return Value{Kind: KindNumber, Number: Int(v)} }
func Float64(v float64) Value { return Value{Kind: KindNumber, Number: Float(v)} }
func Arr(items ...Value) Value { return Value{Kind: KindArray, Array: items} }
func Obj(o *Object) Value { return Value{Kind: KindObject, Object: o} }

// IsTruthy implements the engine's truthiness rule used by permission
// predicates, WHERE clauses and Filter: everything is truthy except
// None, Null, Bool(false), a zero Number, and an empty String.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNone, KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindNumber:
		switch v.Number.Kind {
		case NumberInt64:
			return v.Number.Int64 != 0
		case NumberFloat64:
			return v.Number.Float64 != 0
		case NumberDecimal:
			return !v.Number.Decimal.IsZero()
		}
		return false
	case KindString:
		return v.String != ""
	default:
		return true
	}
}

// AddToSet appends v to s only if no structurally-equal element is
// already present, preserving Set's duplicate-free invariant.
func AddToSet(s []Value, v Value) []Value {
	for _, existing := range s {
		if Equal(existing, v) {
			return s
		}
	}
	return append(s, v)
}
