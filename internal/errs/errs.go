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

// Package errs defines the engine's error taxonomy: a closed set of
// Kinds, plus a structured Error carrying the operation/table context
// that produced it.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Kinds are not Go types — callers switch on
// KindOf(err) rather than type-asserting concrete error structs.
type Kind int

const (
	// Storage kinds.
	TxFinished Kind = iota
	TxReadonly
	TxConflict
	TxKeyAlreadyExists

	// Not-found kinds.
	NsNotFound
	DbNotFound
	TbNotFound
	IxNotFound
	RecordNotFound
	ParamNotFound

	// Semantic kinds.
	SingleOnlyOutput
	RecordExists
	InvalidArguments
	InvalidPatch
	InvalidStatementTarget
	InvalidVectorValue
	IdiomRecursionLimitExceeded
	ReturnCoerce

	// Authorization kinds.
	PermissionDenied
	NsNotAllowed
	DbNotAllowed
	NoScopeFound

	// Runtime kinds.
	QueryTimedout
	QueryCancelled
	HttpDisabled
	FeatureNotYetImplemented
	InsufficientReserve
)

var kindNames = map[Kind]string{
	TxFinished:                  "TxFinished",
	TxReadonly:                  "TxReadonly",
	TxConflict:                  "TxConflict",
	TxKeyAlreadyExists:          "TxKeyAlreadyExists",
	NsNotFound:                  "NsNotFound",
	DbNotFound:                  "DbNotFound",
	TbNotFound:                  "TbNotFound",
	IxNotFound:                  "IxNotFound",
	RecordNotFound:              "RecordNotFound",
	ParamNotFound:               "ParamNotFound",
	SingleOnlyOutput:            "SingleOnlyOutput",
	RecordExists:                "RecordExists",
	InvalidArguments:            "InvalidArguments",
	InvalidPatch:                "InvalidPatch",
	InvalidStatementTarget:      "InvalidStatementTarget",
	InvalidVectorValue:          "InvalidVectorValue",
	IdiomRecursionLimitExceeded: "IdiomRecursionLimitExceeded",
	ReturnCoerce:                "ReturnCoerce",
	PermissionDenied:            "PermissionDenied",
	NsNotAllowed:                "NsNotAllowed",
	DbNotAllowed:                "DbNotAllowed",
	NoScopeFound:                "NoScopeFound",
	QueryTimedout:               "QueryTimedout",
	QueryCancelled:              "QueryCancelled",
	HttpDisabled:                "HttpDisabled",
	FeatureNotYetImplemented:    "FeatureNotYetImplemented",
	InsufficientReserve:         "InsufficientReserve",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is the engine's structured error. Op and Table are optional
// context attached at the call site that first noticed the failure;
// Cause chains to whatever underlying error (if any) triggered it.
type Error struct {
	Kind  Kind
	Op    string
	Table string
	Field string // the feature name carried by FeatureNotYetImplemented
	Cause error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Table != "" {
		msg += fmt.Sprintf(" table=%s", e.Table)
	}
	if e.Op != "" {
		msg += fmt.Sprintf(" op=%s", e.Op)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, so callers
// can write errors.Is(err, errs.New(errs.TxConflict)).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds a bare Error of the given Kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap builds an Error of the given Kind wrapping cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// NotFound builds a not-found Error scoped to a table.
func NotFound(kind Kind, table string) *Error {
	return &Error{Kind: kind, Table: table}
}

// Denied builds a PermissionDenied{op,table} error.
func Denied(op, table string) *Error {
	return &Error{Kind: PermissionDenied, Op: op, Table: table}
}

// NotImplemented builds a FeatureNotYetImplemented{feature} error.
func NotImplemented(feature string) *Error {
	return &Error{Kind: FeatureNotYetImplemented, Field: feature}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error.
// The second return is false for errors outside this taxonomy.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
