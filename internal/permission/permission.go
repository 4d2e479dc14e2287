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

// Package permission implements the per-row permission layer:
// compiling a catalog.Permission into a PhysicalPermission at plan
// time, then evaluating it once per row at execution time.
package permission

import (
	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/value"
)

// Kind discriminates a compiled PhysicalPermission.
type Kind int

const (
	Allow Kind = iota
	Deny
	Conditional
)

// Physical is the compiled form of a catalog.Permission.
type Physical struct {
	Kind Kind
	Expr expr.Expr
}

// Compile lifts a catalog.Permission to its Physical form. This is a
// pure, cacheable function of the catalog definition — the planner
// calls it once per Scan/Create/Update/Delete operator it builds, not
// once per row.
func Compile(p catalog.Permission) Physical {
	switch p.Kind {
	case catalog.PermissionFull:
		return Physical{Kind: Allow}
	case catalog.PermissionSpecific:
		return Physical{Kind: Conditional, Expr: p.Expr}
	default:
		return Physical{Kind: Deny}
	}
}

// Op names the operation a permission check or denial is for, used by
// errs.Denied's PermissionDenied{op,table}.
type Op string

const (
	OpSelect Op = "select"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Check evaluates a compiled permission against one row. isRoot
// actors bypass the check entirely: root reads every row
// regardless of PERMISSIONS. row is bound as $this in a child context
// built via withThis, so the row is bound as $this
// inside a child context".
func Check(perm Physical, isRoot bool, row value.Value, withThis func(value.Value) expr.EvalContext) (bool, error) {
	if isRoot {
		return true, nil
	}
	switch perm.Kind {
	case Allow:
		return true, nil
	case Deny:
		return false, nil
	case Conditional:
		ctx := withThis(row)
		v, err := perm.Expr.Evaluate(ctx)
		if err != nil {
			return false, err
		}
		return v.IsTruthy(), nil
	}
	return false, nil
}

// Enforce checks perm and, on write paths, turns a denial into a
// PermissionDenied{op,table} error instead of a silent drop.
func Enforce(perm Physical, isRoot bool, row value.Value, op Op, table string, withThis func(value.Value) expr.EvalContext) error {
	ok, err := Check(perm, isRoot, row, withThis)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Denied(string(op), table)
	}
	return nil
}

// FieldRead is the per-field analogue: denied reads replace the
// field's value with None instead of dropping the whole row.
func FieldRead(perm Physical, isRoot bool, row value.Value, withThis func(value.Value) expr.EvalContext) (value.Value, bool, error) {
	ok, err := Check(perm, isRoot, row, withThis)
	if err != nil {
		return value.None(), false, err
	}
	return value.None(), ok, nil
}
