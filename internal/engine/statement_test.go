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

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStatementVariantsImplementMarker pins every Statement variant
// to the marker interface, so a future variant that forgets its
// statement() method fails to compile rather than silently falling
// through the planner's switch default.
func TestStatementVariantsImplementMarker(t *testing.T) {
	var stmts []Statement = []Statement{
		&SelectStatement{},
		&CreateStatement{},
		&UpdateStatement{},
		&DeleteStatement{},
		&InsertStatement{},
		&UpsertStatement{},
		&RelateStatement{},
		&LetStatement{},
		&UseStatement{},
		&SleepStatement{},
		&InfoIndexStatement{},
		&LiveSelectStatement{},
		&KillStatement{},
		&RemoveTableStatement{},
		&ShowChangesStatement{},
		&BlockStatement{},
		&ForeachStatement{},
		&IfElseStatement{},
		&BreakStatement{},
		&ContinueStatement{},
		&ReturnStatement{},
	}
	require.Len(t, stmts, 21)
}
