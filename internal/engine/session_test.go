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
	"time"

	"github.com/nexusdb/core/internal/batch"
	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/exec"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/livequery"
	"github.com/nexusdb/core/internal/mvcc"
	"github.com/nexusdb/core/internal/value"
	"github.com/nexusdb/core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct{ sent []livequery.Notification }

func (b *fakeBroker) Send(n livequery.Notification) { b.sent = append(b.sent, n) }

func metricsForTest(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.New(prometheus.NewRegistry())
}

// rawSession opens a session still at LevelRoot, auth, and catalog
// untouched, for tests exercising USE itself or the context-level
// guard that rejects a statement before USE has run.
func rawSession(t *testing.T, auth exec.Auth) (*Session, *catalog.Catalog, *fakeBroker) {
	t.Helper()
	cat := catalog.New()
	store := kvs.NewEngine(mvcc.NewMemoryStore(), batch.DefaultConfig(), kvs.Never, 0)
	broker := &fakeBroker{}
	sess := NewSession(auth, cat, store, metricsForTest(t), livequery.NewRegistry(), &livequery.VersionstampSource{}, broker)
	return sess, cat, broker
}

// newTestSession is rawSession already USEd into namespace "n",
// database "d", the selection every CRUD statement test below
// operates against.
func newTestSession(t *testing.T) (*Session, *catalog.Catalog, *fakeBroker) {
	t.Helper()
	sess, cat, broker := rawSession(t, exec.Auth{IsRoot: true})
	cat.DefineNamespace("n", "")
	_, err := cat.DefineDatabase("n", "d", "")
	require.NoError(t, err)
	res := sess.Execute(&UseStatement{NS: "n", DB: "d"})
	require.NoError(t, res.Error)
	return sess, cat, broker
}

func contentObject(fields map[string]value.Value) expr.Expr {
	obj := value.NewObject()
	for k, v := range fields {
		obj.Set(k, v)
	}
	return &expr.Literal{Value: value.Obj(obj)}
}

func TestSessionCreateThenSelect(t *testing.T) {
	sess, _, _ := newTestSession(t)

	createRes := sess.Execute(&CreateStatement{
		NS: "n", DB: "d", Table: "person",
		Content: contentObject(map[string]value.Value{"name": value.Str("ferris")}),
	})
	require.NoError(t, createRes.Error)
	require.Equal(t, "OK", createRes.Status)
	require.Len(t, createRes.Result, 1)

	selectRes := sess.Execute(&SelectStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, selectRes.Error)
	require.Len(t, selectRes.Result, 1)
}

func TestSessionUpdateRewritesRow(t *testing.T) {
	sess, _, _ := newTestSession(t)

	sess.Execute(&CreateStatement{
		NS: "n", DB: "d", Table: "person",
		Content: contentObject(map[string]value.Value{"name": value.Str("ferris")}),
	})

	updateRes := sess.Execute(&UpdateStatement{
		NS: "n", DB: "d", Table: "person",
		Compute: contentObject(map[string]value.Value{"name": value.Str("ferris2")}),
	})
	require.NoError(t, updateRes.Error)
	require.Len(t, updateRes.Result, 1)

	got, ok := updateRes.Result[0].Object.Get("name")
	require.True(t, ok)
	require.Equal(t, "ferris2", got.String)
}

func TestSessionDeleteRemovesRow(t *testing.T) {
	sess, _, _ := newTestSession(t)

	sess.Execute(&CreateStatement{
		NS: "n", DB: "d", Table: "person",
		Content: contentObject(map[string]value.Value{"name": value.Str("ferris")}),
	})

	deleteRes := sess.Execute(&DeleteStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, deleteRes.Error)
	require.Len(t, deleteRes.Result, 1)

	selectRes := sess.Execute(&SelectStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, selectRes.Error)
	require.Empty(t, selectRes.Result)
}

func TestSessionRemoveTableDropsRecordsCatalogAndLiveQueries(t *testing.T) {
	sess, cat, broker := newTestSession(t)

	sess.Execute(&CreateStatement{
		NS: "n", DB: "d", Table: "person",
		Content: contentObject(map[string]value.Value{"name": value.Str("ferris")}),
	})
	cat.DefineTable("n", "d", "person", nil)

	liveRes := sess.Execute(&LiveSelectStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, liveRes.Error)

	res := sess.Execute(&RemoveTableStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, res.Error)
	require.Equal(t, "OK", res.Status)

	_, err := cat.Table("n", "d", "person")
	require.Error(t, err)

	selectRes := sess.Execute(&SelectStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, selectRes.Error)
	require.Empty(t, selectRes.Result)

	require.Len(t, broker.sent, 1)
	require.Equal(t, livequery.ActionKilled, broker.sent[0].Action)
}

func TestSessionLetPersistsAcrossStatements(t *testing.T) {
	sess, _, _ := rawSession(t, exec.Auth{IsRoot: true})

	letRes := sess.Execute(&LetStatement{Param: "greeting", Value: &expr.Literal{Value: value.Str("hi")}})
	require.NoError(t, letRes.Error)

	v, ok := sess.ctx.Param("greeting")
	require.True(t, ok)
	require.Equal(t, "hi", v.String)
}

func TestSessionUseNarrowsContext(t *testing.T) {
	sess, cat, _ := rawSession(t, exec.Auth{IsRoot: true})
	cat.DefineNamespace("n", "")
	_, err := cat.DefineDatabase("n", "d", "")
	require.NoError(t, err)

	res := sess.Execute(&UseStatement{NS: "n", DB: "d"})
	require.NoError(t, res.Error)
	require.Equal(t, expr.LevelDatabase, sess.ctx.Level())
}

func TestSessionSelectRejectedWithoutDatabaseContext(t *testing.T) {
	sess, _, _ := rawSession(t, exec.Auth{IsRoot: true})

	// A fresh Session starts at LevelRoot but Scan requires
	// LevelDatabase; Satisfies(LevelDatabase) is false until USE has
	// run, and Execute surfaces that as an error instead of touching a
	// nil Database().
	res := sess.Execute(&SelectStatement{NS: "n", DB: "d", Table: "person"})
	require.Error(t, res.Error)
}

func TestSessionSleepCompletes(t *testing.T) {
	sess, _, _ := rawSession(t, exec.Auth{IsRoot: true})
	res := sess.Execute(&SleepStatement{Duration: time.Millisecond})
	require.NoError(t, res.Error)
	require.Equal(t, "OK", res.Status)
}

func TestSessionInfoIndexReportsNotBuilding(t *testing.T) {
	sess, _, _ := newTestSession(t)
	res := sess.Execute(&InfoIndexStatement{NS: "n", DB: "d", Table: "person", Index: "vec_ix"})
	require.NoError(t, res.Error)
	require.Len(t, res.Result, 1)
}

func TestSessionLiveSelectThenKill(t *testing.T) {
	sess, _, _ := rawSession(t, exec.Auth{IsRoot: true})

	liveRes := sess.Execute(&LiveSelectStatement{NS: "n", DB: "d", Table: "person"})
	require.NoError(t, liveRes.Error)
	require.Len(t, liveRes.Result, 1)

	killRes := sess.Execute(&KillStatement{})
	require.NoError(t, killRes.Error)
	require.Equal(t, "OK", killRes.Status)
}

func TestSessionCreatePermissionDenied(t *testing.T) {
	sess, cat, _ := rawSession(t, exec.Auth{IsRoot: false})
	cat.DefineNamespace("n", "")
	_, err := cat.DefineDatabase("n", "d", "")
	require.NoError(t, err)
	cat.DefineTable("n", "d", "person", func(def *catalog.TableDef) {
		def.Permissions.Create = catalog.NoneP()
	})
	require.NoError(t, sess.Execute(&UseStatement{NS: "n", DB: "d"}).Error)

	res := sess.Execute(&CreateStatement{
		NS: "n", DB: "d", Table: "person",
		Content: contentObject(map[string]value.Value{"name": value.Str("ferris")}),
	})
	require.Error(t, res.Error)
}
