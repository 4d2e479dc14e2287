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
	"github.com/nexusdb/core/internal/catalog"
	"github.com/nexusdb/core/internal/errs"
	"github.com/nexusdb/core/internal/expr"
	"github.com/nexusdb/core/internal/fulltext"
	"github.com/nexusdb/core/internal/hnsw"
	"github.com/nexusdb/core/internal/kvs"
	"github.com/nexusdb/core/internal/permission"
	"github.com/nexusdb/core/internal/physical"
	"github.com/nexusdb/core/pkg/metrics"
	"github.com/nexusdb/core/pkg/syncmap"
)

// planner lowers Statements into internal/physical.Operator trees,
// resolving catalog permissions and secondary-index
// maintainers along the way. It holds the one
// piece of state that can't simply be recomputed from the catalog on
// every statement: each HNSW index's in-memory Graph, which has to
// survive across the whole session rather than being rebuilt per
// plan.
type planner struct {
	catalog *catalog.Catalog
	metrics *metrics.Metrics

	graphs *syncmap.Map[string, *hnsw.Graph]
}

func newPlanner(cat *catalog.Catalog, m *metrics.Metrics) *planner {
	return &planner{catalog: cat, metrics: m, graphs: syncmap.NewMap[string, *hnsw.Graph]()}
}

func graphKey(ns, db, tb, ix string) string { return ns + "\x00" + db + "\x00" + tb + "\x00" + ix }

func (p *planner) graphFor(ns, db, tb string, def *catalog.IndexDef) *hnsw.Graph {
	key := graphKey(ns, db, tb, def.Name)
	if g, ok := p.graphs.Load(key); ok {
		return g
	}
	params := hnsw.Params{
		M: def.M, MMax: def.MMax, MMax0: def.MMax0,
		EfConstruction: def.EfConstruction, ML: def.ML,
		Distance:  hnsw.ParseDistance(def.Distance),
		Heuristic: hnsw.ParseHeuristic(def.Heuristic),
	}
	if params.M == 0 {
		params = hnsw.DefaultParams()
		params.Distance = hnsw.ParseDistance(def.Distance)
		params.Heuristic = hnsw.ParseHeuristic(def.Heuristic)
	}
	g, _ := p.graphs.LoadOrStore(key, hnsw.New(params, int64(def.ID)))
	return g
}

// indexWriters builds one internal/physical.IndexWriter per secondary
// index defined on ns/db/tb, skipping IndexBTree.
func (p *planner) indexWriters(ns, db, tb string) []physical.IndexWriter {
	defs := p.catalog.Indexes(ns, db, tb)
	writers := make([]physical.IndexWriter, 0, len(defs))
	for _, def := range defs {
		switch def.Kind {
		case catalog.IndexFullText:
			analyzer := fulltext.NewDefault()
			if def.Analyzer != "" {
				if a, err := p.catalog.Analyzer(ns, db, def.Analyzer); err == nil {
					analyzer = fulltext.Resolve(a.Splitters, a.Filters)
				}
			}
			idx := &fulltext.Index{NS: ns, DB: db, Table: tb, Name: def.Name, Analyzer: analyzer}
			writers = append(writers, &fulltext.Maintainer{Index: idx, Fields: def.Fields})
		case catalog.IndexHNSW:
			store := &hnsw.Store{NS: ns, DB: db, Table: tb, Name: def.Name, Graph: p.graphFor(ns, db, tb, def)}
			field := def.Name
			if len(def.Fields) > 0 {
				field = def.Fields[0]
			}
			writers = append(writers, &hnsw.Maintainer{Store: store, Field: field})
		}
	}
	return writers
}

func (p *planner) permissions(ns, db, tb string) catalog.Permissions {
	def, err := p.catalog.Table(ns, db, tb)
	if err != nil {
		// A schemaless table has no catalog definition at
		// all; record-users get None on every operation until a
		// DEFINE TABLE gives it real permissions.
		return catalog.Permissions{
			Select: catalog.NoneP(), Create: catalog.NoneP(),
			Update: catalog.NoneP(), Delete: catalog.NoneP(),
		}
	}
	return def.Permissions
}

// plan lowers one Statement into its root Operator. direction/batch
// tuning is left at Scan's defaults; a cost-based planner choosing
// index scans over full scans is out of this core's scope.
func (p *planner) plan(stmt Statement) (physical.Operator, error) {
	switch s := stmt.(type) {
	case *SelectStatement:
		return p.planSelect(s)
	case *CreateStatement:
		return &physical.Create{
			NS: s.NS, DB: s.DB, Table: s.Table,
			Key: s.Key, Content: s.Content,
			Permission: permission.Compile(p.permissions(s.NS, s.DB, s.Table).Create),
			Indexes:    p.indexWriters(s.NS, s.DB, s.Table),
			Metrics:    p.metrics,
		}, nil
	case *UpdateStatement:
		child := p.planScan(s.NS, s.DB, s.Table, s.Where, s.Only, false)
		return &physical.Update{
			NS: s.NS, DB: s.DB, Table: s.Table,
			Child: child, Compute: s.Compute,
			Mode: s.Mode, Patch: s.Patch,
			Permission: permission.Compile(p.permissions(s.NS, s.DB, s.Table).Update),
			Indexes:    p.indexWriters(s.NS, s.DB, s.Table),
			Metrics:    p.metrics,
		}, nil
	case *InsertStatement:
		return &physical.Insert{
			NS: s.NS, DB: s.DB, Table: s.Table,
			Rows: s.Rows, IgnoreExisting: s.IgnoreExisting,
			Permission: permission.Compile(p.permissions(s.NS, s.DB, s.Table).Create),
			Indexes:    p.indexWriters(s.NS, s.DB, s.Table),
			Metrics:    p.metrics,
		}, nil
	case *UpsertStatement:
		perms := p.permissions(s.NS, s.DB, s.Table)
		return &physical.Upsert{
			NS: s.NS, DB: s.DB, Table: s.Table,
			Key: s.Key, Compute: s.Compute,
			CreatePerm: permission.Compile(perms.Create),
			UpdatePerm: permission.Compile(perms.Update),
			Indexes:    p.indexWriters(s.NS, s.DB, s.Table),
			Metrics:    p.metrics,
		}, nil
	case *RelateStatement:
		return &physical.Relate{
			NS: s.NS, DB: s.DB, EdgeTable: s.EdgeTable,
			From: s.From, To: s.To, Key: s.Key, Content: s.Content,
			Permission: permission.Compile(p.permissions(s.NS, s.DB, s.EdgeTable).Create),
			Indexes:    p.indexWriters(s.NS, s.DB, s.EdgeTable),
			Metrics:    p.metrics,
		}, nil
	case *DeleteStatement:
		child := p.planScan(s.NS, s.DB, s.Table, s.Where, s.Only, false)
		return &physical.Delete{
			NS: s.NS, DB: s.DB, Table: s.Table,
			Child: child,
			Permission: permission.Compile(p.permissions(s.NS, s.DB, s.Table).Delete),
			Indexes:    p.indexWriters(s.NS, s.DB, s.Table),
			Metrics:    p.metrics,
		}, nil
	case *LetStatement:
		return &physical.Let{Param: s.Param, Value: s.Value}, nil
	case *UseStatement:
		return &physical.Use{Catalog: p.catalog, NS: s.NS, DB: s.DB}, nil
	case *SleepStatement:
		return &physical.Sleep{Duration: s.Duration}, nil
	case *InfoIndexStatement:
		return &physical.InfoIndex{IndexName: s.Index}, nil
	default:
		return nil, errs.NotImplemented("statement kind has no physical plan")
	}
}

// planScan builds the read-path Scan (+ Filter, + Only) shared by
// SELECT, UPDATE's row selection and DELETE's row selection.
func (p *planner) planScan(ns, db, tb string, where expr.Expr, only bool, onlyRequired bool) physical.Operator {
	var root physical.Operator = &physical.Scan{
		NS: ns, DB: db, Table: tb,
		Select:    permission.Compile(p.permissions(ns, db, tb).Select),
		Direction: kvs.Forward,
		Metrics:   p.metrics,
	}
	if where != nil {
		root = &physical.Filter{Child: root, Predicate: where, Metrics: p.metrics}
	}
	if only {
		root = &physical.Only{Child: root, Required: onlyRequired}
	}
	return root
}

// searchRoot builds the index-sourced read root when the statement
// asked for a vector or full-text search instead of a table scan.
func (p *planner) searchRoot(s *SelectStatement) (physical.Operator, error) {
	sel := permission.Compile(p.permissions(s.NS, s.DB, s.Table).Select)
	if s.Knn != nil {
		def, err := p.catalog.Index(s.NS, s.DB, s.Table, s.Knn.Index)
		if err != nil {
			return nil, err
		}
		store := &hnsw.Store{NS: s.NS, DB: s.DB, Table: s.Table, Name: def.Name, Graph: p.graphFor(s.NS, s.DB, s.Table, def)}
		return &physical.VectorSearch{
			NS: s.NS, DB: s.DB, Table: s.Table,
			Searcher: store, Query: s.Knn.Target, K: s.Knn.K, Ef: s.Knn.Ef,
			Select: sel, Metrics: p.metrics,
		}, nil
	}
	def, err := p.catalog.Index(s.NS, s.DB, s.Table, s.Match.Index)
	if err != nil {
		return nil, err
	}
	analyzer := fulltext.NewDefault()
	if def.Analyzer != "" {
		if a, aerr := p.catalog.Analyzer(s.NS, s.DB, def.Analyzer); aerr == nil {
			analyzer = fulltext.Resolve(a.Splitters, a.Filters)
		}
	}
	idx := &fulltext.Index{NS: s.NS, DB: s.DB, Table: s.Table, Name: def.Name, Analyzer: analyzer}
	return &physical.TextSearch{
		NS: s.NS, DB: s.DB, Table: s.Table,
		Searcher: idx, Term: s.Match.Term, TopK: s.Match.TopK,
		Select: sel, Metrics: p.metrics,
	}, nil
}

func (p *planner) planSelect(s *SelectStatement) (physical.Operator, error) {
	var root physical.Operator
	if s.Knn != nil || s.Match != nil {
		searched, err := p.searchRoot(s)
		if err != nil {
			return nil, err
		}
		root = searched
		if s.Where != nil {
			root = &physical.Filter{Child: root, Predicate: s.Where, Metrics: p.metrics}
		}
		if s.Only {
			root = &physical.Only{Child: root, Required: s.OnlyRequired}
		}
	} else {
		root = p.planScan(s.NS, s.DB, s.Table, s.Where, s.Only, s.OnlyRequired)
	}
	if len(s.GroupBy) > 0 || len(s.Aggregates) > 0 {
		root = &physical.GroupAggregate{
			Child: root, GroupBy: s.GroupBy, GroupName: s.GroupNames, Aggs: s.Aggregates,
		}
	}
	if len(s.OrderBy) > 0 && !root.OutputOrdering().Satisfies(physical.SortedOutput(s.OrderBy...)) {
		root = &physical.Sort{Child: root, Keys: s.OrderBy, TopK: s.TopK}
	}
	if s.Start > 0 || s.Limit > 0 {
		root = &physical.LimitStart{Child: root, Start: s.Start, Limit: s.Limit}
	}
	if s.Value != nil {
		root = &physical.ProjectValue{Child: root, Value: s.Value, Metrics: p.metrics}
	} else if len(s.Fields) > 0 {
		root = &physical.Project{Child: root, Fields: s.Fields, Metrics: p.metrics}
	}
	return root, nil
}
