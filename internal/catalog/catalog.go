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

// Package catalog implements the namespace/database/table/field/index/
// user definition registry, plus the read-through cache
// that serves them to the planner and executor. Definitions are held
// in process memory under a name-keyed lookup structure (they are not
// read through internal/mvcc's versioned store), together with the
// per-table cache-invalidation timestamp.
package catalog

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/expr"
)

// NamespaceId, DatabaseId and IndexId are the stable dense ids every
// definition carries alongside its name.
type NamespaceId uint32
type DatabaseId uint32
type IndexId uint32

// PermissionKind discriminates Permission's three variants.
type PermissionKind int

const (
	PermissionNone PermissionKind = iota
	PermissionFull
	PermissionSpecific
)

// Permission is the `Permission := None | Full | Specific(Expr)`.
// Specific carries the catalog-authored predicate expression; it is
// compiled to a PhysicalPermission by internal/permission at plan
// time.
type Permission struct {
	Kind PermissionKind
	Expr expr.Expr // only set when Kind == PermissionSpecific
}

func NoneP() Permission   { return Permission{Kind: PermissionNone} }
func FullP() Permission   { return Permission{Kind: PermissionFull} }
func SpecificP(e expr.Expr) Permission { return Permission{Kind: PermissionSpecific, Expr: e} }

// Permissions is the per-entity CRUD permission set.
type Permissions struct {
	Select Permission
	Create Permission
	Update Permission
	Delete Permission
}

// FullPermissions grants unrestricted access, the default for a
// freshly defined entity until PERMISSIONS is specified.
func FullPermissions() Permissions {
	return Permissions{Select: FullP(), Create: FullP(), Update: FullP(), Delete: FullP()}
}

// TableType mirrors the `TYPE NORMAL|RELATION|ANY` table option.
type TableType int

const (
	TableNormal TableType = iota
	TableRelation
	TableAny
)

// NamespaceDef, DatabaseDef, TableDef, FieldDef, IndexDef, UserDef,
// AccessDef, FunctionDef, AnalyzerDef and ParamDef are the catalog
// entities: each carries a stable id triple plus name, an optional
// comment, creation-time options, and (where applicable) a
// Permissions set.
type NamespaceDef struct {
	ID      NamespaceId
	Name    string
	Comment string
}

type DatabaseDef struct {
	ID        DatabaseId
	NsID      NamespaceId
	Name      string
	Comment   string
	ChangeFeed *ChangeFeedOption
}

// ChangeFeedOption is the CHANGEFEED duration a table (or, inherited,
// a database) can declare.
type ChangeFeedOption struct {
	Duration int64 // nanoseconds; 0 = unset
}

// ViewDefinition marks a table as a materialized / aggregated /
// select-based foreign view. SourceTables drives cascading
// invalidation: when a source table's definition changes, every view
// built on it must also be invalidated.
type ViewDefinition struct {
	Expr         expr.Expr // the SELECT this view projects
	SourceTables []string
	GroupBy      []string
}

type TableDef struct {
	ID          uint32
	NsID        NamespaceId
	DbID        DatabaseId
	Name        string
	Comment     string
	SchemaFull  bool
	Type        TableType
	ChangeFeed  *ChangeFeedOption
	Permissions Permissions
	View        *ViewDefinition

	// CacheTablesTs is bumped (a fresh UUIDv7-shaped id) on every DDL
	// commit that touches this table, so read-through caches can
	// detect staleness.
	CacheTablesTs uuid.UUID
}

// FieldDef describes one field of a table.
type FieldDef struct {
	ID          uint32
	TableID     uint32
	Name        string
	Kind        string // the declared type name; the type grammar itself is parser scope
	Assert      expr.Expr
	Value       expr.Expr
	Default     expr.Expr
	Flex        bool
	Permissions Permissions
}

// IndexKind discriminates the secondary-index subsystems the planner
// consults.
type IndexKind int

const (
	IndexBTree IndexKind = iota
	IndexFullText
	IndexHNSW
)

type IndexDef struct {
	ID      IndexId
	TableID uint32
	Name    string
	Fields  []string
	Kind    IndexKind

	// Full-text options.
	Analyzer string

	// HNSW options.
	Dimension     int
	Distance      string
	M             int
	MMax          int
	MMax0         int
	EfConstruction int
	ML            float64
	Heuristic     string
}

type UserDef struct {
	Name        string
	NsID        *NamespaceId
	DbID        *DatabaseId
	PasswordHash string
	Roles       []string
}

type AccessDef struct {
	Name string
	NsID *NamespaceId
	DbID *DatabaseId
}

type FunctionDef struct {
	Name    string
	NsID    NamespaceId
	DbID    DatabaseId
	Args    []string
	Body    expr.Expr
	Permissions Permission
}

// Splitter and Filter name the full-text analyzer's pipeline stages;
// concrete behavior lives in internal/fulltext, which resolves these
// names.
type AnalyzerDef struct {
	Name      string
	NsID      NamespaceId
	DbID      DatabaseId
	Splitters []string
	Filters   []string
}

type ParamDef struct {
	Name  string
	NsID  NamespaceId
	DbID  DatabaseId
	Value expr.Expr
}

// tableCache holds one database's worth of table/field/index
// definitions plus the name indexes used to look them up.
type tableCache struct {
	tables  map[string]*TableDef
	fields  map[string]map[string]*FieldDef // table -> field name -> def
	indexes map[string]map[string]*IndexDef // table -> index name -> def
}

func newTableCache() *tableCache {
	return &tableCache{
		tables:  make(map[string]*TableDef),
		fields:  make(map[string]map[string]*FieldDef),
		indexes: make(map[string]map[string]*IndexDef),
	}
}

// Catalog is the definition read-through cache, keyed by
// (ns, db, ...name). It holds every definition kind in process memory;
// DDL statements mutate it directly (definitions are small and the
// catalog itself is not versioned through the KVS in this core — the
// surrounding engine is responsible for also persisting definitions
// via internal/keys + internal/codec if it wants them durable across
// restarts, which is outside this component's contract).
type Catalog struct {
	mu sync.RWMutex

	namespaces map[string]*NamespaceDef
	databases  map[string]map[string]*DatabaseDef // ns -> db name -> def
	dbCache    map[string]*tableCache              // "ns\x00db" -> cache
	users      map[string]map[string]*UserDef       // scope key -> user name -> def
	analyzers  map[string]map[string]*AnalyzerDef
	functions  map[string]map[string]*FunctionDef
	params     map[string]map[string]*ParamDef

	nextNsID  uint32
	nextDbID  uint32
	nextTbID  uint32
	nextIxID  uint32
}

func New() *Catalog {
	return &Catalog{
		namespaces: make(map[string]*NamespaceDef),
		databases:  make(map[string]map[string]*DatabaseDef),
		dbCache:    make(map[string]*tableCache),
		users:      make(map[string]map[string]*UserDef),
		analyzers:  make(map[string]map[string]*AnalyzerDef),
		functions:  make(map[string]map[string]*FunctionDef),
		params:     make(map[string]map[string]*ParamDef),
	}
}

func dbKey(ns, db string) string { return ns + "\x00" + db }

func (c *Catalog) cacheFor(ns, db string) *tableCache {
	key := dbKey(ns, db)
	tc, ok := c.dbCache[key]
	if !ok {
		tc = newTableCache()
		c.dbCache[key] = tc
	}
	return tc
}
