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

package catalog

import (
	"github.com/google/uuid"
	"github.com/nexusdb/core/internal/errs"
)

// DefineNamespace creates (or returns the existing) namespace ns.
func (c *Catalog) DefineNamespace(ns, comment string) *NamespaceDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	if def, ok := c.namespaces[ns]; ok {
		return def
	}
	c.nextNsID++
	def := &NamespaceDef{ID: NamespaceId(c.nextNsID), Name: ns, Comment: comment}
	c.namespaces[ns] = def
	return def
}

// Namespace looks up an existing namespace definition.
func (c *Catalog) Namespace(ns string) (*NamespaceDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.namespaces[ns]
	if !ok {
		return nil, errs.NotFound(errs.NsNotFound, ns)
	}
	return def, nil
}

// DefineDatabase creates (or returns the existing) database db under ns.
func (c *Catalog) DefineDatabase(ns, db, comment string) (*DatabaseDef, error) {
	nsDef, err := c.ensureNamespace(ns)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dbs, ok := c.databases[ns]
	if !ok {
		dbs = make(map[string]*DatabaseDef)
		c.databases[ns] = dbs
	}
	if def, ok := dbs[db]; ok {
		return def, nil
	}
	c.nextDbID++
	def := &DatabaseDef{ID: DatabaseId(c.nextDbID), NsID: nsDef.ID, Name: db, Comment: comment}
	dbs[db] = def
	return def, nil
}

func (c *Catalog) ensureNamespace(ns string) (*NamespaceDef, error) {
	c.mu.RLock()
	def, ok := c.namespaces[ns]
	c.mu.RUnlock()
	if ok {
		return def, nil
	}
	return c.DefineNamespace(ns, ""), nil
}

// Database looks up an existing database definition.
func (c *Catalog) Database(ns, db string) (*DatabaseDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.namespaces[ns]; !ok {
		return nil, errs.NotFound(errs.NsNotFound, ns)
	}
	dbs, ok := c.databases[ns]
	if !ok {
		return nil, errs.NotFound(errs.DbNotFound, db)
	}
	def, ok := dbs[db]
	if !ok {
		return nil, errs.NotFound(errs.DbNotFound, db)
	}
	return def, nil
}

// DefineTable creates (or returns the existing) table tb, bumping its
// CacheTablesTs so observers holding a stale copy invalidate.
func (c *Catalog) DefineTable(ns, db, tb string, opts func(*TableDef)) *TableDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc := c.cacheFor(ns, db)
	def, existed := tc.tables[tb]
	if !existed {
		c.nextTbID++
		def = &TableDef{
			ID:          c.nextTbID,
			Name:        tb,
			Permissions: FullPermissions(),
		}
		tc.tables[tb] = def
	}
	if opts != nil {
		opts(def)
	}
	def.CacheTablesTs = uuid.Must(uuid.NewV7())
	return def
}

// Table looks up a table definition. A schemaless table (no DEFINE
// TABLE ever issued) has no definition; callers must treat it as
// None permission for record-users.
func (c *Catalog) Table(ns, db, tb string) (*TableDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return nil, errs.NotFound(errs.TbNotFound, tb)
	}
	def, ok := tc.tables[tb]
	if !ok {
		return nil, errs.NotFound(errs.TbNotFound, tb)
	}
	return def, nil
}

// RemoveTable deletes a table's definition, its fields and indexes
// from the catalog. The caller (the REMOVE TABLE operator) is
// responsible for also deleting the table's key-space prefix from the
// KVS.
func (c *Catalog) RemoveTable(ns, db, tb string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return
	}
	delete(tc.tables, tb)
	delete(tc.fields, tb)
	delete(tc.indexes, tb)
}

// DefineField creates or replaces a field definition on a table.
func (c *Catalog) DefineField(ns, db, tb string, field *FieldDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc := c.cacheFor(ns, db)
	fields, ok := tc.fields[tb]
	if !ok {
		fields = make(map[string]*FieldDef)
		tc.fields[tb] = fields
	}
	fields[field.Name] = field
	if t, ok := tc.tables[tb]; ok {
		t.CacheTablesTs = uuid.Must(uuid.NewV7())
	}
}

// Fields returns every field defined on a table, in no particular
// order; the catalog does not record the order fields were defined in.
func (c *Catalog) Fields(ns, db, tb string) []*FieldDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return nil
	}
	fields := tc.fields[tb]
	out := make([]*FieldDef, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	return out
}

// DefineIndex creates or replaces an index definition on a table.
func (c *Catalog) DefineIndex(ns, db, tb string, ix *IndexDef) *IndexDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc := c.cacheFor(ns, db)
	ixs, ok := tc.indexes[tb]
	if !ok {
		ixs = make(map[string]*IndexDef)
		tc.indexes[tb] = ixs
	}
	if ix.ID == 0 {
		c.nextIxID++
		ix.ID = IndexId(c.nextIxID)
	}
	ixs[ix.Name] = ix
	if t, ok := tc.tables[tb]; ok {
		t.CacheTablesTs = uuid.Must(uuid.NewV7())
	}
	return ix
}

// Index looks up one index definition by name.
func (c *Catalog) Index(ns, db, tb, name string) (*IndexDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return nil, errs.NotFound(errs.IxNotFound, name)
	}
	ixs, ok := tc.indexes[tb]
	if !ok {
		return nil, errs.NotFound(errs.IxNotFound, name)
	}
	ix, ok := ixs[name]
	if !ok {
		return nil, errs.NotFound(errs.IxNotFound, name)
	}
	return ix, nil
}

// Indexes returns every index defined on a table.
func (c *Catalog) Indexes(ns, db, tb string) []*IndexDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return nil
	}
	ixs := tc.indexes[tb]
	out := make([]*IndexDef, 0, len(ixs))
	for _, ix := range ixs {
		out = append(out, ix)
	}
	return out
}

// RemoveIndex deletes one index definition.
func (c *Catalog) RemoveIndex(ns, db, tb, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return
	}
	if ixs, ok := tc.indexes[tb]; ok {
		delete(ixs, name)
	}
	if t, ok := tc.tables[tb]; ok {
		t.CacheTablesTs = uuid.Must(uuid.NewV7())
	}
}

// DefineUser registers a user scoped to root (ns == "" && db == ""),
// a namespace, or a database.
func (c *Catalog) DefineUser(ns, db string, user *UserDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := dbKey(ns, db)
	users, ok := c.users[key]
	if !ok {
		users = make(map[string]*UserDef)
		c.users[key] = users
	}
	users[user.Name] = user
}

// User looks up a user definition scoped to ns/db.
func (c *Catalog) User(ns, db, name string) (*UserDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users, ok := c.users[dbKey(ns, db)]
	if !ok {
		return nil, errs.NotFound(errs.RecordNotFound, name)
	}
	u, ok := users[name]
	if !ok {
		return nil, errs.NotFound(errs.RecordNotFound, name)
	}
	return u, nil
}

// DefineAnalyzer registers a full-text analyzer pipeline.
func (c *Catalog) DefineAnalyzer(ns, db string, a *AnalyzerDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := dbKey(ns, db)
	as, ok := c.analyzers[key]
	if !ok {
		as = make(map[string]*AnalyzerDef)
		c.analyzers[key] = as
	}
	as[a.Name] = a
}

// Analyzer looks up a named analyzer definition.
func (c *Catalog) Analyzer(ns, db, name string) (*AnalyzerDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	as, ok := c.analyzers[dbKey(ns, db)]
	if !ok {
		return nil, errs.NotFound(errs.RecordNotFound, name)
	}
	a, ok := as[name]
	if !ok {
		return nil, errs.NotFound(errs.RecordNotFound, name)
	}
	return a, nil
}

// DefineParam registers a database-scoped $param.
func (c *Catalog) DefineParam(ns, db string, p *ParamDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := dbKey(ns, db)
	ps, ok := c.params[key]
	if !ok {
		ps = make(map[string]*ParamDef)
		c.params[key] = ps
	}
	ps[p.Name] = p
}

// Param looks up a database-scoped $param definition.
func (c *Catalog) Param(ns, db, name string) (*ParamDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ps, ok := c.params[dbKey(ns, db)]
	if !ok {
		return nil, errs.NotFound(errs.ParamNotFound, name)
	}
	p, ok := ps[name]
	if !ok {
		return nil, errs.NotFound(errs.ParamNotFound, name)
	}
	return p, nil
}

// InvalidateView bumps CacheTablesTs on every view table whose
// ViewDefinition names sourceTable, so invalidation of materialized
// views cascades from changes to their source tables.
func (c *Catalog) InvalidateView(ns, db, sourceTable string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tc, ok := c.dbCache[dbKey(ns, db)]
	if !ok {
		return
	}
	for _, t := range tc.tables {
		if t.View == nil {
			continue
		}
		for _, src := range t.View.SourceTables {
			if src == sourceTable {
				t.CacheTablesTs = uuid.Must(uuid.NewV7())
				break
			}
		}
	}
}
