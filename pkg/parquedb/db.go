package parquedb

import (
	"sync"

	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/mutation"
	"github.com/parquedb/parquedb/pkg/query"
)

// Config configures a DB (spec §4, "Config").
type Config struct {
	// Actor stamps created/updated/deleted-by audit fields.
	Actor string
	// ReadOnly rejects every write path across every namespace.
	ReadOnly bool
}

// Namespace bundles one Table with the mutation and query executors
// that operate on it.
type Namespace struct {
	Table    *Table
	Mutation *mutation.Executor
	Query    *query.Executor
}

// DB is the top-level embeddable handle: a set of namespaces, each with
// its own schema, indexes, and executors (spec §4, "Backends").
type DB struct {
	mu         sync.Mutex
	cfg        Config
	namespaces map[string]*Namespace
}

// Open returns a DB configured per cfg. Namespaces are created lazily
// by Namespace/DefineNamespace.
func Open(cfg Config) *DB {
	return &DB{cfg: cfg, namespaces: map[string]*Namespace{}}
}

// DefineNamespace creates (or replaces) the namespace name with the
// given schema and secondary index definitions.
func (db *DB) DefineNamespace(name string, schema *model.Schema, indexes []model.IndexDefinition) *Namespace {
	db.mu.Lock()
	defer db.mu.Unlock()
	table := NewTable(name, schema, indexes)
	ns := &Namespace{
		Table:    table,
		Mutation: mutation.NewExecutor(table, db.cfg.Actor),
		Query:    query.NewExecutor(name, table).WithTextSearcher(table),
	}
	ns.Mutation.SetReadOnly(db.cfg.ReadOnly)
	db.namespaces[name] = ns
	return ns
}

// Namespace returns the namespace name, defining it with an empty
// schema and no indexes on first access.
func (db *DB) Namespace(name string) *Namespace {
	db.mu.Lock()
	ns, ok := db.namespaces[name]
	db.mu.Unlock()
	if ok {
		return ns
	}
	return db.DefineNamespace(name, &model.Schema{Name: name}, nil)
}

// SetReadOnly toggles the read-only guard on every existing namespace
// and on every namespace DefineNamespace creates afterward.
func (db *DB) SetReadOnly(ro bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.cfg.ReadOnly = ro
	for _, ns := range db.namespaces {
		ns.Mutation.SetReadOnly(ro)
	}
}
