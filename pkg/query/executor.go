package query

import (
	"github.com/parquedb/parquedb/pkg/log"
	"github.com/parquedb/parquedb/pkg/metrics"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/parquetio"
	"github.com/rs/zerolog"
)

// RowGroupMeta is the lightweight per-row-group handle the planner
// consults before a Source pays to read the group's rows.
type RowGroupMeta struct {
	Index int
	Stats *parquetio.RowGroupStats
}

// Source is the data a namespace's Executor reads from: row-group
// statistics for pushdown, the rows themselves on demand, and a direct
// point lookup for the $id fast path (spec §4.8 step 1).
type Source interface {
	RowGroups() []RowGroupMeta
	ReadRowGroup(index int) ([]*model.Entity, error)
	GetByID(id string) (*model.Entity, bool, error)
}

// TextSearcher resolves a $text predicate via the FTS index ahead of
// any row-group scan (spec §4.8 step 2).
type TextSearcher interface {
	SearchText(query string) []string
}

// Options bundles a find() call's sort, projection, and pagination.
type Options struct {
	Sort       []SortField
	Projection Projection
	Skip       int
	Limit      int // 0 means unlimited
}

// Executor runs find() against one namespace's Source (spec §4.8).
type Executor struct {
	namespace string
	source    Source
	text      TextSearcher
	logger    zerolog.Logger
}

// NewExecutor returns an Executor reading from source for namespace ns.
func NewExecutor(ns string, source Source) *Executor {
	return &Executor{namespace: ns, source: source, logger: log.WithNamespace(ns)}
}

// WithTextSearcher attaches the FTS index used to resolve $text
// predicates, returning the Executor for chaining.
func (ex *Executor) WithTextSearcher(ts TextSearcher) *Executor {
	ex.text = ts
	return ex
}

// Find evaluates filter against the namespace and returns matching
// documents shaped by opts (spec §4.8).
func (ex *Executor) Find(filter map[string]any, opts Options) ([]map[string]any, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.QueryDuration, ex.namespace)

	if id, ok := directID(filter); ok {
		return ex.findByID(id, filter, opts)
	}

	remaining, textQuery := splitText(filter)

	var textCandidates map[string]bool
	if textQuery != "" {
		if ex.text == nil {
			ex.logger.Warn().Msg("$text predicate with no text searcher attached; returning no rows")
			return nil, nil
		}
		ids := ex.text.SearchText(textQuery)
		textCandidates = make(map[string]bool, len(ids))
		for _, id := range ids {
			textCandidates[id] = true
		}
	}

	var results []map[string]any
	for _, rg := range ex.source.RowGroups() {
		if !RowGroupMightMatch(remaining, rg.Stats) {
			metrics.QueryRowGroupsSkipped.WithLabelValues(ex.namespace).Inc()
			continue
		}
		metrics.QueryRowGroupsScanned.WithLabelValues(ex.namespace).Inc()

		entities, err := ex.source.ReadRowGroup(rg.Index)
		if err != nil {
			return nil, err
		}
		for _, e := range entities {
			if textCandidates != nil && !textCandidates[e.ID] {
				continue
			}
			doc := e.ToMap()
			if !Match(remaining, doc) {
				continue
			}
			results = append(results, doc)
		}
	}

	return ex.shape(results, opts), nil
}

func (ex *Executor) findByID(id string, filter map[string]any, opts Options) ([]map[string]any, error) {
	e, ok, err := ex.source.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	doc := e.ToMap()
	remaining := withoutKey(filter, "$id")
	if !Match(remaining, doc) {
		return nil, nil
	}
	return ex.shape([]map[string]any{doc}, opts), nil
}

func (ex *Executor) shape(docs []map[string]any, opts Options) []map[string]any {
	if len(opts.Sort) > 0 {
		SortDocs(docs, opts.Sort)
	}
	docs = paginate(docs, opts.Skip, opts.Limit)
	if !opts.Projection.IsEmpty() {
		projected := make([]map[string]any, len(docs))
		for i, d := range docs {
			projected[i] = opts.Projection.Apply(d)
		}
		return projected
	}
	return docs
}

func paginate(docs []map[string]any, skip, limit int) []map[string]any {
	if skip > 0 {
		if skip >= len(docs) {
			return nil
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// directID reports whether filter binds $id directly or via $eq,
// the case the planner routes straight to a point lookup (spec §4.8
// step 1).
func directID(filter map[string]any) (string, bool) {
	cond, ok := filter["$id"]
	if !ok {
		return "", false
	}
	switch v := cond.(type) {
	case string:
		return v, true
	case map[string]any:
		if eq, ok := v["$eq"]; ok {
			if s, ok := eq.(string); ok && len(v) == 1 {
				return s, true
			}
		}
	}
	return "", false
}

func splitText(filter map[string]any) (map[string]any, string) {
	cond, ok := filter["$text"]
	if !ok {
		return filter, ""
	}
	q, _ := cond.(string)
	return withoutKey(filter, "$text"), q
}

func withoutKey(filter map[string]any, key string) map[string]any {
	out := make(map[string]any, len(filter))
	for k, v := range filter {
		if k != key {
			out[k] = v
		}
	}
	return out
}
