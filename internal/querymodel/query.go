// Package querymodel defines the immutable Query value and its filter
// AST (spec §3). It has no knowledge of indexes, schema, or storage —
// those are supplied by internal/schema and internal/refstore and
// consumed by internal/queryengine. Keeping Query here, below engine and
// schema, lets both depend on it without a cycle.
package querymodel

import "triplequery/internal/triple"

// Cardinality describes how many results a sub-query is expected to
// produce.
type Cardinality int

const (
	// CardinalityMany returns an ordered set of matching entities (fetch).
	CardinalityMany Cardinality = iota
	// CardinalityOne returns at most one entity (fetchOne).
	CardinalityOne
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderKey is one entry in a Query's order list.
type OrderKey struct {
	Path      triple.Path
	Direction Direction
}

// Cursor anchors pagination to a specific (value, entity_id) position
// from a previous page, per spec §3/§4.7.
type Cursor struct {
	Value     any
	EntityID  triple.EntityID
	Inclusive bool
}

// IncludeSpec describes one related-entity inclusion (spec §3 `include`).
// Shorthand true/nil states are resolved by prepareQuery before the query
// reaches the engine (spec §7 QueryNotPreparedError guards this).
type IncludeSpec struct {
	SubQuery    *Query
	Cardinality Cardinality
}

// Query is the immutable description of what to fetch. Queries are
// never mutated in place (spec §3 Lifecycle): rewriting (variable
// substitution, root permutation, preparation) produces new Query
// values.
type Query struct {
	Collection string
	Where      []Filter
	Order      []OrderKey
	Limit      int // 0 = unlimited
	After      *Cursor
	Select     []triple.Path // empty = all non-relation attributes
	Include    map[string]IncludeSpec
	Vars       map[string]any

	// Prepared is set by prepareQuery (C6) once include shorthand has
	// been expanded and permission rules injected. fetch/fetchOne reject
	// an unprepared Query with QueryNotPreparedError, except at the
	// top-level entry point, which prepares it itself (spec §7).
	Prepared bool
}

// HasSubqueryFilter reports whether any Where node (recursively) is a
// subquery-exists or exists-relation filter. The Subscription
// Coordinator (C9) uses this to classify a query as "complex" (spec
// §4.9): complex queries re-run full fetch on every write batch rather
// than attempting incremental maintenance.
func (q *Query) HasSubqueryFilter() bool {
	for _, f := range q.Where {
		if filterHasSubquery(f) {
			return true
		}
	}
	return false
}

func filterHasSubquery(f Filter) bool {
	switch n := f.(type) {
	case *SubqueryExistsFilter, *ExistsRelationFilter:
		return true
	case *AndFilter:
		for _, t := range n.Terms {
			if filterHasSubquery(t) {
				return true
			}
		}
	case *OrFilter:
		for _, t := range n.Terms {
			if filterHasSubquery(t) {
				return true
			}
		}
	}
	return false
}

// HasOrder reports whether q has any order key. Whether a key crosses a
// relation hop is a schema property of the path, not a syntactic one,
// so this says nothing about relation hops; the engine's index selector
// (C1) does the schema-backed check.
func (q *Query) HasOrder() bool { return len(q.Order) > 0 }

// IsComplex reports whether this query must be fully re-run on every
// write batch rather than incrementally maintained (spec §4.9): it has
// a subquery filter, any include, or (conservatively) more than zero
// order keys whose relation-crossing status can only be confirmed with
// schema access, which the caller supplies via hasRelationOrder.
func (q *Query) IsComplex(hasRelationOrder bool) bool {
	return q.HasSubqueryFilter() || len(q.Include) > 0 || hasRelationOrder
}
