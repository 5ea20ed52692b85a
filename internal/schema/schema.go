// Package schema defines the read-only Schema Service consumed by the
// query engine (spec §6.2): attribute types, collection permission
// rules, db-to-native value coercion, and cache eligibility. Schema
// itself — definition syntax, code generation, migrations — is out of
// scope; only the interface the engine depends on lives here, plus an
// in-memory reference implementation for tests.
package schema

import (
	"errors"

	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

// DataType is the declared type of an attribute path.
type DataType int

const (
	TypeString DataType = iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeSet
	TypeRecord
	// TypeQuery marks an attribute path that is actually a relation
	// hop (a sub-query), never a leaf value. Index selector rule 2
	// (spec §4.1) excludes these from equality-scan eligibility.
	TypeQuery
)

// RelationCardinality is an alias of querymodel.Cardinality, named for
// use in schema relation declarations.
type RelationCardinality = querymodel.Cardinality

// Relation describes a declared relation hop: the collection it points
// into and the filter linking parent to child.
type Relation struct {
	Collection  string
	Cardinality RelationCardinality
	// Where is the relation's own filter, expressed against the child
	// collection with a `$1.<path>` back-reference to the parent
	// (spec §4.8 on referential variables).
	Where []querymodel.Filter
}

// Attribute is one schema-declared attribute path.
type Attribute struct {
	Type     DataType
	Relation *Relation // non-nil iff Type == TypeQuery
}

// Rules is a collection's permission rule set. The engine does not
// interpret rules itself; it calls into the schema service to have
// them injected during query preparation (spec §4.6 prepareQuery).
type Rules struct {
	// Read, when non-nil, is ANDed onto every query against this
	// collection unless the caller passed SkipRules.
	Read []querymodel.Filter
}

// Role is a session's set of role-scoped variables (spec §4.5 `role`
// scope) plus the roles that contributed them.
type Role struct {
	Name string
	Vars map[string]any
}

var (
	ErrUnknownCollection = errors.New("schema: unknown collection")
	ErrUnknownAttribute  = errors.New("schema: unknown attribute")
)

// Service is the read-only schema collaborator the engine consumes
// (spec §6.2). Implementations must be safe for concurrent read use;
// the engine never calls a mutating method.
type Service interface {
	// GetAttribute returns the declared type of path within collection,
	// or (_, false) if the path is not declared.
	GetAttribute(collection string, path triple.Path) (Attribute, bool)

	// ScalarAttributePaths lists every scalar (non-relation) attribute
	// path declared for collection. C6 uses this to build an ancestor
	// frame with every schema-declared scalar present, even when the
	// parent entity has no value for it (spec §4.6).
	ScalarAttributePaths(collection string) []triple.Path

	// GetRelation returns the declared relation named name within
	// collection, or (_, false) if it is not declared.
	GetRelation(collection, name string) (Relation, bool)

	// GetCollectionRules returns the permission rules for collection,
	// or (_, false) if the collection has none.
	GetCollectionRules(collection string) (Rules, bool)

	// ConvertDBValueToJS coerces a raw triple value into its
	// schema-declared native representation (spec §4.9 step 5: result
	// emission strips timestamps and applies this coercion).
	ConvertDBValueToJS(value any, attr Attribute) any

	// CanCacheQuery reports whether q is safe to serve from the
	// variable-aware cache for collection's schema (spec §6.3). A
	// query that reads non-deterministic or session-scoped state the
	// cache cannot key on should answer false.
	CanCacheQuery(q *querymodel.Query, collection string) bool
}
