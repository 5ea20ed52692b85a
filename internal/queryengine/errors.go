package queryengine

import "fmt"

// QueryNotPreparedError is returned when fetch/fetchOne is handed a
// Query whose include shorthand has not been canonicalized by
// prepareQuery (spec §7).
type QueryNotPreparedError struct {
	Collection string
}

func (e *QueryNotPreparedError) Error() string {
	return fmt.Sprintf("queryengine: query against %q is not prepared", e.Collection)
}

// InvalidFilterError is returned for a malformed statement or group
// node encountered while planning or evaluating a filter.
type InvalidFilterError struct {
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("queryengine: invalid filter: %s", e.Reason)
}

// UnknownRelationError is returned when an exists-relation filter or a
// variable reference names a relation the schema does not declare.
type UnknownRelationError struct {
	Collection string
	Relation   string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("queryengine: collection %q has no relation %q", e.Collection, e.Relation)
}

// InvalidSchemaItemError is returned when the engine encounters a
// schema attribute of a type it does not know how to plan or
// materialize against.
type InvalidSchemaItemError struct {
	Collection string
	Path       string
	Type       int
}

func (e *InvalidSchemaItemError) Error() string {
	return fmt.Sprintf("queryengine: %s.%s has unrecognized schema type %d", e.Collection, e.Path, e.Type)
}
