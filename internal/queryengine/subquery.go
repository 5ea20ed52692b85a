package queryengine

import (
	"maps"

	"triplequery/internal/querymodel"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
	"triplequery/internal/vars"
)

// buildFrame builds the ancestor frame C6 pushes before recursing into
// a sub-query: every schema-declared scalar leaf of collection, present
// as nil if the parent entity has no value for it, plus _collection
// (spec §4.6).
func buildFrame(view *triple.EntityView, collection string, schemaSvc schema.Service) map[string]any {
	frame := make(map[string]any)
	for _, path := range schemaSvc.ScalarAttributePaths(collection) {
		assignNested(frame, path, view.Value(path))
	}
	assignNested(frame, triple.CollectionPath, view.Value(triple.CollectionPath))
	return frame
}

// assignNested writes value into nested maps of m following path,
// creating intermediate maps as needed (frame lookups in package vars
// descend through nested map[string]any the same way).
func assignNested(m map[string]any, path triple.Path, value any) {
	if len(path) == 0 {
		return
	}
	cur := m
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

// runSubFetch pushes an ancestor frame for parentView, merges vars,
// runs sub (already prepared), and pops the frame on any exit —
// including on error, satisfying the mandatory push/pop discipline
// (spec §4.6, invariant 5).
func (ec *execContext) runSubFetch(parentCollection string, parentView *triple.EntityView, parentVars map[string]any, sub *querymodel.Query, cardinality querymodel.Cardinality) (*querymodel.FetchResult, error) {
	frame := buildFrame(parentView, parentCollection, ec.schema)
	pop := ec.varsStk.Push(frame)
	defer pop()

	merged := mergeVars(parentVars, sub.Vars)
	prevVars := ec.varsStk.SwapQueryVars(merged)
	defer ec.varsStk.SwapQueryVars(prevVars)

	prepared, err := ec.engine.prepareQuery(ec, sub)
	if err != nil {
		return nil, err
	}
	if cardinality == querymodel.CardinalityOne {
		limited := *prepared
		limited.Limit = 1
		prepared = &limited
	}
	return ec.engine.runFetch(ec, prepared, cardinality)
}

// applyFrame re-flattens a nested ancestor-frame map back into an
// EntityView, the inverse of assignNested, so a relation loaded from a
// frame (rather than a real materialized entity) can be filtered the
// same way fetch filters any other entity.
func applyFrame(view *triple.EntityView, prefix triple.Path, frame map[string]any) {
	for key, v := range frame {
		path := append(append(triple.Path{}, prefix...), key)
		if nested, ok := v.(map[string]any); ok {
			applyFrame(view, path, nested)
			continue
		}
		view.Apply(triple.Triple{Path: path, Value: v})
	}
}

func mergeVars(parent, child map[string]any) map[string]any {
	merged := make(map[string]any, len(parent)+len(child))
	maps.Copy(merged, parent)
	maps.Copy(merged, child)
	return merged
}

// evaluateSubqueryExists runs sub with cardinality one rooted at the
// current entity and reports whether it produced a result (spec
// §4.4).
func (ec *execContext) evaluateSubqueryExists(parentView *triple.EntityView, sub *querymodel.Query) (bool, error) {
	result, err := ec.runSubFetch(parentView.ID.Collection(), parentView, nil, sub, querymodel.CardinalityOne)
	if err != nil {
		return false, err
	}
	return result.Len() > 0, nil
}

// expandExistsRelation turns exists-relation sugar into an equivalent
// subquery-exists filter's sub-query, per the schema's relation
// declaration (spec §4.4, §7 UnknownRelationError).
func (ec *execContext) expandExistsRelation(collection string, f *querymodel.ExistsRelationFilter) (*querymodel.Query, error) {
	rel, ok := ec.schema.GetRelation(collection, f.Relation)
	if !ok {
		return nil, &UnknownRelationError{Collection: collection, Relation: f.Relation}
	}
	where := append(append([]querymodel.Filter{}, rel.Where...), f.Where...)
	return &querymodel.Query{
		Collection: rel.Collection,
		Where:      where,
	}, nil
}

// loadRelation implements vars.RelationLoader: resolving a variable
// reference that crosses a cardinality-one relation (spec §4.5).
// frame is the ancestor frame the reference was resolved against;
// path's first segment names the relation, the remainder is the path
// into the related entity.
func (ec *execContext) loadRelation(frame map[string]any, path triple.Path) (any, error) {
	collection, _ := frame[triple.CollectionPath.String()].(string)
	relationName := path[0]
	rel, ok := ec.schema.GetRelation(collection, relationName)
	if !ok {
		return nil, &UnknownRelationError{Collection: collection, Relation: relationName}
	}
	if rel.Cardinality != querymodel.CardinalityOne {
		return nil, &vars.VariableRelationCardinalityError{Reference: path.String()}
	}

	frameView := triple.NewEntityView("")
	applyFrame(frameView, nil, frame)

	sub := &querymodel.Query{Collection: rel.Collection, Where: rel.Where}
	result, err := ec.runSubFetch(collection, frameView, nil, sub, querymodel.CardinalityOne)
	if err != nil {
		return nil, err
	}
	if result.Len() == 0 {
		return nil, nil
	}
	related := result.Entities[result.Order[0]]
	return related.Value(path[1:]), nil
}
