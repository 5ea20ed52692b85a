package queryengine

import (
	"triplequery/internal/querymodel"
)

// prepareQuery canonicalizes q before it reaches fetch/fetchOne (spec
// §4.6): expands include shorthand against the schema's relation
// defaults and injects the collection's read rules unless the caller
// asked to skip them. Queries are never mutated in place (spec §3
// lifecycle); prepareQuery always returns a new value.
func (e *Engine) prepareQuery(ec *execContext, q *querymodel.Query) (*querymodel.Query, error) {
	prepared := *q
	prepared.Prepared = true

	if len(q.Include) > 0 {
		expanded := make(map[string]querymodel.IncludeSpec, len(q.Include))
		for alias, spec := range q.Include {
			if spec.SubQuery != nil {
				expanded[alias] = spec
				continue
			}
			rel, ok := ec.schema.GetRelation(q.Collection, alias)
			if !ok {
				return nil, &UnknownRelationError{Collection: q.Collection, Relation: alias}
			}
			expanded[alias] = querymodel.IncludeSpec{
				SubQuery:    &querymodel.Query{Collection: rel.Collection, Where: rel.Where},
				Cardinality: rel.Cardinality,
			}
		}
		prepared.Include = expanded
	}

	if !ec.opts.SkipRules {
		if rules, ok := ec.schema.GetCollectionRules(q.Collection); ok && len(rules.Read) > 0 {
			where := make([]querymodel.Filter, 0, len(q.Where)+1)
			where = append(where, q.Where...)
			where = append(where, rules.Read...)
			prepared.Where = where
		}
	}

	return &prepared, nil
}
