package queryengine

import (
	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

// runFetch is the shared C1-C7 pipeline behind both Fetch and FetchOne,
// and behind every recursive sub-query (spec §2 data flow: query → C1
// → C2 → C3 → C4 → C7 → projection → results).
func (e *Engine) runFetch(ec *execContext, q *querymodel.Query, cardinality querymodel.Cardinality) (*querymodel.FetchResult, error) {
	if !q.Prepared {
		return nil, &QueryNotPreparedError{Collection: q.Collection}
	}

	plan := selectFullScan()
	if !ec.opts.SkipIndex {
		p, err := selectIndex(q, ec.schema)
		if err != nil {
			return nil, err
		}
		plan = p
	}

	var rows []candidateRow
	for id, err := range candidateStream(ec.ctx, e.index, plan.Access) {
		if err != nil {
			return nil, err
		}
		if id.Collection() != q.Collection {
			continue
		}
		view, tuples, err := materializeEntity(ec.ctx, e.index, id, ec.opts.StateVector)
		if err != nil {
			return nil, err
		}
		if view.Tombstoned() {
			continue
		}
		match, err := ec.evaluateWhere(q, view)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}
		if err := ec.loadIncludes(q, view); err != nil {
			return nil, err
		}
		rows = append(rows, candidateRow{id: id, view: view, tuples: tuples})
	}

	sortRows(rows, q.Order)
	if !plan.FulfilledAfter {
		rows = applyCursor(rows, q.Order, q.After)
	}
	rows = applyLimit(rows, q.Limit)

	result := querymodel.NewFetchResult()
	for _, row := range rows {
		result.Add(row.id, row.view, row.tuples)
	}
	return result, nil
}

// loadIncludes populates view.Relations for every include in q (spec
// §3 `include`), running each as a recursive sub-fetch rooted at this
// entity.
func (ec *execContext) loadIncludes(q *querymodel.Query, view *triple.EntityView) error {
	if len(q.Include) == 0 {
		return nil
	}
	view.Relations = make(map[string]any, len(q.Include))
	for alias, spec := range q.Include {
		result, err := ec.runSubFetch(q.Collection, view, q.Vars, spec.SubQuery, spec.Cardinality)
		if err != nil {
			return err
		}
		if spec.Cardinality == querymodel.CardinalityOne {
			if result.Len() == 0 {
				view.Relations[alias] = nil
			} else {
				view.Relations[alias] = result.Entities[result.Order[0]]
			}
		} else {
			view.Relations[alias] = result
		}
	}
	return nil
}
