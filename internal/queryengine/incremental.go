package queryengine

import (
	"context"

	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

// ReevaluateEntity re-materializes id and tests it against q's where
// clause, without running index selection or touching any other
// entity. It is the primitive the Subscription Coordinator (C9) uses
// to incrementally maintain a simple query's result window: re-test
// only the entities a write batch actually touched, instead of
// re-running the full fetch pipeline (spec §4.9 step 2).
func (e *Engine) ReevaluateEntity(ctx context.Context, q *querymodel.Query, session SessionVars, opts Options, id triple.EntityID) (bool, *triple.EntityView, []triple.Triple, error) {
	ec, err := e.newExecContext(ctx, session, opts)
	if err != nil {
		return false, nil, nil, err
	}
	prepared, err := e.prepareQuery(ec, q)
	if err != nil {
		return false, nil, nil, err
	}
	view, tuples, err := materializeEntity(ctx, e.index, id, opts.StateVector)
	if err != nil {
		return false, nil, nil, err
	}
	if view.Tombstoned() {
		return false, view, tuples, nil
	}
	matched, err := ec.evaluateWhere(prepared, view)
	if err != nil {
		return false, nil, nil, err
	}
	return matched, view, tuples, nil
}
