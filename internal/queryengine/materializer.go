package queryengine

import (
	"context"

	"triplequery/internal/iterseq"
	"triplequery/internal/refstore"
	"triplequery/internal/triple"
)

// materializeEntity fetches every triple ever written about id and
// folds them into a timestamped view, optionally bounded by a state
// vector (spec §4.3). It also returns the raw triples that contributed
// to the bounded view, needed for delta/subscription triple sets.
func materializeEntity(ctx context.Context, idx refstore.Index, id triple.EntityID, bound triple.StateVector) (*triple.EntityView, []triple.Triple, error) {
	all, err := iterseq.Collect(idx.FindByEntity(ctx, id))
	if err != nil {
		return nil, nil, err
	}
	view := triple.Materialize(id, all, bound)

	contributing := all
	if bound != nil {
		contributing = make([]triple.Triple, 0, len(all))
		for _, t := range all {
			if bound.Covers(t.Timestamp) {
				contributing = append(contributing, t)
			}
		}
	}
	return view, contributing, nil
}
