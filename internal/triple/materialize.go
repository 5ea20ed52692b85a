package triple

import "sort"

// Materialize folds triples (assumed to all belong to the same entity)
// into an EntityView, optionally bounded by a state vector (spec §3
// invariant 1: the reconstructed leaf equals the value of the triple
// with the greatest timestamp <= the frontier). A nil bound yields the
// current, unbounded view.
func Materialize(id EntityID, triples []Triple, bound StateVector) *EntityView {
	view := NewEntityView(id)
	if len(triples) == 0 {
		return view
	}

	filtered := triples
	if bound != nil {
		filtered = make([]Triple, 0, len(triples))
		for _, t := range triples {
			if bound.Covers(t.Timestamp) {
				filtered = append(filtered, t)
			}
		}
	}

	// Apply in non-decreasing timestamp order so last-write-wins resolves
	// deterministically regardless of the input order triples arrived in.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})
	for _, t := range filtered {
		view.Apply(t)
	}
	return view
}
