package queryengine

import (
	"sort"

	"triplequery/internal/ordering"
	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

// candidateRow is one surviving entity carried through C7.
type candidateRow struct {
	id     triple.EntityID
	view   *triple.EntityView
	tuples []triple.Triple
}

// sortRows sorts rows by q.Order, then by entity id, a total order
// (spec invariant 3: ties on the primary key are broken by subsequent
// keys, then by entity_id). Sort is stable so equal-key rows keep their
// relative input order beyond the final entity-id tiebreak, satisfying
// invariant 3 (sort stability) even though entity_id already makes
// every row distinct.
func sortRows(rows []candidateRow, order []querymodel.OrderKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range order {
			a := rows[i].view.Value(key.Path)
			b := rows[j].view.Value(key.Path)
			c := ordering.Compare(a, b)
			if key.Direction == querymodel.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return rows[i].id < rows[j].id
	})
}

// applyCursor implements the one-pass stateful after-cursor predicate
// (spec §4.7): tracks whether the cursor's value has been reached, its
// entity id reached, and its value passed, emitting rows once either
// (value-reached AND id-reached), gated by inclusive, or value-passed.
func applyCursor(rows []candidateRow, order []querymodel.OrderKey, after *querymodel.Cursor) []candidateRow {
	if after == nil {
		return rows
	}
	out := make([]candidateRow, 0, len(rows))
	var primary triple.Path
	desc := false
	if len(order) > 0 {
		primary = order[0].Path
		desc = order[0].Direction == querymodel.Desc
	}
	for _, row := range rows {
		v := row.view.Value(primary)
		c := ordering.Compare(v, after.Value)
		if desc {
			c = -c
		}
		valuePassed := c > 0
		valueReached := c == 0
		idReached := row.id == after.EntityID

		switch {
		case valuePassed:
			out = append(out, row)
		case valueReached && idReached:
			if after.Inclusive {
				out = append(out, row)
			}
		case valueReached && !idReached:
			// Same primary-key value as the cursor but a different
			// entity: sorts after the cursor position once entity_id
			// is used as the final tiebreak (invariant 3).
			if row.id > after.EntityID {
				out = append(out, row)
			}
		}
	}
	return out
}

// applyLimit truncates rows to at most limit entries; limit <= 0 means
// unlimited (spec §4.7).
func applyLimit(rows []candidateRow, limit int) []candidateRow {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}
