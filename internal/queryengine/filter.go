package queryengine

import (
	"strings"

	"triplequery/internal/ordering"
	"triplequery/internal/querymodel"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
	"triplequery/internal/vars"
)

// filterCost ranks a filter node for the priority order C4 computes
// once per query: boolean literal > scalar equality > range > set
// membership > group > subquery (spec §4.4).
func filterCost(f querymodel.Filter, collection string, schemaSvc schema.Service) int {
	switch n := f.(type) {
	case *querymodel.BooleanLiteralFilter:
		return 0
	case *querymodel.StatementFilter:
		attr, ok := schemaSvc.GetAttribute(collection, n.Path)
		if ok && attr.Type == schema.TypeSet {
			return 3
		}
		if isRangeOp(n.Op) {
			return 2
		}
		return 1
	case *querymodel.AndFilter, *querymodel.OrFilter:
		return 4
	case *querymodel.SubqueryExistsFilter, *querymodel.ExistsRelationFilter:
		return 5
	default:
		return 4
	}
}

// orderedWhere returns q.Where's indices sorted by filterCost, cheapest
// first. Ties keep original order (stable), so evaluation order is
// deterministic across runs of the same query.
func orderedWhere(q *querymodel.Query, schemaSvc schema.Service) []int {
	idx := make([]int, len(q.Where))
	for i := range idx {
		idx[i] = i
	}
	costs := make([]int, len(q.Where))
	for i, f := range q.Where {
		costs[i] = filterCost(f, q.Collection, schemaSvc)
	}
	// Insertion sort: where lists are short (a handful of clauses), and
	// stability matters more here than asymptotic complexity.
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && costs[idx[j-1]] > costs[idx[j]]; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
	return idx
}

// evaluateWhere evaluates q.Where against view under AND semantics,
// short-circuiting on the first failing clause. The spec's fulfilled
// clauses (from C1) are deliberately NOT skipped here: a clause marked
// fulfilled only licenses skipping candidate-set widening in C2, not
// re-evaluation in C4, because scan index entries may reflect
// out-of-causal-frontier triples the current fetch should not see
// (spec §4.4, open question i).
func (ec *execContext) evaluateWhere(q *querymodel.Query, view *triple.EntityView) (bool, error) {
	for _, i := range orderedWhere(q, ec.schema) {
		ok, err := ec.evaluateFilter(q.Collection, view, q.Where[i])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (ec *execContext) evaluateFilter(collection string, view *triple.EntityView, f querymodel.Filter) (bool, error) {
	switch n := f.(type) {
	case *querymodel.BooleanLiteralFilter:
		return n.Value, nil
	case *querymodel.StatementFilter:
		return ec.evaluateStatement(collection, view, n)
	case *querymodel.AndFilter:
		for _, term := range n.Terms {
			ok, err := ec.evaluateFilter(collection, view, term)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case *querymodel.OrFilter:
		for _, term := range n.Terms {
			ok, err := ec.evaluateFilter(collection, view, term)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case *querymodel.SubqueryExistsFilter:
		return ec.evaluateSubqueryExists(view, n.SubQuery)
	case *querymodel.ExistsRelationFilter:
		sub, err := ec.expandExistsRelation(collection, n)
		if err != nil {
			return false, err
		}
		return ec.evaluateSubqueryExists(view, sub)
	default:
		return false, &InvalidFilterError{Reason: "unknown filter node"}
	}
}

// resolveValue resolves n.Value through C5 if it is a variable
// reference (spec §4.4: "resolves val through C5"); any other value is
// used literally.
func (ec *execContext) resolveValue(v any) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return v, nil
	}
	ref, err := vars.ParseReference(s)
	if err != nil {
		return nil, err
	}
	resolved, _, err := ec.varsStk.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (ec *execContext) evaluateStatement(collection string, view *triple.EntityView, stmt *querymodel.StatementFilter) (bool, error) {
	value, err := ec.resolveValue(stmt.Value)
	if err != nil {
		return false, err
	}

	attr, _ := ec.schema.GetAttribute(collection, stmt.Path)
	if attr.Type == schema.TypeSet {
		return evaluateSetMembership(view, stmt.Path, stmt.Op, value)
	}

	switch stmt.Op {
	case querymodel.OpIsDefined:
		want, _ := value.(bool)
		return view.IsDefined(stmt.Path) == want, nil
	case querymodel.OpLike, querymodel.OpNotLike:
		matched, err := evaluateLike(view.Value(stmt.Path), value)
		if err != nil {
			return false, err
		}
		if stmt.Op == querymodel.OpNotLike {
			matched = !matched
		}
		return matched, nil
	case querymodel.OpIn, querymodel.OpNin:
		in := valueIn(value, view.Value(stmt.Path))
		if stmt.Op == querymodel.OpNin {
			in = !in
		}
		return in, nil
	default:
		got := view.Value(stmt.Path)
		if got == nil && stmt.Path.Equal(idPath) {
			// id lives in the entity id, not in a stored leaf.
			got = view.ID.ExternalID()
		}
		cmp := ordering.Compare(got, value)
		switch stmt.Op {
		case querymodel.OpEq:
			return cmp == 0, nil
		case querymodel.OpNeq:
			return cmp != 0, nil
		case querymodel.OpLt:
			return cmp < 0, nil
		case querymodel.OpLte:
			return cmp <= 0, nil
		case querymodel.OpGt:
			return cmp > 0, nil
		case querymodel.OpGte:
			return cmp >= 0, nil
		default:
			return false, &InvalidFilterError{Reason: "unsupported op " + stmt.Op.String()}
		}
	}
}

// evaluateSetMembership checks whether value is a member of the set at
// path. has/in are synonyms over a set-typed leaf, as are !has/nin;
// the two spellings exist for readability at the call site (a filter
// reads naturally as `tags has "x"` or `tags in ["x","y"]`'s element
// form), not for a semantic difference.
func evaluateSetMembership(view *triple.EntityView, path triple.Path, op querymodel.Op, value any) (bool, error) {
	members := view.SetMembers(path)
	switch op {
	case querymodel.OpHas, querymodel.OpIn:
		return containsMember(members, value), nil
	case querymodel.OpNotHas, querymodel.OpNin:
		return !containsMember(members, value), nil
	default:
		return false, &InvalidFilterError{Reason: "op " + op.String() + " not valid on a set path"}
	}
}

func containsMember(members []any, value any) bool {
	for _, m := range members {
		if ordering.Equal(m, value) {
			return true
		}
	}
	return false
}

// valueIn reports whether needle appears in haystack, when haystack is
// itself a slice-like value (used for the scalar `in`/`nin` operators,
// where the right-hand side is a list literal and needle is the
// entity's leaf value).
func valueIn(haystack, needle any) bool {
	items, ok := haystack.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if ordering.Equal(item, needle) {
			return true
		}
	}
	return false
}

func evaluateLike(leaf any, pattern any) (bool, error) {
	s, ok := leaf.(string)
	if !ok {
		return false, nil
	}
	p, ok := pattern.(string)
	if !ok {
		return false, &InvalidFilterError{Reason: "like pattern must be a string"}
	}
	glob := strings.NewReplacer("%", "*", "_", "?").Replace(p)
	re, err := compileGlob(glob)
	if err != nil {
		return false, &InvalidFilterError{Reason: "invalid like pattern: " + err.Error()}
	}
	return re.MatchString(s), nil
}
