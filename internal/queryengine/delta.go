package queryengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
	"triplequery/internal/vars"
)

// DeltaResult is FetchDeltaTriples' output: the triples a sync client
// needs to apply to bring its local view in line with the server's,
// after newTriples have been written (spec §4.8).
type DeltaResult struct {
	Triples []triple.Triple
}

// FetchDeltaTriples implements the Delta Engine (C8): given the triples
// just written and a standing query, it computes the minimal triple set
// a remote subscriber needs to reconcile its view.
func (e *Engine) FetchDeltaTriples(ctx context.Context, q *querymodel.Query, session SessionVars, opts Options, newTriples []triple.Triple) (*DeltaResult, error) {
	if !q.Prepared {
		return nil, &QueryNotPreparedError{Collection: q.Collection}
	}
	if len(newTriples) == 0 {
		return &DeltaResult{}, nil
	}

	changedEntities := groupByEntity(newTriples)
	before := triple.BeforeVector(newTriples)
	// Clients that wrote nothing in this batch stay fully covered.
	clientIDs, err := e.index.FindAllClientIDs(ctx)
	if err != nil {
		return nil, err
	}
	incoming := make(map[string]bool, len(before))
	for _, t := range newTriples {
		incoming[t.Timestamp.ClientID] = true
	}
	for _, c := range clientIDs {
		if !incoming[c] {
			before[c] = math.MaxUint64
		}
	}

	perms, err := rootPermutations(q)
	if err != nil {
		return nil, err
	}

	dedup := newTripleDedup()

	for id, entityNew := range changedEntities {
		collection, _, splitErr := id.Split()
		if splitErr != nil {
			continue
		}
		for _, perm := range perms {
			if perm.Collection != collection {
				continue
			}

			ecAfter, err := e.newExecContext(ctx, session, opts)
			if err != nil {
				return nil, err
			}
			beforeOpts := opts
			beforeOpts.StateVector = before
			ecBefore, err := e.newExecContext(ctx, session, beforeOpts)
			if err != nil {
				return nil, err
			}

			afterView, afterTuples, err := materializeEntity(ctx, e.index, id, opts.StateVector)
			if err != nil {
				return nil, err
			}
			beforeView, _, err := materializeEntity(ctx, e.index, id, before)
			if err != nil {
				return nil, err
			}

			afterMatch, afterUsed, err := ecAfter.evaluateWhereForDelta(perm, afterView)
			if err != nil {
				return nil, err
			}
			beforeMatch, beforeUsed, err := ecBefore.evaluateWhereForDelta(perm, beforeView)
			if err != nil {
				return nil, err
			}

			if !beforeMatch && !afterMatch {
				continue
			}
			if !beforeMatch && afterMatch {
				// out -> in: the subscriber has never seen this entity,
				// so it needs the whole thing, not just what changed.
				dedup.addAll(afterTuples)
				dedup.addAll(afterUsed)
			} else {
				dedup.addAll(beforeUsed)
			}
			dedup.addAll(entityNew)
		}
	}
	return &DeltaResult{Triples: dedup.triples}, nil
}

// groupByEntity buckets triples by the entity they describe (spec §4.8
// step 1, "changed_entities").
func groupByEntity(triples []triple.Triple) map[triple.EntityID][]triple.Triple {
	out := make(map[triple.EntityID][]triple.Triple)
	for _, t := range triples {
		out[t.Entity] = append(out[t.Entity], t)
	}
	return out
}

// tripleDedup accumulates triples while skipping ones already emitted.
// triple.Triple is not itself comparable (Path is a slice), so identity
// is keyed on entity+path+timestamp, which is exactly what makes two
// triples "the same write" in this log.
type tripleDedup struct {
	seen    map[string]bool
	triples []triple.Triple
}

func newTripleDedup() *tripleDedup {
	return &tripleDedup{seen: make(map[string]bool)}
}

func (d *tripleDedup) addAll(ts []triple.Triple) {
	for _, t := range ts {
		key := string(t.Entity) + "\x00" + t.Path.String() + "\x00" + t.Timestamp.String()
		if d.seen[key] {
			continue
		}
		d.seen[key] = true
		d.triples = append(d.triples, t)
	}
}

// evaluateWhereForDelta evaluates q.Where against view exactly as
// evaluateWhere does, but additionally collects the triples any
// subquery-exists / exists-relation filter consumed along the way
// (spec §4.8 step 3c: "collecting the triples used").
func (ec *execContext) evaluateWhereForDelta(q *querymodel.Query, view *triple.EntityView) (bool, []triple.Triple, error) {
	var used []triple.Triple
	for _, i := range orderedWhere(q, ec.schema) {
		ok, sub, err := ec.evaluateFilterForDelta(q.Collection, view, q.Where[i])
		used = append(used, sub...)
		if err != nil {
			return false, used, err
		}
		if !ok {
			return false, used, nil
		}
	}
	return true, used, nil
}

func (ec *execContext) evaluateFilterForDelta(collection string, view *triple.EntityView, f querymodel.Filter) (bool, []triple.Triple, error) {
	switch n := f.(type) {
	case *querymodel.AndFilter:
		var used []triple.Triple
		for _, term := range n.Terms {
			ok, sub, err := ec.evaluateFilterForDelta(collection, view, term)
			used = append(used, sub...)
			if err != nil || !ok {
				return false, used, err
			}
		}
		return true, used, nil
	case *querymodel.OrFilter:
		var used []triple.Triple
		for _, term := range n.Terms {
			ok, sub, err := ec.evaluateFilterForDelta(collection, view, term)
			used = append(used, sub...)
			if err != nil {
				return false, used, err
			}
			if ok {
				return true, used, nil
			}
		}
		return false, used, nil
	case *querymodel.SubqueryExistsFilter:
		result, err := ec.runSubFetch(collection, view, nil, n.SubQuery, querymodel.CardinalityOne)
		if err != nil {
			return false, nil, err
		}
		return result.Len() > 0, flattenTriples(result), nil
	case *querymodel.ExistsRelationFilter:
		sub, err := ec.expandExistsRelation(collection, n)
		if err != nil {
			return false, nil, err
		}
		result, err := ec.runSubFetch(collection, view, nil, sub, querymodel.CardinalityOne)
		if err != nil {
			return false, nil, err
		}
		return result.Len() > 0, flattenTriples(result), nil
	default:
		ok, err := ec.evaluateFilter(collection, view, f)
		return ok, nil, err
	}
}

func flattenTriples(r *querymodel.FetchResult) []triple.Triple {
	var out []triple.Triple
	for _, id := range r.Order {
		out = append(out, r.Triples[id]...)
	}
	return out
}

// errNoAncestorFilter marks an include that isn't linked to its parent
// by a reversible ancestor filter (e.g. a relation expressed purely as a
// literal equality): not every node in the tree can be a permutation
// root, and that is expected, not an error.
var errNoAncestorFilter = errors.New("queryengine: include has no ancestor filter to reverse")

// rootPermutations enumerates q itself plus one permutation per node
// reachable through its include tree whose sub-query has a reversible
// ancestor filter, rerooting the tree at that node with edges reversed
// (spec §4.8 "root permutation"); nodes without one are skipped, their
// descendants are still visited. Only the include
// tree is permuted: a query's include edges are the only place this
// engine represents a parent/child relationship as data, so they are
// the edges root permutation rewrites; subquery-exists and
// exists-relation filters are left untouched and simply re-evaluated
// against whichever entity ends up at the root of each permutation.
func rootPermutations(q *querymodel.Query) ([]*querymodel.Query, error) {
	perms := []*querymodel.Query{q}
	var walkErr error
	var walk func(node *querymodel.Query, path []string)
	walk = func(node *querymodel.Query, path []string) {
		if walkErr != nil {
			return
		}
		for alias, spec := range node.Include {
			if spec.SubQuery == nil {
				continue
			}
			childPath := append(append([]string{}, path...), alias)
			perm, err := reroot(q, childPath)
			switch {
			case errors.Is(err, errNoAncestorFilter):
				// not a permutation root, but its descendants still are.
			case err != nil:
				walkErr = err
				return
			default:
				perms = append(perms, perm)
			}
			walk(spec.SubQuery, childPath)
		}
	}
	walk(q, nil)
	if walkErr != nil {
		return nil, walkErr
	}
	return perms, nil
}

// reroot rewrites q so the node reachable by following path (a sequence
// of include aliases from q) becomes the new root, reversing one edge
// per path segment. Reversing an edge moves its ancestor filter from
// the child's Where (transformed via querymodel.ReverseOp) onto the
// parent's Where, and flips which side holds the Include (spec §4.8).
func reroot(q *querymodel.Query, path []string) (*querymodel.Query, error) {
	if len(path) == 0 {
		return q, nil
	}
	alias := path[0]
	spec, ok := q.Include[alias]
	if !ok || spec.SubQuery == nil {
		return nil, fmt.Errorf("queryengine: root permutation: unknown include %q", alias)
	}
	child := spec.SubQuery

	idx, leafPath, op, ancestorPath, found := findAncestorFilter(child, 1)
	if !found {
		return nil, errNoAncestorFilter
	}
	revOp, err := querymodel.ReverseOp(op)
	if err != nil {
		return nil, err
	}

	newParent := cloneWithoutInclude(q, alias)
	newParent = cloneWithAppendedWhere(newParent, &querymodel.StatementFilter{
		Path:  ancestorPath,
		Op:    revOp,
		Value: "$1." + leafPath.String(),
	})

	newChild := cloneWithoutWhereIdx(child, idx)
	newChild = cloneWithInclude(newChild, alias, querymodel.IncludeSpec{SubQuery: newParent, Cardinality: spec.Cardinality})

	if len(path) == 1 {
		return newChild, nil
	}
	return reroot(newChild, path[1:])
}

// findAncestorFilter looks for a top-level StatementFilter in q.Where
// referencing ancestor N by a single path segment (no further relation
// hop), returning enough to build its reversal: the index to remove,
// the leaf path being compared, the operator, and the ancestor path it
// was compared against.
func findAncestorFilter(q *querymodel.Query, ancestorN int) (idx int, leafPath triple.Path, op querymodel.Op, ancestorPath triple.Path, ok bool) {
	for i, f := range q.Where {
		stmt, isStmt := f.(*querymodel.StatementFilter)
		if !isStmt {
			continue
		}
		s, isStr := stmt.Value.(string)
		if !isStr || !strings.HasPrefix(s, "$") {
			continue
		}
		ref, err := vars.ParseReference(s)
		if err != nil || ref.Scope != vars.ScopeAncestor || ref.Ancestor != ancestorN || ref.HasRelationHop() {
			continue
		}
		return i, stmt.Path, stmt.Op, ref.Path, true
	}
	return 0, nil, 0, nil, false
}

func cloneWithoutInclude(q *querymodel.Query, alias string) *querymodel.Query {
	cp := *q
	cp.Include = make(map[string]querymodel.IncludeSpec, len(q.Include))
	for k, v := range q.Include {
		if k == alias {
			continue
		}
		cp.Include[k] = v
	}
	return &cp
}

func cloneWithInclude(q *querymodel.Query, alias string, spec querymodel.IncludeSpec) *querymodel.Query {
	cp := *q
	cp.Include = make(map[string]querymodel.IncludeSpec, len(q.Include)+1)
	for k, v := range q.Include {
		cp.Include[k] = v
	}
	cp.Include[alias] = spec
	return &cp
}

func cloneWithoutWhereIdx(q *querymodel.Query, idx int) *querymodel.Query {
	cp := *q
	where := make([]querymodel.Filter, 0, len(q.Where))
	for i, f := range q.Where {
		if i == idx {
			continue
		}
		where = append(where, f)
	}
	cp.Where = where
	return &cp
}

func cloneWithAppendedWhere(q *querymodel.Query, f querymodel.Filter) *querymodel.Query {
	cp := *q
	cp.Where = append(append([]querymodel.Filter{}, q.Where...), f)
	return &cp
}
