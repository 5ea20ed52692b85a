package queryengine

import (
	"strings"

	"triplequery/internal/querymodel"
	"triplequery/internal/refstore"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
)

// PathKind is the access path C1 chose for a query.
type PathKind int

const (
	PathIDPoint PathKind = iota
	PathEqualityScan
	PathRangeScan
	PathOrderScan
	PathFullScan
)

// AccessPath is C1's output: which path to walk and how (spec §4.1).
type AccessPath struct {
	Kind      PathKind
	Path      triple.Path // ignored for PathIDPoint
	EqualTo   any         // PathIDPoint (external id) / PathEqualityScan
	Range     refstore.RangeOptions
	Direction refstore.Direction
}

// Plan is C1's full output, including which where/order/after clauses
// the chosen path already proves (spec §4.1: "fulfilled").
type Plan struct {
	Access         AccessPath
	FulfilledWhere map[int]bool
	FulfilledOrder bool
	FulfilledAfter bool
}

// selectIndex implements C1's precedence rules: ID point > equality
// scan > range scan > order scan > full scan, first rule that fires
// wins. Only top-level statement filters are considered; planning
// never descends into and/or groups (spec §4.1 rationale: one index
// per query, trading over-scan for planner simplicity).
func selectIndex(q *querymodel.Query, schemaSvc schema.Service) (*Plan, error) {
	if plan := selectIDPoint(q); plan != nil {
		return plan, nil
	}
	if plan, err := selectEqualityScan(q, schemaSvc); plan != nil || err != nil {
		return plan, err
	}
	if plan := selectRangeScan(q); plan != nil {
		return plan, nil
	}
	if plan, err := selectOrderScan(q, schemaSvc); plan != nil || err != nil {
		return plan, err
	}
	return selectFullScan(), nil
}

var idPath = triple.Path{"id"}

// isVarRef reports whether v is an unresolved "$" variable reference.
// Index lookups compare stored values literally, so statements with a
// variable value never pick an access path; C4 resolves and checks them.
func isVarRef(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "$")
}

func selectIDPoint(q *querymodel.Query) *Plan {
	for i, f := range q.Where {
		stmt, ok := f.(*querymodel.StatementFilter)
		if !ok || stmt.Op != querymodel.OpEq || !stmt.Path.Equal(idPath) || isVarRef(stmt.Value) {
			continue
		}
		return &Plan{
			Access:         AccessPath{Kind: PathIDPoint, EqualTo: stmt.Value},
			FulfilledWhere: map[int]bool{i: true},
		}
	}
	return nil
}

func isScanEligible(t schema.DataType) bool {
	switch t {
	case schema.TypeString, schema.TypeNumber, schema.TypeBoolean, schema.TypeDate, schema.TypeSet:
		return true
	default:
		return false
	}
}

func selectEqualityScan(q *querymodel.Query, schemaSvc schema.Service) (*Plan, error) {
	for i, f := range q.Where {
		stmt, ok := f.(*querymodel.StatementFilter)
		if !ok || stmt.Op != querymodel.OpEq || stmt.Path.Equal(idPath) || isVarRef(stmt.Value) {
			continue
		}
		attr, ok := schemaSvc.GetAttribute(q.Collection, stmt.Path)
		if !ok || !isScanEligible(attr.Type) {
			continue
		}
		return &Plan{
			Access:         AccessPath{Kind: PathEqualityScan, Path: stmt.Path, EqualTo: stmt.Value},
			FulfilledWhere: map[int]bool{i: true},
		}, nil
	}
	return nil, nil
}

func selectRangeScan(q *querymodel.Query) *Plan {
	for i, f := range q.Where {
		stmt, ok := f.(*querymodel.StatementFilter)
		if !ok || !isRangeOp(stmt.Op) || isVarRef(stmt.Value) {
			continue
		}
		opts := refstore.RangeOptions{}
		applyRangeBound(&opts, stmt)
		fulfilled := map[int]bool{i: true}

		// Look for a complementary-direction statement on the same
		// path later in where, forming a two-sided bound.
		for j := i + 1; j < len(q.Where); j++ {
			other, ok := q.Where[j].(*querymodel.StatementFilter)
			if !ok || !other.Path.Equal(stmt.Path) || !isRangeOp(other.Op) || isVarRef(other.Value) {
				continue
			}
			if complementaryDirection(stmt.Op, other.Op) {
				applyRangeBound(&opts, other)
				fulfilled[j] = true
				break
			}
		}
		return &Plan{
			Access:         AccessPath{Kind: PathRangeScan, Path: stmt.Path, Range: opts},
			FulfilledWhere: fulfilled,
		}
	}
	return nil
}

func isRangeOp(op querymodel.Op) bool {
	switch op {
	case querymodel.OpLt, querymodel.OpLte, querymodel.OpGt, querymodel.OpGte:
		return true
	default:
		return false
	}
}

func isLowerBound(op querymodel.Op) bool {
	return op == querymodel.OpGt || op == querymodel.OpGte
}

// complementaryDirection reports whether a and b bound opposite sides
// of a range (one lower, one upper).
func complementaryDirection(a, b querymodel.Op) bool {
	return isLowerBound(a) != isLowerBound(b)
}

func applyRangeBound(opts *refstore.RangeOptions, stmt *querymodel.StatementFilter) {
	switch stmt.Op {
	case querymodel.OpGt:
		opts.Gt = stmt.Value
	case querymodel.OpGte:
		opts.Gte = stmt.Value
	case querymodel.OpLt:
		opts.Lt = stmt.Value
	case querymodel.OpLte:
		opts.Lte = stmt.Value
	}
}

func selectOrderScan(q *querymodel.Query, schemaSvc schema.Service) (*Plan, error) {
	if len(q.Order) == 0 {
		return nil, nil
	}
	first := q.Order[0]
	attr, ok := schemaSvc.GetAttribute(q.Collection, first.Path)
	if !ok || attr.Type == schema.TypeQuery {
		return nil, nil
	}

	dir := refstore.Ascending
	if first.Direction == querymodel.Desc {
		dir = refstore.Descending
	}
	access := AccessPath{Kind: PathOrderScan, Path: first.Path, Direction: dir}

	plan := &Plan{Access: access, FulfilledWhere: map[int]bool{}}

	// Multi-key orders are never order-fulfilled; C7 still re-sorts.
	if len(q.Order) > 1 {
		return plan, nil
	}
	plan.FulfilledOrder = true

	if q.After == nil {
		return plan, nil
	}
	plan.FulfilledAfter = true
	cursor := &refstore.RangeCursor{Value: q.After.Value, EntityID: q.After.EntityID}
	if first.Direction == querymodel.Asc {
		if q.After.Inclusive {
			access.Range.GteCursor = cursor
		} else {
			access.Range.GtCursor = cursor
		}
	} else {
		if q.After.Inclusive {
			access.Range.LteCursor = cursor
		} else {
			access.Range.LtCursor = cursor
		}
	}
	plan.Access = access
	return plan, nil
}

func selectFullScan() *Plan {
	return &Plan{
		Access:         AccessPath{Kind: PathFullScan, Path: triple.CollectionPath},
		FulfilledWhere: map[int]bool{},
	}
}
