package querymodel

import (
	"fmt"
	"strings"

	"triplequery/internal/triple"
)

// Op is a filter statement's comparison operator (spec §3).
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpNin
	OpHas
	OpNotHas
	OpLike
	OpNotLike
	OpIsDefined
)

func (op Op) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpIn:
		return "in"
	case OpNin:
		return "nin"
	case OpHas:
		return "has"
	case OpNotHas:
		return "!has"
	case OpLike:
		return "like"
	case OpNotLike:
		return "nlike"
	case OpIsDefined:
		return "isDefined"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Filter is the interface for all where-clause AST nodes. The marker
// method keeps it a closed set, mirroring the teacher's querylang.Expr.
type Filter interface {
	filter()
	String() string
}

// StatementFilter is a leaf (path, op, value) comparison. Value may be a
// literal or a Variable reference (spec §4.5), resolved by C5 before
// comparison.
type StatementFilter struct {
	Path  triple.Path
	Op    Op
	Value any
}

func (*StatementFilter) filter() {}

func (s *StatementFilter) String() string {
	return fmt.Sprintf("%s %s %v", s.Path, s.Op, s.Value)
}

// AndFilter is a conjunction; invariant len(Terms) >= 1.
type AndFilter struct {
	Terms []Filter
}

func (*AndFilter) filter() {}

func (a *AndFilter) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// OrFilter is a disjunction; invariant len(Terms) >= 1.
type OrFilter struct {
	Terms []Filter
}

func (*OrFilter) filter() {}

func (o *OrFilter) String() string {
	parts := make([]string, len(o.Terms))
	for i, t := range o.Terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// SubqueryExistsFilter is true iff the inner query (cardinality one)
// returns a result for the current scope.
type SubqueryExistsFilter struct {
	SubQuery *Query
}

func (*SubqueryExistsFilter) filter() {}

func (s *SubqueryExistsFilter) String() string {
	return "EXISTS(" + s.SubQuery.Collection + ")"
}

// ExistsRelationFilter is sugar over SubqueryExistsFilter for a declared
// schema relation; the engine expands it via the schema service before
// evaluation (spec §4.4).
type ExistsRelationFilter struct {
	Relation string
	Where    []Filter // additional filters applied inside the relation's sub-query
}

func (*ExistsRelationFilter) filter() {}

func (e *ExistsRelationFilter) String() string {
	return "EXISTS_RELATION(" + e.Relation + ")"
}

// BooleanLiteralFilter is a constant true/false filter node.
type BooleanLiteralFilter struct {
	Value bool
}

func (*BooleanLiteralFilter) filter() {}

func (b *BooleanLiteralFilter) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// FlattenAnd combines filters into an AndFilter, flattening nested
// AndFilter terms, matching the teacher's querylang.FlattenAnd.
func FlattenAnd(filters ...Filter) Filter {
	if len(filters) == 0 {
		return &BooleanLiteralFilter{Value: true}
	}
	if len(filters) == 1 {
		return filters[0]
	}
	var terms []Filter
	for _, f := range filters {
		if a, ok := f.(*AndFilter); ok {
			terms = append(terms, a.Terms...)
		} else {
			terms = append(terms, f)
		}
	}
	return &AndFilter{Terms: terms}
}
