package querymodel

import (
	"errors"
	"testing"
)

func TestReverseOpTotalOnComparisons(t *testing.T) {
	cases := []struct {
		op   Op
		want Op
	}{
		{OpEq, OpEq},
		{OpNeq, OpNeq},
		{OpLt, OpGt},
		{OpGt, OpLt},
		{OpLte, OpGte},
		{OpGte, OpLte},
		{OpIn, OpHas},
		{OpHas, OpIn},
		{OpNin, OpNotHas},
		{OpNotHas, OpNin},
	}
	for _, tc := range cases {
		got, err := ReverseOp(tc.op)
		if err != nil {
			t.Fatalf("ReverseOp(%s) error = %v", tc.op, err)
		}
		if got != tc.want {
			t.Errorf("ReverseOp(%s) = %s, want %s", tc.op, got, tc.want)
		}
	}
}

func TestReverseOpUninvertible(t *testing.T) {
	for _, op := range []Op{OpLike, OpNotLike, OpIsDefined} {
		_, err := ReverseOp(op)
		if err == nil {
			t.Errorf("ReverseOp(%s) should error, has no inverse", op)
		}
		var target *ReverseOperatorError
		if !errors.As(err, &target) {
			t.Errorf("ReverseOp(%s) error should be *ReverseOperatorError, got %T", op, err)
		}
	}
}

func TestReverseOpIsInvolution(t *testing.T) {
	for op := range reverseOp {
		first, err := ReverseOp(op)
		if err != nil {
			t.Fatalf("ReverseOp(%s) error = %v", op, err)
		}
		back, err := ReverseOp(first)
		if err != nil {
			t.Fatalf("ReverseOp(%s) error = %v", first, err)
		}
		if back != op {
			t.Errorf("ReverseOp is not its own inverse for %s: got %s back, want %s", op, back, op)
		}
	}
}

func TestFlattenAndFlattensNestedTerms(t *testing.T) {
	a := &StatementFilter{Path: []string{"x"}, Op: OpEq, Value: 1}
	b := &StatementFilter{Path: []string{"y"}, Op: OpEq, Value: 2}
	nested := &AndFilter{Terms: []Filter{a, b}}
	c := &StatementFilter{Path: []string{"z"}, Op: OpEq, Value: 3}

	got := FlattenAnd(nested, c)
	and, ok := got.(*AndFilter)
	if !ok {
		t.Fatalf("FlattenAnd() = %T, want *AndFilter", got)
	}
	if len(and.Terms) != 3 {
		t.Errorf("FlattenAnd() produced %d terms, want 3 (flattened)", len(and.Terms))
	}
}

func TestFlattenAndSingleton(t *testing.T) {
	a := &StatementFilter{Path: []string{"x"}, Op: OpEq, Value: 1}
	if got := FlattenAnd(a); got != Filter(a) {
		t.Errorf("FlattenAnd(single) should return the term unwrapped")
	}
}

func TestFlattenAndEmpty(t *testing.T) {
	got := FlattenAnd()
	lit, ok := got.(*BooleanLiteralFilter)
	if !ok || !lit.Value {
		t.Errorf("FlattenAnd() = %v, want true literal", got)
	}
}
