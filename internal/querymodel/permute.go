package querymodel

import "fmt"

// ReverseOperatorError is returned when root permutation needs to invert
// an operator with no defined inverse (spec §4.8, §9 design note on
// operator inversion).
type ReverseOperatorError struct {
	Op Op
}

func (e *ReverseOperatorError) Error() string {
	return fmt.Sprintf("querymodel: operator %s has no inverse for root permutation", e.Op)
}

// reverseOp is the total function over the ten operators root
// permutation needs to invert. Membership operators invert to their
// "has" counterpart because reversing a relation edge swaps which side
// owns the collection and which side owns the member: `(parent,
// in, $1.tags)` on the child side becomes `(tags, has, $1.parent)` on
// the reversed root.
var reverseOp = map[Op]Op{
	OpEq:     OpEq,
	OpNeq:    OpNeq,
	OpLt:     OpGt,
	OpGt:     OpLt,
	OpLte:    OpGte,
	OpGte:    OpLte,
	OpIn:     OpHas,
	OpHas:    OpIn,
	OpNin:    OpNotHas,
	OpNotHas: OpNin,
}

// ReverseOp inverts op for use on the other side of a reversed relation
// edge. like/nlike/isDefined have no defined inverse: they are not
// relation-edge operators, so a permutation should never need to invert
// them; encountering one here is a planner bug, surfaced rather than
// guessed at.
func ReverseOp(op Op) (Op, error) {
	inv, ok := reverseOp[op]
	if !ok {
		return 0, &ReverseOperatorError{Op: op}
	}
	return inv, nil
}
