// Package ordering implements the total-order comparison used by range
// scans (§6.1) and by C7 sort/cursor (spec §4.7): a deterministic
// ordering over the small set of value kinds triples carry, so that
// cross-type comparisons (a leaf that used to be a number and is now a
// string, a missing value against a present one) never panic and never
// depend on map iteration order. Conceptually this is the same
// contract a total-order byte encoding would give; comparing typed
// Go values directly is equivalent and avoids an extra encode step.
package ordering

import (
	"fmt"
	"reflect"
)

// rank orders value kinds so that anything missing sorts before any
// present value, and then boolean < number < string < other, matching
// the teacher's numeric-first, string-fallback comparison
// (internal/query/pipeline_ops.go compareSortValues) generalized to a
// full total order across kinds instead of just two.
func rank(v any) int {
	if v == nil {
		return 0
	}
	switch v.(type) {
	case bool:
		return 1
	case float64, float32, int, int64, int32, uint64, uint32:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

// Compare returns -1, 0, or 1 comparing a and b in total order. Missing
// (nil) sorts as MIN, per spec §4.7 "missing values sort as MIN".
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		return 0
	case 1:
		ba, bb := a.(bool), b.(bool)
		if ba == bb {
			return 0
		}
		if !ba {
			return -1
		}
		return 1
	case 2:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case 3:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	default:
		// Equal rank, uncomparable kind: fall back to a stable but
		// otherwise arbitrary comparison over the formatted value so
		// Compare never panics and ties still resolve deterministically.
		if reflect.DeepEqual(a, b) {
			return 0
		}
		sa, sb := fmt.Sprint(a), fmt.Sprint(b)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b any) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b compare equal in total order.
func Equal(a, b any) bool { return Compare(a, b) == 0 }
