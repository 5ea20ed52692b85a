// Package iterseq provides the lazy, pull-based stream combinators the
// query engine composes its pipeline from (spec §5, §9 design note on
// lazy sequences): map, filter, tap, sort and take over iter.Seq2,
// mirroring the teacher's own yield-func iterator style (see
// internal/query/merge.go) but generalized to carry an error alongside
// every element instead of terminating the sequence on first error.
package iterseq

import (
	"iter"
	"sort"
)

// Seq is a pull-based stream of (T, error) pairs, aliasing iter.Seq2 for
// readability at call sites. A non-nil error on an element does not by
// itself stop iteration; callers decide whether to break.
type Seq[T any] = iter.Seq2[T, error]

// Of builds a Seq from a concrete slice, useful for tests and for the
// in-memory reference store.
func Of[T any](items []T) Seq[T] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Map transforms each element lazily; transform errors short-circuit
// the sequence.
func Map[T, U any](in Seq[T], transform func(T) (U, error)) Seq[U] {
	return func(yield func(U, error) bool) {
		for v, err := range in {
			if err != nil {
				var zero U
				yield(zero, err)
				return
			}
			out, err := transform(v)
			if err != nil {
				var zero U
				yield(zero, err)
				return
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

// Filter keeps only elements for which keep returns true. A keep error
// propagates downstream and stops the sequence.
func Filter[T any](in Seq[T], keep func(T) (bool, error)) Seq[T] {
	return func(yield func(T, error) bool) {
		for v, err := range in {
			if err != nil {
				if !yield(v, err) {
					return
				}
				continue
			}
			ok, err := keep(v)
			if err != nil {
				yield(v, err)
				return
			}
			if ok {
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

// Tap invokes fn for each element's side effect (e.g. collecting
// matched triples for a result) without altering the sequence.
func Tap[T any](in Seq[T], fn func(T)) Seq[T] {
	return func(yield func(T, error) bool) {
		for v, err := range in {
			if err == nil {
				fn(v)
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

// Sort buffers the entire sequence and emits it in less-ordered form.
// Buffering is unavoidable here (spec §4.7): a stable sort needs to see
// every candidate before it can emit the first result. An error seen
// while draining in aborts the sort and is forwarded as the sole
// element.
func Sort[T any](in Seq[T], less func(a, b T) bool) Seq[T] {
	return func(yield func(T, error) bool) {
		buf := make([]T, 0)
		for v, err := range in {
			if err != nil {
				var zero T
				_ = zero
				yield(v, err)
				return
			}
			buf = append(buf, v)
		}
		sort.SliceStable(buf, func(i, j int) bool { return less(buf[i], buf[j]) })
		for _, v := range buf {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Take truncates the sequence to at most n elements. n <= 0 means
// unlimited.
func Take[T any](in Seq[T], n int) Seq[T] {
	if n <= 0 {
		return in
	}
	return func(yield func(T, error) bool) {
		count := 0
		for v, err := range in {
			if err != nil {
				yield(v, err)
				return
			}
			if count >= n {
				return
			}
			count++
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect drains the sequence into a slice, stopping at the first
// error.
func Collect[T any](in Seq[T]) ([]T, error) {
	var out []T
	for v, err := range in {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
