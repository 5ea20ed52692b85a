package iterseq

import (
	"errors"
	"testing"
)

func TestMapTransformsElements(t *testing.T) {
	in := Of([]int{1, 2, 3})
	out, err := Collect(Map(in, func(v int) (int, error) { return v * 2, nil }))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []int{2, 4, 6}
	if len(out) != len(want) {
		t.Fatalf("Map() = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Map()[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestMapPropagatesTransformError(t *testing.T) {
	in := Of([]int{1, 2, 3})
	sentinel := errors.New("boom")
	_, err := Collect(Map(in, func(v int) (int, error) {
		if v == 2 {
			return 0, sentinel
		}
		return v, nil
	}))
	if !errors.Is(err, sentinel) {
		t.Errorf("Collect() error = %v, want %v", err, sentinel)
	}
}

func TestFilterKeepsOnlyMatching(t *testing.T) {
	in := Of([]int{1, 2, 3, 4, 5})
	out, err := Collect(Filter(in, func(v int) (bool, error) { return v%2 == 0, nil }))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(out) != 2 || out[0] != 2 || out[1] != 4 {
		t.Errorf("Filter(even) = %v, want [2 4]", out)
	}
}

func TestTapRunsSideEffectWithoutAlteringSequence(t *testing.T) {
	in := Of([]int{1, 2, 3})
	var seen []int
	out, err := Collect(Tap(in, func(v int) { seen = append(seen, v) }))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(out) != 3 || len(seen) != 3 {
		t.Errorf("Tap() out=%v seen=%v, want both length 3", out, seen)
	}
}

func TestSortBuffersAndOrders(t *testing.T) {
	in := Of([]int{3, 1, 2})
	out, err := Collect(Sort(in, func(a, b int) bool { return a < b }))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []int{1, 2, 3}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Sort() = %v, want %v", out, want)
		}
	}
}

func TestTakeTruncates(t *testing.T) {
	in := Of([]int{1, 2, 3, 4, 5})
	out, err := Collect(Take(in, 2))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Errorf("Take(2) = %v, want [1 2]", out)
	}
}

func TestTakeZeroOrNegativeIsUnlimited(t *testing.T) {
	in := Of([]int{1, 2, 3})
	out, err := Collect(Take(in, 0))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(out) != 3 {
		t.Errorf("Take(0) = %v, want all 3 elements", out)
	}
}

func TestCollectStopsAtFirstError(t *testing.T) {
	sentinel := errors.New("boom")
	seq := func(yield func(int, error) bool) {
		if !yield(1, nil) {
			return
		}
		if !yield(0, sentinel) {
			return
		}
		yield(2, nil)
	}
	out, err := Collect[int](seq)
	if !errors.Is(err, sentinel) {
		t.Errorf("Collect() error = %v, want %v", err, sentinel)
	}
	if out != nil {
		t.Errorf("Collect() on error should return nil slice, got %v", out)
	}
}
