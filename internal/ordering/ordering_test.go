package ordering

import "testing"

func TestCompareRankOrder(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want int
	}{
		{"nil before bool", nil, false, -1},
		{"bool before number", true, 1.0, -1},
		{"number before string", 2.0, "a", -1},
		{"string before other", "z", []int{1}, -1},
		{"nil equals nil", nil, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.a, tc.b); got != tc.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCompareWithinRank(t *testing.T) {
	if Compare(false, true) != -1 {
		t.Errorf("Compare(false, true) should be -1")
	}
	if Compare(int(3), float64(3)) != 0 {
		t.Errorf("mixed numeric kinds of equal value should compare equal")
	}
	if Compare("a", "b") != -1 {
		t.Errorf("Compare(a, b) should be -1")
	}
	if Compare(5.0, 5.0) != 0 {
		t.Errorf("Compare(5.0, 5.0) should be 0")
	}
}

func TestCompareUncomparableKindNeverPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Compare panicked on uncomparable kind: %v", r)
		}
	}()
	a := map[string]int{"x": 1}
	b := map[string]int{"x": 1}
	if Compare(a, b) != 0 {
		t.Errorf("Compare on DeepEqual maps should be 0")
	}
	c := map[string]int{"y": 2}
	if Compare(a, c) == 0 {
		t.Errorf("Compare on differing maps should not be 0")
	}
}

func TestLessAndEqual(t *testing.T) {
	if !Less(nil, 1.0) {
		t.Errorf("Less(nil, 1.0) should be true")
	}
	if !Equal("a", "a") {
		t.Errorf("Equal(a, a) should be true")
	}
	if Equal("a", "b") {
		t.Errorf("Equal(a, b) should be false")
	}
}
