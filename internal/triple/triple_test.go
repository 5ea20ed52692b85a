package triple

import "testing"

func TestTimestampCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b Timestamp
		want int
	}{
		{"tick breaks tie", Timestamp{Tick: 1, ClientID: "b"}, Timestamp{Tick: 2, ClientID: "a"}, -1},
		{"client breaks tie", Timestamp{Tick: 5, ClientID: "a"}, Timestamp{Tick: 5, ClientID: "b"}, -1},
		{"equal", Timestamp{Tick: 5, ClientID: "a"}, Timestamp{Tick: 5, ClientID: "a"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Compare(tc.b); got != tc.want {
				t.Errorf("Compare() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEntityIDSplit(t *testing.T) {
	id := NewEntityID("users", "1")
	collection, ext, err := id.Split()
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if collection != "users" || ext != "1" {
		t.Errorf("Split() = (%q, %q), want (users, 1)", collection, ext)
	}

	if _, _, err := EntityID("malformed").Split(); err != ErrMalformedEntityID {
		t.Errorf("Split() on malformed id: got %v, want ErrMalformedEntityID", err)
	}
}

func TestMaterializeLastWriteWins(t *testing.T) {
	id := NewEntityID("users", "1")
	triples := []Triple{
		{Entity: id, Path: Path{"name"}, Value: "Alice", Timestamp: Timestamp{Tick: 1, ClientID: "a"}},
		{Entity: id, Path: Path{"name"}, Value: "Alicia", Timestamp: Timestamp{Tick: 2, ClientID: "a"}},
	}
	view := Materialize(id, triples, nil)
	if got := view.Value(Path{"name"}); got != "Alicia" {
		t.Errorf("Value() = %v, want Alicia", got)
	}
}

func TestMaterializeStateVectorBound(t *testing.T) {
	id := NewEntityID("users", "1")
	triples := []Triple{
		{Entity: id, Path: Path{"name"}, Value: "Alice", Timestamp: Timestamp{Tick: 1, ClientID: "a"}},
		{Entity: id, Path: Path{"name"}, Value: "Alicia", Timestamp: Timestamp{Tick: 2, ClientID: "a"}},
	}
	bound := StateVector{"a": 1}
	view := Materialize(id, triples, bound)
	if got := view.Value(Path{"name"}); got != "Alice" {
		t.Errorf("Value() bounded = %v, want Alice", got)
	}
}

func TestTombstoneRule(t *testing.T) {
	id := NewEntityID("users", "1")
	view := NewEntityView(id)
	view.Apply(Triple{Entity: id, Path: Path{"name"}, Value: "Alice", Timestamp: Timestamp{Tick: 1, ClientID: "a"}})
	if view.Tombstoned() {
		t.Fatalf("Tombstoned() = true before retraction")
	}
	view.Apply(Triple{Entity: id, Path: CollectionPath, Value: nil, Timestamp: Timestamp{Tick: 5, ClientID: "a"}, Retraction: true})
	if !view.Tombstoned() {
		t.Errorf("Tombstoned() = false after _collection retraction")
	}
}

func TestBeforeVector(t *testing.T) {
	triples := []Triple{
		{Timestamp: Timestamp{Tick: 5, ClientID: "a"}},
		{Timestamp: Timestamp{Tick: 7, ClientID: "a"}},
		{Timestamp: Timestamp{Tick: 1, ClientID: "b"}},
	}
	sv := BeforeVector(triples)
	if sv["a"] != 4 {
		t.Errorf("sv[a] = %d, want 4", sv["a"])
	}
	if _, ok := sv["b"]; ok {
		t.Errorf("sv[b] present, want absent (min tick 1 - 1 = 0)")
	}
}

func TestEncodeDecodeDeltaRoundTrip(t *testing.T) {
	triples := []Triple{
		{Entity: NewEntityID("users", "1"), Path: Path{"name"}, Value: "Alice", Timestamp: Timestamp{Tick: 1, ClientID: "a"}},
	}
	data, err := EncodeDelta(triples)
	if err != nil {
		t.Fatalf("EncodeDelta() error = %v", err)
	}
	got, err := DecodeDelta(data)
	if err != nil {
		t.Fatalf("DecodeDelta() error = %v", err)
	}
	if len(got) != 1 || got[0].Entity != triples[0].Entity {
		t.Errorf("DecodeDelta() = %+v, want %+v", got, triples)
	}
}
