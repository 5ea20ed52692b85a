package refstore

import (
	"context"
	"testing"

	"triplequery/internal/triple"
)

func collect(t *testing.T, seq func(yield func(triple.Triple, error) bool)) []triple.Triple {
	t.Helper()
	var out []triple.Triple
	for tr, err := range seq {
		if err != nil {
			t.Fatalf("unexpected error from sequence: %v", err)
		}
		out = append(out, tr)
	}
	return out
}

func TestMemoryIndexFindByAVE(t *testing.T) {
	idx := NewMemoryIndex()
	id1 := triple.NewEntityID("users", "1")
	id2 := triple.NewEntityID("users", "2")
	idx.Write([]triple.Triple{
		{Entity: id1, Path: triple.Path{"name"}, Value: "Alice", Timestamp: triple.Timestamp{Tick: 1, ClientID: "a"}},
		{Entity: id2, Path: triple.Path{"name"}, Value: "Bob", Timestamp: triple.Timestamp{Tick: 1, ClientID: "a"}},
	})

	got := collect(t, idx.FindByAVE(context.Background(), triple.Path{"name"}, "Alice"))
	if len(got) != 1 || got[0].Entity != id1 {
		t.Errorf("FindByAVE(name, Alice) = %+v, want only id1", got)
	}

	all := collect(t, idx.FindByAVE(context.Background(), triple.Path{"name"}, nil))
	if len(all) != 2 {
		t.Errorf("FindByAVE(name, nil) = %d results, want 2", len(all))
	}
}

func TestMemoryIndexFindValuesInRangeWithCursor(t *testing.T) {
	idx := NewMemoryIndex()
	ids := []triple.EntityID{
		triple.NewEntityID("users", "1"),
		triple.NewEntityID("users", "2"),
		triple.NewEntityID("users", "3"),
	}
	idx.Write([]triple.Triple{
		{Entity: ids[0], Path: triple.Path{"age"}, Value: 10.0, Timestamp: triple.Timestamp{Tick: 1, ClientID: "a"}},
		{Entity: ids[1], Path: triple.Path{"age"}, Value: 20.0, Timestamp: triple.Timestamp{Tick: 2, ClientID: "a"}},
		{Entity: ids[2], Path: triple.Path{"age"}, Value: 30.0, Timestamp: triple.Timestamp{Tick: 3, ClientID: "a"}},
	})

	got := collect(t, idx.FindValuesInRange(context.Background(), triple.Path{"age"}, RangeOptions{
		Direction: Ascending,
		GtCursor:  &RangeCursor{Value: 10.0, EntityID: ids[0]},
	}))
	if len(got) != 2 || got[0].Value != 20.0 || got[1].Value != 30.0 {
		t.Errorf("FindValuesInRange with GtCursor = %+v, want [20, 30]", got)
	}

	desc := collect(t, idx.FindValuesInRange(context.Background(), triple.Path{"age"}, RangeOptions{
		Direction: Descending,
	}))
	if len(desc) != 3 || desc[0].Value != 30.0 {
		t.Errorf("FindValuesInRange descending = %+v, want 30 first", desc)
	}
}

func TestMemoryIndexFindByEntity(t *testing.T) {
	idx := NewMemoryIndex()
	id := triple.NewEntityID("users", "1")
	idx.Write([]triple.Triple{
		{Entity: id, Path: triple.Path{"name"}, Value: "Alice", Timestamp: triple.Timestamp{Tick: 1, ClientID: "a"}},
		{Entity: id, Path: triple.Path{"age"}, Value: 30.0, Timestamp: triple.Timestamp{Tick: 2, ClientID: "a"}},
	})
	got := collect(t, idx.FindByEntity(context.Background(), id))
	if len(got) != 2 {
		t.Errorf("FindByEntity() = %d triples, want 2", len(got))
	}
}

func TestMemoryIndexOnWriteNotifiesInOrder(t *testing.T) {
	idx := NewMemoryIndex()
	var seen []int
	unsub := idx.OnWrite(func(b WriteBatch) {
		seen = append(seen, len(b.Inserts))
	})

	idx.Write([]triple.Triple{{Entity: triple.NewEntityID("users", "1")}})
	idx.Write([]triple.Triple{{Entity: triple.NewEntityID("users", "2")}, {Entity: triple.NewEntityID("users", "3")}})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("OnWrite callbacks = %v, want [1 2] in arrival order", seen)
	}

	unsub()
	idx.Write([]triple.Triple{{Entity: triple.NewEntityID("users", "4")}})
	if len(seen) != 2 {
		t.Errorf("callback still firing after unsubscribe: %v", seen)
	}
}
