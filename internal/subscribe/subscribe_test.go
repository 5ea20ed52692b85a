package subscribe

import (
	"context"
	"sync"
	"testing"
	"time"

	"triplequery/internal/querymodel"
	"triplequery/internal/queryengine"
	"triplequery/internal/refstore"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
)

func seedPerson(idx *refstore.MemoryIndex, extID, name string, age float64) triple.EntityID {
	id := triple.NewEntityID("people", extID)
	refstore.Seed(idx,
		triple.Triple{Entity: id, Path: triple.CollectionPath, Value: "people", Timestamp: triple.Timestamp{Tick: 1, ClientID: "seed"}},
		triple.Triple{Entity: id, Path: triple.Path{"name"}, Value: name, Timestamp: triple.Timestamp{Tick: 1, ClientID: "seed"}},
		triple.Triple{Entity: id, Path: triple.Path{"age"}, Value: age, Timestamp: triple.Timestamp{Tick: 1, ClientID: "seed"}},
	)
	return id
}

func newPeopleFixture() (*refstore.MemoryIndex, schema.Service) {
	idx := refstore.NewMemoryIndex()
	s := schema.NewMemoryService()
	s.Declare("people", map[string]schema.Attribute{
		"name": {Type: schema.TypeString},
		"age":  {Type: schema.TypeNumber},
	}, nil)
	seedPerson(idx, "1", "Alice", 30)
	seedPerson(idx, "2", "Bob", 20)
	return idx, s
}

type recorder struct {
	mu      sync.Mutex
	results []Result
	errs    []error
}

func (r *recorder) onResult(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[len(r.results)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func TestSubscribeDeliversInitialResultSynchronously(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{Collection: "people"}
	_, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("Subscribe() delivered %d results before returning, want 1", rec.count())
	}
	if len(rec.last().Order) != 2 {
		t.Errorf("initial result has %d entities, want 2", len(rec.last().Order))
	}
}

func TestSubscribeSimpleQueryMaintainsOnWrite(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{
		Collection: "people",
		Where: []querymodel.Filter{
			&querymodel.StatementFilter{Path: triple.Path{"age"}, Op: querymodel.OpGte, Value: 18.0},
		},
	}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	seedPerson(idx, "3", "Carol", 40)

	if rec.count() != 2 {
		t.Fatalf("after write, got %d deliveries, want 2 (initial + maintenance)", rec.count())
	}
	last := rec.last()
	if len(last.Order) != 3 {
		t.Errorf("after insert, result has %d entities, want 3", len(last.Order))
	}
}

func TestSubscribeRemovesEntityThatStopsMatching(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{
		Collection: "people",
		Where: []querymodel.Filter{
			&querymodel.StatementFilter{Path: triple.Path{"age"}, Op: querymodel.OpGte, Value: 18.0},
		},
	}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	idx.Write([]triple.Triple{{
		Entity: triple.NewEntityID("people", "1"), Path: triple.Path{"age"}, Value: 10.0,
		Timestamp: triple.Timestamp{Tick: 2, ClientID: "seed"},
	}})

	if rec.count() != 2 {
		t.Fatalf("after write, got %d deliveries, want 2", rec.count())
	}
	last := rec.last()
	for _, id := range last.Order {
		if id == triple.NewEntityID("people", "1") {
			t.Errorf("entity that aged below the filter threshold is still in the result window")
		}
	}
}

func TestSubscribeUnsubscribeStopsMaintenance(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{Collection: "people"}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	unsub()

	seedPerson(idx, "3", "Carol", 40)

	if rec.count() != 1 {
		t.Errorf("after unsubscribe, got %d deliveries, want 1 (no further maintenance)", rec.count())
	}
}

func TestSubscribeComplexQueryRunsFullRefetch(t *testing.T) {
	idx, s := newPeopleFixture()
	s.(*schema.MemoryService).DeclareRelation("people", "self", schema.Relation{
		Collection: "people", Cardinality: querymodel.CardinalityOne,
	})
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{
		Collection: "people",
		Include: map[string]querymodel.IncludeSpec{
			"self": {Cardinality: querymodel.CardinalityOne},
		},
	}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	seedPerson(idx, "3", "Carol", 40)

	if rec.count() != 2 {
		t.Fatalf("complex query: got %d deliveries, want 2", rec.count())
	}
	if len(rec.last().Order) != 3 {
		t.Errorf("complex query result has %d entities, want 3", len(rec.last().Order))
	}
}

func TestResyncAllCatchesDriftedSubscription(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{Collection: "people"}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	c.mu.Lock()
	var sub *subscription
	for _, s := range c.subs {
		sub = s
	}
	c.mu.Unlock()

	// Simulate a subscription that silently drifted from the store's
	// true state (e.g. an onWrite callback that was missed).
	sub.mu.Lock()
	sub.rows = sub.rows[:1]
	sub.mu.Unlock()

	c.resyncAll()

	sub.mu.Lock()
	n := len(sub.rows)
	sub.mu.Unlock()
	if n != 2 {
		t.Fatalf("resyncAll() left %d rows, want 2 (back in sync with the store)", n)
	}
	if rec.count() != 2 {
		t.Errorf("resyncAll() delivered %d results, want 2 (initial + resync correction)", rec.count())
	}
}

func TestResyncAllSkipsUnchangedSubscriptions(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s)
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{Collection: "people"}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	c.resyncAll()

	if rec.count() != 1 {
		t.Errorf("resyncAll() on an unchanged subscription delivered %d results, want 1 (no spurious callback)", rec.count())
	}
}

func TestNewCoordinatorWithResyncIntervalStillDeliversWrites(t *testing.T) {
	idx, s := newPeopleFixture()
	e := queryengine.New(idx, s)
	c := NewCoordinator(e, idx, s, WithResyncInterval(50*time.Millisecond))
	defer c.Close()

	rec := &recorder{}
	q := &querymodel.Query{Collection: "people"}
	unsub, err := c.Subscribe(context.Background(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, rec.onResult, rec.onError, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsub()

	seedPerson(idx, "3", "Carol", 40)

	if rec.count() < 2 {
		t.Errorf("with a resync scheduler configured, write-driven maintenance should still fire; got %d deliveries", rec.count())
	}
}

func TestSameWindowComparesByEntityIDSequence(t *testing.T) {
	a := []row{{id: triple.NewEntityID("people", "1")}, {id: triple.NewEntityID("people", "2")}}
	b := []row{{id: triple.NewEntityID("people", "1")}, {id: triple.NewEntityID("people", "2")}}
	if !sameWindow(a, b) {
		t.Errorf("sameWindow() = false for identical id sequences, want true")
	}
	c := []row{{id: triple.NewEntityID("people", "1")}}
	if sameWindow(a, c) {
		t.Errorf("sameWindow() = true for different-length windows, want false")
	}
}
