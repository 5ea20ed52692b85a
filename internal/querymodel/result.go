package querymodel

import "triplequery/internal/triple"

// FetchResult is the Engine API's fetch/fetchOne return shape (spec
// §6.4): an ordered result set plus the raw triples that produced each
// entity, needed downstream for delta/subscription emission.
type FetchResult struct {
	Order    []triple.EntityID
	Entities map[triple.EntityID]*triple.EntityView
	Triples  map[triple.EntityID][]triple.Triple
}

// NewFetchResult returns an empty, initialized FetchResult.
func NewFetchResult() *FetchResult {
	return &FetchResult{
		Entities: make(map[triple.EntityID]*triple.EntityView),
		Triples:  make(map[triple.EntityID][]triple.Triple),
	}
}

// Add appends id to the result in order, recording its view and the
// triples that contributed to it.
func (r *FetchResult) Add(id triple.EntityID, view *triple.EntityView, triples []triple.Triple) {
	if _, exists := r.Entities[id]; !exists {
		r.Order = append(r.Order, id)
	}
	r.Entities[id] = view
	r.Triples[id] = triples
}

// Len returns the number of entities in the result.
func (r *FetchResult) Len() int { return len(r.Order) }
