// Package refstore defines the Triple-Store Index API the query engine
// consumes (spec §6.1) and ships an in-memory reference implementation
// for tests and fixtures. The real triple store — persistence, the
// indexing primitives behind find_by_ave/find_values_in_range, cluster
// replication — is out of scope; this package only pins down the shape
// the engine depends on.
package refstore

import (
	"context"

	"triplequery/internal/iterseq"
	"triplequery/internal/triple"
)

// Cmp is a timestamp comparison direction for FindByClientTimestamp.
type Cmp int

const (
	Gt Cmp = iota
	Gte
	Lt
	Lte
)

// Direction is a range scan's walk direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// RangeCursor bounds a range scan by both a value and the entity id
// that produced it, per spec §6.1 ("cursors encode (value, entity_id)").
type RangeCursor struct {
	Value    any
	EntityID triple.EntityID
}

// RangeOptions parameterizes FindValuesInRange. Gt/Gte/Lt/Lte bound by
// value alone; the *Cursor variants additionally disambiguate ties by
// entity id, needed when an order scan resumes from an after-cursor
// (spec §4.1 rule 4).
type RangeOptions struct {
	Direction Direction
	Gt, Gte   any
	Lt, Lte   any
	GtCursor  *RangeCursor
	GteCursor *RangeCursor
	LtCursor  *RangeCursor
	LteCursor *RangeCursor
}

// WriteBatch groups the triples written by one source transaction, the
// unit the engine's delta/subscription machinery (C8/C9) reacts to.
type WriteBatch struct {
	Inserts []triple.Triple
	Deletes []triple.Triple
}

// UnsubscribeFunc detaches a previously registered write handler.
// Calling it more than once is a no-op.
type UnsubscribeFunc func()

// Index is the read path the engine uses to turn a chosen access path
// (C1) into a candidate stream (C2), plus the write-notification path
// that drives C8/C9. Implementations must serve find_* calls against a
// snapshot consistent for the lifetime of one fetch (spec §5 ordering
// guarantees): concurrent writes must not interleave mid-fetch.
type Index interface {
	// FindByAVE performs an attribute-value-entity exact lookup. A nil
	// value returns every triple ever written at path regardless of
	// value, used by the full collection scan over _collection.
	FindByAVE(ctx context.Context, path triple.Path, value any) iterseq.Seq[triple.Triple]

	// FindValuesInRange performs an ordered range scan over path with
	// both value and cursor bounds.
	FindValuesInRange(ctx context.Context, path triple.Path, opts RangeOptions) iterseq.Seq[triple.Triple]

	// FindByEntity streams every triple ever written about id, in no
	// particular order; callers materialize and sort.
	FindByEntity(ctx context.Context, id triple.EntityID) iterseq.Seq[triple.Triple]

	// FindByClientTimestamp streams triples written by clientID whose
	// timestamp compares to ts per cmp, used to enumerate a client's
	// outstanding triples during sync.
	FindByClientTimestamp(ctx context.Context, clientID string, cmp Cmp, ts triple.Timestamp) iterseq.Seq[triple.Triple]

	// FindAllClientIDs returns every client id that has ever written to
	// the store.
	FindAllClientIDs(ctx context.Context) ([]string, error)

	// OnWrite registers callback to run once per WriteBatch, in arrival
	// order, never concurrently with itself (spec §5). The returned
	// func detaches it.
	OnWrite(callback func(WriteBatch)) UnsubscribeFunc
}
