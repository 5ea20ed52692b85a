package queryengine

import (
	"context"

	"triplequery/internal/iterseq"
	"triplequery/internal/refstore"
	"triplequery/internal/triple"
)

// candidateStream turns a chosen AccessPath into a lazy, de-duplicated
// sequence of entity ids (spec §4.2). Range and order scans may surface
// more than one triple version per entity; dedup emits an entity the
// first time its timestamp is the greatest seen so far for it.
func candidateStream(ctx context.Context, idx refstore.Index, path AccessPath) iterseq.Seq[triple.EntityID] {
	switch path.Kind {
	case PathIDPoint:
		return dedupCandidates(idx.FindByAVE(ctx, triple.CollectionPath, nil), &path)
	case PathEqualityScan:
		return dedupCandidates(idx.FindByAVE(ctx, path.Path, path.EqualTo), nil)
	case PathRangeScan, PathOrderScan:
		return dedupCandidates(idx.FindValuesInRange(ctx, path.Path, path.Range), nil)
	case PathFullScan:
		return dedupCandidates(idx.FindByAVE(ctx, triple.CollectionPath, nil), nil)
	default:
		return iterseq.Of[triple.EntityID](nil)
	}
}

// dedupCandidates implements the "max timestamp per (entity,
// attribute)" pass (spec §4.2). For the id-point path, idFilter further
// restricts the scan to entities whose external id matches the target
// value (FindByAVE on _collection returns every entity; filtering by
// external id happens here rather than via the store API, since id is
// a property of entity_id itself, not a triple value).
func dedupCandidates(in iterseq.Seq[triple.Triple], idFilter *AccessPath) iterseq.Seq[triple.EntityID] {
	return func(yield func(triple.EntityID, error) bool) {
		maxSeen := make(map[triple.EntityID]triple.Timestamp)
		emitted := make(map[triple.EntityID]bool)
		for t, err := range in {
			if err != nil {
				yield("", err)
				return
			}
			if idFilter != nil {
				_, ext, splitErr := t.Entity.Split()
				if splitErr != nil || ext != idFilter.EqualTo {
					continue
				}
			}
			existing, ok := maxSeen[t.Entity]
			if ok && !t.Timestamp.After(existing) {
				continue
			}
			maxSeen[t.Entity] = t.Timestamp
			if emitted[t.Entity] {
				continue
			}
			emitted[t.Entity] = true
			if !yield(t.Entity, nil) {
				return
			}
		}
	}
}
