package refstore

import (
	"context"
	"slices"
	"sync"

	"triplequery/internal/iterseq"
	"triplequery/internal/ordering"
	"triplequery/internal/triple"
)

// MemoryIndex is an in-memory, single-process Index. It keeps the full
// triple log plus per-entity and per-client position lists appended on
// each write; attribute lookups and range scans walk a copy of the whole
// log. This is adequate for tests and conformance fixtures but is not
// the write path a real store would use (spec §1 places persistence and
// indexing primitives out of scope).
type MemoryIndex struct {
	mu sync.Mutex
	// notifyMu serializes listener calls so batches reach OnWrite
	// callbacks one at a time, in the order Write appended them.
	notifyMu sync.Mutex

	triples   []triple.Triple
	byEntity  map[triple.EntityID][]int
	byClient  map[string][]int // indices into triples, for FindByClientTimestamp
	listeners map[int]func(WriteBatch)
	nextSubID int
}

// NewMemoryIndex returns an empty store.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byEntity:  make(map[triple.EntityID][]int),
		byClient:  make(map[string][]int),
		listeners: make(map[int]func(WriteBatch)),
	}
}

// Write appends triples to the log as a single WriteBatch and notifies
// listeners. Write is the only mutating entry point; it stands in for
// the real store's ingest path.
func (m *MemoryIndex) Write(inserts []triple.Triple) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	m.mu.Lock()
	for _, t := range inserts {
		idx := len(m.triples)
		m.triples = append(m.triples, t)
		m.byEntity[t.Entity] = append(m.byEntity[t.Entity], idx)
		m.byClient[t.Timestamp.ClientID] = append(m.byClient[t.Timestamp.ClientID], idx)
	}
	listeners := make([]func(WriteBatch), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	batch := WriteBatch{Inserts: inserts}
	for _, fn := range listeners {
		fn(batch)
	}
}

func (m *MemoryIndex) snapshot() []triple.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]triple.Triple, len(m.triples))
	copy(out, m.triples)
	return out
}

func (m *MemoryIndex) FindByAVE(ctx context.Context, path triple.Path, value any) iterseq.Seq[triple.Triple] {
	all := m.snapshot()
	var matches []triple.Triple
	for _, t := range all {
		if !t.Path.Equal(path) {
			continue
		}
		if value == nil || ordering.Equal(t.Value, value) {
			matches = append(matches, t)
		}
	}
	return iterseq.Of(matches)
}

func (m *MemoryIndex) FindValuesInRange(ctx context.Context, path triple.Path, opts RangeOptions) iterseq.Seq[triple.Triple] {
	all := m.snapshot()
	var matches []triple.Triple
	for _, t := range all {
		if !t.Path.Equal(path) {
			continue
		}
		if !inRange(t, opts) {
			continue
		}
		matches = append(matches, t)
	}
	slices.SortStableFunc(matches, func(a, b triple.Triple) int {
		c := ordering.Compare(a.Value, b.Value)
		if c == 0 {
			c = compareEntityID(a.Entity, b.Entity)
		}
		if opts.Direction == Descending {
			return -c
		}
		return c
	})
	return iterseq.Of(matches)
}

func inRange(t triple.Triple, opts RangeOptions) bool {
	v := t.Value
	if opts.Gt != nil && ordering.Compare(v, opts.Gt) <= 0 {
		return false
	}
	if opts.Gte != nil && ordering.Compare(v, opts.Gte) < 0 {
		return false
	}
	if opts.Lt != nil && ordering.Compare(v, opts.Lt) >= 0 {
		return false
	}
	if opts.Lte != nil && ordering.Compare(v, opts.Lte) > 0 {
		return false
	}
	if c := opts.GtCursor; c != nil && !cursorPasses(t, c, false) {
		return false
	}
	if c := opts.GteCursor; c != nil && !cursorPasses(t, c, true) {
		return false
	}
	if c := opts.LtCursor; c != nil && !cursorPassesBefore(t, c, false) {
		return false
	}
	if c := opts.LteCursor; c != nil && !cursorPassesBefore(t, c, true) {
		return false
	}
	return true
}

// cursorPasses reports whether t sorts after the cursor position
// (value, entity_id), inclusive when inclusive is true.
func cursorPasses(t triple.Triple, cur *RangeCursor, inclusive bool) bool {
	c := ordering.Compare(t.Value, cur.Value)
	if c != 0 {
		return c > 0
	}
	c = compareEntityID(t.Entity, cur.EntityID)
	if inclusive {
		return c >= 0
	}
	return c > 0
}

func cursorPassesBefore(t triple.Triple, cur *RangeCursor, inclusive bool) bool {
	c := ordering.Compare(t.Value, cur.Value)
	if c != 0 {
		return c < 0
	}
	c = compareEntityID(t.Entity, cur.EntityID)
	if inclusive {
		return c <= 0
	}
	return c < 0
}

func compareEntityID(a, b triple.EntityID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (m *MemoryIndex) FindByEntity(ctx context.Context, id triple.EntityID) iterseq.Seq[triple.Triple] {
	m.mu.Lock()
	idxs := m.byEntity[id]
	out := make([]triple.Triple, len(idxs))
	for i, idx := range idxs {
		out[i] = m.triples[idx]
	}
	m.mu.Unlock()
	return iterseq.Of(out)
}

func (m *MemoryIndex) FindByClientTimestamp(ctx context.Context, clientID string, cmp Cmp, ts triple.Timestamp) iterseq.Seq[triple.Triple] {
	m.mu.Lock()
	idxs := m.byClient[clientID]
	var out []triple.Triple
	for _, idx := range idxs {
		t := m.triples[idx]
		c := t.Timestamp.Compare(ts)
		var keep bool
		switch cmp {
		case Gt:
			keep = c > 0
		case Gte:
			keep = c >= 0
		case Lt:
			keep = c < 0
		case Lte:
			keep = c <= 0
		}
		if keep {
			out = append(out, t)
		}
	}
	m.mu.Unlock()
	return iterseq.Of(out)
}

func (m *MemoryIndex) FindAllClientIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.byClient))
	for id := range m.byClient {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryIndex) OnWrite(callback func(WriteBatch)) UnsubscribeFunc {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.listeners[id] = callback
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}
