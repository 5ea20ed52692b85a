// Package subscribe implements the Subscription Coordinator (C9): it
// keeps a standing query's result set in sync with the triple store,
// incrementally for simple queries and by full re-fetch for complex
// ones, and emits JS-coerced results plus the triples that produced
// them (spec §4.9).
package subscribe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"triplequery/internal/ordering"
	"triplequery/internal/querymodel"
	"triplequery/internal/queryengine"
	"triplequery/internal/refstore"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
)

// Result is what a subscription emits on every change: the JS-coerced
// entity projections in order, plus the raw triples that produced them
// (spec §4.9 step 5).
type Result struct {
	Order    []triple.EntityID
	Entities map[triple.EntityID]map[string]any
	Triples  []triple.Triple
}

// Callback receives a subscription's updated result. It runs
// synchronously on the goroutine that triggered the update: the
// Subscribe caller for the initial result, the store's write
// notification for maintenance, or the resync scheduler's goroutine.
// It must not block.
type Callback func(Result)

// ErrorHandler receives an error raised while maintaining a
// subscription. It never tears the subscription down (spec §4.9).
type ErrorHandler func(error)

// subscription is one standing query's maintenance state.
type subscription struct {
	id          string
	query       *querymodel.Query
	session     queryengine.SessionVars
	opts        queryengine.Options
	cardinality querymodel.Cardinality
	complex     bool

	onResult Callback
	onError  ErrorHandler
	limiter  *rate.Limiter

	mu     sync.Mutex
	rows   []row // current window, in sorted order
	closed bool
}

type row struct {
	id    triple.EntityID
	view  *triple.EntityView
	tuple []triple.Triple
}

// Coordinator owns every standing subscription registered against one
// Engine/Index pair and drives their maintenance from write batches.
type Coordinator struct {
	engine *queryengine.Engine
	index  refstore.Index
	schema schema.Service
	logger *slog.Logger

	mu        sync.Mutex
	subs      map[string]*subscription
	unsub     refstore.UnsubscribeFunc
	scheduler gocron.Scheduler
	resync    time.Duration
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithLogger installs a component-scoped logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithResyncInterval makes the coordinator run a full re-fetch of every
// standing subscription on a fixed cadence, in addition to the
// write-driven maintenance onWrite already performs. It guards against
// a subscription drifting from the store's true state because a write
// batch's OnWrite callback was missed or delayed (spec §4.9's
// resource-model note that resync is a defense-in-depth, not the
// primary maintenance path).
func WithResyncInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.resync = d }
}

// NewCoordinator builds a Coordinator over engine/idx/schemaSvc and
// registers its write handler immediately.
func NewCoordinator(engine *queryengine.Engine, idx refstore.Index, schemaSvc schema.Service, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine: engine,
		index:  idx,
		schema: schemaSvc,
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[string]*subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsub = idx.OnWrite(c.onWrite)

	if c.resync > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			c.logger.Warn("resync scheduler unavailable, falling back to write-driven maintenance only", "error", err)
			return c
		}
		c.scheduler = s
		_, err = s.NewJob(
			gocron.DurationJob(c.resync),
			gocron.NewTask(c.resyncAll),
			gocron.WithName("subscribe-resync"),
		)
		if err != nil {
			c.logger.Warn("failed to register resync job", "error", err)
			return c
		}
		s.Start()
	}
	return c
}

// Close detaches the coordinator from the store and stops the resync
// scheduler, if one is running. Existing subscriptions stop receiving
// updates; it does not call onError for them.
func (c *Coordinator) Close() {
	c.unsub()
	if c.scheduler != nil {
		_ = c.scheduler.Shutdown()
	}
}

// resyncAll re-fetches every standing subscription from scratch and
// emits only the ones whose result window actually changed, guarding
// against missed write-callback drift.
func (c *Coordinator) resyncAll() {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	ctx := context.Background()
	for _, sub := range subs {
		sub.mu.Lock()
		closed := sub.closed
		prev := sub.rows
		sub.mu.Unlock()
		if closed {
			continue
		}

		rows, triples, err := c.runFull(ctx, sub)
		if err != nil {
			sub.onError(err)
			continue
		}
		if sameWindow(prev, rows) {
			continue
		}

		sub.mu.Lock()
		sub.rows = rows
		sub.mu.Unlock()
		c.emit(sub, rows, triples)
	}
}

func sameWindow(a, b []row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].id != b[i].id {
			return false
		}
	}
	return true
}

// Subscribe installs a standing query. It runs one synchronous fetch to
// establish the initial result (delivered via onResult before Subscribe
// returns), then maintains it on every subsequent write batch. limiter
// may be nil, disabling backpressure.
func (c *Coordinator) Subscribe(ctx context.Context, q *querymodel.Query, session queryengine.SessionVars, opts queryengine.Options, cardinality querymodel.Cardinality, onResult Callback, onError ErrorHandler, limiter *rate.Limiter) (func(), error) {
	complex := q.IsComplex(queryCrossesRelation(q, c.schema))

	sub := &subscription{
		query:       q,
		session:     session,
		opts:        opts,
		cardinality: cardinality,
		complex:     complex,
		onResult:    onResult,
		onError:     onError,
		limiter:     limiter,
	}

	rows, triples, err := c.runFull(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.rows = rows

	sub.id = uuid.Must(uuid.NewV7()).String()

	c.mu.Lock()
	c.subs[sub.id] = sub
	c.mu.Unlock()

	c.emit(sub, rows, triples)

	return func() { c.unsubscribe(sub.id) }, nil
}

func (c *Coordinator) unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[id]; ok {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
		delete(c.subs, id)
	}
}

// onWrite is the refstore.Index write handler: it runs once per batch,
// never concurrently with itself, in arrival order (spec §5), and
// drives every registered subscription's maintenance.
func (c *Coordinator) onWrite(batch refstore.WriteBatch) {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	ctx := context.Background()
	for _, sub := range subs {
		c.maintain(ctx, sub, batch)
	}
}

func (c *Coordinator) maintain(ctx context.Context, sub *subscription, batch refstore.WriteBatch) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			sub.onError(fmt.Errorf("subscribe: panic in maintenance: %v", r))
		}
	}()

	if sub.complex {
		rows, triples, err := c.runFull(ctx, sub)
		if err != nil {
			sub.onError(err)
			return
		}
		sub.mu.Lock()
		sub.rows = rows
		sub.mu.Unlock()
		c.emit(sub, rows, triples)
		return
	}

	changed, err := c.maintainSimple(ctx, sub, batch)
	if err != nil {
		sub.onError(err)
		return
	}
	if changed == nil {
		return
	}
	c.emit(sub, changed.rows, changed.triples)
}

type maintenanceResult struct {
	rows    []row
	triples []triple.Triple
}

// maintainSimple implements spec §4.9's simple-query path: re-test only
// the entities the batch touched, patch the sorted window, and
// back-fill from the store when the window falls short of limit.
func (c *Coordinator) maintainSimple(ctx context.Context, sub *subscription, batch refstore.WriteBatch) (*maintenanceResult, error) {
	ids := candidateIDs(batch, sub.query.Collection)
	if len(ids) == 0 {
		return nil, nil
	}

	sub.mu.Lock()
	rows := append([]row(nil), sub.rows...)
	sub.mu.Unlock()

	byID := make(map[triple.EntityID]int, len(rows))
	for i, r := range rows {
		byID[r.id] = i
	}

	changed := false
	var touchedTriples []triple.Triple
	for _, id := range ids {
		matched, view, tuples, err := c.engine.ReevaluateEntity(ctx, sub.query, sub.session, sub.opts, id)
		if err != nil {
			return nil, err
		}
		touchedTriples = append(touchedTriples, tuples...)

		idx, inResult := byID[id]
		switch {
		case matched && inResult:
			rows[idx] = row{id: id, view: view, tuple: tuples}
			changed = true
		case matched && !inResult:
			rows = append(rows, row{id: id, view: view, tuple: tuples})
			changed = true
		case !matched && inResult:
			rows = append(rows[:idx], rows[idx+1:]...)
			byID = reindex(rows)
			changed = true
		}
	}
	if !changed {
		return nil, nil
	}

	sortWindow(rows, sub.query.Order)

	if sub.query.Limit > 0 && len(rows) < sub.query.Limit && len(rows) > 0 {
		backfilled, backfillTriples, err := c.backfill(ctx, sub, rows)
		if err != nil {
			return nil, err
		}
		rows = backfilled
		touchedTriples = append(touchedTriples, backfillTriples...)
	}
	if sub.query.Limit > 0 && len(rows) > sub.query.Limit {
		rows = rows[:sub.query.Limit]
	}

	sub.mu.Lock()
	sub.rows = rows
	sub.mu.Unlock()

	return &maintenanceResult{rows: rows, triples: touchedTriples}, nil
}

// backfill runs a cursor-anchored sub-fetch from the last remaining
// entry to refill a window that fell short of limit (spec §4.9 step 4).
func (c *Coordinator) backfill(ctx context.Context, sub *subscription, rows []row) ([]row, []triple.Triple, error) {
	last := rows[len(rows)-1]
	var cursorValue any
	if len(sub.query.Order) > 0 {
		cursorValue = last.view.Value(sub.query.Order[0].Path)
	}

	q := *sub.query
	q.After = &querymodel.Cursor{Value: cursorValue, EntityID: last.id, Inclusive: false}
	q.Limit = sub.query.Limit - len(rows)

	result, err := c.engine.Fetch(ctx, &q, sub.session, sub.opts)
	if err != nil {
		return rows, nil, err
	}

	var triples []triple.Triple
	for _, id := range result.Order {
		rows = append(rows, row{id: id, view: result.Entities[id], tuple: result.Triples[id]})
		triples = append(triples, result.Triples[id]...)
	}
	return rows, triples, nil
}

func (c *Coordinator) runFull(ctx context.Context, sub *subscription) ([]row, []triple.Triple, error) {
	result, err := c.engine.Fetch(ctx, sub.query, sub.session, sub.opts)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]row, 0, result.Len())
	var triples []triple.Triple
	for _, id := range result.Order {
		rows = append(rows, row{id: id, view: result.Entities[id], tuple: result.Triples[id]})
		triples = append(triples, result.Triples[id]...)
	}
	return rows, triples, nil
}

// emit applies the subscription's backpressure limiter and delivers the
// JS-coerced projection plus matched triples (spec §4.9 step 5).
func (c *Coordinator) emit(sub *subscription, rows []row, triples []triple.Triple) {
	if sub.limiter != nil && !sub.limiter.Allow() {
		c.logger.Warn("subscription callback dropped by rate limiter", "subscription", sub.id)
		return
	}

	out := Result{
		Order:    make([]triple.EntityID, 0, len(rows)),
		Entities: make(map[triple.EntityID]map[string]any, len(rows)),
		Triples:  triples,
	}
	for _, r := range rows {
		out.Order = append(out.Order, r.id)
		out.Entities[r.id] = projectView(r.view, sub.query.Collection, c.schema)
	}
	sub.onResult(out)
}

// projectView strips causal timestamps and applies the schema's
// db-to-native coercion to every attribute of view that the schema
// declares for collection (spec §4.9 step 5); leaves at undeclared
// paths, _collection among them, are left out.
func projectView(view *triple.EntityView, collection string, schemaSvc schema.Service) map[string]any {
	out := make(map[string]any)
	for _, path := range view.Paths() {
		attr, ok := schemaSvc.GetAttribute(collection, path)
		if !ok {
			continue
		}
		value := schemaSvc.ConvertDBValueToJS(view.Value(path), attr)
		assignNested(out, path, value)
	}
	return out
}

func assignNested(m map[string]any, path triple.Path, value any) {
	if len(path) == 0 {
		return
	}
	cur := m
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

func candidateIDs(batch refstore.WriteBatch, collection string) []triple.EntityID {
	seen := make(map[triple.EntityID]bool)
	var ids []triple.EntityID
	add := func(ts []triple.Triple) {
		for _, t := range ts {
			if t.Entity.Collection() != collection || seen[t.Entity] {
				continue
			}
			seen[t.Entity] = true
			ids = append(ids, t.Entity)
		}
	}
	add(batch.Inserts)
	add(batch.Deletes)
	return ids
}

func reindex(rows []row) map[triple.EntityID]int {
	out := make(map[triple.EntityID]int, len(rows))
	for i, r := range rows {
		out[r.id] = i
	}
	return out
}

// sortWindow re-sorts rows by q's order keys, entity id as the final
// tiebreak (spec §4.7 invariant, reused here for §4.9 step 4).
func sortWindow(rows []row, order []querymodel.OrderKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range order {
			a := rows[i].view.Value(key.Path)
			b := rows[j].view.Value(key.Path)
			cmp := ordering.Compare(a, b)
			if key.Direction == querymodel.Desc {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return rows[i].id < rows[j].id
	})
}

// queryCrossesRelation reports whether any of q's order keys name a
// relation hop rather than a scalar attribute, the schema-backed half
// of the IsComplex check (spec §4.9: "any order key crossing a
// relation").
func queryCrossesRelation(q *querymodel.Query, schemaSvc schema.Service) bool {
	for _, key := range q.Order {
		attr, ok := schemaSvc.GetAttribute(q.Collection, key.Path)
		if ok && attr.Type == schema.TypeQuery {
			return true
		}
	}
	return false
}
