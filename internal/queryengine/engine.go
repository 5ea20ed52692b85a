// Package queryengine implements the collection query engine: index
// selection, candidate streaming, entity materialization, filter
// evaluation, recursive sub-query loading, sort/cursor, and the delta
// engine that drives subscriptions (spec §2-§4, §6.4).
package queryengine

import (
	"context"
	"log/slog"

	"triplequery/internal/cache"
	"triplequery/internal/querymodel"
	"triplequery/internal/refstore"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
	"triplequery/internal/vars"
)

// Engine is the fetch/fetchOne entry point (spec §6.4 Engine API). It
// is safe for concurrent use: each call builds its own execContext and
// vars.Stack.
type Engine struct {
	index  refstore.Index
	schema schema.Service
	cache  cache.Service
	logger *slog.Logger

	globalVars map[string]any
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCache stores a default Variable-Aware Cache; per-call
// Options.Cache overrides it. Fetch and FetchOne do not read from or
// fill the stored cache: every call runs against the index.
func WithCache(c cache.Service) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger installs a component-scoped logger. Without this option
// the Engine discards all log output, matching the teacher's
// dependency-injected slog convention (never a package-level global).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithGlobalVars sets the process-wide constants available under the
// `$global` scope (spec §4.5).
func WithGlobalVars(v map[string]any) Option {
	return func(e *Engine) { e.globalVars = v }
}

// New builds an Engine over idx and schemaSvc.
func New(idx refstore.Index, schemaSvc schema.Service, opts ...Option) *Engine {
	e := &Engine{
		index:  idx,
		schema: schemaSvc,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SessionVars carries the caller's session and role scopes into a
// fetch (spec §4.5 session/role scopes, §6.2 "session roles with
// role_vars").
type SessionVars struct {
	Session map[string]any
	Role    map[string]any
}

// Fetch runs q (cardinality many) and returns its ordered result set
// plus the triples that produced it (spec §6.4).
func (e *Engine) Fetch(ctx context.Context, q *querymodel.Query, session SessionVars, opts Options) (*querymodel.FetchResult, error) {
	ec, err := e.newExecContext(ctx, session, opts)
	if err != nil {
		return nil, err
	}
	prepared, err := e.prepareQuery(ec, q)
	if err != nil {
		return nil, err
	}
	return e.runFetch(ec, prepared, querymodel.CardinalityMany)
}

// FetchOne runs q (cardinality one) and returns at most one entity.
func (e *Engine) FetchOne(ctx context.Context, q *querymodel.Query, session SessionVars, opts Options) (*triple.EntityView, []triple.Triple, error) {
	ec, err := e.newExecContext(ctx, session, opts)
	if err != nil {
		return nil, nil, err
	}
	prepared, err := e.prepareQuery(ec, q)
	if err != nil {
		return nil, nil, err
	}
	oneQ := *prepared
	oneQ.Limit = 1
	result, err := e.runFetch(ec, &oneQ, querymodel.CardinalityOne)
	if err != nil {
		return nil, nil, err
	}
	if result.Len() == 0 {
		return nil, nil, nil
	}
	id := result.Order[0]
	return result.Entities[id], result.Triples[id], nil
}

// PrepareQuery runs the same include-expansion and rule-injection pass
// Fetch performs internally (C6) and returns the prepared query. Callers
// that need a prepared Query without running a fetch against it — the
// Delta Engine (C8) is the one case in this package's own API — use this
// instead of duplicating C6's logic.
func (e *Engine) PrepareQuery(ctx context.Context, q *querymodel.Query, session SessionVars, opts Options) (*querymodel.Query, error) {
	ec, err := e.newExecContext(ctx, session, opts)
	if err != nil {
		return nil, err
	}
	return e.prepareQuery(ec, q)
}

func (e *Engine) newExecContext(ctx context.Context, session SessionVars, opts Options) (*execContext, error) {
	schemaSvc := e.schema
	if opts.Schema != nil {
		schemaSvc = opts.Schema
	}
	if schemaSvc == nil {
		return nil, &InvalidSchemaItemError{Collection: "", Path: "", Type: -1}
	}
	stk := vars.New(e.globalVars, session.Session, session.Role, nil, e.logger)
	ec := &execContext{
		ctx:     ctx,
		engine:  e,
		opts:    opts,
		schema:  schemaSvc,
		varsStk: stk,
	}
	stk.SetRelationLoader(ec.loadRelation)
	return ec, nil
}

func (ec *execContext) cacheService() cache.Service {
	if ec.opts.Cache != nil {
		return ec.opts.Cache
	}
	return ec.engine.cache
}
