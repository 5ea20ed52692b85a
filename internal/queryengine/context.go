package queryengine

import (
	"context"

	"triplequery/internal/cache"
	"triplequery/internal/schema"
	"triplequery/internal/triple"
	"triplequery/internal/vars"
)

// Options parameterizes a single fetch/fetchOne call (spec §6.4).
type Options struct {
	// Schema overrides the Engine's default schema service for this
	// call; nil uses the Engine's.
	Schema schema.Service
	// SkipRules disables permission-rule injection during prepareQuery.
	SkipRules bool
	// Cache overrides the Engine's default cache for this call; nil
	// uses the Engine's (which may itself be nil). Fetch and FetchOne
	// do not read from or fill either cache.
	Cache cache.Service
	// StateVector bounds materialization to a causal frontier; nil
	// means the current, unbounded view.
	StateVector triple.StateVector
	// SkipIndex forces a full collection scan, bypassing C1 entirely;
	// used by conformance tests that want to isolate C3/C4/C7 behavior
	// from index selection.
	SkipIndex bool
}

// execContext is the single mutable resource C6 shares by reference
// down the recursive call tree: the stack frame storage for variable
// resolution (spec §5 "queried_data_stack"). One execContext is
// created per top-level fetch/fetchOne call and threaded through every
// nested sub-query.
type execContext struct {
	ctx     context.Context
	engine  *Engine
	opts    Options
	schema  schema.Service
	varsStk *vars.Stack
}

// depth returns the current ancestor stack depth, used by tests to
// assert the stack-discipline invariant (spec §8 invariant 6): after
// every fetch, the depth on exit must equal the depth on entry.
func (ec *execContext) depth() int { return ec.varsStk.Depth() }
