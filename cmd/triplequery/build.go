package main

import (
	"log/slog"

	"triplequery/internal/cache"
	"triplequery/internal/queryengine"
	"triplequery/internal/refstore"
	"triplequery/internal/schema"
)

// store bundles the index, schema, and engine a command builds from
// --schema/--data before running an operation against them.
type store struct {
	idx    *refstore.MemoryIndex
	schema *schema.MemoryService
	engine *queryengine.Engine
}

func buildStore(logger *slog.Logger, schemaPath, dataPath string, withCache bool) (*store, error) {
	svc, err := loadSchema(schemaPath)
	if err != nil {
		return nil, err
	}

	idx := refstore.NewMemoryIndex()
	if dataPath != "" {
		triples, err := loadDataFile(dataPath)
		if err != nil {
			return nil, err
		}
		refstore.Seed(idx, triples...)
	}

	opts := []queryengine.Option{queryengine.WithLogger(logger)}
	if withCache {
		opts = append(opts, queryengine.WithCache(cache.NewSingleflightCache()))
	}
	engine := queryengine.New(idx, svc, opts...)

	return &store{idx: idx, schema: svc, engine: engine}, nil
}
