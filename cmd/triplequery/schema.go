package main

import (
	"encoding/json"
	"fmt"
	"os"

	"triplequery/internal/schema"
)

// schemaFile is the on-disk JSON shape for a collection's declared
// attributes. Relation declarations and rule sets are schema.Service
// features the engine exercises fully (prepareQuery's include
// expansion and rule injection, spec §4.6), but aren't expressible
// from this CLI's config format; a caller needing them builds a
// schema.MemoryService programmatically instead.
type schemaFile struct {
	Collections map[string]collectionConfig `json:"collections"`
}

type collectionConfig struct {
	Attributes map[string]string `json:"attributes"`
	Cacheable  bool              `json:"cacheable"`
}

var attrTypes = map[string]schema.DataType{
	"string":  schema.TypeString,
	"number":  schema.TypeNumber,
	"boolean": schema.TypeBoolean,
	"date":    schema.TypeDate,
	"set":     schema.TypeSet,
	"record":  schema.TypeRecord,
}

func loadSchema(path string) (*schema.MemoryService, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	var sf schemaFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	svc := schema.NewMemoryService()
	for collection, cfg := range sf.Collections {
		attrs := make(map[string]schema.Attribute, len(cfg.Attributes))
		for name, typeName := range cfg.Attributes {
			dt, ok := attrTypes[typeName]
			if !ok {
				return nil, fmt.Errorf("collection %s: unknown attribute type %q", collection, typeName)
			}
			attrs[name] = schema.Attribute{Type: dt}
		}
		svc.Declare(collection, attrs, nil)
		if cfg.Cacheable {
			svc.SetCacheable(collection, true)
		}
	}
	return svc, nil
}
