package main

import (
	"encoding/json"
	"fmt"
	"os"

	"triplequery/internal/triple"
)

// tripleRecord is the human-editable JSON shape a fixture author writes;
// seed converts a batch of these into the wire-format data file the
// other subcommands read back with triple.DecodeDelta.
type tripleRecord struct {
	Collection string `json:"collection"`
	ExternalID string `json:"external_id"`
	Path       string `json:"path"`
	Value      any    `json:"value"`
	Tick       uint64 `json:"tick"`
	ClientID   string `json:"client_id"`
	Retraction bool   `json:"retraction"`
}

func readTripleFixture(path string) ([]triple.Triple, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triple fixture: %w", err)
	}
	var records []tripleRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse triple fixture: %w", err)
	}

	triples := make([]triple.Triple, len(records))
	for i, r := range records {
		triples[i] = triple.Triple{
			Entity:     triple.NewEntityID(r.Collection, r.ExternalID),
			Path:       triple.ParsePath(r.Path),
			Value:      r.Value,
			Timestamp:  triple.Timestamp{Tick: r.Tick, ClientID: r.ClientID},
			Retraction: r.Retraction,
		}
	}
	return triples, nil
}

// loadDataFile decodes a data file previously written by the seed
// subcommand (triple.EncodeDelta's msgpack+zstd envelope).
func loadDataFile(path string) ([]triple.Triple, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	triples, err := triple.DecodeDelta(raw)
	if err != nil {
		return nil, fmt.Errorf("decode data file: %w", err)
	}
	return triples, nil
}
