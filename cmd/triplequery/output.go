package main

import (
	"encoding/json"
	"fmt"
	"io"

	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

func viewToMap(id triple.EntityID, view *triple.EntityView) map[string]any {
	m := map[string]any{"id": string(id)}
	for _, p := range view.Paths() {
		m[p.String()] = view.Value(p)
	}
	return m
}

func writeFetchResultOne(w io.Writer, view *triple.EntityView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(viewToMap(view.ID, view))
}

func writeFetchResult(w io.Writer, result *querymodel.FetchResult) error {
	rows := make([]map[string]any, 0, len(result.Order))
	for _, id := range result.Order {
		rows = append(rows, viewToMap(id, result.Entities[id]))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeSubscribeResult(w io.Writer, order []triple.EntityID, entities map[triple.EntityID]map[string]any) error {
	rows := make([]map[string]any, 0, len(order))
	for _, id := range order {
		row := map[string]any{"id": string(id)}
		for k, v := range entities[id] {
			row[k] = v
		}
		rows = append(rows, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeTriples(w io.Writer, triples []triple.Triple) error {
	if len(triples) == 0 {
		fmt.Fprintln(w, "[]")
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(triples)
}
