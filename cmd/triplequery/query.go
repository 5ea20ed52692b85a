package main

import (
	"encoding/json"
	"fmt"
	"os"

	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

// querySpec is the CLI's JSON query format. It covers a flat AND of
// statement filters plus order/limit/select — the common case an
// operator types by hand; nested and/or groups, subquery-exists, and
// include trees are exercised by the package's own tests rather than
// this entrypoint's config surface.
type querySpec struct {
	Collection string      `json:"collection"`
	Where      []whereSpec `json:"where"`
	Order      []orderSpec `json:"order"`
	Limit      int         `json:"limit"`
	Select     []string    `json:"select"`
}

type whereSpec struct {
	Path  string `json:"path"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type orderSpec struct {
	Path string `json:"path"`
	Dir  string `json:"dir"`
}

var opTokens = map[string]querymodel.Op{
	querymodel.OpEq.String():        querymodel.OpEq,
	querymodel.OpNeq.String():       querymodel.OpNeq,
	querymodel.OpLt.String():        querymodel.OpLt,
	querymodel.OpLte.String():       querymodel.OpLte,
	querymodel.OpGt.String():        querymodel.OpGt,
	querymodel.OpGte.String():       querymodel.OpGte,
	querymodel.OpIn.String():        querymodel.OpIn,
	querymodel.OpNin.String():       querymodel.OpNin,
	querymodel.OpHas.String():       querymodel.OpHas,
	querymodel.OpNotHas.String():    querymodel.OpNotHas,
	querymodel.OpLike.String():      querymodel.OpLike,
	querymodel.OpNotLike.String():   querymodel.OpNotLike,
	querymodel.OpIsDefined.String(): querymodel.OpIsDefined,
}

func parseQuerySpec(path string) (*querymodel.Query, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	var qs querySpec
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("parse query file: %w", err)
	}

	q := &querymodel.Query{Collection: qs.Collection, Limit: qs.Limit}
	for _, w := range qs.Where {
		op, ok := opTokens[w.Op]
		if !ok {
			return nil, fmt.Errorf("query file: unknown operator %q", w.Op)
		}
		q.Where = append(q.Where, &querymodel.StatementFilter{
			Path: triple.ParsePath(w.Path), Op: op, Value: w.Value,
		})
	}
	for _, o := range qs.Order {
		dir := querymodel.Asc
		if o.Dir == "desc" {
			dir = querymodel.Desc
		}
		q.Order = append(q.Order, querymodel.OrderKey{Path: triple.ParsePath(o.Path), Direction: dir})
	}
	for _, s := range qs.Select {
		q.Select = append(q.Select, triple.ParsePath(s))
	}
	return q, nil
}
