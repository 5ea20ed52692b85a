package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"triplequery/internal/queryengine"
)

func newFetchCmd(logger *slog.Logger, schemaPath, dataPath *string) *cobra.Command {
	var one bool
	var useCache bool

	cmd := &cobra.Command{
		Use:   "fetch <query.json>",
		Short: "Run a fetch (or fetchOne) and print the matching entities as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore(logger, *schemaPath, *dataPath, useCache)
			if err != nil {
				return err
			}
			q, err := parseQuerySpec(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if one {
				view, _, err := st.engine.FetchOne(ctx, q, queryengine.SessionVars{}, queryengine.Options{})
				if err != nil {
					return fmt.Errorf("fetchOne: %w", err)
				}
				if view == nil {
					fmt.Fprintln(os.Stdout, "null")
					return nil
				}
				return writeFetchResultOne(os.Stdout, view)
			}

			result, err := st.engine.Fetch(ctx, q, queryengine.SessionVars{}, queryengine.Options{})
			if err != nil {
				return fmt.Errorf("fetch: %w", err)
			}
			return writeFetchResult(os.Stdout, result)
		},
	}
	cmd.Flags().BoolVar(&one, "one", false, "run fetchOne instead of fetch (at most one entity, cardinality one)")
	cmd.Flags().BoolVar(&useCache, "cache", false, "install a Variable-Aware Cache on the engine (the fetch itself does not read from it)")
	return cmd
}
