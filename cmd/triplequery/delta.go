package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"triplequery/internal/queryengine"
	"triplequery/internal/triple"
)

func newDeltaCmd(logger *slog.Logger, schemaPath, dataPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "delta <query.json> <new-triples.json>",
		Short: "Compute the triples a subscriber needs after new-triples.json is written, for the given standing query",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore(logger, *schemaPath, *dataPath, false)
			if err != nil {
				return err
			}
			q, err := parseQuerySpec(args[0])
			if err != nil {
				return err
			}
			newTriples, err := readTripleFixture(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			prepared, err := st.engine.PrepareQuery(ctx, q, queryengine.SessionVars{}, queryengine.Options{})
			if err != nil {
				return fmt.Errorf("prepare query: %w", err)
			}

			st.idx.Write(newTriples)

			delta, err := st.engine.FetchDeltaTriples(ctx, prepared, queryengine.SessionVars{}, queryengine.Options{}, newTriples)
			if err != nil {
				return fmt.Errorf("fetch delta triples: %w", err)
			}

			if out != "" {
				encoded, err := triple.EncodeDelta(delta.Triples)
				if err != nil {
					return fmt.Errorf("encode delta: %w", err)
				}
				if err := os.WriteFile(out, encoded, 0o644); err != nil {
					return fmt.Errorf("write delta file: %w", err)
				}
			}
			return writeTriples(os.Stdout, delta.Triples)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "also write the delta triples to this path as a msgpack+zstd data file")
	return cmd
}
