package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"triplequery/internal/triple"
)

func newSeedCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "seed <fixture.json>",
		Short: "Encode a JSON triple fixture into the msgpack+zstd data file the other subcommands read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			triples, err := readTripleFixture(args[0])
			if err != nil {
				return err
			}
			encoded, err := triple.EncodeDelta(triples)
			if err != nil {
				return fmt.Errorf("encode fixture: %w", err)
			}
			if err := os.WriteFile(out, encoded, 0o644); err != nil {
				return fmt.Errorf("write data file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d triples (%d bytes) to %s\n", len(triples), len(encoded), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "triples.bin", "path to write the encoded data file to")
	return cmd
}
