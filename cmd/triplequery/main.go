// Command triplequery is a reference CLI over the collection query
// engine: it declares a schema, loads a batch of triples, and runs
// fetch/subscribe/delta operations against them, the same three entry
// points internal/queryengine and internal/subscribe expose as a
// library (spec §6.4 Engine API).
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	// The level is a LevelVar so --verbose still reaches the loggers the
	// subcommands captured at construction time.
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var schemaPath, dataPath string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "triplequery",
		Short:         "Run collection queries over a triple-store fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				level.Set(slog.LevelDebug)
			}
			if cmd.Name() != "seed" && schemaPath == "" {
				return errors.New("--schema is required")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "path to a schema JSON file declaring collections and attribute types")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "path to a msgpack+zstd data file (written by seed) to preload into the store")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")

	rootCmd.AddCommand(
		newSeedCmd(),
		newFetchCmd(logger, &schemaPath, &dataPath),
		newWatchCmd(logger, &schemaPath, &dataPath),
		newDeltaCmd(logger, &schemaPath, &dataPath),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
