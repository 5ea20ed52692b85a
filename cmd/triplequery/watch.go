package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"triplequery/internal/queryengine"
	"triplequery/internal/querymodel"
	"triplequery/internal/subscribe"
)

func newWatchCmd(logger *slog.Logger, schemaPath, dataPath *string) *cobra.Command {
	var resyncSeconds int
	var rateLimit float64

	cmd := &cobra.Command{
		Use:   "watch <query.json>",
		Short: "Subscribe to a standing query and print every delivered result until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore(logger, *schemaPath, *dataPath, false)
			if err != nil {
				return err
			}
			q, err := parseQuerySpec(args[0])
			if err != nil {
				return err
			}

			opts := []subscribe.Option{subscribe.WithLogger(logger)}
			if resyncSeconds > 0 {
				opts = append(opts, subscribe.WithResyncInterval(time.Duration(resyncSeconds)*time.Second))
			}
			coord := subscribe.NewCoordinator(st.engine, st.idx, st.schema, opts...)
			defer coord.Close()

			var limiter *rate.Limiter
			if rateLimit > 0 {
				limiter = rate.NewLimiter(rate.Limit(rateLimit), 1)
			}

			onResult := func(res subscribe.Result) {
				if err := writeSubscribeResult(os.Stdout, res.Order, res.Entities); err != nil {
					fmt.Fprintln(os.Stderr, "encode result:", err)
				}
			}
			onError := func(err error) {
				fmt.Fprintln(os.Stderr, "subscription error:", err)
			}

			unsub, err := coord.Subscribe(cmd.Context(), q, queryengine.SessionVars{}, queryengine.Options{}, querymodel.CardinalityMany, onResult, onError, limiter)
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}
			defer unsub()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintln(os.Stderr, "watching; press ctrl-c to stop")
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().IntVar(&resyncSeconds, "resync-seconds", 0, "periodic full resync interval; 0 disables it")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "maximum result deliveries per second; 0 disables backpressure")
	return cmd
}
