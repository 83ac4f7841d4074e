package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"merval-trader/internal/config"
)

// newRunCmd creates the run command: scheduled evaluation cycles until
// interrupted.
func newRunCmd(app *App) *cobra.Command {
	var pricesFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run evaluation cycles on a schedule",
		Long: `Run starts the decision engine and executes one evaluation cycle per
configured interval. Price data is re-read from the prices file before
each cycle. The engine shuts down cleanly on SIGINT/SIGTERM; a cycle in
flight finishes its current stage before stopping.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			rt, err := app.buildRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.close()

			runCycle := func() {
				if pricesFile != "" {
					if n, err := ingestCSV(rt.engine, pricesFile); err != nil {
						app.Logger.Error().Err(err).Msg("Price ingest failed")
					} else {
						app.Logger.Debug().Int("points", n).Msg("Prices ingested")
					}
				}
				if _, err := rt.engine.RunCycle(ctx); err != nil {
					app.Logger.Error().Err(err).Msg("Cycle failed; retrying next interval")
				}
			}

			scheduler := cron.New()
			schedule := fmt.Sprintf("@every %s", cfg.Trading.CycleInterval)
			if _, err := scheduler.AddFunc(schedule, runCycle); err != nil {
				return err
			}

			app.Logger.Info().
				Str("interval", cfg.Trading.CycleInterval.String()).
				Str("mode", cfg.Trading.Mode).
				Msg("Engine started")

			// First cycle immediately, then on schedule.
			runCycle()
			scheduler.Start()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			app.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")

			cancel()
			<-scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&pricesFile, "prices", "", "CSV file of price points (symbol,timestamp,price[,volume])")
	return cmd
}
