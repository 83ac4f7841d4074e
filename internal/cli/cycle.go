package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"merval-trader/internal/config"
	"merval-trader/internal/models"
	"merval-trader/pkg/utils"
)

// newCycleCmd creates the cycle command: one evaluation cycle, printed.
func newCycleCmd(app *App) *cobra.Command {
	var pricesFile string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run a single evaluation cycle and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			ctx := cmd.Context()
			rt, err := app.buildRuntime(ctx, !dryRun)
			if err != nil {
				return err
			}
			defer rt.close()

			if pricesFile != "" {
				if _, err := ingestCSV(rt.engine, pricesFile); err != nil {
					return err
				}
			}

			result, err := rt.engine.RunCycle(ctx)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			dim := color.New(color.Faint)

			bold.Printf("Cycle %d", result.Cycle)
			dim.Printf("  (%s)\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
			fmt.Printf("Equity: %s\n\n", utils.FormatUSD(result.Equity))

			if len(result.Signals) > 0 {
				bold.Println("Signals")
				for _, sig := range result.Signals {
					fmt.Printf("  %-6s momentum=%+.4f reversion=%+.4f combined=%+.4f hurst=%.2f\n",
						sig.Symbol, sig.MomentumScore, sig.ReversionScore, sig.Combined, sig.Hurst)
				}
				fmt.Println()
			}

			if len(result.Targets) > 0 {
				bold.Println("Targets")
				for _, t := range result.Targets {
					fmt.Printf("  %-6s %s  %s\n", t.Symbol, utils.FormatWeight(t.TargetWeight), dim.Sprint(t.Source))
				}
				fmt.Println()
			}

			if len(result.StopExits) > 0 {
				color.Red("Stop exits")
				printIntents(result.StopExits)
			}
			if len(result.Planned) > 0 {
				bold.Println("Planned orders")
				printIntents(result.Planned)
			}
			if len(result.Planned) == 0 && len(result.StopExits) == 0 {
				dim.Println("No orders this cycle")
			}

			for _, ex := range result.Excluded {
				color.Yellow("  excluded %s at %s: %v", ex.Symbol, ex.Stage, ex.Unwrap())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pricesFile, "prices", "", "CSV file of price points (symbol,timestamp,price[,volume])")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "skip position persistence")
	return cmd
}

func printIntents(intents []models.OrderIntent) {
	buy := color.New(color.FgGreen).SprintFunc()
	sell := color.New(color.FgRed).SprintFunc()
	for _, in := range intents {
		side := buy(in.Side)
		if in.Side == models.OrderSideSell {
			side = sell(in.Side)
		}
		fmt.Printf("  %-4s %-6s qty=%-6d %s\n", side, in.Symbol, in.Quantity, in.Reason)
	}
	fmt.Println()
}
