package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"merval-trader/internal/config"
	"merval-trader/pkg/utils"
)

// newConfigCmd creates the config command group.
func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigInitCmd(app), newConfigShowCmd(app))
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(app.ConfigDir)
			if err != nil {
				return err
			}
			color.Green("Wrote %s", path)
			return nil
		},
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigDir)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Println("Trading")
			fmt.Printf("  mode=%s interval=%s lot_size=%d min_trade=%s slippage=%.2f%%\n",
				cfg.Trading.Mode, cfg.Trading.CycleInterval, cfg.Trading.LotSize,
				utils.FormatWeight(cfg.Trading.MinTradeFraction), cfg.Trading.SlippagePercent)
			fmt.Printf("  database=%s\n\n", cfg.Trading.DatabasePath)

			bold.Println("Signals")
			fmt.Printf("  momentum_window=%d reversion_window=%d volatility_window=%d\n",
				cfg.Signals.MomentumWindow, cfg.Signals.ReversionWindow, cfg.Signals.VolatilityWindow)
			fmt.Printf("  momentum_threshold=%.3f zscore_entry=%.2f top_k=%d max_per_sector=%d\n\n",
				cfg.Signals.MomentumThreshold, cfg.Signals.ZScoreEntry, cfg.Signals.TopK, cfg.Signals.MaxPerSector)

			bold.Println("Risk")
			fmt.Printf("  equity=%s max_position=%s stop=%s(%s) take_profit=%s\n\n",
				utils.FormatUSD(cfg.Risk.InitialEquity),
				utils.FormatWeight(cfg.Risk.MaxPositionWeight),
				cfg.Risk.StopLossPolicy,
				utils.FormatWeight(cfg.Risk.StopLossPercent),
				utils.FormatWeight(cfg.Risk.TakeProfitPercent))

			bold.Println("Allocation")
			fmt.Printf("  core band [%s, %s], dynamic band [%s, %s]\n",
				utils.FormatWeight(cfg.Allocation.CoreBandMin), utils.FormatWeight(cfg.Allocation.CoreBandMax),
				utils.FormatWeight(cfg.Allocation.DynamicBandMin), utils.FormatWeight(cfg.Allocation.DynamicBandMax))
			for _, h := range cfg.Allocation.CoreHoldings {
				fmt.Printf("  core    %-6s %s  %s\n", h.Symbol, utils.FormatWeight(h.Weight), h.Sector)
			}
			for _, c := range cfg.Allocation.Candidates {
				fmt.Printf("  dynamic %-6s %s\n", c.Symbol, c.Sector)
			}
			fmt.Printf("  core weight sum: %s\n", utils.FormatWeight(cfg.CoreWeightSum()))
			return nil
		},
	}
}
