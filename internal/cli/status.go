package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"merval-trader/internal/config"
	"merval-trader/internal/models"
	"merval-trader/internal/store"
	"merval-trader/pkg/utils"
)

// newStatusCmd creates the status command: positions and trade
// performance from the persisted store.
func newStatusCmd(app *App) *cobra.Command {
	var tradeLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current positions and performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			ctx := cmd.Context()
			dataStore, err := store.NewSQLiteStore(cfg.Trading.DatabasePath)
			if err != nil {
				return err
			}
			defer dataStore.Close()

			positions, err := dataStore.LoadPositions(ctx)
			if err != nil {
				return err
			}
			trades, err := dataStore.GetTrades(ctx, store.TradeFilter{Limit: tradeLimit})
			if err != nil {
				return err
			}

			printStatus(cfg, positions, trades)
			return nil
		},
	}

	cmd.Flags().IntVar(&tradeLimit, "trades", 10, "number of recent trades to show")
	return cmd
}

func printStatus(cfg *config.Config, positions []models.Position, trades []models.Trade) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	bold.Println("Positions")
	if len(positions) == 0 {
		dim.Println("  none")
	}
	coreSymbols := make(map[string]bool, len(cfg.Allocation.CoreHoldings))
	for _, h := range cfg.Allocation.CoreHoldings {
		coreSymbols[h.Symbol] = true
	}
	for _, pos := range positions {
		sleeve := "dynamic"
		if coreSymbols[pos.Symbol] {
			sleeve = "core"
		}
		fmt.Printf("  %-6s qty=%-6d entry=%s  %-8s %s  held %s\n",
			pos.Symbol, pos.Quantity, utils.FormatUSD(pos.AverageEntryPrice),
			sleeve, dim.Sprint(pos.State), holdAge(pos.OpenedAt))
	}
	fmt.Println()

	bold.Println("Recent trades")
	if len(trades) == 0 {
		dim.Println("  none")
	}
	var totalPnL float64
	wins := 0
	for _, tr := range trades {
		fmt.Printf("  %s %-6s qty=%-6d %s → %s  %s  %s\n",
			tr.ClosedAt.Format("2006-01-02"), tr.Symbol, tr.Quantity,
			utils.FormatUSD(tr.EntryPrice), utils.FormatUSD(tr.ExitPrice),
			utils.FormatPnL(tr.PnL), dim.Sprint(tr.ExitReason))
		totalPnL += tr.PnL
		if tr.PnL > 0 {
			wins++
		}
	}
	fmt.Println()

	if len(trades) > 0 {
		bold.Println("Performance")
		fmt.Printf("  trades=%d  win_rate=%s  pnl=%s\n",
			len(trades),
			utils.FormatPercent(float64(wins)/float64(len(trades))),
			utils.FormatPnL(totalPnL))
	}
}

func holdAge(openedAt time.Time) string {
	if openedAt.IsZero() {
		return "-"
	}
	d := time.Since(openedAt)
	if d > 48*time.Hour {
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
	return d.Round(time.Minute).String()
}
