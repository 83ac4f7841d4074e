// Package cli provides the command-line interface for the trading engine.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"merval-trader/internal/config"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared across commands.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:     "trader",
		Short:   "Momentum and mean-reversion allocation engine for Argentine equities",
		Long: `trader runs an automated decision pipeline over a basket of equities:
it scores symbols on momentum and mean reversion, sizes positions under a
risk budget, supervises stop-losses, and plans the orders that move the
portfolio toward its core/dynamic allocation targets.`,
		Version: Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigDir, "config", "", "config directory (default ~/.config/merval-trader)")

	rootCmd.AddCommand(
		newRunCmd(app),
		newCycleCmd(app),
		newStatusCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
