// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"merval-trader/internal/errors"
)

// Config holds all application configuration. It is immutable during a
// decision cycle; Load builds a fresh value when settings change between
// cycles.
type Config struct {
	Trading    TradingConfig    `mapstructure:"trading"`
	Signals    SignalConfig     `mapstructure:"signals"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Allocation AllocationConfig `mapstructure:"allocation"`
	Data       DataConfig       `mapstructure:"data"`
}

// TradingConfig holds cycle and order-planning configuration.
type TradingConfig struct {
	Mode             string        `mapstructure:"mode"`           // "paper"
	CycleInterval    time.Duration `mapstructure:"cycle_interval"` // between evaluation cycles
	MinTradeFraction float64       `mapstructure:"min_trade_fraction"`
	LotSize          int           `mapstructure:"lot_size"`
	SlippagePercent  float64       `mapstructure:"slippage_percent"`
	DatabasePath     string        `mapstructure:"database_path"`
}

// SignalConfig holds signal generation parameters.
type SignalConfig struct {
	MomentumWindow    int     `mapstructure:"momentum_window"`
	ReversionWindow   int     `mapstructure:"reversion_window"`
	VolatilityWindow  int     `mapstructure:"volatility_window"`
	MomentumThreshold float64 `mapstructure:"momentum_threshold"`
	ZScoreEntry       float64 `mapstructure:"zscore_entry"`
	TopK              int     `mapstructure:"top_k"`
	MaxPerSector      int     `mapstructure:"max_per_sector"`
}

// RiskConfig holds risk management configuration.
type RiskConfig struct {
	InitialEquity        float64 `mapstructure:"initial_equity"`
	MaxPositionWeight    float64 `mapstructure:"max_position_weight"`
	MaxPortfolioDrawdown float64 `mapstructure:"max_portfolio_drawdown"`
	MaxScoreMultiplier   float64 `mapstructure:"max_score_multiplier"`
	DynamicSlotWeight    float64 `mapstructure:"dynamic_slot_weight"`
	StopLossPolicy       string  `mapstructure:"stop_loss_policy"` // "fixed", "trailing"
	StopLossPercent      float64 `mapstructure:"stop_loss_percent"`
	TrailingStopPercent  float64 `mapstructure:"trailing_stop_percent"`
	TakeProfitPercent    float64 `mapstructure:"take_profit_percent"`
}

// AllocationConfig holds the core/dynamic portfolio structure.
type AllocationConfig struct {
	CoreBandMin    float64       `mapstructure:"core_band_min"`
	CoreBandMax    float64       `mapstructure:"core_band_max"`
	DynamicBandMin float64       `mapstructure:"dynamic_band_min"`
	DynamicBandMax float64       `mapstructure:"dynamic_band_max"`
	CoreHoldings   []CoreHolding `mapstructure:"core_holdings"`
	Candidates     []Candidate   `mapstructure:"candidates"`
}

// CoreHolding defines a fixed-weight long-term position.
type CoreHolding struct {
	Symbol     string  `mapstructure:"symbol"`
	Weight     float64 `mapstructure:"weight"`
	Sector     string  `mapstructure:"sector"`
	StopLoss   float64 `mapstructure:"stop_loss"`
	TakeProfit float64 `mapstructure:"take_profit"`
}

// Candidate defines a symbol eligible for the dynamic sleeve.
type Candidate struct {
	Symbol string `mapstructure:"symbol"`
	Sector string `mapstructure:"sector"`
}

// DataConfig holds price history configuration.
type DataConfig struct {
	HistorySize        int           `mapstructure:"history_size"`
	FreshnessThreshold time.Duration `mapstructure:"freshness_threshold"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/merval-trader"
	}
	return filepath.Join(home, ".config", "merval-trader")
}

// Default returns the built-in configuration. Window lengths, thresholds
// and the stop levels come from the strategy's research defaults: wider
// stops for core positions, tighter for the higher-frequency dynamic
// sleeve.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Mode:             "paper",
			CycleInterval:    time.Hour,
			MinTradeFraction: 0.005,
			LotSize:          1,
			SlippagePercent:  0.05,
			DatabasePath:     filepath.Join(DefaultConfigDir(), "trader.db"),
		},
		Signals: SignalConfig{
			MomentumWindow:    20,
			ReversionWindow:   5,
			VolatilityWindow:  10,
			MomentumThreshold: 0.02,
			ZScoreEntry:       1.5,
			TopK:              3,
			MaxPerSector:      1,
		},
		Risk: RiskConfig{
			InitialEquity:        100000,
			MaxPositionWeight:    0.10,
			MaxPortfolioDrawdown: 0.20,
			MaxScoreMultiplier:   1.5,
			DynamicSlotWeight:    0.08,
			StopLossPolicy:       "fixed",
			StopLossPercent:      0.08,
			TrailingStopPercent:  0.08,
			TakeProfitPercent:    0.15,
		},
		Allocation: AllocationConfig{
			CoreBandMin:    0.70,
			CoreBandMax:    0.75,
			DynamicBandMin: 0.25,
			DynamicBandMax: 0.30,
			CoreHoldings: []CoreHolding{
				{Symbol: "YPF", Weight: 0.35, Sector: "energy", StopLoss: 0.15, TakeProfit: 0.30},
				{Symbol: "BBVA", Weight: 0.25, Sector: "banking", StopLoss: 0.12, TakeProfit: 0.25},
				{Symbol: "CRESY", Weight: 0.08, Sector: "agriculture", StopLoss: 0.10, TakeProfit: 0.20},
				{Symbol: "PAM", Weight: 0.07, Sector: "energy", StopLoss: 0.10, TakeProfit: 0.20},
			},
			Candidates: []Candidate{
				{Symbol: "GGAL", Sector: "banking"},
				{Symbol: "BMA", Sector: "banking"},
				{Symbol: "SUPV", Sector: "banking"},
				{Symbol: "BBAR", Sector: "banking"},
				{Symbol: "TEO", Sector: "technology"},
				{Symbol: "GLOB", Sector: "technology"},
				{Symbol: "CEPU", Sector: "energy"},
				{Symbol: "EDN", Sector: "energy"},
				{Symbol: "TGS", Sector: "energy"},
				{Symbol: "AGRO", Sector: "agriculture"},
				{Symbol: "IRS", Sector: "real_estate"},
				{Symbol: "LOMA", Sector: "industrial"},
				{Symbol: "TS", Sector: "industrial"},
				{Symbol: "ARCO", Sector: "consumer"},
				{Symbol: "MELI", Sector: "consumer"},
			},
		},
		Data: DataConfig{
			HistorySize:        120,
			FreshnessThreshold: 15 * time.Minute,
		},
	}
}

// Load loads configuration from the specified directory, falling back to
// defaults for anything unset. If configDir is empty, the default config
// directory is used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("trading.mode", def.Trading.Mode)
	v.SetDefault("trading.cycle_interval", def.Trading.CycleInterval)
	v.SetDefault("trading.min_trade_fraction", def.Trading.MinTradeFraction)
	v.SetDefault("trading.lot_size", def.Trading.LotSize)
	v.SetDefault("trading.slippage_percent", def.Trading.SlippagePercent)
	v.SetDefault("trading.database_path", def.Trading.DatabasePath)

	v.SetDefault("signals.momentum_window", def.Signals.MomentumWindow)
	v.SetDefault("signals.reversion_window", def.Signals.ReversionWindow)
	v.SetDefault("signals.volatility_window", def.Signals.VolatilityWindow)
	v.SetDefault("signals.momentum_threshold", def.Signals.MomentumThreshold)
	v.SetDefault("signals.zscore_entry", def.Signals.ZScoreEntry)
	v.SetDefault("signals.top_k", def.Signals.TopK)
	v.SetDefault("signals.max_per_sector", def.Signals.MaxPerSector)

	v.SetDefault("risk.initial_equity", def.Risk.InitialEquity)
	v.SetDefault("risk.max_position_weight", def.Risk.MaxPositionWeight)
	v.SetDefault("risk.max_portfolio_drawdown", def.Risk.MaxPortfolioDrawdown)
	v.SetDefault("risk.max_score_multiplier", def.Risk.MaxScoreMultiplier)
	v.SetDefault("risk.dynamic_slot_weight", def.Risk.DynamicSlotWeight)
	v.SetDefault("risk.stop_loss_policy", def.Risk.StopLossPolicy)
	v.SetDefault("risk.stop_loss_percent", def.Risk.StopLossPercent)
	v.SetDefault("risk.trailing_stop_percent", def.Risk.TrailingStopPercent)
	v.SetDefault("risk.take_profit_percent", def.Risk.TakeProfitPercent)

	v.SetDefault("allocation.core_band_min", def.Allocation.CoreBandMin)
	v.SetDefault("allocation.core_band_max", def.Allocation.CoreBandMax)
	v.SetDefault("allocation.dynamic_band_min", def.Allocation.DynamicBandMin)
	v.SetDefault("allocation.dynamic_band_max", def.Allocation.DynamicBandMax)
	v.SetDefault("allocation.core_holdings", def.Allocation.CoreHoldings)
	v.SetDefault("allocation.candidates", def.Allocation.Candidates)

	v.SetDefault("data.history_size", def.Data.HistorySize)
	v.SetDefault("data.freshness_threshold", def.Data.FreshnessThreshold)
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Risk.InitialEquity <= 0 {
		return errors.NewRiskBudgetInvalidError(c.Risk.InitialEquity)
	}
	if c.Risk.MaxPositionWeight <= 0 || c.Risk.MaxPositionWeight > 1 {
		return errors.Wrapf(errors.ErrConfigInvalid, "max_position_weight %.4f out of (0,1]", c.Risk.MaxPositionWeight)
	}
	switch c.Risk.StopLossPolicy {
	case "fixed", "trailing":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "unknown stop_loss_policy %q", c.Risk.StopLossPolicy)
	}

	if c.Allocation.CoreBandMin > c.Allocation.CoreBandMax {
		return errors.Wrap(errors.ErrConfigInvalid, "core band min exceeds max")
	}
	if c.Allocation.DynamicBandMin > c.Allocation.DynamicBandMax {
		return errors.Wrap(errors.ErrConfigInvalid, "dynamic band min exceeds max")
	}

	var coreSum float64
	for _, h := range c.Allocation.CoreHoldings {
		if h.Weight < 0 {
			return errors.Wrapf(errors.ErrConfigInvalid, "negative core weight for %s", h.Symbol)
		}
		coreSum += h.Weight
	}
	if coreSum > 1.0 {
		return errors.NewAllocationInfeasibleError(coreSum)
	}
	if coreSum < c.Allocation.CoreBandMin || coreSum > c.Allocation.CoreBandMax {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"core holdings sum %.4f outside band [%.2f, %.2f]",
			coreSum, c.Allocation.CoreBandMin, c.Allocation.CoreBandMax)
	}

	if c.Signals.MomentumWindow <= 1 || c.Signals.ReversionWindow <= 1 || c.Signals.VolatilityWindow <= 1 {
		return errors.Wrap(errors.ErrConfigInvalid, "signal windows must be greater than 1")
	}
	if c.Data.HistorySize < c.Signals.MomentumWindow+1 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"history_size %d too small for momentum_window %d",
			c.Data.HistorySize, c.Signals.MomentumWindow)
	}

	return nil
}

// CoreWeightSum returns the total configured core weight.
func (c *Config) CoreWeightSum() float64 {
	var sum float64
	for _, h := range c.Allocation.CoreHoldings {
		sum += h.Weight
	}
	return sum
}

// WriteDefault writes the default configuration file to the given
// directory, creating it if needed.
func WriteDefault(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", errors.Wrap(err, "creating config directory")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	path := filepath.Join(configDir, "config.yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return "", errors.Wrap(err, "writing config file")
	}
	return path, nil
}

// String returns a short human-readable summary.
func (c *Config) String() string {
	return fmt.Sprintf("mode=%s core=%d dynamic_candidates=%d equity=%.2f",
		c.Trading.Mode, len(c.Allocation.CoreHoldings), len(c.Allocation.Candidates), c.Risk.InitialEquity)
}
