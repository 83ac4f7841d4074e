// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "merval-trader", "logs", "trader.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithCycle adds a cycle number to the logger context.
func WithCycle(logger zerolog.Logger, cycle uint64) zerolog.Logger {
	return logger.With().Uint64("cycle", cycle).Logger()
}

// LogIntent logs an emitted order intent.
func LogIntent(logger zerolog.Logger, id, symbol, side, reason string, qty int) {
	logger.Info().
		Str("event", "order_intent").
		Str("intent_id", id).
		Str("symbol", symbol).
		Str("side", side).
		Int("quantity", qty).
		Str("reason", reason).
		Msg("Order intent emitted")
}

// LogFill logs an applied fill report.
func LogFill(logger zerolog.Logger, symbol, side, status string, qty int, price float64) {
	logger.Info().
		Str("event", "fill").
		Str("symbol", symbol).
		Str("side", side).
		Str("status", status).
		Int("quantity", qty).
		Float64("price", price).
		Msg("Fill applied")
}

// LogExclusion logs a symbol excluded from the current cycle.
func LogExclusion(logger zerolog.Logger, symbol, stage string, err error) {
	logger.Warn().
		Str("event", "symbol_excluded").
		Str("symbol", symbol).
		Str("stage", stage).
		Err(err).
		Msg("Symbol excluded from cycle")
}

// LogStopLoss logs a triggered stop-loss exit.
func LogStopLoss(logger zerolog.Logger, symbol string, entry, current, trigger float64) {
	logger.Warn().
		Str("event", "stop_loss").
		Str("symbol", symbol).
		Float64("entry_price", entry).
		Float64("current_price", current).
		Float64("trigger_price", trigger).
		Msg("Stop-loss triggered")
}
