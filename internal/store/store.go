// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"merval-trader/internal/models"
)

// DataStore persists position state across process restarts and keeps
// the trade history. The engine reads positions at startup and writes
// after each fill.
type DataStore interface {
	SavePosition(ctx context.Context, pos models.Position) error
	LoadPositions(ctx context.Context) ([]models.Position, error)
	LogTrade(ctx context.Context, trade models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
