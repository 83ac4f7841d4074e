package models

import "time"

// PositionState represents the lifecycle state of a position.
type PositionState string

const (
	PositionFlat        PositionState = "FLAT"
	PositionOpen        PositionState = "OPEN"
	PositionPendingExit PositionState = "PENDING_EXIT"
)

// Position represents a holding in a single symbol. Positions are the
// only state carried across cycles.
type Position struct {
	Symbol            string
	Quantity          int
	AverageEntryPrice float64
	HighWaterMark     float64
	OpenedAt          time.Time
	State             PositionState
}

// MarketValue returns the position's value at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return float64(p.Quantity) * price
}

// Weight returns the position's weight of total equity at the given price.
func (p *Position) Weight(price, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return p.MarketValue(price) / equity
}

// UnrealizedReturn returns the fractional return since entry.
func (p *Position) UnrealizedReturn(price float64) float64 {
	if p.AverageEntryPrice == 0 {
		return 0
	}
	return (price - p.AverageEntryPrice) / p.AverageEntryPrice
}

// Trade represents a completed round trip in a symbol.
type Trade struct {
	ID           string
	Symbol       string
	Quantity     int
	EntryPrice   float64
	ExitPrice    float64
	PnL          float64
	Fees         float64
	ExitReason   string
	OpenedAt     time.Time
	ClosedAt     time.Time
	HoldDuration time.Duration
}
