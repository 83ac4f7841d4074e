// Package risk provides position sizing and stop-loss supervision.
package risk

import (
	"merval-trader/internal/models"
)

// ExitReason identifies why a forced exit was triggered.
type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "stop_loss"
	ExitReasonTakeProfit ExitReason = "take_profit"
	ExitReasonRebalance  ExitReason = "rebalance"
)

// StopPolicy decides whether an open position must be force-exited at
// the current price. Implementations are pure functions of the position
// and price; selection between them is a configuration choice.
type StopPolicy interface {
	Name() string
	// Check returns whether the stop is breached and the trigger price.
	Check(pos *models.Position, price float64) (bool, float64)
}

// FixedStop exits when the loss from average entry exceeds a fixed
// percentage.
type FixedStop struct {
	Percent float64 // e.g. 0.08 for 8%
}

// NewFixedStop creates a fixed-percentage stop policy.
func NewFixedStop(percent float64) *FixedStop {
	return &FixedStop{Percent: percent}
}

func (f *FixedStop) Name() string { return "fixed" }

func (f *FixedStop) Check(pos *models.Position, price float64) (bool, float64) {
	trigger := pos.AverageEntryPrice * (1 - f.Percent)
	return price <= trigger, trigger
}

// TrailingStop exits when price falls a fixed percentage below the
// highest price observed since entry.
type TrailingStop struct {
	Percent float64
}

// NewTrailingStop creates a trailing stop policy.
func NewTrailingStop(percent float64) *TrailingStop {
	return &TrailingStop{Percent: percent}
}

func (t *TrailingStop) Name() string { return "trailing" }

func (t *TrailingStop) Check(pos *models.Position, price float64) (bool, float64) {
	high := pos.HighWaterMark
	if high < pos.AverageEntryPrice {
		high = pos.AverageEntryPrice
	}
	trigger := high * (1 - t.Percent)
	return price <= trigger, trigger
}

// TakeProfit exits when the gain from average entry exceeds a fixed
// percentage. Kept separate from StopPolicy so levels can be asymmetric:
// momentum positions carry wider targets than stops.
type TakeProfit struct {
	Percent float64
}

// NewTakeProfit creates a take-profit rule.
func NewTakeProfit(percent float64) *TakeProfit {
	return &TakeProfit{Percent: percent}
}

func (t *TakeProfit) Check(pos *models.Position, price float64) (bool, float64) {
	trigger := pos.AverageEntryPrice * (1 + t.Percent)
	return price >= trigger, trigger
}

// ExitLevels holds the per-symbol stop and target configuration. Core
// holdings carry wider levels than the dynamic sleeve.
type ExitLevels struct {
	StopLoss   float64
	TakeProfit float64
}
