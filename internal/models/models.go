// Package models provides domain models for the trading decision engine.
package models

import (
	"time"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// AllocationSource identifies which sleeve of the portfolio a target
// weight belongs to.
type AllocationSource string

const (
	SourceCore    AllocationSource = "CORE"
	SourceDynamic AllocationSource = "DYNAMIC"
)

// PricePoint represents a single price observation for a symbol.
// Immutable once recorded.
type PricePoint struct {
	Symbol    string
	Timestamp time.Time
	Price     float64
	Volume    int64
}

// Signal holds the per-symbol scores computed each cycle. Derived data,
// never persisted beyond the current decision.
type Signal struct {
	Symbol         string
	MomentumScore  float64
	ReversionScore float64
	Combined       float64
	Hurst          float64
	Volatility     float64
	Timestamp      time.Time
}

// AllocationTarget represents a desired portfolio weight for a symbol.
type AllocationTarget struct {
	Symbol       string
	TargetWeight float64
	Source       AllocationSource
}

// OrderIntent is an abstract order handed to the execution gateway.
// Immutable once emitted; consumed exactly once.
type OrderIntent struct {
	ID         string
	Symbol     string
	Side       OrderSide
	Type       OrderType
	Quantity   int
	LimitPrice float64
	Reason     string
	CreatedAt  time.Time
}

// FillStatus represents the execution status reported for an intent.
type FillStatus string

const (
	FillStatusFilled          FillStatus = "FILLED"
	FillStatusRejected        FillStatus = "REJECTED"
	FillStatusPartiallyFilled FillStatus = "PARTIALLY_FILLED"
)

// FillReport is the execution gateway's report for a submitted intent.
type FillReport struct {
	IntentID  string
	Symbol    string
	Side      OrderSide
	Quantity  int
	FillPrice float64
	Fees      float64
	Status    FillStatus
	Timestamp time.Time
}

// RiskBudget holds the process-scoped risk configuration. Read-only
// during a cycle, refreshed only between cycles.
type RiskBudget struct {
	TotalEquity          float64
	MaxPositionWeight    float64
	MaxPortfolioDrawdown float64
}
