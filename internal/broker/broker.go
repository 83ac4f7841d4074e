// Package broker provides the execution gateway interface and the paper
// trading implementation.
package broker

import (
	"context"
	"math"

	"merval-trader/internal/models"
)

// FillHandler consumes execution reports from the gateway.
type FillHandler func(models.FillReport)

// ExecutionGateway consumes order intents and reports fills back. The
// engine never blocks on gateway I/O; cancellation of in-flight orders
// is the gateway's concern, not the engine's.
type ExecutionGateway interface {
	Submit(ctx context.Context, intents []models.OrderIntent) error
	OnFill(handler FillHandler)
}

// SellFees returns the regulatory fees charged on a US equity sell:
// the SEC fee ($22.90 per $1M of principal) and the FINRA trading
// activity fee ($0.000119 per share, capped at $5.95), both rounded up
// to the cent.
func SellFees(principal float64, shares int) float64 {
	secFee := math.Ceil(principal*22.90/1_000_000*100) / 100
	finraFee := math.Ceil(float64(shares)*0.000119*100) / 100
	if finraFee > 5.95 {
		finraFee = 5.95
	}
	return secFee + finraFee
}
