// Package orders translates allocation targets into concrete order
// intents by diffing them against current holdings.
package orders

import (
	"math"
	"time"

	"github.com/google/uuid"

	"merval-trader/internal/models"
)

// Planner computes the minimal set of order intents that moves current
// holdings toward the target weights.
type Planner struct {
	minTradeFraction float64 // of total equity; deltas below are ignored
	lotSize          int
}

// NewPlanner creates an order planner. minTradeFraction is the smallest
// weight delta worth trading (the anti-thrash rule); lotSize is the
// instrument's minimum tradable unit.
func NewPlanner(minTradeFraction float64, lotSize int) *Planner {
	if lotSize < 1 {
		lotSize = 1
	}
	return &Planner{minTradeFraction: minTradeFraction, lotSize: lotSize}
}

// Plan diffs targets against positions and emits Buy intents for
// positive deltas and Sell intents for negative ones. Symbols with a
// stop-driven exit this cycle (stopExits) are never bought: the exit
// intent takes precedence. Quantities are floored to the lot size and
// zero-quantity intents are dropped.
func (p *Planner) Plan(
	targets []models.AllocationTarget,
	positions []models.Position,
	prices map[string]float64,
	equity float64,
	stopExits map[string]bool,
	now time.Time,
) []models.OrderIntent {
	if equity <= 0 {
		return nil
	}

	held := make(map[string]models.Position, len(positions))
	for _, pos := range positions {
		held[pos.Symbol] = pos
	}

	targeted := make(map[string]bool, len(targets))
	var intents []models.OrderIntent

	for _, t := range targets {
		targeted[t.Symbol] = true
		if stopExits[t.Symbol] {
			continue
		}
		price, ok := prices[t.Symbol]
		if !ok || price <= 0 {
			continue
		}

		var currentWeight float64
		if pos, ok := held[t.Symbol]; ok {
			currentWeight = pos.Weight(price, equity)
		}

		delta := t.TargetWeight - currentWeight
		if math.Abs(delta) < p.minTradeFraction {
			continue
		}

		qty := p.floorToLot(math.Abs(delta) * equity / price)
		if qty == 0 {
			continue
		}
		if delta < 0 {
			if pos, ok := held[t.Symbol]; ok && qty > pos.Quantity {
				qty = pos.Quantity
			}
			if qty == 0 {
				continue
			}
		}

		side := models.OrderSideBuy
		reason := "rebalance_buy"
		if delta < 0 {
			side = models.OrderSideSell
			reason = "rebalance_sell"
		}
		intents = append(intents, models.OrderIntent{
			ID:        uuid.NewString(),
			Symbol:    t.Symbol,
			Side:      side,
			Type:      models.OrderTypeMarket,
			Quantity:  qty,
			Reason:    reason,
			CreatedAt: now,
		})
	}

	// Holdings with no target (rotated out of the dynamic sleeve) are
	// liquidated, unless a stop exit already covers them.
	for _, pos := range positions {
		if pos.Quantity <= 0 || targeted[pos.Symbol] || stopExits[pos.Symbol] {
			continue
		}
		if pos.State != models.PositionOpen {
			continue
		}
		price, ok := prices[pos.Symbol]
		if !ok || price <= 0 {
			continue
		}
		if pos.Weight(price, equity) < p.minTradeFraction {
			continue
		}
		intents = append(intents, models.OrderIntent{
			ID:        uuid.NewString(),
			Symbol:    pos.Symbol,
			Side:      models.OrderSideSell,
			Type:      models.OrderTypeMarket,
			Quantity:  pos.Quantity,
			Reason:    "rotation_exit",
			CreatedAt: now,
		})
	}

	return intents
}

func (p *Planner) floorToLot(quantity float64) int {
	lots := int(quantity) / p.lotSize
	return lots * p.lotSize
}
