package broker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"merval-trader/internal/errors"
	"merval-trader/internal/models"
)

// PriceFunc supplies the simulation price for a symbol.
type PriceFunc func(symbol string) (float64, error)

// PaperGateway simulates execution: every market intent fills in full at
// the current price adjusted for slippage, with sell-side regulatory
// fees. Cash is tracked so the engine can compute account equity.
type PaperGateway struct {
	priceOf         PriceFunc
	slippagePercent float64
	logger          zerolog.Logger

	mu      sync.Mutex
	cash    float64
	handler FillHandler
}

// NewPaperGateway creates a paper gateway with the given starting cash.
func NewPaperGateway(cash, slippagePercent float64, priceOf PriceFunc, logger zerolog.Logger) *PaperGateway {
	return &PaperGateway{
		priceOf:         priceOf,
		slippagePercent: slippagePercent,
		logger:          logger,
		cash:            cash,
	}
}

// OnFill registers the fill handler. Must be set before Submit.
func (g *PaperGateway) OnFill(handler FillHandler) {
	g.mu.Lock()
	g.handler = handler
	g.mu.Unlock()
}

// Cash returns the current simulated cash balance.
func (g *PaperGateway) Cash() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash
}

// Submit simulates each intent and reports a fill (or rejection) through
// the registered handler. A buy that exceeds available cash is rejected
// rather than partially filled.
func (g *PaperGateway) Submit(ctx context.Context, intents []models.OrderIntent) error {
	for _, intent := range intents {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		report := g.simulate(intent)

		g.mu.Lock()
		handler := g.handler
		g.mu.Unlock()
		if handler == nil {
			return errors.Wrap(errors.ErrIntentRejected, "no fill handler registered")
		}
		handler(report)
	}
	return nil
}

func (g *PaperGateway) simulate(intent models.OrderIntent) models.FillReport {
	report := models.FillReport{
		IntentID:  intent.ID,
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		Status:    models.FillStatusRejected,
		Timestamp: time.Now(),
	}

	price, err := g.priceOf(intent.Symbol)
	if err != nil || price <= 0 {
		g.logger.Warn().Str("symbol", intent.Symbol).Err(err).Msg("Paper fill rejected: no price")
		return report
	}

	// Slippage works against the order.
	fillPrice := price
	if intent.Side == models.OrderSideBuy {
		fillPrice = price * (1 + g.slippagePercent/100)
	} else {
		fillPrice = price * (1 - g.slippagePercent/100)
	}
	if intent.Type == models.OrderTypeLimit && intent.LimitPrice > 0 {
		if intent.Side == models.OrderSideBuy && fillPrice > intent.LimitPrice {
			return report
		}
		if intent.Side == models.OrderSideSell && fillPrice < intent.LimitPrice {
			return report
		}
	}

	principal := fillPrice * float64(intent.Quantity)

	g.mu.Lock()
	defer g.mu.Unlock()

	switch intent.Side {
	case models.OrderSideBuy:
		if principal > g.cash {
			g.logger.Warn().
				Str("symbol", intent.Symbol).
				Float64("required", principal).
				Float64("cash", g.cash).
				Msg("Paper fill rejected: insufficient cash")
			return report
		}
		g.cash -= principal
	case models.OrderSideSell:
		fees := SellFees(principal, intent.Quantity)
		g.cash += principal - fees
		report.Fees = fees
	}

	report.Status = models.FillStatusFilled
	report.FillPrice = fillPrice
	return report
}
