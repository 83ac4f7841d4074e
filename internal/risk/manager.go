package risk

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"merval-trader/internal/config"
	"merval-trader/internal/errors"
	"merval-trader/internal/logging"
	"merval-trader/internal/models"
)

// Manager owns the cross-cycle position state and the risk budget. The
// position table has exactly two writers: the decision cycle (stop
// checks) and the fill-report handler, both serialized through one
// mutex.
type Manager struct {
	cfg    config.RiskConfig
	levels map[string]ExitLevels
	logger zerolog.Logger

	mu        sync.Mutex
	budget    models.RiskBudget
	positions map[string]*models.Position
}

// NewManager creates a risk manager. Non-positive initial equity is a
// configuration error, not a recoverable condition.
func NewManager(cfg config.RiskConfig, levels map[string]ExitLevels, logger zerolog.Logger) (*Manager, error) {
	if cfg.InitialEquity <= 0 {
		return nil, errors.NewRiskBudgetInvalidError(cfg.InitialEquity)
	}
	if levels == nil {
		levels = make(map[string]ExitLevels)
	}
	return &Manager{
		cfg:    cfg,
		levels: levels,
		logger: logger,
		budget: models.RiskBudget{
			TotalEquity:          cfg.InitialEquity,
			MaxPositionWeight:    cfg.MaxPositionWeight,
			MaxPortfolioDrawdown: cfg.MaxPortfolioDrawdown,
		},
		positions: make(map[string]*models.Position),
	}, nil
}

// Budget returns the current risk budget.
func (m *Manager) Budget() models.RiskBudget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget
}

// RefreshEquity updates total equity from the account. Called only
// between cycles.
func (m *Manager) RefreshEquity(equity float64) error {
	if equity <= 0 {
		return errors.NewRiskBudgetInvalidError(equity)
	}
	m.mu.Lock()
	m.budget.TotalEquity = equity
	m.mu.Unlock()
	return nil
}

// LoadPositions seeds the position table, typically from the store at
// startup.
func (m *Manager) LoadPositions(positions []models.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range positions {
		p := positions[i]
		m.positions[p.Symbol] = &p
	}
}

// Positions returns a snapshot copy of all positions.
func (m *Manager) Positions() []models.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	return out
}

// Position returns a copy of the position for the symbol.
func (m *Manager) Position(symbol string) (models.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[symbol]
	if !ok {
		return models.Position{}, false
	}
	return *p, true
}

// stopPolicyFor returns the configured stop policy for a symbol, using
// the per-symbol level override when one exists.
func (m *Manager) stopPolicyFor(symbol string) StopPolicy {
	pct := m.cfg.StopLossPercent
	if lv, ok := m.levels[symbol]; ok && lv.StopLoss > 0 {
		pct = lv.StopLoss
	}
	if m.cfg.StopLossPolicy == "trailing" {
		tp := m.cfg.TrailingStopPercent
		if tp <= 0 {
			tp = pct
		}
		return NewTrailingStop(tp)
	}
	return NewFixedStop(pct)
}

func (m *Manager) takeProfitFor(symbol string) *TakeProfit {
	pct := m.cfg.TakeProfitPercent
	if lv, ok := m.levels[symbol]; ok && lv.TakeProfit > 0 {
		pct = lv.TakeProfit
	}
	if pct <= 0 {
		return nil
	}
	return NewTakeProfit(pct)
}

// CheckStops runs stop-loss and take-profit supervision over every open
// position. A breached position transitions to PendingExit and yields
// an unconditional full-quantity Sell intent, bypassing allocation for
// that symbol this cycle. Committed transitions are never rolled back by
// later failures in the same cycle.
func (m *Manager) CheckStops(prices map[string]float64, now time.Time) []models.OrderIntent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var intents []models.OrderIntent
	for symbol, pos := range m.positions {
		if pos.State != models.PositionOpen || pos.Quantity <= 0 {
			continue
		}
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}

		if price > pos.HighWaterMark {
			pos.HighWaterMark = price
		}

		reason := ExitReason("")
		var trigger float64
		if breached, t := m.stopPolicyFor(symbol).Check(pos, price); breached {
			reason, trigger = ExitReasonStopLoss, t
		} else if tp := m.takeProfitFor(symbol); tp != nil {
			if hit, t := tp.Check(pos, price); hit {
				reason, trigger = ExitReasonTakeProfit, t
			}
		}
		if reason == "" {
			continue
		}

		pos.State = models.PositionPendingExit
		logging.LogStopLoss(m.logger, symbol, pos.AverageEntryPrice, price, trigger)
		intents = append(intents, models.OrderIntent{
			ID:        uuid.NewString(),
			Symbol:    symbol,
			Side:      models.OrderSideSell,
			Type:      models.OrderTypeMarket,
			Quantity:  pos.Quantity,
			Reason:    string(reason),
			CreatedAt: now,
		})
	}
	return intents
}

// ApplyFill mutates position state from an execution report. Called by
// the fill handler, concurrently with the decision cycle. A completed
// round trip returns the closed Trade for metrics and persistence.
func (m *Manager) ApplyFill(report models.FillReport) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := m.positions[report.Symbol]

	if report.Status == models.FillStatusRejected {
		// A rejected exit leaves the position open so the stop
		// re-triggers next cycle.
		if pos != nil && pos.State == models.PositionPendingExit {
			pos.State = models.PositionOpen
		}
		logging.LogFill(m.logger, report.Symbol, string(report.Side), string(report.Status), report.Quantity, report.FillPrice)
		return nil, nil
	}

	if report.Quantity <= 0 || report.FillPrice <= 0 {
		return nil, errors.Wrapf(errors.ErrIntentRejected, "invalid fill for %s: qty=%d price=%.2f",
			report.Symbol, report.Quantity, report.FillPrice)
	}

	logging.LogFill(m.logger, report.Symbol, string(report.Side), string(report.Status), report.Quantity, report.FillPrice)

	switch report.Side {
	case models.OrderSideBuy:
		if pos == nil {
			m.positions[report.Symbol] = &models.Position{
				Symbol:            report.Symbol,
				Quantity:          report.Quantity,
				AverageEntryPrice: report.FillPrice,
				HighWaterMark:     report.FillPrice,
				OpenedAt:          report.Timestamp,
				State:             models.PositionOpen,
			}
			return nil, nil
		}
		totalCost := pos.AverageEntryPrice*float64(pos.Quantity) + report.FillPrice*float64(report.Quantity)
		pos.Quantity += report.Quantity
		pos.AverageEntryPrice = totalCost / float64(pos.Quantity)
		if pos.State == models.PositionFlat {
			pos.State = models.PositionOpen
			pos.OpenedAt = report.Timestamp
			pos.HighWaterMark = report.FillPrice
		}
		return nil, nil

	case models.OrderSideSell:
		if pos == nil || pos.Quantity == 0 {
			return nil, errors.Wrapf(errors.ErrPositionNotFound, "sell fill for %s with no position", report.Symbol)
		}
		qty := report.Quantity
		if qty > pos.Quantity {
			qty = pos.Quantity
		}
		pos.Quantity -= qty
		if pos.Quantity > 0 {
			return nil, nil
		}

		trade := &models.Trade{
			ID:           uuid.NewString(),
			Symbol:       pos.Symbol,
			Quantity:     qty,
			EntryPrice:   pos.AverageEntryPrice,
			ExitPrice:    report.FillPrice,
			PnL:          (report.FillPrice-pos.AverageEntryPrice)*float64(qty) - report.Fees,
			Fees:         report.Fees,
			ExitReason:   exitReasonFromState(pos.State),
			OpenedAt:     pos.OpenedAt,
			ClosedAt:     report.Timestamp,
			HoldDuration: report.Timestamp.Sub(pos.OpenedAt),
		}
		pos.State = models.PositionFlat
		pos.AverageEntryPrice = 0
		pos.HighWaterMark = 0
		return trade, nil
	}

	return nil, errors.Wrapf(errors.ErrIntentRejected, "unknown side %q", report.Side)
}

func exitReasonFromState(state models.PositionState) string {
	if state == models.PositionPendingExit {
		return string(ExitReasonStopLoss)
	}
	return string(ExitReasonRebalance)
}

// MarketValue returns the total market value of open positions at the
// given prices, using average entry where no price is available.
func (m *Manager) MarketValue(prices map[string]float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for symbol, pos := range m.positions {
		if pos.Quantity == 0 {
			continue
		}
		price, ok := prices[symbol]
		if !ok {
			price = pos.AverageEntryPrice
		}
		total += pos.MarketValue(price)
	}
	return total
}
