// Package metrics tracks trade-level performance for strategy
// evaluation: P&L, win rate, Sharpe ratio, and maximum drawdown.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"merval-trader/internal/models"
)

// Tracker accumulates closed trades and daily returns.
type Tracker struct {
	mu           sync.Mutex
	trades       []models.Trade
	dailyReturns map[time.Time]float64
}

// NewTracker creates an empty performance tracker.
func NewTracker() *Tracker {
	return &Tracker{
		dailyReturns: make(map[time.Time]float64),
	}
}

// LogTrade records a completed round trip.
func (t *Tracker) LogTrade(trade models.Trade) {
	t.mu.Lock()
	t.trades = append(t.trades, trade)
	t.mu.Unlock()
}

// LogDailyReturn records the portfolio return for a day. Repeated calls
// for the same day overwrite.
func (t *Tracker) LogDailyReturn(day time.Time, ret float64) {
	t.mu.Lock()
	t.dailyReturns[day.Truncate(24*time.Hour)] = ret
	t.mu.Unlock()
}

// Trades returns a snapshot copy of all logged trades.
func (t *Tracker) Trades() []models.Trade {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Trade, len(t.trades))
	copy(out, t.trades)
	return out
}

// Summary holds aggregate performance statistics.
type Summary struct {
	TotalTrades int
	TotalPnL    float64
	WinRate     float64
	AvgWin      float64
	AvgLoss     float64
	SharpeRatio float64
	MaxDrawdown float64
}

// Compute calculates the aggregate statistics over everything logged so
// far.
func (t *Tracker) Compute() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{TotalTrades: len(t.trades)}

	var wins, losses int
	var winSum, lossSum float64
	for _, trade := range t.trades {
		s.TotalPnL += trade.PnL
		if trade.PnL > 0 {
			wins++
			winSum += trade.PnL
		} else if trade.PnL < 0 {
			losses++
			lossSum += trade.PnL
		}
	}
	if len(t.trades) > 0 {
		s.WinRate = float64(wins) / float64(len(t.trades))
	}
	if wins > 0 {
		s.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = lossSum / float64(losses)
	}

	returns := t.orderedReturnsLocked()
	s.SharpeRatio = sharpe(returns)
	s.MaxDrawdown = maxDrawdown(returns)
	return s
}

func (t *Tracker) orderedReturnsLocked() []float64 {
	days := make([]time.Time, 0, len(t.dailyReturns))
	for day := range t.dailyReturns {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	returns := make([]float64, len(days))
	for i, day := range days {
		returns[i] = t.dailyReturns[day]
	}
	return returns
}

// sharpe is the annualized Sharpe ratio of the daily return series.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := stat.StdDev(returns, nil)
	if sd == 0 {
		return 0
	}
	return stat.Mean(returns, nil) / sd * math.Sqrt(252)
}

// maxDrawdown is the deepest peak-to-trough fall of the cumulative
// return series. Reported as a non-positive number.
func maxDrawdown(returns []float64) float64 {
	var cumulative, peak, worst float64
	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := cumulative - peak; dd < worst {
			worst = dd
		}
	}
	return worst
}
