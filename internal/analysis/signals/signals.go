// Package signals computes momentum and mean-reversion scores from price
// series. All computations are pure functions of their input series:
// identical input yields identical output.
package signals

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"merval-trader/internal/errors"
	"merval-trader/internal/models"
)

// tradingDaysPerYear annualizes the volatility estimate.
const tradingDaysPerYear = 252

// Config holds the windows and thresholds for signal generation.
type Config struct {
	MomentumWindow    int
	ReversionWindow   int
	VolatilityWindow  int
	MomentumThreshold float64
	ZScoreEntry       float64
}

// Generator computes per-symbol signals from price history.
type Generator struct {
	cfg Config
}

// NewGenerator creates a signal generator.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// MinPoints returns the minimum series length needed for a full signal.
func (g *Generator) MinPoints() int {
	n := g.cfg.MomentumWindow
	if g.cfg.VolatilityWindow > n {
		n = g.cfg.VolatilityWindow
	}
	if g.cfg.ReversionWindow > n {
		n = g.cfg.ReversionWindow
	}
	// One extra point for the first return.
	return n + 1
}

// Generate computes the signal for one symbol. Series shorter than the
// required lookback yield an InsufficientHistoryError and the symbol is
// excluded from this cycle's dynamic universe.
func (g *Generator) Generate(symbol string, points []models.PricePoint, now time.Time) (models.Signal, error) {
	if len(points) < g.MinPoints() {
		return models.Signal{}, errors.NewInsufficientHistoryError(symbol, len(points), g.MinPoints())
	}

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	rets := periodReturns(prices)
	hurst := hurstExponent(prices)

	momentum := g.momentumScore(rets)
	volatility := g.annualizedVolatility(rets)
	reversion := g.reversionScore(prices)

	return models.Signal{
		Symbol:         symbol,
		MomentumScore:  momentum,
		ReversionScore: reversion,
		Combined:       combine(momentum, reversion, hurst),
		Hurst:          hurst,
		Volatility:     volatility,
		Timestamp:      now,
	}, nil
}

// momentumScore is the mean period return over the momentum window
// normalized by annualized trailing volatility. Higher means a stronger,
// steadier uptrend.
func (g *Generator) momentumScore(rets []float64) float64 {
	window := rets[len(rets)-g.cfg.MomentumWindow:]
	meanReturn := stat.Mean(window, nil)

	vol := g.annualizedVolatility(rets)
	if vol == 0 {
		return 0
	}
	return meanReturn / vol
}

func (g *Generator) annualizedVolatility(rets []float64) float64 {
	window := rets[len(rets)-g.cfg.VolatilityWindow:]
	return stat.StdDev(window, nil) * math.Sqrt(tradingDaysPerYear)
}

// reversionScore is the negated z-score of the current price against the
// trailing moving average: positive when price sits below its average
// (a reversion-buy setup), negative when stretched above it.
func (g *Generator) reversionScore(prices []float64) float64 {
	window := prices[len(prices)-g.cfg.ReversionWindow:]
	ma := stat.Mean(window, nil)
	sd := stat.StdDev(window, nil)
	if sd == 0 {
		return 0
	}
	current := prices[len(prices)-1]
	return -(current - ma) / sd
}

// combine blends the two scores, tilting toward momentum in persistent
// (trending) series and toward reversion in anti-persistent ones, using
// the Hurst exponent as the persistence estimate.
func combine(momentum, reversion, hurst float64) float64 {
	trendWeight := hurst
	if hurst <= 0.5 {
		trendWeight = 1 - hurst
	}
	momentumWeight := 0.5 * trendWeight
	reversionWeight := 0.5 * (1 - trendWeight)
	return momentumWeight*momentum + reversionWeight*reversion
}

// periodReturns computes simple period-over-period returns.
func periodReturns(prices []float64) []float64 {
	rets := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, (prices[i]-prices[i-1])/prices[i-1])
	}
	return rets
}

// hurstExponent estimates trend persistence from the scaling of lagged
// price differences: > 0.5 trending, < 0.5 mean-reverting.
func hurstExponent(prices []float64) float64 {
	maxLag := 20
	if len(prices)/2 < maxLag {
		maxLag = len(prices) / 2
	}
	if maxLag < 3 {
		return 0.5
	}

	logLags := make([]float64, 0, maxLag-2)
	logStds := make([]float64, 0, maxLag-2)
	for lag := 2; lag <= maxLag; lag++ {
		diffs := make([]float64, len(prices)-lag)
		for i := lag; i < len(prices); i++ {
			diffs[i-lag] = prices[i] - prices[i-lag]
		}
		sd := stat.StdDev(diffs, nil)
		if sd <= 0 {
			continue
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logStds = append(logStds, math.Log(sd))
	}
	if len(logLags) < 2 {
		return 0.5
	}

	_, slope := stat.LinearRegression(logLags, logStds, nil, false)
	return clamp01(slope / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
