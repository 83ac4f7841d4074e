package signals

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"merval-trader/internal/models"
)

// Property: signal generation is a pure function of the series. The
// same price series always produces the same scores, and the scores are
// finite with the Hurst estimate inside [0, 1].

func testConfig() Config {
	return Config{
		MomentumWindow:    20,
		ReversionWindow:   5,
		VolatilityWindow:  10,
		MomentumThreshold: 0.02,
		ZScoreEntry:       1.5,
	}
}

// priceSeriesGen generates a positive price series long enough for a
// full signal.
func priceSeriesGen(n int) gopter.Gen {
	return gen.SliceOfN(n, gen.Float64Range(10.0, 500.0))
}

func seriesFromPrices(symbol string, prices []float64) []models.PricePoint {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{
			Symbol:    symbol,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Price:     p,
		}
	}
	return points
}

func TestProperty_GenerateDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(1)

	properties := gopter.NewProperties(parameters)

	properties.Property("same series yields the same signal", prop.ForAll(
		func(prices []float64) bool {
			g := NewGenerator(testConfig())
			now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
			points := seriesFromPrices("GGAL", prices)

			first, err1 := g.Generate("GGAL", points, now)
			second, err2 := g.Generate("GGAL", points, now)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return first == second
		},
		priceSeriesGen(40),
	))

	properties.Property("scores are finite and hurst is within [0, 1]", prop.ForAll(
		func(prices []float64) bool {
			g := NewGenerator(testConfig())
			sig, err := g.Generate("BMA", seriesFromPrices("BMA", prices), time.Now())
			if err != nil {
				return false
			}
			for _, v := range []float64{sig.MomentumScore, sig.ReversionScore, sig.Combined, sig.Volatility} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return false
				}
			}
			return sig.Hurst >= 0 && sig.Hurst <= 1
		},
		priceSeriesGen(60),
	))

	properties.TestingRun(t)
}

func TestGenerate_InsufficientHistory(t *testing.T) {
	g := NewGenerator(testConfig())
	points := seriesFromPrices("SUPV", []float64{100, 101, 102, 103, 104})

	_, err := g.Generate("SUPV", points, time.Now())
	if err == nil {
		t.Fatal("expected error for 5 points with a 20-period window")
	}
}

func TestGenerate_RisingPricesPositiveMomentum(t *testing.T) {
	g := NewGenerator(testConfig())

	prices := make([]float64, 40)
	for i := range prices {
		// Steady uptrend with mild noise so volatility is nonzero.
		prices[i] = 100*math.Pow(1.01, float64(i)) + 0.5*math.Sin(float64(i))
	}
	sig, err := g.Generate("YPF", seriesFromPrices("YPF", prices), time.Now())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sig.MomentumScore <= 0 {
		t.Errorf("steady uptrend should score positive momentum, got %.4f", sig.MomentumScore)
	}
	// Price is stretched above its trailing average: a reversion short
	// setup, scored negative.
	if sig.ReversionScore >= 0 {
		t.Errorf("price above trailing average should score negative reversion, got %.4f", sig.ReversionScore)
	}
}

func TestGenerate_PriceBelowAverageScoresPositiveReversion(t *testing.T) {
	g := NewGenerator(testConfig())

	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100
	}
	// Flat series with a final dip.
	prices[37], prices[38], prices[39] = 98, 96, 92

	sig, err := g.Generate("CEPU", seriesFromPrices("CEPU", prices), time.Now())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sig.ReversionScore <= 0 {
		t.Errorf("dip below trailing average should score positive reversion, got %.4f", sig.ReversionScore)
	}
}

func TestMinPoints(t *testing.T) {
	g := NewGenerator(testConfig())
	if got := g.MinPoints(); got != 21 {
		t.Errorf("MinPoints = %d, want 21 (largest window + 1)", got)
	}
}
