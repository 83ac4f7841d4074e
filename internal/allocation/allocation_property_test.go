package allocation

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"merval-trader/internal/config"
	"merval-trader/internal/errors"
	"merval-trader/internal/models"
	"merval-trader/internal/risk"
)

func testAllocConfig() config.AllocationConfig {
	return config.AllocationConfig{
		CoreBandMin:    0.70,
		CoreBandMax:    0.75,
		DynamicBandMin: 0.25,
		DynamicBandMax: 0.30,
		CoreHoldings: []config.CoreHolding{
			{Symbol: "YPF", Weight: 0.35},
			{Symbol: "BBVA", Weight: 0.25},
			{Symbol: "CRESY", Weight: 0.08},
			{Symbol: "PAM", Weight: 0.07},
		},
	}
}

func sizedGen() gopter.Gen {
	return gen.SliceOfN(6, gen.Float64Range(0.0, 0.15)).Map(func(weights []float64) []risk.SizedCandidate {
		symbols := []string{"GGAL", "BMA", "TEO", "CEPU", "LOMA", "IRS"}
		out := make([]risk.SizedCandidate, len(weights))
		for i, w := range weights {
			out[i] = risk.SizedCandidate{Symbol: symbols[i], Weight: w}
		}
		return out
	})
}

// Properties: total allocation never exceeds 1.0, core weights are never
// reduced, and the dynamic sleeve respects its band ceiling.
func TestProperty_AllocationInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(1)

	properties := gopter.NewProperties(parameters)

	properties.Property("weights sum to at most 1.0 with core untouched", prop.ForAll(
		func(candidates []risk.SizedCandidate) bool {
			a := NewAllocator(testAllocConfig())
			targets, err := a.Allocate(candidates, nil)
			if err != nil {
				return false
			}
			if TotalWeight(targets) > 1.0+1e-9 {
				return false
			}
			if !approx(WeightBySource(targets, models.SourceCore), 0.75) {
				return false
			}
			return WeightBySource(targets, models.SourceDynamic) <= 0.30+1e-9
		},
		sizedGen(),
	))

	properties.TestingRun(t)
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestAllocate_ScalesDynamicPreservingRank(t *testing.T) {
	cfg := testAllocConfig()
	// A single 0.40 core position leaves plenty of room; the dynamic
	// sleeve still caps at its band ceiling.
	cfg.CoreHoldings = []config.CoreHolding{{Symbol: "YPF", Weight: 0.40}}
	a := NewAllocator(cfg)

	targets, err := a.Allocate([]risk.SizedCandidate{
		{Symbol: "GGAL", Weight: 0.20},
		{Symbol: "BMA", Weight: 0.15},
		{Symbol: "TEO", Weight: 0.10},
	}, nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// 0.45 raw dynamic scaled into 0.30: each weight × 2/3.
	bySymbol := make(map[string]float64)
	for _, tgt := range targets {
		bySymbol[tgt.Symbol] = tgt.TargetWeight
	}
	if !approx(bySymbol["YPF"], 0.40) {
		t.Errorf("core YPF = %.4f, want 0.40 untouched", bySymbol["YPF"])
	}
	if !approx(bySymbol["GGAL"], 0.20*2.0/3.0) {
		t.Errorf("GGAL = %.4f, want %.4f", bySymbol["GGAL"], 0.20*2.0/3.0)
	}
	if bySymbol["GGAL"] <= bySymbol["BMA"] || bySymbol["BMA"] <= bySymbol["TEO"] {
		t.Error("scaling changed the dynamic ranking")
	}
}

func TestAllocate_SingleCandidateFillsRemainingRoom(t *testing.T) {
	cfg := testAllocConfig()
	// Core 0.75 leaves 0.25 of room; one strong candidate sized at a
	// raw 0.35 shrinks to exactly that room.
	cfg.CoreHoldings = []config.CoreHolding{
		{Symbol: "YPF", Weight: 0.40},
		{Symbol: "BBVA", Weight: 0.35},
	}
	a := NewAllocator(cfg)

	targets, err := a.Allocate([]risk.SizedCandidate{{Symbol: "GGAL", Weight: 0.35}}, nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	bySymbol := make(map[string]float64)
	for _, tgt := range targets {
		bySymbol[tgt.Symbol] = tgt.TargetWeight
	}
	if !approx(bySymbol["YPF"], 0.40) || !approx(bySymbol["BBVA"], 0.35) {
		t.Errorf("core = %v, want YPF 0.40 and BBVA 0.35 untouched", bySymbol)
	}
	if !approx(bySymbol["GGAL"], 0.25) {
		t.Errorf("GGAL = %.4f, want 0.25", bySymbol["GGAL"])
	}
	if !approx(TotalWeight(targets), 1.0) {
		t.Errorf("total = %.4f, want 1.00", TotalWeight(targets))
	}
}

func TestAllocate_DynamicShrinksToRemainingRoom(t *testing.T) {
	cfg := testAllocConfig()
	// Core at 0.75 leaves only 0.25 for the dynamic sleeve, below the
	// 0.30 band ceiling.
	a := NewAllocator(cfg)

	targets, err := a.Allocate([]risk.SizedCandidate{
		{Symbol: "GGAL", Weight: 0.20},
		{Symbol: "BMA", Weight: 0.20},
	}, nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := WeightBySource(targets, models.SourceDynamic); !approx(got, 0.25) {
		t.Errorf("dynamic sum = %.4f, want 0.25", got)
	}
	if got := TotalWeight(targets); got > 1.0+1e-9 {
		t.Errorf("total = %.4f, exceeds 1.0", got)
	}
}

func TestAllocate_InfeasibleCore(t *testing.T) {
	cfg := testAllocConfig()
	cfg.CoreHoldings = []config.CoreHolding{
		{Symbol: "YPF", Weight: 0.60},
		{Symbol: "BBVA", Weight: 0.50},
	}
	a := NewAllocator(cfg)

	_, err := a.Allocate(nil, nil)
	if !errors.Is(err, errors.ErrAllocationInfeasible) {
		t.Errorf("err = %v, want ErrAllocationInfeasible", err)
	}
}

func TestAllocate_ExcludedAndCoreSymbolsSkipped(t *testing.T) {
	a := NewAllocator(testAllocConfig())

	targets, err := a.Allocate([]risk.SizedCandidate{
		{Symbol: "GGAL", Weight: 0.08}, // stop exit this cycle
		{Symbol: "YPF", Weight: 0.08},  // already core
		{Symbol: "TEO", Weight: 0.08},
	}, map[string]bool{"GGAL": true})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	for _, tgt := range targets {
		if tgt.Symbol == "GGAL" {
			t.Error("excluded symbol received a target")
		}
		if tgt.Symbol == "YPF" && tgt.Source != models.SourceCore {
			t.Error("core symbol received a dynamic target")
		}
	}
	if got := WeightBySource(targets, models.SourceDynamic); !approx(got, 0.08) {
		t.Errorf("dynamic sum = %.4f, want only TEO's 0.08", got)
	}
}
