// Package allocation merges fixed core holdings with signal-driven
// dynamic weights into a single target-weight vector.
package allocation

import (
	"sort"

	"merval-trader/internal/config"
	"merval-trader/internal/errors"
	"merval-trader/internal/models"
	"merval-trader/internal/risk"
)

// Allocator produces the per-cycle allocation targets. Core weights are
// a floor and are never altered by signals; only the dynamic sleeve is
// scaled.
type Allocator struct {
	core           []config.CoreHolding
	dynamicCeiling float64
}

// NewAllocator creates an allocator from the configured core holdings
// and the dynamic band ceiling.
func NewAllocator(cfg config.AllocationConfig) *Allocator {
	return &Allocator{
		core:           cfg.CoreHoldings,
		dynamicCeiling: cfg.DynamicBandMax,
	}
}

// Allocate merges core targets with the sized dynamic candidates.
// Dynamic weights are scaled down uniformly, never dropped individually,
// first to the dynamic band ceiling and then further so the grand total
// stays at or below 1.0. Core is never reduced; if core alone exceeds
// 1.0 the configuration is infeasible and the cycle must abort.
// Symbols in excluded (stop-loss exits this cycle) receive no dynamic
// target.
func (a *Allocator) Allocate(candidates []risk.SizedCandidate, excluded map[string]bool) ([]models.AllocationTarget, error) {
	var coreSum float64
	targets := make([]models.AllocationTarget, 0, len(a.core)+len(candidates))
	for _, h := range a.core {
		coreSum += h.Weight
		targets = append(targets, models.AllocationTarget{
			Symbol:       h.Symbol,
			TargetWeight: h.Weight,
			Source:       models.SourceCore,
		})
	}
	if coreSum > 1.0 {
		return nil, errors.NewAllocationInfeasibleError(coreSum)
	}

	coreSymbols := make(map[string]bool, len(a.core))
	for _, h := range a.core {
		coreSymbols[h.Symbol] = true
	}

	var dynamicSum float64
	dynamic := make([]models.AllocationTarget, 0, len(candidates))
	for _, c := range candidates {
		if excluded[c.Symbol] || coreSymbols[c.Symbol] || c.Weight <= 0 {
			continue
		}
		dynamic = append(dynamic, models.AllocationTarget{
			Symbol:       c.Symbol,
			TargetWeight: c.Weight,
			Source:       models.SourceDynamic,
		})
		dynamicSum += c.Weight
	}

	// Scale to the dynamic band ceiling, preserving relative ranking.
	ceiling := a.dynamicCeiling
	if room := 1.0 - coreSum; room < ceiling {
		ceiling = room
	}
	if dynamicSum > ceiling && dynamicSum > 0 {
		scale := ceiling / dynamicSum
		for i := range dynamic {
			dynamic[i].TargetWeight *= scale
		}
	}

	targets = append(targets, dynamic...)
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].TargetWeight > targets[j].TargetWeight
	})
	return targets, nil
}

// TotalWeight sums the target weights.
func TotalWeight(targets []models.AllocationTarget) float64 {
	var sum float64
	for _, t := range targets {
		sum += t.TargetWeight
	}
	return sum
}

// WeightBySource sums the target weights for one source.
func WeightBySource(targets []models.AllocationTarget, source models.AllocationSource) float64 {
	var sum float64
	for _, t := range targets {
		if t.Source == source {
			sum += t.TargetWeight
		}
	}
	return sum
}
