package risk

import (
	"merval-trader/internal/analysis/signals"
)

// SizedCandidate is a dynamic candidate with its risk-constrained target
// weight.
type SizedCandidate struct {
	Symbol string
	Sector string
	Score  float64
	Weight float64
}

// SizeCandidates converts scored candidates into target weights as
// fractions of total equity. Each raw weight is the dynamic slot weight
// scaled by signal strength (capped at the score multiplier), then
// capped at the budget's max position weight. If the capped weights sum
// past the dynamic band ceiling they are scaled down uniformly, which
// preserves relative ranking. Sizing is monotonic: a higher score never
// produces a smaller weight.
func (m *Manager) SizeCandidates(candidates []signals.ScoredCandidate, dynamicCeiling float64) []SizedCandidate {
	sized := make([]SizedCandidate, 0, len(candidates))
	var total float64
	for _, c := range candidates {
		w := m.rawWeight(c.Signal.Combined)
		if w <= 0 {
			continue
		}
		sized = append(sized, SizedCandidate{
			Symbol: c.Symbol,
			Sector: c.Sector,
			Score:  c.Signal.Combined,
			Weight: w,
		})
		total += w
	}

	if total > dynamicCeiling && total > 0 {
		scale := dynamicCeiling / total
		for i := range sized {
			sized[i].Weight *= scale
		}
	}
	return sized
}

// rawWeight is the pre-scaling weight for a single candidate.
func (m *Manager) rawWeight(score float64) float64 {
	strength := score
	if strength < 0 {
		strength = -strength
	}
	if strength > m.cfg.MaxScoreMultiplier {
		strength = m.cfg.MaxScoreMultiplier
	}
	w := m.cfg.DynamicSlotWeight * strength
	if w > m.budget.MaxPositionWeight {
		w = m.budget.MaxPositionWeight
	}
	return w
}
