package signals

import (
	"sort"

	"merval-trader/internal/models"
)

// ScoredCandidate pairs a dynamic-universe symbol with its signal.
type ScoredCandidate struct {
	Symbol string
	Sector string
	Signal models.Signal
}

// SelectDynamic ranks the scored candidates and returns at most topK of
// them for dynamic inclusion. A candidate qualifies when its momentum
// score clears the momentum threshold or its reversion score clears the
// z-score entry threshold in absolute value. Ranking is by combined
// score descending, with at most maxPerSector symbols per sector so the
// dynamic sleeve stays diversified (a sector with a single candidate is
// always admissible).
func (g *Generator) SelectDynamic(candidates []ScoredCandidate, topK, maxPerSector int) []ScoredCandidate {
	qualified := make([]ScoredCandidate, 0, len(candidates))
	sectorTotals := make(map[string]int)
	for _, c := range candidates {
		sectorTotals[c.Sector]++
		if g.qualifies(c.Signal) {
			qualified = append(qualified, c)
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Signal.Combined > qualified[j].Signal.Combined
	})

	selected := make([]ScoredCandidate, 0, topK)
	sectorCounts := make(map[string]int)
	for _, c := range qualified {
		if len(selected) >= topK {
			break
		}
		if maxPerSector > 0 && sectorCounts[c.Sector] >= maxPerSector && sectorTotals[c.Sector] > 1 {
			continue
		}
		selected = append(selected, c)
		sectorCounts[c.Sector]++
	}
	return selected
}

func (g *Generator) qualifies(sig models.Signal) bool {
	if sig.MomentumScore > g.cfg.MomentumThreshold {
		return true
	}
	abs := sig.ReversionScore
	if abs < 0 {
		abs = -abs
	}
	return abs >= g.cfg.ZScoreEntry
}
