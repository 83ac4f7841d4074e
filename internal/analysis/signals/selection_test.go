package signals

import (
	"testing"

	"merval-trader/internal/models"
)

func scored(symbol, sector string, momentum, reversion, combined float64) ScoredCandidate {
	return ScoredCandidate{
		Symbol: symbol,
		Sector: sector,
		Signal: models.Signal{
			Symbol:         symbol,
			MomentumScore:  momentum,
			ReversionScore: reversion,
			Combined:       combined,
		},
	}
}

func TestSelectDynamic_RanksByCombinedScore(t *testing.T) {
	g := NewGenerator(testConfig())
	candidates := []ScoredCandidate{
		scored("GGAL", "banking", 0.10, 0, 0.10),
		scored("TEO", "technology", 0.30, 0, 0.30),
		scored("CEPU", "energy", 0.20, 0, 0.20),
		scored("LOMA", "industrial", 0.05, 0, 0.05),
	}

	selected := g.SelectDynamic(candidates, 3, 1)
	if len(selected) != 3 {
		t.Fatalf("selected %d candidates, want 3", len(selected))
	}
	want := []string{"TEO", "CEPU", "GGAL"}
	for i, sym := range want {
		if selected[i].Symbol != sym {
			t.Errorf("selected[%d] = %s, want %s", i, selected[i].Symbol, sym)
		}
	}
}

func TestSelectDynamic_SectorCap(t *testing.T) {
	g := NewGenerator(testConfig())
	candidates := []ScoredCandidate{
		scored("GGAL", "banking", 0.30, 0, 0.30),
		scored("BMA", "banking", 0.25, 0, 0.25),
		scored("SUPV", "banking", 0.20, 0, 0.20),
		scored("TEO", "technology", 0.10, 0, 0.10),
		scored("CEPU", "energy", 0.05, 0, 0.05),
	}

	selected := g.SelectDynamic(candidates, 3, 1)
	counts := make(map[string]int)
	for _, c := range selected {
		counts[c.Sector]++
	}
	if counts["banking"] != 1 {
		t.Errorf("banking got %d slots, want 1", counts["banking"])
	}
	if len(selected) != 3 {
		t.Errorf("selected %d candidates, want 3", len(selected))
	}
}

func TestSelectDynamic_SingleCandidateSectorAlwaysAdmissible(t *testing.T) {
	g := NewGenerator(testConfig())
	// Both from the only represented sectors; maxPerSector never blocks
	// a sector with a single candidate.
	candidates := []ScoredCandidate{
		scored("TEO", "technology", 0.30, 0, 0.30),
		scored("GLOB", "technology", 0.25, 0, 0.25),
		scored("AGRO", "agriculture", 0.20, 0, 0.20),
	}

	selected := g.SelectDynamic(candidates, 3, 1)
	if len(selected) != 2 {
		t.Fatalf("selected %d candidates, want 2 (TEO and AGRO)", len(selected))
	}
	if selected[0].Symbol != "TEO" || selected[1].Symbol != "AGRO" {
		t.Errorf("selected %s, %s; want TEO, AGRO", selected[0].Symbol, selected[1].Symbol)
	}
}

func TestSelectDynamic_QualificationThresholds(t *testing.T) {
	g := NewGenerator(testConfig())
	candidates := []ScoredCandidate{
		// Below both thresholds: never selected.
		scored("EDN", "energy", 0.01, 0.4, 0.01),
		// Qualifies on reversion despite weak momentum.
		scored("IRS", "real_estate", 0.0, -1.8, 0.05),
	}

	selected := g.SelectDynamic(candidates, 3, 1)
	if len(selected) != 1 || selected[0].Symbol != "IRS" {
		t.Fatalf("selected %v, want only IRS", selected)
	}
}
