package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"merval-trader/internal/allocation"
	"merval-trader/internal/analysis/signals"
	"merval-trader/internal/broker"
	"merval-trader/internal/config"
	"merval-trader/internal/engine"
	"merval-trader/internal/history"
	"merval-trader/internal/metrics"
	"merval-trader/internal/orders"
	"merval-trader/internal/risk"
)

func testEngine(t *testing.T) (*engine.Engine, *history.Store) {
	t.Helper()
	cfg := config.Default()
	prices := history.NewStore(cfg.Data.HistorySize, 0)
	riskMgr, err := risk.NewManager(cfg.Risk, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	gateway := broker.NewPaperGateway(cfg.Risk.InitialEquity, 0, prices.LastPrice, zerolog.Nop())
	eng := engine.New(
		cfg, prices,
		signals.NewGenerator(signals.Config{MomentumWindow: 5, ReversionWindow: 3, VolatilityWindow: 4}),
		riskMgr,
		allocation.NewAllocator(cfg.Allocation),
		orders.NewPlanner(cfg.Trading.MinTradeFraction, cfg.Trading.LotSize),
		gateway, nil, metrics.NewTracker(), zerolog.Nop(),
	)
	return eng, prices
}

func TestIngestCSV(t *testing.T) {
	eng, prices := testEngine(t)

	path := filepath.Join(t.TempDir(), "prices.csv")
	csv := "symbol,timestamp,price,volume\n" +
		"YPF," + time.Now().Add(-time.Minute).Format(time.RFC3339) + ",70.50,12000\n" +
		"YPF," + time.Now().Format(time.RFC3339) + ",70.80\n" +
		"GGAL," + time.Now().Format(time.RFC3339) + ",25.10,8000\n"
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := ingestCSV(eng, path)
	if err != nil {
		t.Fatalf("ingestCSV: %v", err)
	}
	if n != 3 {
		t.Errorf("ingested %d points, want 3", n)
	}

	// Points sit in the ingest buffer until the store drains.
	if got := prices.Len("YPF"); got != 0 {
		t.Errorf("Len(YPF) = %d before drain, want 0", got)
	}
	if drained := prices.Drain(); drained != 3 {
		t.Errorf("Drain = %d, want 3", drained)
	}
	price, err := prices.LastPrice("YPF")
	if err != nil {
		t.Fatalf("LastPrice: %v", err)
	}
	if price != 70.80 {
		t.Errorf("last YPF price = %.2f, want 70.80", price)
	}
}

func TestIngestCSV_BadTimestamp(t *testing.T) {
	eng, _ := testEngine(t)

	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte("YPF,not-a-time,70.50\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ingestCSV(eng, path); err == nil {
		t.Error("expected an error for a malformed timestamp")
	}
}

func TestIngestCSV_MissingFile(t *testing.T) {
	eng, _ := testEngine(t)
	if _, err := ingestCSV(eng, "/nonexistent/prices.csv"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
