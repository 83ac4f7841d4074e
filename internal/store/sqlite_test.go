package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"merval-trader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trader.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSavePosition_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pos := models.Position{
		Symbol:            "YPF",
		Quantity:          500,
		AverageEntryPrice: 70.25,
		HighWaterMark:     74.10,
		OpenedAt:          time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
		State:             models.PositionOpen,
	}
	if err := s.SavePosition(ctx, pos); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}

	loaded, err := s.LoadPositions(ctx)
	if err != nil {
		t.Fatalf("LoadPositions: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d positions, want 1", len(loaded))
	}
	got := loaded[0]
	if got.Symbol != pos.Symbol || got.Quantity != pos.Quantity ||
		got.AverageEntryPrice != pos.AverageEntryPrice ||
		got.HighWaterMark != pos.HighWaterMark || got.State != pos.State {
		t.Errorf("loaded = %+v, want %+v", got, pos)
	}
	if !got.OpenedAt.Equal(pos.OpenedAt) {
		t.Errorf("OpenedAt = %v, want %v", got.OpenedAt, pos.OpenedAt)
	}
}

func TestSavePosition_UpsertAndFlatDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pos := models.Position{Symbol: "GGAL", Quantity: 100, AverageEntryPrice: 25, HighWaterMark: 25, State: models.PositionOpen}
	if err := s.SavePosition(ctx, pos); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}

	pos.Quantity = 150
	pos.State = models.PositionPendingExit
	if err := s.SavePosition(ctx, pos); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	loaded, _ := s.LoadPositions(ctx)
	if len(loaded) != 1 || loaded[0].Quantity != 150 || loaded[0].State != models.PositionPendingExit {
		t.Fatalf("after upsert: %+v", loaded)
	}

	pos.Quantity = 0
	pos.State = models.PositionFlat
	if err := s.SavePosition(ctx, pos); err != nil {
		t.Fatalf("flat save: %v", err)
	}
	loaded, _ = s.LoadPositions(ctx)
	if len(loaded) != 0 {
		t.Errorf("flat position still persisted: %+v", loaded)
	}
}

func TestGetTrades_FilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		{ID: "t1", Symbol: "GGAL", Quantity: 100, EntryPrice: 25, ExitPrice: 27, PnL: 200, ExitReason: "take_profit", ClosedAt: base},
		{ID: "t2", Symbol: "TEO", Quantity: 40, EntryPrice: 18, ExitPrice: 16.5, PnL: -60, ExitReason: "stop_loss", ClosedAt: base.Add(time.Hour)},
		{ID: "t3", Symbol: "GGAL", Quantity: 80, EntryPrice: 26, ExitPrice: 28, PnL: 160, ExitReason: "rebalance", ClosedAt: base.Add(2 * time.Hour)},
	}
	for _, tr := range trades {
		if err := s.LogTrade(ctx, tr); err != nil {
			t.Fatalf("LogTrade(%s): %v", tr.ID, err)
		}
	}

	all, err := s.GetTrades(ctx, TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(all) != 3 || all[0].ID != "t3" {
		t.Errorf("all trades = %+v, want 3 newest first", all)
	}

	ggal, err := s.GetTrades(ctx, TradeFilter{Symbol: "GGAL"})
	if err != nil {
		t.Fatalf("GetTrades symbol filter: %v", err)
	}
	if len(ggal) != 2 {
		t.Errorf("GGAL trades = %d, want 2", len(ggal))
	}

	limited, err := s.GetTrades(ctx, TradeFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetTrades limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "t3" {
		t.Errorf("limited = %+v, want only t3", limited)
	}

	windowed, err := s.GetTrades(ctx, TradeFilter{StartDate: base.Add(30 * time.Minute), EndDate: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("GetTrades window: %v", err)
	}
	if len(windowed) != 1 || windowed[0].ID != "t2" {
		t.Errorf("windowed = %+v, want only t2", windowed)
	}
}

func TestLogTrade_PersistsHoldDuration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.LogTrade(ctx, models.Trade{
		ID: "t1", Symbol: "BMA", Quantity: 10, EntryPrice: 80, ExitPrice: 85,
		PnL: 50, HoldDuration: 36 * time.Hour, ClosedAt: time.Now(),
	}); err != nil {
		t.Fatalf("LogTrade: %v", err)
	}
	got, _ := s.GetTrades(ctx, TradeFilter{Symbol: "BMA"})
	if len(got) != 1 || got[0].HoldDuration != 36*time.Hour {
		t.Errorf("trades = %+v, want hold duration preserved", got)
	}
}
