package cli

import (
	"context"

	"merval-trader/internal/allocation"
	"merval-trader/internal/analysis/signals"
	"merval-trader/internal/broker"
	"merval-trader/internal/engine"
	"merval-trader/internal/errors"
	"merval-trader/internal/history"
	"merval-trader/internal/metrics"
	"merval-trader/internal/orders"
	"merval-trader/internal/risk"
	"merval-trader/internal/store"
)

// runtime bundles the wired engine and the resources it owns.
type runtime struct {
	engine  *engine.Engine
	history *history.Store
	riskMgr *risk.Manager
	gateway *broker.PaperGateway
	tracker *metrics.Tracker
	store   store.DataStore
}

func (r *runtime) close() {
	if r.store != nil {
		r.store.Close()
	}
}

// buildRuntime wires the full decision pipeline from configuration:
// history store, signal generator, risk manager seeded from persisted
// positions, allocator, planner, and the paper execution gateway.
func (a *App) buildRuntime(ctx context.Context, withStore bool) (*runtime, error) {
	cfg := a.Config

	prices := history.NewStore(cfg.Data.HistorySize, cfg.Data.FreshnessThreshold)

	generator := signals.NewGenerator(signals.Config{
		MomentumWindow:    cfg.Signals.MomentumWindow,
		ReversionWindow:   cfg.Signals.ReversionWindow,
		VolatilityWindow:  cfg.Signals.VolatilityWindow,
		MomentumThreshold: cfg.Signals.MomentumThreshold,
		ZScoreEntry:       cfg.Signals.ZScoreEntry,
	})

	levels := make(map[string]risk.ExitLevels, len(cfg.Allocation.CoreHoldings))
	for _, h := range cfg.Allocation.CoreHoldings {
		levels[h.Symbol] = risk.ExitLevels{StopLoss: h.StopLoss, TakeProfit: h.TakeProfit}
	}
	riskMgr, err := risk.NewManager(cfg.Risk, levels, a.Logger)
	if err != nil {
		return nil, err
	}

	var dataStore store.DataStore
	if withStore {
		sqlStore, err := store.NewSQLiteStore(cfg.Trading.DatabasePath)
		if err != nil {
			return nil, errors.Wrap(err, "opening position store")
		}
		positions, err := sqlStore.LoadPositions(ctx)
		if err != nil {
			sqlStore.Close()
			return nil, errors.Wrap(err, "restoring positions")
		}
		riskMgr.LoadPositions(positions)
		dataStore = sqlStore
	}

	gateway := broker.NewPaperGateway(cfg.Risk.InitialEquity, cfg.Trading.SlippagePercent, prices.LastPrice, a.Logger)

	tracker := metrics.NewTracker()
	eng := engine.New(
		cfg,
		prices,
		generator,
		riskMgr,
		allocation.NewAllocator(cfg.Allocation),
		orders.NewPlanner(cfg.Trading.MinTradeFraction, cfg.Trading.LotSize),
		gateway,
		dataStore,
		tracker,
		a.Logger,
	)

	return &runtime{
		engine:  eng,
		history: prices,
		riskMgr: riskMgr,
		gateway: gateway,
		tracker: tracker,
		store:   dataStore,
	}, nil
}
