// Package engine orchestrates one full decision cycle: refresh prices,
// generate signals, size and check risk, allocate, plan orders, and hand
// the intents to the execution gateway.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"merval-trader/internal/allocation"
	"merval-trader/internal/analysis/signals"
	"merval-trader/internal/broker"
	"merval-trader/internal/config"
	"merval-trader/internal/errors"
	"merval-trader/internal/history"
	"merval-trader/internal/logging"
	"merval-trader/internal/metrics"
	"merval-trader/internal/models"
	"merval-trader/internal/orders"
	"merval-trader/internal/risk"
	"merval-trader/internal/store"
)

// CycleState names the controller's position within a cycle.
type CycleState string

const (
	StateIdle            CycleState = "IDLE"
	StatePricesRefreshed CycleState = "PRICES_REFRESHED"
	StateSignalsComputed CycleState = "SIGNALS_COMPUTED"
	StateRiskChecked     CycleState = "RISK_CHECKED"
	StateAllocated       CycleState = "ALLOCATED"
	StateOrdersPlanned   CycleState = "ORDERS_PLANNED"
	StateDispatched      CycleState = "DISPATCHED"
)

// Engine is the decision cycle controller. A cycle is single-threaded
// and run-to-completion; the only concurrency is the ingest buffer on
// the history store and the fill handler on the risk manager.
type Engine struct {
	cfg       *config.Config
	prices    *history.Store
	generator *signals.Generator
	riskMgr   *risk.Manager
	allocator *allocation.Allocator
	planner   *orders.Planner
	gateway   broker.ExecutionGateway
	dataStore store.DataStore
	tracker   *metrics.Tracker
	logger    zerolog.Logger

	mu         sync.Mutex
	state      CycleState
	cycleCount uint64
	lastEquity float64
}

// New wires an engine from its collaborators and registers the fill
// handler with the gateway. dataStore may be nil (no persistence).
func New(
	cfg *config.Config,
	prices *history.Store,
	generator *signals.Generator,
	riskMgr *risk.Manager,
	allocator *allocation.Allocator,
	planner *orders.Planner,
	gateway broker.ExecutionGateway,
	dataStore store.DataStore,
	tracker *metrics.Tracker,
	logger zerolog.Logger,
) *Engine {
	e := &Engine{
		cfg:       cfg,
		prices:    prices,
		generator: generator,
		riskMgr:   riskMgr,
		allocator: allocator,
		planner:   planner,
		gateway:   gateway,
		dataStore: dataStore,
		tracker:   tracker,
		logger:    logger,
		state:     StateIdle,
	}
	gateway.OnFill(e.handleFill)
	return e
}

// Ingest buffers a price point for the next cycle. Safe for concurrent
// use; ingested points are guaranteed visible in the next cycle's
// series.
func (e *Engine) Ingest(p models.PricePoint) {
	e.prices.Ingest(p)
}

// State returns the controller's current cycle state.
func (e *Engine) State() CycleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s CycleState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	Cycle      uint64
	Equity     float64
	Signals    []models.Signal
	Targets    []models.AllocationTarget
	StopExits  []models.OrderIntent
	Planned    []models.OrderIntent
	Excluded   []*errors.SymbolError
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunCycle executes one full decision pass. Per-symbol errors degrade
// gracefully (the symbol is excluded, the cycle continues); pipeline
// errors abort the cycle, discard partial results, and leave the engine
// Idle — except stop-loss exits already dispatched, which are never
// rolled back.
func (e *Engine) RunCycle(ctx context.Context) (result *CycleResult, err error) {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return nil, errors.Wrap(errors.ErrCycleAborted, "cycle already in progress")
	}
	e.cycleCount++
	cycle := e.cycleCount
	e.state = StatePricesRefreshed
	e.mu.Unlock()

	logger := logging.WithCycle(e.logger, cycle)
	now := time.Now()
	result = &CycleResult{Cycle: cycle, StartedAt: now}

	defer func() {
		e.setState(StateIdle)
		if err != nil {
			logger.Error().Err(err).Msg("Cycle aborted")
		}
	}()

	// Stage 1: refresh prices. Buffered ticks become visible here and
	// nowhere else, so every later stage sees one snapshot.
	drained := e.prices.Drain()
	prices, excluded := e.snapshotPrices(now)
	result.Excluded = excluded
	e.setState(StatePricesRefreshed)
	logger.Debug().Int("ticks", drained).Int("symbols", len(prices)).Msg("Prices refreshed")
	if err = stageGate(ctx); err != nil {
		return result, err
	}

	// Equity refresh happens between cycles; this is the boundary.
	equity := e.accountEquity(prices)
	if err = e.riskMgr.RefreshEquity(equity); err != nil {
		return result, err
	}
	result.Equity = equity

	// Stage 2: signals.
	scored := e.computeSignals(now, result)
	e.setState(StateSignalsComputed)
	if err = stageGate(ctx); err != nil {
		return result, err
	}

	// Stage 3: risk. Stop exits are dispatched immediately: a
	// risk-protective action must survive any downstream failure.
	stopExits := e.riskMgr.CheckStops(prices, now)
	if len(stopExits) > 0 {
		if submitErr := e.gateway.Submit(ctx, stopExits); submitErr != nil {
			logger.Error().Err(submitErr).Msg("Stop exit submission failed")
		}
	}
	result.StopExits = stopExits

	selected := e.generator.SelectDynamic(scored, e.cfg.Signals.TopK, e.cfg.Signals.MaxPerSector)
	sized := e.riskMgr.SizeCandidates(selected, e.cfg.Allocation.DynamicBandMax)
	e.setState(StateRiskChecked)
	if err = stageGate(ctx); err != nil {
		return result, err
	}

	// Stage 4: allocation.
	stopSet := make(map[string]bool, len(stopExits))
	for _, intent := range stopExits {
		stopSet[intent.Symbol] = true
	}
	targets, allocErr := e.allocator.Allocate(sized, stopSet)
	if allocErr != nil {
		return result, allocErr
	}
	result.Targets = targets
	e.setState(StateAllocated)
	if err = stageGate(ctx); err != nil {
		return result, err
	}

	// Stage 5: order planning.
	planned := e.planner.Plan(targets, e.riskMgr.Positions(), prices, equity, stopSet, now)
	result.Planned = planned
	e.setState(StateOrdersPlanned)
	if err = stageGate(ctx); err != nil {
		return result, err
	}

	// Stage 6: dispatch.
	if len(planned) > 0 {
		if err = e.gateway.Submit(ctx, planned); err != nil {
			return result, errors.Wrap(err, "dispatching intents")
		}
	}
	for _, intent := range append(stopExits, planned...) {
		logging.LogIntent(logger, intent.ID, intent.Symbol, string(intent.Side), intent.Reason, intent.Quantity)
	}
	e.setState(StateDispatched)

	e.trackEquity(now, equity)
	result.FinishedAt = time.Now()
	logger.Info().
		Float64("equity", equity).
		Int("stop_exits", len(stopExits)).
		Int("planned", len(planned)).
		Int("excluded", len(result.Excluded)).
		Msg("Cycle complete")
	return result, nil
}

// snapshotPrices collects the last fresh price for every symbol in the
// universe (core, candidates, and held positions). Stale symbols are
// excluded with context, not fatal.
func (e *Engine) snapshotPrices(now time.Time) (map[string]float64, []*errors.SymbolError) {
	universe := make(map[string]bool)
	for _, h := range e.cfg.Allocation.CoreHoldings {
		universe[h.Symbol] = true
	}
	for _, c := range e.cfg.Allocation.Candidates {
		universe[c.Symbol] = true
	}
	for _, pos := range e.riskMgr.Positions() {
		if pos.Quantity > 0 {
			universe[pos.Symbol] = true
		}
	}

	prices := make(map[string]float64, len(universe))
	var excluded []*errors.SymbolError
	for symbol := range universe {
		price, err := e.prices.LastPriceAt(symbol, now)
		if err != nil {
			symErr := errors.NewSymbolError(symbol, string(StatePricesRefreshed), err)
			excluded = append(excluded, symErr)
			logging.LogExclusion(e.logger, symbol, symErr.Stage, err)
			continue
		}
		prices[symbol] = price
	}
	return prices, excluded
}

// computeSignals scores every dynamic candidate. Symbols with short or
// stale series are excluded for this cycle only.
func (e *Engine) computeSignals(now time.Time, result *CycleResult) []signals.ScoredCandidate {
	scored := make([]signals.ScoredCandidate, 0, len(e.cfg.Allocation.Candidates))
	for _, c := range e.cfg.Allocation.Candidates {
		series, err := e.prices.SeriesAt(c.Symbol, now)
		if err == nil {
			var sig models.Signal
			sig, err = e.generator.Generate(c.Symbol, series, now)
			if err == nil {
				result.Signals = append(result.Signals, sig)
				scored = append(scored, signals.ScoredCandidate{Symbol: c.Symbol, Sector: c.Sector, Signal: sig})
				continue
			}
		}
		symErr := errors.NewSymbolError(c.Symbol, string(StateSignalsComputed), err)
		result.Excluded = append(result.Excluded, symErr)
		logging.LogExclusion(e.logger, c.Symbol, symErr.Stage, err)
	}
	return scored
}

// accountEquity is cash plus the market value of open positions.
func (e *Engine) accountEquity(prices map[string]float64) float64 {
	cash := 0.0
	if pg, ok := e.gateway.(*broker.PaperGateway); ok {
		cash = pg.Cash()
	}
	return cash + e.riskMgr.MarketValue(prices)
}

func (e *Engine) trackEquity(now time.Time, equity float64) {
	e.mu.Lock()
	last := e.lastEquity
	e.lastEquity = equity
	e.mu.Unlock()
	if last > 0 && e.tracker != nil {
		e.tracker.LogDailyReturn(now, (equity-last)/last)
	}
}

// handleFill applies an execution report to position state, persists the
// updated position, and records any completed trade. Runs outside the
// decision cycle; the position table's mutex is the only shared guard.
func (e *Engine) handleFill(report models.FillReport) {
	trade, err := e.riskMgr.ApplyFill(report)
	if err != nil {
		e.logger.Error().Err(err).Str("symbol", report.Symbol).Msg("Fill application failed")
		return
	}

	ctx := context.Background()
	if pos, ok := e.riskMgr.Position(report.Symbol); ok && e.dataStore != nil {
		if err := e.dataStore.SavePosition(ctx, pos); err != nil {
			e.logger.Error().Err(err).Str("symbol", report.Symbol).Msg("Position persistence failed")
		}
	}

	if trade != nil {
		if e.tracker != nil {
			e.tracker.LogTrade(*trade)
		}
		if e.dataStore != nil {
			if err := e.dataStore.LogTrade(ctx, *trade); err != nil {
				e.logger.Error().Err(err).Str("symbol", trade.Symbol).Msg("Trade persistence failed")
			}
		}
	}
}

// stageGate enforces that cancellation lands between stages, never
// mid-stage.
func stageGate(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCycleAborted, ctx.Err().Error())
	default:
		return nil
	}
}
