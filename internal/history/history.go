// Package history provides the in-memory rolling price history store.
package history

import (
	"sync"
	"time"

	"merval-trader/internal/errors"
	"merval-trader/internal/models"
)

// Store keeps a bounded, timestamp-ordered window of price points per
// symbol. All window writes happen on the decision-cycle goroutine;
// asynchronously delivered ticks go through the ingest buffer and are
// drained only at cycle start, so every stage of a cycle observes one
// consistent snapshot.
type Store struct {
	size      int
	freshness time.Duration

	series map[string][]models.PricePoint

	mu     sync.Mutex
	buffer []models.PricePoint
}

// NewStore creates a store keeping at most size points per symbol.
// Points older than freshness at query time make Series fail with a
// StaleDataError.
func NewStore(size int, freshness time.Duration) *Store {
	return &Store{
		size:      size,
		freshness: freshness,
		series:    make(map[string][]models.PricePoint),
	}
}

// Ingest buffers an asynchronously delivered price point. Safe for
// concurrent use; the point becomes visible to Series after the next
// Drain.
func (s *Store) Ingest(p models.PricePoint) {
	s.mu.Lock()
	s.buffer = append(s.buffer, p)
	s.mu.Unlock()
}

// Drain moves all buffered points into the per-symbol windows. Called
// once at the start of each cycle, on the cycle goroutine.
func (s *Store) Drain() int {
	s.mu.Lock()
	buffered := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	for _, p := range buffered {
		s.Record(p)
	}
	return len(buffered)
}

// Record appends a point to the symbol's window, evicting the oldest
// points once the window exceeds its configured size. Out-of-order
// points (older than the newest recorded) are dropped.
func (s *Store) Record(p models.PricePoint) {
	window := s.series[p.Symbol]
	if n := len(window); n > 0 && p.Timestamp.Before(window[n-1].Timestamp) {
		return
	}
	window = append(window, p)
	if len(window) > s.size {
		window = window[len(window)-s.size:]
	}
	s.series[p.Symbol] = window
}

// Series returns a copy of the current window for the symbol. It fails
// with a StaleDataError when the newest point is older than the
// freshness threshold, and ErrSymbolNotFound when nothing has been
// recorded for the symbol.
func (s *Store) Series(symbol string) ([]models.PricePoint, error) {
	return s.SeriesAt(symbol, time.Now())
}

// SeriesAt is Series evaluated against an explicit clock, for
// deterministic freshness checks.
func (s *Store) SeriesAt(symbol string, now time.Time) ([]models.PricePoint, error) {
	window, ok := s.series[symbol]
	if !ok || len(window) == 0 {
		return nil, errors.Wrapf(errors.ErrSymbolNotFound, "no history for %s", symbol)
	}

	last := window[len(window)-1].Timestamp
	if s.freshness > 0 && now.Sub(last) > s.freshness {
		return nil, errors.NewStaleDataError(symbol, last, s.freshness)
	}

	out := make([]models.PricePoint, len(window))
	copy(out, window)
	return out, nil
}

// LastPrice returns the most recent price for the symbol, applying the
// same freshness check as Series.
func (s *Store) LastPrice(symbol string) (float64, error) {
	return s.LastPriceAt(symbol, time.Now())
}

// LastPriceAt is LastPrice evaluated against an explicit clock.
func (s *Store) LastPriceAt(symbol string, now time.Time) (float64, error) {
	window, err := s.SeriesAt(symbol, now)
	if err != nil {
		return 0, err
	}
	return window[len(window)-1].Price, nil
}

// Len returns the number of points currently held for the symbol.
func (s *Store) Len(symbol string) int {
	return len(s.series[symbol])
}

// Symbols returns all symbols with recorded history.
func (s *Store) Symbols() []string {
	symbols := make([]string, 0, len(s.series))
	for sym := range s.series {
		symbols = append(symbols, sym)
	}
	return symbols
}

// Prices extracts the price values from a series.
func Prices(points []models.PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}
