// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrStaleData            = errors.New("price data is stale")
	ErrInsufficientHistory  = errors.New("insufficient price history")
	ErrAllocationInfeasible = errors.New("allocation infeasible")
	ErrRiskBudgetInvalid    = errors.New("invalid risk budget")
	ErrSymbolNotFound       = errors.New("symbol not found")
	ErrPositionNotFound     = errors.New("position not found")
	ErrIntentRejected       = errors.New("order intent rejected")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrCycleAborted         = errors.New("decision cycle aborted")
	ErrDatabaseError        = errors.New("database error")
)

// StaleDataError reports that the most recent point for a symbol is older
// than the freshness threshold. The affected symbol is skipped for the
// cycle; the cycle itself continues.
type StaleDataError struct {
	Symbol    string
	LastSeen  time.Time
	Threshold time.Duration
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("stale data for %s: last point at %s exceeds freshness threshold %s",
		e.Symbol, e.LastSeen.Format(time.RFC3339), e.Threshold)
}

func (e *StaleDataError) Unwrap() error {
	return ErrStaleData
}

// NewStaleDataError creates a new StaleDataError.
func NewStaleDataError(symbol string, lastSeen time.Time, threshold time.Duration) *StaleDataError {
	return &StaleDataError{Symbol: symbol, LastSeen: lastSeen, Threshold: threshold}
}

// InsufficientHistoryError reports that a symbol's series is shorter than
// the required lookback window. The symbol is excluded from the dynamic
// universe for the cycle; not fatal.
type InsufficientHistoryError struct {
	Symbol   string
	Have     int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s: have %d points, need %d", e.Symbol, e.Have, e.Required)
}

func (e *InsufficientHistoryError) Unwrap() error {
	return ErrInsufficientHistory
}

// NewInsufficientHistoryError creates a new InsufficientHistoryError.
func NewInsufficientHistoryError(symbol string, have, required int) *InsufficientHistoryError {
	return &InsufficientHistoryError{Symbol: symbol, Have: have, Required: required}
}

// AllocationInfeasibleError reports that the configured core holdings
/// alone exceed the whole portfolio. A configuration error: fatal for the
// cycle, surfaced to the operator, never retried automatically.
type AllocationInfeasibleError struct {
	CoreWeight float64
}

func (e *AllocationInfeasibleError) Error() string {
	return fmt.Sprintf("allocation infeasible: core holdings sum to %.4f, exceeding 1.0", e.CoreWeight)
}

func (e *AllocationInfeasibleError) Unwrap() error {
	return ErrAllocationInfeasible
}

// NewAllocationInfeasibleError creates a new AllocationInfeasibleError.
func NewAllocationInfeasibleError(coreWeight float64) *AllocationInfeasibleError {
	return &AllocationInfeasibleError{CoreWeight: coreWeight}
}

// RiskBudgetInvalidError reports a non-positive equity input. Fatal.
type RiskBudgetInvalidError struct {
	Equity float64
}

func (e *RiskBudgetInvalidError) Error() string {
	return fmt.Sprintf("risk budget invalid: total equity %.2f must be positive", e.Equity)
}

func (e *RiskBudgetInvalidError) Unwrap() error {
	return ErrRiskBudgetInvalid
}

// NewRiskBudgetInvalidError creates a new RiskBudgetInvalidError.
func NewRiskBudgetInvalidError(equity float64) *RiskBudgetInvalidError {
	return &RiskBudgetInvalidError{Equity: equity}
}

// SymbolError wraps a per-symbol failure with enough context to diagnose
// an exclusion without re-running the cycle.
type SymbolError struct {
	Symbol    string
	Stage     string
	Timestamp time.Time
	Err       error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("symbol %s excluded at %s: %v", e.Symbol, e.Stage, e.Err)
}

func (e *SymbolError) Unwrap() error {
	return e.Err
}

// NewSymbolError creates a new SymbolError.
func NewSymbolError(symbol, stage string, err error) *SymbolError {
	return &SymbolError{Symbol: symbol, Stage: stage, Timestamp: time.Now(), Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
