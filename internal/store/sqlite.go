// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"merval-trader/internal/errors"
	"merval-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing schema")
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Open positions carried across restarts
	CREATE TABLE IF NOT EXISTS positions (
		symbol TEXT PRIMARY KEY,
		quantity INTEGER NOT NULL,
		average_entry_price REAL NOT NULL,
		high_water_mark REAL NOT NULL,
		opened_at DATETIME,
		state TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Completed round trips
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		pnl REAL NOT NULL,
		fees REAL NOT NULL,
		exit_reason TEXT,
		opened_at DATETIME,
		closed_at DATETIME,
		hold_duration INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePosition upserts a position row. Flat positions are removed rather
// than stored.
func (s *SQLiteStore) SavePosition(ctx context.Context, pos models.Position) error {
	if pos.State == models.PositionFlat || pos.Quantity == 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE symbol = ?`, pos.Symbol)
		return errors.Wrap(err, "deleting flat position")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (symbol, quantity, average_entry_price, high_water_mark, opened_at, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol) DO UPDATE SET
			quantity = excluded.quantity,
			average_entry_price = excluded.average_entry_price,
			high_water_mark = excluded.high_water_mark,
			opened_at = excluded.opened_at,
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP`,
		pos.Symbol, pos.Quantity, pos.AverageEntryPrice, pos.HighWaterMark, pos.OpenedAt, string(pos.State))
	return errors.Wrap(err, "saving position")
}

// LoadPositions returns all persisted positions.
func (s *SQLiteStore) LoadPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, quantity, average_entry_price, high_water_mark, opened_at, state
		FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, errors.Wrap(err, "loading positions")
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var pos models.Position
		var state string
		var openedAt sql.NullTime
		if err := rows.Scan(&pos.Symbol, &pos.Quantity, &pos.AverageEntryPrice, &pos.HighWaterMark, &openedAt, &state); err != nil {
			return nil, errors.Wrap(err, "scanning position")
		}
		if openedAt.Valid {
			pos.OpenedAt = openedAt.Time
		}
		pos.State = models.PositionState(state)
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// LogTrade appends a completed trade.
func (s *SQLiteStore) LogTrade(ctx context.Context, trade models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, symbol, quantity, entry_price, exit_price, pnl, fees, exit_reason, opened_at, closed_at, hold_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.Symbol, trade.Quantity, trade.EntryPrice, trade.ExitPrice,
		trade.PnL, trade.Fees, trade.ExitReason, trade.OpenedAt, trade.ClosedAt, int64(trade.HoldDuration))
	return errors.Wrap(err, "logging trade")
}

// GetTrades returns trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT id, symbol, quantity, entry_price, exit_price, pnl, fees, exit_reason, opened_at, closed_at, hold_duration
		FROM trades WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.StartDate.IsZero() {
		query += " AND closed_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND closed_at <= ?"
		args = append(args, filter.EndDate)
	}
	query += " ORDER BY closed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying trades")
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var opened, closed sql.NullTime
		var hold int64
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Quantity, &t.EntryPrice, &t.ExitPrice,
			&t.PnL, &t.Fees, &t.ExitReason, &opened, &closed, &hold); err != nil {
			return nil, errors.Wrap(err, "scanning trade")
		}
		if opened.Valid {
			t.OpenedAt = opened.Time
		}
		if closed.Valid {
			t.ClosedAt = closed.Time
		}
		t.HoldDuration = time.Duration(hold)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
