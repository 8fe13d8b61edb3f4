package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quantlab/internal/domain"
	"quantlab/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.BarRepository and ports.SignalRepository interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/quantlab.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, but Go driver benefits from limiting connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS bars (
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		bar_time TIMESTAMP NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		adj_close REAL NOT NULL DEFAULT 0,
		volume REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, interval, bar_time)
	);

	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		signal_time TIMESTAMP NOT NULL,
		action TEXT NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		price REAL NOT NULL DEFAULT 0,
		readings TEXT NOT NULL DEFAULT '{}',
		reasons TEXT NOT NULL DEFAULT '[]'
	);
	-- Add indexes for common lookups
	CREATE INDEX IF NOT EXISTS idx_bars_symbol_interval_time ON bars (symbol, interval, bar_time);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol_time ON signals (symbol, signal_time);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- BarRepository Implementation ---

// SaveBars upserts a batch of bars inside a single transaction.
func (r *Repository) SaveBars(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	const query = `
	INSERT OR REPLACE INTO bars (symbol, interval, bar_time, open, high, low, close, adj_close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bars transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare bars insert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.ExecContext(ctx,
			bar.Symbol, string(bar.Interval), bar.Time.UTC(),
			bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose, bar.Volume); err != nil {
			return fmt.Errorf("failed to insert bar %s@%s: %w", bar.Symbol, bar.Time.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bars transaction: %w", err)
	}
	r.logger.Debug(ctx, "Bars saved", map[string]interface{}{"count": len(bars), "symbol": bars[0].Symbol})
	return nil
}

// FindBars retrieves bars for a symbol and interval within [from, to], ordered by time ascending.
func (r *Repository) FindBars(ctx context.Context, symbol string, interval domain.Interval, from, to time.Time) ([]domain.Bar, error) {
	const query = `
	SELECT symbol, interval, bar_time, open, high, low, close, adj_close, volume
	FROM bars
	WHERE symbol = ? AND interval = ? AND bar_time >= ? AND bar_time <= ?
	ORDER BY bar_time ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol, string(interval), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	bars := make([]domain.Bar, 0)
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar during FindBars: %w", err)
		}
		bars = append(bars, bar)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bar rows: %w", err)
	}
	return bars, nil
}

// LatestBarTime returns the timestamp of the most recent stored bar.
func (r *Repository) LatestBarTime(ctx context.Context, symbol string, interval domain.Interval) (time.Time, error) {
	const query = `SELECT MAX(bar_time) FROM bars WHERE symbol = ? AND interval = ?`

	var latest sql.NullTime
	err := r.db.QueryRowContext(ctx, query, symbol, string(interval)).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest bar time for symbol %s: %w", symbol, err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time.UTC(), nil
}

// CountBySymbol returns the number of stored bars for the symbol and interval.
func (r *Repository) CountBySymbol(ctx context.Context, symbol string, interval domain.Interval) (int, error) {
	const query = `SELECT COUNT(*) FROM bars WHERE symbol = ? AND interval = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, symbol, string(interval)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bars for symbol %s: %w", symbol, err)
	}
	return count, nil
}

// --- SignalRepository Implementation ---

// SaveSignal stores a generated signal and returns its assigned ID.
func (r *Repository) SaveSignal(ctx context.Context, sig *domain.Signal) (int64, error) {
	const query = `
	INSERT INTO signals (symbol, signal_time, action, score, price, readings, reasons)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	readings, err := json.Marshal(sig.Readings)
	if err != nil {
		return 0, fmt.Errorf("failed to encode signal readings for %s: %w", sig.Symbol, err)
	}
	reasons, err := json.Marshal(sig.Reasons)
	if err != nil {
		return 0, fmt.Errorf("failed to encode signal reasons for %s: %w", sig.Symbol, err)
	}

	result, err := r.db.ExecContext(ctx, query,
		sig.Symbol, sig.Time.UTC(), string(sig.Action), sig.Score, sig.Price, string(readings), string(reasons))
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal for symbol %s: %w", sig.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for signal %s: %w", sig.Symbol, err)
	}
	sig.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Signal saved", map[string]interface{}{"signalID": id, "symbol": sig.Symbol, "action": sig.Action})
	return id, nil
}

// FindRecentSignals retrieves the most recent signals, newest first, up to a limit.
// An empty symbol matches all symbols.
func (r *Repository) FindRecentSignals(ctx context.Context, symbol string, limit int) ([]*domain.Signal, error) {
	query := `
	SELECT id, symbol, signal_time, action, score, price, readings, reasons
	FROM signals`
	args := make([]interface{}, 0, 2)
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY signal_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals for symbol %q: %w", symbol, err)
	}
	defer rows.Close()

	signals := make([]*domain.Signal, 0)
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal during FindRecentSignals: %w", err)
		}
		signals = append(signals, sig)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}
	return signals, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBar scans a row into a domain.Bar struct.
func scanBar(s scanner) (domain.Bar, error) {
	var b domain.Bar
	var interval string
	err := s.Scan(
		&b.Symbol, &interval, &b.Time,
		&b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume)
	if err != nil {
		return domain.Bar{}, err // Handle sql.ErrNoRows in the caller
	}
	b.Interval = domain.Interval(interval)
	b.Time = b.Time.UTC()
	return b, nil
}

// scanSignal scans a row into a domain.Signal struct.
func scanSignal(s scanner) (*domain.Signal, error) {
	sig := &domain.Signal{}
	var action string
	var readings, reasons string
	err := s.Scan(
		&sig.ID, &sig.Symbol, &sig.Time, &action, &sig.Score, &sig.Price, &readings, &reasons)
	if err != nil {
		return nil, err
	}
	sig.Action = domain.SignalAction(action)
	sig.Time = sig.Time.UTC()
	if err := json.Unmarshal([]byte(readings), &sig.Readings); err != nil {
		return nil, fmt.Errorf("decoding signal readings: %w", err)
	}
	if err := json.Unmarshal([]byte(reasons), &sig.Reasons); err != nil {
		return nil, fmt.Errorf("decoding signal reasons: %w", err)
	}
	return sig, nil
}

var (
	_ ports.BarRepository    = (*Repository)(nil)
	_ ports.SignalRepository = (*Repository)(nil)
)
