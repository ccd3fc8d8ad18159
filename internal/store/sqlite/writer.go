package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/strategy"

	_ "github.com/mattn/go-sqlite3"
)

// keepStates is how many policy state snapshots are retained.
const keepStates = 10

// Config configures the SQLite store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// Store is the SQLite report sink and trade journal.
type Store struct {
	db *sql.DB
}

var (
	_ model.ReportSink  = (*Store)(nil)
	_ model.TradeReader = (*Store)(nil)
)

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database with WAL mode and creates the schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("sqlite: opened database", "path", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			poll_id     TEXT    NOT NULL,
			symbol      TEXT    NOT NULL,
			interval    TEXT    NOT NULL,
			policy      TEXT    NOT NULL,
			ts          INTEGER NOT NULL,
			macd        REAL    NOT NULL,
			signal      REAL    NOT NULL,
			jerk        REAL    NOT NULL,
			action      TEXT    NOT NULL,
			position    TEXT    NOT NULL,
			data        TEXT    NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reports_symbol_ts ON reports(symbol, ts);

		CREATE TABLE IF NOT EXISTS trades (
			id          TEXT    PRIMARY KEY,
			report_id   INTEGER NOT NULL REFERENCES reports(id),
			symbol      TEXT    NOT NULL,
			policy      TEXT    NOT NULL,
			action      TEXT    NOT NULL,
			price       REAL    NOT NULL,
			volume      REAL    NOT NULL,
			value       REAL    NOT NULL,
			ts          INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
		CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);

		CREATE TABLE IF NOT EXISTS policy_states (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			policy      TEXT    NOT NULL,
			data        TEXT    NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (s *Store) Name() string { return "sqlite" }

// WriteReport inserts the report and, when present, its trade in a single
// transaction so the audit rows are never split.
func (s *Store) WriteReport(ctx context.Context, r model.IndicatorReport, trade *model.TradeEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reports (poll_id, symbol, interval, policy, ts, macd, signal, jerk, action, position, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.PollID, r.Symbol, r.Interval, r.Policy, r.TS.UnixMilli(),
		r.MACD, r.Signal, r.Jerk, string(r.Action), string(r.Position), string(r.JSON()))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite insert report: %w", err)
	}

	if trade != nil {
		reportID, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite report id: %w", err)
		}
		if err := insertTrade(ctx, tx, reportID, trade); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// SaveState stores a policy snapshot, keeping the newest few.
func (s *Store) SaveState(ctx context.Context, symbol string, st strategy.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO policy_states (symbol, policy, data) VALUES (?, ?, ?)`,
		symbol, st.Policy, string(data)); err != nil {
		return fmt.Errorf("sqlite insert state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM policy_states
		WHERE symbol = ? AND id NOT IN (
			SELECT id FROM policy_states WHERE symbol = ? ORDER BY id DESC LIMIT ?
		)`, symbol, symbol, keepStates)
	if err != nil {
		slog.Warn("sqlite: prune policy states", "error", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
