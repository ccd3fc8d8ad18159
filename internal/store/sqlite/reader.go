package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/strategy"
)

// LatestReport loads the most recent report. It returns nil, nil when the
// table is empty.
func (s *Store) LatestReport(ctx context.Context) (*model.IndicatorReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM reports ORDER BY id DESC LIMIT 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read report: %w", err)
	}

	var r model.IndicatorReport
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}

// CountReports returns how many reports are stored for symbol.
func (s *Store) CountReports(ctx context.Context, symbol string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE symbol = ?`, symbol).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite count reports: %w", err)
	}
	return n, nil
}

// LatestState loads the newest policy snapshot for symbol. It returns
// nil, nil when none was saved.
func (s *Store) LatestState(ctx context.Context, symbol string) (*strategy.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM policy_states
		WHERE symbol = ?
		ORDER BY id DESC
		LIMIT 1
	`, symbol).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read state: %w", err)
	}

	var st strategy.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}
