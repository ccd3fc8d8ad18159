package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"momentum-signalv1/internal/model"
)

func insertTrade(ctx context.Context, tx *sql.Tx, reportID int64, t *model.TradeEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trades (id, report_id, symbol, policy, action, price, volume, value, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, reportID, t.Symbol, t.Policy, string(t.Type), t.Price, t.Volume, t.Value, t.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite insert trade: %w", err)
	}
	return nil
}

// RecentTrades returns the last limit trades, newest first.
func (s *Store) RecentTrades(ctx context.Context, limit int) ([]model.TradeEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, policy, action, price, volume, value, ts
		FROM trades ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]model.TradeEvent, 0, limit)
	for rows.Next() {
		var (
			t      model.TradeEvent
			action string
			tsMs   int64
		)
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Policy, &action, &t.Price, &t.Volume, &t.Value, &tsMs); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		t.Type = model.Action(action)
		t.Timestamp = time.UnixMilli(tsMs).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
