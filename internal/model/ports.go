package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the poll cycle from concrete adapters
// (Binance REST, CSV, SQLite, Redis, websocket hub).

// KlineFetcher fetches the most recent candles for a symbol, oldest first.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// ReportSink persists or publishes one report per poll. trade is non-nil
// only when the poll produced a buy/sell signal.
type ReportSink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// WriteReport appends the report (and trade, if any).
	WriteReport(ctx context.Context, report IndicatorReport, trade *TradeEvent) error

	// Close releases underlying resources.
	Close() error
}

// TradeReader reads journaled trades and reports for the HTTP API and CLI.
type TradeReader interface {
	RecentTrades(ctx context.Context, limit int) ([]TradeEvent, error)
	LatestReport(ctx context.Context) (*IndicatorReport, error)
}
