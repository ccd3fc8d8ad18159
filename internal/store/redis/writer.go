package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"momentum-signalv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: ~3 months of 4h reports
	reportStreamMaxLen = 600
	tradeStreamMaxLen  = 1000
	defaultLatestTTL   = 24 * time.Hour
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	MaxFailures  int           // consecutive failures before the breaker opens (default 5)
	ResetTimeout time.Duration // open duration before a probe (default 30s)
	MaxPending   int           // writes kept while the breaker is open (default 256)
}

func (c *Config) defaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 256
	}
}

// ReportStreamKey is the stream holding every report for symbol.
func ReportStreamKey(symbol string) string { return "signal:report:" + symbol }

// LatestKey holds the newest report for symbol.
func LatestKey(symbol string) string { return "signal:latest:" + symbol }

// TradeStreamKey is the stream holding trade events for symbol.
func TradeStreamKey(symbol string) string { return "signal:trades:" + symbol }

// ReportChannel is the pubsub channel for live reports.
func ReportChannel(symbol string) string { return "pub:signal:" + symbol }

// TradeChannel is the pubsub channel for trade events.
func TradeChannel(symbol string) string { return "pub:trade:" + symbol }

// Publisher writes reports and trades to Redis streams, a latest key and
// pubsub channels. Calls go through a circuit breaker; while it is open,
// writes are held in memory. The next admitted write replays them, oldest
// first, in the same pipeline and ahead of its own commands.
type Publisher struct {
	client   *goredis.Client
	pipeline func() goredis.Pipeliner
	cb       *CircuitBreaker
	pending  *pendingQueue

	mu sync.Mutex // serialises replay + live write
}

var _ model.ReportSink = (*Publisher)(nil)

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New connects to Redis and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis: connected", "addr", cfg.Addr)
	return NewFromClient(client, cfg), nil
}

// NewFromClient wraps an existing client without pinging it.
func NewFromClient(client *goredis.Client, cfg Config) *Publisher {
	cfg.defaults()
	p := &Publisher{
		client:   client,
		pipeline: client.Pipeline,
		cb:       NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout),
		pending:  newPendingQueue(cfg.MaxPending),
	}
	p.cb.OnStateChange = func(from, to State) {
		slog.Warn("redis: circuit breaker transition", "from", from.String(), "to", to.String())
	}
	return p
}

func (p *Publisher) Name() string { return "redis" }

// Breaker exposes the circuit breaker state for health reporting.
func (p *Publisher) Breaker() *CircuitBreaker { return p.cb }

// WriteReport publishes the report and trade. A write rejected by an open
// breaker is queued and reported as success. When a write fails and leaves
// the breaker open, it is queued behind the replayed writes it carried and
// the error is returned.
func (p *Publisher) WriteReport(ctx context.Context, r model.IndicatorReport, trade *model.TradeEvent) error {
	w := pendingWrite{Symbol: r.Symbol, Report: r.JSON()}
	if trade != nil {
		w.Trade = tradeJSON(trade)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var replay []pendingWrite
	err := p.cb.Execute(func() error {
		replay = p.pending.drain()
		err := p.write(ctx, replay, w)
		if err != nil {
			p.pending.pushFront(replay)
			return err
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrCircuitOpen):
		p.pending.push(w)
		return nil
	case err != nil:
		if p.cb.CurrentState() == StateOpen {
			p.pending.push(w)
		}
		return err
	}
	if len(replay) > 0 {
		slog.Info("redis: replayed buffered writes", "count", len(replay))
	}
	return nil
}

// write sends one pipeline. Replayed writes only append to the streams;
// the latest key and pubsub channels are driven by the live write alone.
func (p *Publisher) write(ctx context.Context, replay []pendingWrite, live pendingWrite) error {
	pipe := p.pipeline()
	for _, w := range replay {
		p.appendStreams(ctx, pipe, w)
	}
	p.appendStreams(ctx, pipe, live)

	report := string(live.Report)
	pipe.Set(ctx, LatestKey(live.Symbol), report, defaultLatestTTL)
	pipe.Publish(ctx, ReportChannel(live.Symbol), report)
	if len(live.Trade) > 0 {
		pipe.Publish(ctx, TradeChannel(live.Symbol), string(live.Trade))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline %s: %w", live.Symbol, err)
	}
	return nil
}

func (p *Publisher) appendStreams(ctx context.Context, pipe goredis.Pipeliner, w pendingWrite) {
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: ReportStreamKey(w.Symbol),
		MaxLen: reportStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(w.Report)},
	})
	if len(w.Trade) > 0 {
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: TradeStreamKey(w.Symbol),
			MaxLen: tradeStreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": string(w.Trade)},
		})
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
