package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"momentum-signalv1/config"
	"momentum-signalv1/internal/exchange/binance"
	"momentum-signalv1/internal/metrics"
	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/notification"
	"momentum-signalv1/internal/poller"
	"momentum-signalv1/internal/sink"
	"momentum-signalv1/internal/store/csvfile"
	"momentum-signalv1/internal/store/redis"
	"momentum-signalv1/internal/store/sqlite"
	"momentum-signalv1/internal/strategy"
	"momentum-signalv1/internal/stream"
)

// app is the fully wired service.
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus
	store    *sqlite.Store
	redis    *redis.Publisher // nil when disabled
	hub      *stream.Hub
	sink     *sink.Multi
	service  *poller.Service
}

// buildApp opens every sink and builds the poller. The policy starts flat
// unless cfg.RestoreState asks for the last saved state.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.NewMetrics(a.registry)

	for _, p := range []string{cfg.CSVPath, cfg.SQLitePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	var err error
	a.store, err = sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		return nil, err
	}

	csvw, err := csvfile.New(cfg.CSVPath, model.ReportColumns(cfg.Volume.Short, cfg.Volume.Long))
	if err != nil {
		a.store.Close()
		return nil, err
	}

	a.hub = stream.NewHub()
	a.hub.OnClientCount = func(n int) { a.metrics.WSClients.Set(float64(n)) }

	sinks := []model.ReportSink{csvw, a.store, a.hub}
	if cfg.RedisAddr != "" {
		a.redis, err = redis.New(redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			slog.Warn("redis unavailable, publisher disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			sinks = append(sinks, a.redis)
		}
	}
	a.health = metrics.NewHealthStatus(a.redis != nil)
	a.sink = sink.NewMulti(func(name string, err error) {
		a.metrics.SinkFailures.WithLabelValues(name).Inc()
	}, sinks...)
	slog.Info("report sinks ready", "count", a.sink.Len())

	policy, err := restorePolicy(ctx, a.store, cfg)
	if err != nil {
		a.sink.Close()
		return nil, err
	}

	a.service, err = poller.New(poller.Config{
		Symbol:       cfg.Symbol,
		Interval:     cfg.Interval,
		CandleLimit:  cfg.CandleLimit,
		MACD:         cfg.MACD,
		Volume:       cfg.Volume,
		PollInterval: cfg.PollInterval,
		FetchTimeout: cfg.FetchTimeout,
	}, poller.Deps{
		Fetcher:  binance.NewClient(cfg.BinanceBaseURL),
		Policy:   policy,
		History:  strategy.NewHistory(cfg.TradeHistoryCap),
		Sink:     a.sink,
		Notifier: notifiers(cfg),
		States:   a.store,
		Metrics:  a.metrics,
		Health:   a.health,
	})
	if err != nil {
		a.sink.Close()
		return nil, err
	}
	return a, nil
}

func restorePolicy(ctx context.Context, store *sqlite.Store, cfg *config.Config) (strategy.Policy, error) {
	if !cfg.RestoreState {
		return strategy.New(cfg.Policy, cfg.BufferCap)
	}
	st, err := store.LatestState(ctx, cfg.Symbol)
	if err != nil {
		return nil, err
	}
	if st == nil || st.Policy != cfg.Policy {
		return strategy.New(cfg.Policy, cfg.BufferCap)
	}
	slog.Info("restored policy state", "symbol", cfg.Symbol, "policy", st.Policy, "position", st.Position)
	return strategy.Restore(*st, cfg.BufferCap)
}

func notifiers(cfg *config.Config) notification.Notifier {
	n := notification.Multi{notification.NewLogNotifier(slog.Default())}
	if cfg.WebhookURL != "" {
		n = append(n, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" {
		n = append(n, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return n
}

// Close closes every sink, which includes the SQLite store and Redis.
func (a *app) Close() error {
	return a.sink.Close()
}
