package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"momentum-signalv1/config"
	"momentum-signalv1/internal/api"
	"momentum-signalv1/internal/logger"
)

const (
	livenessInterval = 15 * time.Second
	breakerInterval  = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll continuously and serve the HTTP API",
	Long: `Run polls Binance every poll interval until SIGINT or SIGTERM.

The HTTP server exposes:
  /healthz              health report
  /metrics              Prometheus metrics
  /ws                   live report and trade stream
  /api/v1/state         current position and policy state
  /api/v1/trades        recent trades (?limit=N)
  /api/v1/report/latest last indicator report`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init("signald", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		slog.Error("init failed", "error", err)
		return err
	}
	defer a.Close()

	if a.redis != nil {
		a.health.StartLivenessChecker(ctx, a.redis.Client(), a.store.DB(), livenessInterval)
		go a.watchBreaker(ctx)
	} else {
		a.health.StartLivenessChecker(ctx, nil, a.store.DB(), livenessInterval)
	}

	srv := api.NewServer(cfg.HTTPAddr, api.NewRouter(api.Deps{
		State:    a.service,
		Journal:  a.store,
		Health:   a.health,
		Stream:   a.hub,
		Gatherer: a.registry,
	}))
	srv.Start()

	err = a.service.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Stop(shutdownCtx); serr != nil {
		slog.Error("http shutdown", "error", serr)
	}
	slog.Info("signald stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchBreaker mirrors the Redis circuit breaker state and the pending
// write count into their gauges.
func (a *app) watchBreaker(ctx context.Context) {
	ticker := time.NewTicker(breakerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.RedisCircuitBreakerState.Set(float64(a.redis.Breaker().CurrentState()))
			a.metrics.RedisPendingWrites.Set(float64(a.redis.PendingCount()))
		}
	}
}
