package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"momentum-signalv1/internal/model"
)

// Metrics holds all Prometheus metrics for the signal service.
type Metrics struct {
	// Poll cycle
	PollsTotal    *prometheus.CounterVec // labels: result=ok|insufficient|failed
	PollFailures  *prometheus.CounterVec // labels: reason=fetch|compute
	SkippedTicks  prometheus.Counter
	PollDuration  prometheus.Histogram
	FetchDuration prometheus.Histogram
	CandlesLoaded prometheus.Gauge

	// Signal machine
	SignalsTotal   *prometheus.CounterVec // labels: action
	Position       prometheus.Gauge       // -1=short, 0=none, 1=long
	LastJerk       prometheus.Gauge
	LastDifference prometheus.Gauge

	// Trade history ring
	TradeHistorySize    prometheus.Gauge
	TradeHistoryEvicted prometheus.Gauge

	// Sinks
	SinkFailures   *prometheus.CounterVec // labels: sink
	NotifyFailures prometheus.Counter

	// Redis circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisPendingWrites       prometheus.Gauge

	// Websocket
	WSClients prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signald_polls_total",
			Help: "Completed poll cycles by result",
		}, []string{"result"}),
		PollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signald_poll_failures_total",
			Help: "Poll cycles aborted before evaluation",
		}, []string{"reason"}),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signald_skipped_ticks_total",
			Help: "Scheduler ticks dropped because a cycle was still running",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signald_poll_duration_seconds",
			Help:    "Full poll cycle latency (fetch, compute, persist)",
			Buckets: prometheus.DefBuckets,
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signald_fetch_duration_seconds",
			Help:    "Kline fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		CandlesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_candles_loaded",
			Help: "Candles returned by the last successful fetch",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signald_signals_total",
			Help: "Decisions emitted by the signal machine, by action",
		}, []string{"action"}),
		Position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_position",
			Help: "Held position (-1=short, 0=none, 1=long)",
		}),
		LastJerk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_last_jerk",
			Help: "Jerk of the signal line at the last poll",
		}),
		LastDifference: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_last_difference",
			Help: "MACD minus signal at the last poll",
		}),

		TradeHistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_trade_history_size",
			Help: "Trade events held in memory",
		}),
		TradeHistoryEvicted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_trade_history_evicted",
			Help: "Trade events dropped from memory since start (still in the journal)",
		}),

		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signald_sink_failures_total",
			Help: "Report writes that failed, by sink",
		}, []string{"sink"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signald_notify_failures_total",
			Help: "Trade alerts that could not be delivered",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisPendingWrites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_redis_pending_writes",
			Help: "Report writes buffered while the Redis breaker is open",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signald_ws_clients",
			Help: "Connected websocket clients",
		}),
	}

	reg.MustRegister(
		m.PollsTotal,
		m.PollFailures,
		m.SkippedTicks,
		m.PollDuration,
		m.FetchDuration,
		m.CandlesLoaded,
		m.SignalsTotal,
		m.Position,
		m.LastJerk,
		m.LastDifference,
		m.TradeHistorySize,
		m.TradeHistoryEvicted,
		m.SinkFailures,
		m.NotifyFailures,
		m.RedisCircuitBreakerState,
		m.RedisPendingWrites,
		m.WSClients,
	)

	return m
}

// SetPosition maps a position onto the gauge.
func (m *Metrics) SetPosition(p model.Position) {
	switch p {
	case model.PositionLong:
		m.Position.Set(1)
	case model.PositionShort:
		m.Position.Set(-1)
	default:
		m.Position.Set(0)
	}
}
