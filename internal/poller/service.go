// Package poller runs the fetch → compute → decide → persist cycle.
//
// One Service owns the signal state of one symbol. Cycles never overlap: a
// tick that arrives while a cycle is still running is dropped and counted.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"momentum-signalv1/internal/exchange"
	"momentum-signalv1/internal/indicator"
	"momentum-signalv1/internal/logger"
	"momentum-signalv1/internal/metrics"
	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/notification"
	"momentum-signalv1/internal/report"
	"momentum-signalv1/internal/series"
	"momentum-signalv1/internal/strategy"
)

// ErrCycleInProgress is returned by RunOnce when another cycle is running.
var ErrCycleInProgress = errors.New("poll cycle already in progress")

// Config holds the per-symbol cycle parameters.
type Config struct {
	Symbol       string
	Interval     string
	CandleLimit  int
	MACD         indicator.MACDConfig
	Volume       indicator.VolumeConfig
	PollInterval time.Duration
	FetchTimeout time.Duration
}

// StateSaver persists policy snapshots after each evaluated cycle.
type StateSaver interface {
	SaveState(ctx context.Context, symbol string, st strategy.State) error
}

// Deps are the collaborators of a Service. Only Fetcher and Policy are
// required.
type Deps struct {
	Fetcher  model.KlineFetcher
	Policy   strategy.Policy
	History  *strategy.History
	Sink     model.ReportSink
	Notifier notification.Notifier
	States   StateSaver
	Metrics  *metrics.Metrics
	Health   *metrics.HealthStatus
	Now      func() time.Time
}

// Result is the outcome of one completed cycle.
type Result struct {
	Report   model.IndicatorReport `json:"report"`
	Decision strategy.Decision     `json:"decision"`
	Trade    *model.TradeEvent     `json:"trade,omitempty"`
}

// Snapshot is a consistent view of the service state.
type Snapshot struct {
	Symbol     string                 `json:"symbol"`
	Interval   string                 `json:"interval"`
	State      strategy.State         `json:"state"`
	LastReport *model.IndicatorReport `json:"last_report,omitempty"`
	Polls      uint64                 `json:"polls"`
	Skipped    uint64                 `json:"skipped_ticks"`
}

// Service drives the signal state machine for one symbol.
type Service struct {
	cfg  Config
	deps Deps

	running atomic.Bool
	skipped atomic.Uint64
	polls   atomic.Uint64

	// mu guards the policy, history and last report so readers never see a
	// half-applied transition.
	mu   sync.Mutex
	last *model.IndicatorReport
}

// New creates a Service.
func New(cfg Config, deps Deps) (*Service, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("poller: fetcher is required")
	}
	if deps.Policy == nil {
		return nil, errors.New("poller: policy is required")
	}
	if err := cfg.MACD.Validate(); err != nil {
		return nil, fmt.Errorf("poller: %w", err)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if deps.History == nil {
		deps.History = strategy.NewHistory(strategy.DefaultHistoryCap)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{cfg: cfg, deps: deps}, nil
}

// Run polls immediately and then on every PollInterval tick until ctx is
// cancelled. Each tick runs in its own goroutine so a slow cycle makes the
// next tick hit the re-entrancy guard instead of queueing.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("poller: starting",
		"symbol", s.cfg.Symbol,
		"interval", s.cfg.Interval,
		"policy", s.deps.Policy.Name(),
		"every", s.cfg.PollInterval.String(),
	)

	var wg sync.WaitGroup
	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunOnce(ctx)
		}()
	}

	tick()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			slog.Info("poller: stopped", "symbol", s.cfg.Symbol, "polls", s.polls.Load(), "skipped", s.skipped.Load())
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
}

// RunOnce executes one full cycle. Errors are already logged and counted;
// they are returned for callers such as the once command.
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		if m := s.deps.Metrics; m != nil {
			m.SkippedTicks.Inc()
		}
		slog.Warn("poller: previous cycle still running, tick skipped", "symbol", s.cfg.Symbol)
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(s.cfg.Symbol))

	res, err := s.cycle(ctx)

	s.polls.Add(1)
	if m := s.deps.Metrics; m != nil {
		m.PollDuration.Observe(time.Since(start).Seconds())
	}
	if h := s.deps.Health; h != nil {
		h.RecordPoll(s.deps.Now(), err)
	}
	return res, err
}

func (s *Service) cycle(ctx context.Context) (*Result, error) {
	candles, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	ps := series.FromCandles(candles)
	points := indicator.ComputeMACD(ps.Closes, s.cfg.MACD)
	slope := indicator.Slope(indicator.MACDLine(points))
	derivs := indicator.Derive(indicator.SignalLine(points))

	vol, err := indicator.ComputeVolume(ps.Opens, ps.Closes, ps.Volumes, s.cfg.Volume)
	if err != nil && !errors.Is(err, indicator.ErrInsufficientHistory) {
		s.countFailure("compute")
		slog.Error("poller: volume engine failed", append(logger.LogWithTrace(ctx), "error", err)...)
		return nil, err
	}

	if len(points) == 0 {
		slog.Warn("poller: not enough candles for MACD",
			append(logger.LogWithTrace(ctx),
				"candles", ps.Len(),
				"need", s.cfg.MACD.WarmUp(),
				"error", indicator.ErrInsufficientHistory,
			)...)
	}

	in := strategy.Input{
		Points: points,
		Jerk:   derivs.Jerk,
		Seed:   s.seed(ps),
	}

	now := s.deps.Now()

	s.mu.Lock()
	held := s.deps.Policy.Position()
	decision := s.deps.Policy.Evaluate(in)
	trade := s.deps.History.Record(decision, s.cfg.Symbol, s.deps.Policy.Name(), vol.Close, vol.LatestVolume, now)
	state := s.deps.Policy.Snapshot()
	historyLen, evicted := s.deps.History.Len(), s.deps.History.Evicted()
	rep := report.Assemble(report.Input{
		PollID:      logger.TraceID(ctx),
		Symbol:      s.cfg.Symbol,
		Interval:    s.cfg.Interval,
		Policy:      s.deps.Policy.Name(),
		TS:          now,
		Points:      points,
		Slope:       slope,
		Derivatives: derivs,
		Volume:      vol,
		Position:    held,
		Decision:    decision,
	})
	s.last = &rep
	s.mu.Unlock()

	s.observe(decision, rep)
	if m := s.deps.Metrics; m != nil {
		m.TradeHistorySize.Set(float64(historyLen))
		m.TradeHistoryEvicted.Set(float64(evicted))
	}
	s.logDecision(ctx, rep, decision)

	if sink := s.deps.Sink; sink != nil {
		if err := sink.WriteReport(ctx, rep, trade); err != nil {
			// Decision stays committed; sinks are best-effort.
			slog.Warn("poller: report not fully persisted", append(logger.LogWithTrace(ctx), "error", err)...)
		}
	}

	if trade != nil && s.deps.Notifier != nil {
		if err := s.deps.Notifier.Send(ctx, notification.TradeAlert(*trade, rep)); err != nil {
			if m := s.deps.Metrics; m != nil {
				m.NotifyFailures.Inc()
			}
			slog.Warn("poller: trade alert failed", append(logger.LogWithTrace(ctx), "error", err)...)
		}
	}

	if st := s.deps.States; st != nil && !decision.Insufficient {
		if err := st.SaveState(ctx, s.cfg.Symbol, state); err != nil {
			slog.Warn("poller: policy state not saved", append(logger.LogWithTrace(ctx), "error", err)...)
		}
	}

	return &Result{Report: rep, Decision: decision, Trade: trade}, nil
}

// fetch loads candles under FetchTimeout. Any failure is a *exchange.FetchError.
func (s *Service) fetch(ctx context.Context) ([]model.Candle, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	candles, err := s.deps.Fetcher.FetchKlines(fetchCtx, s.cfg.Symbol, s.cfg.Interval, s.cfg.CandleLimit)
	if m := s.deps.Metrics; m != nil {
		m.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		var fe *exchange.FetchError
		if !errors.As(err, &fe) {
			fe = &exchange.FetchError{Op: "request", Err: err}
			err = fe
		}
		s.countFailure("fetch")
		slog.Error("poller: fetch failed, cycle skipped",
			append(logger.LogWithTrace(ctx),
				"symbol", s.cfg.Symbol,
				"retryable", exchange.IsRetryable(err),
				"timeout", fe.Timeout(),
				"error", err,
			)...)
		return nil, err
	}

	if m := s.deps.Metrics; m != nil {
		m.CandlesLoaded.Set(float64(len(candles)))
	}
	return candles, nil
}

// seed lazily computes MACD − signal of the previous candle from the
// window without its newest candle.
func (s *Service) seed(ps series.PriceSeries) func() (float64, bool) {
	return func() (float64, bool) {
		prev := indicator.ComputeMACD(ps.DropLast().Closes, s.cfg.MACD)
		if len(prev) == 0 {
			return 0, false
		}
		p := prev[len(prev)-1]
		return p.MACD - p.Signal, true
	}
}

func (s *Service) countFailure(reason string) {
	if m := s.deps.Metrics; m != nil {
		m.PollFailures.WithLabelValues(reason).Inc()
		m.PollsTotal.WithLabelValues("failed").Inc()
	}
}

func (s *Service) observe(d strategy.Decision, r model.IndicatorReport) {
	m := s.deps.Metrics
	if m == nil {
		return
	}
	if d.Insufficient {
		m.PollsTotal.WithLabelValues("insufficient").Inc()
	} else {
		m.PollsTotal.WithLabelValues("ok").Inc()
	}
	m.SignalsTotal.WithLabelValues(string(d.Action)).Inc()
	m.SetPosition(d.Position)
	if !d.Insufficient {
		m.LastJerk.Set(r.Jerk)
		m.LastDifference.Set(r.MACD - r.Signal)
	}
}

func (s *Service) logDecision(ctx context.Context, r model.IndicatorReport, d strategy.Decision) {
	attrs := append(logger.LogWithTrace(ctx),
		"symbol", r.Symbol,
		"action", string(d.Action),
		"position", string(d.Position),
		"macd", r.MACD,
		"signal", r.Signal,
		"jerk", r.Jerk,
		"close", r.ClosePrice,
	)
	if d.Reason != "" {
		attrs = append(attrs, "reason", d.Reason)
	}
	if d.Action.IsTrade() {
		slog.Info("poller: signal", attrs...)
		return
	}
	slog.Debug("poller: cycle complete", attrs...)
}

// Snapshot returns the current state under the service lock.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Symbol:   s.cfg.Symbol,
		Interval: s.cfg.Interval,
		State:    s.deps.Policy.Snapshot(),
		Polls:    s.polls.Load(),
		Skipped:  s.skipped.Load(),
	}
	if s.last != nil {
		r := *s.last
		snap.LastReport = &r
	}
	return snap
}

// RecentTrades returns up to n in-memory trade events, newest first.
func (s *Service) RecentTrades(n int) []model.TradeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps.History.Recent(n)
}
