package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	LastPollAt    time.Time
	LastPollOK    bool
	LastPollError string

	RedisEnabled   bool
	RedisConnected bool
	SQLiteOK       bool

	// Liveness probe results
	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

// NewHealthStatus returns a default health status. SQLite is assumed
// healthy until the first probe says otherwise.
func NewHealthStatus(redisEnabled bool) *HealthStatus {
	return &HealthStatus{
		StartedAt:    time.Now(),
		RedisEnabled: redisEnabled,
		SQLiteOK:     true,
	}
}

// RecordPoll stores the outcome of the last poll cycle.
func (h *HealthStatus) RecordPoll(at time.Time, err error) {
	h.mu.Lock()
	h.LastPollAt = at
	h.LastPollOK = err == nil
	h.LastPollError = ""
	if err != nil {
		h.LastPollError = err.Error()
	}
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
// Either client may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// Report is the /healthz body.
type Report struct {
	Status          string  `json:"status"`
	Uptime          string  `json:"uptime"`
	LastPollAt      string  `json:"last_poll_at,omitempty"`
	LastPollOK      bool    `json:"last_poll_ok"`
	LastPollError   string  `json:"last_poll_error,omitempty"`
	RedisEnabled    bool    `json:"redis_enabled"`
	RedisConnected  bool    `json:"redis_connected"`
	RedisLatencyMs  float64 `json:"redis_latency_ms"`
	SQLiteOK        bool    `json:"sqlite_ok"`
	SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
}

// Snapshot returns the health report and the HTTP status to serve it with.
// No poll yet or a failed last poll is "degraded"; a dead SQLite is
// "unhealthy".
func (h *HealthStatus) Snapshot() (Report, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status, code := "healthy", http.StatusOK
	if !h.LastPollOK || (h.RedisEnabled && !h.RedisConnected && !h.LastCheckAt.IsZero()) {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if !h.SQLiteOK {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	r := Report{
		Status:          status,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		LastPollOK:      h.LastPollOK,
		LastPollError:   h.LastPollError,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
	}
	if !h.LastPollAt.IsZero() {
		r.LastPollAt = h.LastPollAt.UTC().Format(time.RFC3339)
	}
	return r, code
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep, code := h.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(rep)
}
