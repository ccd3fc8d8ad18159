package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-signalv1/internal/model"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SkippedTicks.Inc()
	m.PollFailures.WithLabelValues("fetch").Inc()
	m.SetPosition(model.PositionShort)

	assert.Equal(t, 1.0, value(t, m.SkippedTicks))
	assert.Equal(t, 1.0, value(t, m.PollFailures.WithLabelValues("fetch")))
	assert.Equal(t, -1.0, value(t, m.Position))

	// a second registry accepts the same names
	require.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestHealthStatus_Snapshot(t *testing.T) {
	h := NewHealthStatus(false)

	_, code := h.Snapshot()
	assert.Equal(t, http.StatusServiceUnavailable, code, "no poll yet")

	h.RecordPoll(time.Now(), nil)
	rep, code := h.Snapshot()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", rep.Status)

	h.RecordPoll(time.Now(), errors.New("fetch request: timeout"))
	rep, _ = h.Snapshot()
	assert.Equal(t, "degraded", rep.Status)
	assert.Equal(t, "fetch request: timeout", rep.LastPollError)

	h.mu.Lock()
	h.SQLiteOK = false
	h.mu.Unlock()
	rep, _ = h.Snapshot()
	assert.Equal(t, "unhealthy", rep.Status)
}
