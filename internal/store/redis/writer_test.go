package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-signalv1/internal/model"
)

// unreachable returns a client pointed at a closed port.
func unreachable(t *testing.T) *goredis.Client {
	t.Helper()
	c := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "signal:report:BTCUSDT", ReportStreamKey("BTCUSDT"))
	assert.Equal(t, "signal:latest:BTCUSDT", LatestKey("BTCUSDT"))
	assert.Equal(t, "signal:trades:BTCUSDT", TradeStreamKey("BTCUSDT"))
	assert.Equal(t, "pub:signal:BTCUSDT", ReportChannel("BTCUSDT"))
	assert.Equal(t, "pub:trade:BTCUSDT", TradeChannel("BTCUSDT"))
}

func TestPublisher_BuffersWhileBreakerOpen(t *testing.T) {
	p := NewFromClient(unreachable(t), Config{MaxFailures: 2, ResetTimeout: time.Hour, MaxPending: 2})
	ctx := context.Background()
	r := model.IndicatorReport{Symbol: "BTCUSDT", Action: model.ActionNone}

	// failures surface until the breaker trips
	assert.Error(t, p.WriteReport(ctx, r, nil))
	assert.Error(t, p.WriteReport(ctx, r, nil))
	require.Equal(t, StateOpen, p.Breaker().CurrentState())

	// then writes are queued and reported as success
	trade := &model.TradeEvent{ID: "t1", Type: model.ActionBuy, Symbol: "BTCUSDT"}
	assert.NoError(t, p.WriteReport(ctx, r, trade))
	assert.NoError(t, p.WriteReport(ctx, r, nil))
	assert.NoError(t, p.WriteReport(ctx, r, nil))
	assert.Equal(t, 2, p.PendingCount(), "queue keeps only the newest writes")
}

func TestPendingQueue_DrainOldestFirst(t *testing.T) {
	q := newPendingQueue(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		q.push(pendingWrite{Symbol: s})
	}
	got := q.drain()
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Symbol)
	assert.Equal(t, "d", got[2].Symbol)
	assert.Equal(t, 0, q.len())
}

// fakePipe records commands and commits them to the shared log on Exec.
type fakePipe struct {
	goredis.Pipeliner
	srv     *fakeServer
	pending []string
}

type fakeServer struct {
	log  []string
	down bool
}

func (s *fakeServer) pipeline() goredis.Pipeliner { return &fakePipe{srv: s} }

// label identifies a payload by its poll id or trade id.
func label(v interface{}) string {
	var ids struct {
		PollID string `json:"poll_id"`
		ID     string `json:"id"`
	}
	json.Unmarshal([]byte(v.(string)), &ids)
	if ids.PollID != "" {
		return ids.PollID
	}
	return ids.ID
}

func (p *fakePipe) XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd {
	data := a.Values.(map[string]interface{})["data"]
	p.pending = append(p.pending, "XADD "+a.Stream+" "+label(data))
	return goredis.NewStringCmd(ctx)
}

func (p *fakePipe) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	p.pending = append(p.pending, "SET "+key+" "+label(value))
	return goredis.NewStatusCmd(ctx)
}

func (p *fakePipe) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	p.pending = append(p.pending, "PUBLISH "+channel+" "+label(message))
	return goredis.NewIntCmd(ctx)
}

func (p *fakePipe) Exec(context.Context) ([]goredis.Cmder, error) {
	if p.srv.down {
		return nil, errors.New("connection refused")
	}
	p.srv.log = append(p.srv.log, p.pending...)
	return nil, nil
}

func newFakePublisher(t *testing.T) (*Publisher, *fakeServer, *fakeClock) {
	t.Helper()
	srv := &fakeServer{}
	p := NewFromClient(unreachable(t), Config{MaxFailures: 1, ResetTimeout: time.Second, MaxPending: 8})
	p.pipeline = srv.pipeline
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	p.cb.now = clk.now
	return p, srv, clk
}

func report(id string) model.IndicatorReport {
	return model.IndicatorReport{PollID: id, Symbol: "BTCUSDT"}
}

func TestPublisher_ReplayPrecedesLiveWrite(t *testing.T) {
	p, srv, clk := newFakePublisher(t)
	ctx := context.Background()

	srv.down = true
	require.Error(t, p.WriteReport(ctx, report("r0"), nil))
	require.Equal(t, StateOpen, p.Breaker().CurrentState())

	require.NoError(t, p.WriteReport(ctx, report("r1"), &model.TradeEvent{ID: "t1"}))
	require.NoError(t, p.WriteReport(ctx, report("r2"), nil))

	srv.down = false
	clk.advance(2 * time.Second)
	require.NoError(t, p.WriteReport(ctx, report("r3"), nil))

	assert.Equal(t, StateClosed, p.Breaker().CurrentState())
	assert.Equal(t, 0, p.PendingCount())
	assert.Equal(t, []string{
		"XADD signal:report:BTCUSDT r0",
		"XADD signal:report:BTCUSDT r1",
		"XADD signal:trades:BTCUSDT t1",
		"XADD signal:report:BTCUSDT r2",
		"XADD signal:report:BTCUSDT r3",
		"SET signal:latest:BTCUSDT r3",
		"PUBLISH pub:signal:BTCUSDT r3",
	}, srv.log, "the latest key holds the live report and streams stay in poll order")
}

func TestPublisher_FailedReplayKeepsOrder(t *testing.T) {
	p, srv, clk := newFakePublisher(t)
	ctx := context.Background()

	srv.down = true
	require.Error(t, p.WriteReport(ctx, report("r1"), nil))
	require.NoError(t, p.WriteReport(ctx, report("r2"), nil))

	// the probe fails: everything stays queued, oldest first
	clk.advance(2 * time.Second)
	require.Error(t, p.WriteReport(ctx, report("r3"), nil))
	require.Equal(t, StateOpen, p.Breaker().CurrentState())
	require.NoError(t, p.WriteReport(ctx, report("r4"), nil))
	assert.Equal(t, 4, p.PendingCount())

	srv.down = false
	clk.advance(2 * time.Second)
	require.NoError(t, p.WriteReport(ctx, report("r5"), nil))
	assert.Equal(t, []string{
		"XADD signal:report:BTCUSDT r1",
		"XADD signal:report:BTCUSDT r2",
		"XADD signal:report:BTCUSDT r3",
		"XADD signal:report:BTCUSDT r4",
		"XADD signal:report:BTCUSDT r5",
		"SET signal:latest:BTCUSDT r5",
		"PUBLISH pub:signal:BTCUSDT r5",
	}, srv.log)
}

func TestPendingQueue_PushFront(t *testing.T) {
	q := newPendingQueue(3)
	q.push(pendingWrite{Symbol: "c"})
	q.pushFront([]pendingWrite{{Symbol: "a"}, {Symbol: "b"}})
	got := q.drain()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Symbol, got[1].Symbol, got[2].Symbol})

	q.push(pendingWrite{Symbol: "z"})
	q.pushFront([]pendingWrite{{Symbol: "w"}, {Symbol: "x"}, {Symbol: "y"}})
	got = q.drain()
	assert.Equal(t, "x", got[0].Symbol, "overflow drops the oldest")
	assert.Equal(t, "z", got[2].Symbol)
}
