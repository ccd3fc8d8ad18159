package redis

import (
	"encoding/json"
	"log/slog"
	"sync"

	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/ringbuf"
)

// pendingWrite is one poll's payload held while the breaker is open.
type pendingWrite struct {
	Symbol string
	Report []byte
	Trade  []byte // nil when the poll produced no trade
}

// pendingQueue keeps the newest writes, dropping the oldest when full.
type pendingQueue struct {
	mu   sync.Mutex
	ring *ringbuf.Ring[pendingWrite]
}

func newPendingQueue(capacity int) *pendingQueue {
	return &pendingQueue{ring: ringbuf.New[pendingWrite](capacity)}
}

func (q *pendingQueue) push(w pendingWrite) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, dropped := q.ring.Push(w); dropped {
		slog.Warn("redis: pending buffer full, dropped oldest write")
	}
}

// pushFront puts ws back ahead of anything queued since they were drained.
// Past capacity the oldest are dropped.
func (q *pendingQueue) pushFront(ws []pendingWrite) {
	if len(ws) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	all := append(append([]pendingWrite(nil), ws...), q.ring.Values()...)
	if n := len(all) - q.ring.Cap(); n > 0 {
		slog.Warn("redis: pending buffer full, dropped oldest writes", "dropped", n)
	}
	q.ring = ringbuf.From(q.ring.Cap(), all)
}

// drain takes ownership of all queued writes, oldest first.
func (q *pendingQueue) drain() []pendingWrite {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.ring.Values()
	q.ring = ringbuf.New[pendingWrite](q.ring.Cap())
	return out
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Len()
}

// PendingCount returns the number of writes waiting to be replayed.
func (p *Publisher) PendingCount() int { return p.pending.len() }

func tradeJSON(t *model.TradeEvent) []byte {
	b, _ := json.Marshal(t)
	return b
}
