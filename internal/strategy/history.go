package strategy

import (
	"time"

	"momentum-signalv1/internal/id"
	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/ringbuf"
)

// DefaultHistoryCap bounds the in-memory trade history.
const DefaultHistoryCap = 500

// History is the in-memory audit trail of trade events. It keeps the newest
// entries only; the durable trail lives in the trade journal.
type History struct {
	ring *ringbuf.Ring[model.TradeEvent]
}

// NewHistory creates a history holding at most capacity events.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{ring: ringbuf.New[model.TradeEvent](capacity)}
}

// Record builds a TradeEvent for a trading decision and appends it.
// It returns nil when the decision is not a trade.
func (h *History) Record(d Decision, symbol, policy string, price, volume float64, ts time.Time) *model.TradeEvent {
	if !d.Action.IsTrade() {
		return nil
	}
	ev := model.TradeEvent{
		ID:        id.New(ts),
		Type:      d.Action,
		Symbol:    symbol,
		Policy:    policy,
		Price:     price,
		Volume:    volume,
		Value:     d.Value,
		Timestamp: ts,
	}
	h.ring.Push(ev)
	return &ev
}

// Recent returns up to n events, newest first.
func (h *History) Recent(n int) []model.TradeEvent {
	return h.ring.Newest(n)
}

// Len returns the number of retained events.
func (h *History) Len() int { return h.ring.Len() }

// Evicted returns how many events were dropped from memory.
func (h *History) Evicted() uint64 { return h.ring.Evicted() }
