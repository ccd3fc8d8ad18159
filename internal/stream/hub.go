// Package stream pushes live reports and trades to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/ringbuf"
)

const (
	sendBuffer = 64

	// replayTrades is how many recent trade frames a joining client receives.
	replayTrades = 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Envelope is the frame sent to clients.
type Envelope struct {
	Type string          `json:"type"` // "report", "trade", "pong"
	Seq  int64           `json:"seq"`
	TS   int64           `json:"server_ts"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub fans reports out to connected websocket clients. New clients receive
// the recent trades, then the latest report. It implements model.ReportSink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte // last report envelope
	trades  *ringbuf.Ring[[]byte]
	seq     int64

	// OnClientCount is called after a client joins or leaves.
	OnClientCount func(n int)
}

var _ model.ReportSink = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		trades:  ringbuf.New[[]byte](replayTrades),
	}
}

func (h *Hub) Name() string { return "websocket" }

// WriteReport broadcasts the report and, when present, the trade.
// Slow clients drop frames instead of blocking the poll.
func (h *Hub) WriteReport(_ context.Context, r model.IndicatorReport, trade *model.TradeEvent) error {
	h.mu.Lock()
	reportEnv := h.envelope("report", r.JSON())
	h.latest = reportEnv
	var tradeEnv []byte
	if trade != nil {
		b, err := json.Marshal(trade)
		if err != nil {
			h.mu.Unlock()
			return err
		}
		tradeEnv = h.envelope("trade", b)
		h.trades.Push(tradeEnv)
	}
	h.mu.Unlock()

	h.broadcast(reportEnv)
	if tradeEnv != nil {
		h.broadcast(tradeEnv)
	}
	return nil
}

// envelope must be called with mu held.
func (h *Hub) envelope(typ string, data []byte) []byte {
	h.seq++
	b, _ := json.Marshal(Envelope{Type: typ, Seq: h.seq, TS: time.Now().UnixMilli(), Data: data})
	return b
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("stream: client send buffer full, dropping frame")
		}
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream: upgrade failed", "error", err)
		return
	}

	c := &Client{conn: conn, send: make(chan []byte, sendBuffer), hub: h}

	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	for _, env := range h.trades.Values() {
		c.send <- env
	}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()

	slog.Info("stream: client connected", "clients", n)
	if h.OnClientCount != nil {
		h.OnClientCount(n)
	}

	go c.writePump()
	go c.readPump()
}

// removeClient unregisters c and closes its send channel.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	slog.Info("stream: client disconnected", "clients", n)
	if h.OnClientCount != nil {
		h.OnClientCount(n)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	slog.Info("stream: closing", "clients", h.ClientCount())
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.removeClient(c)
	}
	return nil
}
