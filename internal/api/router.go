// Package api serves the HTTP surface of the signal service: health,
// Prometheus metrics, the live websocket stream and read-only JSON views of
// the signal state and trade journal.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"momentum-signalv1/internal/model"
	"momentum-signalv1/internal/poller"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
)

// StateProvider is the read side of the poller.
type StateProvider interface {
	Snapshot() poller.Snapshot
	RecentTrades(n int) []model.TradeEvent
}

// Deps are the handlers' collaborators. Journal, Stream and Gatherer may be nil.
type Deps struct {
	State    StateProvider
	Journal  model.TradeReader
	Health   http.Handler
	Stream   http.Handler
	Gatherer prometheus.Gatherer
}

type handler struct {
	deps Deps
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &handler{deps: deps}

	if deps.Health != nil {
		r.GET("/healthz", gin.WrapH(deps.Health))
	}
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if deps.Stream != nil {
		r.GET("/ws", gin.WrapH(deps.Stream))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", h.state)
		v1.GET("/trades", h.trades)
		v1.GET("/report/latest", h.latestReport)
	}
	return r
}

func (h *handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.State.Snapshot())
}

// trades serves the journal when one is configured, otherwise the
// in-memory history.
func (h *handler) trades(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTradeLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxTradeLimit {
		limit = maxTradeLimit
	}

	if h.deps.Journal == nil {
		c.JSON(http.StatusOK, gin.H{"source": "memory", "trades": h.deps.State.RecentTrades(limit)})
		return
	}

	trades, err := h.deps.Journal.RecentTrades(c.Request.Context(), limit)
	if err != nil {
		slog.Error("api: read trades", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read trades"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": "journal", "trades": trades})
}

func (h *handler) latestReport(c *gin.Context) {
	if snap := h.deps.State.Snapshot(); snap.LastReport != nil {
		c.JSON(http.StatusOK, snap.LastReport)
		return
	}

	if h.deps.Journal != nil {
		r, err := h.deps.Journal.LatestReport(c.Request.Context())
		if err != nil {
			slog.Error("api: read latest report", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read report"})
			return
		}
		if r != nil {
			c.JSON(http.StatusOK, r)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no report yet"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("api: request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// Server runs the HTTP server.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a server for handler on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("api: listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api: server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
