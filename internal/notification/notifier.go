// Package notification delivers trade alerts to external channels
// (log, Telegram, webhooks).
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"momentum-signalv1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel        `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Trade   *model.TradeEvent `json:"trade,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// TradeAlert builds the alert for one buy/sell signal.
// Title: "BUY BTCUSDT @ 42000.50"
func TradeAlert(ev model.TradeEvent, r model.IndicatorReport) Alert {
	title := fmt.Sprintf("%s %s @ %.2f", strings.ToUpper(string(ev.Type)), ev.Symbol, ev.Price)

	var b strings.Builder
	fmt.Fprintf(&b, "policy=%s from=%s", ev.Policy, r.Position)
	fmt.Fprintf(&b, " macd=%.4f signal=%.4f", r.MACD, r.Signal)
	if r.JerkTerms != "" {
		fmt.Fprintf(&b, " jerk=%.4f [%s]", r.Jerk, r.JerkTerms)
	}
	fmt.Fprintf(&b, " volume=%.2f %s", r.LatestVolume, r.VolumeColor)
	if r.Reason != "" {
		fmt.Fprintf(&b, " reason=%q", r.Reason)
	}

	return Alert{Level: AlertInfo, Title: title, Message: b.String(), Trade: &ev}
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier. A nil logger uses slog.Default().
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	level := slog.LevelInfo
	switch alert.Level {
	case AlertWarning:
		level = slog.LevelWarn
	case AlertCritical:
		level = slog.LevelError
	}
	n.log.Log(ctx, level, "notify: "+alert.Title, "message", alert.Message)
	return nil
}

// Multi sends every alert to all backends.
type Multi []Notifier

// Send delivers to each backend and joins the errors.
func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
