package notification

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"momentum-signalv1/internal/model"
)

// WebhookNotifier posts alerts as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

type webhookPayload struct {
	Level   AlertLevel        `json:"level"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	TS      string            `json:"ts"`
	Trade   *model.TradeEvent `json:"trade,omitempty"`
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: newHTTPClient(), now: time.Now}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	err := postJSON(ctx, w.client, "webhook", w.url, webhookPayload{
		Level:   alert.Level,
		Title:   alert.Title,
		Message: alert.Message,
		TS:      w.now().UTC().Format(time.RFC3339Nano),
		Trade:   alert.Trade,
	})
	if err != nil {
		return err
	}
	slog.Debug("webhook: sent alert", "url", w.url, "title", alert.Title)
	return nil
}
