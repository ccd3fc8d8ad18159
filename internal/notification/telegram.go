package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"momentum-signalv1/internal/model"
)

// DefaultTelegramAPI is the Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// MarkdownV2 reserved characters.
const markdownV2Specials = "_*[]()~`>#+-=|{}.!"

// TelegramNotifier posts alerts to one chat through the Bot API.
type TelegramNotifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

type sendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewTelegramNotifier creates a notifier for the bot token and target chat.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase:  DefaultTelegramAPI,
		botToken: botToken,
		chatID:   chatID,
		client:   newHTTPClient(),
	}
}

// WithAPIBase points the notifier at another Bot API host.
func (t *TelegramNotifier) WithAPIBase(base string) *TelegramNotifier {
	t.apiBase = strings.TrimRight(base, "/")
	return t
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	msg := sendMessage{
		ChatID:    t.chatID,
		Text:      fmt.Sprintf("%s *%s*\n\n%s", alertIcon(alert), escapeMarkdown(alert.Title), escapeMarkdown(alert.Message)),
		ParseMode: "MarkdownV2",
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	if err := postJSON(ctx, t.client, "telegram", url, msg); err != nil {
		return err
	}
	slog.Debug("telegram: sent alert", "title", alert.Title)
	return nil
}

// alertIcon picks the leading emoji. Severity wins over trade direction.
func alertIcon(a Alert) string {
	switch a.Level {
	case AlertWarning:
		return "⚠️"
	case AlertCritical:
		return "🚨"
	}
	if a.Trade != nil {
		switch a.Trade.Type {
		case model.ActionBuy:
			return "🟢"
		case model.ActionSell:
			return "🔴"
		}
	}
	return "ℹ️"
}

func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
