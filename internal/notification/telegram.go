package notification

import (
	"context"
	"fmt"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// ChatSender posts messages to Telegram chats by their string id
type ChatSender interface {
	SendMessageTo(ctx context.Context, chatID, text, parseMode string) error
	Configured() bool
}

// TelegramProvider sends change notifications to the chat captured during
// the linking handshake
type TelegramProvider struct {
	sender ChatSender
}

// NewTelegramProvider creates a Telegram notification provider
func NewTelegramProvider(sender ChatSender) *TelegramProvider {
	return &TelegramProvider{sender: sender}
}

func (t *TelegramProvider) Name() string {
	return "telegram"
}

func (t *TelegramProvider) Enabled(monitor *models.Monitor) bool {
	return monitor.TelegramNotificationsEnabled && monitor.TelegramChatID != ""
}

func (t *TelegramProvider) Send(ctx context.Context, monitor *models.Monitor, summary string) error {
	if !t.sender.Configured() {
		return fmt.Errorf("telegram bot is not configured")
	}
	if monitor.TelegramChatID == "" {
		return fmt.Errorf("monitor has no linked chat id")
	}

	text := fmt.Sprintf("🚨 *Web Watcher Update*\n\n*Page:* %s\n\n*Summary:*\n%s", monitor.URL, summary)

	if err := t.sender.SendMessageTo(ctx, monitor.TelegramChatID, text, "Markdown"); err != nil {
		return fmt.Errorf("failed to send Telegram notification: %w", err)
	}

	return nil
}
