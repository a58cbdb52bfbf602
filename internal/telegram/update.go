package telegram

import "strings"

// Update represents an inbound Telegram webhook payload
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message represents a Telegram message
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat represents the Telegram chat a message arrived from
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// StartToken extracts the deep-link payload from a "/start <token>" command.
// It returns ok=false for anything that is not a start command, and an
// empty token for a bare /start.
func StartToken(text string) (token string, ok bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return "", false
	}

	command := fields[0]
	if idx := strings.Index(command, "@"); idx != -1 {
		command = command[:idx]
	}
	if command != "/start" {
		return "", false
	}

	if len(fields) > 1 {
		return fields[1], true
	}
	return "", true
}
