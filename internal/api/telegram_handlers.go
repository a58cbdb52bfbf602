package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/linking"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/telegram"
)

const (
	telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxWebhookBodyBytes  = 1 << 20

	linkedReply = "✅ Authentication Successful!\n\n" +
		"Your Telegram account is now linked to the Web Watcher dashboard. " +
		"Your chat ID has been captured automatically.\n\n" +
		"You can close this chat and return to the dashboard."

	welcomeReply = "Welcome to the Web Watcher bot! " +
		"Start the connection process from the dashboard to link your account."
)

// Messenger sends messages back to Telegram chats
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// BotIdentity resolves the bot's public username
type BotIdentity interface {
	BotUsername(ctx context.Context) (string, error)
}

// HandleTelegramWebhook ingests Telegram updates. Once a request is
// accepted as coming from Telegram, the handler answers 200 no matter what
// happens internally: any other status makes Telegram redeliver the update
// indefinitely.
func HandleTelegramWebhook(store linking.Store, bot Messenger, webhookSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Deliveries that fail the secret check are not from Telegram, so
		// the always-200 contract does not apply to them.
		if webhookSecret != "" && r.Header.Get(telegramSecretHeader) != webhookSecret {
			log.Println("Webhook: rejected delivery with bad secret token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			log.Println("Webhook: failed to read body:", err)
			acknowledge(w, "Error logged")
			return
		}

		var update telegram.Update
		if err := json.Unmarshal(body, &update); err != nil {
			log.Println("Webhook: malformed update payload:", err)
			acknowledge(w, "Error logged")
			return
		}

		if update.Message == nil || update.Message.Text == "" {
			acknowledge(w, "OK")
			return
		}

		chatID := update.Message.Chat.ID
		token, isStart := telegram.StartToken(update.Message.Text)

		if !isStart || token == "" {
			// Anything that is not a deep-linked start gets static guidance
			reply(bot, chatID, welcomeReply)
			acknowledge(w, "OK")
			return
		}

		if err := store.Put(r.Context(), token, strconv.FormatInt(chatID, 10)); err != nil {
			log.Printf("Webhook: failed to store chat id for token: %v", err)
			acknowledge(w, "Error logged")
			return
		}

		reply(bot, chatID, linkedReply)
		acknowledge(w, "OK")
	}
}

func reply(bot Messenger, chatID int64, text string) {
	if bot == nil {
		return
	}
	if err := bot.SendMessage(context.Background(), chatID, text, ""); err != nil {
		log.Printf("Webhook: failed to send reply to chat %d: %v", chatID, err)
	}
}

func acknowledge(w http.ResponseWriter, body string) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// LinkStatusResponse is the poll endpoint's JSON body
type LinkStatusResponse struct {
	Status string `json:"status"`
	ChatID string `json:"chat_id,omitempty"`
}

// HandleLinkStatus reports whether a link token has been captured,
// consuming it on success. Unknown tokens and not-yet-captured tokens are
// both reported as pending so an unauthenticated caller learns nothing
// about store state.
func HandleLinkStatus(store linking.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Token is required"})
			return
		}

		chatID, ok, err := store.TakeIfCaptured(r.Context(), token)
		if err != nil {
			log.Println("LinkStatus: store lookup failed:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to query link status"})
			return
		}

		if !ok {
			writeJSON(w, http.StatusOK, LinkStatusResponse{Status: "pending"})
			return
		}

		writeJSON(w, http.StatusOK, LinkStatusResponse{Status: "success", ChatID: chatID})
	}
}

// BotInfoResponse describes the bot identity used for deep links
type BotInfoResponse struct {
	Username string `json:"username"`
}

// HandleBotInfo returns the bot's username for deep-link construction.
// The username is cached behind the BotIdentity implementation, so this is
// a network call at most once per process.
func HandleBotInfo(bot BotIdentity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := bot.BotUsername(r.Context())
		if err != nil {
			log.Println("BotInfo: failed to resolve bot username:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Bot identity unavailable"})
			return
		}

		writeJSON(w, http.StatusOK, BotInfoResponse{Username: username})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
