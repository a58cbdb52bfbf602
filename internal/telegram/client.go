package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Client talks to the Telegram Bot API
type Client struct {
	botToken string
	apiBase  string
	http     *http.Client

	mu       sync.Mutex
	username string // getMe result, fetched once per process
}

// NewClient creates a Telegram Bot API client
func NewClient(botToken string) *Client {
	return &Client{
		botToken: botToken,
		apiBase:  defaultAPIBase,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBase creates a client against a custom API base URL, for tests
func NewClientWithBase(botToken, apiBase string) *Client {
	c := NewClient(botToken)
	c.apiBase = apiBase
	return c
}

// SetBotUsername preloads the bot username, skipping the getMe lookup
func (c *Client) SetBotUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
}

// Configured reports whether a bot token is present
func (c *Client) Configured() bool {
	return c.botToken != ""
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage sends a text message to a chat. parseMode may be empty,
// "Markdown" or "HTML".
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}

	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// SendMessageTo sends a text message to a chat identified by its string id,
// the form link tokens and monitor records carry.
func (c *Client) SendMessageTo(ctx context.Context, chatID, text, parseMode string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}

	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// BotUsername returns the bot's public username, fetching it from getMe on
// first use and caching it for the lifetime of the client.
func (c *Client) BotUsername(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.username != "" {
		return c.username, nil
	}

	result, err := c.call(ctx, "getMe", nil)
	if err != nil {
		return "", err
	}

	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(result, &me); err != nil {
		return "", fmt.Errorf("failed to decode getMe result: %w", err)
	}
	if me.Username == "" {
		return "", fmt.Errorf("getMe returned no username")
	}

	c.username = me.Username
	return c.username, nil
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	if c.botToken == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
		}
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}

	if !decoded.OK {
		return nil, fmt.Errorf("telegram %s error: %s", method, decoded.Description)
	}

	return decoded.Result, nil
}
