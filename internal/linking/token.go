package linking

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
)

// NewToken generates a fresh 128-bit link token. Tokens are never reused
// across linking attempts; a retry always calls NewToken again.
func NewToken() (string, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("failed to generate link token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(seed), nil
}

// DeepLink builds the t.me URI that opens a chat with the bot and delivers
// the token through the /start payload.
func DeepLink(botUsername, token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, url.QueryEscape(token))
}
