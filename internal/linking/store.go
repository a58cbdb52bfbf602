package linking

import (
	"context"
	"time"
)

// Store persists link tokens between the dashboard and the bot webhook.
// Put and TakeIfCaptured are the only two mutations the handshake performs;
// DeleteOlderThan is the sweep that reclaims abandoned tokens.
type Store interface {
	// Put records the chat id captured for a token. Creating the row when
	// absent and overwriting only the chat id when present, so repeated
	// /start deliveries for the same token stay idempotent and the original
	// creation time survives.
	Put(ctx context.Context, token, chatID string) error

	// TakeIfCaptured atomically removes the token and returns its chat id
	// when one has been captured. A token that is unknown or not yet
	// captured reports ok=false without mutating anything. No two callers
	// can both receive the chat id for the same token.
	TakeIfCaptured(ctx context.Context, token string) (chatID string, ok bool, err error)

	// DeleteOlderThan removes every token created before cutoff regardless
	// of capture state, returning the number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
