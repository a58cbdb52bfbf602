package linking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// State describes where a linking session is in its lifecycle
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateLinked    State = "linked"
	StateCancelled State = "cancelled"
)

// DefaultPollInterval matches the dashboard's 2.5s polling cadence
const DefaultPollInterval = 2500 * time.Millisecond

// StatusPoller checks whether a token has been captured and consumed
type StatusPoller interface {
	LinkStatus(ctx context.Context, token string) (chatID string, linked bool, err error)
}

// Session drives one linking attempt: it owns a fresh token, the deep link
// presented to the user, and the polling loop that waits for the webhook
// capture. A session terminates as linked or cancelled and is never reused.
type Session struct {
	token    string
	deepLink string
	poller   StatusPoller
	interval time.Duration

	mu     sync.Mutex
	state  State
	chatID string

	cancelOnce sync.Once
	cancel     chan struct{}
	done       chan struct{}
}

// NewSession generates a token and prepares a session against the given bot
func NewSession(botUsername string, poller StatusPoller, interval time.Duration) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Session{
		token:    token,
		deepLink: DeepLink(botUsername, token),
		poller:   poller,
		interval: interval,
		state:    StateIdle,
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Token returns the session's link token
func (s *Session) Token() string { return s.token }

// DeepLink returns the t.me URI the user opens to reach the bot
func (s *Session) DeepLink() string { return s.deepLink }

// State returns the current session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChatID returns the captured chat id once the session is linked
func (s *Session) ChatID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID, s.state == StateLinked
}

// Done is closed when the session reaches linked or cancelled
func (s *Session) Done() <-chan struct{} { return s.done }

// Start begins polling. It returns immediately; the loop runs until the
// token is consumed, Cancel is called, or ctx expires.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StatePolling
	s.mu.Unlock()

	go s.run(ctx)
}

// Cancel stops polling and discards the token. The store entry, if any, is
// left for the TTL sweep; cancellation is purely client-local.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancel)
	})
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finish(StateCancelled, "")
			return
		case <-s.cancel:
			s.finish(StateCancelled, "")
			return
		case <-ticker.C:
			chatID, linked, err := s.poller.LinkStatus(ctx, s.token)
			if err != nil {
				log.Printf("Linking: poll failed: %v", err)
				continue
			}
			if linked {
				s.finish(StateLinked, chatID)
				return
			}
		}
	}
}

func (s *Session) finish(state State, chatID string) {
	s.mu.Lock()
	s.state = state
	s.chatID = chatID
	s.mu.Unlock()
	close(s.done)
}

// HTTPPoller polls the link-status endpoint of a webwatcher server
type HTTPPoller struct {
	BaseURL string
	Client  *http.Client
}

type linkStatusResponse struct {
	Status string `json:"status"`
	ChatID string `json:"chat_id"`
}

// LinkStatus calls GET /api/telegram/link-status for the token
func (p *HTTPPoller) LinkStatus(ctx context.Context, token string) (string, bool, error) {
	endpoint := fmt.Sprintf("%s/api/telegram/link-status?token=%s", p.BaseURL, url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, err
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("link status returned %d", resp.StatusCode)
	}

	var status linkStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", false, fmt.Errorf("failed to decode link status: %w", err)
	}

	if status.Status == "success" && status.ChatID != "" {
		return status.ChatID, true, nil
	}
	return "", false, nil
}
