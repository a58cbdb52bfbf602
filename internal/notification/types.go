package notification

import (
	"context"
	"sync"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// Provider defines the interface for all notification providers
type Provider interface {
	// Name returns the unique identifier for this provider
	Name() string

	// Enabled reports whether the monitor has opted into this channel
	Enabled(monitor *models.Monitor) bool

	// Send delivers a change notification for the monitor
	Send(ctx context.Context, monitor *models.Monitor, summary string) error
}

// Registry holds all registered notification providers
var (
	providers = make(map[string]Provider)
	mu        sync.RWMutex
)

// RegisterProvider registers a notification provider
func RegisterProvider(provider Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[provider.Name()] = provider
}

// GetProvider returns a provider by name
func GetProvider(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	provider, ok := providers[name]
	return provider, ok
}

// GetAllProviders returns all registered providers
func GetAllProviders() []Provider {
	mu.RLock()
	defer mu.RUnlock()
	result := make([]Provider, 0, len(providers))
	for _, p := range providers {
		result = append(result, p)
	}
	return result
}

// ResetProviders clears the registry, for tests
func ResetProviders() {
	mu.Lock()
	defer mu.Unlock()
	providers = make(map[string]Provider)
}
