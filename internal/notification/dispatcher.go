package notification

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// Dispatcher fans a change summary out to every channel the monitor has
// enabled
type Dispatcher struct{}

// NewDispatcher creates a notification dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch sends the summary through each enabled provider concurrently and
// returns one human-readable result line per attempted channel.
func (d *Dispatcher) Dispatch(ctx context.Context, monitor *models.Monitor, summary string) []string {
	enabled := make([]Provider, 0, 2)
	for _, provider := range GetAllProviders() {
		if provider.Enabled(monitor) {
			enabled = append(enabled, provider)
		}
	}

	results := make([]string, len(enabled))
	var wg sync.WaitGroup
	for i, provider := range enabled {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			if err := p.Send(ctx, monitor, summary); err != nil {
				log.Printf("Notify: %s delivery failed for monitor %d: %v", p.Name(), monitor.ID, err)
				results[i] = fmt.Sprintf("%s failed: %v", p.Name(), err)
				return
			}
			results[i] = fmt.Sprintf("%s sent successfully", p.Name())
		}(i, provider)
	}
	wg.Wait()

	return results
}
