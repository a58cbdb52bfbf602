package watcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/notification"
)

const maxPageBytes = 2 << 20

// Watcher periodically fetches every active monitor's page and dispatches
// notifications when the content changes
type Watcher struct {
	db         *gorm.DB
	dispatcher *notification.Dispatcher
	client     *http.Client
}

// NewWatcher creates a change watcher
func NewWatcher(db *gorm.DB, dispatcher *notification.Dispatcher) *Watcher {
	return &Watcher{
		db:         db,
		dispatcher: dispatcher,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// RunOnce scans all active monitors sequentially. Failures are per-monitor:
// one unreachable page never stops the sweep.
func (w *Watcher) RunOnce(ctx context.Context) {
	var monitors []models.Monitor
	err := w.db.WithContext(ctx).Where("active = ?", true).Find(&monitors).Error
	if err != nil {
		log.Println("Watcher: failed to load monitors:", err)
		return
	}

	for i := range monitors {
		if ctx.Err() != nil {
			return
		}
		if err := w.checkMonitor(ctx, &monitors[i]); err != nil {
			log.Printf("Watcher: monitor %d (%s): %v", monitors[i].ID, monitors[i].URL, err)
		}
	}
}

func (w *Watcher) checkMonitor(ctx context.Context, mon *models.Monitor) error {
	text, err := w.fetchPage(ctx, mon.URL)
	if err != nil {
		return err
	}

	if mon.IsFirstRun {
		// Baseline capture, nothing to compare against yet
		return w.db.WithContext(ctx).Model(mon).Updates(map[string]interface{}{
			"last_scraped_text": text,
			"latest_summary":    "Baseline captured. Watching for changes.",
			"is_first_run":      false,
			"updated_at":        time.Now(),
		}).Error
	}

	if text == mon.LastScrapedText {
		return nil
	}

	summary := Summarize(mon.LastScrapedText, text)
	results := w.dispatcher.Dispatch(ctx, mon, summary)
	log.Printf("Watcher: change on monitor %d (%s), notified: %v", mon.ID, mon.URL, results)

	return w.db.WithContext(ctx).Model(mon).Updates(map[string]interface{}{
		"last_scraped_text": text,
		"latest_summary":    summary,
		"updated_at":        time.Now(),
	}).Error
}

func (w *Watcher) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "webwatcher/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	return ExtractText(string(body)), nil
}
