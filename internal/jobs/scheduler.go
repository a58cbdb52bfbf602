package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/linking"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/watcher"
)

// Scheduler manages background jobs
type Scheduler struct {
	cron         *cron.Cron
	watcher      *watcher.Watcher
	linkStore    linking.Store
	linkTokenTTL time.Duration
	watchEvery   time.Duration
}

// NewScheduler creates a new job scheduler
func NewScheduler(w *watcher.Watcher, linkStore linking.Store, linkTokenTTL, watchEvery time.Duration) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		watcher:      w,
		linkStore:    linkStore,
		linkTokenTTL: linkTokenTTL,
		watchEvery:   watchEvery,
	}
}

// Start registers and starts the background jobs
func (s *Scheduler) Start() {
	// Scan monitored pages for changes
	s.cron.AddFunc(fmt.Sprintf("@every %s", s.watchEvery), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.watchEvery)
		defer cancel()
		s.watcher.RunOnce(ctx)
	})

	// Reclaim abandoned link tokens. Tokens have no server-side consumer
	// once the dashboard stops polling, so age is the only expiry signal.
	s.cron.AddFunc("@every 10m", s.sweepLinkTokens)

	s.cron.Start()
	log.Println("Job scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Job scheduler stopped")
}

func (s *Scheduler) sweepLinkTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.linkTokenTTL)
	removed, err := s.linkStore.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Println("Link token sweep: failed to delete expired tokens:", err)
		return
	}
	if removed > 0 {
		log.Printf("Link token sweep: deleted %d expired tokens", removed)
	}
}
