package linking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

func newTestGormStore(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.LinkToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormStore(db), db
}

func TestTakeIfCapturedUnknownToken(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		chatID, ok, err := store.TakeIfCaptured(context.Background(), "never-sent")
		if err != nil {
			t.Fatalf("take: %v", err)
		}
		if ok || chatID != "" {
			t.Fatalf("expected pending for unknown token, got %q", chatID)
		}
	}
}

func TestPutThenTakeConsumes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "T1", "12345"); err != nil {
		t.Fatalf("put: %v", err)
	}

	chatID, ok, err := store.TakeIfCaptured(ctx, "T1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !ok || chatID != "12345" {
		t.Fatalf("expected chat id 12345, got %q (ok=%v)", chatID, ok)
	}

	// Consumption is terminal
	_, ok, err = store.TakeIfCaptured(ctx, "T1")
	if err != nil {
		t.Fatalf("second take: %v", err)
	}
	if ok {
		t.Fatal("token was delivered twice")
	}
}

func TestPutIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "T1", "12345"); err != nil {
		t.Fatalf("put: %v", err)
	}
	created, ok := store.CreatedAt("T1")
	if !ok {
		t.Fatal("token missing after put")
	}

	time.Sleep(5 * time.Millisecond)
	if err := store.Put(ctx, "T1", "12345"); err != nil {
		t.Fatalf("second put: %v", err)
	}

	createdAgain, _ := store.CreatedAt("T1")
	if !createdAgain.Equal(created) {
		t.Fatalf("created_at changed on upsert: %v != %v", createdAgain, created)
	}

	chatID, ok, _ := store.TakeIfCaptured(ctx, "T1")
	if !ok || chatID != "12345" {
		t.Fatalf("expected single entry with chat id 12345, got %q", chatID)
	}
	if _, ok, _ := store.TakeIfCaptured(ctx, "T1"); ok {
		t.Fatal("duplicate puts created a second consumable entry")
	}
}

func TestConcurrentTakeExactlyOneWinner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "T1", "12345"); err != nil {
		t.Fatalf("put: %v", err)
	}

	const callers = 32
	var wg sync.WaitGroup
	wins := make(chan string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if chatID, ok, err := store.TakeIfCaptured(ctx, "T1"); err == nil && ok {
				wins <- chatID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for chatID := range wins {
		winners = append(winners, chatID)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}
	if winners[0] != "12345" {
		t.Fatalf("winner got wrong chat id %q", winners[0])
	}
}

func TestGormStoreLifecycle(t *testing.T) {
	store, db := newTestGormStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "T1", "12345"); err != nil {
		t.Fatalf("put: %v", err)
	}

	var row models.LinkToken
	if err := db.Where("token = ?", "T1").First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	created := row.CreatedAt

	// Re-capture must overwrite chat_id only
	if err := store.Put(ctx, "T1", "67890"); err != nil {
		t.Fatalf("second put: %v", err)
	}

	var rows []models.LinkToken
	if err := db.Where("token = ?", "T1").Find(&rows).Error; err != nil {
		t.Fatalf("reload rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row per token, got %d", len(rows))
	}
	if rows[0].ChatID == nil || *rows[0].ChatID != "67890" {
		t.Fatalf("chat id not overwritten: %v", rows[0].ChatID)
	}
	if !rows[0].CreatedAt.Equal(created) {
		t.Fatalf("created_at reset by upsert: %v != %v", rows[0].CreatedAt, created)
	}

	chatID, ok, err := store.TakeIfCaptured(ctx, "T1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !ok || chatID != "67890" {
		t.Fatalf("expected chat id 67890, got %q (ok=%v)", chatID, ok)
	}

	if _, ok, _ := store.TakeIfCaptured(ctx, "T1"); ok {
		t.Fatal("consumed token still present")
	}
}

func TestGormStoreDeleteOlderThan(t *testing.T) {
	store, db := newTestGormStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "old", "1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "fresh", "2"); err != nil {
		t.Fatalf("put: %v", err)
	}

	stale := time.Now().UTC().Add(-time.Hour)
	if err := db.Model(&models.LinkToken{}).Where("token = ?", "old").Update("created_at", stale).Error; err != nil {
		t.Fatalf("age row: %v", err)
	}

	removed, err := store.DeleteOlderThan(ctx, time.Now().UTC().Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	if _, ok, _ := store.TakeIfCaptured(ctx, "old"); ok {
		t.Fatal("expired token survived the sweep")
	}
	if _, ok, _ := store.TakeIfCaptured(ctx, "fresh"); !ok {
		t.Fatal("fresh token was swept")
	}
}
