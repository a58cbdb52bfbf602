package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/api"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/config"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/database"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/jobs"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/linking"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/notification"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/telegram"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/watcher"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Telegram bot client, shared by the webhook ack path and the
	// notification provider
	bot := telegram.NewClient(cfg.Telegram.BotToken)
	if cfg.Telegram.BotUsername != "" {
		bot.SetBotUsername(cfg.Telegram.BotUsername)
	}

	// Register notification providers
	notification.RegisterProvider(notification.NewSMTPProvider(cfg.SMTP))
	notification.RegisterProvider(notification.NewTelegramProvider(bot))
	dispatcher := notification.NewDispatcher()

	// Link token store shared by the webhook and the poll endpoint
	store := linking.NewGormStore(db)

	// Background jobs: page change watcher and link token sweep
	pageWatcher := watcher.NewWatcher(db, dispatcher)
	scheduler := jobs.NewScheduler(pageWatcher, store, cfg.LinkTokenTTL, cfg.WatchInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup API router
	router := api.NewRouter(cfg, db, store, bot, dispatcher)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
