package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/config"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/linking"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/notification"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/telegram"
)

// NewRouter creates a new HTTP router
func NewRouter(cfg *config.Config, db *gorm.DB, store linking.Store, bot *telegram.Client, dispatcher *notification.Dispatcher) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handshakeLimiter := NewRateLimiter(5, 10)
	handshakeLimiter.CleanupOldLimiters()

	r.Route("/api", func(r chi.Router) {
		// Linking handshake and notification fan-out. Unauthenticated: the
		// webhook is called by Telegram, the poll endpoint by a browser that
		// only holds a token, and notify by the scraping pipeline.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(handshakeLimiter))

			r.Post("/telegram/webhook", HandleTelegramWebhook(store, bot, cfg.Telegram.WebhookSecret))
			r.Get("/telegram/link-status", HandleLinkStatus(store))
			r.Get("/telegram/bot-info", HandleBotInfo(bot))
			r.Post("/notify", HandleNotify(db, dispatcher))
		})

		// Identity-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware())

			r.Get("/monitors", HandleGetMonitors(db))
			r.Post("/monitors", HandleCreateMonitor(db, cfg.MonitorLimit))
			r.Put("/monitors/{id}", HandleUpdateMonitor(db))
			r.Post("/monitors/{id}/toggle", HandleToggleMonitor(db))
			r.Delete("/monitors/{id}", HandleDeleteMonitor(db))

			r.Get("/admin/accounts", HandleAdminListAccounts(db, cfg.AdminEmail))
			r.Post("/admin/delete-account", HandleAdminDeleteAccount(db, cfg.AdminEmail))
		})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
