package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// MonitorRequest is the payload for creating or updating a monitor
type MonitorRequest struct {
	URL                          string                 `json:"url"`
	RequiresLogin                bool                   `json:"requires_login"`
	HasCaptcha                   bool                   `json:"has_captcha"`
	Username                     string                 `json:"username"`
	Password                     string                 `json:"password"`
	CaptchaConfig                map[string]interface{} `json:"captcha_config"`
	EmailNotificationsEnabled    bool                   `json:"email_notifications_enabled"`
	TelegramNotificationsEnabled bool                   `json:"telegram_notifications_enabled"`
	TelegramChatID               string                 `json:"telegram_chat_id"`
}

// HandleGetMonitors returns all monitors owned by the current user
func HandleGetMonitors(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())

		var monitors []models.Monitor
		err := db.Where("user_email = ?", identity.Email).
			Order("created_at DESC").
			Find(&monitors).Error
		if err != nil {
			log.Println("Monitors: failed to list:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch monitors"})
			return
		}

		writeJSON(w, http.StatusOK, monitors)
	}
}

// HandleCreateMonitor creates a new monitor, enforcing the per-user quota
func HandleCreateMonitor(db *gorm.DB, monitorLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())

		var req MonitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
			return
		}

		var count int64
		if err := db.Model(&models.Monitor{}).Where("user_email = ?", identity.Email).Count(&count).Error; err != nil {
			log.Println("Monitors: failed to count:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create monitor"})
			return
		}
		if count >= int64(monitorLimit) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "You have reached the maximum limit of monitored pages.",
			})
			return
		}

		mon := models.Monitor{
			UserEmail:                    identity.Email,
			URL:                          req.URL,
			RequiresLogin:                req.RequiresLogin,
			HasCaptcha:                   req.HasCaptcha,
			Username:                     req.Username,
			Password:                     req.Password,
			CaptchaConfig:                req.CaptchaConfig,
			EmailNotificationsEnabled:    req.EmailNotificationsEnabled,
			TelegramNotificationsEnabled: req.TelegramNotificationsEnabled,
			TelegramChatID:               req.TelegramChatID,
			LatestSummary:                "Pending first run...",
			IsFirstRun:                   true,
			Active:                       true,
			CreatedAt:                    time.Now(),
			UpdatedAt:                    time.Now(),
		}

		if err := db.Create(&mon).Error; err != nil {
			log.Println("Monitors: failed to create:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create monitor"})
			return
		}

		writeJSON(w, http.StatusCreated, mon)
	}
}

// HandleUpdateMonitor updates an existing monitor owned by the current user
func HandleUpdateMonitor(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		monitorID := chi.URLParam(r, "id")

		var mon models.Monitor
		err := db.Where("id = ? AND user_email = ?", monitorID, identity.Email).First(&mon).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Monitor not found"})
			} else {
				log.Println("Monitors: failed to load:", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update monitor"})
			}
			return
		}

		var req MonitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
			return
		}

		// A URL change invalidates the stored snapshot
		if req.URL != mon.URL {
			mon.LastScrapedText = ""
			mon.LatestSummary = "Pending first run..."
			mon.IsFirstRun = true
		}

		mon.URL = req.URL
		mon.RequiresLogin = req.RequiresLogin
		mon.HasCaptcha = req.HasCaptcha
		mon.Username = req.Username
		if req.Password != "" {
			mon.Password = req.Password
		}
		mon.CaptchaConfig = req.CaptchaConfig
		mon.EmailNotificationsEnabled = req.EmailNotificationsEnabled
		mon.TelegramNotificationsEnabled = req.TelegramNotificationsEnabled
		mon.TelegramChatID = req.TelegramChatID
		mon.UpdatedAt = time.Now()

		if err := db.Save(&mon).Error; err != nil {
			log.Println("Monitors: failed to update:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update monitor"})
			return
		}

		writeJSON(w, http.StatusOK, mon)
	}
}

// HandleToggleMonitor flips a monitor's active flag
func HandleToggleMonitor(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		monitorID := chi.URLParam(r, "id")

		var mon models.Monitor
		err := db.Where("id = ? AND user_email = ?", monitorID, identity.Email).First(&mon).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Monitor not found"})
			} else {
				log.Println("Monitors: failed to load:", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to toggle monitor"})
			}
			return
		}

		mon.Active = !mon.Active
		mon.UpdatedAt = time.Now()

		if err := db.Save(&mon).Error; err != nil {
			log.Println("Monitors: failed to toggle:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to toggle monitor"})
			return
		}

		writeJSON(w, http.StatusOK, mon)
	}
}

// HandleDeleteMonitor deletes a monitor owned by the current user
func HandleDeleteMonitor(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		monitorID := chi.URLParam(r, "id")

		result := db.Where("id = ? AND user_email = ?", monitorID, identity.Email).Delete(&models.Monitor{})
		if result.Error != nil {
			log.Println("Monitors: failed to delete:", result.Error)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete monitor"})
			return
		}
		if result.RowsAffected == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Monitor not found or unauthorized"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Monitor deleted successfully"})
	}
}
