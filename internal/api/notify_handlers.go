package api

import (
	"encoding/json"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/notification"
)

// NotifyRequest asks for a change summary to be fanned out for a monitor.
// The scraping pipeline posts here after detecting a change.
type NotifyRequest struct {
	MonitorID int    `json:"monitor_id"`
	Summary   string `json:"summary"`
}

// NotifyResponse reports the per-channel delivery outcomes
type NotifyResponse struct {
	Message string   `json:"message"`
	Results []string `json:"results"`
}

// HandleNotify dispatches a change summary to the monitor's enabled channels
func HandleNotify(db *gorm.DB, dispatcher *notification.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NotifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
		if req.MonitorID == 0 || req.Summary == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "monitor_id and summary are required"})
			return
		}

		var mon models.Monitor
		if err := db.First(&mon, req.MonitorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Monitor not found"})
			} else {
				log.Println("Notify: failed to load monitor:", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load monitor"})
			}
			return
		}

		results := dispatcher.Dispatch(r.Context(), &mon, req.Summary)

		writeJSON(w, http.StatusOK, NotifyResponse{
			Message: "Notifications processed",
			Results: results,
		})
	}
}
