package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// AccountSummary aggregates a user's footprint for the admin listing
type AccountSummary struct {
	UserEmail    string `json:"user_email"`
	MonitorCount int64  `json:"monitor_count"`
}

func requireAdmin(w http.ResponseWriter, r *http.Request, adminEmail string) bool {
	identity := IdentityFromContext(r.Context())
	if adminEmail == "" || !strings.EqualFold(identity.Email, adminEmail) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Unauthorized."})
		return false
	}
	return true
}

// HandleAdminListAccounts lists every account with its monitor count
func HandleAdminListAccounts(db *gorm.DB, adminEmail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r, adminEmail) {
			return
		}

		var accounts []AccountSummary
		err := db.Model(&models.Monitor{}).
			Select("user_email, COUNT(*) AS monitor_count").
			Group("user_email").
			Order("user_email").
			Scan(&accounts).Error
		if err != nil {
			log.Println("Admin: failed to list accounts:", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list accounts"})
			return
		}

		writeJSON(w, http.StatusOK, accounts)
	}
}

// HandleAdminDeleteAccount removes every monitor belonging to an account.
// The admin account itself cannot be deleted.
func HandleAdminDeleteAccount(db *gorm.DB, adminEmail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r, adminEmail) {
			return
		}

		var req struct {
			TargetEmail string `json:"target_email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetEmail == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Target email is required"})
			return
		}

		if strings.EqualFold(req.TargetEmail, adminEmail) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Cannot delete the admin account."})
			return
		}

		result := db.Where("user_email = ?", strings.ToLower(req.TargetEmail)).Delete(&models.Monitor{})
		if result.Error != nil {
			log.Println("Admin: failed to delete account:", result.Error)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete account"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Account for %s deleted. Removed %d monitors.", req.TargetEmail, result.RowsAffected),
		})
	}
}
