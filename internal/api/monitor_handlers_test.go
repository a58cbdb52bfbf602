package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Monitor{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newMonitorRouter(t *testing.T, db *gorm.DB, limit int) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware())
		r.Get("/monitors", HandleGetMonitors(db))
		r.Post("/monitors", HandleCreateMonitor(db, limit))
		r.Put("/monitors/{id}", HandleUpdateMonitor(db))
		r.Post("/monitors/{id}/toggle", HandleToggleMonitor(db))
		r.Delete("/monitors/{id}", HandleDeleteMonitor(db))
	})
	return r
}

func bearerFor(t *testing.T, email string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"name":  "Test User",
	}).SignedString([]byte("external-idp-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func doRequest(router http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListMonitors(t *testing.T) {
	db := newTestDB(t)
	router := newMonitorRouter(t, db, 10)
	auth := bearerFor(t, "alice@example.com")

	rec := doRequest(router, http.MethodPost, "/monitors", auth,
		`{"url":"https://example.com/news","email_notifications_enabled":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Monitor
	json.Unmarshal(rec.Body.Bytes(), &created)
	if !created.IsFirstRun || !created.Active {
		t.Fatalf("new monitor has wrong defaults: %+v", created)
	}

	rec = doRequest(router, http.MethodGet, "/monitors", auth, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	var monitors []models.Monitor
	json.Unmarshal(rec.Body.Bytes(), &monitors)
	if len(monitors) != 1 || monitors[0].URL != "https://example.com/news" {
		t.Fatalf("unexpected listing %+v", monitors)
	}

	// Another user sees nothing
	rec = doRequest(router, http.MethodGet, "/monitors", bearerFor(t, "bob@example.com"), "")
	json.Unmarshal(rec.Body.Bytes(), &monitors)
	if len(monitors) != 0 {
		t.Fatalf("listing leaked across owners: %+v", monitors)
	}
}

func TestCreateMonitorQuota(t *testing.T) {
	db := newTestDB(t)
	router := newMonitorRouter(t, db, 2)
	auth := bearerFor(t, "alice@example.com")

	for i := 0; i < 2; i++ {
		rec := doRequest(router, http.MethodPost, "/monitors", auth,
			fmt.Sprintf(`{"url":"https://example.com/%d"}`, i))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d returned %d", i, rec.Code)
		}
	}

	rec := doRequest(router, http.MethodPost, "/monitors", auth, `{"url":"https://example.com/over"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 over quota, got %d", rec.Code)
	}

	// The quota is per owner
	rec = doRequest(router, http.MethodPost, "/monitors", bearerFor(t, "bob@example.com"), `{"url":"https://example.com/x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("other owner blocked by foreign quota: %d", rec.Code)
	}
}

func TestCreateMonitorRequiresURL(t *testing.T) {
	router := newMonitorRouter(t, newTestDB(t), 10)

	rec := doRequest(router, http.MethodPost, "/monitors", bearerFor(t, "alice@example.com"), `{"url":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing url, got %d", rec.Code)
	}
}

func TestMonitorOwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	router := newMonitorRouter(t, db, 10)

	rec := doRequest(router, http.MethodPost, "/monitors", bearerFor(t, "alice@example.com"), `{"url":"https://example.com"}`)
	var created models.Monitor
	json.Unmarshal(rec.Body.Bytes(), &created)

	bob := bearerFor(t, "bob@example.com")
	path := fmt.Sprintf("/monitors/%d", created.ID)

	if rec := doRequest(router, http.MethodDelete, path, bob, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete returned %d", rec.Code)
	}
	if rec := doRequest(router, http.MethodPut, path, bob, `{"url":"https://evil.example"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update returned %d", rec.Code)
	}
	if rec := doRequest(router, http.MethodPost, path+"/toggle", bob, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign toggle returned %d", rec.Code)
	}

	// Owner still has it
	alice := bearerFor(t, "alice@example.com")
	if rec := doRequest(router, http.MethodDelete, path, alice, ""); rec.Code != http.StatusOK {
		t.Fatalf("owner delete returned %d", rec.Code)
	}
}

func TestToggleMonitor(t *testing.T) {
	db := newTestDB(t)
	router := newMonitorRouter(t, db, 10)
	auth := bearerFor(t, "alice@example.com")

	rec := doRequest(router, http.MethodPost, "/monitors", auth, `{"url":"https://example.com"}`)
	var created models.Monitor
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(router, http.MethodPost, fmt.Sprintf("/monitors/%d/toggle", created.ID), auth, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle returned %d", rec.Code)
	}
	var toggled models.Monitor
	json.Unmarshal(rec.Body.Bytes(), &toggled)
	if toggled.Active {
		t.Fatal("toggle did not deactivate the monitor")
	}
}

func TestUpdateMonitorResetsSnapshotOnURLChange(t *testing.T) {
	db := newTestDB(t)
	router := newMonitorRouter(t, db, 10)
	auth := bearerFor(t, "alice@example.com")

	rec := doRequest(router, http.MethodPost, "/monitors", auth, `{"url":"https://example.com/a"}`)
	var created models.Monitor
	json.Unmarshal(rec.Body.Bytes(), &created)

	// Simulate a completed first run
	db.Model(&models.Monitor{}).Where("id = ?", created.ID).Updates(map[string]interface{}{
		"last_scraped_text": "old content",
		"is_first_run":      false,
	})

	rec = doRequest(router, http.MethodPut, fmt.Sprintf("/monitors/%d", created.ID), auth, `{"url":"https://example.com/b"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d", rec.Code)
	}

	var updated models.Monitor
	db.First(&updated, created.ID)
	if updated.LastScrapedText != "" || !updated.IsFirstRun {
		t.Fatalf("url change kept the stale snapshot: %+v", updated)
	}
}

func TestIdentityRequired(t *testing.T) {
	router := newMonitorRouter(t, newTestDB(t), 10)

	if rec := doRequest(router, http.MethodGet, "/monitors", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
	if rec := doRequest(router, http.MethodGet, "/monitors", "Bearer not-a-jwt", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}
}
