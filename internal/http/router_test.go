package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/realtime"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/services"
	"github.com/tbourn/go-social-backend/internal/ws"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.HMACVerifier, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := repo.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	// High enough that the tests themselves never trip the limiter.
	cfg.RateRPS = 1000
	cfg.RateBurst = 1000

	verifier := auth.NewHMACVerifier("router-test-secret")
	reg := realtime.NewRegistry()
	router := realtime.NewRouter(reg)
	presence := realtime.NewPresence(reg, router, services.GormStatusStore{DB: db})
	wsHandler := ws.NewHandler(verifier, presence, cfg.WS)

	r := gin.New()
	RegisterRoutes(r, db, presence, verifier, wsHandler, cfg)
	return r, verifier, db
}

func bearer(t *testing.T, v *auth.HMACVerifier, userID string) string {
	t.Helper()
	tok, err := v.Issue(userID, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok
}

func TestRouter_Health(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_") {
		t.Fatalf("metrics body does not look like a Prometheus exposition")
	}
}

func TestRouter_NoRouteEnvelope(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var e struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Code != "not_found" {
		t.Fatalf("body = %s err=%v", w.Body.String(), err)
	}
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r, verifier, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/online", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("without token: %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/presence/online", nil)
	req.Header.Set("Authorization", bearer(t, verifier, "u1"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("with token: %d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_StatusRoundTrip(t *testing.T) {
	r, verifier, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/status", strings.NewReader(`{"status":"away"}`))
	req.Header.Set("Authorization", bearer(t, verifier, "u1"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status/u1", nil)
	req.Header.Set("Authorization", bearer(t, verifier, "u2"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d body=%s", w.Code, w.Body.String())
	}
	var row struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &row); err != nil || row.Status != "away" {
		t.Fatalf("body = %s err=%v", w.Body.String(), err)
	}
}

func TestRouter_LikeFlow(t *testing.T) {
	r, verifier, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/lucky", nil)
	req.Header.Set("Authorization", bearer(t, verifier, "fan"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("like = %d body=%s", w.Code, w.Body.String())
	}

	// The liked user sees one notification.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", bearer(t, verifier, "lucky"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var list struct {
		Notifications []struct {
			Type string `json:"type"`
		} `json:"notifications"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Notifications) != 1 || list.Notifications[0].Type != "like" {
		t.Fatalf("notifications = %+v", list.Notifications)
	}

	// Unlike removes the relationship.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/likes/lucky", nil)
	req.Header.Set("Authorization", bearer(t, verifier, "fan"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unlike = %d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_CORSWildcardByDefault(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q, want *", got)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}
