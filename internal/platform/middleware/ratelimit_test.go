package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicbot/clinic/internal/platform/auth"
)

func runLimited(t *testing.T, h echo.HandlerFunc, ip, userID string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		if _, err := runLimited(t, h, "10.0.0.1", ""); err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
	}

	rec, err := runLimited(t, h, "10.0.0.1", "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// a different caller has its own budget
	if _, err := runLimited(t, h, "10.0.0.2", ""); err != nil {
		t.Errorf("other ip should pass, got %v", err)
	}
}

func TestRateLimit_KeysByUser(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if _, err := runLimited(t, h, "10.0.0.1", "user-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// same IP, different user
	if _, err := runLimited(t, h, "10.0.0.1", "user-b"); err != nil {
		t.Fatalf("expected separate budget per user, got %v", err)
	}
	if _, err := runLimited(t, h, "10.0.0.9", "user-a"); err == nil {
		t.Fatal("expected user-a to be limited from any address")
	}
}

func TestLimiterStore_DropsIdleVisitors(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.get("a")
	now = now.Add(2 * time.Minute)
	store.get("b")

	if _, ok := store.visitors["a"]; ok {
		t.Error("expected idle visitor to be dropped")
	}
	if len(store.visitors) != 1 {
		t.Errorf("expected 1 visitor, got %d", len(store.visitors))
	}
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	h := SecurityHeaders()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}
