package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiter_AllowsWithinLimit(t *testing.T) {
	cfg := &rateLimiterConfig{enabled: true, requestsPerIP: 3, window: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := newIPRateLimiter(ctx, cfg)

	for i := 0; i < 3; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("request over limit allowed")
	}
	// Each IP is counted separately.
	if !rl.allow("5.6.7.8") {
		t.Error("separate IP denied")
	}
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	cfg := &rateLimiterConfig{enabled: false, requestsPerIP: 1, window: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := newIPRateLimiter(ctx, cfg)

	for i := 0; i < 10; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatal("disabled limiter denied request")
		}
	}
}

func TestRateLimitMiddleware_TooManyRequests(t *testing.T) {
	cfg := &rateLimiterConfig{enabled: true, requestsPerIP: 1, window: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := newIPRateLimiter(ctx, cfg)

	handler := rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), rl)

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in         string
		defaultVal int
		want       int
	}{
		{"42", 7, 42},
		{"not-a-number", 7, 7},
		{"", 7, 7},
		{"-3", 7, -3},
	}
	for _, tt := range tests {
		if got := parseInt(tt.in, tt.defaultVal); got != tt.want {
			t.Errorf("parseInt(%q, %d) = %d, want %d", tt.in, tt.defaultVal, got, tt.want)
		}
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"https://example.com", "*.suibot.dev"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://example.com", true},
		{"https://evil.com", false},
		{"https://chat.suibot.dev", true},
		{"https://suibot.dev.evil.com", false},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestWithCORSConfig_Permissive(t *testing.T) {
	cfg := &corsConfig{permissive: true}
	handler := withCORSConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), cfg)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestWithCORSConfig_Preflight(t *testing.T) {
	cfg := &corsConfig{permissive: true}
	handler := withCORSConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the inner handler")
	}), cfg)

	req := httptest.NewRequest(http.MethodOptions, "/run", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}
