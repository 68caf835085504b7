package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/fintracker/internal/model"
)

func newTestLimiter(t *testing.T, general, auth int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(NewRateLimiterConfig(general, auth))
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func userRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

// --- GeneralMiddleware (ユーザー単位) のテスト ---

func TestGeneralMiddleware_AllowsBurstThenRejects(t *testing.T) {
	rl := newTestLimiter(t, 3, 10)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, userRequest("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("X-RateLimit-Limit = %q, want 3", got)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(2-i) {
			t.Errorf("request %d: X-RateLimit-Remaining = %q, want %d", i, got, 2-i)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 20 {
		t.Errorf("Retry-After = %q, want 1..20 seconds for 3/min", w.Header().Get("Retry-After"))
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q", body.Code)
	}
}

func TestGeneralMiddleware_IsolatesUsers(t *testing.T) {
	rl := newTestLimiter(t, 1, 10)
	handler := rl.GeneralMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("user-1 first request: %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("user-2 should have its own bucket, got %d", w.Code)
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

// --- AuthMiddleware (IP単位) のテスト ---

func TestAuthMiddleware_KeysByClientIP(t *testing.T) {
	rl := newTestLimiter(t, 60, 2)
	handler := rl.AuthMiddleware()(okHandler())

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	// 同一IPはポートが異なっても同じバケット
	if send("10.0.0.1:1111") != http.StatusOK || send("10.0.0.1:2222") != http.StatusOK {
		t.Fatal("first two requests should pass")
	}
	if code := send("10.0.0.1:3333"); code != http.StatusTooManyRequests {
		t.Errorf("third request from same IP: %d, want 429", code)
	}
	if code := send("10.0.0.2:1111"); code != http.StatusOK {
		t.Errorf("other IP: %d, want 200", code)
	}
	if rl.AuthLimiterCount() != 2 {
		t.Errorf("AuthLimiterCount = %d, want 2", rl.AuthLimiterCount())
	}
}

func TestAuthMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := newTestLimiter(t, 1, 1)

	req := userRequest("user-1")
	req.RemoteAddr = "10.0.0.9:1234"

	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("general: %d", w.Code)
	}

	w = httptest.NewRecorder()
	rl.AuthMiddleware()(okHandler()).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("auth bucket should be independent, got %d", w.Code)
	}
}

func TestRateLimiter_CleanupRemovesIdleEntries(t *testing.T) {
	rl := newTestLimiter(t, 10, 10)
	handler := rl.GeneralMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), userRequest("user-1"))

	rl.cleanup(time.Now())
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("fresh entry should survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * rl.config.CleanupInterval))
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("idle entry should be removed, count = %d", rl.GeneralLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.GeneralBurst != 60 || cfg.AuthBurst != 10 {
		t.Errorf("bursts = %d/%d, want 60/10", cfg.GeneralBurst, cfg.AuthBurst)
	}
	if cfg.GeneralRate != rate.Limit(1) {
		t.Errorf("GeneralRate = %v, want 1 req/sec", cfg.GeneralRate)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		tokens float64
		limit  rate.Limit
		want   int
	}{
		{0, rate.Limit(1), 1},
		{0, rate.Limit(0.25), 4},
		{0.5, rate.Limit(0.25), 2},
		{0.9, rate.Limit(1), 1},
		{0, 0, 60},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.tokens, tt.limit); got != tt.want {
			t.Errorf("retryAfter(%v, %v) = %d, want %d", tt.tokens, tt.limit, got, tt.want)
		}
	}
}
