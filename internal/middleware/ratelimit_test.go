package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rate int, window time.Duration, whitelist ...string) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(rate, window, whitelist, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(2, time.Minute)

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	*now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestRateLimiter_Evict(t *testing.T) {
	rl, now := newTestLimiter(1, time.Second)
	rl.Allow("1.1.1.1")
	assert.Equal(t, 1, rl.Stats().TrackedIPs)

	*now = now.Add(3 * time.Second)
	assert.Equal(t, 1, rl.evict())
	assert.Equal(t, 0, rl.Stats().TrackedIPs)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute, "9.9.9.9")
	var blocked []string
	rl.OnBlocked(func(ip string) { blocked = append(blocked, ip) })

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remote string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/v1/toggles/a", nil)
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("1.1.1.1:1234", nil).Code)

	rec := do("1.1.1.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
	assert.Equal(t, []string{"1.1.1.1"}, blocked)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, do("9.9.9.9:1", nil).Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "10.0.0.1:555", nil, "10.0.0.1"},
		{"forwarded for", "10.0.0.1:555", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "203.0.113.5"},
		{"forwarded with port", "10.0.0.1:555", map[string]string{"X-Forwarded-For": "203.0.113.5:9000"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:555", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
