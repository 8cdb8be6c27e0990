package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "203.0.113.7:5555", "", "", "203.0.113.7"},
		{"untrusted peer ignores forwarding", "203.0.113.7:5555", "198.51.100.1", "", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "", "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"invalid forwarded value", "192.168.1.1:80", "not-an-ip", "", "192.168.1.1"},
		{"no port", "198.51.100.3", "", "", "198.51.100.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	ok := httptest.NewRequest(http.MethodGet, "/api/months/current", nil)
	assert.False(t, detectSuspiciousRequest(ok))

	traversal := httptest.NewRequest(http.MethodGet, "/api/../../etc/passwd", nil)
	assert.True(t, detectSuspiciousRequest(traversal))

	scanner := httptest.NewRequest(http.MethodGet, "/", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	assert.True(t, detectSuspiciousRequest(scanner))

	long := httptest.NewRequest(http.MethodGet, "/?q="+strings.Repeat("a", 2100), nil)
	assert.True(t, detectSuspiciousRequest(long))

	trace := httptest.NewRequest("TRACE", "/", nil)
	assert.True(t, detectSuspiciousRequest(trace))
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.stop()
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "clients are limited independently")

	now = now.Add(rateWindow + time.Second)
	assert.True(t, rl.allow("a"), "a new window resets the count")
	assert.Equal(t, 2, rl.activeClients())

	now = now.Add(staleClientAge + time.Minute)
	rl.cleanupStaleEntries()
	assert.Zero(t, rl.activeClients())
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(0)
	assert.Equal(t, defaultRateLimit, rl.limit)
	rl.stop()
	rl.stop()
}
