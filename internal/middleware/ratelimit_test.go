package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(cfg RateLimitConfig) http.Handler {
	return RateLimiter(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/query", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		rec := doRequest(h, "10.0.0.1:5000")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
	}
	assert.Equal(t, "3", doRequest(h, "10.0.0.2:5000").Header().Get("X-RateLimit-Limit"))
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	doRequest(h, "10.0.0.3:5000")
	doRequest(h, "10.0.0.3:5000")
	rec := doRequest(h, "10.0.0.3:5000")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimiterIsPerClient(t *testing.T) {
	t.Parallel()
	h := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.4:5000").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.4:5000").Code)

	// A different client has its own bucket.
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.5:5000").Code)
}

func TestClientIPStripsPort(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:61234"
	assert.Equal(t, "192.168.1.9", clientIP(req))

	req.RemoteAddr = "unparseable"
	assert.Equal(t, "unparseable", clientIP(req))
}

func TestClientIPIgnoresForwardedFor(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.6:5000"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "10.0.0.6", clientIP(req))
}
