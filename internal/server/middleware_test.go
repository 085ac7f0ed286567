package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"feeline/internal/config"
)

func TestIPLimiterRejectsOverBurst(t *testing.T) {
	l := newIPLimiter(config.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1})
	h := l.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v0/projects", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/v0/projects", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPLimiterSweepsIdleClients(t *testing.T) {
	l := newIPLimiter(config.RateLimitConfig{RequestsPerSecond: 10, Burst: 5})
	assert.Equal(t, limiterIdleTTL, l.ttl)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.Len(t, l.limiters, 2)

	clock = clock.Add(limiterIdleTTL / 2)
	assert.True(t, l.allow("10.0.0.2"))

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	assert.True(t, l.allow("10.0.0.2"))
	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
	assert.Len(t, l.limiters, 1)
}

func TestIPLimiterIdleTTLCoversRefill(t *testing.T) {
	l := newIPLimiter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	assert.Equal(t, 2000*time.Second, l.ttl)
}

func TestRequestLoggerKeepsRequestID(t *testing.T) {
	h := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v0/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v0/health", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestCaptureBodyKeepsBodyReadable(t *testing.T) {
	var seen []byte
	var read string
	h := captureBody(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = bodyBytes(r.Context())
		b, _ := io.ReadAll(r.Body)
		read = string(b)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v0/tasks", strings.NewReader(`{"name":"x"}`)))
	assert.Equal(t, `{"name":"x"}`, string(seen))
	assert.Equal(t, `{"name":"x"}`, read)
}
