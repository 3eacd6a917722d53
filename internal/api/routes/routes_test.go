package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatplayr/backend/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Environment:   "test",
		FrontendURL:   "https://beatplayr.online",
		AdminAPIKey:   "test-key",
		SweepInterval: 10 * time.Minute,
		Guard: config.GuardConfig{
			MaxAttempts:         100,
			BlockDuration:       15 * time.Minute,
			MonitorWindow:       5 * time.Minute,
			SuspiciousThreshold: 50,
		},
		RateLimit: config.RateLimitConfig{
			Window:      15 * time.Minute,
			MaxRequests: 100,
		},
	}
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	_, err := Register(r, testConfig())
	require.NoError(t, err)
	return r
}

func get(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.1.2.3:4000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRootRedirectsToFrontend(t *testing.T) {
	r := newTestServer(t)
	w := get(r, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://beatplayr.online", w.Header().Get("Location"))
}

func TestUnknownEndpointReturnsJSON404(t *testing.T) {
	r := newTestServer(t)
	w := get(r, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Endpoint not found")
}

func TestUnmatchedPathStillScreened(t *testing.T) {
	r := newTestServer(t)

	// No route is registered for probe paths, yet the gates run before the
	// 404 handler and deny with the block envelope instead.
	w := get(r, "/wp-login.php", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PATH_BLOCKED")
}

func TestHealthAvailableOnBothPaths(t *testing.T) {
	r := newTestServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		w := get(r, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "Server is running", path)
	}
}

func TestMetricsBehindAdminAuth(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/api/admin/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/api/admin/metrics", map[string]string{"X-API-Key": "test-key"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "beatplayr_admission_requests_total")
}

func TestSecurityHeadersAppliedToResponses(t *testing.T) {
	r := newTestServer(t)
	w := get(r, "/health", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
