package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatplayr/backend/internal/guard"
)

const testAPIKey = "test-admin-key"

func newAdminRouter(ips *guard.IPTracker, paths *guard.PathRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(ips, paths)

	r := gin.New()
	admin := r.Group("/api/admin", AdminAuth(testAPIKey))
	admin.GET("/blocking/status", h.Status)
	admin.GET("/blocking/stats", h.Stats)
	admin.POST("/blocking/ip/block", h.BlockIP)
	admin.POST("/blocking/ip/unblock", h.UnblockIP)
	admin.GET("/blocking/ip/:ip/stats", h.IPStats)
	admin.POST("/blocking/ip/clear-temporary", h.ClearTemporary)
	admin.POST("/blocking/path/block", h.BlockPath)
	admin.POST("/blocking/path/unblock", h.UnblockPath)
	admin.POST("/blocking/path/test", h.TestPath)
	admin.POST("/blocking/extension/block", h.BlockExtension)
	admin.POST("/blocking/extension/unblock", h.UnblockExtension)
	admin.POST("/blocking/pattern/add", h.AddPattern)
	admin.GET("/blocking/methods", h.GetMethods)
	admin.POST("/blocking/methods", h.SetMethods)
	return r
}

func defaultAdminRouter() (*gin.Engine, *guard.IPTracker, *guard.PathRegistry) {
	ips := guard.NewIPTracker(guard.DefaultIPConfig(), nil)
	paths := guard.NewPathRegistry()
	return newAdminRouter(ips, paths), ips, paths
}

func adminRequest(r *gin.Engine, method, path, body, apiKey string) *httptest.ResponseRecorder {
	var w *httptest.ResponseRecorder
	if body != "" {
		w = postJSON(r, path, body, map[string]string{"X-API-Key": apiKey})
	} else {
		req := httptest.NewRequest(method, path, nil)
		if apiKey != "" {
			req.Header.Set("X-API-Key", apiKey)
		}
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
	}
	return w
}

func TestAdminAuthRejectsMissingOrWrongKey(t *testing.T) {
	r, _, _ := defaultAdminRouter()

	w := adminRequest(r, http.MethodGet, "/api/admin/blocking/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")

	w = adminRequest(r, http.MethodGet, "/api/admin/blocking/status", "", "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthAcceptsQueryParameter(t *testing.T) {
	r, _, _ := defaultAdminRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/blocking/status?apiKey="+testAPIKey, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuthDisabledWithEmptyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", AdminAuth(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-API-Key", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminStatusListsPopulations(t *testing.T) {
	r, ips, paths := defaultAdminRouter()
	ips.BlockIP("6.6.6.6", "spam")
	paths.BlockPath("/evil")

	w := adminRequest(r, http.MethodGet, "/api/admin/blocking/status", "", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	body := parseBody(t, w)
	data := body["data"].(map[string]interface{})
	blockedIPs := data["blockedIPs"].(map[string]interface{})
	assert.Contains(t, blockedIPs["manual"], "6.6.6.6")
	assert.Contains(t, data["blockedPaths"], "/evil")
	assert.NotEmpty(t, data["methodRestrictions"])
}

func TestAdminBlockAndUnblockIP(t *testing.T) {
	r, ips, _ := defaultAdminRouter()

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/ip/block",
		`{"ip":"5.5.5.5","reason":"scraper"}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ips.Check("5.5.5.5").Blocked)

	w = adminRequest(r, http.MethodPost, "/api/admin/blocking/ip/unblock",
		`{"ip":"5.5.5.5"}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ips.Check("5.5.5.5").Blocked)
}

func TestAdminBlockIPRequiresAddress(t *testing.T) {
	r, _, _ := defaultAdminRouter()

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/ip/block", `{}`, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "IP address is required")
}

func TestAdminIPStats(t *testing.T) {
	r, ips, _ := defaultAdminRouter()
	ips.Track("7.7.7.7")

	w := adminRequest(r, http.MethodGet, "/api/admin/blocking/ip/7.7.7.7/stats", "", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	data := parseBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "7.7.7.7", data["ip"])
	assert.Equal(t, float64(1), data["attemptCount"])
}

func TestAdminClearTemporary(t *testing.T) {
	cfg := guard.DefaultIPConfig()
	cfg.MaxAttempts = 1
	ips := guard.NewIPTracker(cfg, nil)
	r := newAdminRouter(ips, guard.NewPathRegistry())

	ips.Track("8.8.8.8")
	require.True(t, ips.Check("8.8.8.8").Blocked)

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/ip/clear-temporary", `{}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ips.Check("8.8.8.8").Blocked)
}

func TestAdminPathTest(t *testing.T) {
	r, _, _ := defaultAdminRouter()

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/path/test",
		`{"path":"/wp-login.php"}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	data := parseBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["wouldBeBlocked"])
	assert.Equal(t, "blocked_path", data["reason"])
}

func TestAdminExtensionRoundTrip(t *testing.T) {
	r, _, paths := defaultAdminRouter()

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/extension/block",
		`{"extension":"exe"}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, paths.BlockedExtensions(), ".exe")

	w = adminRequest(r, http.MethodPost, "/api/admin/blocking/extension/unblock",
		`{"extension":".exe"}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, paths.BlockedExtensions(), ".exe")
}

func TestAdminAddPattern(t *testing.T) {
	r, _, paths := defaultAdminRouter()

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/pattern/add",
		`{"pattern":"crawler-trap"}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, paths.Check("/crawler-trap/x").Blocked)

	w = adminRequest(r, http.MethodPost, "/api/admin/blocking/pattern/add",
		`{"pattern":"("}`, testAPIKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid pattern")
}

func TestAdminMethodsRoundTrip(t *testing.T) {
	r, _, paths := defaultAdminRouter()

	w := adminRequest(r, http.MethodPost, "/api/admin/blocking/methods",
		`{"path":"/api/admin/*","methods":["get","post"]}`, testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, paths.MethodAllowed("/api/admin/x", "POST"))
	assert.False(t, paths.MethodAllowed("/api/admin/x", "DELETE"))

	w = adminRequest(r, http.MethodGet, "/api/admin/blocking/methods", "", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)
	data := parseBody(t, w)["data"].(map[string]interface{})
	assert.Contains(t, data, "/api/admin/*")
}

func TestAdminStats(t *testing.T) {
	r, ips, _ := defaultAdminRouter()
	ips.BlockIP("1.1.1.1", "")

	w := adminRequest(r, http.MethodGet, "/api/admin/blocking/stats", "", testAPIKey)
	require.Equal(t, http.StatusOK, w.Code)

	data := parseBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["manualBlocks"])
	assert.Equal(t, float64(1), data["totalBlockedIPs"])
	assert.NotZero(t, data["suspiciousPatterns"])
}
