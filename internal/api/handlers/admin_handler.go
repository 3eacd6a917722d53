package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beatplayr/backend/internal/api/middleware"
	"github.com/beatplayr/backend/internal/guard"
	"github.com/beatplayr/backend/internal/util"
)

// AdminAuth guards the admin surface with a static API key, accepted from
// the X-API-Key header or an apiKey query parameter. An empty configured
// key disables the surface entirely.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-API-Key")
		if presented == "" {
			presented = c.Query("apiKey")
		}

		if apiKey == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized - Invalid API key",
			})
			return
		}
		c.Next()
	}
}

// AdminHandler exposes the runtime control surface over the admission
// trackers. Every mutation takes effect immediately and none of it survives
// a restart.
type AdminHandler struct {
	ips   *guard.IPTracker
	paths *guard.PathRegistry
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(ips *guard.IPTracker, paths *guard.PathRegistry) *AdminHandler {
	return &AdminHandler{ips: ips, paths: paths}
}

func adminOK(c *gin.Context, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

func adminBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// Status handles GET /api/admin/blocking/status.
func (h *AdminHandler) Status(c *gin.Context) {
	adminOK(c, "Blocking status retrieved", gin.H{
		"blockedIPs":         h.ips.BlockedIPs(),
		"suspiciousIPs":      h.ips.SuspiciousIPs(),
		"blockedPaths":       h.paths.BlockedPaths(),
		"blockedExtensions":  h.paths.BlockedExtensions(),
		"methodRestrictions": h.paths.MethodRestrictions(),
	})
}

// Stats handles GET /api/admin/blocking/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	blocked := h.ips.BlockedIPs()
	suspicious := h.ips.SuspiciousIPs()

	adminOK(c, "Blocking statistics retrieved", gin.H{
		"totalBlockedIPs":    len(blocked.Permanent) + len(blocked.Manual) + len(blocked.Temporary),
		"permanentBlocks":    len(blocked.Permanent),
		"manualBlocks":       len(blocked.Manual),
		"temporaryBlocks":    len(blocked.Temporary),
		"suspiciousIPs":      len(suspicious),
		"blockedPaths":       len(h.paths.BlockedPaths()),
		"blockedExtensions":  len(h.paths.BlockedExtensions()),
		"suspiciousPatterns": len(h.paths.Patterns()),
	})
}

type ipRequest struct {
	IP     string `json:"ip"`
	Reason string `json:"reason"`
}

// BlockIP handles POST /api/admin/blocking/ip/block.
func (h *AdminHandler) BlockIP(c *gin.Context) {
	var req ipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IP == "" {
		adminBadRequest(c, "IP address is required")
		return
	}

	h.ips.BlockIP(req.IP, req.Reason)
	middleware.GetRequestLogger(c).WithField("ip", req.IP).Info("IP manually blocked")
	adminOK(c, "IP "+req.IP+" blocked successfully", gin.H{
		"ip": req.IP, "reason": req.Reason, "blocked": true,
	})
}

// UnblockIP handles POST /api/admin/blocking/ip/unblock.
func (h *AdminHandler) UnblockIP(c *gin.Context) {
	var req ipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IP == "" {
		adminBadRequest(c, "IP address is required")
		return
	}

	unblocked := h.ips.UnblockIP(req.IP)
	message := "IP " + req.IP + " unblocked successfully"
	if !unblocked {
		message = "IP " + req.IP + " could not be unblocked"
	}
	adminOK(c, message, gin.H{"ip": req.IP, "unblocked": unblocked})
}

// IPStats handles GET /api/admin/blocking/ip/:ip/stats.
func (h *AdminHandler) IPStats(c *gin.Context) {
	adminOK(c, "IP stats retrieved", h.ips.Stats(c.Param("ip")))
}

// ClearTemporary handles POST /api/admin/blocking/ip/clear-temporary.
func (h *AdminHandler) ClearTemporary(c *gin.Context) {
	cleared := h.ips.ClearTemporary()
	middleware.GetRequestLogger(c).WithField("cleared", cleared).Info("Temporary IP blocks cleared")
	adminOK(c, "All temporary IP blocks cleared", gin.H{"cleared": cleared})
}

type pathRequest struct {
	Path string `json:"path"`
}

// BlockPath handles POST /api/admin/blocking/path/block.
func (h *AdminHandler) BlockPath(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		adminBadRequest(c, "Path is required")
		return
	}

	h.paths.BlockPath(req.Path)
	adminOK(c, "Path "+req.Path+" blocked successfully", gin.H{"path": req.Path, "blocked": true})
}

// UnblockPath handles POST /api/admin/blocking/path/unblock.
func (h *AdminHandler) UnblockPath(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		adminBadRequest(c, "Path is required")
		return
	}

	unblocked := h.paths.UnblockPath(req.Path)
	message := "Path " + req.Path + " unblocked successfully"
	if !unblocked {
		message = "Path " + req.Path + " was not blocked"
	}
	adminOK(c, message, gin.H{"path": req.Path, "unblocked": unblocked})
}

// TestPath handles POST /api/admin/blocking/path/test. It runs a path
// through the same decision order as the live gate without side effects.
func (h *AdminHandler) TestPath(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		adminBadRequest(c, "Path is required")
		return
	}

	verdict := h.paths.TestPath(req.Path)
	data := gin.H{"path": req.Path, "wouldBeBlocked": verdict.Blocked}
	if verdict.Reason != "" {
		data["reason"] = verdict.Reason
	}
	if verdict.Pattern != "" {
		data["pattern"] = verdict.Pattern
	}
	adminOK(c, "Path test completed", data)
}

type extensionRequest struct {
	Extension string `json:"extension"`
}

// BlockExtension handles POST /api/admin/blocking/extension/block.
func (h *AdminHandler) BlockExtension(c *gin.Context) {
	var req extensionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Extension == "" {
		adminBadRequest(c, "File extension is required")
		return
	}

	h.paths.BlockExtension(req.Extension)
	adminOK(c, "Extension "+req.Extension+" blocked successfully", gin.H{
		"extension": req.Extension, "blocked": true,
	})
}

// UnblockExtension handles POST /api/admin/blocking/extension/unblock.
func (h *AdminHandler) UnblockExtension(c *gin.Context) {
	var req extensionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Extension == "" {
		adminBadRequest(c, "File extension is required")
		return
	}

	unblocked := h.paths.UnblockExtension(req.Extension)
	message := "Extension " + req.Extension + " unblocked successfully"
	if !unblocked {
		message = "Extension " + req.Extension + " was not blocked"
	}
	adminOK(c, message, gin.H{"extension": req.Extension, "unblocked": unblocked})
}

type patternRequest struct {
	Pattern string `json:"pattern"`
}

// AddPattern handles POST /api/admin/blocking/pattern/add.
func (h *AdminHandler) AddPattern(c *gin.Context) {
	var req patternRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Pattern == "" {
		adminBadRequest(c, "Pattern is required")
		return
	}

	if err := h.paths.AddPattern(req.Pattern); err != nil {
		middleware.GetRequestLogger(c).WithError(err).
			WithField("pattern", util.SanitizeForLog(req.Pattern)).Warn("Rejected invalid pattern")
		adminBadRequest(c, "Invalid pattern")
		return
	}
	adminOK(c, "Pattern added successfully", gin.H{"pattern": req.Pattern, "added": true})
}

type methodRequest struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// GetMethods handles GET /api/admin/blocking/methods.
func (h *AdminHandler) GetMethods(c *gin.Context) {
	adminOK(c, "Method restrictions retrieved", h.paths.MethodRestrictions())
}

// SetMethods handles POST /api/admin/blocking/methods.
func (h *AdminHandler) SetMethods(c *gin.Context) {
	var req methodRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" || len(req.Methods) == 0 {
		adminBadRequest(c, "Path and methods are required")
		return
	}

	h.paths.SetMethodRestrictions(req.Path, req.Methods)
	adminOK(c, "Method restrictions updated for "+req.Path, gin.H{
		"path": req.Path, "methods": req.Methods,
	})
}
