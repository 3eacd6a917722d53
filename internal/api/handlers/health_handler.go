package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beatplayr/backend/internal/api/middleware"
	"github.com/beatplayr/backend/internal/services"
	"github.com/beatplayr/backend/internal/version"
)

// HealthHandler reports process liveness plus the state of the one external
// dependency, the SMTP relay.
type HealthHandler struct {
	mail        *services.MailService
	environment string
	smtpHost    string
	started     time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(mail *services.MailService, environment, smtpHost string) *HealthHandler {
	return &HealthHandler{
		mail:        mail,
		environment: environment,
		smtpHost:    smtpHost,
		started:     time.Now(),
	}
}

// Get handles GET /health and GET /api/health.
func (h *HealthHandler) Get(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := gin.H{
		"success":     true,
		"message":     "Server is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      int(time.Since(h.started).Seconds()),
		"environment": h.environment,
		"version":     version.Version,
		"memory": gin.H{
			"used":  fmt.Sprintf("%d MB", mem.HeapAlloc/1024/1024),
			"total": fmt.Sprintf("%d MB", mem.HeapSys/1024/1024),
		},
		"go": runtime.Version(),
	}

	info["smtp"] = h.smtpStatus(c)

	c.JSON(http.StatusOK, info)
}

func (h *HealthHandler) smtpStatus(c *gin.Context) gin.H {
	if !h.mail.IsConfigured() {
		return gin.H{"status": "not_configured"}
	}

	// Health checks are rate-limit exempt, so the SMTP probe only runs on
	// request. A failed probe degrades the report, not the status code.
	if err := h.mail.VerifyConnection(); err != nil {
		middleware.GetRequestLogger(c).WithError(err).Warn("SMTP health probe failed")
		return gin.H{"status": "disconnected", "host": h.smtpHost}
	}
	return gin.H{"status": "connected", "host": h.smtpHost}
}
