package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beatplayr/backend/internal/guard"
)

// RequestLogger logs basic request information along with the request_id.
// The client field uses the same identity the admission gates key on so log
// lines correlate with block and rate-limit decisions.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		entry := GetRequestLogger(c)
		entry.WithFields(map[string]interface{}{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": latency.String(),
			"client":  guard.Identity(c),
		}).Info("handled request")
	}
}
