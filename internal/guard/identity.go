package guard

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key the IP gate stores the resolved
// client identity under for downstream handlers and the request logger.
const IdentityKey = "clientIdentity"

// ClientIdentity derives the best-effort string key identifying the
// requester: the connection address (or forwarded address when a proxy is
// trusted), then the X-Forwarded-For first hop, then X-Real-IP, else the
// literal "unknown". Header values are spoofable; this is an abuse
// heuristic, not authentication.
func ClientIdentity(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(c.GetHeader("X-Real-IP")); real != "" {
		return real
	}
	return "unknown"
}

// Identity returns the identity the IP gate recorded for this request, or
// re-derives it when the gate has not run (e.g. in tests).
func Identity(c *gin.Context) string {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return ClientIdentity(c)
}
