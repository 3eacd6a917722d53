package guard

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beatplayr/backend/internal/logger"
	"github.com/beatplayr/backend/internal/metrics"
	"github.com/beatplayr/backend/internal/util"
)

// Rejection codes in the uniform denial response shape.
const (
	CodeIPBlocked        = "IP_BLOCKED"
	CodePathBlocked      = "PATH_BLOCKED"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
)

// Guard bundles the admission components the request pipeline runs every
// inbound request through: path gate, IP gate, then (on submission routes)
// the rate limiter. State objects are injected, never ambient, so tests
// can run isolated instances.
type Guard struct {
	Paths   *PathRegistry
	IPs     *IPTracker
	Limiter *RateLimiter
}

// New wires a guard from its component state objects.
func New(paths *PathRegistry, ips *IPTracker, limiter *RateLimiter) *Guard {
	return &Guard{Paths: paths, IPs: ips, Limiter: limiter}
}

func reject(c *gin.Context, status int, message, code string, extra map[string]interface{}) {
	body := gin.H{
		"success":   false,
		"message":   message,
		"code":      code,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// PathGate checks the request path and method against the registry before
// any IP-tracking cost is paid. Blocked paths and disallowed methods
// short-circuit with 403/405.
func (g *Guard) PathGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncAdmissionRequest()

		path := strings.ToLower(c.Request.URL.Path)
		method := strings.ToUpper(c.Request.Method)

		if verdict := g.Paths.Check(path); verdict.Blocked {
			logger.WithFields(map[string]interface{}{
				"ip":         ClientIdentity(c),
				"path":       util.SanitizeForLog(c.Request.URL.Path),
				"method":     method,
				"reason":     verdict.Reason,
				"pattern":    util.SanitizeForLog(verdict.Pattern),
				"user_agent": util.SanitizeForLog(c.Request.UserAgent()),
			}).Warn("Blocked request to suspicious path")
			metrics.IncPathBlocked()
			reject(c, http.StatusForbidden, "Access denied", CodePathBlocked, nil)
			return
		}

		if !g.Paths.MethodAllowed(path, method) {
			logger.WithFields(map[string]interface{}{
				"ip":         ClientIdentity(c),
				"path":       util.SanitizeForLog(c.Request.URL.Path),
				"method":     method,
				"user_agent": util.SanitizeForLog(c.Request.UserAgent()),
			}).Warn("Blocked request with disallowed method")
			metrics.IncMethodDenied()
			reject(c, http.StatusMethodNotAllowed, "Method not allowed", CodeMethodNotAllowed, nil)
			return
		}

		c.Next()
	}
}

// IPGate denies blocked identities and records activity for the rest. A
// mutation applied before a client abort stands; the attempt itself is the
// signal being measured.
func (g *Guard) IPGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := ClientIdentity(c)

		if status := g.IPs.Check(identity); status.Blocked {
			logger.WithFields(map[string]interface{}{
				"ip":         identity,
				"reason":     status.Reason,
				"path":       util.SanitizeForLog(c.Request.URL.Path),
				"method":     c.Request.Method,
				"user_agent": util.SanitizeForLog(c.Request.UserAgent()),
			}).Warn("Blocked request from IP")
			metrics.IncIPBlocked()

			var extra map[string]interface{}
			if status.Reason == ReasonTemporaryBlock {
				extra = map[string]interface{}{
					"retryAfter":   status.RetryAfter,
					"blockedUntil": status.BlockedUntil.UTC().Format(time.RFC3339),
				}
				c.Header("Retry-After", strconv.Itoa(status.RetryAfter))
			}
			reject(c, http.StatusForbidden, "Access denied", CodeIPBlocked, extra)
			return
		}

		g.IPs.Track(identity)
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RateLimit caps submission volume on the API group. Health checks are
// always exempt.
func (g *Guard) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/api/health" {
			c.Next()
			return
		}

		identity := Identity(c)
		ok, retryAfter := g.Limiter.Allow(identity)
		if !ok {
			logger.WithFields(map[string]interface{}{
				"ip":         identity,
				"path":       util.SanitizeForLog(path),
				"user_agent": util.SanitizeForLog(c.Request.UserAgent()),
			}).Warn("Rate limit exceeded")
			metrics.IncRateLimited()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			reject(c, http.StatusTooManyRequests,
				"Too many requests from this IP, please try again later.",
				CodeRateLimited,
				map[string]interface{}{"retryAfter": retryAfter})
			return
		}

		c.Next()
	}
}
