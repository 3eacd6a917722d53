package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
type SecurityHeadersConfig struct {
	// IsDevelopment skips HSTS for plain-HTTP local servers
	IsDevelopment bool
}

// SecurityHeaders returns middleware that sets security-related HTTP headers.
// The resource policy stays cross-origin because the API is consumed by a
// frontend served from a different origin.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	csp := buildCSP()
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)

		if !cfg.IsDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cross-Origin-Resource-Policy", "cross-origin")

		c.Next()
	}
}

// buildCSP constructs the Content-Security-Policy header value. The API
// serves JSON only; the permissive style/script sources match what the
// hosted API docs page needs.
func buildCSP() string {
	directives := []string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline' https:",
		"script-src 'self' 'unsafe-inline' 'unsafe-eval'",
		"img-src 'self' data: https:",
		"connect-src 'self' https: http:",
		"font-src 'self' https: data:",
		"object-src 'none'",
		"media-src 'self'",
		"frame-src 'none'",
	}
	return strings.Join(directives, "; ")
}
