package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/beatplayr/backend/internal/logger"
)

// defaultAllowedOrigins covers local frontend dev servers and the production
// domains. The configured frontend URL is appended at runtime.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
	"http://localhost:4200",
	"http://localhost:8080",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"https://beatplayr.online",
	"https://www.beatplayr.online",
	"https://beatplayr.com",
	"https://www.beatplayr.com",
	"https://app.beatplayr.io",
}

// CORS returns the cross-origin policy for the public API. Unknown origins
// are rejected in production and logged-but-allowed in development so a
// misconfigured frontend URL does not silently break local work.
func CORS(frontendURL string, isDevelopment bool) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(defaultAllowedOrigins)+1)
	for _, origin := range defaultAllowedOrigins {
		allowed[origin] = struct{}{}
	}
	if frontendURL != "" {
		allowed[frontendURL] = struct{}{}
	}

	cfg := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if _, ok := allowed[origin]; ok {
				return true
			}
			logger.Log().WithField("origin", origin).Warn("CORS blocked origin")
			return isDevelopment
		},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "X-Requested-With", "Content-Type", "Accept",
			"Authorization", "X-API-Key", "User-Agent", "Cache-Control", "Pragma",
		},
		ExposeHeaders:    []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	return cors.New(cfg)
}
