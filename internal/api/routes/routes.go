// Package routes assembles the admission pipeline, services and handlers
// into the public HTTP surface.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beatplayr/backend/internal/api/handlers"
	"github.com/beatplayr/backend/internal/api/middleware"
	"github.com/beatplayr/backend/internal/config"
	"github.com/beatplayr/backend/internal/guard"
	"github.com/beatplayr/backend/internal/jobs"
	"github.com/beatplayr/backend/internal/logger"
	"github.com/beatplayr/backend/internal/metrics"
	"github.com/beatplayr/backend/internal/services"
)

// Stack holds the long-lived components behind the router so the server can
// manage their lifecycle.
type Stack struct {
	Guard   *guard.Guard
	Sweeper *jobs.Sweeper
}

// Register wires middleware, gates and handlers onto the engine and returns
// the assembled stack. The admission gates run as global middleware so
// unmatched paths are still screened before the 404 is produced.
func Register(r *gin.Engine, cfg config.Config) (*Stack, error) {
	templates, err := services.NewTemplateService()
	if err != nil {
		return nil, err
	}
	mail := services.NewMailService(cfg.SMTP)
	alerts := services.NewAlertService(cfg.AlertURLs)

	tracker := guard.NewIPTracker(guard.IPConfig{
		MaxAttempts:         cfg.Guard.MaxAttempts,
		BlockDuration:       cfg.Guard.BlockDuration,
		MonitorWindow:       cfg.Guard.MonitorWindow,
		SuspiciousThreshold: cfg.Guard.SuspiciousThreshold,
		PermanentBlocks:     cfg.Guard.PermanentBlocks,
	}, alerts)
	paths := guard.NewPathRegistry()
	limiter := guard.NewRateLimiter(guard.RateConfig{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	})
	g := guard.New(paths, tracker, limiter)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	isDev := cfg.Environment == "development"

	r.Use(
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{IsDevelopment: isDev}),
		middleware.CORS(cfg.FrontendURL, isDev),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(isDev),
		g.PathGate(),
		g.IPGate(),
	)

	// The root path redirects browsers to the frontend; the API has nothing
	// to show there.
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, cfg.FrontendURL)
	})

	health := handlers.NewHealthHandler(mail, cfg.Environment, cfg.SMTP.Host)
	r.GET("/health", health.Get)

	submit := handlers.NewSubmitHandler(mail, templates, cfg.SMTP.AdminEmail)
	api := r.Group("/api")
	api.Use(g.RateLimit())
	api.GET("/health", health.Get)
	api.POST("/contact", submit.Contact)
	api.POST("/feature-request", submit.Feature)
	api.POST("/bug-report", submit.Bug)

	admin := handlers.NewAdminHandler(tracker, paths)
	adminGroup := r.Group("/api/admin", handlers.AdminAuth(cfg.AdminAPIKey))
	adminGroup.GET("/blocking/status", admin.Status)
	adminGroup.GET("/blocking/stats", admin.Stats)
	adminGroup.POST("/blocking/ip/block", admin.BlockIP)
	adminGroup.POST("/blocking/ip/unblock", admin.UnblockIP)
	adminGroup.GET("/blocking/ip/:ip/stats", admin.IPStats)
	adminGroup.POST("/blocking/ip/clear-temporary", admin.ClearTemporary)
	adminGroup.POST("/blocking/path/block", admin.BlockPath)
	adminGroup.POST("/blocking/path/unblock", admin.UnblockPath)
	adminGroup.POST("/blocking/path/test", admin.TestPath)
	adminGroup.POST("/blocking/extension/block", admin.BlockExtension)
	adminGroup.POST("/blocking/extension/unblock", admin.UnblockExtension)
	adminGroup.POST("/blocking/pattern/add", admin.AddPattern)
	adminGroup.GET("/blocking/methods", admin.GetMethods)
	adminGroup.POST("/blocking/methods", admin.SetMethods)
	adminGroup.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":   false,
			"message":   "Endpoint not found",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if cfg.AdminAPIKey == "" {
		logger.Log().Warn("ADMIN_API_KEY not set, admin surface is disabled")
	}

	sweeper := jobs.NewSweeper(cfg.SweepInterval, map[string]jobs.Sweepable{
		"ip_tracker":   tracker,
		"rate_limiter": limiter,
	})

	return &Stack{Guard: g, Sweeper: sweeper}, nil
}
