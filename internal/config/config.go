package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig holds the outbound mail relay settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "none", "ssl", "starttls"
	FromName   string
	AdminEmail string
}

// GuardConfig holds the suspicious-activity tracking thresholds.
type GuardConfig struct {
	MaxAttempts         int
	BlockDuration       time.Duration
	MonitorWindow       time.Duration
	SuspiciousThreshold int
	PermanentBlocks     []string
}

// RateLimitConfig holds the fixed-window submission limiter settings.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment   string
	HTTPPort      string
	FrontendURL   string
	LogDir        string
	AdminAPIKey   string
	AlertURLs     []string
	SweepInterval time.Duration
	SMTP          SMTPConfig
	Guard         GuardConfig
	RateLimit     RateLimitConfig
}

// Load reads env vars and falls back to defaults so the server can boot with
// minimal configuration. SMTP credentials are the only hard requirement.
func Load() (Config, error) {
	cfg := Config{
		Environment:   getEnv("BP_ENV", "development"),
		HTTPPort:      getEnv("BP_HTTP_PORT", "3001"),
		FrontendURL:   getEnv("BP_FRONTEND_URL", "http://localhost:3000"),
		LogDir:        getEnv("BP_LOG_DIR", "data/logs"),
		AdminAPIKey:   getEnv("ADMIN_API_KEY", ""),
		AlertURLs:     splitList(getEnv("BP_ALERT_URLS", "")),
		SweepInterval: getEnvDuration("BP_SWEEP_INTERVAL", 10*time.Minute),
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "smtp.hostinger.com"),
			Port:       getEnvInt("SMTP_PORT", 587),
			Username:   os.Getenv("SMTP_USER"),
			Password:   os.Getenv("SMTP_PASS"),
			Encryption: getEnv("SMTP_ENCRYPTION", "starttls"),
			FromName:   getEnv("BP_FROM_NAME", "BeatPlayr"),
			AdminEmail: getEnv("BP_ADMIN_EMAIL", "basudev@beatplayr.online"),
		},
		Guard: GuardConfig{
			MaxAttempts:         getEnvInt("BP_IP_MAX_ATTEMPTS", 10),
			BlockDuration:       getEnvMillis("BP_IP_BLOCK_MS", 15*time.Minute),
			MonitorWindow:       getEnvMillis("BP_IP_MONITOR_MS", 5*time.Minute),
			SuspiciousThreshold: getEnvInt("BP_IP_SUSPICIOUS", 5),
			PermanentBlocks:     splitList(getEnv("BP_PERMANENT_BLOCKS", "")),
		},
		RateLimit: RateLimitConfig{
			Window:      getEnvMillis("BP_RATE_WINDOW_MS", 15*time.Minute),
			MaxRequests: getEnvInt("BP_RATE_MAX", 10),
		},
	}

	var missing []string
	for _, key := range []string{"SMTP_USER", "SMTP_PASS"} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}

// getEnvMillis reads an integer millisecond value. The tunables keep their
// original millisecond units so existing deployments carry over unchanged.
func getEnvMillis(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}

	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
