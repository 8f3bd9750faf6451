// Package config provides centralized configuration for the bedquilt
// server, loaded from BEDQUILT_-prefixed environment variables with
// sensible defaults, following the teacher's own config package
// (atomicbase api/config/config.go) widened to the fuller field set.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	Port           string // HTTP server port (e.g., ":8080")
	PrimaryDBPath  string // path to the primary SQLite database file
	DataDir        string // directory for storing database files
	MaxRequestBody int64  // maximum request body size in bytes

	APIKey string // bearer token required of non-public requests, empty disables auth

	RateLimitEnabled bool
	RateLimit        int // requests per minute per client

	CORSOrigins []string // allowed Origin values, ["*"] permits any

	RequestTimeout time.Duration

	// DefaultLimit and MaxLimit are loaded and printed at startup; no
	// handler applies them, and find uses the request's limit as given.
	DefaultLimit int
	MaxLimit     int
}

// Cfg is the global configuration instance, loaded at startup.
var Cfg Config

func init() {
	godotenv.Load()
	Cfg = Load()
}

// Load reads configuration from environment variables with sensible
// defaults, matching the teacher's own ATOMICBASE_ prefix convention
// renamed to BEDQUILT_.
func Load() Config {
	return Config{
		Port:           getEnv("BEDQUILT_PORT", ":8080"),
		PrimaryDBPath:  getEnv("BEDQUILT_DB_PATH", "bedquiltdata/primary.db"),
		DataDir:        getEnv("BEDQUILT_DATA_DIR", "bedquiltdata"),
		MaxRequestBody: getEnvInt64("BEDQUILT_MAX_REQUEST_BODY", 1<<20),

		APIKey: getEnv("BEDQUILT_API_KEY", ""),

		RateLimitEnabled: getEnvBool("BEDQUILT_RATE_LIMIT_ENABLED", true),
		RateLimit:        getEnvInt("BEDQUILT_RATE_LIMIT", 120),

		CORSOrigins: getEnvList("BEDQUILT_CORS_ORIGINS", []string{"*"}),

		RequestTimeout: getEnvDuration("BEDQUILT_REQUEST_TIMEOUT", 30*time.Second),

		DefaultLimit: getEnvInt("BEDQUILT_DEFAULT_LIMIT", 100),
		MaxLimit:     getEnvInt("BEDQUILT_MAX_LIMIT", 1000),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
