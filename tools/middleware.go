package tools

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bedquiltdb/bedquilt/config"
)

// responseWriter wraps http.ResponseWriter to capture the status code
// written, mirroring the teacher's own wrapper (atomicbase
// api/tools/middleware.go responseWriter).
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a random request ID for tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LoggingMiddleware logs every HTTP request with structured JSON output:
// method, path, status, duration, client IP, and request ID.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			clientIP = strings.Split(forwarded, ",")[0]
		}
		clientIP = strings.TrimSpace(clientIP)

		Logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", duration,
			"client_ip", clientIP,
			"user_agent", r.UserAgent(),
		)
	})
}

// rateLimiter tracks request counts per client IP within a fixed window.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string]*clientLimit
	rate     int
	window   time.Duration
}

type clientLimit struct {
	count       int
	windowStart time.Time
}

var limiter = &rateLimiter{
	requests: make(map[string]*clientLimit),
	rate:     config.Cfg.RateLimit,
	window:   time.Minute,
}

// CORSMiddleware handles Cross-Origin Resource Sharing. If the configured
// origin list is empty, CORS is disabled (no cross-origin access); an
// unset or empty BEDQUILT_CORS_ORIGINS yields the default ["*"], not an
// empty list. "*" permits any origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origins := config.Cfg.CORSOrigins
		if len(origins) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		allowed := false
		for _, o := range origins {
			if o == "*" || o == origin {
				allowed = true
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		if !allowed && origin != "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TimeoutMiddleware bounds request handling time, configurable via
// BEDQUILT_REQUEST_TIMEOUT.
func TimeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.Cfg.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimitMiddleware limits requests per client IP. Enable via
// BEDQUILT_RATE_LIMIT_ENABLED, tune the per-minute budget via
// BEDQUILT_RATE_LIMIT.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !config.Cfg.RateLimitEnabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = strings.Split(forwarded, ",")[0]
		}
		ip = strings.TrimSpace(strings.Split(ip, ":")[0])

		limiter.mu.Lock()
		client, exists := limiter.requests[ip]
		now := time.Now()

		if !exists || now.Sub(client.windowStart) > limiter.window {
			limiter.requests[ip] = &clientLimit{count: 1, windowStart: now}
			limiter.mu.Unlock()
			next.ServeHTTP(w, r)
			return
		}

		if client.count >= limiter.rate {
			limiter.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}

		client.count++
		limiter.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware validates the bearer API key from the Authorization
// header. If BEDQUILT_API_KEY is unset, authentication is disabled.
// /health is always public.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := config.Cfg.APIKey
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeUnauthorized(w, "missing Authorization header")
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeUnauthorized(w, "invalid Authorization header format")
			return
		}
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
			writeUnauthorized(w, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"code": "UNAUTHORIZED", "message": message})
}

// PanicRecoveryMiddleware recovers from a panic in a downstream handler,
// logs it with a stack trace, and responds with a generic 500 instead of
// crashing the process.
func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				Logger.Error("panic recovered",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Chain applies middleware in the order panic recovery, logging,
// timeout, CORS, rate limit, auth — outermost first — matching the
// teacher's own RegisterRoutes wiring order.
func Chain(h http.Handler) http.Handler {
	h = AuthMiddleware(h)
	h = RateLimitMiddleware(h)
	h = CORSMiddleware(h)
	h = TimeoutMiddleware(h)
	h = LoggingMiddleware(h)
	h = PanicRecoveryMiddleware(h)
	return h
}
