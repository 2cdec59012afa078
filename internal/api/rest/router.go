// Package rest is the HTTP adapter: a net/http.ServeMux routed by method and
// pattern, wrapped in gzip compression, per-remote-address rate limiting,
// structured logging, panic recovery, and an OpenTelemetry span per request.
package rest

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/navicore/specsvc/internal/app"
)

// Config configures the REST handler.
type Config struct {
	Service          *app.Service
	Logger           *slog.Logger
	RateLimitPerSec  float64
	RateLimitBurst   int
	GzipMinSizeBytes int
}

// NewHandler builds the fully wrapped HTTP handler for the spec API.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{svc: cfg.Service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /specs", h.createSpec)
	mux.HandleFunc("GET /specs", h.listSpecs)
	mux.HandleFunc("GET /specs/{id}", h.getSpec)
	mux.HandleFunc("PUT /specs/{id}", h.updateSpec)
	mux.HandleFunc("POST /specs/{id}/publish", h.publishSpec)
	mux.HandleFunc("POST /specs/{id}/deprecate", h.deprecateSpec)
	mux.HandleFunc("GET /specs/{id}/versions/{version}", h.getSpecVersion)
	mux.HandleFunc("GET /health", h.health)

	limiter := newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst)

	var wrapped http.Handler = mux
	wrapped = tracingMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = recoveryMiddleware(logger, wrapped)
	wrapped = limiter.middleware(wrapped)

	gz, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize(cfg.GzipMinSizeBytes)))
	if err != nil {
		logger.Warn("gzip wrapper unavailable, serving uncompressed", "error", err)
		return wrapped
	}
	return gz(wrapped)
}

func gzipMinSize(configured int) int {
	if configured > 0 {
		return configured
	}
	return 1024
}

func tracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("specsvc/rest")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", "panic", rec, "path", r.URL.Path)
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// rateLimiter hands out one token-bucket limiter per remote address, the
// same shape the membership service's HTTP front door uses.
type rateLimiter struct {
	perSec  rate.Limit
	burst   int
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newRateLimiter(perSec float64, burst int) *rateLimiter {
	if perSec <= 0 {
		perSec = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &rateLimiter{perSec: rate.Limit(perSec), burst: burst, buckets: make(map[string]*rate.Limiter)}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if lim, ok := rl.buckets[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(rl.perSec, rl.burst)
	rl.buckets[key] = lim
	return lim
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(r.RemoteAddr).Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
