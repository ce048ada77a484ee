package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/cache"
	applog "salesdash/internal/log"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/observability"
	"salesdash/internal/services"
)

func init() {
	// Money goes out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Options configures a Server. Zero values pick the defaults.
type Options struct {
	CacheSize          int
	CacheTTL           time.Duration
	RateLimitPerMinute int
	Logger             *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = 60
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Server serves the dashboard JSON API.
type Server struct {
	http.Server
	orders  *services.OrderService
	logger  *slog.Logger
	started time.Time

	// rendered responses keyed by version|endpoint|params
	responses    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	detector     *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around orders.
func NewServer(addr string, orders *services.OrderService, opts Options) *Server {
	opts = opts.withDefaults()
	logger := applog.WithComponent(opts.Logger, applog.ComponentHTTP)

	s := &Server{
		orders:       orders,
		logger:       logger,
		started:      time.Now(),
		responses:    cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager: cache.NewManager(logger),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     security.NewDetector(),
	}
	s.cacheManager.Register(s.responses)
	s.cacheManager.StartCleanup(opts.CacheTTL)

	orders.OnChange(func(version uint64) {
		s.responses.Purge()
		s.logger.Debug("Response cache purged", applog.FieldVersion, version)
	})

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = applog.Middleware(logger, trace.RequestID)(handler)
	handler = tracer.Middleware(handler)
	handler = s.detector.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument(route, h))
	}

	handle("GET /api/summary", "/api/summary", s.handleSummary)
	handle("GET /api/summary/daily", "/api/summary/daily", s.handleDailySummary)
	handle("GET /api/orders", "/api/orders", s.handleListOrders)
	handle("GET /api/timeline", "/api/timeline", s.handleTimeline)
	handle("GET /api/bubble", "/api/bubble", s.handleBubble)
	handle("GET /api/options", "/api/options", s.handleOptions)

	mux.Handle("POST /api/orders", limited(instrument("/api/orders", s.handleCreateOrder)))
	mux.Handle("POST /api/dataset/reload", limited(instrument("/api/dataset/reload", s.handleReload)))

	handle("GET /healthz", "/healthz", s.handleHealth)
	handle("GET /readyz", "/readyz", s.handleReady)
	mux.Handle("GET /metrics", observability.Handler())

	mux.Handle("/", instrument("other", func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	}))
}

// instrument records request count and latency under a fixed route label.
func instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw, ok := w.(*trace.ResponseWriter)
		if !ok {
			rw = &trace.ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		}
		h(rw, r)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, statusText(rw.StatusCode)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}

// Shutdown stops background workers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
	})
	return s.Server.Shutdown(ctx)
}
