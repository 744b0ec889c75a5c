package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/middleware/ratelimit"
	"scadenze/internal/middleware/security"
	"scadenze/internal/middleware/trace"
	"scadenze/internal/source"
)

const maxImportBytes = 8 << 20

// Calendar is the read side of the recurrence engine.
type Calendar interface {
	Today() core.Date
	ListRecurringSeries(ctx context.Context) ([]core.RecurringSeries, error)
	Series(ctx context.Context, id string) (core.RecurringSeries, bool, error)
	ProjectMonth(ctx context.Context, year, month int) (core.MonthProjection, error)
	NextOccurrenceAfter(s core.RecurringSeries, date core.Date) (core.Date, bool)
	Occurrences(ctx context.Context, from, to core.Date) ([]core.ProjectedOccurrence, error)
}

// Config holds everything the server needs beyond the calendar itself.
type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimit          ratelimit.Config
	// Importer is nil for read-only backends.
	Importer source.TransactionImporter
	// Ready reports backend readiness for /readyz; nil means always ready.
	Ready  func(context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server
	calendar    Calendar
	importer    source.TransactionImporter
	ready       func(context.Context) error
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cal Calendar, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Default(applog.ComponentHTTP)
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	ips := security.NewIPExtractor()

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		calendar:    cal,
		importer:    cfg.Importer,
		ready:       cfg.Ready,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		tracer:      trace.NewMiddleware(logger, ips.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/series", s.handleListSeries)
	mux.HandleFunc("GET /api/series/{id}", s.handleGetSeries)
	mux.HandleFunc("GET /api/series/{id}/next", s.handleNextOccurrence)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/occurrences", s.handleOccurrences)
	mux.HandleFunc("POST /api/transactions", s.handleImport)

	limited := s.rateLimiter.Middleware(ips.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, ips.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders: []string{trace.RequestIDHeader, "Retry-After"},
		MaxAge:         600,
	})

	s.Handler = c.Handler(s.tracer.Middleware(security.Headers(security.DefaultHeadersConfig())(limited)))
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
