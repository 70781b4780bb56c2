package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"dealtracker/internal/core"
	applog "dealtracker/internal/log"
	"dealtracker/internal/metrics"
	"dealtracker/internal/services"
	appweb "dealtracker/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ReadyFunc reports whether the backing store can be reached.
type ReadyFunc func(ctx context.Context) error

// Options wires the server to its services.
type Options struct {
	Addr      string
	Deals     *services.DealService
	Dashboard *services.DashboardService
	Metrics   *metrics.Metrics
	Logger    *applog.Logger
	Ready     ReadyFunc

	RateLimitRPS   float64
	RateLimitBurst int

	// Uploader, when set, also pushes each generated export to object storage.
	Uploader ExportUploader
}

type Server struct {
	http.Server
	templates   *template.Template
	deals       *services.DealService
	dashboard   *services.DashboardService
	metrics     *metrics.Metrics
	logger      *applog.Logger
	events      *applog.StructuredLogger
	ready       ReadyFunc
	uploader    ExportUploader
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		deals:       opts.Deals,
		dashboard:   opts.Dashboard,
		metrics:     opts.Metrics,
		logger:      logger,
		events:      applog.NewStructuredLogger(logger),
		ready:       opts.Ready,
		uploader:    opts.Uploader,
		rateLimiter: newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSecurityHeaders)

		r.Get("/", s.handleIndex)
		r.Post("/ui/deals", s.handleCreateDealForm)
		r.Post("/ui/transactions", s.handleCreateTransactionForm)

		r.Route("/api", func(r chi.Router) {
			r.Get("/dashboard", handler(s.handleDashboard))
			r.Get("/dashboard/export.xlsx", handler(s.handleExport))
			r.Get("/deals/pending", handler(s.handlePendingDeals))
			r.Post("/deals", handler(s.handleCreateDeal))
			r.Post("/deals/{id}/transactions", handler(s.handleCreateTransaction))
		})
	})
	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging. Every request gets its own request-scoped logger.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(applog.FieldRequestID, requestID, applog.FieldClientIP, clientIP)
		ctx := applog.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if reason := detectSuspiciousRequest(r, s.metrics); reason != "" {
			reqLogger.WarnContext(ctx, "Suspicious request", "reason", reason, "method", r.Method, "url", r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, r.Method, s.metrics) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded", "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeError(w, r, errRateLimited)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.events.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady loads the deals table, so it fails when the store is gone.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
}
