package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"glreport/internal/core"
	applog "glreport/internal/log"
	"glreport/internal/metrics"
	"glreport/internal/middleware/auth"
	"glreport/internal/middleware/ratelimit"
	"glreport/internal/middleware/security"
	"glreport/internal/middleware/trace"
	"glreport/internal/report"
)

// Route patterns served by the API.
const (
	PathCustomerGL     = "/api/reports/customer-gl"
	PathCustomerGLJobs = "/api/reports/customer-gl/jobs"
	PathMetrics        = "/metrics"
)

// ReportGenerator produces a report for a set of filters.
type ReportGenerator interface {
	Generate(ctx context.Context, f report.Filters) (core.Report, error)
}

// JobEnqueuer queues asynchronous report requests.
type JobEnqueuer interface {
	Available() bool
	Enqueue(ctx context.Context, options map[string]any) (uuid.UUID, error)
}

// CheckFunc is a readiness probe for one dependency.
type CheckFunc func(ctx context.Context) error

// Deps are the collaborators of the HTTP server. Everything except
// Reports may be left zero.
type Deps struct {
	Reports ReportGenerator
	Jobs    JobEnqueuer
	Checks  map[string]CheckFunc
	Logger  *applog.Logger
	Metrics *metrics.Metrics

	// JobRateLimit configures per-client limits on job submission.
	JobRateLimit ratelimit.Config
	// Auth protects the report API when a secret is set.
	Auth auth.Config
	// CORSOrigins enables cross-origin access for the listed origins.
	CORSOrigins []string
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// identify the client. Without it the peer address is used.
	TrustedProxies []string
}

type Server struct {
	http.Server
	reports ReportGenerator
	jobs    JobEnqueuer
	checks  map[string]CheckFunc
	logger  *applog.Logger
	metrics *metrics.Metrics

	ips        ipResolver
	trace      *trace.Middleware
	jobLimiter *ratelimit.Limiter
	startedAt  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	trusted, err := ParseTrustedProxies(deps.TrustedProxies)
	if err != nil {
		logger.Warn("Ignoring trusted proxies", applog.FieldError, err.Error())
		trusted = nil
	}
	ips := ipResolver{trusted: trusted}

	s := &Server{
		reports:    deps.Reports,
		jobs:       deps.Jobs,
		checks:     deps.Checks,
		logger:     logger,
		metrics:    deps.Metrics,
		ips:        ips,
		trace:      trace.NewMiddleware(ips.clientIP, logger),
		jobLimiter: ratelimit.NewLimiter(deps.JobRateLimit),
		startedAt:  time.Now(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(s.trace.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", trace.RequestIDHeader},
			ExposedHeaders: []string{trace.RequestIDHeader, "Retry-After"},
			MaxAge:         300,
		}))
	}
	r.Use(s.metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w, r)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, PathMetrics, s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if deps.Auth.Enabled() {
			r.Use(auth.NewVerifier(deps.Auth).Middleware(s.rejectUnauthorized))
		}
		r.Get(PathCustomerGL, s.handleReportQuery)
		r.Post(PathCustomerGL, s.handleReportBody)
		r.With(s.jobLimiter.Middleware(s.ips.clientIP, func(w http.ResponseWriter, r *http.Request) {
			s.metrics.RateLimited()
			TooManyRequestsError().Write(w, r)
		})).Post(PathCustomerGLJobs, s.handleEnqueueJob)
	})

	return r
}

func (s *Server) rejectUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rejected unauthenticated request",
		applog.FieldError, err.Error())
	w.Header().Set("WWW-Authenticate", `Bearer realm="glreport"`)
	ErrorResponse(http.StatusUnauthorized, "unauthorized").Write(w, r)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.jobLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}
