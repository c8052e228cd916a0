package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/metrics"
)

// Options configures a Server beyond its core dependencies.
type Options struct {
	// AuthMode selects the identity middleware: dev, device or tailscale.
	AuthMode string
	// APIKey protects the MCP endpoint. Empty leaves it open.
	APIKey string
	// Limiter and ScansPerMinute rate-limit the model-backed routes per user.
	// A nil Limiter or a zero rate disables limiting.
	Limiter        RequestRateLimiter
	ScansPerMinute int
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *app.Service
	metrics *metrics.Manager
	opts    Options
	whois   WhoIser
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *app.Service, m *metrics.Manager, opts Options, log *slog.Logger) *Server {
	if opts.AuthMode == "" {
		opts.AuthMode = config.AuthModeDevice
	}
	s := &Server{
		svc:     svc,
		metrics: m,
		opts:    opts,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables WhoIs lookups for the tailscale auth mode.
func (s *Server) SetTailscale(lc WhoIser) {
	s.whois = lc
}

func (s *Server) routes() {
	s.router.Use(PanicRecovery(s.metrics, s.log))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	if s.opts.Gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/devices", s.handleRegisterDevice)

		r.Group(func(r chi.Router) {
			r.Use(s.identify)

			r.Get("/me", s.handleMe)
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handlePutProfile)
			r.Get("/dashboard", s.handleDashboard)

			r.With(s.rateLimit("scan")).Post("/scan", s.handleScan)
			r.Get("/scans", s.handleScanLogs)

			r.Get("/equipment", s.handleListEquipment)
			r.Post("/equipment", s.handleAddEquipment)
			r.Delete("/equipment/{id}", s.handleDeleteEquipment)

			r.With(s.rateLimit("generate")).Post("/workouts/generate", s.handleGenerateRoutine)
			r.Get("/workouts/today", s.handleTodayWorkout)
			r.Post("/workouts/day/toggle", s.handleToggleDay)
			r.Get("/workouts/active", s.handleActiveWorkout)

			r.Post("/session", s.handleStartSession)
			r.Get("/session", s.handleGetSession)
			r.Post("/session/{id}/{action}", s.handleSessionAction)
			r.Delete("/session/{id}", s.handleEndSession)

			r.Get("/progress", s.handleProgress)
			r.Delete("/cache", s.handleResetCache)
			r.Get("/demos", s.handleDemo)
		})
	})
}

// MountMCP serves an MCP transport at /mcp behind the configured identity
// and, when set, the API key.
func (s *Server) MountMCP(h http.Handler) {
	r := s.router.With(s.identify)
	if s.opts.APIKey != "" {
		r = s.router.With(APIKeyAuth(s.opts.APIKey), s.identify)
	}
	r.Handle("/mcp", h)
}
