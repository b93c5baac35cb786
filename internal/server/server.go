// Package server provides the annotation HTTP server: it loads one
// annotator's assignment, serves the embedded annotation page and its
// JSON API, and appends submitted annotations to the shared log.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mathfish/mathfish/internal/annotations"
	"github.com/mathfish/mathfish/internal/bus"
	"github.com/mathfish/mathfish/internal/config"
	"github.com/mathfish/mathfish/internal/metrics"
	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/pkg/middleware"
	"github.com/mathfish/mathfish/internal/pkg/security"
	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/taxonomy"
	"github.com/mathfish/mathfish/internal/web"
)

// Server serves the annotation UI and API for a single annotator
// session.
type Server struct {
	cfg        Config
	log        *logger.Logger
	httpServer *http.Server

	// Session state, fixed after New.
	annotator    string
	problemIDs   []string
	sharedIDs    map[string]bool
	problems     map[string]*problems.Problem
	problemViews []problemView
	hierarchy    taxonomy.Hierarchy

	// Services
	storage   annotations.Storage
	bus       bus.Bus
	metrics   *metrics.Metrics
	collector *metrics.Collector
	limiter   *middleware.RateLimiter

	corsOrigins string
	metricsPath string

	mu      sync.RWMutex
	saved   map[string]*annotations.Record
	started bool
}

// Config configures the server.
type Config struct {
	// Annotator is the name of the annotator this session serves.
	Annotator string

	// Host is the address to bind to.
	Host string

	// Port is the HTTP port.
	Port int

	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            8000,
		Version:         "dev",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Host == "" {
		c.Host = def.Host
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}

// New creates a server with all dependencies: the taxonomy hierarchy,
// the annotator's assigned problems, the annotation log, the event bus,
// and metrics per the application config.
func New(cfg Config, appCfg *config.Config, log *logger.Logger) (*Server, error) {
	cfg = cfg.withDefaults()

	if err := security.ValidateAnnotatorName(cfg.Annotator); err != nil {
		return nil, fmt.Errorf("invalid annotator name: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		log:         log,
		annotator:   cfg.Annotator,
		corsOrigins: appCfg.Security.CORSOrigins,
		metricsPath: appCfg.Metrics.Path,
	}
	if s.metricsPath == "" {
		s.metricsPath = "/metrics"
	}

	// Taxonomy hierarchy for the standards picker
	store, err := taxonomy.Load(appCfg.Data.StandardsFile)
	if err != nil {
		return nil, fmt.Errorf("loading standards: %w", err)
	}
	s.hierarchy = store.Hierarchy()

	// Assigned problems
	probs, err := problems.LoadAssigned(appCfg.Data.ProblemsFile)
	if err != nil {
		return nil, fmt.Errorf("loading problems: %w", err)
	}
	s.problems = probs

	plan, err := annotations.LoadPlan(appCfg.Data.AssignmentsFile)
	if err != nil {
		return nil, fmt.Errorf("loading assignments (run setup first): %w", err)
	}
	assignment, ok := plan.Assignments[cfg.Annotator]
	if !ok {
		return nil, fmt.Errorf("annotator %q not in assignment plan (available: %v)", cfg.Annotator, plan.Annotators)
	}
	s.problemIDs = assignment.AllIDs
	s.sharedIDs = make(map[string]bool, len(plan.SharedIDs))
	for _, id := range plan.SharedIDs {
		s.sharedIDs[id] = true
	}
	s.problemViews = buildProblemViews(s.problemIDs, s.problems, s.sharedIDs)

	// Annotation log
	s.storage = annotations.NewFileStorage(appCfg.Data.AnnotationsDir)
	saved, err := s.storage.Load(cfg.Annotator)
	if err != nil {
		return nil, fmt.Errorf("loading saved annotations: %w", err)
	}
	s.saved = saved

	// Metrics
	if appCfg.Metrics.Enabled {
		if appCfg.Metrics.RedisURL != "" {
			s.metrics = metrics.NewWithRedis(appCfg.Metrics.RedisURL)
		} else {
			s.metrics = metrics.New()
		}
		s.collector = metrics.NewCollector(s.metrics, s.storage)
	}

	// Event bus
	eventBus, err := bus.NewBus(appCfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("creating event bus: %w", err)
	}
	s.bus = eventBus
	if s.metrics != nil {
		s.bus = bus.NewInstrumentedBus(eventBus, s.metrics)

		// Pick up events published by CLI runs sharing the broker.
		sub := metrics.NewEventSubscriber(s.metrics, s.bus)
		if err := sub.SubscribeToEvents(context.Background()); err != nil {
			log.WithError(err).Warn("event subscription failed, continuing without bus-driven metrics")
		}
	}

	if appCfg.Security.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(appCfg.Security.RateLimit),
			Burst:             appCfg.Security.RateLimit * 2,
			CleanupInterval:   time.Minute,
		})
	}

	return s, nil
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	saved := len(s.saved)
	s.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("Starting annotation server",
		"addr", addr,
		"annotator", s.annotator,
		"saved", saved,
		"total", len(s.problemIDs),
	)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server and closes its services.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP shutdown error", "error", err)
	}

	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			s.log.Error("bus close error", "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.Close()
	}

	s.started = false
	s.log.Info("Server stopped")

	return nil
}

// handler builds the route table and wraps it in the middleware chain:
// request logging, metrics, rate limiting, CORS.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/problems", s.handleProblems)
	mux.HandleFunc("GET /api/standards", s.handleStandards)
	mux.HandleFunc("GET /api/annotations", s.handleAnnotations)
	mux.HandleFunc("GET /api/annotations/{annotator}", s.handleAnnotatorLog)
	mux.HandleFunc("POST /api/annotate", s.handleAnnotate)

	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
		mux.HandleFunc("GET /api/metrics", s.handleMetricsSnapshot)
	}

	web.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = middleware.CORS(s.corsOrigins)(handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	if s.metrics != nil {
		handler = metrics.HTTPMiddleware(s.metrics, handler)
	}
	return s.logRequests(handler)
}

// logRequests logs every request at debug level with a short request id
// echoed in the X-Request-ID header.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := GenerateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.log.Debug("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", security.SanitizeForLog(r.URL.Path),
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

// Health reports whether the server has been started.
func (s *Server) Health() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Progress returns the number of saved annotations and the number of
// assigned problems.
func (s *Server) Progress() (saved, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.saved), len(s.problemIDs)
}
