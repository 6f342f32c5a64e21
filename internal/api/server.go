// Package api serves the scripture resolver and the Greek corpus over HTTP:
// citation linking, passage and word reads, lemma definitions, and
// asynchronous ingestion jobs with WebSocket progress.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/santapalabra/scripture/core/refs"
	"github.com/santapalabra/scripture/internal/cache"
	"github.com/santapalabra/scripture/internal/corpus"
	"github.com/santapalabra/scripture/internal/logging"
	"github.com/santapalabra/scripture/internal/metrics"
	"github.com/santapalabra/scripture/internal/server"
	"github.com/santapalabra/scripture/internal/store"
)

// jobRetention is how long finished jobs stay queryable.
const jobRetention = 24 * time.Hour

// maxDefinitions bounds the definition cache.
const maxDefinitions = 4096

// Server is the HTTP API. Create it with New; serve it with Run or mount
// Handler yourself and call Close when done.
type Server struct {
	cfg         Config
	store       store.Store
	linker      *refs.Linker
	detector    refs.Detector
	logger      *slog.Logger
	version     string
	started     time.Time
	jobs        *JobStore
	hub         *Hub
	definitions *cache.TTLCache[string, corpus.Definition]

	jobCtx     context.Context
	cancelJobs context.CancelFunc
	running    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLinker sets the citation linker; the default uses the built-in canon.
func WithLinker(l *refs.Linker) Option {
	return func(s *Server) { s.linker = l }
}

// WithDetector sets the language detector used when a request asks for
// detection.
func WithDetector(d refs.Detector) Option {
	return func(s *Server) { s.detector = d }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New builds a server over st.
func New(cfg Config, st store.Store, opts ...Option) (*Server, error) {
	if err := ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:      cfg,
		store:    st,
		linker:   refs.Default(),
		detector: refs.NewKeywordDetector(),
		version:  "dev",
		started:  time.Now(),
		jobs:     NewJobStore(),
		hub:      NewHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Or(s.logger)
	s.definitions = cache.New[string, corpus.Definition](cfg.DefinitionTTL, maxDefinitions)
	s.jobCtx, s.cancelJobs = context.WithCancel(context.Background())
	return s, nil
}

// Hub returns the progress hub. Its Run loop must be running for /ws.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Jobs returns the ingestion job store.
func (s *Server) Jobs() *JobStore {
	return s.jobs
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	cors := server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}

	r := chi.NewRouter()
	r.Use(logging.CombinedMiddleware)
	r.Use(metrics.InstrumentHandler)
	r.Use(func(next http.Handler) http.Handler {
		return server.CORSMiddlewareWithConfig(cors, next)
	})
	r.Use(func(next http.Handler) http.Handler {
		return server.SecurityHeadersWithCSP(server.APICSPConfig(), next)
	})
	if s.cfg.RateLimitPerMinute > 0 {
		rl := NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitPerMinute,
			BurstSize:         s.cfg.RateLimitBurst,
		})
		r.Use(rl.Middleware)
	}
	r.Use(func(next http.Handler) http.Handler {
		return AuthMiddleware(s.cfg.APIKey, next)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/ws", websocketHandler(s.hub, cors))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/linkify", s.handleLinkify)
		r.Get("/references", s.handleReferences)
		r.Get("/books", s.handleBooks)
		r.Get("/passages/{osis}", s.handlePassage)
		r.Get("/verses/{book}/{chapter}", s.handleChapter)
		r.Get("/verses/{book}/{chapter}/{verse}", s.handleVerse)
		r.Get("/words", s.handleWords)
		r.Get("/definitions/{lemma}", s.handleDefinition)

		r.Post("/ingest", s.handleIngest)
		r.Get("/jobs", s.handleJobs)
		r.Get("/jobs/{id}", s.handleJob)
		r.Delete("/jobs/{id}", s.handleCancelJob)
	})
	return r
}

// Run serves on cfg.Addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends. Running jobs are cancelled and
// awaited before it returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	go s.hub.Run(hubCtx)
	defer func() {
		stopHub()
		<-s.hub.Done()
	}()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.APIKey == "" {
		logging.SecurityEvent("authentication_configured", "api", "enabled", false, "note", "all requests allowed")
	} else {
		logging.SecurityEvent("authentication_configured", "api", "enabled", true, "note", "API key required")
	}
	if len(s.cfg.AllowedOrigins) == 0 {
		logging.SecurityEvent("cors_configured", "api", "mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
	logging.ServerStartup("rest_api", "http", ln.Addr().String(),
		"websocket_protocol", "ws",
		"corpus_dir", s.corpusDirForLog(),
		"rate_limit_per_minute", s.cfg.RateLimitPerMinute)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if serveErr := <-errCh; serveErr != nil && serveErr != http.ErrServerClosed && err == nil {
		err = serveErr
	}
	s.logger.Info("server stopped", "addr", ln.Addr().String())
	return err
}

func (s *Server) corpusDirForLog() string {
	if s.cfg.CorpusDir == "" {
		return "(remote only)"
	}
	return server.AbsPath(s.cfg.CorpusDir)
}

// Close cancels running ingestion jobs and waits for them to stop.
func (s *Server) Close() {
	s.cancelJobs()
	s.running.Wait()
}
