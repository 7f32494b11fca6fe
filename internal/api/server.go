// =============================================================================
// HTTP DEBUG SERVER - OPERATIONAL SURFACE FOR THE OFFSET STORE
// =============================================================================
//
// WHAT IS THIS?
// This module provides a small HTTP surface for operating and inspecting
// a running offset store. It allows any HTTP client to:
//   - Check process health
//   - Query store statistics and resolved configuration
//   - Dump the cached key space (read-to-end fresh)
//   - Scrape Prometheus metrics
//
// WHY CHI ROUTER?
//
//   Chi is a lightweight, idiomatic Go router that:
//   - Is stdlib net/http compatible
//   - Supports URL parameters
//   - Has middleware support
//   - Zero external dependencies
//
// ENDPOINT OVERVIEW:
//
//   GET    /health             Health check (lifecycle state aware)
//   GET    /stats              Store statistics and resolved parameters
//   GET    /offsets            Full cache dump, read-to-end first
//   GET    /metrics            Prometheus metrics
//
// The dump endpoint performs a real read-to-end round against Kafka, so
// its latency reflects the log, not the cache.
//
// =============================================================================

package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"offsetstore/internal/metrics"
	"offsetstore/internal/store"
)

// =============================================================================
// DEBUG SERVER
// =============================================================================

// Server is the HTTP debug server for the offset store.
type Server struct {
	store      *store.Store
	metrics    *metrics.Registry
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	startedAt  time.Time

	// dumpTimeout bounds the read-to-end round behind /offsets.
	dumpTimeout time.Duration
}

// ServerConfig holds debug server configuration.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	DumpTimeout  time.Duration
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		DumpTimeout:  30 * time.Second,
	}
}

// NewServer creates a new debug server for the given store.
func NewServer(st *store.Store, reg *metrics.Registry, config ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DumpTimeout <= 0 {
		config.DumpTimeout = DefaultServerConfig().DumpTimeout
	}

	r := chi.NewRouter()

	s := &Server{
		store:       st,
		metrics:     reg,
		router:      r,
		logger:      logger.With("component", "debug-server"),
		startedAt:   time.Now(),
		dumpTimeout: config.DumpTimeout,
	}

	// Set up middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Register routes
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// registerRoutes sets up all endpoints using chi router.
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/offsets", s.handleDump)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWrapper{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start).String(),
		)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	status int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// =============================================================================
// SERVER LIFECYCLE
// =============================================================================

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	s.logger.Info("starting debug server", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("debug server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down debug server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	status := http.StatusOK
	if state != store.StateStarted {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status":    healthStatus(state),
		"state":     state.String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func healthStatus(state store.State) string {
	if state == store.StateStarted {
		return "ok"
	}
	return "unavailable"
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":              s.store.State().String(),
		"uptime":             time.Since(s.startedAt).String(),
		"topic":              snap.Topic,
		"cached_keys":        s.store.CachedKeys(),
		"kafka_cluster_id":   snap.ClusterID,
		"client_id":          snap.Producer.ClientID,
		"bootstrap_servers":  snap.Producer.Brokers,
		"isolation_level":    snap.Consumer.IsolationLevel,
		"partitions":         snap.Admin.Partitions,
		"replication_factor": snap.Admin.ReplicationFactor,
	})
}

// DumpEntry is one key-value pair of the cache dump. Keys and values are
// raw bytes, so both are base64 encoded; a null key or null value is
// rendered as JSON null.
type DumpEntry struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.dumpTimeout)
	defer cancel()

	data, err := s.store.Dump(ctx)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	entries := make([]DumpEntry, 0, len(data))
	for k, v := range data {
		entries = append(entries, DumpEntry{
			Key:   encodeBytes(k.Bytes()),
			Value: encodeBytes(v),
		})
	}
	// Stable output: null key first, then encoded key order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key == nil || entries[j].Key == nil {
			return entries[i].Key == nil && entries[j].Key != nil
		}
		return *entries[i].Key < *entries[j].Key
	})

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"offsets": entries,
	})
}

func encodeBytes(b []byte) *string {
	if b == nil {
		return nil
	}
	enc := base64.StdEncoding.EncodeToString(b)
	return &enc
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}
