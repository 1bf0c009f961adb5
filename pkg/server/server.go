// Package server exposes the read API over the published snapshot.
//
// The server is a pure consumer of the snapshot store: every handler
// takes one snapshot read at request start and never triggers a
// refresh, so query serving and the refresh cycle stay fully decoupled.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/depscope/depscope/pkg/observability"
	"github.com/depscope/depscope/pkg/overrides"
	"github.com/depscope/depscope/pkg/snapshot"
)

// Server answers read requests over the latest snapshot.
type Server struct {
	store      *snapshot.Store
	overrides  func() *overrides.Filter
	configTOML func() ([]byte, error)
	logger     *log.Logger
}

// Options configures a Server.
type Options struct {
	// Store is the snapshot store to serve from. Required.
	Store *snapshot.Store

	// Overrides returns the active override filter, for the overrides
	// and stats endpoints. May return nil.
	Overrides func() *overrides.Filter

	// ConfigTOML returns the active configuration rendered as TOML.
	ConfigTOML func() ([]byte, error)

	Logger *log.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		store:      opts.Store,
		overrides:  opts.Overrides,
		configTOML: opts.ConfigTOML,
		logger:     opts.Logger,
	}
	if s.overrides == nil {
		s.overrides = func() *overrides.Filter { return nil }
	}
	if s.configTOML == nil {
		s.configTOML = func() ([]byte, error) { return nil, nil }
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Router assembles the chi router with the read endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/releases/{release}/{arch}", s.handlePartition)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/overrides", s.handleOverrides)
	r.Get("/api/config", s.handleConfig)
	return r
}

// requestLogger logs one line per request through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

// overview is the response shape of the index endpoint.
type overview struct {
	Generation uint64         `json:"generation"`
	CreatedAt  time.Time      `json:"created_at"`
	Releases   []string       `json:"releases"`
	Broken     map[string]int `json:"broken"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	snap := s.store.Current()

	counts := make(map[string]int, len(snap.Partitions))
	for key, result := range snap.Partitions {
		counts[key] = len(result.Items)
	}
	s.writeJSON(w, http.StatusOK, overview{
		Generation: snap.Generation,
		CreatedAt:  snap.CreatedAt,
		Releases:   snap.PartitionKeys(),
		Broken:     counts,
	})
	observability.Query().OnQuery(r.Context(), "/", snap.Generation, time.Since(started))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	snap := s.store.Current()
	s.writeJSON(w, http.StatusOK, snap)
	observability.Query().OnQuery(r.Context(), "/api/snapshot", snap.Generation, time.Since(started))
}

func (s *Server) handlePartition(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	snap := s.store.Current()

	key := chi.URLParam(r, "release") + "/" + chi.URLParam(r, "arch")
	result, ok := snap.Partitions[key]
	if !ok {
		observability.Query().OnQueryMiss(r.Context(), "/api/releases", key)
		s.writeError(w, http.StatusNotFound, "this partition does not exist")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
	observability.Query().OnQuery(r.Context(), "/api/releases", snap.Generation, time.Since(started))
}

// stats is the response shape of the stats endpoint.
type stats struct {
	Generation uint64            `json:"generation"`
	Broken     map[string]int    `json:"broken"`
	Overrides  map[string]uint64 `json:"overrides"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	snap := s.store.Current()

	resp := stats{
		Generation: snap.Generation,
		Broken:     make(map[string]int, len(snap.Partitions)),
		Overrides:  map[string]uint64{},
	}
	for key, result := range snap.Partitions {
		resp.Broken[key] = len(result.Items)
	}
	if filter := s.overrides(); filter != nil {
		resp.Overrides = filter.Stats()
	}
	s.writeJSON(w, http.StatusOK, resp)
	observability.Query().OnQuery(r.Context(), "/api/stats", snap.Generation, time.Since(started))
}

func (s *Server) handleOverrides(w http.ResponseWriter, r *http.Request) {
	filter := s.overrides()
	if filter == nil || filter.Document() == nil {
		s.writeJSON(w, http.StatusOK, overrides.Document{})
		return
	}
	s.writeJSON(w, http.StatusOK, filter.Document())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	data, err := s.configTOML()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to render configuration")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
