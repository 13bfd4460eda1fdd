// Package server exposes the analytics engine over HTTP as a JSON API and as
// MCP tools.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pable/go-fm-metrics/internal/aggregator"
	"github.com/pable/go-fm-metrics/internal/analytics"
	"github.com/pable/go-fm-metrics/internal/cache"
	"github.com/pable/go-fm-metrics/internal/rollup"
	"github.com/pable/go-fm-metrics/internal/schema"
	"github.com/pable/go-fm-metrics/internal/storage"
)

// Config wires a Server.
type Config struct {
	Store       storage.RecordStore
	Cache       cache.Cache
	Strict      bool
	ScoreParser string
	Logger      *slog.Logger
	CORSOrigins []string
	// Timeout bounds each request; zero uses 30s.
	Timeout time.Duration
}

// Server serves one record store. The analytics engine is rebuilt lazily
// whenever the store revision moves.
type Server struct {
	cfg   Config
	log   *slog.Logger
	tools []toolInfo

	mu  sync.Mutex
	eng *analytics.Engine
}

// New returns a Server for cfg.
func New(cfg Config) *Server {
	if cfg.Cache == nil {
		cfg.Cache = cache.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{cfg: cfg, log: cfg.Logger}
}

// Engine returns an engine over the store's current revision.
func (s *Server) Engine() (*analytics.Engine, error) {
	rev, err := s.cfg.Store.Revision()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng != nil && s.eng.Dataset().Revision == rev {
		return s.eng, nil
	}
	data, err := analytics.Load(s.cfg.Store)
	if err != nil {
		return nil, err
	}
	s.eng = analytics.New(data, analytics.Options{
		Strict: s.cfg.Strict,
		Parser: rollup.ParserByName(s.cfg.ScoreParser),
		Cache:  s.cfg.Cache,
	})
	s.log.Info("dataset loaded", "revision", data.Revision, "match_rows", len(data.MatchStats), "squad_rows", len(data.Squad))
	return s.eng, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	mcpHandler := s.mcpHandler()
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/seasons", s.listSeasons)
		r.Get("/squad", s.getSquad)
		r.Get("/transfers", s.getTransfers)
		r.Post("/transfers", s.postTransfers)
		r.Post("/matches", s.postMatches)

		r.Get("/players", s.getPlayers)
		r.Get("/players/{name}/seasons", s.getPlayerSeasons)
		r.Get("/players/{name}/scout", s.getScout)
		r.Get("/players/{name}/trend", s.getTrend)

		r.Get("/leaderboard", s.getLeaderboard)
		r.Get("/team", s.getTeam)
		r.Get("/radar", s.getRadar)
		r.Get("/scatter", s.getScatter)
		r.Get("/tools", s.listTools)
	})

	r.Handle("/mcp", mcpHandler)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "err", err)
	}
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

// fail maps engine errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.respondError(w, statusFor(err), err)
}

func statusFor(err error) int {
	var missing *schema.MissingColumnError
	var conflict *aggregator.ConflictError
	var bad *badRequestError
	switch {
	case errors.As(err, &bad), errors.As(err, &missing):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.Is(err, analytics.ErrPlayerNotFound), errors.Is(err, analytics.ErrNoData):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }
