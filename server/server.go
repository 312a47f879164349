// Package server implements the crewdeck HTTP server: REST API, JWT auth,
// and the login throttle.
package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/crewdeck/crewdeck/config"
	"github.com/crewdeck/crewdeck/server/api"
	"github.com/crewdeck/crewdeck/service"
)

// Server is the crewdeck HTTP server.
type Server struct {
	cfg     config.Config
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *slog.Logger

	persons  *service.PersonService
	projects *service.ProjectService
	tasks    *service.TaskService
	throttle *LoginThrottle

	// JWT secret caching
	secretOnce      sync.Once
	generatedSecret string

	startTime time.Time
	version   string
}

// New creates a new Server with the given config, services, and logger.
func New(cfg config.Config, persons *service.PersonService, projects *service.ProjectService, tasks *service.TaskService, ver string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	window := time.Duration(cfg.Throttle.WindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	maxAttempts := cfg.Throttle.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		logger:    logger,
		persons:   persons,
		projects:  projects,
		tasks:     tasks,
		throttle:  NewLoginThrottle(maxAttempts, window),
		startTime: time.Now(),
		version:   ver,
	}
}

// jwtSecret returns the configured JWT secret, generating one if empty.
func (s *Server) jwtSecret() string {
	if s.cfg.Auth.JWTSecret != "" {
		return s.cfg.Auth.JWTSecret
	}
	s.secretOnce.Do(func() {
		b := make([]byte, 32)
		_, _ = rand.Read(b)
		s.generatedSecret = base64.RawURLEncoding.EncodeToString(b)
	})
	return s.generatedSecret
}

// Start registers routes and begins listening.
func (s *Server) Start() error {
	s.registerRoutes()

	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":8790"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	h := &api.Handlers{
		Persons:  s.persons,
		Projects: s.projects,
		Tasks:    s.tasks,
		Actor:    ActorFrom,
		Logger:   s.logger,
		Version:  s.version,
	}

	// Public routes (no auth required)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/status", h.StatusHandler())

	// Protected API — wrapped in auth middleware
	apiMux := http.NewServeMux()
	h.RegisterRoutes(apiMux)
	apiMux.HandleFunc("GET /api/auth/me", s.handleMe)

	s.mux.Handle("/api/", s.authMiddleware(apiMux))
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
