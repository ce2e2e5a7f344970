// Package server exposes the application wizard over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/smartapplicant/internal/config"
	"github.com/jonathan/smartapplicant/internal/db"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/server/middleware"
	"github.com/jonathan/smartapplicant/internal/server/ratelimit"
	"github.com/jonathan/smartapplicant/internal/session"
)

// Archive stores finished letter/email pairs. *db.DB implements it.
type Archive interface {
	SaveApplication(ctx context.Context, app *db.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*db.Application, error)
	ListApplications(ctx context.Context, filters db.ApplicationFilters) ([]db.Application, error)
}

// JobFetcher turns a job posting URL into its description text.
type JobFetcher func(ctx context.Context, url string) (string, error)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	sessions    *session.Manager
	tokens      *TokenService
	archive     Archive
	rateLimiter *ratelimit.Limiter
	fetchJob    JobFetcher

	pingInterval time.Duration
}

// Config holds server configuration
type Config struct {
	Port     int
	Sessions *session.Manager
	Tokens   *config.SessionConfig
	// Archive is optional; /applications routes exist only when it is set.
	Archive Archive
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
	// JobOptions configures job URL ingestion.
	JobOptions *ingestion.JobOptions
	// FetchJob overrides job URL ingestion.
	FetchJob JobFetcher
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.Tokens == nil || cfg.Tokens.Secret == "" {
		return nil, fmt.Errorf("session token secret is required")
	}

	s := &Server{
		sessions:     cfg.Sessions,
		tokens:       NewTokenService(cfg.Tokens),
		archive:      cfg.Archive,
		fetchJob:     cfg.FetchJob,
		pingInterval: 25 * time.Second,
	}
	if s.fetchJob == nil {
		opts := cfg.JobOptions
		s.fetchJob = func(ctx context.Context, url string) (string, error) {
			text, _, err := ingestion.IngestJobURL(ctx, url, opts)
			return text, err
		}
	}

	rlConfig := cfg.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)

	auth := middleware.AuthMiddleware(s.tokens.AsTokenValidator())
	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.Handle("GET /sessions/{id}", authed(s.handleGetSession))
	mux.Handle("DELETE /sessions/{id}", authed(s.handleDeleteSession))

	// Input step
	mux.Handle("PUT /sessions/{id}/resume", authed(s.handlePutResume))
	mux.Handle("DELETE /sessions/{id}/resume", authed(s.handleDeleteResume))
	mux.Handle("PUT /sessions/{id}/job", authed(s.handlePutJob))

	// Wizard actions
	mux.Handle("POST /sessions/{id}/letter", authed(s.handleGenerateLetter))
	mux.Handle("POST /sessions/{id}/email", authed(s.handleGenerateEmail))
	mux.Handle("POST /sessions/{id}/back", authed(s.handleBack))
	mux.Handle("POST /sessions/{id}/chat", authed(s.handleChat))
	mux.Handle("POST /sessions/{id}/reset", authed(s.handleReset))

	// Documents
	mux.Handle("GET /sessions/{id}/letter.pdf", authed(s.handleLetterPDF))
	mux.Handle("GET /sessions/{id}/letter.txt", authed(s.handleLetterText))
	mux.Handle("GET /sessions/{id}/email.txt", authed(s.handleEmailText))
	mux.Handle("GET /sessions/{id}/events", authed(s.handleEvents))

	if s.archive != nil {
		mux.Handle("GET /applications", authed(s.handleListApplications))
		mux.Handle("GET /applications/{app_id}", authed(s.handleGetApplication))
	}

	s.handler = middleware.Chain(mux,
		s.withRateLimit,
		middleware.RequestID,
		middleware.Recovery,
		middleware.Logging,
		middleware.CORS,
	)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      180 * time.Second, // model calls are slow
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logging.Info().Msg("server stopped")
	return nil
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.sessions.Close()
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Live(),
		"archive":  s.archive != nil,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	s.errorResponse(w, status, ErrorMessage(err))
}

// extractClientID uses the remote IP. X-Forwarded-For is ignored since the
// server is not assumed to sit behind a trusted proxy.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	logging.Warn().
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Int("limit", info.Limit).
		Time("reset_at", info.ResetTime).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
