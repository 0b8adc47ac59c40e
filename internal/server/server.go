// Package server exposes the AnswerXtractor HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"answerxtractor/internal/app"
	"answerxtractor/internal/ratelimit"
	"answerxtractor/internal/util"
	"answerxtractor/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// Redis enables login and signup rate limiting. Nil disables it.
	Redis                    *redis.Client
	LoginRateLimitPerMinute  int
	SignupRateLimitPerMinute int
	TrustedProxies           *util.TrustedProxies
	CORSOrigin               string
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	validate       *validator.Validate
	trustedProxies *util.TrustedProxies
	corsOrigin     string
	signupLimiter  *ratelimit.FixedWindowLimiter
	loginLimiter   *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app required")
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		trustedProxies: cfg.TrustedProxies,
		corsOrigin:     cfg.CORSOrigin,
	}
	if cfg.Redis != nil {
		signupLimit := cfg.SignupRateLimitPerMinute
		if signupLimit <= 0 {
			signupLimit = 5
		}
		loginLimit := cfg.LoginRateLimitPerMinute
		if loginLimit <= 0 {
			loginLimit = 10
		}
		var err error
		if s.signupLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.Redis, "answerx:ratelimit:signup", signupLimit, time.Minute); err != nil {
			return nil, fmt.Errorf("init signup limiter: %w", err)
		}
		if s.loginLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.Redis, "answerx:ratelimit:login", loginLimit, time.Minute); err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("answerxtractor", util.WithSecurityHeaders(util.WithCORS(s.corsOrigin, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)

	// auth
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.Handle("GET /api/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("DELETE /api/users/me", s.authenticated(s.handleDeleteMe))

	// documents
	s.mux.Handle("GET /api/documents", s.authenticated(s.handleListDocuments))
	s.mux.Handle("POST /api/documents/upload", s.authenticated(s.handleUploadDocument))
	s.mux.Handle("DELETE /api/documents/{id}", s.authenticated(s.handleDeleteDocument))
	s.mux.Handle("GET /api/documents/{id}/download", s.authenticated(s.handleDownloadDocument))
	s.mux.Handle("POST /api/documents/{id}/study-tools", s.authenticated(s.handleGenerateStudyTool))
	s.mux.Handle("GET /api/documents/{id}/study-tools/{type}", s.authenticated(s.handleLatestStudyTool))

	// chats
	s.mux.Handle("GET /api/chats", s.authenticated(s.handleListChats))
	s.mux.Handle("POST /api/chats", s.authenticated(s.handleCreateChat))
	s.mux.Handle("GET /api/chats/{id}", s.authenticated(s.handleChatMessages))
	s.mux.Handle("POST /api/chats/{id}/messages", s.authenticated(s.handleSendMessage))
	s.mux.Handle("DELETE /api/chats/{id}", s.authenticated(s.handleDeleteChat))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.app.Ping(ctx); err != nil {
		util.LoggerFromContext(r.Context()).Warn("readiness check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

// authenticated resolves the bearer token to a user before calling next.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Token is missing")
			return
		}
		user, err := s.app.UserFromToken(token)
		if err != nil {
			if errors.Is(err, app.ErrUnauthorized) {
				s.audit(r, "token_rejected", "failure", "err", err)
				writeError(w, http.StatusUnauthorized, app.ErrUnauthorized.Error())
				return
			}
			s.writeAppError(w, r, err)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := util.ClientIP(r, s.trustedProxies)
	decision, err := limiter.Allow(r.Context(), key)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("rate limiter unavailable", "err", err)
	}
	if decision.Allowed {
		return true
	}
	retry := int((decision.RetryAfter + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
	s.audit(r, "rate_limited", "failure")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// decodeJSON reads a bounded JSON body into dst and runs struct validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errInvalidJSON
	}
	return s.validate.Struct(dst)
}

var errInvalidJSON = errors.New("invalid JSON body")

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}
