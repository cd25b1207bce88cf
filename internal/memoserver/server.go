// Package memoserver is a small in-memory implementation of the memo HTTP
// API. It backs the devserver binary and end-to-end tests of the client.
package memoserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"mymemo-client/internal/config"
	apperrors "mymemo-client/internal/errors"
	"mymemo-client/internal/validation"
	"mymemo-client/pkg/api"
)

type ctxKey struct{}

func claimsFrom(ctx context.Context) *jwt.RegisteredClaims {
	claims, _ := ctx.Value(ctxKey{}).(*jwt.RegisteredClaims)
	return claims
}

func userFrom(ctx context.Context) string {
	if claims := claimsFrom(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

// Server serves the memo API.
type Server struct {
	store     *Store
	tokens    *Tokens
	cfg       config.DevServer
	validator *validation.Validator
	logger    *zap.Logger
}

// New creates a server with an empty store.
func New(cfg config.DevServer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens, err := NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     NewStore(),
		tokens:    tokens,
		cfg:       cfg,
		validator: validation.Default(),
		logger:    logger,
	}, nil
}

// Store returns the server's backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Tokens returns the server's token issuer.
func (s *Server) Tokens() *Tokens {
	return s.tokens
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup/", s.signup)
			r.Post("/login/", s.login)
			r.With(s.authenticate).Post("/logout/", s.logout)
		})

		r.Route("/mymemos", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/", s.listMemos)
			r.Post("/", s.createMemo)
			r.Get("/{id}/", s.getMemo)
			r.Put("/{id}/", s.updateMemo)
			r.Delete("/{id}/", s.deleteMemo)
			r.Patch("/{id}/favourite/", s.toggleFavourite)
		})
	})

	return router
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

// authenticate accepts "Authorization: Token <jwt>".
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Token") || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		claims, err := s.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			msg := "Invalid token."
			if errors.Is(err, errExpiredToken) {
				msg = "Token has expired."
			}
			respondError(w, http.StatusUnauthorized, msg)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.store.CreateUser(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errUserExists) {
			respondError(w, http.StatusBadRequest, "A user with that username already exists.")
			return
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Could not create user.")
		return
	}
	s.respondToken(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unable to log in with provided credentials.")
		return
	}
	s.respondToken(w, http.StatusOK, user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.tokens.Revoke(claimsFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (api.CredentialsRequest, bool) {
	var req api.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return req, false
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required.")
		return req, false
	}
	return req, true
}

func (s *Server) respondToken(w http.ResponseWriter, status int, user string) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Could not issue token.")
		return
	}
	respondJSON(w, status, api.TokenResponse{Token: token, Username: user})
}

func (s *Server) listMemos(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.ListMemos(userFrom(r.Context())))
}

func (s *Server) getMemo(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMemo(userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) createMemo(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemo(w, r)
	if !ok {
		return
	}
	m := s.store.CreateMemo(userFrom(r.Context()), req.Title, req.Memo)
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMemo(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMemo(w, r)
	if !ok {
		return
	}
	m, err := s.store.UpdateMemo(userFrom(r.Context()), chi.URLParam(r, "id"), req.Title, req.Memo)
	if err != nil {
		respondNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMemo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMemo(userFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondNotFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleFavourite(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.ToggleFavourite(userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondNotFound(w)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type memoBody struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
	Memo  string `json:"memo"`
}

func (s *Server) decodeMemo(w http.ResponseWriter, r *http.Request) (api.MemoRequest, bool) {
	var req api.MemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return req, false
	}
	if err := s.validator.Struct(memoBody{Title: req.Title, Memo: req.Memo}); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.UserMessage(err))
		return req, false
	}
	return req, true
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, api.ErrorResponse{Error: message})
}

func respondNotFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, "Not found.")
}
