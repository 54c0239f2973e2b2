package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/opla/zoauth/auth"
)

type contextKey string

// GrantContextKey carries the access decision for the downstream handler.
const GrantContextKey contextKey = "grant"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request")
		next(w, r.WithContext(context.WithValue(r.Context(), contextKey("request_id"), requestID)))
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("Recovered from panic")
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

// GrantMiddleware runs the access decision for routeName before the handler.
// The token, when supplied, always wins over open-route and app-credential
// checks; the decision is stored in the request context on success.
func (s *Server) GrantMiddleware(routeName string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grant, authErr := s.auth.GrantAccess(routeName, r.Method, bearerToken(r), appCredentials(r))
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), GrantContextKey, grant)))
	}
}

// GrantFromContext returns the access decision stored by GrantMiddleware.
func GrantFromContext(ctx context.Context) *auth.GrantResult {
	grant, _ := ctx.Value(GrantContextKey).(*auth.GrantResult)
	return grant
}
