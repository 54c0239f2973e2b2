// Package server is the thin transport adapter: it extracts credentials from
// requests, calls into the authorization core and serializes its decisions.
package server

import (
	"net/http"

	"github.com/opla/zoauth/auth"
	"github.com/opla/zoauth/internal/config"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.AuthorizationService
}

func New(cfg config.Config, authService *auth.AuthorizationService) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		env:    cfg.GetEnv(),
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}
