// Package httpserver owns the HTTP server lifecycle so main stays small.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

// New returns an http.Server with conservative timeouts.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Server wraps http.Server to keep lifecycle handling in one place.
type Server struct {
	srv *http.Server
}

// ListenAndServe starts accepting connections.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
