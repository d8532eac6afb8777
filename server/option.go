package server

import (
	"log/slog"
	"net/http"
)

// Option configures the Server
type Option func(*Server)

// WithCORS enables CORS handling
func WithCORS(cors *CORSConfig) Option {
	return func(s *Server) {
		s.cors = cors
	}
}

// WithMetricsHandler exposes h on /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}
