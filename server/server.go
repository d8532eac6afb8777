package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deeplooplabs/ai-assistant/suggest"
)

// UserHeader carries the caller's user id. Authentication happens upstream.
const UserHeader = "X-User-ID"

// Server exposes the suggestion service over HTTP
type Server struct {
	service        *suggest.Service
	mux            *http.ServeMux
	cors           *CORSConfig
	metricsHandler http.Handler
	logger         *slog.Logger

	// methods lists the registered methods per path, for 405 answers
	methods map[string][]string
}

// New creates a new server with default options
func New(service *suggest.Service, opts ...Option) *Server {
	s := &Server{
		service: service,
		mux:     http.NewServeMux(),
		logger:  slog.Default(),
		methods: make(map[string][]string),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.handle(http.MethodPost, "/v1/suggestions/messages", s.handleMessages)
	s.handle(http.MethodPost, "/v1/suggestions/events", s.handleEvents)
	s.handle(http.MethodPost, "/v1/suggestions/conversation-starters", s.handleStarters)
	s.handle(http.MethodGet, "/v1/suggestions/tip", s.handleTip)

	s.handle(http.MethodGet, "/v1/usage", s.handleUsage)
	s.handle(http.MethodGet, "/v1/cache/stats", s.handleCacheStats)
	s.handle(http.MethodDelete, "/v1/cache", s.handleCacheClear)

	s.mux.HandleFunc("/health", s.handleHealth)

	// Metrics endpoint (if metrics enabled)
	if s.metricsHandler != nil {
		s.mux.Handle("/metrics", s.metricsHandler)
	}

	// 404 for unmatched routes, 405 for a known path with another method
	s.mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handle(method, path string, h http.HandlerFunc) {
	s.mux.HandleFunc(method+" "+path, h)
	s.methods[path] = append(s.methods[path], method)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.cors != nil {
		origin := r.Header.Get("Origin")

		if s.cors.isOriginAllowed(origin) {
			if len(s.cors.AllowedOrigins) > 0 && s.cors.AllowedOrigins[0] == "*" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				s.cors.writePreflight(w, r)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if s.cors.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if len(s.cors.ExposedHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(s.cors.ExposedHeaders, ", "))
			}
		}
	}

	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("assistant server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type messagesRequest struct {
	ContactID string `json:"contact_id"`
	Context   string `json:"context"`
}

type eventsRequest struct {
	ContactID string   `json:"contact_id"`
	Budget    string   `json:"budget"`
	GroupSize int      `json:"group_size"`
	Interests []string `json:"interests"`
}

type startersRequest struct {
	ContactID string `json:"contact_id"`
	Topic     string `json:"topic"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req messagesRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ContactID == "" {
		writeJSONError(w, http.StatusBadRequest, "contact_id is required")
		return
	}

	writeJSON(w, http.StatusOK, s.service.GenerateMessageSuggestions(r.Context(), userID, req.ContactID, req.Context))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req eventsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.GroupSize < 0 {
		writeJSONError(w, http.StatusBadRequest, "group_size must not be negative")
		return
	}

	writeJSON(w, http.StatusOK, s.service.GenerateEventIdeas(r.Context(), suggest.EventIdeasRequest{
		UserID:    userID,
		ContactID: req.ContactID,
		Budget:    req.Budget,
		GroupSize: req.GroupSize,
		Interests: req.Interests,
	}))
}

func (s *Server) handleStarters(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req startersRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ContactID == "" {
		writeJSONError(w, http.StatusBadRequest, "contact_id is required")
		return
	}

	writeJSON(w, http.StatusOK, s.service.GenerateConversationStarters(r.Context(), userID, req.ContactID, req.Topic))
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.service.GenerateRelationshipTip(r.Context(), userID))
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	stats, err := s.service.UsageStats(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "usage stats failed", "user_id", userID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "usage stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.CacheStats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "cache stats failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "cache stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearCache(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "cache clear failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "cache clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if methods, ok := s.methods[r.URL.Path]; ok {
		w.Header().Set("Allow", strings.Join(methods, ", "))
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSONError(w, http.StatusNotFound, "Not found")
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(UserHeader))
	if userID == "" {
		writeJSONError(w, http.StatusBadRequest, UserHeader+" header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"invalid_request_error","code":%d}}`, message, code)
}

// DefaultMetricsHandler serves the default Prometheus registry
func DefaultMetricsHandler() http.Handler {
	return promhttp.Handler()
}
