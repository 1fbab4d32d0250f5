// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/geminichat/internal/export"
	"github.com/jeranaias/geminichat/internal/markdown"
	"github.com/jeranaias/geminichat/internal/session"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

// Version is reported by /health. main overrides it at build time.
var Version = "dev"

// DefaultAddr binds loopback only.
const DefaultAddr = "127.0.0.1:8642"

// Server defaults.
const (
	DefaultRateLimit = 20.0
	DefaultBurst     = 40

	// maxUploadSize leaves room for multipart framing around an attachment.
	maxUploadSize = 21 << 20

	// maxJSONBody bounds JSON request bodies.
	maxJSONBody = 1 << 20
)

// Server is the local web UI and JSON API.
type Server struct {
	addr    string
	store   *session.Store
	chat    *session.Chat
	metrics *telemetry.Metrics
	log     zerolog.Logger
	limiter *RateLimiter

	router  *http.ServeMux
	handler http.Handler
	server  *http.Server
}

// NewServer creates a server over store. chat runs send and regenerate.
func NewServer(store *session.Store, chat *session.Chat) *Server {
	s := &Server{
		addr:    DefaultAddr,
		store:   store,
		chat:    chat,
		log:     zerolog.Nop(),
		limiter: NewRateLimiter(DefaultRateLimit, DefaultBurst),
		router:  http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// WithAddr sets the listen address.
func (s *Server) WithAddr(addr string) *Server {
	if addr != "" {
		s.addr = addr
	}
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(log zerolog.Logger) *Server {
	s.log = log.With().Str("component", "server").Logger()
	s.handler = nil
	return s
}

// WithMetrics records HTTP and render metrics and serves /metrics.
func (s *Server) WithMetrics(m *telemetry.Metrics) *Server {
	s.metrics = m
	s.handler = nil
	return s
}

// WithRateLimit sets the per-client request budget.
func (s *Server) WithRateLimit(perSecond float64, burst int) *Server {
	s.limiter = NewRateLimiter(perSecond, burst)
	s.handler = nil
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	if s.handler == nil {
		chain := Chain(
			RecoveryMiddleware(s.log),
			SecurityHeadersMiddleware(),
			LoggingMiddleware(s.log, s.metrics),
			RateLimitMiddleware(s.limiter, s.log),
		)
		s.handler = chain(s.router)
	}
	return s.handler
}

// setupRoutes registers the page and API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("GET /static/app.js", s.handleScript)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /metrics", s.handleMetrics)
	s.router.HandleFunc("GET /api/highlight.css", s.handleHighlightCSS)

	s.router.HandleFunc("GET /api/conversations", s.handleListConversations)
	s.router.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	s.router.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	s.router.HandleFunc("PATCH /api/conversations/{id}", s.handleRenameConversation)
	s.router.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)
	s.router.HandleFunc("GET /api/conversations/{id}/html", s.handleConversationHTML)
	s.router.HandleFunc("POST /api/conversations/{id}/activate", s.handleActivate)
	s.router.HandleFunc("GET /api/conversations/{id}/export", s.handleExport)

	s.router.HandleFunc("POST /api/messages", s.handleSend)
	s.router.HandleFunc("DELETE /api/messages/{index}", s.handleDeleteMessage)
	s.router.HandleFunc("POST /api/messages/{index}/regenerate", s.handleRegenerate)

	s.router.HandleFunc("GET /api/attachments", s.handleListAttachments)
	s.router.HandleFunc("POST /api/attachments", s.handleUpload)
	s.router.HandleFunc("DELETE /api/attachments/{index}", s.handleRemoveAttachment)

	s.router.HandleFunc("GET /api/search", s.handleSearch)

	s.router.HandleFunc("GET /api/prompts", s.handleListPrompts)
	s.router.HandleFunc("POST /api/prompts", s.handleSavePrompt)
	s.router.HandleFunc("DELETE /api/prompts/{index}", s.handleDeletePrompt)

	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * session.DefaultRequestTimeout,
		IdleTimeout:       120 * time.Second,
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// renderer returns a markdown renderer for the current theme.
func (s *Server) renderer() *markdown.Renderer {
	return markdown.New(markdown.NewChromaHighlighter(markdown.StyleForTheme(s.store.Theme())))
}

// ============================================================================
// Responses
// ============================================================================

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message, errType string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Message: message, Type: errType}})
}

// writeError maps a store or export error to its status code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, errType := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, session.ErrBusy):
		status, errType = http.StatusConflict, "busy"
	case errors.Is(err, session.ErrMissingAPIKey):
		status, errType = http.StatusPreconditionFailed, "missing_api_key"
	case errors.Is(err, session.ErrConversationNotFound):
		status, errType = http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrIndexOutOfRange):
		status, errType = http.StatusBadRequest, "index_out_of_range"
	case errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrNotAssistant),
		errors.Is(err, session.ErrInvalidTheme),
		errors.Is(err, export.ErrUnknownFormat):
		status, errType = http.StatusBadRequest, "invalid_request"
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeErrorJSON(w, status, err.Error(), errType)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), "invalid_request")
		return false
	}
	return true
}
