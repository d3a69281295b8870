//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the exporter and the callable validator over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-agentflow-go/exporter"
	"trpc.group/trpc-go/trpc-agentflow-go/log"
)

const (
	defaultMaxBodyBytes = 4 << 20
	headerRequestID     = "X-Request-ID"
)

// Server routes the /v1 API to an Exporter.
type Server struct {
	exporter       *exporter.Exporter
	router         *mux.Router
	maxBodyBytes   int64
	allowedOrigins []string
}

// Option configures the Server instance.
type Option func(*Server)

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithAllowedOrigins sets the CORS origins. All origins are allowed by
// default.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// New creates a server that exports with e. The caller keeps ownership of e.
func New(e *exporter.Exporter, opts ...Option) *Server {
	s := &Server{
		exporter:       e,
		router:         mux.NewRouter(),
		maxBodyBytes:   defaultMaxBodyBytes,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type", headerRequestID},
	})
	s.router.Use(c.Handler)
	s.router.Use(s.requestID)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// Full paths on the root router: a mux subrouter answers a method
	// mismatch with 404.
	s.router.HandleFunc("/v1/export", s.handleExport).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/validate", s.handleValidate).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/slots", s.handleSlots).Methods(http.MethodGet)

	// Preflight requests are answered by the CORS middleware, which only
	// runs on matched routes.
	preflight := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	s.router.HandleFunc("/v1/export", preflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/v1/validate", preflight).Methods(http.MethodOptions)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, kindMethodNotAllowed,
			fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path))
	})
}

// requestID tags each request and its log lines with an id, reusing the
// caller's X-Request-ID when present.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := log.WithRequestID(r.Context(), id)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.DebugfContext(ctx, "%s %s took %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind string, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}
