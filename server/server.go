// MIT License
//
// Copyright (c) 2025-2026 GrainLink Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package server exposes the shortener over HTTP. The edge is deliberately
// thin: decode, delegate to the service, map the error taxonomy onto status
// codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	gerrors "github.com/grainlink/grainlink/errors"
	"github.com/grainlink/grainlink/log"
	"github.com/grainlink/grainlink/persistence"
	"github.com/grainlink/grainlink/shortener"
)

// Server is the HTTP edge of the shortener.
type Server struct {
	service *shortener.Service
	store   persistence.Store
	logger  log.Logger

	listenAddr      string
	baseURL         string
	shutdownTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithListenAddr sets the host:port the server binds to.
func WithListenAddr(addr string) ServerOption {
	return func(s *Server) { s.listenAddr = addr }
}

// WithBaseURL sets the public prefix short URLs are built from.
func WithBaseURL(baseURL string) ServerOption {
	return func(s *Server) { s.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithShutdownTimeout bounds the graceful drain on shutdown.
func WithShutdownTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

// NewServer creates a Server fronting the given service. The store is only
// used by the health endpoint.
func NewServer(service *shortener.Service, store persistence.Store, opts ...ServerOption) *Server {
	srv := &Server{
		service:         service,
		store:           store,
		logger:          log.DefaultLogger,
		listenAddr:      ":8080",
		baseURL:         "http://localhost:8080",
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Router builds the HTTP routing table.
func (s *Server) Router() chi.Router {
	router := chi.NewRouter()
	router.Use(s.accessLog)

	router.Post("/api/links", s.handleCreate)
	router.Delete("/api/links/{code}", s.handleDelete)
	router.Get("/healthz", s.handleHealth)
	router.Get("/{code}", s.handleRedirect)
	return router
}

// Run serves until the context is cancelled, then drains in-flight requests
// within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.listenAddr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("http server listening on %s", s.listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}

type createRequest struct {
	TargetURL string `json:"target_url"`
}

type createResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := s.service.Create(r.Context(), req.TargetURL)
	switch {
	case errors.Is(err, gerrors.ErrInvalidTargetURL):
		s.writeError(w, http.StatusBadRequest, "target_url must be an absolute http(s) URL")
		return
	case err != nil:
		s.logger.Errorf("failed to create short link: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create short link")
		return
	}

	s.writeJSON(w, http.StatusOK, createResponse{
		ShortCode: code,
		ShortURL:  s.baseURL + "/" + code,
	})
}

func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	target, err := s.service.Resolve(r.Context(), code)
	switch {
	case errors.Is(err, gerrors.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "unknown short link")
		return
	case err != nil:
		s.logger.Errorf("failed to resolve short link %s: %v", code, err)
		s.writeError(w, http.StatusInternalServerError, "failed to resolve short link")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	err := s.service.Delete(r.Context(), code)
	switch {
	case errors.Is(err, gerrors.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "unknown short link")
		return
	case err != nil:
		s.logger.Errorf("failed to delete short link %s: %v", code, err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete short link")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Errorf("health check failed: %v", err)
		s.writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Errorf("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// accessLog logs one line per request at debug level.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugf("%s %s served in %s", r.Method, r.URL.Path, time.Since(start))
	})
}
