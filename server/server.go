/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package server exposes the update pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/config"
	"chainguard.dev/docsabot/locator"
	"chainguard.dev/docsabot/pipeline"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// maxBodyBytes bounds an update request; diffs larger than this are rejected.
const maxBodyBytes = 10 << 20

// RequestIDHeader carries the request id, either supplied by the caller or
// generated per request.
const RequestIDHeader = "X-Request-Id"

// Runner executes one pipeline run. *pipeline.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.UpdateRequest) (*pipeline.Result, error)
}

// Server serves the docsabot HTTP API.
type Server struct {
	runner   Runner
	settings *config.Settings
	schema   *jsonschema.Schema
}

// New returns a Server that hands every update request to runner. settings
// may be nil, in which case GET /settings always reports not found.
func New(runner Runner, settings *config.Settings) *Server {
	if settings == nil {
		settings = &config.Settings{}
	}
	return &Server{
		runner:   runner,
		settings: settings,
		schema:   requestSchema(settings.OpenAPI),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ai/update-docs", s.handleUpdateDocs)
	mux.HandleFunc("GET /ai/update-docs/schema", s.handleSchema)
	mux.HandleFunc("GET /settings", s.handleSettings)
	mux.HandleFunc("GET /healthz", handleHealth)
	return withRequestLogger(mux)
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests for up to drain.
func (s *Server) ListenAndServe(ctx context.Context, addr string, drain time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	clog.InfoContextf(ctx, "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := r.Context()
		log := clog.FromContext(ctx).With("request_id", id, "method", r.Method, "path", r.URL.Path)
		ctx = clog.WithLogger(ctx, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleUpdateDocs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	var req pipeline.UpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return
	}

	// Runs outlive client disconnects.
	res, err := s.runner.Run(context.WithoutCancel(ctx), req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			log.Errorf("Update failed: %v", err)
		} else {
			log.Warnf("Update rejected: %v", err)
		}
		writeError(ctx, w, status, err)
		return
	}
	log.Infof("Update finished: %d updated, %d failed, branch %s", len(res.Updates), res.Failed, res.Branch)
	writeJSON(ctx, w, http.StatusOK, res)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.schema)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	path := s.settings.OpenAPI.SettingsPath
	if path == "" {
		http.Error(w, "Settings file not found.", http.StatusNotFound)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			clog.FromContext(r.Context()).Warnf("Opening settings file %s: %v", path, err)
		}
		http.Error(w, "Settings file not found.", http.StatusNotFound)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		http.Error(w, "Settings file not found.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// StatusFor maps a pipeline error to its HTTP status.
func StatusFor(err error) int {
	var (
		cfgErr   *config.ConfigurationError
		notFound *locator.NotFoundError
		invalid  *pipeline.ValidationError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, completion.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	writeJSON(ctx, w, status, errorBody{Detail: err.Error()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		clog.WarnContextf(ctx, "Encoding response: %v", err)
	}
}
