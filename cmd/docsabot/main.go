/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the docsabot HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/docsabot/completion/backend"
	"chainguard.dev/docsabot/config"
	"chainguard.dev/docsabot/ghauth"
	"chainguard.dev/docsabot/pipeline"
	"chainguard.dev/docsabot/publisher"
	"chainguard.dev/docsabot/server"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const drainTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, settings, err := config.Load(ctx, nil)
	if err != nil {
		clog.FatalContextf(ctx, "loading config: %v", err)
	}

	tokens, err := ghauth.NewTokenSource(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating GitHub token source: %v", err)
	}
	if tokens == nil {
		clog.WarnContextf(ctx, "No GitHub credentials configured; requests must embed a token in the repository URL")
	}

	// The completion client is built once and shared by every request. A
	// construction failure is reported per request as 503.
	client := backend.OrUnavailable(backend.New(ctx, cfg))

	apiURL := cfg.GitHubAPIURL
	if apiURL == "" {
		apiURL = publisher.APIURLForHost(cfg.GitHubHost)
	}
	opts := append(pipeline.OptionsFromConfig(cfg),
		pipeline.WithTokenSource(tokens),
		pipeline.WithPublisher(publisher.New(publisher.WithAPIURL(apiURL))),
	)
	orch := pipeline.New(client, opts...)

	go serveMetrics(ctx, cfg.MetricsPort)

	clog.InfoContextf(ctx, "Starting docsabot on port %d (provider %s, %d workers)", cfg.Port, cfg.CompletionProvider, orch.Workers())
	srv := server.New(orch, settings)
	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port), drainTimeout); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.ErrorContextf(ctx, "metrics server failed: %v", err)
	}
}
