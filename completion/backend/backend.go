/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package backend builds the process-wide completion client from
// configuration.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/completion/claudeclient"
	"chainguard.dev/docsabot/completion/geminiclient"
	"chainguard.dev/docsabot/completion/openaiclient"
	"chainguard.dev/docsabot/config"
)

// Provider names accepted in COMPLETION_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// MeterName is the OpenTelemetry meter used for completion metrics.
const MeterName = "chainguard.dev/docsabot/completion"

// New constructs the configured backend, wrapped with the concurrency limit
// and token metrics. It is called once at process start; a failure leaves
// the process without a client, which the server reports per request.
func New(ctx context.Context, cfg *config.Config) (completion.Client, error) {
	hc := &http.Client{Timeout: cfg.CompletionTimeout}
	provider := strings.ToLower(strings.TrimSpace(cfg.CompletionProvider))

	var (
		client completion.Client
		err    error
	)
	switch provider {
	case ProviderOpenAI:
		opts := []openaiclient.Option{openaiclient.WithHTTPClient(hc)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openaiclient.WithBaseURL(cfg.OpenAIBaseURL))
		}
		client, err = openaiclient.New(cfg.OpenAIAPIKey, opts...)
	case ProviderClaude, "anthropic":
		provider = ProviderClaude
		client, err = claudeclient.New(cfg.AnthropicAPIKey, claudeclient.WithHTTPClient(hc))
	case ProviderGemini, "google":
		provider = ProviderGemini
		client, err = geminiclient.New(ctx, cfg.GeminiAPIKey, geminiclient.WithHTTPClient(hc))
	default:
		return nil, &config.ConfigurationError{
			Setting: "COMPLETION_PROVIDER",
			Reason:  fmt.Sprintf("unknown provider %q", cfg.CompletionProvider),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", provider, err)
	}

	client = completion.Limit(client, cfg.CompletionConcurrency)
	return completion.Instrument(client, provider, completion.NewMetrics(MeterName)), nil
}

// OrUnavailable returns client, or a client that answers every call
// with completion.ErrUnavailable when err is set.
func OrUnavailable(client completion.Client, err error) completion.Client {
	if err != nil {
		return completion.Unavailable(err)
	}
	return client
}
