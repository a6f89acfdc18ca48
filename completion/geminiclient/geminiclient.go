/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package geminiclient implements completion.Client on the Gemini API
// through google.golang.org/genai.
//
// System messages become the system instruction and assistant turns use the
// "model" role. Gemini expects the final turn to come from the user, so a
// trailing assistant message is followed by a closing user turn.
package geminiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
	"google.golang.org/genai"
)

const closingTurn = "Reply with the updated file content now."

// Option configures a Client.
type Option func(*genai.ClientConfig) error

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(cfg *genai.ClientConfig) error {
		cfg.HTTPOptions.BaseURL = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *genai.ClientConfig) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.HTTPClient = hc
		return nil
	}
}

// Client calls GenerateContent. It is safe for concurrent use.
type Client struct {
	client *genai.Client
}

var _ completion.Client = (*Client)(nil)

// New creates a Client on the Gemini Developer API authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Client{client: client}, nil
}

// Complete implements completion.Client.
func (c *Client) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(req.Conversation)+1)
	for i, m := range req.Conversation {
		switch m.Role {
		case promptbuilder.RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case promptbuilder.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case promptbuilder.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			return completion.Result{}, fmt.Errorf("message %d has unsupported role %q", i, m.Role)
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: system}
	}
	if n := len(req.Conversation); n > 0 && req.Conversation[n-1].Role == promptbuilder.RoleAssistant {
		contents = append(contents, genai.NewContentFromText(closingTurn, genai.RoleUser))
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return completion.Result{}, fmt.Errorf("generating content: %w", err)
	}

	var usage completion.Usage
	if resp.UsageMetadata != nil {
		usage = completion.Usage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		reason := "response has no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return completion.Malformed("", reason).WithUsage(usage), nil
	}

	role := promptbuilder.RoleAssistant
	if r := string(resp.Candidates[0].Content.Role); r != "" && r != string(genai.RoleModel) {
		role = promptbuilder.Role(r)
	}
	return completion.FromResponse(role, resp.Text()).WithUsage(usage), nil
}
