/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaiclient implements completion.Client on the OpenAI chat
// completions API.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Option configures a Client.
type Option func(*settings) error

type settings struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) error {
		s.baseURL = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for API calls. Its Timeout is the
// transport-level deadline for a single completion.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		s.httpClient = hc
		return nil
	}
}

// Client calls the chat completions endpoint. It is safe for concurrent use.
type Client struct {
	client openai.Client
}

var _ completion.Client = (*Client)(nil)

// New creates a Client authenticated with apiKey. Failed calls are not
// retried.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	var s settings
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	if s.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.httpClient))
	}
	return &Client{client: openai.NewClient(reqOpts...)}, nil
}

// Complete implements completion.Client.
func (c *Client) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	messages, err := toMessages(req.Conversation)
	if err != nil {
		return completion.Result{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxOutputTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return completion.Result{}, fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return completion.Malformed(resp.RawJSON(), "response has no choices"), nil
	}

	msg := resp.Choices[0].Message
	usage := completion.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	return completion.FromResponse(promptbuilder.Role(msg.Role), msg.Content).WithUsage(usage), nil
}

func toMessages(conv promptbuilder.Conversation) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conv))
	for i, m := range conv {
		switch m.Role {
		case promptbuilder.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case promptbuilder.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case promptbuilder.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("message %d has unsupported role %q", i, m.Role)
		}
	}
	return messages, nil
}
