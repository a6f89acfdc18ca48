/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeclient implements completion.Client on the Anthropic
// Messages API.
//
// System messages are lifted into the request's system prompt. Temperature
// is clamped to the [0, 1] range the API accepts. When a conversation ends
// with an assistant turn, a closing user turn asks for the file so the reply
// is a full document rather than a continuation.
package claudeclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// closingTurn follows a trailing assistant message.
const closingTurn = "Reply with the updated file content now."

// Option configures a Client.
type Option func(*settings) error

type settings struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) error {
		s.baseURL = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		s.httpClient = hc
		return nil
	}
}

// Client calls the Messages API. It is safe for concurrent use.
type Client struct {
	client anthropic.Client
}

var _ completion.Client = (*Client)(nil)

// New creates a Client authenticated with apiKey. Failed calls are not
// retried.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
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
	return &Client{client: anthropic.NewClient(reqOpts...)}, nil
}

// Complete implements completion.Client.
func (c *Client) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   req.MaxOutputTokens,
		Temperature: anthropic.Float(min(max(req.Temperature, 0), 1)),
	}

	for i, m := range req.Conversation {
		switch m.Role {
		case promptbuilder.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case promptbuilder.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case promptbuilder.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			return completion.Result{}, fmt.Errorf("message %d has unsupported role %q", i, m.Role)
		}
	}
	if n := len(req.Conversation); n > 0 && req.Conversation[n-1].Role == promptbuilder.RoleAssistant {
		params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(closingTurn)))
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return completion.Result{}, fmt.Errorf("creating message: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	usage := completion.Usage{
		PromptTokens:     msg.Usage.InputTokens,
		CompletionTokens: msg.Usage.OutputTokens,
	}
	if len(msg.Content) == 0 {
		return completion.Malformed(msg.RawJSON(), "response has no content blocks").WithUsage(usage), nil
	}
	return completion.FromResponse(promptbuilder.Role(msg.Role), text.String()).WithUsage(usage), nil
}
