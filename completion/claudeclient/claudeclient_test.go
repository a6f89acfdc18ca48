/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/go-cmp/cmp"
)

type messagesRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newServer(t *testing.T, status int, body string, got *messagesRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.Header.Get("X-Api-Key"); key != "sk-ant-test" {
			t.Errorf("X-Api-Key = %q", key)
		}
		if got != nil {
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, got); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete(t *testing.T) {
	var got messagesRequest
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
		"content": [{"type": "text", "text": "# Updated"}, {"type": "text", "text": " guide\n"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 30, "output_tokens": 5}
	}`, &got)

	client, err := New("sk-ant-test", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	conv := promptbuilder.Build("fix typo", "# Guide\n", "repo/\n")
	res, err := client.Complete(context.Background(), completion.Request{
		Model:           "claude-sonnet-4-5",
		Conversation:    conv,
		MaxOutputTokens: 1500,
		Temperature:     1.7,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	msg, ok := res.Message()
	if !ok {
		t.Fatalf("malformed result: %s", res.Reason())
	}
	if msg.Content != "# Updated guide\n" {
		t.Errorf("Content = %q", msg.Content)
	}
	if diff := cmp.Diff(completion.Usage{PromptTokens: 30, CompletionTokens: 5}, res.Usage()); diff != "" {
		t.Errorf("Usage (-want +got):\n%s", diff)
	}

	if got.Temperature != 1 {
		t.Errorf("temperature = %v, want clamped to 1", got.Temperature)
	}
	if got.MaxTokens != 1500 {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}
	if len(got.System) != 1 || got.System[0].Text != conv[0].Content {
		t.Errorf("system = %+v", got.System)
	}
	var roles []string
	for _, m := range got.Messages {
		roles = append(roles, m.Role)
	}
	if diff := cmp.Diff([]string{"user", "user", "user", "assistant", "user"}, roles); diff != "" {
		t.Errorf("roles (-want +got):\n%s", diff)
	}
	if last := got.Messages[len(got.Messages)-1]; last.Content[0].Text != closingTurn {
		t.Errorf("closing turn = %q", last.Content[0].Text)
	}
}

func TestCompleteMalformed(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
		"content": [], "stop_reason": "max_tokens", "usage": {"input_tokens": 1, "output_tokens": 0}
	}`, nil)
	client, err := New("sk-ant-test", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := client.Complete(context.Background(), completion.Request{
		Model:           "m",
		MaxOutputTokens: 10,
		Conversation:    promptbuilder.Build("d", "c", "s"),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !res.IsMalformed() {
		t.Errorf("expected malformed result")
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`, nil)
	client, err := New("sk-ant-test", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Complete(context.Background(), completion.Request{
		Model:           "m",
		MaxOutputTokens: 10,
		Conversation:    promptbuilder.Build("d", "c", "s"),
	})
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Complete error = %v, want *anthropic.Error", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New without key succeeded")
	}
}
