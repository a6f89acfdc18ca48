/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package completiontest provides deterministic completion clients for
// tests.
package completiontest

import (
	"context"
	"strings"
	"sync"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
)

// documentIndex is the position of the current file content in a built
// conversation.
const documentIndex = 3

// Document extracts the file content embedded in a conversation built by
// promptbuilder.Build.
func Document(conv promptbuilder.Conversation) string {
	if len(conv) <= documentIndex {
		return ""
	}
	return payload(conv[documentIndex].Content)
}

// Diff extracts the diff embedded in a conversation built by
// promptbuilder.Build.
func Diff(conv promptbuilder.Conversation) string {
	if len(conv) <= 2 {
		return ""
	}
	return payload(conv[2].Content)
}

func payload(s string) string {
	start := strings.Index(s, "<![CDATA[")
	end := strings.LastIndex(s, "]]>")
	if start == -1 || end < start {
		return ""
	}
	return strings.ReplaceAll(s[start+len("<![CDATA["):end], "]]]]><![CDATA[>", "]]>")
}

// Echo returns a client that answers with the document unchanged.
func Echo() completion.Client {
	return Map(func(doc string) string { return doc })
}

// Map returns a client that answers with fn applied to the document.
func Map(fn func(doc string) string) completion.Client {
	return completion.Func(func(ctx context.Context, req completion.Request) (completion.Result, error) {
		if err := ctx.Err(); err != nil {
			return completion.Result{}, err
		}
		return completion.FromResponse(promptbuilder.RoleAssistant, fn(Document(req.Conversation))), nil
	})
}

// Fail returns a client whose calls all fail with err.
func Fail(err error) completion.Client {
	return completion.Func(func(context.Context, completion.Request) (completion.Result, error) {
		return completion.Result{}, err
	})
}

// Recorder wraps a client and keeps every request it sees.
type Recorder struct {
	Next completion.Client

	mu       sync.Mutex
	requests []completion.Request
}

// Complete implements completion.Client.
func (r *Recorder) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return r.Next.Complete(ctx, req)
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []completion.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]completion.Request(nil), r.requests...)
}

// Check forwards to the wrapped client.
func (r *Recorder) Check() error {
	return completion.Check(r.Next)
}
