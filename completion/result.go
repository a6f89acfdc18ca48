/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package completion

import "chainguard.dev/docsabot/promptbuilder"

// Usage is the token accounting reported by a backend, when it reports any.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Result is either OK, holding an assistant message, or Malformed, holding
// the raw response and why it was rejected. The zero Result is Malformed.
type Result struct {
	ok      bool
	message promptbuilder.Message
	raw     string
	reason  string
	usage   Usage
}

// OK returns a Result carrying msg.
func OK(msg promptbuilder.Message) Result {
	return Result{ok: true, message: msg}
}

// Malformed returns a Result for a response that failed validation.
func Malformed(raw, reason string) Result {
	return Result{raw: raw, reason: reason}
}

// FromResponse validates a backend response: it must be authored by the
// assistant. Empty content is a valid answer for an empty document; backends
// report a missing answer with Malformed themselves.
func FromResponse(role promptbuilder.Role, content string) Result {
	if role != promptbuilder.RoleAssistant {
		return Malformed(content, "unexpected role "+quoteRole(role))
	}
	return OK(promptbuilder.Message{Role: role, Content: content})
}

func quoteRole(r promptbuilder.Role) string {
	if r == "" {
		return `""`
	}
	return `"` + string(r) + `"`
}

// Message returns the assistant message and true for an OK result.
func (r Result) Message() (promptbuilder.Message, bool) {
	return r.message, r.ok
}

// IsMalformed reports whether r is Malformed.
func (r Result) IsMalformed() bool { return !r.ok }

// Raw is the rejected payload of a Malformed result.
func (r Result) Raw() string { return r.raw }

// Reason explains why a Malformed result was rejected.
func (r Result) Reason() string {
	if r.ok {
		return ""
	}
	if r.reason == "" {
		return "no response"
	}
	return r.reason
}

// Usage returns the token accounting attached with WithUsage.
func (r Result) Usage() Usage { return r.usage }

// WithUsage returns a copy of r carrying u.
func (r Result) WithUsage(u Usage) Result {
	r.usage = u
	return r
}
