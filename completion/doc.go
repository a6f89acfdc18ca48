/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package completion defines the capability docsabot needs from a language
// model: turn a conversation into one assistant message.
//
// A Client is constructed once per process (see the backend package) and
// passed to every pipeline run. Responses come back as a tagged Result that
// is either OK, carrying a validated assistant message, or Malformed, carrying
// the raw payload and the reason it was rejected. Transport and API failures
// are returned as errors instead.
//
// Wrappers compose around any Client:
//
//	client = completion.Instrument(completion.Limit(client, 4), "openai", completion.NewMetrics("chainguard.dev/docsabot"))
package completion
