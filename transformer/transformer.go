/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package transformer rewrites a single documentation file through a
// completion client.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrMalformedResponse is wrapped by an Error when the completion client
// answered with a Malformed result.
var ErrMalformedResponse = errors.New("malformed completion response")

// Error is a per-file failure. It wraps an I/O error, a completion error or
// ErrMalformedResponse.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transforming %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DocumentUpdate records one rewritten file.
type DocumentUpdate struct {
	Path       string `json:"path"`
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
}

// Job is the input for one file. Everything except Path is shared,
// read-only, across the jobs of a run.
type Job struct {
	Path            string
	Diff            string
	Model           string
	Temperature     float64
	RepoSummary     string
	MaxOutputTokens int64
}

var tracer = otel.Tracer("chainguard.dev/docsabot/transformer")

// Transform reads job.Path, asks client for its new content and overwrites
// the file. The file is written only after a validated response, and not at
// all once ctx is done. Any failure is returned as *Error.
func Transform(ctx context.Context, client completion.Client, job Job) (update DocumentUpdate, err error) {
	ctx, span := tracer.Start(ctx, "transform")
	span.SetAttributes(attribute.String("path", job.Path))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	fail := func(err error) (DocumentUpdate, error) {
		return DocumentUpdate{}, &Error{Path: job.Path, Err: err}
	}

	info, err := os.Stat(job.Path)
	if err != nil {
		return fail(err)
	}
	old, err := os.ReadFile(job.Path)
	if err != nil {
		return fail(err)
	}

	res, err := client.Complete(ctx, completion.Request{
		Model:           job.Model,
		Conversation:    promptbuilder.Build(job.Diff, string(old), job.RepoSummary),
		MaxOutputTokens: job.MaxOutputTokens,
		Temperature:     job.Temperature,
	})
	if err != nil {
		return fail(fmt.Errorf("completing: %w", err))
	}
	msg, ok := res.Message()
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrMalformedResponse, res.Reason()))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := os.WriteFile(job.Path, []byte(msg.Content), info.Mode().Perm()); err != nil {
		return fail(err)
	}

	clog.FromContext(ctx).Debugf("Rewrote %s (%d -> %d bytes)", job.Path, len(old), len(msg.Content))
	return DocumentUpdate{
		Path:       job.Path,
		OldContent: string(old),
		NewContent: msg.Content,
	}, nil
}
