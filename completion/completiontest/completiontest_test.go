/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package completiontest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/promptbuilder"
)

func TestDocumentRoundTrip(t *testing.T) {
	for _, doc := range []string{"", "# Title\n", "a ]]> b <c> & d"} {
		conv := promptbuilder.Build("diff ]]> here", doc, "summary")
		if got := Document(conv); got != doc {
			t.Errorf("Document = %q, want %q", got, doc)
		}
		if got := Diff(conv); got != "diff ]]> here" {
			t.Errorf("Diff = %q", got)
		}
	}
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	req := completion.Request{Conversation: promptbuilder.Build("d", "hello", "s")}

	rec := &Recorder{Next: Map(strings.ToUpper)}
	res, err := rec.Complete(ctx, req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if msg, ok := res.Message(); !ok || msg.Content != "HELLO" {
		t.Errorf("Map result = %+v, ok=%v", msg, ok)
	}
	if len(rec.Requests()) != 1 {
		t.Errorf("Requests = %d, want 1", len(rec.Requests()))
	}

	boom := errors.New("boom")
	if _, err := Fail(boom).Complete(ctx, req); !errors.Is(err, boom) {
		t.Errorf("Fail error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Echo().Complete(cancelled, req); !errors.Is(err, context.Canceled) {
		t.Errorf("Echo on cancelled context = %v", err)
	}
}
