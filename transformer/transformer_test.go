/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package transformer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/completion/completiontest"
	"chainguard.dev/docsabot/promptbuilder"
	"github.com/google/go-cmp/cmp"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guide.md")
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestTransform(t *testing.T) {
	path := writeDoc(t, "# Guide\nold text\n")
	rec := &completiontest.Recorder{Next: completiontest.Map(func(doc string) string {
		return strings.Replace(doc, "old", "new", 1)
	})}

	got, err := Transform(context.Background(), rec, Job{
		Path:            path,
		Diff:            "fix typo",
		Model:           "gpt-3.5-turbo",
		Temperature:     0.2,
		RepoSummary:     "repo/\n",
		MaxOutputTokens: 1500,
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	want := DocumentUpdate{Path: path, OldContent: "# Guide\nold text\n", NewContent: "# Guide\nnew text\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Transform (-want +got):\n%s", diff)
	}
	if content := readDoc(t, path); content != want.NewContent {
		t.Errorf("file = %q, want %q", content, want.NewContent)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}

	reqs := rec.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Model != "gpt-3.5-turbo" || req.Temperature != 0.2 || req.MaxOutputTokens != 1500 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Conversation) != 5 || completiontest.Diff(req.Conversation) != "fix typo" {
		t.Errorf("conversation not built from job")
	}
}

func TestTransformNoOpUpdate(t *testing.T) {
	path := writeDoc(t, "unchanged\n")
	got, err := Transform(context.Background(), completiontest.Echo(), Job{Path: path})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got.OldContent != got.NewContent {
		t.Errorf("echo update changed content: %+v", got)
	}
}

func TestTransformEmptyDocument(t *testing.T) {
	for _, content := range []string{"", "\n\n", "  \t\n"} {
		path := writeDoc(t, content)
		got, err := Transform(context.Background(), completiontest.Echo(), Job{Path: path})
		if err != nil {
			t.Fatalf("Transform(%q): %v", content, err)
		}
		want := DocumentUpdate{Path: path, OldContent: content, NewContent: content}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Transform(%q) (-want +got):\n%s", content, diff)
		}
		if got := readDoc(t, path); got != content {
			t.Errorf("file = %q, want %q", got, content)
		}
	}
}

func TestTransformFailures(t *testing.T) {
	boom := errors.New("model unavailable")
	malformed := completion.Func(func(context.Context, completion.Request) (completion.Result, error) {
		return completion.FromResponse(promptbuilder.RoleUser, "text"), nil
	})

	tests := []struct {
		name    string
		client  completion.Client
		missing bool
		want    error
	}{{
		name:   "completion error",
		client: completiontest.Fail(boom),
		want:   boom,
	}, {
		name:   "malformed response",
		client: malformed,
		want:   ErrMalformedResponse,
	}, {
		name:    "missing file",
		client:  completiontest.Echo(),
		missing: true,
		want:    fs.ErrNotExist,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDoc(t, "original\n")
			if tt.missing {
				path += ".gone"
			}

			_, err := Transform(context.Background(), tt.client, Job{Path: path})
			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("Transform error = %v, want *Error", err)
			}
			if terr.Path != path {
				t.Errorf("Error.Path = %q, want %q", terr.Path, path)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Transform error = %v, want wrapping %v", err, tt.want)
			}
			if !tt.missing {
				if content := readDoc(t, path); content != "original\n" {
					t.Errorf("file was overwritten after failure: %q", content)
				}
			}
		})
	}
}

func TestTransformSkipsWriteAfterDeadline(t *testing.T) {
	path := writeDoc(t, "original\n")
	ctx, cancel := context.WithCancel(context.Background())

	// The client succeeds but the run is cancelled before the write.
	client := completion.Func(func(context.Context, completion.Request) (completion.Result, error) {
		cancel()
		return completion.FromResponse(promptbuilder.RoleAssistant, "late"), nil
	})

	_, err := Transform(ctx, client, Job{Path: path})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Transform error = %v, want context.Canceled", err)
	}
	if content := readDoc(t, path); content != "original\n" {
		t.Errorf("file written after cancellation: %q", content)
	}
}
