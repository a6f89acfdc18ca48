/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestCloneAndClose(t *testing.T) {
	ctx := context.Background()
	remote, head := initTestRepo(t, map[string]string{
		"README.md":        "# readme",
		"docs/guide.md":    "guide",
		"docs/api/ref.txt": "reference",
	})

	repo, err := Clone(ctx, remote, "")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	if repo.Root() == remote {
		t.Fatalf("expected working copy to differ from remote")
	}
	if _, err := os.Stat(filepath.Join(repo.Root(), "docs", "guide.md")); err != nil {
		t.Fatalf("expected cloned file: %v", err)
	}
	if got := repo.DefaultBranch(); got != "master" {
		t.Errorf("DefaultBranch = %q, want master", got)
	}

	id, err := repo.HeadCommitID()
	if err != nil {
		t.Fatalf("HeadCommitID: %v", err)
	}
	if id != head {
		t.Errorf("HeadCommitID = %s, want %s", id, head)
	}

	branch, err := repo.BranchName()
	if err != nil {
		t.Fatalf("BranchName: %v", err)
	}
	if want := "docsabot-docs-update-" + head[:8]; branch != want {
		t.Errorf("BranchName = %q, want %q", branch, want)
	}

	root := repo.Root()
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(root); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected working copy removed, got err=%v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestCloneFailure(t *testing.T) {
	_, err := Clone(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), "")
	if err == nil {
		t.Fatal("expected clone error")
	}
	if !IsCloneError(err) {
		t.Fatalf("IsCloneError(%v) = false", err)
	}
}

func TestPublishBranch(t *testing.T) {
	ctx := context.Background()
	remote, head := initTestRepo(t, map[string]string{
		"docs/a.md":   "alpha",
		"docs/b.md":   "beta",
		"notes/c.txt": "gamma",
	})

	repo, err := Clone(ctx, remote, "", WithIdentity("docsabot-test"))
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := os.WriteFile(filepath.Join(repo.Root(), "docs", "a.md"), []byte("alpha v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Remove(filepath.Join(repo.Root(), "notes", "c.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repo.Root(), "untracked.md"), []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	staged, err := repo.StageAllModified()
	if err != nil {
		t.Fatalf("StageAllModified: %v", err)
	}
	sort.Strings(staged)
	if got, want := strings.Join(staged, ","), "docs/a.md,notes/c.txt"; got != want {
		t.Errorf("staged = %s, want %s", got, want)
	}

	branch, err := repo.BranchName()
	if err != nil {
		t.Fatalf("BranchName: %v", err)
	}
	if err := repo.CreateBranch(branch); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := repo.Commit("Update documentation"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := repo.Push(ctx, branch); err != nil {
		t.Fatalf("Push: %v", err)
	}

	origin, err := git.PlainOpen(remote)
	if err != nil {
		t.Fatalf("PlainOpen origin: %v", err)
	}
	ref, err := origin.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("Reference lookup: %v", err)
	}
	commit, err := origin.CommitObject(ref.Hash())
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}
	if commit.Message != "Update documentation" {
		t.Errorf("Message = %q", commit.Message)
	}
	if commit.Author.Email != "docsabot-test@chainguard.dev" {
		t.Errorf("Author.Email = %q", commit.Author.Email)
	}
	if len(commit.ParentHashes) != 1 || commit.ParentHashes[0].String() != head {
		t.Errorf("parents = %v, want [%s]", commit.ParentHashes, head)
	}

	file, err := commit.File("docs/a.md")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if content, _ := file.Contents(); content != "alpha v2" {
		t.Errorf("docs/a.md = %q, want alpha v2", content)
	}
	if _, err := commit.File("untracked.md"); err == nil {
		t.Errorf("untracked file should not be committed")
	}

	masterRef, err := origin.Reference(plumbing.NewBranchReferenceName("master"), true)
	if err != nil {
		t.Fatalf("master lookup: %v", err)
	}
	if masterRef.Hash().String() != head {
		t.Errorf("master moved to %s", masterRef.Hash())
	}
}

func TestEmptyCommitIsAllowed(t *testing.T) {
	ctx := context.Background()
	remote, head := initTestRepo(t, map[string]string{"docs/a.md": "alpha"})

	repo, err := Clone(ctx, remote, "")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	staged, err := repo.StageAllModified()
	if err != nil {
		t.Fatalf("StageAllModified: %v", err)
	}
	if len(staged) != 0 {
		t.Fatalf("staged = %v, want none", staged)
	}
	if err := repo.CreateBranch(BranchNameFor(head)); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	hash, err := repo.Commit("Update documentation")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if hash == head {
		t.Fatalf("expected a new commit")
	}
}

func TestSummarize(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	for _, p := range []string{"docs/api/ref.md", "docs/guide.md", "main.go", ".git/HEAD"} {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	got, err := Summarize(root)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := strings.Join([]string{
		"proj/",
		"    docs/",
		"        api/",
		"            ref.md",
		"        guide.md",
		"    main.go",
		"",
	}, "\n")
	if got != want {
		t.Errorf("Summarize =\n%s\nwant\n%s", got, want)
	}

	again, err := Summarize(root)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if again != got {
		t.Errorf("Summarize is not deterministic")
	}
}

func TestBranchNameFor(t *testing.T) {
	if got := BranchNameFor("0123456789abcdef"); got != "docsabot-docs-update-01234567" {
		t.Errorf("BranchNameFor = %q", got)
	}
	if got := BranchNameFor("abc"); got != "docsabot-docs-update-abc" {
		t.Errorf("BranchNameFor short = %q", got)
	}
}

func initTestRepo(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	return dir, hash.String()
}
