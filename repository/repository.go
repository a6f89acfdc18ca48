/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	// CloneDirPrefix prefixes the temporary directory holding each working copy.
	CloneDirPrefix = "docsabot-clone-"

	// BranchPrefix prefixes every branch docsabot pushes.
	BranchPrefix = "docsabot-docs-update-"

	shortHashLength = 8
)

// Repository is a transient working copy of a remote repository. It is not
// safe for concurrent use; callers serialize git operations.
type Repository struct {
	dir      string
	root     string
	repo     *git.Repository
	auth     *githttp.BasicAuth
	identity string
	baseRef  string
}

// Option configures a Repository at clone time.
type Option func(*Repository)

// WithIdentity sets the commit author name. Identities without a domain are
// suffixed with @chainguard.dev for the author email.
func WithIdentity(identity string) Option {
	return func(r *Repository) {
		if identity = strings.TrimSpace(identity); identity != "" {
			r.identity = identity
		}
	}
}

// Clone creates a working copy of remote inside a fresh temporary directory.
// The token, when non-empty, authenticates both the clone and later pushes.
// Callers must Close the returned Repository to remove the working copy.
func Clone(ctx context.Context, remote, token string, opts ...Option) (*Repository, error) {
	dir, err := os.MkdirTemp("", CloneDirPrefix)
	if err != nil {
		return nil, &Error{Op: OpClone, Err: fmt.Errorf("creating temp dir: %w", err)}
	}

	r := &Repository{
		dir:      dir,
		root:     filepath.Join(dir, cloneName(remote)),
		identity: "docsabot",
	}
	for _, opt := range opts {
		opt(r)
	}
	if token != "" {
		r.auth = &githttp.BasicAuth{
			Username: "unused-when-using-access-tokens",
			Password: token,
		}
	}

	clog.FromContext(ctx).Infof("Cloning repository %s into %s", remote, r.root)
	repo, err := git.PlainCloneContext(ctx, r.root, false, &git.CloneOptions{
		URL:  remote,
		Auth: r.authMethod(),
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, &Error{Op: OpClone, Err: fmt.Errorf("cloning repository: %w", err)}
	}
	r.repo = repo

	head, err := repo.Head()
	if err != nil {
		os.RemoveAll(dir)
		return nil, &Error{Op: OpClone, Err: fmt.Errorf("resolving HEAD: %w", err)}
	}
	r.baseRef = head.Name().Short()
	return r, nil
}

// authMethod returns an untyped nil without a token so go-git falls back to
// anonymous access.
func (r *Repository) authMethod() transport.AuthMethod {
	if r.auth == nil {
		return nil
	}
	return r.auth
}

func cloneName(remote string) string {
	name := strings.TrimSuffix(path.Base(strings.TrimRight(filepath.ToSlash(remote), "/")), ".git")
	if name == "" || name == "." || name == "/" {
		return "repo"
	}
	return name
}

// Close removes the working copy. It is safe to call more than once.
func (r *Repository) Close() error {
	if r == nil || r.dir == "" {
		return nil
	}
	dir := r.dir
	r.dir = ""
	r.repo = nil
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing working copy: %w", err)
	}
	return nil
}

// Root returns the absolute path of the working copy.
func (r *Repository) Root() string {
	return r.root
}

// DefaultBranch returns the short name of the branch checked out by the clone.
func (r *Repository) DefaultBranch() string {
	return r.baseRef
}

// HeadCommitID returns the full hash of the current HEAD commit.
func (r *Repository) HeadCommitID() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", &Error{Op: OpHead, Err: fmt.Errorf("resolving HEAD: %w", err)}
	}
	return head.Hash().String(), nil
}

// BranchName derives the update branch from the HEAD commit:
// docsabot-docs-update-<first 8 hex chars>.
func (r *Repository) BranchName() (string, error) {
	id, err := r.HeadCommitID()
	if err != nil {
		return "", err
	}
	return BranchNameFor(id), nil
}

// BranchNameFor returns the update branch name for a commit id.
func BranchNameFor(commitID string) string {
	if len(commitID) > shortHashLength {
		commitID = commitID[:shortHashLength]
	}
	return BranchPrefix + commitID
}

// CreateBranch points a new branch at HEAD and makes it current. The
// worktree and index are left untouched, so pending edits carry over.
func (r *Repository) CreateBranch(name string) error {
	if name == "" {
		return &Error{Op: OpBranch, Err: errors.New("branch name cannot be empty")}
	}
	head, err := r.repo.Head()
	if err != nil {
		return &Error{Op: OpBranch, Err: fmt.Errorf("resolving HEAD: %w", err)}
	}
	refName := plumbing.NewBranchReferenceName(name)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return &Error{Op: OpBranch, Err: fmt.Errorf("setting branch reference: %w", err)}
	}
	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, refName)); err != nil {
		return &Error{Op: OpBranch, Err: fmt.Errorf("moving HEAD: %w", err)}
	}
	return nil
}

// StageAllModified stages modified and deleted tracked files, like
// `git add --update`. Untracked files are ignored. It returns the staged
// paths relative to the working copy root.
func (r *Repository) StageAllModified() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, &Error{Op: OpStage, Err: fmt.Errorf("getting worktree: %w", err)}
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, &Error{Op: OpStage, Err: fmt.Errorf("getting worktree status: %w", err)}
	}

	var staged []string
	for p, st := range status {
		switch st.Worktree {
		case git.Modified:
			if _, err := worktree.Add(p); err != nil {
				return nil, &Error{Op: OpStage, Err: fmt.Errorf("adding %s: %w", p, err)}
			}
		case git.Deleted:
			if _, err := worktree.Remove(p); err != nil {
				return nil, &Error{Op: OpStage, Err: fmt.Errorf("removing %s: %w", p, err)}
			}
		default:
			continue
		}
		staged = append(staged, p)
	}
	return staged, nil
}

// Commit records the index as a new commit on the current branch. Empty
// commits are allowed.
func (r *Repository) Commit(message string) (string, error) {
	if message == "" {
		return "", &Error{Op: OpCommit, Err: errors.New("commit message cannot be empty")}
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", &Error{Op: OpCommit, Err: fmt.Errorf("getting worktree: %w", err)}
	}

	email := r.identity
	if !strings.Contains(email, "@") {
		email = fmt.Sprintf("%s@chainguard.dev", email)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.identity,
			Email: email,
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", &Error{Op: OpCommit, Err: fmt.Errorf("committing: %w", err)}
	}
	return hash.String(), nil
}

// Push pushes branch to the same ref name on origin. Automation branches
// belong to docsabot, so the push is forced.
func (r *Repository) Push(ctx context.Context, branch string) error {
	ref := plumbing.NewBranchReferenceName(branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref.String(), ref.String()))
	log := clog.FromContext(ctx)
	log.Infof("Pushing %s", refSpec)

	opts := &git.PushOptions{
		RemoteName: "origin",
		Force:      true,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       r.authMethod(),
	}
	if err := r.repo.PushContext(ctx, opts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Infof("Branch already up to date")
			return nil
		}
		return &Error{Op: OpPush, Err: fmt.Errorf("pushing %s: %w", branch, err)}
	}
	return nil
}
