/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package repository wraps a transient git working copy for one docsabot
// run. Clone places the checkout in a fresh temporary directory; the
// Repository then exposes the handful of operations the update pipeline
// needs:
//   - Summarize renders the working copy as an indented tree for model context.
//   - BranchName derives docsabot-docs-update-<short hash> from HEAD.
//   - CreateBranch, StageAllModified, Commit and Push publish the edits.
//
// Close removes the working copy and must run on every exit path. Every
// git-layer failure is reported as a *Error carrying the failed operation.
package repository
