/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repository

import (
	"errors"
	"fmt"
)

// Operations reported in Error.Op.
const (
	OpClone     = "clone"
	OpSummarize = "summarize"
	OpHead      = "head"
	OpBranch    = "branch"
	OpStage     = "stage"
	OpCommit    = "commit"
	OpPush      = "push"
)

// Error is returned for any git-layer failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("repository %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCloneError reports whether err is a failure to acquire the working copy.
func IsCloneError(err error) bool {
	var repoErr *Error
	return errors.As(err, &repoErr) && repoErr.Op == OpClone
}
