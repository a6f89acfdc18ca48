/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repository

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

const summaryIndent = "    "

// Summarize renders the working copy as an indented tree listing.
func (r *Repository) Summarize() (string, error) {
	out, err := Summarize(r.root)
	if err != nil {
		return "", &Error{Op: OpSummarize, Err: err}
	}
	return out, nil
}

// Summarize lists every entry under root, one per line, indented four
// spaces per level. Directories end in "/" and .git is skipped. Entries
// appear in filepath.WalkDir order.
func Summarize(root string) (string, error) {
	var sb strings.Builder
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		sb.WriteString(strings.Repeat(summaryIndent, depth))
		sb.WriteString(d.Name())
		if d.IsDir() {
			sb.WriteString("/")
		}
		sb.WriteString("\n")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("summarizing %s: %w", root, err)
	}
	return sb.String(), nil
}
