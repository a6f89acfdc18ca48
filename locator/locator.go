/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package locator finds the documentation files under a directory.
package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the suffixes Locate treats as documentation when the
// caller does not supply its own.
var DefaultExtensions = []string{".md", ".txt", ".plantuml", ".puml"}

// NotFoundError reports that the documentation root does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("documentation directory not found: %s", e.Path)
}

// Locate walks root recursively and returns every regular file whose name
// ends in one of extensions, in lexical walk order. Matching is
// case-sensitive. Symlinked directories are not followed.
func Locate(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Path: root}
	}
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Path: root}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if hasSuffix(d.Name(), extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func hasSuffix(name string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
