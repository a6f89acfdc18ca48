/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"chainguard.dev/docsabot/repository"
)

// Request defaults.
const (
	DefaultDocsPath    = "docs"
	DefaultTemperature = 1.0
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
)

// UpdateRequest is the input of one pipeline run.
type UpdateRequest struct {
	Diff        string   `json:"diff" jsonschema:"required,description=Unified diff of the code change to document"`
	Repo        string   `json:"repo" jsonschema:"required,description=owner/name or an HTTPS clone URL; a token may be embedded in the URL"`
	DocsPath    string   `json:"docs_path,omitempty" jsonschema:"default=docs,description=Documentation directory relative to the repository root"`
	Model       string   `json:"model,omitempty" jsonschema:"description=Completion model; defaults to the configured model"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2,default=1,description=Sampling temperature"`
}

// ValidationError reports a request rejected before any network or disk
// activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// WithDefaults fills unset optional fields. defaultModel is used when Model
// is empty.
func (r UpdateRequest) WithDefaults(defaultModel string) UpdateRequest {
	if strings.TrimSpace(r.DocsPath) == "" {
		r.DocsPath = DefaultDocsPath
	}
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
	return r
}

// TemperatureValue returns the temperature, or the default when unset.
func (r UpdateRequest) TemperatureValue() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

// Validate checks the request against host, the default git host for
// owner/name shorthands.
func (r UpdateRequest) Validate(host string) error {
	if strings.TrimSpace(r.Diff) == "" {
		return &ValidationError{Field: "diff", Reason: "cannot be empty"}
	}
	if _, err := repository.ParseTarget(r.Repo, host); err != nil {
		return &ValidationError{Field: "repo", Reason: err.Error()}
	}
	if r.DocsPath != "" && !filepath.IsLocal(filepath.FromSlash(r.DocsPath)) {
		return &ValidationError{Field: "docs_path", Reason: fmt.Sprintf("%q must be a relative path inside the repository", r.DocsPath)}
	}
	if t := r.TemperatureValue(); t < MinTemperature || t > MaxTemperature {
		return &ValidationError{Field: "temperature", Reason: fmt.Sprintf("%v is outside [%v, %v]", t, MinTemperature, MaxTemperature)}
	}
	if r.Model == "" {
		return &ValidationError{Field: "model", Reason: "no model requested and no default configured"}
	}
	return nil
}
