/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repository

import (
	"fmt"
	"net/url"
	"strings"
)

// Target identifies the remote repository a run works against.
type Target struct {
	Scheme string
	Host   string
	// Path is the repository path on the host, without a .git suffix.
	Path  string
	Owner string
	Name  string
	// Token is the access token embedded in the repository URL, if any.
	Token string
}

// ParseTarget accepts either "owner/name", hosted on defaultHost, or a full
// http(s) URL such as https://TOKEN@host/owner/name.git. Credentials in the
// URL are lifted into Token; a bare user component is treated as the token
// and a user:password pair yields the password.
func ParseTarget(repo, defaultHost string) (*Target, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return nil, fmt.Errorf("repository cannot be empty")
	}

	if !strings.Contains(repo, "://") {
		parts := strings.Split(strings.Trim(repo, "/"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("repository %q must be owner/name or an https URL", repo)
		}
		return newTarget("https", defaultHost, strings.Join(parts, "/"), "")
	}

	u, err := url.Parse(repo)
	if err != nil {
		return nil, fmt.Errorf("parsing repository URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("unsupported repository URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("repository URL %q has no host", u.Redacted())
	}

	var token string
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			token = pw
		} else {
			token = u.User.Username()
		}
	}
	return newTarget(u.Scheme, u.Host, u.Path, token)
}

func newTarget(scheme, host, p, token string) (*Target, error) {
	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	parts := strings.Split(p, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return nil, fmt.Errorf("repository path %q must name an owner and a repository", p)
	}
	return &Target{
		Scheme: scheme,
		Host:   host,
		Path:   p,
		Owner:  parts[len(parts)-2],
		Name:   parts[len(parts)-1],
		Token:  token,
	}, nil
}

// CloneURL returns the remote URL without credentials.
func (t *Target) CloneURL() string {
	return (&url.URL{Scheme: t.Scheme, Host: t.Host, Path: "/" + t.Path}).String()
}

// String returns owner/name.
func (t *Target) String() string {
	return t.Owner + "/" + t.Name
}
