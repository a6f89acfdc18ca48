/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ghauth turns docsabot's hosting credentials into an
// oauth2.TokenSource. A static personal access token is used as-is; a GitHub
// App installation mints short-lived installation tokens through
// ghinstallation.
package ghauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"chainguard.dev/docsabot/config"
	"github.com/bradleyfalzon/ghinstallation/v2"
	"golang.org/x/oauth2"
)

// NewTokenSource returns the token source described by cfg, or nil when no
// hosting credential is configured. A nil source is not an error here: a
// request may still carry its own token in the repository URL.
func NewTokenSource(ctx context.Context, cfg *config.Config) (oauth2.TokenSource, error) {
	switch {
	case cfg.GitHubAppID != 0:
		tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubAppPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading GitHub App key: %w", err)
		}
		if cfg.GitHubAPIURL != "" {
			tr.BaseURL = strings.TrimSuffix(cfg.GitHubAPIURL, "/")
		}
		return oauth2.ReuseTokenSource(nil, newInstallationTokenSource(ctx, tr)), nil
	case cfg.GitHubToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken}), nil
	}
	return nil, nil
}

// installationTokenSource adapts a ghinstallation transport to oauth2.
type installationTokenSource struct {
	ctx context.Context
	tr  *ghinstallation.Transport
}

// newInstallationTokenSource keeps ctx's values but not its cancellation:
// tokens are minted for requests long after the startup context is done.
func newInstallationTokenSource(ctx context.Context, tr *ghinstallation.Transport) *installationTokenSource {
	return &installationTokenSource{ctx: context.WithoutCancel(ctx), tr: tr}
}

func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.tr.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("minting installation token: %w", err)
	}
	expiry, _, err := s.tr.Expiry()
	if err != nil {
		return nil, fmt.Errorf("reading installation token expiry: %w", err)
	}
	return &oauth2.Token{AccessToken: token, Expiry: expiry}, nil
}

// Resolve picks the token for one pipeline run. A token embedded in the
// repository URL wins over the configured source. When neither yields a
// token the result is a *config.ConfigurationError.
func Resolve(embedded string, ts oauth2.TokenSource) (string, error) {
	if embedded != "" {
		return embedded, nil
	}
	if ts == nil {
		return "", &config.ConfigurationError{Setting: "GITHUB_TOKEN", Reason: "GitHub token is required"}
	}
	tok, err := ts.Token()
	if err != nil {
		return "", &config.ConfigurationError{Setting: "GITHUB_TOKEN", Reason: fmt.Sprintf("obtaining GitHub token: %v", err)}
	}
	if tok.AccessToken == "" {
		return "", &config.ConfigurationError{Setting: "GITHUB_TOKEN", Reason: "GitHub token is required"}
	}
	return tok.AccessToken, nil
}
