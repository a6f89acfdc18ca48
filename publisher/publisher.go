/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package publisher opens the pull request for a pushed documentation
// branch.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// DefaultTitle is used when a PullRequest has no title.
const DefaultTitle = "Update documentation"

// PullRequest describes the pull request to open.
type PullRequest struct {
	Owner string
	Repo  string
	Head  string
	Base  string
	Token string
	Title string
	Body  string
}

// Outcome describes a created pull request.
type Outcome struct {
	Number     int
	URL        string
	StatusCode int
}

// Error reports a failed pull-request creation. StatusCode is zero when no
// response was received.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("creating pull request: %v", e.Err)
	}
	return fmt.Sprintf("creating pull request: status %d: %v", e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures a Publisher.
type Option func(*Publisher)

// WithAPIURL points the publisher at a GitHub Enterprise or test API root.
func WithAPIURL(u string) Option {
	return func(p *Publisher) {
		p.apiURL = u
	}
}

// WithHTTPClient sets the base HTTP client. The token is layered on top of
// it per request.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Publisher) {
		p.httpClient = hc
	}
}

// Publisher creates pull requests through the GitHub REST API.
type Publisher struct {
	apiURL     string
	httpClient *http.Client
}

// New returns a Publisher for api.github.com unless WithAPIURL is given.
func New(opts ...Option) *Publisher {
	p := &Publisher{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// APIURLForHost returns the REST API root for a git host: api.github.com for
// github.com and https://<host>/api/v3/ for Enterprise Server hosts.
func APIURLForHost(host string) string {
	if host == "" || host == "github.com" || host == "www.github.com" {
		return ""
	}
	return "https://" + host + "/api/v3/"
}

func (p *Publisher) client(token string) (*github.Client, error) {
	client := github.NewClient(p.httpClient).WithAuthToken(token)
	if p.apiURL == "" {
		return client, nil
	}
	base, err := url.Parse(p.apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing API URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	client.BaseURL = base
	return client, nil
}

// OpenPullRequest issues a single create call. A non-2xx response is
// returned as *Error; the pushed branch is left as it is.
func (p *Publisher) OpenPullRequest(ctx context.Context, pr PullRequest) (*Outcome, error) {
	if pr.Owner == "" || pr.Repo == "" || pr.Head == "" || pr.Base == "" {
		return nil, &Error{Err: errors.New("owner, repo, head and base are required")}
	}
	client, err := p.client(pr.Token)
	if err != nil {
		return nil, &Error{Err: err}
	}

	title := pr.Title
	if title == "" {
		title = DefaultTitle
	}

	log := clog.FromContext(ctx)
	log.Infof("Creating PR on %s/%s with head %s and base %s", pr.Owner, pr.Repo, pr.Head, pr.Base)

	created, resp, err := client.PullRequests.Create(ctx, pr.Owner, pr.Repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(pr.Body),
		Head:  github.Ptr(pr.Head),
		Base:  github.Ptr(pr.Base),
	})
	if err != nil {
		perr := &Error{Err: err}
		if resp != nil {
			perr.StatusCode = resp.StatusCode
		}
		return nil, perr
	}

	log.Infof("Created PR #%d: %s", created.GetNumber(), created.GetHTMLURL())
	return &Outcome{
		Number:     created.GetNumber(),
		URL:        created.GetHTMLURL(),
		StatusCode: resp.StatusCode,
	}, nil
}
