/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"chainguard.dev/docsabot/completion"
	"chainguard.dev/docsabot/ghauth"
	"chainguard.dev/docsabot/locator"
	"chainguard.dev/docsabot/publisher"
	"chainguard.dev/docsabot/repository"
	"chainguard.dev/docsabot/transformer"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	// CommitMessage is used for every documentation commit.
	CommitMessage = "Update documentation"

	// SuccessMessage is the Result message of a completed run.
	SuccessMessage = "Documentation updated and changes pushed"

	defaultIdentity        = "docsabot"
	defaultMaxOutputTokens = 1500
	defaultHost            = "github.com"
)

// ErrAllTransformsFailed is returned when every located file failed and the
// orchestrator was built WithAbortOnTotalFailure(true).
var ErrAllTransformsFailed = errors.New("every documentation file failed to transform")

// remoteURL maps a parsed target to the URL handed to git. Tests point it at
// local repositories.
var remoteURL = func(t *repository.Target) string {
	return t.CloneURL()
}

var tracer = otel.Tracer("chainguard.dev/docsabot/pipeline")

// Result is the outcome of a successful run.
type Result struct {
	Message        string                       `json:"message"`
	Updates        []transformer.DocumentUpdate `json:"updates"`
	Branch         string                       `json:"branch"`
	PullRequestURL string                       `json:"pull_request_url,omitempty"`
	Failed         int                          `json:"failed"`
}

// Publisher opens the pull request for a pushed branch.
type Publisher interface {
	OpenPullRequest(ctx context.Context, pr publisher.PullRequest) (*publisher.Outcome, error)
}

// Orchestrator runs the update pipeline. One Orchestrator is shared by every
// request of a process; each Run owns its own working copy.
type Orchestrator struct {
	client              completion.Client
	tokens              oauth2.TokenSource
	publisher           Publisher
	workers             int
	deadline            time.Duration
	identity            string
	maxOutputTokens     int64
	abortOnTotalFailure bool
	observer            StateObserver
	host                string
	defaultModel        string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds the number of files transformed at once. Values below
// one select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithDeadline limits the transform phase of every run. When it expires,
// pending and in-flight transforms are abandoned and completed ones are
// still committed and published. Zero disables the deadline.
func WithDeadline(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.deadline = d
	}
}

// WithPublisher sets the pull-request publisher. Without one, runs stop
// after pushing the branch.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithTokenSource supplies the hosting token used when the repository URL
// does not embed one.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *Orchestrator) {
		o.tokens = ts
	}
}

// WithIdentity sets the commit author and the name used in PR bodies.
func WithIdentity(identity string) Option {
	return func(o *Orchestrator) {
		if identity != "" {
			o.identity = identity
		}
	}
}

// WithMaxOutputTokens caps each completion.
func WithMaxOutputTokens(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxOutputTokens = n
		}
	}
}

// WithAbortOnTotalFailure makes a run fail with ErrAllTransformsFailed,
// before anything is committed, when every located file failed. By default
// such a run still publishes an empty commit.
func WithAbortOnTotalFailure(abort bool) Option {
	return func(o *Orchestrator) {
		o.abortOnTotalFailure = abort
	}
}

// WithStateObserver registers a callback for state transitions.
func WithStateObserver(obs StateObserver) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// WithHost sets the git host used for owner/name repository shorthands.
func WithHost(host string) Option {
	return func(o *Orchestrator) {
		if host != "" {
			o.host = host
		}
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(o *Orchestrator) {
		o.defaultModel = model
	}
}

// New returns an Orchestrator that sends every completion through client.
func New(client completion.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:          client,
		workers:         runtime.NumCPU(),
		identity:        defaultIdentity,
		maxOutputTokens: defaultMaxOutputTokens,
		host:            defaultHost,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Workers returns the size of the transform pool.
func (o *Orchestrator) Workers() int { return o.workers }

// Host returns the default git host.
func (o *Orchestrator) Host() string { return o.host }

// DefaultModel returns the model used for requests that name none.
func (o *Orchestrator) DefaultModel() string { return o.defaultModel }

func (o *Orchestrator) transition(ctx context.Context, s State) {
	clog.FromContext(ctx).Debugf("Pipeline state %s", s)
	if o.observer != nil {
		o.observer(s)
	}
}

// Run executes one pipeline run. The working copy is removed before Run
// returns on every path.
//
// Once started, a run is not cancelled by its caller. Only a deadline, the
// caller's or WithDeadline's, abandons transforms.
//
// Fatal errors abort before anything is committed: *ValidationError,
// *config.ConfigurationError, completion.ErrUnavailable, *repository.Error,
// *locator.NotFoundError and ErrAllTransformsFailed. Per-file failures are
// logged, counted in Result.Failed and left out of Result.Updates. A failed
// pull-request creation is logged and leaves Result.PullRequestURL empty.
func (o *Orchestrator) Run(ctx context.Context, req UpdateRequest) (res *Result, err error) {
	start := time.Now()
	ctx, cancel := detach(ctx)
	defer cancel()
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.transition(ctx, StateError)
		}
		runsTotal.WithLabelValues(outcome).Inc()
		runDuration.Observe(time.Since(start).Seconds())
		span.End()
	}()

	o.transition(ctx, StateInit)
	req = req.WithDefaults(o.defaultModel)
	if err := req.Validate(o.host); err != nil {
		return nil, err
	}
	if err := completion.Check(o.client); err != nil {
		return nil, err
	}

	target, err := repository.ParseTarget(req.Repo, o.host)
	if err != nil {
		return nil, &ValidationError{Field: "repo", Reason: err.Error()}
	}
	token, err := ghauth.Resolve(target.Token, o.tokens)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("repo", target.String()), attribute.String("model", req.Model))
	log := clog.FromContext(ctx).With("repo", target.String())
	ctx = clog.WithLogger(ctx, log)

	repo, err := repository.Clone(ctx, remoteURL(target), token, repository.WithIdentity(o.identity))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			log.Warnf("Failed to remove working copy: %v", cerr)
		}
	}()
	o.transition(ctx, StateCloned)

	summary, err := repo.Summarize()
	if err != nil {
		return nil, err
	}
	o.transition(ctx, StateSummarized)

	files, err := locator.Locate(filepath.Join(repo.Root(), filepath.FromSlash(req.DocsPath)))
	if err != nil {
		return nil, err
	}
	log.Infof("Located %d documentation files under %s", len(files), req.DocsPath)
	o.transition(ctx, StateFilesLocated)

	o.transition(ctx, StateTransforming)
	updates, failed := o.transformAll(ctx, files, transformer.Job{
		Diff:            req.Diff,
		Model:           req.Model,
		Temperature:     req.TemperatureValue(),
		RepoSummary:     summary,
		MaxOutputTokens: o.maxOutputTokens,
	})
	o.transition(ctx, StateAggregated)

	if len(files) > 0 && failed == len(files) {
		if o.abortOnTotalFailure {
			return nil, fmt.Errorf("%w: %d of %d", ErrAllTransformsFailed, failed, len(files))
		}
		log.Warnf("All %d documentation files failed; publishing an empty commit", failed)
	}

	// Publishing runs to completion even if the caller's deadline has passed.
	pubCtx := context.WithoutCancel(ctx)
	branch, prURL, err := o.publish(pubCtx, repo, target, token, req.Diff, updates)
	if err != nil {
		return nil, err
	}
	o.transition(ctx, StatePublished)

	o.transition(ctx, StateDone)
	return &Result{
		Message:        SuccessMessage,
		Updates:        updates,
		Branch:         branch,
		PullRequestURL: prURL,
		Failed:         failed,
	}, nil
}

// detach drops ctx's cancellation but keeps its values and deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	ctx = context.WithoutCancel(ctx)
	if !ok {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline)
}

// transformAll fans the files out over the worker pool. Results are kept in
// completion order. Files not started before the deadline count as failed.
func (o *Orchestrator) transformAll(ctx context.Context, files []string, base transformer.Job) ([]transformer.DocumentUpdate, int) {
	if o.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deadline)
		defer cancel()
	}
	log := clog.FromContext(ctx)

	var (
		mu      sync.Mutex
		updates = make([]transformer.DocumentUpdate, 0, len(files))
		failed  int
	)
	record := func(u transformer.DocumentUpdate, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed++
			return
		}
		updates = append(updates, u)
	}

	g := new(errgroup.Group)
	g.SetLimit(o.workers)
	for i, file := range files {
		if ctx.Err() != nil {
			abandoned := len(files) - i
			log.Warnf("Deadline reached; abandoning %d documentation files", abandoned)
			documentsTotal.WithLabelValues("abandoned").Add(float64(abandoned))
			mu.Lock()
			failed += abandoned
			mu.Unlock()
			break
		}

		job := base
		job.Path = file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				documentsTotal.WithLabelValues("abandoned").Inc()
				record(transformer.DocumentUpdate{}, err)
				return nil
			}
			u, err := transformer.Transform(ctx, o.client, job)
			if err != nil {
				log.Warnf("File %s failed: %v", job.Path, err)
				documentsTotal.WithLabelValues("failed").Inc()
			} else {
				log.Infof("Updated file: %s", job.Path)
				documentsTotal.WithLabelValues("updated").Inc()
			}
			record(u, err)
			return nil
		})
	}
	// Workers never return errors; failures are counted in record.
	_ = g.Wait()
	return updates, failed
}

// publish stages, branches, commits, pushes and opens the pull request.
// Only git failures are returned; a pull-request failure is logged.
func (o *Orchestrator) publish(ctx context.Context, repo *repository.Repository, target *repository.Target, token, diff string, updates []transformer.DocumentUpdate) (string, string, error) {
	log := clog.FromContext(ctx)

	staged, err := repo.StageAllModified()
	if err != nil {
		return "", "", err
	}
	branch, err := repo.BranchName()
	if err != nil {
		return "", "", err
	}
	if err := repo.CreateBranch(branch); err != nil {
		return "", "", err
	}
	if _, err := repo.Commit(CommitMessage); err != nil {
		return "", "", err
	}
	if err := repo.Push(ctx, branch); err != nil {
		return "", "", err
	}
	log.Infof("Pushed %s with %d staged files", branch, len(staged))

	if o.publisher == nil {
		return branch, "", nil
	}

	docs := make([]string, 0, len(updates))
	for _, u := range updates {
		docs = append(docs, u.Path)
	}
	out, err := o.publisher.OpenPullRequest(ctx, publisher.PullRequest{
		Owner: target.Owner,
		Repo:  target.Name,
		Head:  branch,
		Base:  repo.DefaultBranch(),
		Token: token,
		Title: publisher.DefaultTitle,
		Body:  publisher.Body(o.identity, diff, repo.Root(), docs),
	})
	if err != nil {
		log.Errorf("Failed to create pull request for %s: %v", branch, err)
		pullRequestsTotal.WithLabelValues("failed").Inc()
		return branch, "", nil
	}
	pullRequestsTotal.WithLabelValues("created").Inc()
	return branch, out.URL, nil
}
