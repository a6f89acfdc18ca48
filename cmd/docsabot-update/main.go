/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs a single documentation update from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chainguard.dev/docsabot/completion/backend"
	"chainguard.dev/docsabot/config"
	"chainguard.dev/docsabot/ghauth"
	"chainguard.dev/docsabot/pipeline"
	"chainguard.dev/docsabot/publisher"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/pflag"
)

type flags struct {
	Repo        string
	DiffFile    string
	DocsPath    string
	Model       string
	Temperature float64
	NoPR        bool
}

func parseFlags(args []string) (*flags, *pflag.FlagSet, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("docsabot-update", pflag.ContinueOnError)
	fs.StringVarP(&f.Repo, "repo", "r", "", "Repository to update: owner/name or an HTTPS URL, optionally with an embedded token.")
	fs.StringVarP(&f.DiffFile, "diff", "d", "-", "File holding the unified diff; '-' reads standard input.")
	fs.StringVarP(&f.DocsPath, "docs-path", "p", pipeline.DefaultDocsPath, "Documentation directory relative to the repository root.")
	fs.StringVarP(&f.Model, "model", "m", "", "Completion model (default: DEFAULT_MODEL).")
	fs.Float64VarP(&f.Temperature, "temperature", "t", pipeline.DefaultTemperature, "Sampling temperature in [0,2].")
	fs.BoolVar(&f.NoPR, "no-pr", false, "Push the branch without opening a pull request.")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsabot-update --repo owner/name [--diff FILE] [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if f.Repo == "" {
		return nil, nil, fmt.Errorf("--repo is required")
	}
	return f, fs, nil
}

// request builds the update request; temperature is only sent when set on
// the command line so the pipeline default applies otherwise.
func (f *flags) request(fs *pflag.FlagSet, diff string) pipeline.UpdateRequest {
	req := pipeline.UpdateRequest{
		Diff:     diff,
		Repo:     f.Repo,
		DocsPath: f.DocsPath,
		Model:    f.Model,
	}
	if fs.Changed("temperature") {
		t := f.Temperature
		req.Temperature = &t
	}
	return req
}

func readDiff(name string, stdin io.Reader) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading diff from stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading diff: %w", err)
	}
	return string(b), nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	f, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	diff, err := readDiff(f.DiffFile, os.Stdin)
	if err != nil {
		clog.FatalContextf(ctx, "%v", err)
	}

	cfg, _, err := config.Load(ctx, nil)
	if err != nil {
		clog.FatalContextf(ctx, "loading config: %v", err)
	}
	tokens, err := ghauth.NewTokenSource(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating GitHub token source: %v", err)
	}
	client, err := backend.New(ctx, cfg)
	if err != nil {
		clog.FatalContextf(ctx, "creating completion client: %v", err)
	}

	opts := append(pipeline.OptionsFromConfig(cfg), pipeline.WithTokenSource(tokens))
	if !f.NoPR {
		apiURL := cfg.GitHubAPIURL
		if apiURL == "" {
			apiURL = publisher.APIURLForHost(cfg.GitHubHost)
		}
		opts = append(opts, pipeline.WithPublisher(publisher.New(publisher.WithAPIURL(apiURL))))
	}

	res, err := pipeline.New(client, opts...).Run(ctx, f.request(fs, diff))
	if err != nil {
		clog.FatalContextf(ctx, "update failed: %v", err)
	}
	if err := writeReport(os.Stdout, res, f.DocsPath); err != nil {
		clog.FatalContextf(ctx, "writing report: %v", err)
	}
}
