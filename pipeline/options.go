/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import "chainguard.dev/docsabot/config"

// OptionsFromConfig returns the Orchestrator options described by cfg. The
// token source and publisher depend on live credentials and are added by the
// caller.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkers(cfg.WorkerCount()),
		WithDeadline(cfg.PipelineDeadline),
		WithIdentity(cfg.CommitIdentity),
		WithMaxOutputTokens(cfg.MaxOutputTokens),
		WithAbortOnTotalFailure(cfg.AbortOnTotalFailure),
		WithHost(cfg.GitHubHost),
		WithDefaultModel(cfg.DefaultModel),
	}
}
