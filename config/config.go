/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config loads docsabot's process configuration. Runtime knobs come
// from the environment through go-envconfig, looked up first with the
// DOCSABOT_ prefix and then without it, so GITHUB_TOKEN and OPENAI_API_KEY keep
// working unprefixed. Descriptive metadata and optional secrets come from a
// settings.yaml file merged with a .secrets.yaml file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is tried before the bare variable name for every setting.
const EnvPrefix = "DOCSABOT_"

// Config holds the environment-driven settings for a docsabot process.
type Config struct {
	Port        int `env:"PORT,default=8080"`
	MetricsPort int `env:"METRICS_PORT,default=2112"`

	// Hosting service access
	GitHubToken             string `env:"GITHUB_TOKEN"`
	GitHubAppID             int64  `env:"GITHUB_APP_ID"`
	GitHubInstallationID    int64  `env:"GITHUB_INSTALLATION_ID"`
	GitHubAppPrivateKeyPath string `env:"GITHUB_APP_PRIVATE_KEY_PATH"`
	GitHubHost              string `env:"GITHUB_HOST,default=github.com"`
	GitHubAPIURL            string `env:"GITHUB_API_URL"`

	// Completion client
	CompletionProvider    string        `env:"COMPLETION_PROVIDER,default=openai"`
	OpenAIAPIKey          string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL         string        `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey       string        `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey          string        `env:"GEMINI_API_KEY"`
	DefaultModel          string        `env:"DEFAULT_MODEL,default=gpt-3.5-turbo"`
	MaxOutputTokens       int64         `env:"MAX_OUTPUT_TOKENS,default=1500"`
	CompletionTimeout     time.Duration `env:"COMPLETION_TIMEOUT,default=5m"`
	CompletionConcurrency int           `env:"COMPLETION_CONCURRENCY,default=0"`

	// Pipeline
	Workers             int           `env:"WORKERS,default=0"`
	PipelineDeadline    time.Duration `env:"PIPELINE_DEADLINE,default=0s"`
	AbortOnTotalFailure bool          `env:"ABORT_ON_TOTAL_FAILURE,default=false"`
	CommitIdentity      string        `env:"COMMIT_IDENTITY,default=docsabot"`

	SettingsFile string `env:"SETTINGS_FILE,default=settings.yaml"`
	SecretsFile  string `env:"SECRETS_FILE,default=.secrets.yaml"`
}

// Settings mirrors the layout of settings.yaml and .secrets.yaml.
type Settings struct {
	OpenAPI   OpenAPI `yaml:"openapi"`
	GitHub    Secret  `yaml:"github"`
	OpenAI    Secret  `yaml:"openai"`
	Anthropic Secret  `yaml:"anthropic"`
	Gemini    Secret  `yaml:"gemini"`
}

// OpenAPI describes the service in generated schemas and names the file
// served by GET /settings.
type OpenAPI struct {
	Title        string  `yaml:"title"`
	Description  string  `yaml:"description"`
	Version      string  `yaml:"version"`
	Contact      Contact `yaml:"contact"`
	SettingsPath string  `yaml:"settings_path"`
}

// Contact is the maintainer contact advertised in the schema.
type Contact struct {
	Name  string `yaml:"name" json:"name,omitempty"`
	URL   string `yaml:"url" json:"url,omitempty"`
	Email string `yaml:"email" json:"email,omitempty"`
}

// Secret carries a credential that may live in .secrets.yaml instead of the
// environment.
type Secret struct {
	Token  string `yaml:"token"`
	APIKey string `yaml:"api_key"`
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Setting == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Setting, e.Reason)
}

// Lookuper returns the environment lookuper used by Load: DOCSABOT_NAME wins
// over NAME.
func Lookuper(base envconfig.Lookuper) envconfig.Lookuper {
	return envconfig.MultiLookuper(envconfig.PrefixLookuper(EnvPrefix, base), base)
}

// Load processes the environment through l (the OS environment when nil),
// merges the settings files and fills unset credentials from them.
func Load(ctx context.Context, l envconfig.Lookuper) (*Config, *Settings, error) {
	if l == nil {
		l = envconfig.OsLookuper()
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: Lookuper(l),
	}); err != nil {
		return nil, nil, fmt.Errorf("processing environment: %w", err)
	}

	settings, err := LoadSettings(cfg.SettingsFile, cfg.SecretsFile)
	if err != nil {
		return nil, nil, err
	}
	cfg.applySecrets(settings)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, settings, nil
}

// LoadSettings reads each file in order into one Settings value; later files
// override keys set by earlier ones. Missing files are skipped.
func LoadSettings(paths ...string) (*Settings, error) {
	settings := &Settings{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading settings file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
		}
	}
	if settings.OpenAPI.SettingsPath == "" && len(paths) > 0 {
		settings.OpenAPI.SettingsPath = paths[0]
	}
	return settings, nil
}

func (c *Config) applySecrets(s *Settings) {
	if c.GitHubToken == "" {
		c.GitHubToken = s.GitHub.Token
	}
	if c.OpenAIAPIKey == "" {
		c.OpenAIAPIKey = s.OpenAI.APIKey
	}
	if c.AnthropicAPIKey == "" {
		c.AnthropicAPIKey = s.Anthropic.APIKey
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = s.Gemini.APIKey
	}
}

// Validate rejects values that cannot be used at all. Missing credentials are
// not fatal here; they surface per request.
func (c *Config) Validate() error {
	switch {
	case c.MaxOutputTokens <= 0:
		return &ConfigurationError{Setting: "MAX_OUTPUT_TOKENS", Reason: fmt.Sprintf("must be positive, got %d", c.MaxOutputTokens)}
	case c.Workers < 0:
		return &ConfigurationError{Setting: "WORKERS", Reason: fmt.Sprintf("cannot be negative, got %d", c.Workers)}
	case c.CompletionConcurrency < 0:
		return &ConfigurationError{Setting: "COMPLETION_CONCURRENCY", Reason: fmt.Sprintf("cannot be negative, got %d", c.CompletionConcurrency)}
	case c.PipelineDeadline < 0:
		return &ConfigurationError{Setting: "PIPELINE_DEADLINE", Reason: "cannot be negative"}
	case c.GitHubAppID != 0 && (c.GitHubInstallationID == 0 || c.GitHubAppPrivateKeyPath == ""):
		return &ConfigurationError{Setting: "GITHUB_APP_ID", Reason: "GITHUB_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY_PATH are required with a GitHub App"}
	}
	return nil
}

// WorkerCount resolves WORKERS, defaulting to the available parallelism.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
