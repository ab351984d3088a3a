// Package config provides configuration management for soot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the soot server.
type Config struct {
	// ServerAddr is the address the HTTP server listens on (e.g., ":8700").
	ServerAddr string

	// DataDir is the directory for runtime data.
	DataDir string

	// DatabasePath is the DSN for the job journal. The default ":memory:"
	// keeps job history strictly within the process lifetime.
	DatabasePath string

	// EventIngestURL is where the webhook emitter POSTs lifecycle events.
	// Empty disables progress reporting (jobs still run).
	EventIngestURL string

	// GitHubToken is the personal access token for GitHub API operations.
	GitHubToken string

	// AnthropicAPIKey is passed into the sandbox for the coding agent.
	AnthropicAPIKey string

	// DefaultRepo is the repository used by run_fix_default_repo.
	DefaultRepo string

	// DockerImage is the sandbox Docker image name.
	DockerImage string

	// MaxConcurrent bounds how many fix jobs run at once (token pool size).
	MaxConcurrent int

	// RunInBackground makes RunFix return a handle immediately and report
	// progress via events only.
	RunInBackground bool

	// RunSmokeTest enables the preview-wait + smoke-check validation stage.
	RunSmokeTest bool

	// SandboxTimeout is the hard execution limit for a single sandbox.
	SandboxTimeout time.Duration

	// PreviewTimeout bounds how long the validation stage waits for a
	// deployable preview before giving up (job still succeeds).
	PreviewTimeout time.Duration
}

// Load creates a Config from environment variables with sensible defaults.
func Load() (*Config, error) {
	dataDir := envOr("SOOT_DATA_DIR", defaultDataDir())
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	cfg := &Config{
		ServerAddr:      envOr("SOOT_ADDR", ":8700"),
		DataDir:         dataDir,
		DatabasePath:    envOr("SOOT_DB_PATH", ":memory:"),
		EventIngestURL:  os.Getenv("SOOT_EVENT_URL"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		DefaultRepo:     envOr("SOOT_DEFAULT_REPO", "sootlabs/sample-app"),
		DockerImage:     envOr("SOOT_DOCKER_IMAGE", "soot-sandbox"),
		MaxConcurrent:   envOrInt("RUN_FIX_MAX_CONCURRENT", 3),
		RunInBackground: envOrBool("RUN_FIX_IN_BACKGROUND", false),
		RunSmokeTest:    envOrBool("RUN_FIX_SMOKE_TEST", false),
		SandboxTimeout:  envOrDuration("SOOT_SANDBOX_TIMEOUT", 10*time.Minute),
		PreviewTimeout:  envOrDuration("SOOT_PREVIEW_TIMEOUT", 5*time.Minute),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("RUN_FIX_MAX_CONCURRENT must be at least 1")
	}
	return nil
}

// SandboxEnv returns environment variables to pass to sandbox containers.
func (c *Config) SandboxEnv() []string {
	env := []string{
		"GITHUB_TOKEN=" + c.GitHubToken,
	}
	if c.AnthropicAPIKey != "" {
		env = append(env, "ANTHROPIC_API_KEY="+c.AnthropicAPIKey)
	}
	return env
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".soot"
	}
	return filepath.Join(home, ".soot")
}
