// Package sandbox manages isolated execution environments for fix jobs.
// The default implementation shells out to Docker; the pipeline only sees
// the Runtime interface.
package sandbox

import "context"

// StartOptions configures a new sandbox.
type StartOptions struct {
	JobID   string
	Image   string   // Docker image name
	Env     []string // additional environment variables
	Network string   // Docker network name, optional
}

// ExecResult holds the outcome of a command run inside a sandbox.
type ExecResult struct {
	Output   string // combined stdout+stderr
	ExitCode int
}

// Runtime is the sandbox provider contract. One sandbox per job; the
// pipeline never shares a sandbox between jobs.
type Runtime interface {
	// Start provisions a sandbox and returns its ID.
	Start(ctx context.Context, opts StartOptions) (string, error)

	// Exec runs a command inside the sandbox and waits for it, returning
	// combined output and the command's exit code. A non-zero exit code is
	// not an error; err is reserved for failures to run the command at all.
	Exec(ctx context.Context, sandboxID string, cmd []string) (*ExecResult, error)

	// Stop tears the sandbox down. Safe to call on an already-stopped sandbox.
	Stop(ctx context.Context, sandboxID string) error
}
