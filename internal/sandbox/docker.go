package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Docker runs sandboxes as Docker containers via the docker CLI.
type Docker struct {
	// Timeout is the hard execution limit applied to every Exec call.
	Timeout time.Duration
}

// NewDocker creates a Docker runtime with the given per-command timeout.
func NewDocker(timeout time.Duration) *Docker {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Docker{Timeout: timeout}
}

// Start creates a long-lived container the pipeline can Exec into.
func (d *Docker) Start(ctx context.Context, opts StartOptions) (string, error) {
	args := []string{
		"run", "-d",
		"--name", fmt.Sprintf("soot-%s", opts.JobID),
		"--label", "soot.job=" + opts.JobID,
	}

	if opts.Network != "" {
		args = append(args, "--network", opts.Network)
	}

	for _, e := range opts.Env {
		args = append(args, "-e", e)
	}

	// The container idles until the pipeline execs commands into it.
	args = append(args, opts.Image, "sleep", "infinity")

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("starting container: %w\noutput: %s", err, string(output))
	}

	return strings.TrimSpace(string(output)), nil
}

// Exec runs a command inside the container and collects combined output.
func (d *Docker) Exec(ctx context.Context, sandboxID string, cmdArgs []string) (*ExecResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	args := append([]string{"exec", sandboxID}, cmdArgs...)
	cmd := exec.CommandContext(ctx, "docker", args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecResult{Output: buf.String(), ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, fmt.Errorf("exec in sandbox %s: %w", shortID(sandboxID), err)
	}

	return &ExecResult{Output: buf.String(), ExitCode: 0}, nil
}

// Stop kills and removes the container.
func (d *Docker) Stop(ctx context.Context, sandboxID string) error {
	_ = exec.CommandContext(ctx, "docker", "kill", sandboxID).Run()

	cmd := exec.CommandContext(ctx, "docker", "rm", "-f", sandboxID)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("removing container: %w\noutput: %s", err, string(output))
	}
	return nil
}

// shortID returns the first 12 characters of an ID, or the full ID if shorter.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
