// Package shellout runs external converter tools for the extractors. Every
// invocation resolves the binary to an absolute path, passes arguments
// without shell interpolation, captures stdout as bytes, drains stderr to
// avoid pipe deadlock, and enforces the caller's context deadline.
package shellout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrBinaryMissing marks a tool that is not installed.
	ErrBinaryMissing = errors.New("binary not found")
	// ErrToolFailed marks a non-zero exit or an execution fault.
	ErrToolFailed = errors.New("external tool failed")
	// ErrTimedOut marks a tool killed by the wall-clock limit.
	ErrTimedOut = errors.New("external tool timed out")
)

// Runner abstracts command execution so extractor tests can substitute a
// fake.
type Runner interface {
	Run(ctx context.Context, binary string, args ...string) ([]byte, error)
}

// Lookup resolves a tool name to an absolute path, reporting
// ErrBinaryMissing when it is not on PATH.
func Lookup(binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "", fmt.Errorf("%w: empty command", ErrBinaryMissing)
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBinaryMissing, binary)
	}
	return path, nil
}

// CommandRunner executes real subprocesses with a per-invocation timeout.
type CommandRunner struct {
	Timeout time.Duration
}

// New returns a runner enforcing the given wall-clock timeout per call.
func New(timeout time.Duration) *CommandRunner {
	return &CommandRunner{Timeout: timeout}
}

// Run executes the tool and returns its stdout.
func (r *CommandRunner) Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	path, err := Lookup(binary)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimedOut, binary, r.Timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrToolFailed, binary, truncate(detail, 300))
	}
	return stdout.Bytes(), nil
}

// ExitCodeRun executes the tool but treats a non-zero exit as data rather
// than failure, returning (stdout, exit code). Some probes, jpeginfo among
// them, encode their verdict in the exit status.
func (r *CommandRunner) ExitCodeRun(ctx context.Context, binary string, args ...string) ([]byte, int, error) {
	path, err := Lookup(binary)
	if err != nil {
		return nil, -1, err
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		return stdout.Bytes(), 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil && runCtx.Err() == nil {
		return stdout.Bytes(), exitErr.ExitCode(), nil
	}
	if runCtx.Err() != nil && ctx.Err() == nil {
		return nil, -1, fmt.Errorf("%w: %s after %s", ErrTimedOut, binary, r.Timeout)
	}
	if ctx.Err() != nil {
		return nil, -1, ctx.Err()
	}
	return nil, -1, fmt.Errorf("%w: %s: %v", ErrToolFailed, binary, err)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
