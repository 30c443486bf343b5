package run

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Options configures a single runner invocation.
type Options struct {
	// Timeout bounds the runner subprocess. A timeout surfaces as a
	// failure of the call; there is no mid-flight cancellation beyond
	// killing the process.
	Timeout time.Duration
}

// Runner is the external executor collaborator. Implementations carry out
// the actual side effects of a contract; the core only verifies what they
// claim afterwards.
type Runner interface {
	Run(ctx context.Context, req *ExecutionRequest, opts Options) (*Result, error)
}

// CommandRunner shells out to a configured command, writing the execution
// request to its stdin as JSON and reading a Result from its stdout.
type CommandRunner struct {
	argv []string
}

// NewCommandRunner creates a runner for the given argv. Returns an error
// if argv is empty (no runner configured).
func NewCommandRunner(argv []string) (*CommandRunner, error) {
	if len(argv) == 0 {
		return nil, errors.New("no runner configured: set runner in .charter/config.toml")
	}
	return &CommandRunner{argv: argv}, nil
}

// Run invokes the runner subprocess and waits for completion or timeout.
func (r *CommandRunner) Run(ctx context.Context, req *ExecutionRequest, opts Options) (*Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling execution request: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("runner timed out after %s", opts.Timeout)
		}
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return nil, fmt.Errorf("runner failed: %s", errMsg)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("runner produced invalid result JSON: %w", err)
	}
	if result.Status != StatusCompleted && result.Status != StatusFailed {
		return nil, fmt.Errorf("runner reported unknown status %q", result.Status)
	}

	return &result, nil
}
