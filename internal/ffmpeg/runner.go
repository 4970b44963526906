package ffmpeg

//go:generate $MOCKGEN -source=runner.go -destination=mocks/runner_mock.go

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// stderrTailLength is the number of trailing stderr bytes attached to process errors.
	stderrTailLength = 512
	// processWaitDelay bounds the wait for output pipes after a canceled process is killed.
	processWaitDelay = 2 * time.Second
)

// Runner runs ffmpeg.
type Runner interface {
	// Version returns the first line of `ffmpeg -version`.
	Version(ctx context.Context) (string, error)
	// Run executes ffmpeg with the given arguments.
	Run(ctx context.Context, args []string) error
}

// RunnerImpl runs a local ffmpeg binary.
type RunnerImpl struct {
	binary string
}

// NewRunner resolves binary (a name looked up in PATH, or a path) and returns a runner for it.
func NewRunner(binary string) (*RunnerImpl, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, binary, err)
	}

	return &RunnerImpl{binary: path}, nil
}

// Binary returns the resolved ffmpeg path.
func (r *RunnerImpl) Binary() string {
	return r.binary
}

// Version returns the first line of `ffmpeg -version`.
func (r *RunnerImpl) Version(ctx context.Context) (string, error) {
	//nolint:gosec // The binary is resolved from configuration, arguments are fixed.
	output, err := exec.CommandContext(ctx, r.binary, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}

	firstLine, _, _ := strings.Cut(string(output), "\n")

	return strings.TrimSpace(firstLine), nil
}

// Run executes ffmpeg. The process is killed when ctx is canceled.
func (r *RunnerImpl) Run(ctx context.Context, args []string) error {
	var stderr bytes.Buffer

	//nolint:gosec // Arguments are built by ExtractRequest.Args, no shell is involved.
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = processWaitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w (exit code %d): %s",
			ErrProcessFailed, exitErr.ExitCode(), stderrTail(stderr.String()))
	}

	return fmt.Errorf("%w: %w", ErrProcessFailed, err)
}

func stderrTail(output string) string {
	output = strings.TrimSpace(output)
	if len(output) > stderrTailLength {
		output = "..." + output[len(output)-stderrTailLength:]
	}

	if output == "" {
		return "no output"
	}

	return output
}
