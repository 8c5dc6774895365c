// Package trainer abstracts invocation of the external training entrypoint. The
// trainer itself (model, tokenization, checkpoints) is an opaque collaborator; this
// package only spawns it, waits for it, and reports how it exited.
package trainer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"

	apperrors "github.com/allisson/seedsweep/internal/errors"
)

// Invocation is one fully-rendered trainer command.
type Invocation struct {
	// Program is the executable to spawn (e.g., "python").
	Program string
	// Args is the full argument list, script path first.
	Args []string
	// WorkDir is the working directory for the child process. Empty inherits ours.
	WorkDir string
	// Env holds extra environment entries appended to the parent environment.
	Env []string
}

// String renders the invocation as a copy-pasteable shell command.
func (i Invocation) String() string {
	return shellquote.Join(append([]string{i.Program}, i.Args...)...)
}

// Result describes how a trainer process exited.
type Result struct {
	// ExitCode is the process exit status. Valid only when Exited is true.
	ExitCode int
	// Exited is false when the process never ran to an exit (spawn failure).
	Exited bool
	// OutputTail holds the last captured bytes of combined stdout/stderr.
	OutputTail string
	Duration   time.Duration
}

// Success reports a clean zero exit.
func (r Result) Success() bool {
	return r.Exited && r.ExitCode == 0
}

// Runner executes trainer invocations. Run blocks until the child process
// terminates; a non-zero exit is reported through the Result, not the error.
// Errors are reserved for failures to spawn or context cancellation.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// waitDelay bounds how long Run waits for the output pipes to close after the
// trainer is killed or exits. The trainer forks workers that inherit its
// stdout/stderr, and a surviving worker would otherwise block Wait until the
// whole process tree is gone.
const waitDelay = 5 * time.Second

// ExecRunner runs invocations as local subprocesses.
type ExecRunner struct {
	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration
	// TailBytes is how much combined output to retain. Zero falls back to 4096.
	TailBytes int
	Logger    *slog.Logger
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(timeout time.Duration, tailBytes int, logger *slog.Logger) *ExecRunner {
	return &ExecRunner{
		Timeout:   timeout,
		TailBytes: tailBytes,
		Logger:    logger,
	}
}

// Run spawns the trainer and blocks until it exits.
func (e *ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	tailBytes := e.TailBytes
	if tailBytes <= 0 {
		tailBytes = 4096
	}
	tail := newTailBuffer(tailBytes)

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = inv.WorkDir
	cmd.Stdout = tail
	cmd.Stderr = tail
	cmd.WaitDelay = waitDelay
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	if e.Logger != nil {
		e.Logger.Info("launching trainer", slog.String("command", inv.String()))
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		// Cancellation and timeout take precedence over the exit status the kill
		// produced.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{OutputTail: tail.String(), Duration: duration},
				apperrors.Wrap(ctxErr, "trainer invocation interrupted")
		}

		// The trainer itself exited cleanly but a descendant kept the output
		// pipes open past the wait delay. Report the trainer's own exit.
		if errors.Is(err, exec.ErrWaitDelay) {
			return Result{
				ExitCode:   0,
				Exited:     true,
				OutputTail: tail.String(),
				Duration:   duration,
			}, nil
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{
				ExitCode:   exitErr.ExitCode(),
				Exited:     true,
				OutputTail: tail.String(),
				Duration:   duration,
			}, nil
		}

		return Result{OutputTail: tail.String(), Duration: duration},
			apperrors.Wrap(err, "failed to launch trainer")
	}

	return Result{
		ExitCode:   0,
		Exited:     true,
		OutputTail: tail.String(),
		Duration:   duration,
	}, nil
}
