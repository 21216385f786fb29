// Package agent runs coding-agent attempts. The Executor interface
// keeps the loop agent-agnostic; CommandExecutor is the concrete
// implementation that shells out to a configured CLI agent.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/okelly/loopgate/internal/git"
	"github.com/okelly/loopgate/internal/logging"
)

// DefaultAttemptTimeout bounds a single agent invocation.
const DefaultAttemptTimeout = 15 * time.Minute

// Request carries everything one attempt is built from.
type Request struct {
	Task           string
	Iteration      int
	MaxIterations  int
	PromiseToken   string
	FailureContext []string
}

// Output is the observable result of one attempt.
type Output struct {
	// AgentOutput is the agent's combined stdout and stderr, scanned
	// afterwards for the completion marker.
	AgentOutput string
	// ChangedFiles lists the working-tree changes left by the attempt.
	ChangedFiles []string
}

// Executor runs one coding-agent attempt.
type Executor interface {
	Attempt(ctx context.Context, req Request) (Output, error)
}

// CommandExecutor invokes the configured agent command as a subprocess.
// The prompt is delivered on the command's stdin; any CLI agent that
// reads a prompt there and writes progress to stdout can drive the loop.
type CommandExecutor struct {
	dir     string
	command string
	timeout time.Duration
	echo    io.Writer
	log     *logging.Logger
}

// NewCommandExecutor creates a CommandExecutor that runs command via
// bash in dir.
func NewCommandExecutor(dir, command string, timeout time.Duration) *CommandExecutor {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &CommandExecutor{
		dir:     dir,
		command: command,
		timeout: timeout,
		log:     logging.With("component", "agent"),
	}
}

// WithEcho mirrors the agent's output to w as it is captured.
func (e *CommandExecutor) WithEcho(w io.Writer) *CommandExecutor {
	e.echo = w
	return e
}

// Attempt runs one agent invocation and returns the captured output
// plus the working-tree changes it left behind. A non-zero exit or
// timeout returns the partial output alongside the error; callers
// decide whether the attempt still counts, since verification judges
// the working tree, not the exit code.
func (e *CommandExecutor) Attempt(ctx context.Context, req Request) (Output, error) {
	prompt := BuildPrompt(PromptInput{
		Task:           req.Task,
		Iteration:      req.Iteration,
		MaxIterations:  req.MaxIterations,
		PromiseToken:   req.PromiseToken,
		FailureContext: req.FailureContext,
	})

	captured, runErr := e.run(ctx, prompt)

	// Observe changes even after a failed attempt; a crashed agent may
	// still have modified the tree and verification must see that.
	changed, err := git.ChangedFiles(ctx, e.dir)
	if err != nil {
		e.log.Warn("failed to observe changed files", "error", err)
		changed = nil
	}

	return Output{AgentOutput: captured, ChangedFiles: changed}, runErr
}

func (e *CommandExecutor) run(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, "bash", "-c", e.command)
	cmd.Dir = e.dir
	cmd.Stdin = bytes.NewReader([]byte(prompt))

	var buf bytes.Buffer
	var out io.Writer = &buf
	if e.echo != nil {
		out = io.MultiWriter(&buf, e.echo)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	e.log.Debug("starting agent attempt", "command", e.command, "timeout", e.timeout)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Round(time.Second)

	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			e.log.Warn("agent attempt timed out", "elapsed", elapsed)
			return buf.String(), fmt.Errorf("agent timed out after %s", e.timeout)
		}
		if ctx.Err() != nil {
			return buf.String(), ctx.Err()
		}
		e.log.Warn("agent exited with error", "elapsed", elapsed, "error", err)
		return buf.String(), fmt.Errorf("agent exited with error: %w", err)
	}

	e.log.Debug("agent attempt finished", "elapsed", elapsed, "output_bytes", buf.Len())
	return buf.String(), nil
}
