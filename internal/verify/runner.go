package verify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultStepTimeout bounds a single verification step subprocess.
const DefaultStepTimeout = 10 * time.Minute

// Runner executes one external verification command and captures its
// outcome. It is intentionally generic: the same runner executes lint,
// typecheck or test given different command strings.
type Runner struct {
	dir     string
	timeout time.Duration
}

// NewRunner creates a Runner executing commands in dir. A zero timeout
// falls back to DefaultStepTimeout.
func NewRunner(dir string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	return &Runner{dir: dir, timeout: timeout}
}

// Run spawns the command via bash -c, captures combined stdout+stderr,
// and maps the exit code to Passed (zero = true). On timeout the step
// fails and the output carries a timeout marker; the engine treats it as
// an ordinary failing step, never a crash.
func (r *Runner) Run(ctx context.Context, name, command string) StepResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	duration := time.Since(start)

	result := StepResult{
		Name:     name,
		Duration: duration,
		Output:   string(out),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.Passed = false
		result.Output += fmt.Sprintf("\n[timed out after %s]", r.timeout)
		return result
	}

	result.Passed = err == nil
	return result
}
