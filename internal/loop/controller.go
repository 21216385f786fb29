package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okelly/loopgate/internal/agent"
	"github.com/okelly/loopgate/internal/budget"
	"github.com/okelly/loopgate/internal/config"
	"github.com/okelly/loopgate/internal/gate"
	"github.com/okelly/loopgate/internal/logging"
	"github.com/okelly/loopgate/internal/promise"
	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/verify"
)

// Status indicates why the loop stopped.
type Status int

const (
	StatusUnknown Status = iota
	// StatusCompleted means the gate allowed the task to finish.
	StatusCompleted
	// StatusBlocked means an escalation was resolved by reverting.
	StatusBlocked
	// StatusAborted means interruption or an explicit abort choice.
	StatusAborted
	// StatusFailed means the executor crashed or persistence broke.
	StatusFailed
)

// String returns a human-readable description of the status.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusBlocked:
		return "blocked"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a loop execution.
type Result struct {
	Status       Status
	Iterations   int
	FinalVerdict verify.Verdict
	Reason       string
}

// Sentinel errors for modes that refuse to run.
var (
	ErrPaused   = errors.New("loop is paused")
	ErrDisabled = errors.New("loop is disabled")
)

// Verifier judges the working tree after an attempt.
type Verifier interface {
	Verify(ctx context.Context, changedPaths []string, steps []verify.Step) verify.Verdict
}

// Reverter undoes an attempt's working-tree changes.
type Reverter interface {
	Revert(ctx context.Context) error
}

// Options holds configuration for creating a Controller.
// This struct enables test-friendly construction with explicit dependencies.
type Options struct {
	Store    *state.Store
	Executor agent.Executor
	Verifier Verifier
	Reverter Reverter
	Resolver gate.Resolver

	Policy    *config.Policy
	SessionID string
	AgentName string
	TaskID    string
	// BaselineCommit is the HEAD the working tree started from, kept in
	// the persisted state so status and forensics can name what a
	// revert returns to. Empty in a repo with no commits.
	BaselineCommit string
	StartedAt      time.Time // Optional: for deterministic time-based testing
}

// Controller runs the iteration loop for one task.
type Controller struct {
	store     *state.Store
	executor  agent.Executor
	verifier  Verifier
	reverter  Reverter
	resolver  gate.Resolver
	policy    *config.Policy
	sessionID string
	agentName string
	taskID    string
	baseline  string
	startedAt time.Time
	log       *logging.Logger
}

// New creates a Controller with explicit options.
func New(opts Options) *Controller {
	return &Controller{
		store:     opts.Store,
		executor:  opts.Executor,
		verifier:  opts.Verifier,
		reverter:  opts.Reverter,
		resolver:  opts.Resolver,
		policy:    opts.Policy,
		sessionID: opts.SessionID,
		agentName: opts.AgentName,
		taskID:    opts.TaskID,
		baseline:  opts.BaselineCommit,
		startedAt: opts.StartedAt,
		log:       logging.With("component", "loop"),
	}
}

// Run executes the iteration loop for task until a stop decision is
// reached. With resume set, a persisted state file restores the loop
// mid-task and the interrupted iteration is re-attempted; a missing or
// malformed state file falls back to a fresh start.
func (c *Controller) Run(ctx context.Context, task string, resume bool) (Result, error) {
	switch c.policy.Mode {
	case config.ModePaused:
		return Result{Status: StatusAborted, Reason: ErrPaused.Error()}, ErrPaused
	case config.ModeOff:
		return Result{Status: StatusAborted, Reason: ErrDisabled.Error()}, ErrDisabled
	}

	resolver := c.resolver
	if c.policy.Mode == config.ModeSafe {
		// Safe mode never blocks on a human.
		resolver = gate.NewAutoResolver(c.store, c.sessionID)
	}

	if c.startedAt.IsZero() {
		c.startedAt = time.Now()
	}

	maxIterations := c.policy.MaxIterations
	promiseToken := c.policy.CompletionPromise
	iteration := 1

	if resume {
		st, err := c.store.ReadState()
		if err == nil && st != nil {
			iteration = st.Iteration
			maxIterations = st.MaxIterations
			promiseToken = st.CompletionPromise
			c.sessionID = st.SessionID
			c.baseline = st.BaselineCommit
			c.startedAt = st.StartedAt
			if task == "" {
				task = st.TaskDescription
			}
			c.log.Info("resuming loop", "iteration", iteration, "session_id", c.sessionID)
		} else {
			c.log.Warn("no usable state to resume, starting fresh")
		}
	}

	tracker := budget.NewTracker(maxIterations)
	var failureContext []string
	var lastChanged []string

	for {
		if err := ctx.Err(); err != nil {
			return Result{Status: StatusAborted, Iterations: iteration - 1}, err
		}

		// Budget is checked before the attempt that would exceed it.
		overridden := false
		if tracker.IsExhausted(iteration) {
			decision := gate.Decide(gate.Input{
				ExpectedPromise: promiseToken,
				NextIteration:   iteration,
				MaxIterations:   maxIterations,
			})
			res, done, err := c.resolve(ctx, resolver, decision, verify.Verdict{}, lastChanged, iteration-1)
			if done {
				return res, err
			}
			// Override: the human chose to spend one more attempt. The
			// exhaustion rule stays suppressed for this attempt's own
			// evaluation; a further failure escalates again next round.
			overridden = true
		}

		st := &state.LoopState{
			Iteration:         iteration,
			MaxIterations:     maxIterations,
			CompletionPromise: promiseToken,
			AgentName:         c.agentName,
			SessionID:         c.sessionID,
			BaselineCommit:    c.baseline,
			StartedAt:         c.startedAt,
			ProjectName:       c.policy.ProjectName,
			TaskID:            c.taskID,
			TaskDescription:   task,
		}
		if err := c.store.WriteState(st); err != nil {
			return Result{Status: StatusFailed, Iterations: iteration - 1},
				fmt.Errorf("failed to persist state before attempt %d: %w", iteration, err)
		}

		c.log.Info("starting attempt", "iteration", iteration, "max", maxIterations)
		out, attemptErr := c.executor.Attempt(ctx, agent.Request{
			Task:           task,
			Iteration:      iteration,
			MaxIterations:  maxIterations,
			PromiseToken:   promiseToken,
			FailureContext: failureContext,
		})
		if attemptErr != nil {
			if ctx.Err() != nil {
				// State was flushed before the attempt, so resume
				// re-attempts this same iteration.
				return Result{Status: StatusAborted, Iterations: iteration - 1}, ctx.Err()
			}
			if out.AgentOutput == "" && len(out.ChangedFiles) == 0 {
				// Nothing happened at all: a genuine crash, not a
				// failed-but-observable attempt.
				return Result{Status: StatusFailed, Iterations: iteration - 1},
					fmt.Errorf("attempt %d: %w", iteration, attemptErr)
			}
			c.log.Warn("agent attempt errored, verifying anyway", "iteration", iteration, "error", attemptErr)
		}
		lastChanged = out.ChangedFiles

		signal, signalFound := promise.Detect(out.AgentOutput)
		verdict := c.verifier.Verify(ctx, out.ChangedFiles, c.policy.Steps)

		rec := tracker.Record(iteration, verdict, out.ChangedFiles)
		if err := c.store.AppendHistory(rec); err != nil {
			c.log.Warn("failed to record history", "iteration", iteration, "error", err)
		}

		decision := gate.Decide(gate.Input{
			Signal:          signal,
			SignalFound:     signalFound,
			ExpectedPromise: promiseToken,
			NextIteration:   iteration,
			MaxIterations:   maxIterations,
			Overridden:      overridden,
			Verdict:         verdict,
		})
		c.log.Info("gate decided", "iteration", iteration, "action", decision.Action, "reason", decision.Reason)

		switch decision.Action {
		case gate.ActionAllow:
			if err := c.store.DeleteState(); err != nil {
				c.log.Warn("failed to delete state after completion", "error", err)
			}
			return Result{
				Status:       StatusCompleted,
				Iterations:   iteration,
				FinalVerdict: verdict,
				Reason:       decision.Reason,
			}, nil

		case gate.ActionBlock:
			failureContext = append(failureContext, failureSummary(verdict, attemptErr))
			iteration++

		case gate.ActionAskHuman:
			res, done, err := c.resolve(ctx, resolver, decision, verdict, out.ChangedFiles, iteration)
			if done {
				return res, err
			}
			failureContext = append(failureContext, failureSummary(verdict, attemptErr))
			iteration++
		}
	}
}

// resolve answers an ask-human escalation. done is false only for
// Override, which lets the loop continue.
func (c *Controller) resolve(ctx context.Context, resolver gate.Resolver, decision gate.Decision, verdict verify.Verdict, changedFiles []string, iterations int) (Result, bool, error) {
	choice, err := resolver.Resolve(ctx, decision, verdict, changedFiles)
	if err != nil {
		return Result{Status: StatusAborted, Iterations: iterations, FinalVerdict: verdict, Reason: decision.Reason},
			true, fmt.Errorf("escalation unresolved: %w", err)
	}
	c.log.Info("escalation resolved", "reason", decision.Reason, "choice", choice)

	switch choice {
	case gate.ChoiceRevert:
		if err := c.reverter.Revert(ctx); err != nil {
			return Result{Status: StatusFailed, Iterations: iterations, FinalVerdict: verdict, Reason: decision.Reason},
				true, fmt.Errorf("revert failed: %w", err)
		}
		return Result{Status: StatusBlocked, Iterations: iterations, FinalVerdict: verdict, Reason: decision.Reason}, true, nil
	case gate.ChoiceAbort:
		return Result{Status: StatusAborted, Iterations: iterations, FinalVerdict: verdict, Reason: decision.Reason}, true, nil
	default: // ChoiceOverride
		return Result{}, false, nil
	}
}

// failureSummary condenses a failed iteration into one line of context
// for the next attempt's prompt.
func failureSummary(v verify.Verdict, attemptErr error) string {
	switch v.Type {
	case verify.VerdictBlocked:
		paths := make([]string, 0, len(v.Violations))
		for _, viol := range v.Violations {
			paths = append(paths, viol.Path)
		}
		return fmt.Sprintf("guardrail violation in %s", strings.Join(paths, ", "))
	case verify.VerdictFail:
		name := v.FailedStep()
		for _, s := range v.Steps {
			if s.Name == name {
				return fmt.Sprintf("step %s failed: %s", name, condense(s.Output, 300))
			}
		}
		return fmt.Sprintf("step %s failed", name)
	}
	if attemptErr != nil {
		return attemptErr.Error()
	}
	return v.Reason
}

// condense collapses whitespace and truncates s to at most n bytes.
func condense(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		s = s[:n] + "..."
	}
	return s
}
