package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okelly/loopgate/internal/logging"
	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/verify"
)

// Choice is the three-way human (or auto-resolved) answer to an
// ask-human escalation.
type Choice int

const (
	// ChoiceRevert undoes the attempt's changes and stops the task.
	ChoiceRevert Choice = iota
	// ChoiceOverride continues the loop past the escalation.
	ChoiceOverride
	// ChoiceAbort stops the task without reverting.
	ChoiceAbort
)

// String returns a human-readable name for the choice.
func (c Choice) String() string {
	switch c {
	case ChoiceRevert:
		return "revert"
	case ChoiceOverride:
		return "override"
	case ChoiceAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Resolver answers ask-human escalations. Interactive implementations
// block on a person; autonomous ones must never block.
type Resolver interface {
	Resolve(ctx context.Context, decision Decision, verdict verify.Verdict, changedFiles []string) (Choice, error)
}

// TerminalResolver prompts synchronously on a terminal with the verdict
// detail printed. There is no timeout: an interactive escalation waits
// as long as the human does.
type TerminalResolver struct {
	In  io.Reader
	Out io.Writer
}

// Resolve prints the escalation and reads a choice from the terminal,
// re-prompting on unrecognized input. Context cancellation is only
// observed between prompts since terminal reads are blocking.
func (r *TerminalResolver) Resolve(ctx context.Context, decision Decision, verdict verify.Verdict, changedFiles []string) (Choice, error) {
	fmt.Fprintf(r.Out, "\nEscalation: %s\n", decision.Reason)
	if verdict.Type != "" {
		fmt.Fprintf(r.Out, "Verdict: %s\n", verdict.Summary())
		for _, step := range verdict.Steps {
			status := "ok"
			if !step.Passed {
				status = "FAILED"
			}
			fmt.Fprintf(r.Out, "  %-10s %-6s %s\n", step.Name, status, step.Duration.Round(time.Millisecond))
		}
	}
	if len(changedFiles) > 0 {
		fmt.Fprintf(r.Out, "Changed files: %s\n", strings.Join(changedFiles, ", "))
	}

	scanner := bufio.NewScanner(r.In)
	for {
		if err := ctx.Err(); err != nil {
			return ChoiceAbort, err
		}

		fmt.Fprint(r.Out, "[r]evert and stop, [o]verride and continue, [a]bort entirely? ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return ChoiceAbort, fmt.Errorf("failed to read choice: %w", err)
			}
			return ChoiceAbort, fmt.Errorf("input closed before a choice was made")
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r", "revert":
			return ChoiceRevert, nil
		case "o", "override":
			return ChoiceOverride, nil
		case "a", "abort":
			return ChoiceAbort, nil
		}
		fmt.Fprintln(r.Out, "unrecognized choice")
	}
}

// AutoResolver answers escalations without blocking: it always reverts,
// the conservative default, and records the auto-decision to the
// append-only audit log so unattended batches keep moving.
type AutoResolver struct {
	Store     *state.Store
	SessionID string
	log       *logging.Logger
	now       func() time.Time
}

// NewAutoResolver creates an AutoResolver writing audit entries through
// the given store.
func NewAutoResolver(store *state.Store, sessionID string) *AutoResolver {
	return &AutoResolver{
		Store:     store,
		SessionID: sessionID,
		log:       logging.With("component", "gate"),
		now:       time.Now,
	}
}

// Resolve records the auto-decision and returns ChoiceRevert. An audit
// write failure is logged but does not turn the resolution into a
// blocking error; forward progress wins.
func (r *AutoResolver) Resolve(_ context.Context, decision Decision, verdict verify.Verdict, changedFiles []string) (Choice, error) {
	summary := decision.Reason
	if verdict.Type != "" {
		summary += ": " + verdict.Summary()
	}
	entry := state.AuditEntry{
		Timestamp:    r.now().UTC(),
		SessionID:    r.SessionID,
		VerdictType:  string(verdict.Type),
		ChangedFiles: changedFiles,
		Summary:      summary,
		ActionTaken:  ChoiceRevert.String(),
	}
	if err := r.Store.AppendAudit(entry); err != nil {
		r.log.Error("failed to record auto-decision", "error", err)
	}
	return ChoiceRevert, nil
}
