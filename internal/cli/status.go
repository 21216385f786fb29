package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/verify"
)

// statusStore is the store used by the status command.
// It can be overridden in tests.
var statusStore *state.Store

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted loop state",
	Long: `Shows the state of the loop in the current directory: the in-progress
iteration if one is persisted, and a summary of the recorded attempt
history and audited auto-decisions.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	store := statusStore
	if store == nil {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		store = state.NewStore(cwd)
	}

	return showStatus(cmd.OutOrStdout(), store)
}

func showStatus(w io.Writer, store *state.Store) error {
	st, err := store.ReadState()
	if err != nil {
		return fmt.Errorf("failed to read loop state: %w", err)
	}

	if st == nil {
		fmt.Fprintln(w, "No loop in progress.")
	} else {
		fmt.Fprintf(w, "Project:   %s\n", st.ProjectName)
		if st.TaskID != "" {
			fmt.Fprintf(w, "Task ID:   %s\n", st.TaskID)
		}
		fmt.Fprintf(w, "Task:      %s\n", st.TaskDescription)
		fmt.Fprintf(w, "Agent:     %s\n", st.AgentName)
		fmt.Fprintf(w, "Session:   %s\n", st.SessionID)
		fmt.Fprintf(w, "Iteration: %d/%d\n", st.Iteration, st.MaxIterations)
		fmt.Fprintf(w, "Promise:   %s\n", st.CompletionPromise)
		if st.BaselineCommit != "" {
			fmt.Fprintf(w, "Baseline:  %s\n", st.BaselineCommit)
		}
		fmt.Fprintf(w, "Started:   %s\n", st.StartedAt.Format(time.RFC3339))
	}

	history, err := store.ReadHistory()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(history) > 0 {
		var pass, fail, blocked int
		for _, rec := range history {
			switch rec.Verdict.Type {
			case verify.VerdictPass:
				pass++
			case verify.VerdictFail:
				fail++
			case verify.VerdictBlocked:
				blocked++
			}
		}
		fmt.Fprintf(w, "History:   %d attempt(s): %d pass, %d fail, %d blocked\n",
			len(history), pass, fail, blocked)

		last := history[len(history)-1]
		fmt.Fprintf(w, "Last:      iteration %d at %s: %s\n",
			last.Iteration, last.Timestamp.Format(time.RFC3339), last.Verdict.Summary())
	}

	audit, err := store.ReadAudit()
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(audit) > 0 {
		fmt.Fprintf(w, "Audited:   %d auto-decision(s), latest: %s\n",
			len(audit), audit[len(audit)-1].Summary)
	}

	return nil
}
