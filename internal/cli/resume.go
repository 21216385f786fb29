package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okelly/loopgate/internal/state"
)

var resumeNonInteractive bool

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted loop",
	Long: `Continues a loop from its persisted state file, re-attempting the
iteration that was interrupted. The task description, completion promise
and iteration budget are restored from the state file; the agent command
and verification steps come from the current policy.`,
	Args: cobra.NoArgs,
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().BoolVar(&resumeNonInteractive, "non-interactive", false, "never prompt; escalations auto-revert and are audited")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	store := state.NewStore(cwd)
	st, err := store.ReadState()
	if err != nil {
		return fmt.Errorf("failed to read loop state: %w", err)
	}
	if st == nil {
		return fmt.Errorf("no interrupted loop to resume")
	}

	policy, err := loadRunPolicy(cwd, cmd.Flags())
	if err != nil {
		return err
	}

	ctrl := buildController(ctx, cwd, policy, uuid.NewString(), resumeNonInteractive, st.TaskID)

	res, err := ctrl.Run(ctx, "", true)
	if err != nil {
		return err
	}
	return reportResult(cmd, res)
}
