package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okelly/loopgate/internal/agent"
	"github.com/okelly/loopgate/internal/config"
	"github.com/okelly/loopgate/internal/gate"
	"github.com/okelly/loopgate/internal/git"
	"github.com/okelly/loopgate/internal/guardrail"
	"github.com/okelly/loopgate/internal/loop"
	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/verify"
)

var (
	runMaxIterations  int
	runPromise        string
	runAgent          string
	runMode           string
	runTaskID         string
	runNonInteractive bool
)

var runCmd = &cobra.Command{
	Use:   "run <task description>",
	Short: "Run the iteration loop for a task",
	Long: `Runs the configured agent against the task description until the stop
gate allows completion, escalates, or the iteration budget runs out.

Configuration comes from .loopgate/policy.yaml in the current directory;
flags override individual policy fields for this invocation. The agent
command receives the attempt prompt on stdin.

Example:
  loopgate run "fix the failing login test"
  loopgate run --max-iterations 5 --promise "LOGIN FIXED" "fix the failing login test"
  loopgate run --agent "claude -p --dangerously-skip-permissions" "add pagination"
  loopgate run --non-interactive --mode safe "migrate the config loader"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "iteration budget (overrides policy)")
	runCmd.Flags().StringVar(&runPromise, "promise", "", "expected completion token (overrides policy)")
	runCmd.Flags().StringVar(&runAgent, "agent", "", "agent command to run (overrides policy)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "operating mode: normal, safe, paused, off (overrides policy)")
	runCmd.Flags().StringVar(&runTaskID, "task-id", "", "external task identifier recorded in loop state")
	runCmd.Flags().BoolVar(&runNonInteractive, "non-interactive", false, "never prompt; escalations auto-revert and are audited")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	policy, err := loadRunPolicy(cwd, cmd.Flags())
	if err != nil {
		return err
	}

	task := strings.Join(args, " ")
	ctrl := buildController(ctx, cwd, policy, uuid.NewString(), runNonInteractive, runTaskID)

	res, err := ctrl.Run(ctx, task, false)
	if err != nil {
		return err
	}
	return reportResult(cmd, res)
}

// loadRunPolicy loads the policy file, applies flag overrides and
// re-validates the merged result.
func loadRunPolicy(cwd string, flags *pflag.FlagSet) (*config.Policy, error) {
	policy, err := config.LoadPolicy(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	applyRunFlags(policy, flags)
	if err := config.ValidatePolicy(policy); err != nil {
		return nil, err
	}
	if policy.AgentCommand == "" {
		return nil, fmt.Errorf("no agent command configured: set agent_command in %s or pass --agent", config.PolicyPath(cwd))
	}
	return policy, nil
}

// applyRunFlags overrides policy fields with explicitly set flags.
func applyRunFlags(p *config.Policy, flags *pflag.FlagSet) {
	if flags.Changed("max-iterations") {
		p.MaxIterations = runMaxIterations
	}
	if flags.Changed("promise") {
		p.CompletionPromise = runPromise
	}
	if flags.Changed("agent") {
		p.AgentCommand = runAgent
	}
	if flags.Changed("mode") {
		p.Mode = config.Mode(runMode)
	}
}

// buildController wires the concrete collaborators for one loop run.
func buildController(ctx context.Context, cwd string, policy *config.Policy, sessionID string, nonInteractive bool, taskID string) *loop.Controller {
	store := state.NewStore(cwd)
	baseline, _ := git.Head(ctx, cwd)
	scanner := guardrail.NewScanner(cwd)
	runner := verify.NewRunner(cwd, policy.StepTimeout())
	engine := verify.NewEngine(scanner, runner, policy.Baseline())
	executor := agent.NewCommandExecutor(cwd, policy.AgentCommand, policy.AttemptTimeout()).WithEcho(os.Stdout)

	var resolver gate.Resolver
	if useAutoResolver(nonInteractive, isatty.IsTerminal(os.Stdin.Fd())) {
		resolver = gate.NewAutoResolver(store, sessionID)
	} else {
		resolver = &gate.TerminalResolver{In: os.Stdin, Out: os.Stdout}
	}

	return loop.New(loop.Options{
		Store:          store,
		Executor:       executor,
		Verifier:       engine,
		Reverter:       git.Repo{Dir: cwd},
		Resolver:       resolver,
		Policy:         policy,
		SessionID:      sessionID,
		AgentName:      agentName(policy.AgentCommand),
		TaskID:         taskID,
		BaselineCommit: baseline,
	})
}

// useAutoResolver reports whether escalations should be auto-resolved:
// either explicitly requested, or stdin is not a terminal so there is
// nobody to prompt.
func useAutoResolver(nonInteractive, stdinIsTerminal bool) bool {
	return nonInteractive || !stdinIsTerminal
}

// agentName derives a short agent name from the command line.
func agentName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "agent"
	}
	parts := strings.Split(fields[0], "/")
	return parts[len(parts)-1]
}

// reportResult prints the loop outcome; anything but completion is an
// error so CI callers get a non-zero exit.
func reportResult(cmd *cobra.Command, res loop.Result) error {
	fmt.Fprintf(cmd.OutOrStdout(), "\nLoop %s after %d iteration(s): %s\n",
		res.Status, res.Iterations, res.Reason)
	if res.Status != loop.StatusCompleted {
		return fmt.Errorf("loop %s: %s", res.Status, res.Reason)
	}
	return nil
}
