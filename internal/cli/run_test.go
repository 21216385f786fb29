package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/config"
	"github.com/okelly/loopgate/internal/loop"
	"github.com/okelly/loopgate/internal/testutil"
	"github.com/okelly/loopgate/internal/verify"
)

func TestLoadRunPolicy_RequiresAgentCommand(t *testing.T) {
	dir, _ := testutil.SetupTestDir(t)

	// resume defines no override flags, so nothing supplies an agent
	_, err := loadRunPolicy(dir, resumeCmd.Flags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agent command configured")
}

func TestLoadRunPolicy_AgentFlagSatisfiesRequirement(t *testing.T) {
	dir, _ := testutil.SetupTestDir(t)

	flags := runCmd.Flags()
	require.NoError(t, flags.Set("agent", "claude -p"))
	require.NoError(t, flags.Set("max-iterations", "4"))

	policy, err := loadRunPolicy(dir, flags)
	require.NoError(t, err)
	assert.Equal(t, "claude -p", policy.AgentCommand)
	assert.Equal(t, 4, policy.MaxIterations)
}

type captureCmd struct {
	cmd *cobra.Command
	out *bytes.Buffer
}

func newCaptureCmd() captureCmd {
	c := &cobra.Command{}
	var buf bytes.Buffer
	c.SetOut(&buf)
	return captureCmd{cmd: c, out: &buf}
}

func TestApplyRunFlags(t *testing.T) {
	flags := runCmd.Flags()
	require.NoError(t, flags.Set("max-iterations", "3"))
	require.NoError(t, flags.Set("promise", "SHIPPED"))
	require.NoError(t, flags.Set("agent", "claude -p"))
	require.NoError(t, flags.Set("mode", "safe"))

	p := config.DefaultPolicy()
	p.AgentCommand = "old-agent"
	applyRunFlags(&p, flags)

	assert.Equal(t, 3, p.MaxIterations)
	assert.Equal(t, "SHIPPED", p.CompletionPromise)
	assert.Equal(t, "claude -p", p.AgentCommand)
	assert.Equal(t, config.ModeSafe, p.Mode)
}

func TestApplyRunFlags_UnsetFlagsKeepPolicy(t *testing.T) {
	p := config.DefaultPolicy()
	p.MaxIterations = 7
	p.AgentCommand = "claude -p"

	// resume defines no override flags; nothing may change
	applyRunFlags(&p, resumeCmd.Flags())

	assert.Equal(t, 7, p.MaxIterations)
	assert.Equal(t, "claude -p", p.AgentCommand)
	assert.Equal(t, config.DefaultCompletionPromise, p.CompletionPromise)
}

func TestUseAutoResolver(t *testing.T) {
	t.Parallel()

	assert.True(t, useAutoResolver(true, true), "explicit flag wins even on a terminal")
	assert.True(t, useAutoResolver(false, false), "no terminal means nobody to prompt")
	assert.True(t, useAutoResolver(true, false))
	assert.False(t, useAutoResolver(false, true))
}

func TestAgentName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "claude", agentName("claude -p --dangerously-skip-permissions"))
	assert.Equal(t, "aider", agentName("/usr/local/bin/aider --yes"))
	assert.Equal(t, "agent", agentName(""))
}

func TestReportResult(t *testing.T) {
	t.Parallel()

	c := newCaptureCmd()
	err := reportResult(c.cmd, loop.Result{
		Status:       loop.StatusCompleted,
		Iterations:   2,
		FinalVerdict: verify.Verdict{Type: verify.VerdictPass},
		Reason:       "verification passed",
	})
	require.NoError(t, err)
	assert.Contains(t, c.out.String(), "Loop completed after 2 iteration(s)")

	c = newCaptureCmd()
	err = reportResult(c.cmd, loop.Result{
		Status:     loop.StatusBlocked,
		Iterations: 5,
		Reason:     "iteration budget exhausted",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop blocked")
}
