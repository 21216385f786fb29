package gate

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/testutil"
	"github.com/okelly/loopgate/internal/verify"
)

func TestTerminalResolver_Choices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Choice
	}{
		{"revert short", "r\n", ChoiceRevert},
		{"revert word", "revert\n", ChoiceRevert},
		{"override short", "o\n", ChoiceOverride},
		{"abort word", "abort\n", ChoiceAbort},
		{"reprompts on garbage", "maybe\no\n", ChoiceOverride},
		{"case insensitive", "R\n", ChoiceRevert},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			r := &TerminalResolver{In: strings.NewReader(tt.input), Out: &out}

			choice, err := r.Resolve(context.Background(),
				Decision{Action: ActionAskHuman, Reason: "guardrail violation"},
				testutil.BlockedVerdict(), []string{"x.test.ts"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, choice)
		})
	}
}

func TestTerminalResolver_PrintsVerdictDetail(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := &TerminalResolver{In: strings.NewReader("a\n"), Out: &out}

	_, err := r.Resolve(context.Background(),
		Decision{Action: ActionAskHuman, Reason: "guardrail violation"},
		testutil.BlockedVerdict(), []string{"x.test.ts"})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Escalation: guardrail violation")
	assert.Contains(t, text, "BLOCKED")
	assert.Contains(t, text, "guardrails")
	assert.Contains(t, text, "Changed files: x.test.ts")
}

func TestTerminalResolver_InputClosed(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := &TerminalResolver{In: strings.NewReader(""), Out: &out}

	choice, err := r.Resolve(context.Background(),
		Decision{Action: ActionAskHuman, Reason: "iteration budget exhausted"},
		verify.Verdict{}, nil)
	require.Error(t, err)
	assert.Equal(t, ChoiceAbort, choice)
}

func TestAutoResolver_AlwaysRevertsAndAudits(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())
	r := NewAutoResolver(store, "session-1")
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	choice, err := r.Resolve(context.Background(),
		Decision{Action: ActionAskHuman, Reason: "guardrail violation"},
		testutil.BlockedVerdict(), []string{"x.test.ts"})
	require.NoError(t, err)
	assert.Equal(t, ChoiceRevert, choice)

	entries, err := store.ReadAudit()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.Equal(t, "session-1", entries[0].SessionID)
	assert.Equal(t, "BLOCKED", entries[0].VerdictType)
	assert.Equal(t, []string{"x.test.ts"}, entries[0].ChangedFiles)
	assert.Contains(t, entries[0].Summary, "guardrail violation")
	assert.Equal(t, "revert", entries[0].ActionTaken)
}

func TestAutoResolver_BudgetExhaustedWithoutVerdict(t *testing.T) {
	t.Parallel()

	store := state.NewStore(t.TempDir())
	r := NewAutoResolver(store, "session-2")

	choice, err := r.Resolve(context.Background(),
		Decision{Action: ActionAskHuman, Reason: "iteration budget exhausted"},
		verify.Verdict{}, nil)
	require.NoError(t, err)
	assert.Equal(t, ChoiceRevert, choice)

	entries, err := store.ReadAudit()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "iteration budget exhausted", entries[0].Summary)
}
