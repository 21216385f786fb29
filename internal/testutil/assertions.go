package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/budget"
	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/verify"
)

// AssertVerdictType asserts that a verdict has the expected type.
func AssertVerdictType(t *testing.T, v verify.Verdict, expected verify.VerdictType) {
	t.Helper()
	assert.Equal(t, expected, v.Type, "verdict type mismatch: %s", v.Summary())
}

// AssertVerdictPass asserts that a verdict is PASS.
func AssertVerdictPass(t *testing.T, v verify.Verdict) {
	t.Helper()
	AssertVerdictType(t, v, verify.VerdictPass)
}

// AssertVerdictFail asserts that a verdict is FAIL.
func AssertVerdictFail(t *testing.T, v verify.Verdict) {
	t.Helper()
	AssertVerdictType(t, v, verify.VerdictFail)
}

// AssertVerdictBlocked asserts that a verdict is BLOCKED.
func AssertVerdictBlocked(t *testing.T, v verify.Verdict) {
	t.Helper()
	AssertVerdictType(t, v, verify.VerdictBlocked)
}

// AssertStepRan asserts that a step with the given name appears in the
// verdict's results.
func AssertStepRan(t *testing.T, v verify.Verdict, name string) {
	t.Helper()
	for _, s := range v.Steps {
		if s.Name == name {
			return
		}
	}
	t.Errorf("step %q not found in verdict steps", name)
}

// AssertStateIteration asserts the loop state's current iteration.
func AssertStateIteration(t *testing.T, st *state.LoopState, expected int) {
	t.Helper()
	require.NotNil(t, st, "state is nil")
	assert.Equal(t, expected, st.Iteration, "state iteration mismatch")
}

// AssertHistoryLength asserts the number of iteration records.
func AssertHistoryLength(t *testing.T, records []budget.IterationRecord, expected int) {
	t.Helper()
	assert.Len(t, records, expected, "history length mismatch")
}

// AssertHistoryMonotonic asserts that iteration numbers strictly increase.
func AssertHistoryMonotonic(t *testing.T, records []budget.IterationRecord) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		assert.Greater(t, records[i].Iteration, records[i-1].Iteration,
			"history[%d] iteration not greater than history[%d]", i, i-1)
	}
}
