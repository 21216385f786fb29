package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/promise"
	"github.com/okelly/loopgate/internal/verify"
)

func TestSampleSteps(t *testing.T) {
	t.Parallel()

	steps := SampleSteps()
	require.Len(t, steps, 3)

	// Verify each call returns a new slice (no interference between tests)
	steps[0].Name = "mutated"
	steps2 := SampleSteps()
	assert.Equal(t, "lint", steps2[0].Name, "SampleSteps should return fresh slice")
}

func TestCannedVerdicts(t *testing.T) {
	t.Parallel()

	AssertVerdictPass(t, PassingVerdict())

	failed := FailingVerdict("test", false)
	AssertVerdictFail(t, failed)
	assert.True(t, failed.RegressionDetected)
	assert.False(t, failed.SafeToMerge)
	assert.Equal(t, "test", failed.FailedStep())

	safe := FailingVerdict("test", true)
	assert.True(t, safe.SafeToMerge)
	assert.False(t, safe.RegressionDetected)

	blocked := BlockedVerdict()
	AssertVerdictBlocked(t, blocked)
	require.Len(t, blocked.Violations, 1)
	AssertStepRan(t, blocked, "guardrails")
}

func TestSampleHistory(t *testing.T) {
	t.Parallel()

	records := SampleHistory()
	AssertHistoryLength(t, records, 3)
	AssertHistoryMonotonic(t, records)
	assert.Equal(t, verify.VerdictPass, records[2].Verdict.Type)
}

func TestOutputWithPromise(t *testing.T) {
	t.Parallel()

	out := OutputWithPromise("DONE")
	token, found := promise.Detect(out)
	require.True(t, found)
	assert.Equal(t, "DONE", token)

	_, found = promise.Detect(OutputWithoutPromise)
	assert.False(t, found)
}

func TestSetupTestDir(t *testing.T) {
	t.Parallel()

	tmpDir, store := SetupTestDir(t)
	require.NotNil(t, store)

	data, err := os.ReadFile(filepath.Join(tmpDir, ".loopgate", "policy.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "max_iterations"))

	// Store should read cleanly from an empty directory
	st, err := store.ReadState()
	require.NoError(t, err)
	assert.Nil(t, st)

	// Round-trip a sample state
	require.NoError(t, store.WriteState(SampleState()))
	st, err = store.ReadState()
	require.NoError(t, err)
	AssertStateIteration(t, st, 1)
}

func TestWriteTestFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	WriteTestFile(t, tmpDir, filepath.Join("nested", "dir", "file.txt"), []byte("hello"))

	data, err := os.ReadFile(filepath.Join(tmpDir, "nested", "dir", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
