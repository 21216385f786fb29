package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/guardrail"
)

// scriptedRunner returns canned results per step name, recording the
// order in which steps were invoked.
type scriptedRunner struct {
	results map[string]StepResult
	ran     []string
}

func (s *scriptedRunner) Run(_ context.Context, name, _ string) StepResult {
	s.ran = append(s.ran, name)
	if r, ok := s.results[name]; ok {
		return r
	}
	return StepResult{Name: name, Passed: true}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

var testSteps = []Step{
	{Name: "lint", Command: "npm run lint"},
	{Name: "typecheck", Command: "npm run check"},
	{Name: "test", Command: "npx vitest run"},
}

func TestEngine_Verify_AllPass(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api.ts", "export const a = 1;\n")

	runner := &scriptedRunner{}
	engine := NewEngine(guardrail.NewScanner(dir), runner, nil)

	v := engine.Verify(context.Background(), []string{"api.ts"}, testSteps)

	assert.Equal(t, VerdictPass, v.Type)
	assert.Equal(t, []string{"lint", "typecheck", "test"}, runner.ran)
	// guardrails pseudo step plus the three commands
	require.Len(t, v.Steps, 4)
	assert.Equal(t, "guardrails", v.Steps[0].Name)
	assert.True(t, v.Steps[0].Passed)
	assert.False(t, v.SafeToMerge)
	assert.False(t, v.RegressionDetected)
}

func TestEngine_Verify_GuardrailViolationShortCircuits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "auth.test.ts", "it.skip('login', () => {})\n")

	runner := &scriptedRunner{}
	engine := NewEngine(guardrail.NewScanner(dir), runner, nil)

	v := engine.Verify(context.Background(), []string{"auth.test.ts"}, testSteps)

	assert.Equal(t, VerdictBlocked, v.Type)
	assert.Equal(t, "guardrail violation", v.Reason)
	require.Len(t, v.Violations, 1)
	assert.Equal(t, "test-skip", v.Violations[0].Rule)

	// No lint/typecheck/test step runs after a guardrail hit.
	assert.Empty(t, runner.ran)
	require.Len(t, v.Steps, 1)
	assert.Equal(t, "guardrails", v.Steps[0].Name)
	assert.False(t, v.Steps[0].Passed)
}

func TestEngine_Verify_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api.ts", "export const a = 1;\n")

	runner := &scriptedRunner{results: map[string]StepResult{
		"typecheck": {Name: "typecheck", Passed: false, Output: "error TS2345"},
	}}
	engine := NewEngine(guardrail.NewScanner(dir), runner, nil)

	v := engine.Verify(context.Background(), []string{"api.ts"}, testSteps)

	assert.Equal(t, VerdictFail, v.Type)
	assert.Equal(t, []string{"lint", "typecheck"}, runner.ran)
	// All attempted steps appear in the verdict.
	require.Len(t, v.Steps, 3)
	assert.Equal(t, "typecheck", v.FailedStep())
	assert.True(t, v.RegressionDetected)
	assert.False(t, v.SafeToMerge)
}

func TestEngine_Verify_BaselineFailureIsSafeToMerge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api.ts", "export const a = 1;\n")

	runner := &scriptedRunner{results: map[string]StepResult{
		"test": {Name: "test", Passed: false, Output: "1 failing"},
	}}
	baseline := NewBaseline([]string{"test"})
	engine := NewEngine(guardrail.NewScanner(dir), runner, baseline)

	v := engine.Verify(context.Background(), []string{"api.ts"}, testSteps)

	assert.Equal(t, VerdictFail, v.Type)
	assert.True(t, v.SafeToMerge)
	assert.False(t, v.RegressionDetected)
	assert.Contains(t, v.Reason, "pre-existing")
}

func TestEngine_Verify_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api.ts", "export const a = 1;\n")

	baseline := NewBaseline([]string{"test"})
	paths := []string{"api.ts"}

	run := func() Verdict {
		runner := &scriptedRunner{results: map[string]StepResult{
			"test": {Name: "test", Passed: false, Output: "1 failing"},
		}}
		engine := NewEngine(guardrail.NewScanner(dir), runner, baseline)
		return engine.Verify(context.Background(), paths, testSteps)
	}

	first := run()
	second := run()

	// Identical inputs and baseline yield an identical classification.
	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, first.SafeToMerge, second.SafeToMerge)
	assert.Equal(t, first.RegressionDetected, second.RegressionDetected)
}

func TestEngine_Verify_NoChangedFilesStillRunsSteps(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{}
	engine := NewEngine(guardrail.NewScanner(t.TempDir()), runner, nil)

	// An attempt that changed nothing still gets verified; it cannot be
	// trivially allowed without a completion signal.
	v := engine.Verify(context.Background(), nil, testSteps)

	assert.Equal(t, VerdictPass, v.Type)
	assert.Equal(t, []string{"lint", "typecheck", "test"}, runner.ran)
}

func TestVerdict_Summary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verdict Verdict
		want    string
	}{
		{
			name:    "pass",
			verdict: Verdict{Type: VerdictPass, Steps: make([]StepResult, 4)},
			want:    "PASS (4 steps)",
		},
		{
			name: "blocked",
			verdict: Verdict{Type: VerdictBlocked, Violations: []guardrail.Violation{
				{Path: "a.ts", Rule: "ts-suppression"},
			}},
			want: "BLOCKED: a.ts: ts-suppression",
		},
		{
			name: "fail regression",
			verdict: Verdict{Type: VerdictFail, RegressionDetected: true, Steps: []StepResult{
				{Name: "lint", Passed: true},
				{Name: "test", Passed: false},
			}},
			want: "FAIL at test (regression)",
		},
		{
			name: "fail pre-existing",
			verdict: Verdict{Type: VerdictFail, SafeToMerge: true, Steps: []StepResult{
				{Name: "test", Passed: false},
			}},
			want: "FAIL at test (pre-existing)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.verdict.Summary())
		})
	}
}
