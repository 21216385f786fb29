package testutil

import (
	"time"

	"github.com/okelly/loopgate/internal/budget"
	"github.com/okelly/loopgate/internal/guardrail"
	"github.com/okelly/loopgate/internal/promise"
	"github.com/okelly/loopgate/internal/state"
	"github.com/okelly/loopgate/internal/verify"
)

// SampleSteps returns a typical ordered verification step list.
// Returns a new slice each time to prevent test interference.
func SampleSteps() []verify.Step {
	return []verify.Step{
		{Name: "lint", Command: "npm run lint"},
		{Name: "typecheck", Command: "npm run check"},
		{Name: "test", Command: "npx vitest run"},
	}
}

// PassingVerdict returns a verdict where every sample step passed.
func PassingVerdict() verify.Verdict {
	return verify.Verdict{
		Type: verify.VerdictPass,
		Steps: []verify.StepResult{
			{Name: "guardrails", Passed: true},
			{Name: "lint", Passed: true, Duration: 2 * time.Second},
			{Name: "typecheck", Passed: true, Duration: 5 * time.Second},
			{Name: "test", Passed: true, Duration: 30 * time.Second},
		},
	}
}

// FailingVerdict returns a verdict where the named step failed.
// safe controls whether the failure matched the pre-existing baseline.
func FailingVerdict(stepName string, safe bool) verify.Verdict {
	return verify.Verdict{
		Type: verify.VerdictFail,
		Steps: []verify.StepResult{
			{Name: "guardrails", Passed: true},
			{Name: stepName, Passed: false, Duration: time.Second, Output: "assertion failed"},
		},
		SafeToMerge:        safe,
		RegressionDetected: !safe,
		Reason:             "step " + stepName + " failed",
	}
}

// BlockedVerdict returns a verdict short-circuited by a guardrail violation.
func BlockedVerdict() verify.Verdict {
	return verify.Verdict{
		Type: verify.VerdictBlocked,
		Steps: []verify.StepResult{
			{Name: "guardrails", Passed: false},
		},
		Violations: []guardrail.Violation{
			{Path: "src/app.ts", Rule: "ts-suppression", Matched: "// @ts-ignore"},
		},
		Reason: "guardrail violation",
	}
}

// SampleState returns a populated loop state ready for a store round-trip.
func SampleState() *state.LoopState {
	return &state.LoopState{
		Iteration:         1,
		MaxIterations:     10,
		CompletionPromise: "DONE",
		AgentName:         "claude",
		SessionID:         "7f3a2c10-0000-4000-8000-000000000001",
		BaselineCommit:    "4d0c9e3f8a1b5d7c2e6f0a4d0c9e3f8a1b5d7c2e",
		StartedAt:         time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		ProjectName:       "sample-project",
		TaskDescription:   "Implement the widget endpoint",
	}
}

// SampleHistory returns iteration records spanning fail and pass outcomes.
// Returns a new slice each time to prevent test interference.
func SampleHistory() []budget.IterationRecord {
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	return []budget.IterationRecord{
		{
			Iteration:          1,
			Timestamp:          base,
			Verdict:            FailingVerdict("test", false),
			ChangedFiles:       []string{"src/app.ts"},
			RegressionDetected: true,
		},
		{
			Iteration:    2,
			Timestamp:    base.Add(10 * time.Minute),
			Verdict:      FailingVerdict("test", true),
			ChangedFiles: []string{"src/app.ts", "src/util.ts"},
			SafeToMerge:  true,
		},
		{
			Iteration:    3,
			Timestamp:    base.Add(20 * time.Minute),
			Verdict:      PassingVerdict(),
			ChangedFiles: []string{"src/app.ts"},
		},
	}
}

// OutputWithPromise returns agent output that carries a completion marker
// for the given token, surrounded by unrelated chatter.
func OutputWithPromise(token string) string {
	return "Reviewing the failing test...\n" +
		"All checks pass now.\n" +
		promise.Format(token) + "\n"
}

// OutputWithoutPromise is agent output with no completion marker.
const OutputWithoutPromise = `Still working through the type errors.
Two failures remain in the integration suite.
`
