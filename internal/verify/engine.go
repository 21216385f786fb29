// Package verify runs the per-iteration verification pipeline: a cheap
// guardrail scan followed by the project's ordered lint/typecheck/test
// steps, collapsed into a single Verdict with per-step evidence.
package verify

import (
	"context"

	"github.com/okelly/loopgate/internal/guardrail"
	"github.com/okelly/loopgate/internal/logging"
)

// StepRunner abstracts the subprocess runner so tests can script step
// outcomes without spawning processes.
type StepRunner interface {
	Run(ctx context.Context, name, command string) StepResult
}

// Engine orchestrates the guardrail scanner and the ordered step runners
// into one Verdict per iteration.
type Engine struct {
	scanner  *guardrail.Scanner
	runner   StepRunner
	baseline Baseline
	log      *logging.Logger
}

// NewEngine creates an Engine. baseline may be nil (every failure is then
// a regression).
func NewEngine(scanner *guardrail.Scanner, runner StepRunner, baseline Baseline) *Engine {
	return &Engine{
		scanner:  scanner,
		runner:   runner,
		baseline: baseline,
		log:      logging.With("component", "verify"),
	}
}

// Verify runs guardrails first, then each step in fixed order, stopping
// at the first failure. A guardrail violation short-circuits everything:
// no lint/typecheck/test subprocess runs after a hit. All attempted steps
// appear in the Verdict so evidence logs are reproducible.
func (e *Engine) Verify(ctx context.Context, changedPaths []string, steps []Step) Verdict {
	report := e.scanner.Scan(changedPaths)
	for _, w := range report.Warnings {
		e.log.Warn("skipped unreadable changed path", "path", w)
	}

	if !report.Clean() {
		return Verdict{
			Type: VerdictBlocked,
			Steps: []StepResult{{
				Name:   "guardrails",
				Passed: false,
				Output: report.Summary(),
			}},
			Violations: report.Violations,
			Reason:     "guardrail violation",
		}
	}

	results := []StepResult{{
		Name:   "guardrails",
		Passed: true,
		Output: report.Summary(),
	}}

	for _, step := range steps {
		result := e.runner.Run(ctx, step.Name, step.Command)
		results = append(results, result)
		if !result.Passed {
			return e.classifyFailure(results, step.Name)
		}
	}

	return Verdict{
		Type:   VerdictPass,
		Steps:  results,
		Reason: "all steps passed",
	}
}

// classifyFailure compares the failing step against the baseline set of
// known-failing checks. Pre-existing failures are safe to merge; a new
// failure is a regression.
func (e *Engine) classifyFailure(results []StepResult, failedStep string) Verdict {
	v := Verdict{
		Type:  VerdictFail,
		Steps: results,
	}
	if e.baseline[failedStep] {
		v.SafeToMerge = true
		v.Reason = "pre-existing failure on " + failedStep
	} else {
		v.RegressionDetected = true
		v.Reason = "regression on " + failedStep
	}
	return v
}
