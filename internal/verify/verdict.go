package verify

import (
	"fmt"
	"strings"
	"time"

	"github.com/okelly/loopgate/internal/guardrail"
)

// VerdictType discriminates the aggregate outcome of one verification run.
type VerdictType string

const (
	// VerdictPass means every step passed.
	VerdictPass VerdictType = "PASS"
	// VerdictFail means a step failed; SafeToMerge and RegressionDetected
	// distinguish pre-existing failures from newly introduced ones.
	VerdictFail VerdictType = "FAIL"
	// VerdictBlocked means a guardrail violation short-circuited the run.
	VerdictBlocked VerdictType = "BLOCKED"
)

// StepResult is one verification step's outcome. Immutable once produced.
type StepResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output"`
}

// Verdict aggregates the ordered step results of one verification run.
//
// Durations in Steps are evidence only; they never influence the type.
type Verdict struct {
	Type               VerdictType           `json:"type"`
	Steps              []StepResult          `json:"steps"`
	Violations         []guardrail.Violation `json:"violations,omitempty"`
	SafeToMerge        bool                  `json:"safe_to_merge"`
	RegressionDetected bool                  `json:"regression_detected"`
	Reason             string                `json:"reason"`
}

// FailedStep returns the name of the first failing step, or "".
func (v Verdict) FailedStep() string {
	for _, s := range v.Steps {
		if !s.Passed {
			return s.Name
		}
	}
	return ""
}

// Summary returns a one-line human-readable description of the verdict.
func (v Verdict) Summary() string {
	switch v.Type {
	case VerdictPass:
		return fmt.Sprintf("PASS (%d steps)", len(v.Steps))
	case VerdictBlocked:
		parts := make([]string, 0, len(v.Violations))
		for _, viol := range v.Violations {
			parts = append(parts, viol.Path+": "+viol.Rule)
		}
		return "BLOCKED: " + strings.Join(parts, "; ")
	default:
		detail := "regression"
		if v.SafeToMerge {
			detail = "pre-existing"
		}
		return fmt.Sprintf("FAIL at %s (%s)", v.FailedStep(), detail)
	}
}

// Step names a verification step and the shell command that runs it.
// The ordered step list is supplied by a project adapter; typical entries
// are ("lint", "npm run lint"), ("typecheck", "npm run check"),
// ("test", "npx vitest run").
type Step struct {
	Name    string `yaml:"name" json:"name"`
	Command string `yaml:"command" json:"command"`
}

// Baseline is a previously recorded set of known-failing step names.
// A failure on a baseline step is safe to merge; any other failure is a
// regression. The set is supplied by an external collaborator, this
// package does not compute it.
type Baseline map[string]bool

// NewBaseline builds a Baseline from a list of known-failing step names.
func NewBaseline(names []string) Baseline {
	b := make(Baseline, len(names))
	for _, n := range names {
		b[n] = true
	}
	return b
}
