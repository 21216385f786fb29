package config

import (
	"time"

	"github.com/okelly/loopgate/internal/verify"
)

// Mode gates whether loops may run at all. It is passed explicitly into
// the loop controller and checked once at loop start, never re-read
// mid-loop.
type Mode string

const (
	// ModeNormal runs loops with the configured resolver.
	ModeNormal Mode = "normal"
	// ModeSafe runs loops but forces conservative auto-revert on every
	// escalation, as in non-interactive operation.
	ModeSafe Mode = "safe"
	// ModePaused refuses to start new loops until switched back.
	ModePaused Mode = "paused"
	// ModeOff disables the engine entirely.
	ModeOff Mode = "off"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNormal, ModeSafe, ModePaused, ModeOff:
		return true
	}
	return false
}

// Policy is the per-project contract supplied to the engine: iteration
// ceiling, completion token, verification steps and timeouts. It is
// loaded from .loopgate/policy.yaml; the core packages consume it as
// plain values and never touch the file themselves.
type Policy struct {
	ProjectName           string        `yaml:"project_name"`
	MaxIterations         int           `yaml:"max_iterations"`
	CompletionPromise     string        `yaml:"completion_promise"`
	Mode                  Mode          `yaml:"mode"`
	AttemptTimeoutMinutes float64       `yaml:"attempt_timeout_minutes"`
	StepTimeoutSeconds    float64       `yaml:"step_timeout_seconds"`
	Steps                 []verify.Step `yaml:"steps"`
	BaselineFailures      []string      `yaml:"baseline_failures"`
	AgentCommand          string        `yaml:"agent_command"`
}

// AttemptTimeout returns the attempt executor timeout as a Duration.
func (p *Policy) AttemptTimeout() time.Duration {
	return time.Duration(p.AttemptTimeoutMinutes * float64(time.Minute))
}

// StepTimeout returns the per-step subprocess timeout as a Duration.
func (p *Policy) StepTimeout() time.Duration {
	return time.Duration(p.StepTimeoutSeconds * float64(time.Second))
}

// Baseline builds the known-failing check set from the policy.
func (p *Policy) Baseline() verify.Baseline {
	return verify.NewBaseline(p.BaselineFailures)
}
