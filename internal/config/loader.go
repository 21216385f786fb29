// Package config loads the per-project policy contract that bounds the
// loop engine. The YAML lives in .loopgate/policy.yaml; everything
// downstream consumes plain values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for Policy.
const (
	DefaultMaxIterations         = 10
	DefaultCompletionPromise     = "DONE"
	DefaultAttemptTimeoutMinutes = 15.0
	DefaultStepTimeoutSeconds    = 600.0
)

// DefaultPolicy returns a policy with sensible defaults and no
// verification steps; projects declare their own step commands.
func DefaultPolicy() Policy {
	return Policy{
		MaxIterations:         DefaultMaxIterations,
		CompletionPromise:     DefaultCompletionPromise,
		Mode:                  ModeNormal,
		AttemptTimeoutMinutes: DefaultAttemptTimeoutMinutes,
		StepTimeoutSeconds:    DefaultStepTimeoutSeconds,
	}
}

// ValidationError represents a policy validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// PolicyPath returns the policy file path under basePath.
func PolicyPath(basePath string) string {
	return filepath.Join(basePath, ".loopgate", "policy.yaml")
}

// LoadPolicy reads and parses .loopgate/policy.yaml from basePath. A
// missing file yields the defaults; missing fields keep their defaults.
func LoadPolicy(basePath string) (*Policy, error) {
	data, err := os.ReadFile(PolicyPath(basePath))
	if err != nil {
		if os.IsNotExist(err) {
			p := DefaultPolicy()
			return &p, nil
		}
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if err := ValidatePolicy(&policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// ValidatePolicy checks that all policy values are usable.
func ValidatePolicy(p *Policy) error {
	if p.MaxIterations <= 0 {
		return ValidationError{Field: "max_iterations", Message: "must be positive"}
	}
	if p.CompletionPromise == "" {
		return ValidationError{Field: "completion_promise", Message: "required field is empty"}
	}
	if !p.Mode.Valid() {
		return ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", p.Mode)}
	}
	if p.AttemptTimeoutMinutes <= 0 {
		return ValidationError{Field: "attempt_timeout_minutes", Message: "must be positive"}
	}
	if p.StepTimeoutSeconds <= 0 {
		return ValidationError{Field: "step_timeout_seconds", Message: "must be positive"}
	}
	for i, step := range p.Steps {
		if step.Name == "" {
			return ValidationError{Field: fmt.Sprintf("steps[%d].name", i), Message: "required field is empty"}
		}
		if step.Command == "" {
			return ValidationError{Field: fmt.Sprintf("steps[%d].command", i), Message: "required field is empty"}
		}
	}
	return nil
}
