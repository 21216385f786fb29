// Package gate implements the stop decision evaluated after (and, for
// budget exhaustion, before) every iteration: allow the loop to finish,
// block and retry, or escalate to a human.
package gate

import (
	"github.com/okelly/loopgate/internal/promise"
	"github.com/okelly/loopgate/internal/verify"
)

// Action is the gate's decision for one iteration.
type Action int

const (
	// ActionAllow ends the loop successfully.
	ActionAllow Action = iota
	// ActionBlock retries with an incremented iteration.
	ActionBlock
	// ActionAskHuman escalates for a synchronous three-way choice.
	ActionAskHuman
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionBlock:
		return "block"
	case ActionAskHuman:
		return "ask_human"
	default:
		return "unknown"
	}
}

// Decision is the transient result of one gate evaluation. Its effect
// on the loop is what gets persisted, never the decision itself.
type Decision struct {
	Action Action
	Reason string
}

// Input carries everything the gate needs. The caller supplies detector
// and engine outputs; the gate never invokes collaborators itself.
type Input struct {
	// Signal is the detected completion token, empty if none was found.
	Signal string
	// SignalFound distinguishes an empty token from no marker at all.
	SignalFound bool
	// ExpectedPromise is the task's expected completion token.
	ExpectedPromise string
	// NextIteration is the iteration about to run (pre-attempt check)
	// or the iteration that just ran (post-attempt evaluation).
	NextIteration int
	// MaxIterations is the budget ceiling.
	MaxIterations int
	// Overridden marks an attempt a human already approved past the
	// budget, so exhaustion must not re-fire for its evaluation.
	Overridden bool
	// Verdict is the verification outcome for this iteration. Zero for
	// the pre-attempt budget check.
	Verdict verify.Verdict
}

// Decide evaluates the stop rules in strict order:
//
//  1. matching completion signal        -> allow
//  2. budget exhausted for next attempt -> ask human
//  3. guardrail-blocked verdict         -> ask human
//  4. passing verdict                   -> allow
//  5. failing verdict, safe to merge    -> allow
//  6. failing verdict with regression   -> block
//
// A trusted completion claim wins even at the iteration limit; budget
// and guardrail escalations outrank ordinary pass/fail evaluation so a
// lucky pass cannot silently override them. An attempt spent on a human
// override is exempt from rule 2: the human already answered the budget
// escalation, so its outcome is judged on the verdict alone.
func Decide(in Input) Decision {
	if in.SignalFound && in.Signal == promise.Normalize(in.ExpectedPromise) {
		return Decision{Action: ActionAllow, Reason: "completion signal matched"}
	}

	if !in.Overridden && in.NextIteration > in.MaxIterations {
		return Decision{Action: ActionAskHuman, Reason: "iteration budget exhausted"}
	}

	switch in.Verdict.Type {
	case verify.VerdictBlocked:
		return Decision{Action: ActionAskHuman, Reason: "guardrail violation"}
	case verify.VerdictPass:
		return Decision{Action: ActionAllow, Reason: "verification passed"}
	case verify.VerdictFail:
		if in.Verdict.SafeToMerge && !in.Verdict.RegressionDetected {
			return Decision{Action: ActionAllow, Reason: "pre-existing failures only, no regression introduced"}
		}
	}

	return Decision{Action: ActionBlock, Reason: "regression introduced"}
}
