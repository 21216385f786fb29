package agent

import (
	"fmt"
	"strings"

	"github.com/okelly/loopgate/internal/promise"
)

// PromptInput carries everything the attempt prompt is built from.
type PromptInput struct {
	Task           string
	Iteration      int
	MaxIterations  int
	PromiseToken   string
	FailureContext []string
}

// BuildPrompt constructs the prompt handed to the agent for one attempt.
// Earlier failure summaries are included so the agent does not repeat
// the same mistake on retry.
func BuildPrompt(in PromptInput) string {
	var sb strings.Builder

	sb.WriteString("You are one iteration of an automated fix loop.\n\n")

	sb.WriteString("## Your Task\n")
	sb.WriteString(in.Task)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("**Attempt**: %d of %d\n\n", in.Iteration, in.MaxIterations))

	if len(in.FailureContext) > 0 {
		sb.WriteString("## Previous Attempts\n")
		sb.WriteString("Earlier attempts failed verification. What went wrong:\n")
		for i, f := range in.FailureContext {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, f))
		}
		sb.WriteString("\nConsider alternative approaches rather than repeating the same change.\n\n")
	}

	sb.WriteString("## Instructions\n")
	sb.WriteString("1. Implement the task as described\n")
	sb.WriteString("2. Run the project's own checks before declaring the task done\n")
	sb.WriteString("3. Do NOT suppress warnings or skip tests to make checks pass\n\n")

	sb.WriteString("When, and only when, the task is genuinely complete, print this exact line:\n\n")
	sb.WriteString(promise.Format(in.PromiseToken))
	sb.WriteString("\n\nDo not print it otherwise. Verification runs after you exit regardless.\n")

	return sb.String()
}
