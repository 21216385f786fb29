package state

import "time"

// LoopState is the resumable snapshot of one active loop. It is written
// to durable storage after every iteration and read once at loop start
// when resuming.
type LoopState struct {
	Iteration         int
	MaxIterations     int
	CompletionPromise string
	AgentName         string
	SessionID         string
	BaselineCommit    string // optional, HEAD when the loop started
	StartedAt         time.Time
	ProjectName       string
	TaskID            string // optional
	TaskDescription   string
}

// AuditEntry is one auto-resolved escalation recorded to the audit log
// in non-interactive mode. One JSON object per line, append-only.
type AuditEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id"`
	VerdictType  string    `json:"verdict_type"`
	ChangedFiles []string  `json:"changed_files"`
	Summary      string    `json:"summary"`
	ActionTaken  string    `json:"action_taken"`
}
