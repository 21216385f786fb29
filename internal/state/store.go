// Package state persists the resumable loop snapshot and the per-loop
// append-only logs (iteration history, auto-decision audit trail).
//
// The loop state file is plain text so it stays human-readable and
// diffable under version control: a block of "field: value" lines, a
// blank line, then the free-text task description.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okelly/loopgate/internal/logging"
)

// DirName is the directory under the project root holding all loop
// files. It lives inside the working tree but is never part of the
// observed or reverted changes.
const DirName = ".loopgate"

// Store handles loop state persistence under <basePath>/.loopgate/.
// A store's files are exclusively owned by one active loop at a time.
type Store struct {
	basePath string
	log      *logging.Logger
}

// NewStore creates a Store rooted at basePath.
func NewStore(basePath string) *Store {
	return &Store{
		basePath: basePath,
		log:      logging.With("component", "state"),
	}
}

func (s *Store) dir() string {
	return filepath.Join(s.basePath, DirName)
}

// StatePath returns the well-known loop state file path.
func (s *Store) StatePath() string {
	return filepath.Join(s.dir(), "loop.state")
}

// HistoryPath returns the append-only iteration history log path.
func (s *Store) HistoryPath() string {
	return filepath.Join(s.dir(), "history.jsonl")
}

// AuditPath returns the append-only auto-decision audit log path.
func (s *Store) AuditPath() string {
	return filepath.Join(s.dir(), "audit.jsonl")
}

// WriteState persists the loop state atomically (temp file + rename).
// Writes are monotonic: an iteration count lower than the previously
// written one is rejected.
func (s *Store) WriteState(st *LoopState) error {
	if prev, err := s.ReadState(); err == nil && prev != nil {
		if st.Iteration < prev.Iteration {
			return fmt.Errorf("refusing non-monotonic state write: iteration %d < %d",
				st.Iteration, prev.Iteration)
		}
	}

	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir(), ".loop-*.state.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(encodeState(st)); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.StatePath()); err != nil {
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	ok = true
	return nil
}

// ReadState loads the persisted loop state. A missing file returns
// (nil, nil); a malformed file also returns (nil, nil) after logging a
// warning, so resume degrades gracefully to a fresh start.
func (s *Store) ReadState() (*LoopState, error) {
	data, err := os.ReadFile(s.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	st, err := decodeState(string(data))
	if err != nil {
		s.log.Warn("malformed loop state, starting fresh", "path", s.StatePath(), "error", err)
		return nil, nil
	}
	return st, nil
}

// DeleteState removes the loop state file. Deleting a file that does
// not exist is not an error.
func (s *Store) DeleteState() error {
	if err := os.Remove(s.StatePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// encodeState renders the field block, a blank line, and the free-text
// task description.
func encodeState(st *LoopState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "iteration: %d\n", st.Iteration)
	fmt.Fprintf(&b, "max_iterations: %d\n", st.MaxIterations)
	fmt.Fprintf(&b, "completion_promise: %s\n", st.CompletionPromise)
	fmt.Fprintf(&b, "agent_name: %s\n", st.AgentName)
	fmt.Fprintf(&b, "session_id: %s\n", st.SessionID)
	if st.BaselineCommit != "" {
		fmt.Fprintf(&b, "baseline_commit: %s\n", st.BaselineCommit)
	}
	fmt.Fprintf(&b, "started_at: %s\n", st.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "project_name: %s\n", st.ProjectName)
	if st.TaskID != "" {
		fmt.Fprintf(&b, "task_id: %s\n", st.TaskID)
	}
	b.WriteString("\n")
	b.WriteString(st.TaskDescription)
	// Exactly one newline is appended and exactly one stripped on
	// decode, so a description with its own trailing newline survives a
	// round trip unchanged.
	if st.TaskDescription != "" {
		b.WriteString("\n")
	}
	return b.String()
}

func decodeState(data string) (*LoopState, error) {
	head, desc, _ := strings.Cut(data, "\n\n")

	st := &LoopState{TaskDescription: strings.TrimSuffix(desc, "\n")}
	seen := map[string]bool{}

	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		seen[key] = true

		switch key {
		case "iteration":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid iteration %q", value)
			}
			st.Iteration = n
		case "max_iterations":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid max_iterations %q", value)
			}
			st.MaxIterations = n
		case "completion_promise":
			st.CompletionPromise = value
		case "agent_name":
			st.AgentName = value
		case "session_id":
			st.SessionID = value
		case "baseline_commit":
			st.BaselineCommit = value
		case "started_at":
			ts, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, fmt.Errorf("invalid started_at %q", value)
			}
			st.StartedAt = ts
		case "project_name":
			st.ProjectName = value
		case "task_id":
			st.TaskID = value
		default:
			// Unknown fields are tolerated for forward compatibility.
		}
	}

	if !seen["iteration"] || !seen["max_iterations"] {
		return nil, fmt.Errorf("missing required fields")
	}
	return st, nil
}
