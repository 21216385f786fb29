package state

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/okelly/loopgate/internal/budget"
)

// AppendHistory appends one iteration record to the history log. The
// log is evidence: append-only, one JSON object per line, never mutated
// and never deleted on completion.
func (s *Store) AppendHistory(rec budget.IterationRecord) error {
	return s.appendJSONLine(s.HistoryPath(), rec)
}

// ReadHistory loads every iteration record from the history log. A
// missing file yields an empty history.
func (s *Store) ReadHistory() ([]budget.IterationRecord, error) {
	lines, err := s.readLines(s.HistoryPath())
	if err != nil {
		return nil, err
	}

	var records []budget.IterationRecord
	for _, line := range lines {
		var rec budget.IterationRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.log.Warn("skipping malformed history line", "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// AppendAudit appends one auto-decision entry to the audit log.
func (s *Store) AppendAudit(entry AuditEntry) error {
	return s.appendJSONLine(s.AuditPath(), entry)
}

// ReadAudit loads every auto-decision entry from the audit log. A
// missing file yields an empty log.
func (s *Store) ReadAudit() ([]AuditEntry, error) {
	lines, err := s.readLines(s.AuditPath())
	if err != nil {
		return nil, err
	}

	var entries []AuditEntry
	for _, line := range lines {
		var e AuditEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			s.log.Warn("skipping malformed audit line", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) appendJSONLine(path string, v any) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

func (s *Store) readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return lines, nil
}
