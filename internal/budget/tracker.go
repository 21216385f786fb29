// Package budget tracks per-attempt outcomes against an iteration
// ceiling. The record list is append-only and constitutes the loop's
// full audit trail.
package budget

import (
	"time"

	"github.com/okelly/loopgate/internal/verify"
)

// IterationRecord is one entry in the loop's history.
type IterationRecord struct {
	Iteration          int            `json:"iteration"`
	Timestamp          time.Time      `json:"timestamp"`
	Verdict            verify.Verdict `json:"verdict"`
	ChangedFiles       []string       `json:"changed_files"`
	RegressionDetected bool           `json:"regression_detected"`
	SafeToMerge        bool           `json:"safe_to_merge"`
}

// Summary aggregates the tracker's history.
type Summary struct {
	Total        int               `json:"total"`
	Max          int               `json:"max"`
	PassCount    int               `json:"pass_count"`
	FailCount    int               `json:"fail_count"`
	BlockedCount int               `json:"blocked_count"`
	History      []IterationRecord `json:"history"`
}

// Tracker records attempt outcomes against a numeric ceiling. It is
// owned by a single loop controller; no locking by design.
type Tracker struct {
	max     int
	records []IterationRecord
	now     func() time.Time
}

// NewTracker creates a Tracker with the given iteration ceiling.
func NewTracker(maxIterations int) *Tracker {
	return &Tracker{max: maxIterations, now: time.Now}
}

// Record appends an attempt outcome and returns the new record.
func (t *Tracker) Record(iteration int, verdict verify.Verdict, changedFiles []string) IterationRecord {
	rec := IterationRecord{
		Iteration:          iteration,
		Timestamp:          t.now().UTC(),
		Verdict:            verdict,
		ChangedFiles:       changedFiles,
		RegressionDetected: verdict.RegressionDetected,
		SafeToMerge:        verdict.SafeToMerge,
	}
	t.records = append(t.records, rec)
	return rec
}

// IsExhausted reports whether attempting the next iteration would exceed
// the ceiling.
func (t *Tracker) IsExhausted(next int) bool {
	return next > t.max
}

// Max returns the iteration ceiling.
func (t *Tracker) Max() int {
	return t.max
}

// Count returns the number of recorded attempts.
func (t *Tracker) Count() int {
	return len(t.records)
}

// History returns the append-only record list.
func (t *Tracker) History() []IterationRecord {
	return t.records
}

// Summarize returns aggregate counts plus the full history.
func (t *Tracker) Summarize() Summary {
	s := Summary{
		Total:   len(t.records),
		Max:     t.max,
		History: t.records,
	}
	for _, r := range t.records {
		switch r.Verdict.Type {
		case verify.VerdictPass:
			s.PassCount++
		case verify.VerdictFail:
			s.FailCount++
		case verify.VerdictBlocked:
			s.BlockedCount++
		}
	}
	return s
}
