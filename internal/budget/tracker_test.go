package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/verify"
)

func TestTracker_Record(t *testing.T) {
	t.Parallel()

	tr := NewTracker(5)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	rec := tr.Record(1, verify.Verdict{Type: verify.VerdictFail, RegressionDetected: true}, []string{"a.ts"})

	assert.Equal(t, 1, rec.Iteration)
	assert.Equal(t, fixed, rec.Timestamp)
	assert.True(t, rec.RegressionDetected)
	assert.False(t, rec.SafeToMerge)
	assert.Equal(t, []string{"a.ts"}, rec.ChangedFiles)
	assert.Equal(t, 1, tr.Count())
}

func TestTracker_RecordDerivesFlags(t *testing.T) {
	t.Parallel()

	tr := NewTracker(5)
	rec := tr.Record(1, verify.Verdict{Type: verify.VerdictFail, SafeToMerge: true}, nil)

	assert.True(t, rec.SafeToMerge)
	assert.False(t, rec.RegressionDetected)
}

func TestTracker_IsExhausted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		max  int
		next int
		want bool
	}{
		{"first of three", 3, 1, false},
		{"last allowed", 3, 3, false},
		{"one past ceiling", 3, 4, true},
		{"zero ceiling exhausts immediately", 0, 1, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := NewTracker(tt.max)
			assert.Equal(t, tt.want, tr.IsExhausted(tt.next))
		})
	}
}

func TestTracker_HistoryIsAppendOnlyAndOrdered(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10)
	for i := 1; i <= 4; i++ {
		tr.Record(i, verify.Verdict{Type: verify.VerdictFail, RegressionDetected: true}, nil)
	}

	history := tr.History()
	require.Len(t, history, 4)
	for i, rec := range history {
		assert.Equal(t, i+1, rec.Iteration, "iteration numbers strictly increase")
	}
}

func TestTracker_Summarize(t *testing.T) {
	t.Parallel()

	tr := NewTracker(10)
	tr.Record(1, verify.Verdict{Type: verify.VerdictFail, RegressionDetected: true}, nil)
	tr.Record(2, verify.Verdict{Type: verify.VerdictBlocked}, nil)
	tr.Record(3, verify.Verdict{Type: verify.VerdictPass}, nil)

	s := tr.Summarize()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 10, s.Max)
	assert.Equal(t, 1, s.PassCount)
	assert.Equal(t, 1, s.FailCount)
	assert.Equal(t, 1, s.BlockedCount)
	assert.Len(t, s.History, 3)
}
