package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcome is one recorded call: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func record(b *Breaker, calls ...outcome) (last Change) {
	for _, c := range calls {
		if c {
			_, last = b.RecordSuccess()
		} else {
			_, last = b.RecordFailure()
		}
	}
	return last
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		calls    []outcome
		wantOpen bool
		want     Change
	}{
		{name: "new breaker is closed", wantOpen: false},
		{name: "below threshold stays closed", opts: []Option{WithFailureThreshold(3)}, calls: []outcome{fail, fail}},
		{name: "threshold opens", opts: []Option{WithFailureThreshold(3)}, calls: []outcome{fail, fail, fail}, wantOpen: true, want: Change{Opened: true}},
		{name: "success resets the failure run", opts: []Option{WithFailureThreshold(3)}, calls: []outcome{fail, fail, ok, fail, fail}},
		{name: "failure while open reports no change", opts: []Option{WithFailureThreshold(1)}, calls: []outcome{fail, fail}, wantOpen: true},
		{name: "one success closes by default", opts: []Option{WithFailureThreshold(1)}, calls: []outcome{fail, ok}, want: Change{Closed: true}},
		{name: "success threshold holds open", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, calls: []outcome{fail, ok}, wantOpen: true},
		{name: "success threshold closes", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, calls: []outcome{fail, ok, ok}, want: Change{Closed: true}},
		{name: "failure while open restarts the success run", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, calls: []outcome{fail, ok, fail, ok}, wantOpen: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-stream", tt.opts...)
			got := record(b, tt.calls...)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBreakerReportsFallback(t *testing.T) {
	b := New("audit-stream", WithFailureThreshold(2))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback)
	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerReset(t *testing.T) {
	b := New("audit-stream", WithFailureThreshold(1))
	record(b, fail)
	require.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, "audit-stream", b.Name())
}

func TestBreakerAllowAfterCooldown(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("audit-stream", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	record(b, fail)
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	assert.True(t, b.Allow())

	record(b, fail)
	assert.False(t, b.Allow(), "a failed probe restarts the cooldown")
}
