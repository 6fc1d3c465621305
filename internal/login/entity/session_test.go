package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingSession_Lockout(t *testing.T) {
	p := DefaultPolicy()
	t0 := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s := &PendingSession{SubjectID: "alice", DigitCount: 6, IssuedAt: t0}

	for i := 1; i <= 4; i++ {
		d := s.Submit(t0.Add(time.Duration(i)*time.Second), false, p)
		assert.Equal(t, OutcomeInvalidCode, d.Outcome)
		assert.Equal(t, i, d.Attempt)
		assert.Equal(t, 5-i, d.Remaining)
		assert.Equal(t, WriteSave, d.Write)
	}

	now := t0.Add(5 * time.Second)
	d := s.Submit(now, false, p)
	assert.Equal(t, OutcomeLockedOut, d.Outcome)
	assert.Equal(t, 30, d.RetryAfterSeconds())
	assert.Equal(t, now.Add(30*time.Second), s.LockoutUntil)

	// locked: even a valid code is refused and nothing changes
	d = s.Submit(now.Add(10*time.Second), true, p)
	assert.Equal(t, OutcomeStillLocked, d.Outcome)
	assert.Equal(t, 20, d.RetryAfterSeconds())
	assert.Equal(t, WriteNone, d.Write)
	assert.Equal(t, 5, s.FailedAttempts)

	// lapsed: counter resets before the submission is evaluated
	d = s.Submit(now.Add(30*time.Second), false, p)
	assert.Equal(t, OutcomeInvalidCode, d.Outcome)
	assert.Equal(t, 1, d.Attempt)
	assert.True(t, s.LockoutUntil.IsZero())

	d = s.Submit(now.Add(31*time.Second), true, p)
	assert.Equal(t, OutcomeAuthenticated, d.Outcome)
	assert.Equal(t, WriteDelete, d.Write)
}

func TestPendingSession_Expiry(t *testing.T) {
	p := DefaultPolicy()
	t0 := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s := &PendingSession{IssuedAt: t0}

	assert.False(t, s.Expired(t0.Add(5*time.Minute-time.Second), p))

	d := s.Submit(t0.Add(5*time.Minute), true, p)
	assert.Equal(t, OutcomeExpired, d.Outcome)
	assert.Equal(t, WriteDelete, d.Write)
}

func TestWellFormed(t *testing.T) {
	assert.True(t, WellFormed("012345", 6))
	assert.False(t, WellFormed("12345", 6))
	assert.False(t, WellFormed("1234567", 6))
	assert.False(t, WellFormed("12a456", 6))
	assert.False(t, WellFormed("１２３４５６", 6))
	assert.False(t, WellFormed("", 6))
}
