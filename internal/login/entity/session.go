package entity

import (
	"math"
	"time"
)

// Policy bounds a pending 2FA session.
type Policy struct {
	PendingTTL  time.Duration
	MaxAttempts int
	Lockout     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{PendingTTL: 5 * time.Minute, MaxAttempts: 5, Lockout: 30 * time.Second}
}

// PendingSession is the state between a verified password and a verified code.
type PendingSession struct {
	SubjectID      string    `json:"subject_id"`
	CredentialID   string    `json:"credential_id"`
	DigitCount     int       `json:"digit_count"`
	IssuedAt       time.Time `json:"issued_at"`
	FailedAttempts int       `json:"failed_attempts"`
	LockoutUntil   time.Time `json:"lockout_until,omitzero"`
}

type Outcome int

const (
	OutcomeAuthenticated Outcome = iota + 1
	OutcomeInvalidCode
	OutcomeLockedOut
	OutcomeStillLocked
	OutcomeExpired
)

// Write tells the session store what to persist after a transition.
type Write int

const (
	WriteNone Write = iota
	WriteSave
	WriteDelete
)

// Decision is the result of one code submission.
type Decision struct {
	Outcome    Outcome
	Attempt    int
	Remaining  int
	RetryAfter time.Duration
	Write      Write
}

// RetryAfterSeconds rounds RetryAfter up so a client never retries early.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Expired reports whether the session may no longer be completed at now.
func (s *PendingSession) Expired(now time.Time, p Policy) bool {
	return !now.Before(s.IssuedAt.Add(p.PendingTTL))
}

// Submit applies a well-formed code submission whose validity the caller has
// already checked.
func (s *PendingSession) Submit(now time.Time, valid bool, p Policy) Decision {
	if s.Expired(now, p) {
		return Decision{Outcome: OutcomeExpired, Write: WriteDelete}
	}

	if !s.LockoutUntil.IsZero() {
		if now.Before(s.LockoutUntil) {
			return Decision{Outcome: OutcomeStillLocked, RetryAfter: s.LockoutUntil.Sub(now), Write: WriteNone}
		}
		s.LockoutUntil = time.Time{}
		s.FailedAttempts = 0
	}

	if valid {
		return Decision{Outcome: OutcomeAuthenticated, Write: WriteDelete}
	}

	s.FailedAttempts++
	if s.FailedAttempts >= p.MaxAttempts {
		s.LockoutUntil = now.Add(p.Lockout)
		return Decision{Outcome: OutcomeLockedOut, Attempt: s.FailedAttempts, RetryAfter: p.Lockout, Write: WriteSave}
	}

	return Decision{
		Outcome:   OutcomeInvalidCode,
		Attempt:   s.FailedAttempts,
		Remaining: p.MaxAttempts - s.FailedAttempts,
		Write:     WriteSave,
	}
}

// WellFormed reports whether code is exactly digits ASCII digits.
func WellFormed(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
