// Package lockout implements the failed-attempt counter and temporary lockout
// shared by login and security-answer verification.
//
// Every function is a pure transition from (state, event, now) to a new state,
// so callers persist the result with a single write.
package lockout

import (
	"time"

	"github.com/BradenHooton/nbatrivia/internal/models"
)

const (
	DefaultMaxAttempts = 5
	DefaultDuration    = 15 * time.Minute
)

// State is the persisted lockout state of one account.
type State struct {
	FailedAttempts int
	LockoutUntil   *time.Time
}

// Outcome of a failed attempt.
type Outcome struct {
	Locked    bool
	Remaining int // attempts left before lockout; zero when Locked
}

type Policy struct {
	MaxAttempts int
	Duration    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Duration: DefaultDuration}
}

// FromUser extracts the lockout state stored on a user row.
func FromUser(u *models.User) State {
	return State{FailedAttempts: u.FailedLoginAttempts, LockoutUntil: u.LockoutUntil}
}

// IsLocked reports whether the lockout window is still open at now.
func (s State) IsLocked(now time.Time) bool {
	return s.LockoutUntil != nil && s.LockoutUntil.After(now)
}

// Check returns a *models.LockedError while the account is locked.
func (p Policy) Check(s State, now time.Time) error {
	if s.IsLocked(now) {
		return &models.LockedError{Until: *s.LockoutUntil}
	}
	return nil
}

// RecordFailure counts one failed verification. Reaching MaxAttempts locks the
// account for Duration. A lockout that has already elapsed starts a fresh count.
func (p Policy) RecordFailure(s State, now time.Time) (State, Outcome) {
	attempts := s.FailedAttempts
	if s.LockoutUntil != nil && !s.IsLocked(now) {
		attempts = 0
	}
	attempts++

	if attempts >= p.MaxAttempts {
		until := now.Add(p.Duration)
		return State{FailedAttempts: attempts, LockoutUntil: &until}, Outcome{Locked: true}
	}

	return State{FailedAttempts: attempts}, Outcome{Remaining: p.MaxAttempts - attempts}
}

// RecordSuccess clears the counter and any lockout.
func (p Policy) RecordSuccess() State {
	return State{}
}

// FailureError converts an outcome into the error returned to callers.
func FailureError(s State, o Outcome, cause error) error {
	if o.Locked {
		return &models.LockedError{Until: *s.LockoutUntil}
	}
	return &models.AttemptsError{Cause: cause, Remaining: o.Remaining}
}
