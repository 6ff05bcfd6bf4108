package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/nbatrivia/pkg/sanitize"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already exists")
	ErrMissingFields      = errors.New("missing required fields")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrUnsafeInput        = sanitize.ErrUnsafeInput

	// Password reset errors
	ErrNoSecurityQuestion  = errors.New("no security question set")
	ErrNoSecurityAnswer    = errors.New("no security answer set")
	ErrWrongSecurityAnswer = errors.New("incorrect security answer")
	ErrTokenInvalid        = errors.New("invalid or expired token")
	ErrTokenExpired        = errors.New("token expired")
	ErrEmailDelivery       = errors.New("failed to send email")

	// Game errors
	ErrInvalidGameMode = errors.New("invalid game mode")
	ErrNoAnswers       = errors.New("no answers provided")
	ErrInvalidQuestion = errors.New("invalid question")
)

// LockedError reports an account that is locked until a point in time.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// MinutesRemaining rounds the remaining lockout up to whole minutes.
func (e *LockedError) MinutesRemaining(now time.Time) int {
	remaining := e.Until.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}

// AttemptsError is a failed verification that has not yet triggered a lockout.
// Cause is either ErrInvalidCredentials or ErrWrongSecurityAnswer.
type AttemptsError struct {
	Cause     error
	Remaining int
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", e.Cause, e.Remaining)
}

func (e *AttemptsError) Unwrap() error {
	return e.Cause
}
