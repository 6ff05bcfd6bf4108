package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	ResetTokenSize = 32 // 256 bits
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcrypt input limit
)

// SpecialCharacters is the set a strong password must draw at least one character from.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxPasswordLen)

// PasswordValidationError holds validation error details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "password is too weak"
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword reports whether password matches the stored bcrypt hash.
func ComparePassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// NewDummyHash returns a throwaway hash at cost. Comparing against it when a
// user does not exist makes the unknown-user path cost the same bcrypt work
// as a wrong password.
func NewDummyHash(cost int) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		hash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), BcryptCost)
	}
	return hash
}

// CompareDummy burns one bcrypt comparison against a hash from NewDummyHash.
func CompareDummy(dummyHash []byte, password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// NormalizeAnswer folds a security answer so comparisons ignore case and surrounding space.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

func HashSecurityAnswer(answer string, cost int) (string, error) {
	normalized := NormalizeAnswer(answer)
	if normalized == "" {
		return "", fmt.Errorf("security answer cannot be empty")
	}
	return HashPasswordWithCost(normalized, cost)
}

func CompareSecurityAnswer(hashedAnswer, answer string) bool {
	return ComparePassword(hashedAnswer, NormalizeAnswer(answer))
}

// GenerateSecureToken returns size random bytes, hex encoded.
func GenerateSecureToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 of a token. Reset tokens are stored only in this form.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword enforces strong password requirements. Passwords longer
// than bcrypt's input limit fail with ErrPasswordTooLong instead of a
// *PasswordValidationError.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordLen {
		return ErrPasswordTooLong
	}

	problems := make([]string, 0)

	if len(password) < MinPasswordLen {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(SpecialCharacters, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "must contain at least one digit")
	}
	if !hasSpecial {
		problems = append(problems, "must contain at least one of "+SpecialCharacters)
	}

	if len(problems) > 0 {
		return &PasswordValidationError{Errors: problems}
	}

	return nil
}
