package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                  string
	Username            string
	Email               string
	FirstName           string
	LastName            string
	PasswordHash        string
	SecurityQuestion    *string
	SecurityAnswerHash  *string
	FailedLoginAttempts int
	LockoutUntil        *time.Time // Temporary account lock expiration
	Role                string     // "user" or "admin"
	LastActive          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PublicUser is the subset of User returned to clients.
type PublicUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{Username: u.Username, Email: u.Email, Role: u.Role}
}

type PasswordReset struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
