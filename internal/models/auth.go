package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by a session token.
type TokenClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

type RegisterRequest struct {
	FirstName        string `json:"firstName" validate:"max=100"`
	LastName         string `json:"lastName" validate:"max=100"`
	Username         string `json:"username" validate:"max=50"`
	Email            string `json:"email" validate:"omitempty,email,max=254"`
	Password         string `json:"password" validate:"max=128"`
	SecurityQuestion string `json:"securityQuestion" validate:"max=255"`
	SecurityAnswer   string `json:"securityAnswer" validate:"max=255"`
}

type SecurityQuestionRequest struct {
	Email string `json:"email"`
}

type ForgotPasswordRequest struct {
	Email          string `json:"email"`
	SecurityAnswer string `json:"securityAnswer"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
