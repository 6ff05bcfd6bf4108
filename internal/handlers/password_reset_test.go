package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/handlers"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGetSecurityQuestion(t *testing.T) {
	tests := []struct {
		name       string
		question   string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing email", "", models.ErrMissingFields, http.StatusBadRequest, "Email is required"},
		{"unknown account", "", models.ErrNotFound, http.StatusNotFound, "Account not found"},
		{"no question", "", models.ErrNoSecurityQuestion, http.StatusBadRequest, "No security question set for this account."},
		{"internal", "", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &handlers.MockPasswordResetService{
				GetSecurityQuestionFunc: func(ctx context.Context, email string) (string, error) {
					return tt.question, tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewPasswordResetHandler(svc, nil).GetSecurityQuestion(w,
				handlers.NewTestRequest(t, http.MethodPost, "/api/get-security-question", models.SecurityQuestionRequest{Email: "a@b.com"}))

			handlers.AssertMessage(t, w, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestGetSecurityQuestion_Success(t *testing.T) {
	svc := &handlers.MockPasswordResetService{
		GetSecurityQuestionFunc: func(ctx context.Context, email string) (string, error) {
			assert.Equal(t, "magic@lakers.com", email)
			return "First team?", nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewPasswordResetHandler(svc, nil).GetSecurityQuestion(w,
		handlers.NewTestRequest(t, http.MethodPost, "/api/get-security-question", models.SecurityQuestionRequest{Email: "magic@lakers.com"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "First team?", handlers.DecodeBody(t, w)["question"])
}

func TestForgotPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"sent", nil, http.StatusOK, "Password reset link has been sent to your email."},
		{"missing email", models.ErrMissingFields, http.StatusBadRequest, "Email is required"},
		{"unsafe input", models.ErrUnsafeInput, http.StatusBadRequest, "Invalid input detected"},
		{"unknown account", models.ErrNotFound, http.StatusBadRequest, "Account not found"},
		{"no answer on file", models.ErrNoSecurityAnswer, http.StatusBadRequest, "No security answer set. Contact support."},
		{
			"wrong answer",
			&models.AttemptsError{Cause: models.ErrWrongSecurityAnswer, Remaining: 2},
			http.StatusUnauthorized,
			"Incorrect security answer. 2 attempts remaining.",
		},
		{
			"locked",
			&models.LockedError{Until: time.Now().Add(30 * time.Minute)},
			http.StatusTooManyRequests,
			"Account locked due to too many failed attempts. Please try again in 30 minutes.",
		},
		{"email failure", models.ErrEmailDelivery, http.StatusInternalServerError, "Failed to send email. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &handlers.MockPasswordResetService{
				RequestResetFunc: func(ctx context.Context, email, answer, ip string) error {
					assert.Equal(t, "Boston", answer)
					return tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewPasswordResetHandler(svc, nil).ForgotPassword(w,
				handlers.NewTestRequest(t, http.MethodPost, "/api/forgot-password", models.ForgotPasswordRequest{
					Email:          "a@b.com",
					SecurityAnswer: "Boston",
				}))

			handlers.AssertMessage(t, w, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestResetPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"success", nil, http.StatusOK, "Password reset successfully"},
		{"missing fields", models.ErrMissingFields, http.StatusBadRequest, "Token and new password are required"},
		{"weak password", models.ErrWeakPassword, http.StatusBadRequest, "Password is too weak. Must be 8+ chars with uppercase, lowercase, number, and special char."},
		{"password too long", models.ErrPasswordTooLong, http.StatusBadRequest, "Password must be at most 72 characters."},
		{"expired", models.ErrTokenExpired, http.StatusBadRequest, "Token expired"},
		{"invalid", models.ErrTokenInvalid, http.StatusBadRequest, "Invalid or expired token"},
		{"internal", models.ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &handlers.MockPasswordResetService{
				ResetPasswordFunc: func(ctx context.Context, token, newPassword, ip string) error {
					assert.Equal(t, "tok", token)
					assert.Equal(t, "N3w!Passw0rd", newPassword)
					return tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewPasswordResetHandler(svc, nil).ResetPassword(w,
				handlers.NewTestRequest(t, http.MethodPost, "/api/reset-password", models.ResetPasswordRequest{
					Token:       "tok",
					NewPassword: "N3w!Passw0rd",
				}))

			handlers.AssertMessage(t, w, tt.wantStatus, tt.wantMsg)
		})
	}
}
