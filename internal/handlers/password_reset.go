package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/models"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
)

// PasswordResetServiceInterface defines the security-question recovery flow
type PasswordResetServiceInterface interface {
	GetSecurityQuestion(ctx context.Context, email string) (string, error)
	RequestReset(ctx context.Context, email, answer, ip string) error
	ResetPassword(ctx context.Context, token, newPassword, ip string) error
}

type PasswordResetHandler struct {
	service  PasswordResetServiceInterface
	ipConfig *pkghttp.IPConfig
	now      func() time.Time
}

func NewPasswordResetHandler(service PasswordResetServiceInterface, ipConfig *pkghttp.IPConfig) *PasswordResetHandler {
	return &PasswordResetHandler{
		service:  service,
		ipConfig: ipConfig,
		now:      time.Now,
	}
}

// GetSecurityQuestion handles POST /api/get-security-question
func (h *PasswordResetHandler) GetSecurityQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.SecurityQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}

	question, err := h.service.GetSecurityQuestion(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingFields):
			pkghttp.WriteBadRequest(w, "Email is required")
		case errors.Is(err, models.ErrUnsafeInput):
			pkghttp.WriteBadRequest(w, msgUnsafeInput)
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrNoSecurityQuestion):
			pkghttp.WriteBadRequest(w, "No security question set for this account.")
		default:
			pkghttp.WriteInternalError(w, msgInternalError)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"question": question})
}

// ForgotPassword handles POST /api/forgot-password
func (h *PasswordResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}

	err := h.service.RequestReset(r.Context(), req.Email, req.SecurityAnswer, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		var attempts *models.AttemptsError
		var locked *models.LockedError
		switch {
		case errors.Is(err, models.ErrMissingFields):
			pkghttp.WriteBadRequest(w, "Email is required")
		case errors.Is(err, models.ErrUnsafeInput):
			pkghttp.WriteBadRequest(w, "Invalid input detected")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteBadRequest(w, "Account not found")
		case errors.As(err, &locked):
			writeLocked(w, locked, "Account locked due to too many failed attempts. Please try again in %d minutes.", h.now())
		case errors.Is(err, models.ErrNoSecurityAnswer):
			pkghttp.WriteBadRequest(w, "No security answer set. Contact support.")
		case errors.As(err, &attempts):
			pkghttp.WriteUnauthorized(w, fmt.Sprintf("Incorrect security answer. %d attempts remaining.", attempts.Remaining))
		case errors.Is(err, models.ErrEmailDelivery):
			pkghttp.WriteInternalError(w, "Failed to send email. Please try again later.")
		default:
			pkghttp.WriteInternalError(w, msgInternalError)
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Password reset link has been sent to your email.")
}

// ResetPassword handles POST /api/reset-password
func (h *PasswordResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingFields):
			pkghttp.WriteBadRequest(w, "Token and new password are required")
		case errors.Is(err, models.ErrUnsafeInput):
			pkghttp.WriteBadRequest(w, "Invalid input detected")
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, msgWeakPassword)
		case errors.Is(err, models.ErrPasswordTooLong):
			pkghttp.WriteBadRequest(w, msgLongPassword)
		case errors.Is(err, models.ErrTokenExpired):
			pkghttp.WriteBadRequest(w, "Token expired")
		case errors.Is(err, models.ErrTokenInvalid):
			pkghttp.WriteBadRequest(w, "Invalid or expired token")
		default:
			pkghttp.WriteInternalError(w, msgInternalError)
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Password reset successfully")
}
