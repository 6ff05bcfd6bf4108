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

const (
	msgInvalidBody   = "Invalid request body"
	msgUnsafeInput   = "Invalid input detected (XSS protection)"
	msgInternalError = "Internal server error"
	msgWeakPassword  = "Password is too weak. Must be 8+ chars with uppercase, lowercase, number, and special char."
	msgLongPassword  = "Password must be at most 72 characters."
	msgInvalidLogin  = "Invalid username or password"
	msgLoginLocked   = "Account locked. Please try again in %d minutes."
	msgUnauthorized  = "Unauthorized"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password, ip string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error)
}

// AuthHandler handles login and registration
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	now      func() time.Time
}

func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		now:      time.Now,
	}
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		var attempts *models.AttemptsError
		var locked *models.LockedError
		switch {
		case errors.Is(err, models.ErrMissingFields):
			pkghttp.WriteBadRequest(w, "Missing username or password")
		case errors.Is(err, models.ErrUnsafeInput):
			pkghttp.WriteBadRequest(w, msgUnsafeInput)
		case errors.As(err, &locked):
			writeLocked(w, locked, msgLoginLocked, h.now())
		case errors.As(err, &attempts):
			pkghttp.WriteUnauthorized(w, fmt.Sprintf("%s. %d attempts remaining.", msgInvalidLogin, attempts.Remaining))
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, msgInvalidLogin)
		default:
			pkghttp.WriteInternalError(w, msgInternalError)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_, err := h.service.Register(r.Context(), req, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrMissingFields):
			pkghttp.WriteBadRequest(w, "Missing required fields")
		case errors.Is(err, models.ErrUnsafeInput):
			pkghttp.WriteBadRequest(w, msgUnsafeInput)
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, msgWeakPassword)
		case errors.Is(err, models.ErrPasswordTooLong):
			pkghttp.WriteBadRequest(w, msgLongPassword)
		case errors.Is(err, models.ErrUsernameTaken):
			pkghttp.WriteConflict(w, "Username already taken")
		case errors.Is(err, models.ErrEmailTaken):
			pkghttp.WriteConflict(w, "Email already exists")
		default:
			pkghttp.WriteInternalError(w, msgInternalError)
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusCreated, "User registered successfully")
}

// writeLocked writes a 429 carrying the lockout expiry. format takes the
// minutes remaining, rounded up.
func writeLocked(w http.ResponseWriter, locked *models.LockedError, format string, now time.Time) {
	minutes := locked.MinutesRemaining(now)
	if minutes < 1 {
		minutes = 1
	}
	pkghttp.WriteErrorWithFields(w, http.StatusTooManyRequests, "account_locked",
		fmt.Sprintf(format, minutes),
		map[string]any{"lockoutUntil": locked.Until.UTC().Format(time.RFC3339)},
	)
}
