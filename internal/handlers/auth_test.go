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
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, username, password, ip string) (*models.LoginResponse, error) {
			assert.Equal(t, "bird33", username)
			assert.Equal(t, "Sw1sh!Three", password)
			return &models.LoginResponse{
				Token: "session_token_123",
				User:  models.PublicUser{Username: "bird33", Email: "larry@celtics.com", Role: "user"},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, http.MethodPost, "/api/login", models.LoginRequest{
		Username: "bird33",
		Password: "Sw1sh!Three",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := handlers.DecodeBody(t, w)
	assert.Equal(t, "session_token_123", body["token"])
	assert.Equal(t, map[string]any{"username": "bird33", "email": "larry@celtics.com", "role": "user"}, body["user"])
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing fields", models.ErrMissingFields, http.StatusBadRequest, "Missing username or password"},
		{"unsafe input", models.ErrUnsafeInput, http.StatusBadRequest, "Invalid input detected (XSS protection)"},
		{"bare invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{
			"wrong password",
			&models.AttemptsError{Cause: models.ErrInvalidCredentials, Remaining: 3},
			http.StatusUnauthorized,
			"Invalid username or password. 3 attempts remaining.",
		},
		{
			"locked",
			&models.LockedError{Until: time.Now().Add(15 * time.Minute)},
			http.StatusTooManyRequests,
			"Account locked. Please try again in 15 minutes.",
		},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, username, password, ip string) (*models.LoginResponse, error) {
					return nil, tt.err
				},
			}
			handler := handlers.NewAuthHandler(mockAuth, nil)

			w := httptest.NewRecorder()
			handler.Login(w, handlers.NewTestRequest(t, http.MethodPost, "/api/login", models.LoginRequest{Username: "u", Password: "p"}))

			handlers.AssertMessage(t, w, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestLogin_LockedIncludesExpiry(t *testing.T) {
	until := time.Now().Add(4 * time.Minute).UTC().Truncate(time.Second)
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, username, password, ip string) (*models.LoginResponse, error) {
			return nil, &models.LockedError{Until: until}
		},
	}

	w := httptest.NewRecorder()
	handlers.NewAuthHandler(mockAuth, nil).Login(w, handlers.NewTestRequest(t, http.MethodPost, "/api/login", models.LoginRequest{Username: "u", Password: "p"}))

	body := handlers.DecodeBody(t, w)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, until.Format(time.RFC3339), body["lockoutUntil"])
	assert.Equal(t, "Account locked. Please try again in 4 minutes.", body["message"])
}

func TestLogin_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.Body = http.NoBody

	w := httptest.NewRecorder()
	handlers.NewAuthHandler(&handlers.MockAuthService{}, nil).Login(w, req)

	handlers.AssertMessage(t, w, http.StatusBadRequest, "Invalid request body")
}

func TestRegister_Success(t *testing.T) {
	var got models.RegisterRequest
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error) {
			got = req
			return &models.User{ID: "u1"}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewAuthHandler(mockAuth, nil).Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/register", models.RegisterRequest{
		FirstName: "Larry",
		Username:  "bird33",
		Email:     "larry@celtics.com",
		Password:  "Abc123!@",
	}))

	handlers.AssertMessage(t, w, http.StatusCreated, "User registered successfully")
	assert.Equal(t, "bird33", got.Username)
	assert.Equal(t, "Larry", got.FirstName)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing fields", models.ErrMissingFields, http.StatusBadRequest, "Missing required fields"},
		{"weak password", models.ErrWeakPassword, http.StatusBadRequest, "Password is too weak. Must be 8+ chars with uppercase, lowercase, number, and special char."},
		{"password too long", models.ErrPasswordTooLong, http.StatusBadRequest, "Password must be at most 72 characters."},
		{"unsafe input", models.ErrUnsafeInput, http.StatusBadRequest, "Invalid input detected (XSS protection)"},
		{"username taken", models.ErrUsernameTaken, http.StatusConflict, "Username already taken"},
		{"email taken", models.ErrEmailTaken, http.StatusConflict, "Email already exists"},
		{"internal", models.ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				RegisterFunc: func(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error) {
					return nil, tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewAuthHandler(mockAuth, nil).Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/register", models.RegisterRequest{
				Username: "bird33",
				Email:    "larry@celtics.com",
				Password: "Abc123!@",
			}))

			handlers.AssertMessage(t, w, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestRegister_RejectsMalformedEmail(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewAuthHandler(mockAuth, nil).Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/register", models.RegisterRequest{
		Username: "bird33",
		Email:    "not-an-email",
		Password: "Abc123!@",
	}))

	handlers.AssertMessage(t, w, http.StatusBadRequest, "Email must be a valid email address")
}
