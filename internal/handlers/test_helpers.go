package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, role string) *http.Request {
	claims := &models.TokenClaims{UserID: userID, Username: "tester", Role: role}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// DecodeBody decodes a JSON response body into a generic map.
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	return body
}

// AssertMessage checks the status code and the "message" field of a JSON response.
func AssertMessage(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, expectedMessage, DecodeBody(t, w)["message"])
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc    func(ctx context.Context, username, password, ip string) (*models.LoginResponse, error)
	RegisterFunc func(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error)
}

func (m *MockAuthService) Login(ctx context.Context, username, password, ip string) (*models.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, ip)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) Register(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req, ip)
	}
	return &models.User{ID: "u1", Username: req.Username}, nil
}

// MockPasswordResetService implements PasswordResetServiceInterface for testing
type MockPasswordResetService struct {
	GetSecurityQuestionFunc func(ctx context.Context, email string) (string, error)
	RequestResetFunc        func(ctx context.Context, email, answer, ip string) error
	ResetPasswordFunc       func(ctx context.Context, token, newPassword, ip string) error
}

func (m *MockPasswordResetService) GetSecurityQuestion(ctx context.Context, email string) (string, error) {
	if m.GetSecurityQuestionFunc != nil {
		return m.GetSecurityQuestionFunc(ctx, email)
	}
	return "", models.ErrNotFound
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email, answer, ip string) error {
	if m.RequestResetFunc != nil {
		return m.RequestResetFunc(ctx, email, answer, ip)
	}
	return nil
}

func (m *MockPasswordResetService) ResetPassword(ctx context.Context, token, newPassword, ip string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword, ip)
	}
	return nil
}

// MockGameService implements GameServiceInterface for testing
type MockGameService struct {
	SubmitGameFunc func(ctx context.Context, userID string, sub models.GameSubmission) (*models.GameResult, error)
}

func (m *MockGameService) SubmitGame(ctx context.Context, userID string, sub models.GameSubmission) (*models.GameResult, error) {
	if m.SubmitGameFunc != nil {
		return m.SubmitGameFunc(ctx, userID, sub)
	}
	return &models.GameResult{Message: "Game submitted successfully"}, nil
}

// MockTokenValidator accepts exactly one token.
type MockTokenValidator struct {
	ValidToken string
	Claims     *models.TokenClaims
}

func (m *MockTokenValidator) ValidateToken(token string) (*models.TokenClaims, error) {
	if token == "" || token != m.ValidToken {
		return nil, models.ErrUnauthorized
	}
	return m.Claims, nil
}

// MockQuestionService implements QuestionServiceInterface for testing
type MockQuestionService struct {
	ListFunc     func(ctx context.Context, limit, offset int) (*models.QuestionPage, error)
	GetFunc      func(ctx context.Context, id int64) (*models.Question, error)
	CreateFunc   func(ctx context.Context, in models.QuestionInput, actorID string) (*models.Question, error)
	UpdateFunc   func(ctx context.Context, id int64, in models.QuestionInput, actorID string) (*models.Question, error)
	DeleteFunc   func(ctx context.Context, id int64, actorID string) error
	PlayableFunc func(ctx context.Context, category string, limit int) ([]models.PlayableQuestion, error)
}

func (m *MockQuestionService) List(ctx context.Context, limit, offset int) (*models.QuestionPage, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return &models.QuestionPage{Data: []models.Question{}}, nil
}

func (m *MockQuestionService) Get(ctx context.Context, id int64) (*models.Question, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockQuestionService) Create(ctx context.Context, in models.QuestionInput, actorID string) (*models.Question, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in, actorID)
	}
	return &models.Question{ID: 1}, nil
}

func (m *MockQuestionService) Update(ctx context.Context, id int64, in models.QuestionInput, actorID string) (*models.Question, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, in, actorID)
	}
	return &models.Question{ID: id}, nil
}

func (m *MockQuestionService) Delete(ctx context.Context, id int64, actorID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, actorID)
	}
	return nil
}

func (m *MockQuestionService) Playable(ctx context.Context, category string, limit int) ([]models.PlayableQuestion, error) {
	if m.PlayableFunc != nil {
		return m.PlayableFunc(ctx, category, limit)
	}
	return []models.PlayableQuestion{}, nil
}

// MockStatsService implements StatsServiceInterface for testing
type MockStatsService struct {
	GetUserStatsFunc func(ctx context.Context, userID string) (*models.UserStatsSummary, error)
	LeaderboardFunc  func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

func (m *MockStatsService) GetUserStats(ctx context.Context, userID string) (*models.UserStatsSummary, error) {
	if m.GetUserStatsFunc != nil {
		return m.GetUserStatsFunc(ctx, userID)
	}
	return &models.UserStatsSummary{}, nil
}

func (m *MockStatsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(ctx, limit)
	}
	return []models.LeaderboardEntry{}, nil
}

// MockHealthChecker returns Err from every check.
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
