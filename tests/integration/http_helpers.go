//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/cache"
	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/BradenHooton/nbatrivia/internal/handlers"
	"github.com/BradenHooton/nbatrivia/internal/lockout"
	middlewareCustom "github.com/BradenHooton/nbatrivia/internal/middleware"
	"github.com/BradenHooton/nbatrivia/internal/repositories"
	"github.com/BradenHooton/nbatrivia/internal/routes"
	"github.com/BradenHooton/nbatrivia/internal/services"
	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
)

const testJWTSecret = "integration-secret-32-characters-long"

// SentEmail represents a captured reset email
type SentEmail struct {
	To       string
	ResetURL string
}

// CaptureSender records reset emails instead of delivering them.
type CaptureSender struct {
	mu   sync.Mutex
	sent []SentEmail
	Err  error
}

func (c *CaptureSender) SendPasswordReset(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, SentEmail{To: to, ResetURL: resetURL})
	return nil
}

// LastToken returns the token from the most recent reset link.
func (c *CaptureSender) LastToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return ""
	}
	u, err := url.Parse(c.sent[len(c.sent)-1].ResetURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Email  *CaptureSender
	Tokens *auth.TokenManager
}

// NewTestServer wires the production router against a real database. redis
// may be nil to run without the leaderboard cache.
func NewTestServer(db *database.DB, redis *goredis.Client) *TestServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	auditLogger := pkglogger.NewAuditLogger(logger)

	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	questionRepo := repositories.NewQuestionRepository(db)
	statsRepo := repositories.NewStatsRepository(db)

	var leaderboardCache services.LeaderboardCache
	if redis != nil {
		leaderboardCache = cache.NewLeaderboard(redis, time.Minute)
	}

	sender := &CaptureSender{}
	tokenManager := auth.NewTokenManager(testJWTSecret, time.Hour)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{})
	policy := lockout.DefaultPolicy()

	authService := services.NewAuthService(userRepo, tokenManager, timingDelay, policy, bcrypt.MinCost, logger, auditLogger)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, sender, policy, services.PasswordResetConfig{
		TokenTTL:    time.Hour,
		FrontendURL: "http://localhost:5173",
		BcryptCost:  bcrypt.MinCost,
	}, logger, auditLogger)
	gameService := services.NewGameService(questionRepo, statsRepo, leaderboardCache, time.UTC, logger, auditLogger)
	questionService := services.NewQuestionService(questionRepo, logger, auditLogger)
	statsService := services.NewStatsService(userRepo, statsRepo, leaderboardCache, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(r, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, nil),
		Reset:     handlers.NewPasswordResetHandler(resetService, nil),
		Game:      handlers.NewGameHandler(gameService, tokenManager),
		Questions: handlers.NewQuestionHandler(questionService),
		Stats:     handlers.NewStatsHandler(statsService),
		Health:    handlers.NewHealthHandler(map[string]handlers.HealthChecker{"database": db}),
	}, routes.Options{
		TokenManager:  tokenManager,
		UserRepo:      userRepo,
		AuthRateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: 1000},
		UserRateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: 1000},
	})

	return &TestServer{
		Server: httptest.NewServer(r),
		DB:     db,
		Email:  sender,
		Tokens: tokenManager,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body any, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with a session token
func (ts *TestServer) RequestWithAuth(method, path, token string, body any) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

// ParseJSONResponse parses JSON response body into target
func ParseJSONResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts the message field from a response
func GetErrorMessage(resp *http.Response) (string, error) {
	var body map[string]any
	if err := ParseJSONResponse(resp, &body); err != nil {
		return "", err
	}
	msg, _ := body["message"].(string)
	return msg, nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
