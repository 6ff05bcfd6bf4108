package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/lockout"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/BradenHooton/nbatrivia/internal/stats"
	pkgauth "github.com/BradenHooton/nbatrivia/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc                 func(ctx context.Context, id string) (*models.User, error)
	GetByUsernameFunc           func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc              func(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmailFunc func(ctx context.Context, username, email string) (bool, bool, error)
	CreateFunc                  func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLockoutStateFunc      func(ctx context.Context, id string, state lockout.State) error
	RecordLoginFunc             func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	if m.ExistsByUsernameOrEmailFunc != nil {
		return m.ExistsByUsernameOrEmailFunc(ctx, username, email)
	}
	return false, false, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = "new-user-id"
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return user, nil
}

func (m *MockUserRepository) UpdateLockoutState(ctx context.Context, id string, state lockout.State) error {
	if m.UpdateLockoutStateFunc != nil {
		return m.UpdateLockoutStateFunc(ctx, id, state)
	}
	return nil
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, id, at)
	}
	return nil
}

// MockPasswordResetRepository implements PasswordResetRepository for testing
type MockPasswordResetRepository struct {
	CreateFunc            func(ctx context.Context, reset *models.PasswordReset) error
	GetByTokenHashFunc    func(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	DeleteByTokenHashFunc func(ctx context.Context, tokenHash string) error
	ResetPasswordFunc     func(ctx context.Context, tokenHash, userID, passwordHash string) error
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, reset)
	}
	return nil
}

func (m *MockPasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	if m.GetByTokenHashFunc != nil {
		return m.GetByTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockPasswordResetRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if m.DeleteByTokenHashFunc != nil {
		return m.DeleteByTokenHashFunc(ctx, tokenHash)
	}
	return nil
}

func (m *MockPasswordResetRepository) ResetPassword(ctx context.Context, tokenHash, userID, passwordHash string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, tokenHash, userID, passwordHash)
	}
	return nil
}

// MockEmailSender implements email.Sender for testing
type MockEmailSender struct {
	SendPasswordResetFunc func(ctx context.Context, to, resetURL string, expiresAt time.Time) error
}

func (m *MockEmailSender) SendPasswordReset(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, to, resetURL, expiresAt)
	}
	return nil
}

// MockQuestionRepository implements QuestionRepository and QuestionLookup for testing
type MockQuestionRepository struct {
	GetByIDFunc          func(ctx context.Context, id int64) (*models.Question, error)
	GetByIDsFunc         func(ctx context.Context, ids []int64) (map[int64]models.Question, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]models.Question, int, error)
	RandomByCategoryFunc func(ctx context.Context, category string, limit int) ([]models.Question, error)
	CreateFunc           func(ctx context.Context, q *models.Question) (*models.Question, error)
	UpdateFunc           func(ctx context.Context, id int64, changes map[string]any) (*models.Question, error)
	DeleteFunc           func(ctx context.Context, id int64) error
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Question, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return map[int64]models.Question{}, nil
}

func (m *MockQuestionRepository) List(ctx context.Context, limit, offset int) ([]models.Question, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []models.Question{}, 0, nil
}

func (m *MockQuestionRepository) RandomByCategory(ctx context.Context, category string, limit int) ([]models.Question, error) {
	if m.RandomByCategoryFunc != nil {
		return m.RandomByCategoryFunc(ctx, category, limit)
	}
	return []models.Question{}, nil
}

func (m *MockQuestionRepository) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q)
	}
	q.ID = 1
	return q, nil
}

func (m *MockQuestionRepository) Update(ctx context.Context, id int64, changes map[string]any) (*models.Question, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, changes)
	}
	return &models.Question{ID: id}, nil
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockGameRecorder runs the apply function against in-memory rows, the way the
// repository does inside its transaction.
type MockGameRecorder struct {
	Global *models.GlobalStats
	Modes  map[string]*models.ModeStats
	Err    error
	Calls  int
}

func (m *MockGameRecorder) SubmitGame(ctx context.Context, userID, mode string, fn stats.ApplyFunc) (stats.Update, error) {
	m.Calls++
	if m.Err != nil {
		return stats.Update{}, m.Err
	}
	if m.Global == nil {
		m.Global = &models.GlobalStats{UserID: userID}
	}
	if m.Modes == nil {
		m.Modes = make(map[string]*models.ModeStats)
	}
	if m.Modes[mode] == nil {
		m.Modes[mode] = &models.ModeStats{UserID: userID, GameMode: mode}
	}

	update := fn(m.Global, m.Modes[mode])
	g, md := update.Global, update.Mode
	m.Global = &g
	m.Modes[mode] = &md
	return update, nil
}

// MockStatsReader implements StatsReader for testing
type MockStatsReader struct {
	GetGlobalFunc      func(ctx context.Context, userID string) (*models.GlobalStats, error)
	ListModesFunc      func(ctx context.Context, userID string) ([]models.ModeStats, error)
	RankFunc           func(ctx context.Context, userID string) (int, error)
	TopByPointsFunc    func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	RecentSessionsFunc func(ctx context.Context, userID string, limit int) ([]models.GameSession, error)
}

func (m *MockStatsReader) GetGlobal(ctx context.Context, userID string) (*models.GlobalStats, error) {
	if m.GetGlobalFunc != nil {
		return m.GetGlobalFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockStatsReader) ListModes(ctx context.Context, userID string) ([]models.ModeStats, error) {
	if m.ListModesFunc != nil {
		return m.ListModesFunc(ctx, userID)
	}
	return []models.ModeStats{}, nil
}

func (m *MockStatsReader) Rank(ctx context.Context, userID string) (int, error) {
	if m.RankFunc != nil {
		return m.RankFunc(ctx, userID)
	}
	return 1, nil
}

func (m *MockStatsReader) TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if m.TopByPointsFunc != nil {
		return m.TopByPointsFunc(ctx, limit)
	}
	return []models.LeaderboardEntry{}, nil
}

func (m *MockStatsReader) RecentSessions(ctx context.Context, userID string, limit int) ([]models.GameSession, error) {
	if m.RecentSessionsFunc != nil {
		return m.RecentSessionsFunc(ctx, userID, limit)
	}
	return []models.GameSession{}, nil
}

// MockLeaderboardCache implements LeaderboardCache for testing
type MockLeaderboardCache struct {
	TopFunc         func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GenerationFunc  func(ctx context.Context) (int64, error)
	StoreFunc       func(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error
	InvalidateCalls int
}

func (m *MockLeaderboardCache) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if m.TopFunc != nil {
		return m.TopFunc(ctx, limit)
	}
	return nil, models.ErrNotFound
}

func (m *MockLeaderboardCache) Generation(ctx context.Context) (int64, error) {
	if m.GenerationFunc != nil {
		return m.GenerationFunc(ctx)
	}
	return 0, nil
}

func (m *MockLeaderboardCache) Store(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, gen, entries)
	}
	return nil
}

func (m *MockLeaderboardCache) Invalidate(ctx context.Context) error {
	m.InvalidateCalls++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestUser creates a user whose password is password, hashed at the minimum bcrypt cost.
func NewTestUser(id, username, email, password string) *models.User {
	hash, err := pkgauth.HashPasswordWithCost(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func withSecurityAnswer(u *models.User, question, answer string) *models.User {
	hash, err := pkgauth.HashSecurityAnswer(answer, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u.SecurityQuestion = &question
	u.SecurityAnswerHash = &hash
	return u
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
