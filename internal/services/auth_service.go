package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/lockout"
	"github.com/BradenHooton/nbatrivia/internal/models"
	pkgauth "github.com/BradenHooton/nbatrivia/pkg/auth"
	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
	"github.com/BradenHooton/nbatrivia/pkg/sanitize"
)

// UserRepository defines the user persistence the services depend on
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLockoutState(ctx context.Context, id string, state lockout.State) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

// AuthService handles login and registration
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	timing      *auth.TimingDelay
	policy      lockout.Policy
	bcryptCost  int
	dummyHash   []byte
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewAuthService(
	repo UserRepository,
	tm *auth.TokenManager,
	timing *auth.TimingDelay,
	policy lockout.Policy,
	bcryptCost int,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		timing:      timing,
		policy:      policy,
		bcryptCost:  bcryptCost,
		dummyHash:   pkgauth.NewDummyHash(bcryptCost),
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Login verifies a username and password and issues a session token.
//
// Unknown usernames and wrong passwords produce the same error: an unknown
// username is answered as a first failed attempt against a fresh account, and
// both paths pay one bcrypt comparison at the configured cost and are padded to
// the same minimum duration. A locked account is rejected before the password
// is checked.
func (s *AuthService) Login(ctx context.Context, username, password, ip string) (*models.LoginResponse, error) {
	start := time.Now()

	if username == "" || password == "" {
		return nil, models.ErrMissingFields
	}
	if err := sanitize.Check(username); err != nil {
		return nil, models.ErrUnsafeInput
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkgauth.CompareDummy(s.dummyHash, password)
			s.auditLogger.Log(ctx, pkglogger.AuditEvent{
				EventType:     pkglogger.EventLogin,
				Username:      username,
				IPAddress:     ip,
				FailureReason: "unknown_user",
			})
			s.timing.PadFrom(ctx, start)
			next, outcome := s.policy.RecordFailure(lockout.State{}, s.now())
			return nil, lockout.FailureError(next, outcome, models.ErrInvalidCredentials)
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.now()
	state := lockout.FromUser(user)
	if err := s.policy.Check(state, now); err != nil {
		s.auditLogger.Log(ctx, pkglogger.AuditEvent{
			EventType:     pkglogger.EventLogin,
			UserID:        user.ID,
			IPAddress:     ip,
			FailureReason: "account_locked",
		})
		return nil, err
	}

	if !pkgauth.ComparePassword(user.PasswordHash, password) {
		next, outcome := s.policy.RecordFailure(state, now)
		if err := s.repo.UpdateLockoutState(ctx, user.ID, next); err != nil {
			s.logger.Error("failed to record failed login", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		event := pkglogger.AuditEvent{
			EventType:     pkglogger.EventLogin,
			UserID:        user.ID,
			IPAddress:     ip,
			FailureReason: "invalid_password",
		}
		if outcome.Locked {
			event.EventType = pkglogger.EventAccountLocked
			event.FailureReason = "max_login_attempts"
		}
		s.auditLogger.Log(ctx, event)

		s.timing.PadFrom(ctx, start)
		return nil, lockout.FailureError(next, outcome, models.ErrInvalidCredentials)
	}

	token, err := s.tm.GenerateSessionToken(user)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Error("failed to record login", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventLogin,
		UserID:    user.ID,
		IPAddress: ip,
		Success:   true,
	})

	return &models.LoginResponse{Token: token, User: user.Public()}, nil
}

// Register creates a user account with role "user".
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, ip string) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.SecurityQuestion = strings.TrimSpace(req.SecurityQuestion)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, models.ErrMissingFields
	}
	if (req.SecurityQuestion == "") != (strings.TrimSpace(req.SecurityAnswer) == "") {
		return nil, models.ErrMissingFields
	}

	if err := sanitize.Check(req.Username, req.Email, req.FirstName, req.LastName, req.SecurityQuestion, req.SecurityAnswer); err != nil {
		return nil, models.ErrUnsafeInput
	}

	if err := pkgauth.ValidatePassword(req.Password); err != nil {
		return nil, passwordError(err)
	}

	usernameTaken, emailTaken, err := s.repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		s.logger.Error("failed to check existing users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if usernameTaken {
		return nil, models.ErrUsernameTaken
	}
	if emailTaken {
		return nil, models.ErrEmailTaken
	}

	passwordHash, err := pkgauth.HashPasswordWithCost(req.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if req.SecurityQuestion != "" {
		answerHash, err := pkgauth.HashSecurityAnswer(req.SecurityAnswer, s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to hash security answer", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		user.SecurityQuestion = &req.SecurityQuestion
		user.SecurityAnswerHash = &answerHash
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		// A concurrent registration can still hit the unique constraints.
		if errors.Is(err, models.ErrUsernameTaken) || errors.Is(err, models.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", created.ID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventRegister,
		UserID:    created.ID,
		Username:  created.Username,
		Email:     created.Email,
		IPAddress: ip,
		Success:   true,
	})

	return created, nil
}

// passwordError maps a ValidatePassword failure to the error callers report.
func passwordError(err error) error {
	if errors.Is(err, pkgauth.ErrPasswordTooLong) {
		return models.ErrPasswordTooLong
	}
	return models.ErrWeakPassword
}
