package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/email"
	"github.com/BradenHooton/nbatrivia/internal/lockout"
	"github.com/BradenHooton/nbatrivia/internal/models"
	pkgauth "github.com/BradenHooton/nbatrivia/pkg/auth"
	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
	"github.com/BradenHooton/nbatrivia/pkg/sanitize"
)

// PasswordResetRepository defines reset token persistence
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	ResetPassword(ctx context.Context, tokenHash, userID, passwordHash string) error
}

type PasswordResetConfig struct {
	TokenTTL    time.Duration
	FrontendURL string
	BcryptCost  int
}

// PasswordResetService implements the security-question password recovery flow.
type PasswordResetService struct {
	users       UserRepository
	resets      PasswordResetRepository
	sender      email.Sender
	policy      lockout.Policy
	config      PasswordResetConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewPasswordResetService(
	users UserRepository,
	resets PasswordResetRepository,
	sender email.Sender,
	policy lockout.Policy,
	config PasswordResetConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		resets:      resets,
		sender:      sender,
		policy:      policy,
		config:      config,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetSecurityQuestion returns the question text configured for the account.
// Unlike login, this reveals whether the email is registered.
func (s *PasswordResetService) GetSecurityQuestion(ctx context.Context, emailAddr string) (string, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return "", models.ErrMissingFields
	}
	if err := sanitize.Check(emailAddr); err != nil {
		return "", models.ErrUnsafeInput
	}

	user, err := s.lookup(ctx, emailAddr)
	if err != nil {
		return "", err
	}

	if user.SecurityQuestion == nil || strings.TrimSpace(*user.SecurityQuestion) == "" {
		return "", models.ErrNoSecurityQuestion
	}
	return *user.SecurityQuestion, nil
}

// RequestReset verifies the security answer and emails a single-use reset link.
// Wrong answers share the login failure counter and lockout.
func (s *PasswordResetService) RequestReset(ctx context.Context, emailAddr, answer, ip string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return models.ErrMissingFields
	}
	if err := sanitize.Check(emailAddr, answer); err != nil {
		return models.ErrUnsafeInput
	}

	user, err := s.lookup(ctx, emailAddr)
	if err != nil {
		return err
	}

	now := s.now()
	state := lockout.FromUser(user)
	if err := s.policy.Check(state, now); err != nil {
		return err
	}

	if user.SecurityAnswerHash == nil || *user.SecurityAnswerHash == "" {
		return models.ErrNoSecurityAnswer
	}

	if strings.TrimSpace(answer) == "" || !pkgauth.CompareSecurityAnswer(*user.SecurityAnswerHash, answer) {
		next, outcome := s.policy.RecordFailure(state, now)
		if err := s.users.UpdateLockoutState(ctx, user.ID, next); err != nil {
			s.logger.Error("failed to record failed security answer", slog.String("user_id", user.ID), slog.Any("error", err))
			return models.ErrInternalServer
		}

		event := pkglogger.AuditEvent{
			EventType:     pkglogger.EventSecurityAnswer,
			UserID:        user.ID,
			IPAddress:     ip,
			FailureReason: "wrong_answer",
		}
		if outcome.Locked {
			event.EventType = pkglogger.EventAccountLocked
			event.FailureReason = "max_security_answer_attempts"
		}
		s.auditLogger.Log(ctx, event)

		return lockout.FailureError(next, outcome, models.ErrWrongSecurityAnswer)
	}

	if err := s.users.UpdateLockoutState(ctx, user.ID, s.policy.RecordSuccess()); err != nil {
		s.logger.Error("failed to clear lockout state", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := pkgauth.GenerateSecureToken(pkgauth.ResetTokenSize)
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	reset := &models.PasswordReset{
		TokenHash: pkgauth.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.TokenTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		s.logger.Error("failed to store reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	resetURL := email.ResetURL(s.config.FrontendURL, token)
	if err := s.sender.SendPasswordReset(ctx, user.Email, resetURL, reset.ExpiresAt); err != nil {
		s.logger.Error("failed to send reset email",
			slog.String("user_id", user.ID),
			slog.String("email", pkglogger.SanitizedEmail(user.Email)),
			slog.Any("error", err))

		// A token the user never received must not stay redeemable.
		if delErr := s.resets.DeleteByTokenHash(ctx, reset.TokenHash); delErr != nil {
			s.logger.Error("failed to delete undelivered reset token", slog.String("user_id", user.ID), slog.Any("error", delErr))
		}
		return models.ErrEmailDelivery
	}

	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventResetIssued,
		UserID:    user.ID,
		Email:     user.Email,
		IPAddress: ip,
		Success:   true,
	})

	return nil
}

// ResetPassword redeems a reset token. On success every outstanding token of
// the user is invalidated and lockout state is cleared.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword, ip string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return models.ErrMissingFields
	}
	if err := sanitize.Check(token); err != nil {
		return models.ErrUnsafeInput
	}
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return passwordError(err)
	}

	tokenHash := pkgauth.HashToken(token)
	reset, err := s.resets.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrTokenInvalid
		}
		s.logger.Error("failed to look up reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if reset.ExpiresAt.Before(s.now()) {
		return models.ErrTokenExpired
	}

	passwordHash, err := pkgauth.HashPasswordWithCost(newPassword, s.config.BcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.resets.ResetPassword(ctx, tokenHash, reset.UserID, passwordHash); err != nil {
		if errors.Is(err, models.ErrTokenInvalid) {
			return models.ErrTokenInvalid
		}
		s.logger.Error("failed to reset password", slog.String("user_id", reset.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("user_id", reset.UserID))
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventPasswordReset,
		UserID:    reset.UserID,
		IPAddress: ip,
		Success:   true,
	})

	return nil
}

func (s *PasswordResetService) lookup(ctx context.Context, emailAddr string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}
