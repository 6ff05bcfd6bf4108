package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/jackc/pgx/v5"
)

// PasswordResetRepository stores hashed password-reset tokens.
type PasswordResetRepository struct {
	db *database.DB
}

func NewPasswordResetRepository(db *database.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.Pool.QueryRow(ctx, query, reset.TokenHash, reset.UserID, reset.ExpiresAt).Scan(&reset.CreatedAt); err != nil {
		return fmt.Errorf("failed to create password reset: %w", database.MapPostgresError(err))
	}
	return nil
}

func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	query := `
		SELECT token_hash, user_id, expires_at, created_at
		FROM password_resets WHERE token_hash = $1
	`
	var reset models.PasswordReset
	err := r.db.Pool.QueryRow(ctx, query, tokenHash).Scan(&reset.TokenHash, &reset.UserID, &reset.ExpiresAt, &reset.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &reset, nil
}

func (r *PasswordResetRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM password_resets WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete password reset: %w", err)
	}
	return nil
}

// ResetPassword sets the new hash, clears lockout state and deletes every
// outstanding token of the user. It fails with ErrTokenInvalid when the token
// was consumed concurrently.
func (r *PasswordResetRepository) ResetPassword(ctx context.Context, tokenHash, userID, passwordHash string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM password_resets WHERE token_hash = $1`, tokenHash)
		if err != nil {
			return fmt.Errorf("failed to consume token: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrTokenInvalid
		}

		tag, err = tx.Exec(ctx, `
			UPDATE users
			SET password_hash = $2, failed_login_attempts = 0, lockout_until = NULL, updated_at = NOW()
			WHERE id = $1
		`, userID, passwordHash)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", database.MapPostgresError(err))
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to delete remaining tokens: %w", err)
		}
		return nil
	})
}

// DeleteExpired removes tokens whose expiry is before now and returns how many were removed.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM password_resets WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}
	return tag.RowsAffected(), nil
}
