package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/BradenHooton/nbatrivia/internal/lockout"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, username, email, first_name, last_name, password_hash,
	security_question, security_answer_hash, failed_login_attempts, lockout_until,
	role, last_active, created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.SecurityQuestion, &user.SecurityAnswerHash, &user.FailedLoginAttempts, &user.LockoutUntil,
		&user.Role, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// ExistsByUsernameOrEmail reports which of the two identifiers are already registered.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE username = $1),
			EXISTS (SELECT 1 FROM users WHERE email = $2)
	`
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, fmt.Errorf("failed to check existing users: %w", err)
	}
	return usernameTaken, emailTaken, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash,
			security_question, security_answer_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.SecurityQuestion, user.SecurityAnswerHash, user.Role, user.CreatedAt, user.UpdatedAt,
	))
}

// UpdateLockoutState persists the failed-attempt counter and lockout expiry.
func (r *UserRepository) UpdateLockoutState(ctx context.Context, id string, state lockout.State) error {
	query := `
		UPDATE users
		SET failed_login_attempts = $2, lockout_until = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, state.FailedAttempts, state.LockoutUntil)
}

// RecordLogin clears lockout state and stamps last_active.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, lockout_until = NULL, last_active = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, at)
}

func (r *UserRepository) UpdateRole(ctx context.Context, username, role string) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE username = $1`
	return r.execOne(ctx, query, username, role)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
