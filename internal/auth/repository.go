package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftvision/draftvision/internal/models"
)

// Repository implements user and reset-token data access against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const createUserQuery = `
INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING created_at, updated_at`

// CreateUser inserts a new account.
func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, createUserQuery, u.ID, u.Email, u.Username, u.PasswordHash).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

const getUserByEmailQuery = `
SELECT id, email, username, password_hash, created_at, updated_at
FROM users WHERE email = $1`

// GetUserByEmail fetches an account by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, getUserByEmailQuery, email).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

const getUserByIDQuery = `
SELECT id, email, username, password_hash, created_at, updated_at
FROM users WHERE id = $1`

// GetUserByID fetches an account by id.
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, getUserByIDQuery, id).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

const updatePasswordQuery = `
UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

// UpdatePassword replaces an account's password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, updatePasswordQuery, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const createResetTokenQuery = `
INSERT INTO password_reset_tokens (token, user_id, expires_at)
VALUES ($1, $2, $3)`

// CreateResetToken stores a single-use password reset token.
func (r *Repository) CreateResetToken(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) error {
	if _, err := r.pool.Exec(ctx, createResetTokenQuery, token, userID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

const consumeResetTokenQuery = `
DELETE FROM password_reset_tokens
WHERE token = $1 AND expires_at > NOW()
RETURNING user_id`

// ConsumeResetToken atomically validates and removes a reset token,
// returning the account it belongs to.
func (r *Repository) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx, consumeResetTokenQuery, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
