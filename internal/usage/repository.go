package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftvision/draftvision/internal/models"
)

// Repository upserts per-user feature usage counters.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new usage repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const incrementComparisonQuery = `
INSERT INTO usage_counters (user_id, comparison_count, prediction_count, updated_at)
VALUES ($1, 1, 0, NOW())
ON CONFLICT (user_id)
DO UPDATE SET comparison_count = usage_counters.comparison_count + 1, updated_at = NOW()`

// IncrementComparisonCount bumps the comparison counter for a user.
func (r *Repository) IncrementComparisonCount(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, incrementComparisonQuery, userID); err != nil {
		return fmt.Errorf("failed to increment comparison count: %w", err)
	}
	return nil
}

const incrementPredictionQuery = `
INSERT INTO usage_counters (user_id, comparison_count, prediction_count, updated_at)
VALUES ($1, 0, 1, NOW())
ON CONFLICT (user_id)
DO UPDATE SET prediction_count = usage_counters.prediction_count + 1, updated_at = NOW()`

// IncrementPredictionCount bumps the prediction counter for a user.
func (r *Repository) IncrementPredictionCount(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, incrementPredictionQuery, userID); err != nil {
		return fmt.Errorf("failed to increment prediction count: %w", err)
	}
	return nil
}

const getCountersQuery = `
SELECT user_id, comparison_count, prediction_count, updated_at
FROM usage_counters WHERE user_id = $1`

// GetCounters fetches a user's counters; absent rows read as zeros.
func (r *Repository) GetCounters(ctx context.Context, userID uuid.UUID) (*models.UsageCounters, error) {
	var c models.UsageCounters
	err := r.pool.QueryRow(ctx, getCountersQuery, userID).
		Scan(&c.UserID, &c.ComparisonCount, &c.PredictionCount, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.UsageCounters{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage counters: %w", err)
	}
	return &c, nil
}
