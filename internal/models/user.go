package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UsageCounters tracks per-user feature usage. Rows are upserted, never
// deleted.
type UsageCounters struct {
	UserID          uuid.UUID `json:"user_id"`
	ComparisonCount int       `json:"comparison_count"`
	PredictionCount int       `json:"prediction_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}
