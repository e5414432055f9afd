package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftvision/draftvision/internal/models"
)

// ErrDraftNotFound is returned when a saved draft id has no row.
var ErrDraftNotFound = errors.New("saved draft not found")

// Repository implements saved draft data access against Postgres. Pick
// results and team selections are stored as JSONB.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new saved drafts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const createSavedDraftQuery = `
INSERT INTO saved_drafts (id, owner_id, name, rounds, selected_teams, results, is_public, grade, score, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING created_at, updated_at`

// CreateSavedDraft inserts a new saved draft record.
func (r *Repository) CreateSavedDraft(ctx context.Context, d *models.SavedDraft) error {
	teams, err := json.Marshal(d.SelectedTeams)
	if err != nil {
		return fmt.Errorf("failed to marshal selected teams: %w", err)
	}
	results, err := json.Marshal(d.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	err = r.pool.QueryRow(ctx, createSavedDraftQuery,
		d.ID, d.OwnerID, d.Name, d.Rounds, teams, results, d.IsPublic, d.Grade, d.Score,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create saved draft: %w", err)
	}
	return nil
}

const listSavedDraftsByOwnerQuery = `
SELECT id, owner_id, name, rounds, selected_teams, results, is_public, grade, score, created_at, updated_at
FROM saved_drafts
WHERE owner_id = $1
ORDER BY created_at DESC`

// ListSavedDraftsByOwner fetches all saved drafts for an owner.
func (r *Repository) ListSavedDraftsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.SavedDraft, error) {
	rows, err := r.pool.Query(ctx, listSavedDraftsByOwnerQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.SavedDraft
	for rows.Next() {
		d, err := scanSavedDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read saved drafts: %w", err)
	}
	return drafts, nil
}

const getSavedDraftQuery = `
SELECT id, owner_id, name, rounds, selected_teams, results, is_public, grade, score, created_at, updated_at
FROM saved_drafts
WHERE id = $1`

// GetSavedDraft fetches a saved draft by id.
func (r *Repository) GetSavedDraft(ctx context.Context, id uuid.UUID) (*models.SavedDraft, error) {
	row := r.pool.QueryRow(ctx, getSavedDraftQuery, id)
	d, err := scanSavedDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	return d, err
}

const updateVisibilityQuery = `
UPDATE saved_drafts SET is_public = $2, updated_at = NOW() WHERE id = $1`

// UpdateVisibility toggles a saved draft's public flag.
func (r *Repository) UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error {
	tag, err := r.pool.Exec(ctx, updateVisibilityQuery, id, isPublic)
	if err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

const updateGradeQuery = `
UPDATE saved_drafts SET grade = $2, score = $3, updated_at = NOW() WHERE id = $1`

// UpdateGrade stores a computed grade and score on a saved draft.
func (r *Repository) UpdateGrade(ctx context.Context, id uuid.UUID, grade string, score float64) error {
	tag, err := r.pool.Exec(ctx, updateGradeQuery, id, grade, score)
	if err != nil {
		return fmt.Errorf("failed to update grade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

const deleteSavedDraftQuery = `
DELETE FROM saved_drafts WHERE id = $1`

// DeleteSavedDraft removes a saved draft.
func (r *Repository) DeleteSavedDraft(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteSavedDraftQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func scanSavedDraft(row pgx.Row) (*models.SavedDraft, error) {
	var d models.SavedDraft
	var teams, results []byte
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Rounds, &teams, &results,
		&d.IsPublic, &d.Grade, &d.Score, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(teams, &d.SelectedTeams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selected teams: %w", err)
	}
	if err := json.Unmarshal(results, &d.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	return &d, nil
}
