package draftorder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftvision/draftvision/internal/models"
)

// Repository loads draft order slots from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new draft order repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const listOrderByYearQuery = `
SELECT id, round, team, year
FROM draft_order
WHERE year = $1 AND round <= $2
ORDER BY round, id`

// ListOrderByYear fetches the draft order for a season, filtered to the
// requested round count.
func (r *Repository) ListOrderByYear(ctx context.Context, year, rounds int) ([]models.DraftOrderEntry, error) {
	rows, err := r.pool.Query(ctx, listOrderByYearQuery, year, rounds)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft order for year %d: %w", year, err)
	}
	defer rows.Close()

	var order []models.DraftOrderEntry
	for rows.Next() {
		var e models.DraftOrderEntry
		if err := rows.Scan(&e.ID, &e.Round, &e.Team, &e.Year); err != nil {
			return nil, fmt.Errorf("failed to scan draft order entry: %w", err)
		}
		order = append(order, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read draft order: %w", err)
	}
	return order, nil
}
