package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftvision/draftvision/internal/models"
)

// ErrPlayerNotFound is returned when a player id has no row.
var ErrPlayerNotFound = errors.New("player not found")

// Repository implements player data access against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new players repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const listPlayersByYearQuery = `
SELECT id, name, position, school, draft_round, draft_pick, nfl_team, predicted_value, year, bio
FROM players
WHERE year = $1
ORDER BY id`

// ListPlayersByYear fetches the full player pool for a draft year.
func (r *Repository) ListPlayersByYear(ctx context.Context, year int) ([]models.Player, error) {
	rows, err := r.pool.Query(ctx, listPlayersByYearQuery, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for year %d: %w", year, err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Position, &p.School, &p.DraftRound,
			&p.DraftPick, &p.NFLTeam, &p.PredictedValue, &p.Year, &p.Bio); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	return players, nil
}

const getPlayerQuery = `
SELECT id, name, position, school, draft_round, draft_pick, nfl_team, predicted_value, year, bio
FROM players
WHERE id = $1`

// GetPlayer fetches a single player by id.
func (r *Repository) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	var p models.Player
	err := r.pool.QueryRow(ctx, getPlayerQuery, id).Scan(&p.ID, &p.Name, &p.Position,
		&p.School, &p.DraftRound, &p.DraftPick, &p.NFLTeam, &p.PredictedValue, &p.Year, &p.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return &p, nil
}

const updatePlayerBioQuery = `
UPDATE players SET bio = $2 WHERE id = $1`

// UpdatePlayerBio caches a lazily generated bio back onto the record.
func (r *Repository) UpdatePlayerBio(ctx context.Context, id int, bio string) error {
	if _, err := r.pool.Exec(ctx, updatePlayerBioQuery, id, bio); err != nil {
		return fmt.Errorf("failed to update player bio: %w", err)
	}
	return nil
}

const listPlayerStatsQuery = `
SELECT player_name, position, season, approximate_value
FROM player_stats
WHERE player_name = $1 AND position = $2
ORDER BY season`

// ListPlayerStats fetches historical seasons for a player and position.
func (r *Repository) ListPlayerStats(ctx context.Context, name, position string) ([]models.PlayerSeasonStat, error) {
	rows, err := r.pool.Query(ctx, listPlayerStatsQuery, name, position)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats for %s: %w", name, err)
	}
	defer rows.Close()

	var stats []models.PlayerSeasonStat
	for rows.Next() {
		var s models.PlayerSeasonStat
		if err := rows.Scan(&s.PlayerName, &s.Position, &s.Season, &s.ApproximateValue); err != nil {
			return nil, fmt.Errorf("failed to scan player stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read player stats: %w", err)
	}
	return stats, nil
}

const playerValuesQuery = `
SELECT player_name, AVG(approximate_value)
FROM player_stats
WHERE player_name = ANY($1)
GROUP BY player_name`

// PlayerValues returns the average approximate value per player name.
// Implements report.ValueFetcher.
func (r *Repository) PlayerValues(ctx context.Context, names []string) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, playerValuesQuery, names)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan player value: %w", err)
		}
		values[name] = avg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read player values: %w", err)
	}
	return values, nil
}
