package players

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/models"
)

// PlayerRepository defines what the service needs from the data layer.
type PlayerRepository interface {
	ListPlayersByYear(ctx context.Context, year int) ([]models.Player, error)
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	UpdatePlayerBio(ctx context.Context, id int, bio string) error
	ListPlayerStats(ctx context.Context, name, position string) ([]models.PlayerSeasonStat, error)
}

// Service owns the in-memory player list: the draft pool feed, lazy bio
// caching and live patches from the realtime change feed.
type Service struct {
	repo PlayerRepository

	mu      sync.RWMutex
	index   map[int]int // player id -> position in players
	players []models.Player
}

// NewService creates a new player service.
func NewService(repo PlayerRepository) *Service {
	return &Service{
		repo:  repo,
		index: make(map[int]int),
	}
}

// LoadPool fetches the player pool for a year, keeps it in memory and
// returns the slice filtered to players projected within the requested
// round count. Fetch failures surface directly; there is no retry here.
func (s *Service) LoadPool(ctx context.Context, year, rounds int) ([]models.Player, error) {
	all, err := s.repo.ListPlayersByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load player pool: %w", err)
	}

	s.mu.Lock()
	s.players = all
	s.index = make(map[int]int, len(all))
	for i := range s.players {
		s.index[s.players[i].ID] = i
	}
	s.mu.Unlock()

	pool := make([]models.Player, 0, len(all))
	for _, p := range all {
		if p.DraftRound <= rounds {
			pool = append(pool, p)
		}
	}
	log.Info().Int("year", year).Int("rounds", rounds).Int("pool_size", len(pool)).Msg("player pool loaded")
	return pool, nil
}

// Players returns a copy of the in-memory list.
func (s *Service) Players() []models.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Player(nil), s.players...)
}

// Bio returns a player's bio, generating and caching it on first access:
// onto the in-memory record immediately and back to the store best-effort.
func (s *Service) Bio(ctx context.Context, playerID int) (string, error) {
	s.mu.RLock()
	var player models.Player
	i, ok := s.index[playerID]
	if ok {
		if bio := s.players[i].Bio; bio != nil {
			s.mu.RUnlock()
			return *bio, nil
		}
		player = s.players[i]
	}
	s.mu.RUnlock()

	if !ok {
		fetched, err := s.repo.GetPlayer(ctx, playerID)
		if err != nil {
			return "", err
		}
		if fetched.Bio != nil {
			return *fetched.Bio, nil
		}
		player = *fetched
	}

	bio := composeBio(player)

	s.mu.Lock()
	if i, ok := s.index[playerID]; ok {
		s.players[i].Bio = &bio
	}
	s.mu.Unlock()

	if err := s.repo.UpdatePlayerBio(ctx, playerID, bio); err != nil {
		log.Error().Err(err).Int("player_id", playerID).Msg("failed to persist generated bio")
	}
	return bio, nil
}

// ApplyProfileUpdate live-patches the in-memory record for a player row
// update from the change feed. Unknown players are appended.
func (s *Service) ApplyProfileUpdate(p models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[p.ID]; ok {
		// Keep a previously cached bio when the update carries none.
		if p.Bio == nil {
			p.Bio = s.players[i].Bio
		}
		s.players[i] = p
		return
	}
	s.players = append(s.players, p)
	s.index[p.ID] = len(s.players) - 1
}

// Stats exposes historical seasons for the comparison view.
func (s *Service) Stats(ctx context.Context, name, position string) ([]models.PlayerSeasonStat, error) {
	return s.repo.ListPlayerStats(ctx, name, position)
}

func composeBio(p models.Player) string {
	return fmt.Sprintf("%s is a %s out of %s, projected as a round %d selection with a predicted value of %.1f.",
		p.Name, p.Position, p.School, p.DraftRound, p.PredictedValue)
}
