package draftroom

import (
	"errors"

	"github.com/draftvision/draftvision/internal/models"
)

// ErrNoAvailablePlayers is returned when a strategy has nothing to select.
var ErrNoAvailablePlayers = errors.New("no available players")

// AutoPickStrategy selects a player from the available pool when no human
// choice is made: CPU slots and user-pick timeouts.
type AutoPickStrategy interface {
	Select(available []models.Player) (models.Player, error)
}

// BestAvailableStrategy picks the remaining player with the lowest numeric
// id. TODO(product): replace with a real draft-value ranking; the id
// heuristic is a stand-in for best player available.
type BestAvailableStrategy struct{}

// Select implements AutoPickStrategy.
func (BestAvailableStrategy) Select(available []models.Player) (models.Player, error) {
	if len(available) == 0 {
		return models.Player{}, ErrNoAvailablePlayers
	}
	best := available[0]
	for _, p := range available[1:] {
		if p.ID < best.ID {
			best = p
		}
	}
	return best, nil
}
