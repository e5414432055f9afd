package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedDraft is a persisted draft result owned by a user. Mutable after
// creation: visibility can be toggled and the record deleted.
type SavedDraft struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	Rounds        int       `json:"rounds"`
	SelectedTeams []string  `json:"selected_teams"`
	Results       []Pick    `json:"results"`
	IsPublic      bool      `json:"is_public"`
	Grade         *string   `json:"grade,omitempty"`
	Score         *float64  `json:"score,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
