package drafts

import (
	"github.com/draftvision/draftvision/internal/models"
)

// SaveDraftRequest represents a request to persist a completed draft.
type SaveDraftRequest struct {
	Name          string        `json:"name"`
	Rounds        int           `json:"rounds"`
	SelectedTeams []string      `json:"selected_teams"`
	Results       []models.Pick `json:"results"`
	IsPublic      bool          `json:"is_public"`
	Grade         *string       `json:"grade,omitempty"`
	Score         *float64      `json:"score,omitempty"`
}

// ListFilter narrows and orders an in-memory saved draft listing. No
// server-side pagination; filtering operates over already-fetched records.
type ListFilter struct {
	NameContains string `json:"name_contains,omitempty"`
	PublicOnly   bool   `json:"public_only,omitempty"`
	SortBy       string `json:"sort_by,omitempty"` // "name", "score", "created_at"
	Descending   bool   `json:"descending,omitempty"`
}
