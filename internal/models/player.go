package models

// Player is one member of the draft pool. Records are immutable apart
// from Bio, which is lazily populated and cached back onto the in-memory
// record after the first fetch.
type Player struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Position       string  `json:"position"`
	School         string  `json:"school"`
	DraftRound     int     `json:"draft_round"`
	DraftPick      int     `json:"draft_pick"`
	NFLTeam        string  `json:"nfl_team"`
	PredictedValue float64 `json:"predicted_value"`
	Year           int     `json:"year"`
	Bio            *string `json:"bio,omitempty"`
}

// PlayerSeasonStat is one historical season line for a player, used by
// the report scorer to derive value-based grades.
type PlayerSeasonStat struct {
	PlayerName       string  `json:"player_name"`
	Position         string  `json:"position"`
	Season           int     `json:"season"`
	ApproximateValue float64 `json:"approximate_value"`
}
