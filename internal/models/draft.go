package models

import (
	"time"
)

// RoomStatus defines the lifecycle state of a draft room.
type RoomStatus string

const (
	RoomStatusNotStarted    RoomStatus = "NOT_STARTED"
	RoomStatusInProgress    RoomStatus = "IN_PROGRESS"
	RoomStatusRoundBoundary RoomStatus = "ROUND_BOUNDARY"
	RoomStatusCompleted     RoomStatus = "COMPLETED"
)

// DraftOrderEntry is one selection slot in a draft year. Ownership (Team)
// is mutable via trades; entries are never deleted during a session.
type DraftOrderEntry struct {
	ID    int    `json:"id"`
	Round int    `json:"round"`
	Team  string `json:"team"`
	Year  int    `json:"year"`
}

// Pick is one recorded selection. PickNumber is a strictly increasing
// global counter assigned at record time; the sequence has no gaps or
// repeats within a session.
type Pick struct {
	Round      int       `json:"round"`
	PickNumber int       `json:"pick_number"`
	Team       string    `json:"team"`
	PlayerID   int       `json:"player_id"`
	PlayerName string    `json:"player_name"`
	AutoPick   bool      `json:"auto_pick"`
	MadeAt     time.Time `json:"made_at"`
}

// DraftConfiguration is supplied by the setup flow and is immutable once
// the draft room is entered.
type DraftConfiguration struct {
	SelectedTeams  []string `json:"selected_teams"`
	Locations      []string `json:"locations,omitempty"`
	Rounds         int      `json:"rounds"`
	TimePerPickSec int      `json:"time_per_pick_sec"`
	DraftYear      int      `json:"draft_year"`
}

// UserControls reports whether the given team is controlled by the user
// under this configuration. Any team not selected is CPU-controlled.
func (c DraftConfiguration) UserControls(team string) bool {
	for _, t := range c.SelectedTeams {
		if t == team {
			return true
		}
	}
	return false
}

// TradeProposal is a candidate exchange of draft-order entries between
// the user's side and a partner team. It is ephemeral: consumed by
// acceptance or discarded on rejection.
type TradeProposal struct {
	TradePartner   string `json:"trade_partner"`
	UserPickIDs    []int  `json:"user_pick_ids"`
	PartnerPickIDs []int  `json:"partner_pick_ids"`
}
