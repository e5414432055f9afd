package events

import (
	"time"
)

// DraftStartedPayload is the payload for a DraftStarted event.
type DraftStartedPayload struct {
	RoomID      string    `json:"room_id"`
	DraftYear   int       `json:"draft_year"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
	StartedAt   time.Time `json:"started_at"`
}

// PickStartedPayload is the payload for a PickStarted event.
type PickStartedPayload struct {
	Round          int        `json:"round"`
	PickIndex      int        `json:"pick_index"`
	Team           string     `json:"team"`
	UserControlled bool       `json:"user_controlled"`
	StartedAt      time.Time  `json:"started_at"`
	TimeoutAt      *time.Time `json:"timeout_at,omitempty"`
	TimePerPickSec int        `json:"time_per_pick_sec,omitempty"`
}

// PickMadePayload is the payload for a PickMade event.
type PickMadePayload struct {
	Round      int       `json:"round"`
	PickNumber int       `json:"pick_number"`
	Team       string    `json:"team"`
	PlayerID   int       `json:"player_id"`
	PlayerName string    `json:"player_name"`
	AutoPick   bool      `json:"auto_pick"`
	MadeAt     time.Time `json:"made_at"`
}

// RoundCompletedPayload is the payload for a RoundCompleted event, emitted
// when a round boundary opens pending explicit continuation.
type RoundCompletedPayload struct {
	Round     int `json:"round"`
	NextRound int `json:"next_round"`
}

// DraftPausedPayload is the payload for a DraftPaused event.
type DraftPausedPayload struct {
	PausedAt time.Time `json:"paused_at"`
	Reason   string    `json:"reason"`
}

// DraftResumedPayload is the payload for a DraftResumed event.
type DraftResumedPayload struct {
	ResumedAt time.Time `json:"resumed_at"`
}

// TradeExecutedPayload is the payload for a TradeExecuted event.
type TradeExecutedPayload struct {
	UserTeam       string    `json:"user_team"`
	TradePartner   string    `json:"trade_partner"`
	UserPickIDs    []int     `json:"user_pick_ids"`
	PartnerPickIDs []int     `json:"partner_pick_ids"`
	ExecutedAt     time.Time `json:"executed_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event.
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
	Duration    string    `json:"duration"`
}

// TimerTickPayload carries periodic countdown updates while a user pick
// is on the clock.
type TimerTickPayload struct {
	Round            int       `json:"round"`
	PickIndex        int       `json:"pick_index"`
	Team             string    `json:"team"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
	TickedAt         time.Time `json:"ticked_at"`
}
