package events

import (
	"encoding/json"
	"time"
)

// Type identifies a draft room event.
type Type string

const (
	TypeDraftStarted   Type = "DraftStarted"
	TypePickStarted    Type = "PickStarted"
	TypePickMade       Type = "PickMade"
	TypeRoundCompleted Type = "RoundCompleted"
	TypeDraftPaused    Type = "DraftPaused"
	TypeDraftResumed   Type = "DraftResumed"
	TypeTradeExecuted  Type = "TradeExecuted"
	TypeDraftCompleted Type = "DraftCompleted"
	TypeTimerTick      Type = "TimerTick"
)

// Envelope is the wire structure for all draft room events. Data carries
// the type-specific payload.
type Envelope struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ParsePayload parses an envelope's data into the payload struct for its
// type. Unknown types return (nil, nil).
func ParsePayload(ev *Envelope) (interface{}, error) {
	switch ev.Type {
	case TypeDraftStarted:
		var p DraftStartedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypePickStarted:
		var p PickStartedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypePickMade:
		var p PickMadePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeRoundCompleted:
		var p RoundCompletedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeDraftPaused:
		var p DraftPausedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeDraftResumed:
		var p DraftResumedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeTradeExecuted:
		var p TradeExecutedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeDraftCompleted:
		var p DraftCompletedPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeTimerTick:
		var p TimerTickPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, nil
	}
}
