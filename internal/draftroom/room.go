package draftroom

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/draftroom/events"
	"github.com/draftvision/draftvision/internal/models"
)

const (
	// cpuPickDelay is the fixed "thinking" delay before a CPU pick resolves.
	cpuPickDelay = time.Second
	// roundSettleDelay lets order mutations (trades) commit before the next
	// round starts evaluating.
	roundSettleDelay = 100 * time.Millisecond
	// completionGrace is the delay between the final pick and the Complete
	// transition.
	completionGrace = 3 * time.Second
	// countdownInterval is the user-pick countdown tick granularity.
	countdownInterval = time.Second
)

var (
	ErrMissingConfig     = errors.New("draft configuration has no selected teams")
	ErrEmptyOrder        = errors.New("draft order is empty")
	ErrEmptyPool         = errors.New("player pool is empty")
	ErrAlreadyStarted    = errors.New("draft already started")
	ErrNotInProgress     = errors.New("draft is not in progress")
	ErrNotUserTurn       = errors.New("no user pick is on the clock")
	ErrPlayerUnavailable = errors.New("player is not available")
	ErrNotRoundBoundary  = errors.New("draft is not at a round boundary")
	ErrInvalidTrade      = errors.New("trade must include at least one pick from each side")
)

// EventSink receives every event the room emits. Implementations must not
// call back into the room; they are invoked with the room lock held.
type EventSink interface {
	Publish(ev *events.Envelope)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ev *events.Envelope)

func (f SinkFunc) Publish(ev *events.Envelope) { f(ev) }

type nopSink struct{}

func (nopSink) Publish(*events.Envelope) {}

// Room drives one interactive draft session: round/pick progression,
// CPU auto-picks, the user-pick countdown and trade application. All
// transitions happen under a single lock; timer callbacks are guarded by
// generation counters so a superseded callback is a no-op rather than a
// stale mutation.
type Room struct {
	ID  uuid.UUID
	cfg models.DraftConfiguration

	mu    sync.Mutex
	clock clockwork.Clock
	sink  EventSink
	strat AutoPickStrategy
	neg   *Negotiator

	status      models.RoomStatus
	order       []models.DraftOrderEntry
	roundOrders []models.DraftOrderEntry
	available   []models.Player
	picks       []models.Pick

	round        int
	pickIndex    int
	paused       bool
	userPaused   bool
	awaitingUser bool
	pickNumber   int
	startedAt    time.Time

	// gen invalidates pending CPU, settle and completion-grace timers.
	// userGen invalidates the user-pick countdown, which runs independently
	// of pause per the room contract.
	gen     uint64
	userGen uint64

	countdownRemaining int
	proposals          []models.TradeProposal
}

// Option configures a Room.
type Option func(*Room)

// WithClock sets the clock. Tests pass a clockwork fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(r *Room) { r.clock = c }
}

// WithSink sets the event sink.
func WithSink(s EventSink) Option {
	return func(r *Room) { r.sink = s }
}

// WithStrategy sets the auto-pick strategy.
func WithStrategy(s AutoPickStrategy) Option {
	return func(r *Room) { r.strat = s }
}

// WithNegotiator sets the trade negotiator.
func WithNegotiator(n *Negotiator) Option {
	return func(r *Room) { r.neg = n }
}

// NewRoom validates the configuration and builds a room around the given
// draft order and player pool. Entries beyond the configured round count
// are dropped at the boundary.
func NewRoom(cfg models.DraftConfiguration, order []models.DraftOrderEntry, pool []models.Player, opts ...Option) (*Room, error) {
	if len(cfg.SelectedTeams) == 0 {
		return nil, ErrMissingConfig
	}
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("invalid round count %d", cfg.Rounds)
	}
	if cfg.TimePerPickSec <= 0 {
		return nil, fmt.Errorf("invalid time per pick %d", cfg.TimePerPickSec)
	}

	filtered := make([]models.DraftOrderEntry, 0, len(order))
	for _, e := range order {
		if e.Round <= cfg.Rounds {
			filtered = append(filtered, e)
		}
	}

	r := &Room{
		ID:        uuid.New(),
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
		sink:      nopSink{},
		strat:     BestAvailableStrategy{},
		status:    models.RoomStatusNotStarted,
		order:     filtered,
		available: append([]models.Player(nil), pool...),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.neg == nil {
		r.neg = NewNegotiator()
	}
	return r, nil
}

// Start transitions the room into the first round and evaluates the first
// slot. It fails without transitioning if the order or pool is empty.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusNotStarted {
		return ErrAlreadyStarted
	}
	if len(r.order) == 0 {
		return ErrEmptyOrder
	}
	if len(r.available) == 0 {
		return ErrEmptyPool
	}

	r.status = models.RoomStatusInProgress
	r.round = 1
	r.pickIndex = 0
	r.startedAt = r.clock.Now()
	r.rebuildRoundOrdersLocked()

	log.Info().
		Str("room_id", r.ID.String()).
		Int("rounds", r.cfg.Rounds).
		Int("total_picks", len(r.order)).
		Msg("draft started")

	r.emitLocked(events.TypeDraftStarted, events.DraftStartedPayload{
		RoomID:      r.ID.String(),
		DraftYear:   r.cfg.DraftYear,
		TotalRounds: r.cfg.Rounds,
		TotalPicks:  len(r.order),
		StartedAt:   r.startedAt,
	})

	r.evaluateLocked()
	return nil
}

// Pause suspends timer-driven advancement and cancels any pending CPU
// pick or settle timer. A pause issued during a settle window sticks;
// the settle callback never lifts it. The user-pick countdown is not
// affected.
func (r *Room) Pause(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}
	if r.userPaused {
		return nil
	}
	r.userPaused = true
	r.paused = true
	r.gen++

	log.Info().Str("room_id", r.ID.String()).Str("reason", reason).Msg("draft paused")
	r.emitLocked(events.TypeDraftPaused, events.DraftPausedPayload{
		PausedAt: r.clock.Now(),
		Reason:   reason,
	})
	return nil
}

// Resume lifts a pause and re-evaluates the current slot unless a user
// pick is on the clock; that sub-state manages its own countdown.
func (r *Room) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusInProgress {
		return ErrNotInProgress
	}
	if !r.paused {
		return nil
	}
	r.paused = false
	r.userPaused = false
	r.gen++

	log.Info().Str("room_id", r.ID.String()).Msg("draft resumed")
	r.emitLocked(events.TypeDraftResumed, events.DraftResumedPayload{
		ResumedAt: r.clock.Now(),
	})

	if !r.awaitingUser {
		r.evaluateLocked()
	}
	return nil
}

// ContinueRound begins the next round after a round boundary. The pick
// index resets to zero and evaluation resumes after a short settle delay
// so order mutations from trades commit first.
func (r *Room) ContinueRound() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusRoundBoundary {
		return ErrNotRoundBoundary
	}

	r.round++
	r.pickIndex = 0
	r.status = models.RoomStatusInProgress
	r.paused = true
	r.rebuildRoundOrdersLocked()
	r.gen++
	gen := r.gen

	log.Info().Str("room_id", r.ID.String()).Int("round", r.round).Msg("round continued")

	r.scheduleLocked(roundSettleDelay, gen, func() {
		r.paused = r.userPaused
		r.evaluateLocked()
	})
	return nil
}

// MakePick records a manual selection for the user pick on the clock and
// advances the draft.
func (r *Room) MakePick(playerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.awaitingUser {
		return ErrNotUserTurn
	}
	player, ok := r.findAvailableLocked(playerID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrPlayerUnavailable, playerID)
	}

	entry := r.roundOrders[r.pickIndex]
	r.resolveUserPickLocked(entry, player, false)
	return nil
}

// Picks returns a copy of all recorded picks in order.
func (r *Room) Picks() []models.Pick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Pick(nil), r.picks...)
}

// Status returns the room's lifecycle state.
func (r *Room) Status() models.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Config returns the immutable draft configuration.
func (r *Room) Config() models.DraftConfiguration {
	return r.cfg
}

// Snapshot is a point-in-time view of the room for clients joining or
// reconciling state.
type Snapshot struct {
	RoomID           string                    `json:"room_id"`
	Status           models.RoomStatus         `json:"status"`
	Round            int                       `json:"round"`
	PickIndex        int                       `json:"pick_index"`
	Paused           bool                      `json:"paused"`
	AwaitingUserPick bool                      `json:"awaiting_user_pick"`
	OnClockTeam      string                    `json:"on_clock_team,omitempty"`
	TimeRemainingSec int                       `json:"time_remaining_sec,omitempty"`
	Picks            []models.Pick             `json:"picks"`
	Order            []models.DraftOrderEntry  `json:"order"`
	AvailableCount   int                       `json:"available_count"`
	Proposals        []models.TradeProposal    `json:"proposals,omitempty"`
	Config           models.DraftConfiguration `json:"config"`
}

// Snapshot captures the current room state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		RoomID:           r.ID.String(),
		Status:           r.status,
		Round:            r.round,
		PickIndex:        r.pickIndex,
		Paused:           r.paused,
		AwaitingUserPick: r.awaitingUser,
		Picks:            append([]models.Pick(nil), r.picks...),
		Order:            append([]models.DraftOrderEntry(nil), r.order...),
		AvailableCount:   len(r.available),
		Proposals:        append([]models.TradeProposal(nil), r.proposals...),
		Config:           r.cfg,
	}
	if r.status == models.RoomStatusInProgress && r.pickIndex < len(r.roundOrders) {
		snap.OnClockTeam = r.roundOrders[r.pickIndex].Team
	}
	if r.awaitingUser {
		snap.TimeRemainingSec = r.countdownRemaining
	}
	return snap
}

// evaluateLocked inspects the current slot and drives the next transition.
// Callers hold the lock.
func (r *Room) evaluateLocked() {
	if r.status != models.RoomStatusInProgress || r.paused || r.awaitingUser {
		return
	}

	if r.pickIndex >= len(r.roundOrders) {
		if r.round < r.cfg.Rounds {
			r.status = models.RoomStatusRoundBoundary
			r.paused = true
			log.Info().Str("room_id", r.ID.String()).Int("round", r.round).Msg("round boundary reached")
			r.emitLocked(events.TypeRoundCompleted, events.RoundCompletedPayload{
				Round:     r.round,
				NextRound: r.round + 1,
			})
			return
		}
		gen := r.gen
		r.scheduleLocked(completionGrace, gen, r.completeLocked)
		return
	}

	entry := r.roundOrders[r.pickIndex]
	r.refreshProposalsLocked(entry)

	if r.cfg.UserControls(entry.Team) {
		r.awaitingUser = true
		r.countdownRemaining = r.cfg.TimePerPickSec
		now := r.clock.Now()
		timeout := now.Add(time.Duration(r.cfg.TimePerPickSec) * time.Second)
		r.emitLocked(events.TypePickStarted, events.PickStartedPayload{
			Round:          r.round,
			PickIndex:      r.pickIndex,
			Team:           entry.Team,
			UserControlled: true,
			StartedAt:      now,
			TimeoutAt:      &timeout,
			TimePerPickSec: r.cfg.TimePerPickSec,
		})
		r.startCountdownLocked()
		return
	}

	r.emitLocked(events.TypePickStarted, events.PickStartedPayload{
		Round:     r.round,
		PickIndex: r.pickIndex,
		Team:      entry.Team,
		StartedAt: r.clock.Now(),
	})
	gen := r.gen
	r.scheduleLocked(cpuPickDelay, gen, r.cpuPickLocked)
}

// cpuPickLocked resolves an automatic pick for the CPU team on the clock.
func (r *Room) cpuPickLocked() {
	if r.status != models.RoomStatusInProgress || r.pickIndex >= len(r.roundOrders) {
		return
	}
	entry := r.roundOrders[r.pickIndex]

	player, err := r.strat.Select(r.available)
	if err != nil {
		// The pool ran dry mid-draft. Advance rather than stall; the slot
		// goes unfilled and completion detection still fires.
		log.Error().Err(err).
			Str("room_id", r.ID.String()).
			Str("team", entry.Team).
			Msg("cpu pick had no available player")
		r.pickIndex++
		r.evaluateLocked()
		return
	}

	r.recordPickLocked(entry, player, true)
	r.pickIndex++
	r.evaluateLocked()
}

// resolveUserPickLocked records a pick for the user slot on the clock,
// cancels the countdown and advances.
func (r *Room) resolveUserPickLocked(entry models.DraftOrderEntry, player models.Player, auto bool) {
	r.recordPickLocked(entry, player, auto)
	r.awaitingUser = false
	r.userGen++
	r.pickIndex++
	r.evaluateLocked()
}

// timeoutUserPickLocked performs the best-available pick on the user's
// behalf when the countdown reaches zero. The recorded pick is identical
// in shape to a manual pick, attributed to the user's team.
func (r *Room) timeoutUserPickLocked() {
	if !r.awaitingUser || r.pickIndex >= len(r.roundOrders) {
		return
	}
	entry := r.roundOrders[r.pickIndex]
	player, err := r.strat.Select(r.available)
	if err != nil {
		log.Error().Err(err).
			Str("room_id", r.ID.String()).
			Str("team", entry.Team).
			Msg("timeout pick had no available player")
		r.awaitingUser = false
		r.userGen++
		r.pickIndex++
		r.evaluateLocked()
		return
	}
	log.Info().
		Str("room_id", r.ID.String()).
		Str("team", entry.Team).
		Str("player", player.Name).
		Msg("user pick timed out, selecting best available")
	r.resolveUserPickLocked(entry, player, true)
}

// recordPickLocked appends a pick with the next global pick number and
// removes the player from the available pool.
func (r *Room) recordPickLocked(entry models.DraftOrderEntry, player models.Player, auto bool) {
	r.pickNumber++
	pick := models.Pick{
		Round:      r.round,
		PickNumber: r.pickNumber,
		Team:       entry.Team,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		AutoPick:   auto,
		MadeAt:     r.clock.Now(),
	}
	r.picks = append(r.picks, pick)
	r.removeAvailableLocked(player.ID)

	log.Info().
		Str("room_id", r.ID.String()).
		Int("round", r.round).
		Int("pick_number", pick.PickNumber).
		Str("team", entry.Team).
		Str("player", player.Name).
		Bool("auto", auto).
		Msg("pick recorded")

	r.emitLocked(events.TypePickMade, events.PickMadePayload{
		Round:      pick.Round,
		PickNumber: pick.PickNumber,
		Team:       pick.Team,
		PlayerID:   pick.PlayerID,
		PlayerName: pick.PlayerName,
		AutoPick:   auto,
		MadeAt:     pick.MadeAt,
	})
}

// completeLocked transitions the room to Complete after the grace delay.
func (r *Room) completeLocked() {
	if r.status != models.RoomStatusInProgress {
		return
	}
	r.status = models.RoomStatusCompleted
	completedAt := r.clock.Now()

	log.Info().
		Str("room_id", r.ID.String()).
		Int("total_picks", len(r.picks)).
		Msg("draft completed")

	r.emitLocked(events.TypeDraftCompleted, events.DraftCompletedPayload{
		CompletedAt: completedAt,
		TotalPicks:  len(r.picks),
		Duration:    completedAt.Sub(r.startedAt).String(),
	})
}

// startCountdownLocked runs the one-second-granularity user-pick countdown.
// A userGen bump (manual pick, trade-superseded state) ends the loop; the
// countdown deliberately keeps ticking through Pause.
func (r *Room) startCountdownLocked() {
	gen := r.userGen
	go func() {
		for {
			t := r.clock.NewTimer(countdownInterval)
			<-t.Chan()

			r.mu.Lock()
			if r.userGen != gen || !r.awaitingUser {
				r.mu.Unlock()
				return
			}
			r.countdownRemaining--
			if r.countdownRemaining > 0 {
				entry := r.roundOrders[r.pickIndex]
				r.emitLocked(events.TypeTimerTick, events.TimerTickPayload{
					Round:            r.round,
					PickIndex:        r.pickIndex,
					Team:             entry.Team,
					TimeRemainingSec: r.countdownRemaining,
					TickedAt:         r.clock.Now(),
				})
				r.mu.Unlock()
				continue
			}
			r.timeoutUserPickLocked()
			r.mu.Unlock()
			return
		}
	}()
}

// scheduleLocked runs fn after d under the room lock, unless the timer
// generation has moved on by then. Callers hold the lock and pass the
// generation they observed.
func (r *Room) scheduleLocked(d time.Duration, gen uint64, fn func()) {
	t := r.clock.NewTimer(d)
	go func() {
		<-t.Chan()
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen {
			return
		}
		fn()
	}()
}

// rebuildRoundOrdersLocked re-derives the current round's slots from the
// full order list. Called on round changes and after trades mutate
// ownership.
func (r *Room) rebuildRoundOrdersLocked() {
	r.roundOrders = r.roundOrders[:0]
	for _, e := range r.order {
		if e.Round == r.round {
			r.roundOrders = append(r.roundOrders, e)
		}
	}
}

func (r *Room) findAvailableLocked(playerID int) (models.Player, bool) {
	for _, p := range r.available {
		if p.ID == playerID {
			return p, true
		}
	}
	return models.Player{}, false
}

func (r *Room) removeAvailableLocked(playerID int) {
	for i, p := range r.available {
		if p.ID == playerID {
			r.available = append(r.available[:i], r.available[i+1:]...)
			return
		}
	}
}

func (r *Room) emitLocked(typ events.Type, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(typ)).Msg("failed to marshal event payload")
		return
	}
	r.sink.Publish(&events.Envelope{
		ID:        uuid.New().String(),
		RoomID:    r.ID.String(),
		Type:      typ,
		Timestamp: r.clock.Now(),
		Data:      data,
	})
}
