package draftroom

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftvision/draftvision/internal/draftroom/events"
	"github.com/draftvision/draftvision/internal/models"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// collectorSink records every emitted event for assertions.
type collectorSink struct {
	mu     sync.Mutex
	events []*events.Envelope
}

func (c *collectorSink) Publish(ev *events.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectorSink) types() []events.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Type, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Type)
	}
	return out
}

func (c *collectorSink) count(typ events.Type) int {
	n := 0
	for _, t := range c.types() {
		if t == typ {
			n++
		}
	}
	return n
}

func testConfig(teams ...string) models.DraftConfiguration {
	return models.DraftConfiguration{
		SelectedTeams:  teams,
		Rounds:         1,
		TimePerPickSec: 3,
		DraftYear:      2025,
	}
}

func testOrder(round int, teams ...string) []models.DraftOrderEntry {
	out := make([]models.DraftOrderEntry, 0, len(teams))
	for i, team := range teams {
		out = append(out, models.DraftOrderEntry{
			ID:    round*100 + i + 1,
			Round: round,
			Team:  team,
			Year:  2025,
		})
	}
	return out
}

func testPool(n int) []models.Player {
	out := make([]models.Player, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Player{ID: i, Name: "Player " + string(rune('A'+i-1)), Year: 2025})
	}
	return out
}

func newTestRoom(t *testing.T, cfg models.DraftConfiguration, order []models.DraftOrderEntry, pool []models.Player) (*Room, *clockwork.FakeClock, *collectorSink) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	sink := &collectorSink{}
	room, err := NewRoom(cfg, order, pool,
		WithClock(fc),
		WithSink(sink),
		WithNegotiator(NewNegotiatorWithSeed(1)))
	require.NoError(t, err)
	return room, fc, sink
}

func TestNewRoomValidation(t *testing.T) {
	order := testOrder(1, "Bears")
	pool := testPool(3)

	_, err := NewRoom(models.DraftConfiguration{Rounds: 1, TimePerPickSec: 60}, order, pool)
	assert.ErrorIs(t, err, ErrMissingConfig)

	cfg := testConfig("Bears")
	cfg.Rounds = 0
	_, err = NewRoom(cfg, order, pool)
	assert.Error(t, err)

	cfg = testConfig("Bears")
	cfg.TimePerPickSec = 0
	_, err = NewRoom(cfg, order, pool)
	assert.Error(t, err)
}

func TestNewRoomFiltersOrderToConfiguredRounds(t *testing.T) {
	order := append(testOrder(1, "Bears", "Lions"), testOrder(2, "Bears", "Lions")...)
	room, _, _ := newTestRoom(t, testConfig("Bears"), order, testPool(4))

	snap := room.Snapshot()
	require.Len(t, snap.Order, 2)
	for _, e := range snap.Order {
		assert.Equal(t, 1, e.Round)
	}
}

func TestStartFailsWithoutOrderOrPool(t *testing.T) {
	room, _, _ := newTestRoom(t, testConfig("Bears"), nil, testPool(2))
	assert.ErrorIs(t, room.Start(), ErrEmptyOrder)
	assert.Equal(t, models.RoomStatusNotStarted, room.Status())

	room, _, _ = newTestRoom(t, testConfig("Bears"), testOrder(1, "Bears"), nil)
	assert.ErrorIs(t, room.Start(), ErrEmptyPool)
	assert.Equal(t, models.RoomStatusNotStarted, room.Status())
}

func TestStartTwiceFails(t *testing.T) {
	room, _, _ := newTestRoom(t, testConfig("Bears"), testOrder(1, "Bears"), testPool(2))
	require.NoError(t, room.Start())
	assert.ErrorIs(t, room.Start(), ErrAlreadyStarted)
}

func TestCpuDraftRunsToCompletion(t *testing.T) {
	// The user's team never appears in the order, so every slot is CPU.
	room, fc, sink := newTestRoom(t, testConfig("Bears"),
		testOrder(1, "Lions", "Packers", "Vikings"), testPool(5))
	require.NoError(t, room.Start())

	for i := 1; i <= 3; i++ {
		fc.Advance(cpuPickDelay)
		require.Eventually(t, func() bool {
			return len(room.Picks()) == i
		}, waitFor, tick, "pick %d should resolve", i)
	}

	fc.Advance(completionGrace)
	require.Eventually(t, func() bool {
		return room.Status() == models.RoomStatusCompleted
	}, waitFor, tick)

	picks := room.Picks()
	require.Len(t, picks, 3)
	for i, p := range picks {
		assert.Equal(t, i+1, p.PickNumber)
		assert.True(t, p.AutoPick)
		assert.Equal(t, 1, p.Round)
	}
	// Best-available resolves to ascending player ids.
	assert.Equal(t, 1, picks[0].PlayerID)
	assert.Equal(t, 2, picks[1].PlayerID)
	assert.Equal(t, 3, picks[2].PlayerID)

	types := sink.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.TypeDraftStarted, types[0])
	assert.Equal(t, events.TypeDraftCompleted, types[len(types)-1])
	assert.Equal(t, 3, sink.count(events.TypePickMade))
}

func TestUserPickTimeoutSelectsBestAvailable(t *testing.T) {
	cfg := testConfig("Bears")
	cfg.TimePerPickSec = 2
	room, fc, sink := newTestRoom(t, cfg, testOrder(1, "Bears"), testPool(3))
	require.NoError(t, room.Start())

	snap := room.Snapshot()
	assert.True(t, snap.AwaitingUserPick)
	assert.Equal(t, "Bears", snap.OnClockTeam)
	assert.Equal(t, 2, snap.TimeRemainingSec)

	fc.BlockUntil(1)
	fc.Advance(countdownInterval)
	require.Eventually(t, func() bool {
		return room.Snapshot().TimeRemainingSec == 1
	}, waitFor, tick)

	fc.BlockUntil(1)
	fc.Advance(countdownInterval)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 1
	}, waitFor, tick)

	pick := room.Picks()[0]
	assert.Equal(t, "Bears", pick.Team)
	assert.True(t, pick.AutoPick, "timeout pick is recorded as automatic")
	assert.Equal(t, 1, pick.PlayerID)
	assert.Equal(t, 1, sink.count(events.TypeTimerTick))

	fc.Advance(completionGrace)
	require.Eventually(t, func() bool {
		return room.Status() == models.RoomStatusCompleted
	}, waitFor, tick)
}

func TestMakePick(t *testing.T) {
	room, fc, _ := newTestRoom(t, testConfig("Bears"),
		testOrder(1, "Bears", "Lions"), testPool(4))
	require.NoError(t, room.Start())

	assert.ErrorIs(t, room.MakePick(99), ErrPlayerUnavailable)

	require.NoError(t, room.MakePick(3))
	picks := room.Picks()
	require.Len(t, picks, 1)
	assert.Equal(t, "Bears", picks[0].Team)
	assert.Equal(t, 3, picks[0].PlayerID)
	assert.False(t, picks[0].AutoPick)

	// The Lions slot is CPU controlled now; a manual pick is rejected.
	assert.ErrorIs(t, room.MakePick(1), ErrNotUserTurn)

	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 2
	}, waitFor, tick)
	assert.Equal(t, 1, room.Picks()[1].PlayerID, "picked player is no longer available")
}

func TestPauseCancelsCpuTimer(t *testing.T) {
	room, fc, _ := newTestRoom(t, testConfig("Bears"),
		testOrder(1, "Lions"), testPool(2))
	require.NoError(t, room.Start())

	require.NoError(t, room.Pause("user request"))
	fc.Advance(cpuPickDelay)
	require.Never(t, func() bool {
		return len(room.Picks()) > 0
	}, 100*time.Millisecond, tick, "paused room must not resolve CPU picks")

	require.NoError(t, room.Resume())
	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 1
	}, waitFor, tick)
}

func TestPauseWhenNotInProgress(t *testing.T) {
	room, _, _ := newTestRoom(t, testConfig("Bears"), testOrder(1, "Lions"), testPool(2))
	assert.ErrorIs(t, room.Pause("early"), ErrNotInProgress)
	assert.ErrorIs(t, room.Resume(), ErrNotInProgress)
}

func TestCountdownKeepsTickingThroughPause(t *testing.T) {
	cfg := testConfig("Bears")
	cfg.TimePerPickSec = 2
	room, fc, _ := newTestRoom(t, cfg, testOrder(1, "Bears"), testPool(3))
	require.NoError(t, room.Start())
	require.NoError(t, room.Pause("stepping away"))

	fc.BlockUntil(1)
	fc.Advance(countdownInterval)
	require.Eventually(t, func() bool {
		return room.Snapshot().TimeRemainingSec == 1
	}, waitFor, tick)

	fc.BlockUntil(1)
	fc.Advance(countdownInterval)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 1
	}, waitFor, tick, "countdown expiry resolves the pick even while paused")
}

func TestRoundBoundaryAndContinue(t *testing.T) {
	cfg := testConfig("Bears")
	cfg.Rounds = 2
	order := append(testOrder(1, "Lions"), testOrder(2, "Lions")...)
	room, fc, sink := newTestRoom(t, cfg, order, testPool(4))
	require.NoError(t, room.Start())

	assert.ErrorIs(t, room.ContinueRound(), ErrNotRoundBoundary)

	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return room.Status() == models.RoomStatusRoundBoundary
	}, waitFor, tick)
	assert.Equal(t, 1, sink.count(events.TypeRoundCompleted))

	require.NoError(t, room.ContinueRound())
	fc.Advance(roundSettleDelay)
	require.Eventually(t, func() bool {
		return !room.Snapshot().Paused
	}, waitFor, tick)

	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 2
	}, waitFor, tick)
	assert.Equal(t, 2, room.Picks()[1].Round)

	fc.Advance(completionGrace)
	require.Eventually(t, func() bool {
		return room.Status() == models.RoomStatusCompleted
	}, waitFor, tick)
}

func TestPoolExhaustionAdvancesWithoutStalling(t *testing.T) {
	room, fc, _ := newTestRoom(t, testConfig("Bears"),
		testOrder(1, "Lions", "Packers"), testPool(1))
	require.NoError(t, room.Start())

	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 1
	}, waitFor, tick)

	// The second slot has no player left; it goes unfilled and the draft
	// still completes.
	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return room.Snapshot().PickIndex == 2
	}, waitFor, tick)
	fc.Advance(completionGrace)
	require.Eventually(t, func() bool {
		return room.Status() == models.RoomStatusCompleted
	}, waitFor, tick)
	assert.Len(t, room.Picks(), 1)
}

func TestBestAvailableStrategy(t *testing.T) {
	strat := BestAvailableStrategy{}

	_, err := strat.Select(nil)
	assert.ErrorIs(t, err, ErrNoAvailablePlayers)

	p, err := strat.Select([]models.Player{{ID: 7}, {ID: 2}, {ID: 9}})
	require.NoError(t, err)
	assert.Equal(t, 2, p.ID)
}
