package draftroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftvision/draftvision/internal/draftroom/events"
	"github.com/draftvision/draftvision/internal/models"
)

// tradeOrder builds a two-round order where the user's Bears pick first
// and third and the Lions pick second and fourth.
func tradeOrder() []models.DraftOrderEntry {
	return []models.DraftOrderEntry{
		{ID: 1, Round: 1, Team: "Bears", Year: 2025},
		{ID: 2, Round: 1, Team: "Lions", Year: 2025},
		{ID: 3, Round: 2, Team: "Bears", Year: 2025},
		{ID: 4, Round: 2, Team: "Lions", Year: 2025},
	}
}

func newTradeRoom(t *testing.T) (*Room, *collectorSink) {
	t.Helper()
	cfg := testConfig("Bears")
	cfg.Rounds = 2
	cfg.TimePerPickSec = 300
	room, _, sink := newTestRoom(t, cfg, tradeOrder(), testPool(6))
	require.NoError(t, room.Start())
	require.True(t, room.Snapshot().AwaitingUserPick)
	return room, sink
}

func orderTeams(room *Room) map[int]string {
	out := make(map[int]string)
	for _, e := range room.Snapshot().Order {
		out[e.ID] = e.Team
	}
	return out
}

func TestSubmitTradeRejectsEmptySides(t *testing.T) {
	room, _ := newTradeRoom(t)
	before := orderTeams(room)

	err := room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    nil,
		PartnerPickIDs: []int{4},
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)

	err = room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: nil,
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)

	assert.Equal(t, before, orderTeams(room), "rejected trades must not mutate the order")
}

func TestSubmitTradeRejectsOnClockSlot(t *testing.T) {
	room, _ := newTradeRoom(t)
	before := orderTeams(room)

	err := room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{1}, // the slot currently being decided
		PartnerPickIDs: []int{4},
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)
	assert.Equal(t, before, orderTeams(room))
}

func TestSubmitTradeRejectsForeignPartnerPick(t *testing.T) {
	room, _ := newTradeRoom(t)

	err := room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: []int{3}, // belongs to the Bears, not the partner
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)

	err = room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: []int{42},
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)
}

func TestSubmitTradeRejectsGivingForeignPicks(t *testing.T) {
	cfg := testConfig("Bears")
	cfg.Rounds = 2
	cfg.TimePerPickSec = 300
	order := []models.DraftOrderEntry{
		{ID: 1, Round: 1, Team: "Bears", Year: 2025},
		{ID: 2, Round: 1, Team: "Lions", Year: 2025},
		{ID: 3, Round: 2, Team: "Packers", Year: 2025},
		{ID: 4, Round: 2, Team: "Lions", Year: 2025},
		{ID: 5, Round: 2, Team: "Bears", Year: 2025},
	}
	room, _, _ := newTestRoom(t, cfg, order, testPool(6))
	require.NoError(t, room.Start())
	before := orderTeams(room)

	// The giving side must be the user's own picks; a third team's pick
	// cannot be offered.
	err := room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: []int{4},
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)

	// A mixed giving side is rejected even when it includes a user pick.
	err = room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{5, 3},
		PartnerPickIDs: []int{4},
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)

	// Trading with one's own team is meaningless and rejected.
	err = room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Bears",
		UserPickIDs:    []int{5},
		PartnerPickIDs: []int{5},
	})
	assert.ErrorIs(t, err, ErrInvalidTrade)

	assert.Equal(t, before, orderTeams(room), "rejected trades must not mutate the order")
}

func TestSubmitTradeSwapsOwnership(t *testing.T) {
	room, sink := newTradeRoom(t)

	err := room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: []int{2, 4},
	})
	require.NoError(t, err)

	after := orderTeams(room)
	assert.Equal(t, "Lions", after[3])
	assert.Equal(t, "Bears", after[2])
	assert.Equal(t, "Bears", after[4])
	assert.Equal(t, "Bears", after[1], "untraded entries keep their owner")

	assert.Equal(t, 1, sink.count(events.TypeTradeExecuted))
	// The user pick stays on the clock through the trade.
	assert.True(t, room.Snapshot().AwaitingUserPick)
}

func TestAcceptProposalBounds(t *testing.T) {
	room, _ := newTradeRoom(t)
	assert.Error(t, room.AcceptProposal(-1))
	assert.Error(t, room.AcceptProposal(len(room.Proposals())))
}

func TestAcceptProposalAppliesOffer(t *testing.T) {
	room, sink := newTradeRoom(t)

	proposals := room.Proposals()
	require.NotEmpty(t, proposals, "user on the clock with future picks gets offers")
	for _, p := range proposals {
		assert.Equal(t, "Lions", p.TradePartner)
		assert.NotEmpty(t, p.UserPickIDs)
		assert.NotEmpty(t, p.PartnerPickIDs)
		assert.NotContains(t, p.UserPickIDs, 1, "the on-clock slot is never offered")
	}

	require.NoError(t, room.AcceptProposal(0))
	assert.Equal(t, 1, sink.count(events.TypeTradeExecuted))
}

func TestNegotiatorDeterministicWithSeed(t *testing.T) {
	order := tradeOrder()

	a := NewNegotiatorWithSeed(42).Generate(order, 1, 0, "Bears")
	b := NewNegotiatorWithSeed(42).Generate(order, 1, 0, "Bears")
	assert.Equal(t, a, b)
}

func TestNegotiatorSkipsPartnersWithoutFuturePicks(t *testing.T) {
	// The Packers only own the slot on the clock, so they can never be a
	// counterparty.
	order := []models.DraftOrderEntry{
		{ID: 1, Round: 1, Team: "Packers", Year: 2025},
		{ID: 2, Round: 1, Team: "Bears", Year: 2025},
		{ID: 3, Round: 2, Team: "Bears", Year: 2025},
	}
	n := NewNegotiatorWithSeed(7)

	proposals := n.Generate(order, 1, 0, "Bears")
	for _, p := range proposals {
		assert.NotEqual(t, "Packers", p.TradePartner)
	}

	// A team with no future picks of its own gets no offers at all.
	assert.Empty(t, n.Generate(order, 1, 0, "Packers"))
}

func TestTradeResumesCpuSlotAfterSettle(t *testing.T) {
	// CPU team on the clock; a trade pauses the room, and after the settle
	// delay evaluation resumes against the mutated order.
	cfg := testConfig("Bears")
	cfg.Rounds = 2
	order := []models.DraftOrderEntry{
		{ID: 1, Round: 1, Team: "Lions", Year: 2025},
		{ID: 2, Round: 1, Team: "Bears", Year: 2025},
		{ID: 3, Round: 2, Team: "Bears", Year: 2025},
		{ID: 4, Round: 2, Team: "Lions", Year: 2025},
	}
	room, fc, _ := newTestRoom(t, cfg, order, testPool(6))
	require.NoError(t, room.Start())

	require.NoError(t, room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: []int{4},
	}))
	assert.True(t, room.Snapshot().Paused)

	fc.Advance(roundSettleDelay)
	require.Eventually(t, func() bool {
		return !room.Snapshot().Paused
	}, waitFor, tick)

	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 1
	}, waitFor, tick)
	assert.Equal(t, "Lions", room.Picks()[0].Team)

	after := orderTeams(room)
	assert.Equal(t, "Lions", after[3])
	assert.Equal(t, "Bears", after[4])
}

func TestPauseDuringTradeSettleSticks(t *testing.T) {
	cfg := testConfig("Bears")
	cfg.Rounds = 2
	order := []models.DraftOrderEntry{
		{ID: 1, Round: 1, Team: "Lions", Year: 2025},
		{ID: 2, Round: 1, Team: "Bears", Year: 2025},
		{ID: 3, Round: 2, Team: "Bears", Year: 2025},
		{ID: 4, Round: 2, Team: "Lions", Year: 2025},
	}
	room, fc, sink := newTestRoom(t, cfg, order, testPool(6))
	require.NoError(t, room.Start())

	require.NoError(t, room.SubmitTrade(models.TradeProposal{
		TradePartner:   "Lions",
		UserPickIDs:    []int{3},
		PartnerPickIDs: []int{4},
	}))

	// An explicit pause inside the settle window must not be lifted by
	// the pending settle callback.
	require.NoError(t, room.Pause("user request"))
	assert.Equal(t, 1, sink.count(events.TypeDraftPaused))

	fc.Advance(roundSettleDelay)
	fc.Advance(cpuPickDelay)
	require.Never(t, func() bool {
		return !room.Snapshot().Paused || len(room.Picks()) > 0
	}, 100*time.Millisecond, tick)

	require.NoError(t, room.Resume())
	fc.Advance(cpuPickDelay)
	require.Eventually(t, func() bool {
		return len(room.Picks()) == 1
	}, waitFor, tick)
	assert.Equal(t, "Lions", room.Picks()[0].Team)
}
