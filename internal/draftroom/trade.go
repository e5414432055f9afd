package draftroom

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/draftroom/events"
	"github.com/draftvision/draftvision/internal/models"
)

const maxTradePartners = 3

// Negotiator generates plausible CPU trade offers against the team on the
// clock. It owns its rand source so proposal generation never touches
// global random state.
type Negotiator struct {
	rng *rand.Rand
}

// NewNegotiator constructs a Negotiator seeded once from the wall clock.
func NewNegotiator() *Negotiator {
	return &Negotiator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewNegotiatorWithSeed constructs a Negotiator with a fixed seed.
func NewNegotiatorWithSeed(seed int64) *Negotiator {
	return &Negotiator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds proposals for the team on the clock against 1-3 randomly
// chosen partner teams. A proposal is only formed when both sides still
// hold future picks; each side contributes 1-2 picks, or more when plenty
// remain. The slot currently being decided is never part of any side.
func (n *Negotiator) Generate(order []models.DraftOrderEntry, round, pickIndex int, onClockTeam string) []models.TradeProposal {
	ownFuture := futurePicks(order, round, pickIndex, onClockTeam)
	if len(ownFuture) == 0 {
		return nil
	}

	partners := otherTeams(order, onClockTeam)
	n.rng.Shuffle(len(partners), func(i, j int) {
		partners[i], partners[j] = partners[j], partners[i]
	})
	count := 1 + n.rng.Intn(maxTradePartners)
	if count > len(partners) {
		count = len(partners)
	}

	var proposals []models.TradeProposal
	for _, partner := range partners[:count] {
		partnerFuture := futurePicks(order, round, pickIndex, partner)
		if len(partnerFuture) == 0 {
			continue
		}
		proposals = append(proposals, models.TradeProposal{
			TradePartner:   partner,
			UserPickIDs:    n.samplePickIDs(ownFuture),
			PartnerPickIDs: n.samplePickIDs(partnerFuture),
		})
	}
	return proposals
}

// samplePickIDs chooses 1-2 entries from the given future picks, scaling
// up to 3 when the side has plenty of picks left.
func (n *Negotiator) samplePickIDs(future []models.DraftOrderEntry) []int {
	max := 2
	if len(future) >= 6 {
		max = 3
	}
	if max > len(future) {
		max = len(future)
	}
	count := 1 + n.rng.Intn(max)

	perm := n.rng.Perm(len(future))
	ids := make([]int, 0, count)
	for _, i := range perm[:count] {
		ids = append(ids, future[i].ID)
	}
	return ids
}

// futurePicks returns a team's remaining slots: the current round strictly
// after the slot on the clock, plus all later rounds.
func futurePicks(order []models.DraftOrderEntry, round, pickIndex int, team string) []models.DraftOrderEntry {
	var future []models.DraftOrderEntry
	posInRound := 0
	for _, e := range order {
		switch {
		case e.Round == round:
			if posInRound > pickIndex && e.Team == team {
				future = append(future, e)
			}
			posInRound++
		case e.Round > round:
			if e.Team == team {
				future = append(future, e)
			}
		}
	}
	return future
}

func otherTeams(order []models.DraftOrderEntry, exclude string) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, e := range order {
		if e.Team == exclude || seen[e.Team] {
			continue
		}
		seen[e.Team] = true
		teams = append(teams, e.Team)
	}
	return teams
}

// refreshProposalsLocked regenerates CPU offers. Called whenever the team
// on the clock, round or pick index changes. Offers only exist against
// user-controlled slots; CPU slots clear them.
func (r *Room) refreshProposalsLocked(entry models.DraftOrderEntry) {
	if !r.cfg.UserControls(entry.Team) {
		r.proposals = nil
		return
	}
	r.proposals = r.neg.Generate(r.order, r.round, r.pickIndex, entry.Team)
}

// Proposals returns the current CPU trade offers.
func (r *Room) Proposals() []models.TradeProposal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TradeProposal(nil), r.proposals...)
}

// AcceptProposal applies the i-th current CPU offer.
func (r *Room) AcceptProposal(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 || i >= len(r.proposals) {
		return fmt.Errorf("no such proposal %d", i)
	}
	return r.applyTradeLocked(r.proposals[i])
}

// SubmitTrade validates and applies a user-submitted trade. Invalid trades
// are rejected synchronously before any order mutation.
func (r *Room) SubmitTrade(p models.TradeProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyTradeLocked(p)
}

// applyTradeLocked swaps ownership on the traded entries, rebuilds the
// current round's orders, cancels any pending CPU pick timer and resumes
// after a settle delay so the next evaluation reads the mutated ownership.
func (r *Room) applyTradeLocked(p models.TradeProposal) error {
	if len(p.UserPickIDs) == 0 || len(p.PartnerPickIDs) == 0 {
		return ErrInvalidTrade
	}

	byID := make(map[int]*models.DraftOrderEntry, len(r.order))
	for i := range r.order {
		byID[r.order[i].ID] = &r.order[i]
	}

	var currentSlotID int
	if r.status == models.RoomStatusInProgress && r.pickIndex < len(r.roundOrders) {
		currentSlotID = r.roundOrders[r.pickIndex].ID
	}

	userEntries := make([]*models.DraftOrderEntry, 0, len(p.UserPickIDs))
	for _, id := range p.UserPickIDs {
		e, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: unknown pick id %d", ErrInvalidTrade, id)
		}
		if currentSlotID != 0 && id == currentSlotID {
			return fmt.Errorf("%w: pick %d is currently on the clock", ErrInvalidTrade, id)
		}
		userEntries = append(userEntries, e)
	}
	partnerEntries := make([]*models.DraftOrderEntry, 0, len(p.PartnerPickIDs))
	for _, id := range p.PartnerPickIDs {
		e, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: unknown pick id %d", ErrInvalidTrade, id)
		}
		if e.Team != p.TradePartner {
			return fmt.Errorf("%w: pick %d does not belong to %s", ErrInvalidTrade, id, p.TradePartner)
		}
		if currentSlotID != 0 && id == currentSlotID {
			return fmt.Errorf("%w: pick %d is currently on the clock", ErrInvalidTrade, id)
		}
		partnerEntries = append(partnerEntries, e)
	}

	userTeam := userEntries[0].Team
	for _, e := range userEntries {
		if e.Team != userTeam {
			return fmt.Errorf("%w: giving side spans multiple teams", ErrInvalidTrade)
		}
	}
	if !r.cfg.UserControls(userTeam) {
		return fmt.Errorf("%w: %s is not a user-controlled team", ErrInvalidTrade, userTeam)
	}
	if userTeam == p.TradePartner {
		return fmt.Errorf("%w: cannot trade with own team", ErrInvalidTrade)
	}

	for _, e := range userEntries {
		e.Team = p.TradePartner
	}
	for _, e := range partnerEntries {
		e.Team = userTeam
	}

	r.rebuildRoundOrdersLocked()
	r.gen++
	gen := r.gen
	r.paused = true

	log.Info().
		Str("room_id", r.ID.String()).
		Str("user_team", userTeam).
		Str("partner", p.TradePartner).
		Ints("user_picks", p.UserPickIDs).
		Ints("partner_picks", p.PartnerPickIDs).
		Msg("trade applied")

	r.emitLocked(events.TypeTradeExecuted, events.TradeExecutedPayload{
		UserTeam:       userTeam,
		TradePartner:   p.TradePartner,
		UserPickIDs:    append([]int(nil), p.UserPickIDs...),
		PartnerPickIDs: append([]int(nil), p.PartnerPickIDs...),
		ExecutedAt:     r.clock.Now(),
	})

	r.scheduleLocked(roundSettleDelay, gen, func() {
		r.paused = r.userPaused
		if !r.paused && !r.awaitingUser {
			r.evaluateLocked()
		}
	})
	return nil
}
