package players

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftvision/draftvision/internal/models"
)

// fakePlayerRepo is an in-memory PlayerRepository for service tests.
type fakePlayerRepo struct {
	players   map[int]models.Player
	stats     []models.PlayerSeasonStat
	bioWrites map[int]string
	listErr   error
}

func newFakePlayerRepo(players ...models.Player) *fakePlayerRepo {
	f := &fakePlayerRepo{
		players:   make(map[int]models.Player),
		bioWrites: make(map[int]string),
	}
	for _, p := range players {
		f.players[p.ID] = p
	}
	return f
}

func (f *fakePlayerRepo) ListPlayersByYear(_ context.Context, year int) ([]models.Player, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Player
	for _, p := range f.players {
		if p.Year == year {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) GetPlayer(_ context.Context, id int) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

func (f *fakePlayerRepo) UpdatePlayerBio(_ context.Context, id int, bio string) error {
	f.bioWrites[id] = bio
	return nil
}

func (f *fakePlayerRepo) ListPlayerStats(_ context.Context, name, position string) ([]models.PlayerSeasonStat, error) {
	return f.stats, nil
}

func testPlayer(id int, name string) models.Player {
	return models.Player{
		ID:         id,
		Name:       name,
		Position:   "QB",
		School:     "State",
		DraftRound: (id + 1) / 2,
		Year:       2025,
	}
}

func TestLoadPoolFiltersByRound(t *testing.T) {
	repo := newFakePlayerRepo(
		testPlayer(1, "Player A"), // round 1
		testPlayer(2, "Player B"), // round 1
		testPlayer(3, "Player C"), // round 2
		testPlayer(5, "Player D"), // round 3
	)
	svc := NewService(repo)

	pool, err := svc.LoadPool(context.Background(), 2025, 2)
	require.NoError(t, err)
	assert.Len(t, pool, 3, "round 3 projections are excluded from a 2-round pool")

	// The full list stays in memory regardless of the pool cut.
	assert.Len(t, svc.Players(), 4)
}

func TestBioComposedAndCached(t *testing.T) {
	repo := newFakePlayerRepo(testPlayer(1, "Player A"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.LoadPool(ctx, 2025, 7)
	require.NoError(t, err)

	bio, err := svc.Bio(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, bio, "Player A")
	assert.Equal(t, bio, repo.bioWrites[1], "generated bio is persisted")

	again, err := svc.Bio(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, bio, again)

	_, err = svc.Bio(ctx, 404)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestApplyProfileUpdatePatchesInPlace(t *testing.T) {
	repo := newFakePlayerRepo(testPlayer(1, "Player A"))
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.LoadPool(ctx, 2025, 7)
	require.NoError(t, err)

	bio, err := svc.Bio(ctx, 1)
	require.NoError(t, err)

	update := testPlayer(1, "Player A")
	update.School = "Tech"
	svc.ApplyProfileUpdate(update)

	players := svc.Players()
	require.Len(t, players, 1)
	assert.Equal(t, "Tech", players[0].School)
	require.NotNil(t, players[0].Bio, "a cached bio survives an update without one")
	assert.Equal(t, bio, *players[0].Bio)

	// Unknown players from the feed are appended.
	svc.ApplyProfileUpdate(testPlayer(9, "Player Z"))
	assert.Len(t, svc.Players(), 2)
}
