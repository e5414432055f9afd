package drafts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftvision/draftvision/internal/models"
	"github.com/draftvision/draftvision/internal/report"
)

// fakeDraftRepo is an in-memory SavedDraftRepository for service tests.
type fakeDraftRepo struct {
	drafts map[uuid.UUID]*models.SavedDraft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[uuid.UUID]*models.SavedDraft)}
}

func (f *fakeDraftRepo) CreateSavedDraft(_ context.Context, d *models.SavedDraft) error {
	d.CreatedAt = time.Now()
	f.drafts[d.ID] = d
	return nil
}

func (f *fakeDraftRepo) ListSavedDraftsByOwner(_ context.Context, ownerID uuid.UUID) ([]models.SavedDraft, error) {
	var out []models.SavedDraft
	for _, d := range f.drafts {
		if d.OwnerID == ownerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDraftRepo) GetSavedDraft(_ context.Context, id uuid.UUID) (*models.SavedDraft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (f *fakeDraftRepo) UpdateVisibility(_ context.Context, id uuid.UUID, isPublic bool) error {
	if d, ok := f.drafts[id]; ok {
		d.IsPublic = isPublic
	}
	return nil
}

func (f *fakeDraftRepo) UpdateGrade(_ context.Context, id uuid.UUID, grade string, score float64) error {
	if d, ok := f.drafts[id]; ok {
		d.Grade = &grade
		d.Score = &score
	}
	return nil
}

func (f *fakeDraftRepo) DeleteSavedDraft(_ context.Context, id uuid.UUID) error {
	delete(f.drafts, id)
	return nil
}

func TestSaveRequiresOwnerAndName(t *testing.T) {
	svc := NewService(newFakeDraftRepo(), nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, uuid.Nil, SaveDraftRequest{Name: "My Draft"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Save(ctx, uuid.New(), SaveDraftRequest{})
	assert.Error(t, err)
}

func TestSaveAndList(t *testing.T) {
	repo := newFakeDraftRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	owner := uuid.New()

	saved, err := svc.Save(ctx, owner, SaveDraftRequest{
		Name:          "2025 Mock",
		Rounds:        3,
		SelectedTeams: []string{"Bears"},
		Results:       []models.Pick{{Round: 1, PickNumber: 1, Team: "Bears", PlayerID: 1}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, owner, saved.OwnerID)

	list, err := svc.List(ctx, owner, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025 Mock", list[0].Name)

	other, err := svc.List(ctx, uuid.New(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestOwnershipChecks(t *testing.T) {
	repo := newFakeDraftRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	saved, err := svc.Save(ctx, owner, SaveDraftRequest{Name: "Mine"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetVisibility(ctx, stranger, saved.ID, true), ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, stranger, saved.ID), ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, owner, uuid.New()), ErrDraftNotFound)

	require.NoError(t, svc.SetVisibility(ctx, owner, saved.ID, true))
	got, err := repo.GetSavedDraft(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)

	require.NoError(t, svc.Delete(ctx, owner, saved.ID))
	_, err = repo.GetSavedDraft(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestGradeStoresScoreAndGrade(t *testing.T) {
	repo := newFakeDraftRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	owner := uuid.New()

	saved, err := svc.Save(ctx, owner, SaveDraftRequest{
		Name:    "Graded",
		Results: []models.Pick{{PlayerName: "Player A"}},
	})
	require.NoError(t, err)

	rep, err := svc.Grade(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ScoreToGrade(rep.Score), rep.Grade)

	got, err := repo.GetSavedDraft(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Grade)
	require.NotNil(t, got.Score)
	assert.Equal(t, rep.Grade, *got.Grade)
	assert.Equal(t, rep.Score, *got.Score)

	// Grading is deterministic per draft id.
	again, err := svc.Grade(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Score, again.Score)
}

func TestApplyFilter(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	now := time.Now()
	records := []models.SavedDraft{
		{Name: "Alpha Mock", IsPublic: true, Score: score(90), CreatedAt: now.Add(-time.Hour)},
		{Name: "beta mock", IsPublic: false, Score: score(70), CreatedAt: now},
		{Name: "Gamma", IsPublic: true, Score: nil, CreatedAt: now.Add(-2 * time.Hour)},
	}

	t.Run("default sorts newest first", func(t *testing.T) {
		out := ApplyFilter(records, ListFilter{})
		require.Len(t, out, 3)
		assert.Equal(t, "beta mock", out[0].Name)
		assert.Equal(t, "Gamma", out[2].Name)
	})

	t.Run("name filter is case insensitive", func(t *testing.T) {
		out := ApplyFilter(records, ListFilter{NameContains: "MOCK"})
		require.Len(t, out, 2)
	})

	t.Run("public only", func(t *testing.T) {
		out := ApplyFilter(records, ListFilter{PublicOnly: true})
		require.Len(t, out, 2)
		for _, d := range out {
			assert.True(t, d.IsPublic)
		}
	})

	t.Run("sort by name", func(t *testing.T) {
		out := ApplyFilter(records, ListFilter{SortBy: "name"})
		assert.Equal(t, "Alpha Mock", out[0].Name)
		assert.Equal(t, "beta mock", out[2].Name)
	})

	t.Run("sort by score descending treats missing as zero", func(t *testing.T) {
		out := ApplyFilter(records, ListFilter{SortBy: "score", Descending: true})
		assert.Equal(t, "Alpha Mock", out[0].Name)
		assert.Equal(t, "Gamma", out[2].Name)
	})
}
