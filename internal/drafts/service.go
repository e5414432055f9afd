package drafts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftvision/draftvision/internal/models"
	"github.com/draftvision/draftvision/internal/report"
)

var (
	// ErrUnauthenticated is returned when a save is attempted without an
	// authenticated owner.
	ErrUnauthenticated = errors.New("saving a draft requires an authenticated owner")
	// ErrNotOwner is returned when a mutation targets another user's draft.
	ErrNotOwner = errors.New("saved draft belongs to another user")
)

// SavedDraftRepository defines what the service needs from the data layer.
type SavedDraftRepository interface {
	CreateSavedDraft(ctx context.Context, d *models.SavedDraft) error
	ListSavedDraftsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.SavedDraft, error)
	GetSavedDraft(ctx context.Context, id uuid.UUID) (*models.SavedDraft, error)
	UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error
	UpdateGrade(ctx context.Context, id uuid.UUID, grade string, score float64) error
	DeleteSavedDraft(ctx context.Context, id uuid.UUID) error
}

// Service implements saved draft operations: persistence, listing over
// in-memory records and report grading.
type Service struct {
	repo  SavedDraftRepository
	cache *report.ValueCache
}

// NewService creates a new saved drafts service. The value cache may be
// nil, which forces deterministic fallback scoring.
func NewService(repo SavedDraftRepository, cache *report.ValueCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Save persists a completed draft for the given owner. The in-memory
// draft state is untouched on failure so the caller can retry.
func (s *Service) Save(ctx context.Context, ownerID uuid.UUID, req SaveDraftRequest) (*models.SavedDraft, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if req.Name == "" {
		return nil, fmt.Errorf("draft name is required")
	}

	d := &models.SavedDraft{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          req.Name,
		Rounds:        req.Rounds,
		SelectedTeams: req.SelectedTeams,
		Results:       req.Results,
		IsPublic:      req.IsPublic,
		Grade:         req.Grade,
		Score:         req.Score,
	}
	if err := s.repo.CreateSavedDraft(ctx, d); err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("owner_id", ownerID.String()).
		Int("picks", len(d.Results)).
		Msg("draft saved")
	return d, nil
}

// List fetches an owner's saved drafts and applies filtering and sorting
// in memory.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]models.SavedDraft, error) {
	drafts, err := s.repo.ListSavedDraftsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(drafts, filter), nil
}

// ApplyFilter narrows and orders saved drafts. Pure; operates only over
// the given records.
func ApplyFilter(drafts []models.SavedDraft, filter ListFilter) []models.SavedDraft {
	out := make([]models.SavedDraft, 0, len(drafts))
	for _, d := range drafts {
		if filter.PublicOnly && !d.IsPublic {
			continue
		}
		if filter.NameContains != "" &&
			!strings.Contains(strings.ToLower(d.Name), strings.ToLower(filter.NameContains)) {
			continue
		}
		out = append(out, d)
	}

	less := func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) }
	switch filter.SortBy {
	case "name":
		less = func(i, j int) bool { return out[i].Name < out[j].Name }
	case "score":
		less = func(i, j int) bool {
			si, sj := 0.0, 0.0
			if out[i].Score != nil {
				si = *out[i].Score
			}
			if out[j].Score != nil {
				sj = *out[j].Score
			}
			return si < sj
		}
	}
	if filter.Descending && filter.SortBy != "" {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(out, less)
	return out
}

// SetVisibility toggles the public flag on a draft owned by the caller.
func (s *Service) SetVisibility(ctx context.Context, ownerID, draftID uuid.UUID, isPublic bool) error {
	if err := s.checkOwner(ctx, ownerID, draftID); err != nil {
		return err
	}
	return s.repo.UpdateVisibility(ctx, draftID, isPublic)
}

// Delete removes a draft owned by the caller.
func (s *Service) Delete(ctx context.Context, ownerID, draftID uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, draftID); err != nil {
		return err
	}
	return s.repo.DeleteSavedDraft(ctx, draftID)
}

// Grade computes (or recomputes) the report for a saved draft and stores
// the score and grade back on the record.
func (s *Service) Grade(ctx context.Context, draftID uuid.UUID) (*report.Report, error) {
	d, err := s.repo.GetSavedDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	rep := report.Generate(ctx, d.ID.String(), d.Results, s.cache)
	if err := s.repo.UpdateGrade(ctx, draftID, rep.Grade, rep.Score); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (s *Service) checkOwner(ctx context.Context, ownerID, draftID uuid.UUID) error {
	d, err := s.repo.GetSavedDraft(ctx, draftID)
	if err != nil {
		return err
	}
	if d.OwnerID != ownerID {
		return ErrNotOwner
	}
	return nil
}
