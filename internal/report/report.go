package report

import (
	"context"

	"github.com/draftvision/draftvision/internal/models"
)

// Report is the full graded result for a completed or saved draft.
type Report struct {
	Score     float64   `json:"score"`
	Grade     string    `json:"grade"`
	Narrative Narrative `json:"narrative"`
}

// Generate computes the score, grade and narrative for a draft's recorded
// picks. Pass a nil cache to force the deterministic fallback path.
func Generate(ctx context.Context, draftID string, picks []models.Pick, cache *ValueCache) Report {
	score := GenerateScore(ctx, draftID, picks, cache)
	return Report{
		Score:     score,
		Grade:     ScoreToGrade(score),
		Narrative: GenerateNarrative(draftID),
	}
}
