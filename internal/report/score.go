package report

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/draftvision/draftvision/internal/models"
)

const (
	// Blend weights between the value-derived score and the
	// identifier-seeded perturbation. Product-defined; do not tune.
	valueWeight = 0.85
	seedWeight  = 0.15

	// avValueScale converts an average approximate value into score space
	// before clamping to [50,100].
	avValueScale = 6.0
)

// seededRNG derives a PRNG purely from the draft identifier so repeated
// grading of the same draft is stable. No global random state is touched.
func seededRNG(draftID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(draftID))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// SeededScore is the fully deterministic fallback score derived only from
// the draft identifier, in [55,95).
func SeededScore(draftID string) float64 {
	return 55 + seededRNG(draftID).Float64()*40
}

// valueScore derives a score from cached approximate values for the
// drafted players: the scaled average, clamped to [50,100]. ok is false
// when none of the picks have cached values.
func valueScore(picks []models.Pick, values map[string]float64) (float64, bool) {
	var sum float64
	var n int
	for _, p := range picks {
		if v, hit := values[p.PlayerName]; hit {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	score := (sum / float64(n)) * avValueScale
	if score < 50 {
		score = 50
	}
	if score > 100 {
		score = 100
	}
	return score, true
}

// GenerateScore produces the 0-100 draft score. With cached value data it
// blends the value-derived score with a small identifier-seeded
// perturbation; without it, it falls back to the pure seeded score and
// opportunistically kicks off a background fetch so the cache is warm
// next time.
func GenerateScore(ctx context.Context, draftID string, picks []models.Pick, cache *ValueCache) float64 {
	seeded := SeededScore(draftID)
	if cache == nil {
		return seeded
	}

	names := make([]string, 0, len(picks))
	for _, p := range picks {
		names = append(names, p.PlayerName)
	}

	values := cache.Values(names)
	if vs, ok := valueScore(picks, values); ok {
		return valueWeight*vs + seedWeight*seeded
	}

	cache.FetchInBackground(ctx, names)
	return seeded
}
