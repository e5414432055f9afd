package report

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// ValueFetcher loads historical approximate values keyed by player name.
type ValueFetcher interface {
	PlayerValues(ctx context.Context, names []string) (map[string]float64, error)
}

// ValueCache holds approximate values fetched lazily in the background.
// Scoring reads whatever is present and never blocks on a fetch.
type ValueCache struct {
	fetcher ValueFetcher

	mu       sync.RWMutex
	values   map[string]float64
	fetching bool
}

// NewValueCache builds an empty cache over the given fetcher.
func NewValueCache(fetcher ValueFetcher) *ValueCache {
	return &ValueCache{
		fetcher: fetcher,
		values:  make(map[string]float64),
	}
}

// Values returns the cached values for the given names; missing names are
// simply absent from the result.
func (c *ValueCache) Values(names []string) map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(names))
	for _, n := range names {
		if v, ok := c.values[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Put stores values directly. Used by tests and by callers that already
// hold fetched data.
func (c *ValueCache) Put(values map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
	}
}

// FetchInBackground kicks off a single in-flight fetch for the given
// names. Concurrent calls while a fetch is running are dropped.
func (c *ValueCache) FetchInBackground(ctx context.Context, names []string) {
	if c.fetcher == nil || len(names) == 0 {
		return
	}

	c.mu.Lock()
	if c.fetching {
		c.mu.Unlock()
		return
	}
	c.fetching = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.fetching = false
			c.mu.Unlock()
		}()

		values, err := c.fetcher.PlayerValues(ctx, names)
		if err != nil {
			log.Error().Err(err).Int("players", len(names)).Msg("background value fetch failed")
			return
		}
		c.Put(values)
		log.Debug().Int("values", len(values)).Msg("value cache populated")
	}()
}
