// Package profiles caches profile lookups for the life of a chat view.
// Entries are permanent once populated: staleness is accepted policy
// for a short-lived view, with Invalidate as the explicit escape hatch.
package profiles

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/models"
)

// Fetcher is the remote lookup the cache falls back to on a miss.
// *api.ProfileClient satisfies it.
type Fetcher interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type entry struct {
	ready   chan struct{}
	profile *models.Profile
	err     error
}

// Cache is a read-through profile cache. Concurrent misses for the
// same key are coalesced into a single remote fetch; all waiters share
// the pending result. Failed fetches are not cached, so a later call
// retries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	fetcher Fetcher
	logger  zerolog.Logger
}

func NewCache(fetcher Fetcher, logger zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		fetcher: fetcher,
		logger:  logger.With().Str("component", "profile_cache").Logger(),
	}
}

// Resolve returns the profile for userID, fetching it at most once per
// populated lifetime. On a hit it returns the stored snapshot without
// re-fetching, even if the remote copy has since changed.
func (c *Cache) Resolve(ctx context.Context, userID string) (*models.Profile, error) {
	c.mu.Lock()
	if e, ok := c.entries[userID]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.profile, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e := &entry{ready: make(chan struct{})}
	c.entries[userID] = e
	c.mu.Unlock()

	profile, err := c.fetcher.GetProfile(ctx, userID)
	e.profile, e.err = profile, err
	close(e.ready)

	if err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("profile fetch failed")
		c.mu.Lock()
		// Drop the failed entry so the next Resolve retries.
		if c.entries[userID] == e {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
	}
	return profile, err
}

// Invalidate drops the entry for userID. An in-flight fetch still
// completes for its current waiters; the next Resolve fetches fresh.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Peek returns the cached profile without fetching, or false when the
// key is absent or still in flight.
func (c *Cache) Peek(userID string) (*models.Profile, bool) {
	c.mu.Lock()
	e, ok := c.entries[userID]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-e.ready:
		return e.profile, e.err == nil
	default:
		return nil, false
	}
}

// Len reports the number of populated or in-flight entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
