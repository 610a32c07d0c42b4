package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

const rankingsKey = "rankings"

// RankingCache caches the leaderboard with TTL to avoid re-aggregating
// attempts on every read. Record invalidates it.
type RankingCache struct {
	source app.RankingSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	entries   []domain.RankingEntry
	expiresAt time.Time
	version   uint64
}

func NewRankingCache(source app.RankingSource, ttl time.Duration) *RankingCache {
	return &RankingCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RankingCache) Rankings(ctx context.Context) ([]domain.RankingEntry, error) {
	if entries, ok := c.cached(); ok {
		return entries, nil
	}

	result, err, _ := c.sf.Do(rankingsKey, func() (interface{}, error) {
		if entries, ok := c.cached(); ok {
			return entries, nil
		}

		c.mu.RLock()
		version := c.version
		c.mu.RUnlock()

		entries, err := c.source.Rankings(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// an invalidation during the load means entries may be stale
		if c.version == version {
			c.entries = entries
			c.expiresAt = c.clock().Add(c.ttlWithJitter())
		}
		c.mu.Unlock()
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return copyEntries(result.([]domain.RankingEntry)), nil
}

// Invalidate drops the cached leaderboard.
func (c *RankingCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.expiresAt = time.Time{}
	c.version++
	return nil
}

func (c *RankingCache) cached() ([]domain.RankingEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries != nil && c.expiresAt.After(c.clock()) {
		return copyEntries(c.entries), true
	}
	return nil, false
}

func (c *RankingCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyEntries(entries []domain.RankingEntry) []domain.RankingEntry {
	return append([]domain.RankingEntry{}, entries...)
}
