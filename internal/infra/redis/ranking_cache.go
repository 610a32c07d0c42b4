package redis

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

const (
	totalsKey  = "leaderboard:totals"
	versionKey = "leaderboard:version"
	// loadedField marks a filled hash so an empty leaderboard is still a hit.
	// Respondent labels are never empty.
	loadedField = ""
)

// RankingCache keeps per-respondent totals in a Redis hash and falls back to
// the source on a miss:
//
//	HSET leaderboard:totals {respondent} {total}
//
// Invalidate bumps leaderboard:version so a fill racing with it is dropped.
type RankingCache struct {
	client *redis.Client
	source app.RankingSource
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewRankingCache(client *redis.Client, source app.RankingSource, ttl time.Duration, logger *slog.Logger) *RankingCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankingCache{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RankingCache) Rankings(ctx context.Context) ([]domain.RankingEntry, error) {
	if entries, ok := c.cached(ctx); ok {
		return entries, nil
	}

	result, err, _ := c.sf.Do(totalsKey, func() (interface{}, error) {
		if entries, ok := c.cached(ctx); ok {
			return entries, nil
		}

		version, err := c.client.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn("read leaderboard version", "error", err)
		}

		entries, err := c.source.Rankings(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.fill(ctx, version, entries); err != nil {
			c.logger.Warn("fill leaderboard cache", "error", err)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.RankingEntry{}, result.([]domain.RankingEntry)...), nil
}

// Invalidate drops the cached totals.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, totalsKey)
		return nil
	})
	return err
}

func (c *RankingCache) cached(ctx context.Context) ([]domain.RankingEntry, bool) {
	totals, err := c.client.HGetAll(ctx, totalsKey).Result()
	if err != nil {
		c.logger.Warn("read leaderboard cache", "error", err)
		return nil, false
	}
	if _, ok := totals[loadedField]; !ok {
		return nil, false
	}
	entries := make([]domain.RankingEntry, 0, len(totals)-1)
	for respondent, raw := range totals {
		if respondent == loadedField {
			continue
		}
		total, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		entries = append(entries, domain.RankingEntry{Respondent: respondent, TotalScore: total})
	}
	domain.SortRankings(entries)
	return entries, true
}

// fill writes entries only if the version read before loading is unchanged.
func (c *RankingCache) fill(ctx context.Context, version string, entries []domain.RankingEntry) error {
	ttl := c.ttlWithJitter()
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			values := make([]interface{}, 0, 2+2*len(entries))
			values = append(values, loadedField, 1)
			for _, e := range entries {
				values = append(values, e.Respondent, e.TotalScore)
			}
			pipe.HSet(ctx, totalsKey, values...)
			if ttl > 0 {
				pipe.Expire(ctx, totalsKey, ttl)
			}
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RankingCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
