package memory

import (
	"context"
	"testing"
	"time"

	"quizmaker-service/internal/domain"
)

func TestRankingCacheCaches(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	source := &countingSource{store: store}
	cache := NewRankingCache(source, time.Minute)

	_ = store.AppendScore(ctx, domain.Attempt{Respondent: "Ann", Score: 5})
	if _, err := cache.Rankings(ctx); err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source once, got %d", source.calls)
	}

	_ = store.AppendScore(ctx, domain.Attempt{Respondent: "Bob", Score: 3})
	entries, _ := cache.Rankings(ctx)
	if source.calls != 1 || len(entries) != 1 {
		t.Fatalf("expected cache hit with stale entries, calls=%d entries=%+v", source.calls, entries)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	entries, _ = cache.Rankings(ctx)
	if source.calls != 2 || len(entries) != 2 {
		t.Fatalf("expected reload after invalidate, calls=%d entries=%+v", source.calls, entries)
	}
}

type countingSource struct {
	store *Store
	calls int
}

func (s *countingSource) Rankings(ctx context.Context) ([]domain.RankingEntry, error) {
	s.calls++
	return s.store.Rankings(ctx)
}
