package redis

import (
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute, nil)
	session := app.NewSession("s-1", 7, []domain.Question{{ID: 1, Type: domain.FreeText, CorrectKey: []string{"x"}, Points: 1}})
	store.Put(session)

	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s-1"); got != "7" {
		t.Fatalf("expected test id as value, got %q", got)
	}
	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected stored session back")
	}

	store.Delete("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session to be gone")
	}
}

func TestSessionStoreExpiresWithKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute, nil)
	store.Put(app.NewSession("s-2", 1, nil))

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("s-2"); ok {
		t.Fatalf("expected session to expire with its liveness key")
	}
}

func TestSessionStorePutDropsExpiredSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute, nil)
	for i := 0; i < 100; i++ {
		store.Put(app.NewSession("old-"+strconv.Itoa(i), 1, nil))
	}
	mr.FastForward(2 * time.Minute)

	fresh := app.NewSession("fresh", 1, nil)
	store.Put(fresh)

	store.mu.RLock()
	retained := len(store.sessions)
	store.mu.RUnlock()
	if retained != 1 {
		t.Fatalf("expected only the fresh session to be held, got %d", retained)
	}
	if got, ok := store.Get("fresh"); !ok || got != fresh {
		t.Fatalf("expected fresh session back")
	}
}

func TestSessionStorePruneFallsBackToCreationTime(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := NewSessionStore(client, time.Minute, nil)
	stale := app.NewSessionWithClock("stale", 1, nil, func() time.Time { return time.Now().Add(-time.Hour) })
	store.Put(stale)
	mr.Close()

	store.Put(app.NewSession("live", 1, nil))

	store.mu.RLock()
	_, staleHeld := store.sessions["stale"]
	_, liveHeld := store.sessions["live"]
	store.mu.RUnlock()
	if staleHeld || !liveHeld {
		t.Fatalf("expected stale dropped and live kept, stale=%v live=%v", staleHeld, liveHeld)
	}
}
