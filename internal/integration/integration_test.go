package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
	"quizmaker-service/internal/events"
	pgloader "quizmaker-service/internal/infra/postgres"
	infraredis "quizmaker-service/internal/infra/redis"
	"quizmaker-service/internal/infra/sqldb"
)

func TestGradeAndRankEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgHost := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})
	redisHost := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s/quizdb?sslmode=disable", pgHost)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqldb.Open(sqldb.DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := sqldb.Migrate(ctx, db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqldb.NewStore(db)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: redisHost})
	defer redisClient.Close()

	rankings := infraredis.NewRankingCache(redisClient, pgloader.NewRankingLoader(pool), time.Minute, logger)
	questions := app.NewQuestionStore(store, logger)
	composer := app.NewTestComposer(store, store, logger)
	board := app.NewLeaderboard(store, rankings, events.NopPublisher{}, logger)
	sessions := app.NewSessionService(composer, questions, infraredis.NewSessionStore(redisClient, time.Minute, logger), board, logger)

	a, err := questions.Create(ctx, domain.QuestionInput{
		Text: "A", Type: domain.SingleChoice, Choices: []string{"x|y", "z"}, CorrectKey: []string{"x|y"}, Points: 2,
	})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	test, err := composer.CreateTest(ctx, domain.TestInput{Name: "T", QuestionIDs: []int64{a.ID}})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}

	// Concurrent appends must each get a distinct position.
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := questions.Create(ctx, domain.QuestionInput{
				Text: fmt.Sprintf("free %d", i), Type: domain.FreeText, CorrectKey: []string{"ok"}, Points: 1,
			})
			if err != nil {
				errs <- err
				return
			}
			errs <- composer.AddQuestions(ctx, test.ID, []int64{q.ID})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append: %v", err)
		}
	}
	members, err := store.Memberships(ctx, test.ID)
	if err != nil {
		t.Fatalf("memberships: %v", err)
	}
	if len(members) != 9 || members[len(members)-1].Position != 9 {
		t.Fatalf("expected positions 1..9, got %+v", members)
	}

	for _, run := range []struct {
		respondent string
		answer     string
	}{{"Bob", "z"}, {"Ann", "x|y"}, {"Ann", "x|y"}} {
		session, err := sessions.Begin(ctx, test.ID)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := sessions.Submit(ctx, session.ID(), map[int64]domain.Answer{a.ID: {run.answer}}); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if err := sessions.Save(ctx, session.ID(), run.respondent); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, err := board.Rankings(ctx); err != nil {
			t.Fatalf("rankings: %v", err)
		}
	}

	entries, err := board.Rankings(ctx)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	want := []domain.RankingEntry{{Respondent: "Ann", TotalScore: 4}, {Respondent: "Bob", TotalScore: 0}}
	if len(entries) != 2 || entries[0] != want[0] || entries[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want, entries)
	}

	if err := questions.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	content, err := composer.QuestionsOf(ctx, test.ID)
	if err != nil {
		t.Fatalf("questions of: %v", err)
	}
	if len(content.Questions) != 8 || content.Skipped != 0 {
		t.Fatalf("expected cascade to leave 8 questions, got %d (skipped %d)", len(content.Questions), content.Skipped)
	}
}

// startContainer runs req and returns host:port of its exposed port.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	// empty proto yields host:port of the first exposed port
	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("%s endpoint: %v", req.Image, err)
	}
	return endpoint
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
