package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/config"
	"quizmaker-service/internal/events"
	"quizmaker-service/internal/infra/memory"
	pgloader "quizmaker-service/internal/infra/postgres"
	rediscache "quizmaker-service/internal/infra/redis"
	"quizmaker-service/internal/infra/sqldb"
	"quizmaker-service/internal/logging"
	transport "quizmaker-service/internal/transport/http"
)

// repository is everything the services need from a storage backend.
type repository interface {
	app.QuestionRepository
	app.TestRepository
	app.ScoreRepository
	app.RankingSource
}

// runtime holds the wired services and what must be closed on exit.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	services transport.Services
	events   *events.Publisher

	// subscriber is set for the in-process gochannel publisher only
	subscriber message.Subscriber
	closers    []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

func loadConfig(path string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// buildRuntime wires storage, caches, events and services from cfg.
func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger}
	fail := func(err error) (*runtime, error) {
		_ = rt.Close()
		return nil, err
	}

	store, err := openRepository(ctx, rt)
	if err != nil {
		return fail(err)
	}

	var rankings app.RankingSource = store
	if cfg.Storage.Driver == sqldb.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Storage.URL)
		if err != nil {
			return fail(fmt.Errorf("connect pgx pool: %w", err))
		}
		rt.closers = append(rt.closers, func() error { pool.Close(); return nil })
		rankings = pgloader.NewRankingLoader(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, redisClient.Close)
	}

	leaderboardTTL := config.TTLDuration(cfg.Leaderboard.TTL, time.Minute)
	if redisClient != nil {
		rankings = rediscache.NewRankingCache(redisClient, rankings, leaderboardTTL, logger)
	} else {
		rankings = memory.NewRankingCache(rankings, leaderboardTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 30*time.Minute)
	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = rediscache.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL), logger)
	} else {
		sessions = memory.NewSessionStore(sessionTTL)
	}

	var publisher app.AttemptPublisher = events.NopPublisher{}
	switch cfg.Events.Publisher {
	case "", "none":
	case "gochannel":
		pubsub := events.NewGoChannel(logger)
		rt.subscriber = pubsub
		rt.events = events.NewPublisher(pubsub, cfg.Events.Topic, logger)
		rt.closers = append(rt.closers, rt.events.Close)
		publisher = rt.events
	case "kafka":
		p, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
			Logger:  logger,
		})
		if err != nil {
			return fail(err)
		}
		rt.events = p
		rt.closers = append(rt.closers, p.Close)
		publisher = p
	default:
		return fail(fmt.Errorf("unknown events publisher %q", cfg.Events.Publisher))
	}

	questions := app.NewQuestionStore(store, logger)
	composer := app.NewTestComposer(store, store, logger)
	board := app.NewLeaderboard(store, rankings, publisher, logger)
	rt.services = transport.Services{
		Questions:   questions,
		Composer:    composer,
		Sessions:    app.NewSessionService(composer, questions, sessions, board, logger),
		Leaderboard: board,
	}

	if cfg.Storage.Driver == "memory" {
		if err := seedDemo(ctx, questions, composer); err != nil {
			return fail(fmt.Errorf("seed demo data: %w", err))
		}
	}
	return rt, nil
}

func openRepository(ctx context.Context, rt *runtime) (repository, error) {
	switch rt.cfg.Storage.Driver {
	case "memory":
		return memory.NewStore(), nil
	case sqldb.DriverSQLite, sqldb.DriverPostgres:
		if rt.cfg.Storage.URL == "" {
			return nil, fmt.Errorf("storage url not configured for driver %s", rt.cfg.Storage.Driver)
		}
		db, err := sqldb.Open(rt.cfg.Storage.Driver, rt.cfg.Storage.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		if err := sqldb.Migrate(ctx, db, rt.logger); err != nil {
			return nil, err
		}
		return sqldb.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", rt.cfg.Storage.Driver)
	}
}
