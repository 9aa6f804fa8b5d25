package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"quiz-bot/internal/app"
	"quiz-bot/internal/config"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/infra/filestore"
	"quiz-bot/internal/infra/memory"
	mongostore "quiz-bot/internal/infra/mongo"
	pgstore "quiz-bot/internal/infra/postgres"
	rediscache "quiz-bot/internal/infra/redis"
	"quiz-bot/internal/logger"
)

// quizWriter persists quiz documents for the import command.
type quizWriter interface {
	app.QuizSource
	Upsert(ctx context.Context, doc domain.QuizDocument) error
}

// loadConfig reads the config file and initializes logging from it. LOG_LEVEL and APP_ENV override
// the log section.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Log.Env = v
	}
	logger.Init(cfg.Log.Level, cfg.Log.Env)
	return cfg, nil
}

// openStore opens the configured database quiz store. The returned close func is never nil.
func openStore(ctx context.Context, cfg config.Config) (quizWriter, func(), error) {
	switch cfg.Quizzes.Source {
	case config.SourcePostgres:
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("postgres url not configured")
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgstore.NewQuizStore(pool), pool.Close, nil
	case config.SourceMongo:
		if cfg.Mongo.URI == "" {
			return nil, nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("Failed to disconnect mongo", "error", err)
			}
		}
		return mongostore.NewQuizStore(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("quiz source %q is not a database", cfg.Quizzes.Source)
	}
}

// openSource returns the configured quiz source, wrapped in the Redis cache when client is set.
func openSource(ctx context.Context, cfg config.Config, client *redis.Client) (app.QuizSource, func(), error) {
	var (
		source  app.QuizSource
		closeFn = func() {}
	)
	if cfg.Quizzes.Source == config.SourceDir {
		source = filestore.NewDirectoryStore(cfg.Quizzes.Dir, filestore.WithSeed(memory.ExampleQuiz()))
	} else {
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		source, closeFn = store, closeStore
	}

	if client != nil {
		ttl := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		source = rediscache.NewCachedSource(client, source, ttl)
	}
	return source, closeFn, nil
}

// openRedis returns nil when no address is configured.
func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
