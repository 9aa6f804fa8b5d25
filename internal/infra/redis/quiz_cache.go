package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

const catalogKey = "quiz:catalog"

// QuizLoader fetches quiz documents from the backing store.
type QuizLoader interface {
	LoadQuizzes(ctx context.Context) ([]domain.QuizDocument, error)
}

// CachedSource keeps the full document set in Redis and falls back to the loader on a miss.
// The set is stored as one JSON string under quiz:catalog.
type CachedSource struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCachedSource(client *redis.Client, loader QuizLoader, ttl time.Duration) *CachedSource {
	return &CachedSource{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedSource) LoadQuizzes(ctx context.Context) ([]domain.QuizDocument, error) {
	if docs, ok := c.cached(ctx); ok {
		return docs, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if docs, ok := c.cached(ctx); ok {
			return docs, nil
		}

		docs, err := c.loader.LoadQuizzes(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(docs)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, catalogKey, raw, c.ttlWithJitter()).Err(); err != nil {
			logger.Warn("Failed to cache quiz catalog", "error", err)
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizDocument), nil
}

// Invalidate drops the cached set so the next load reads the backing store.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogKey).Err()
}

func (c *CachedSource) cached(ctx context.Context) ([]domain.QuizDocument, bool) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Quiz cache unavailable, reading backing store", "error", err)
		}
		return nil, false
	}
	var docs []domain.QuizDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		logger.Warn("Discarding corrupt quiz cache entry", "error", err)
		return nil, false
	}
	return docs, true
}

func (c *CachedSource) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
