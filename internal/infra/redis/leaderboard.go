package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// Leaderboard mirrors channel standings into a sorted set so other services can read them.
//
//	ZADD leaderboard:{channel}          {score} {playerID}
//	HSET leaderboard:{channel}:players  {playerID} {"name":..,"rank":..}
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

type playerEntry struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

// Publish replaces the stored standings for channelID.
func (l *Leaderboard) Publish(ctx context.Context, channelID string, standings []domain.Standing) error {
	scoresKey, playersKey := l.keys(channelID)

	members := make([]redis.Z, 0, len(standings))
	players := make(map[string]interface{}, len(standings))
	for _, s := range standings {
		members = append(members, redis.Z{Score: float64(s.Score), Member: s.Player.ID})
		raw, err := json.Marshal(playerEntry{Name: s.Player.Name, Rank: s.Rank})
		if err != nil {
			return err
		}
		players[s.Player.ID] = raw
	}

	pipe := l.client.TxPipeline()
	pipe.Del(ctx, scoresKey, playersKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, scoresKey, members...)
		pipe.HSet(ctx, playersKey, players)
		if l.ttl > 0 {
			pipe.Expire(ctx, scoresKey, l.ttl)
			pipe.Expire(ctx, playersKey, l.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish leaderboard: %w", err)
	}
	return nil
}

// Standings returns up to limit rows for channelID; limit <= 0 means all. Tied scores keep the
// order they were published in.
func (l *Leaderboard) Standings(ctx context.Context, channelID string, limit int) ([]domain.Standing, error) {
	scoresKey, playersKey := l.keys(channelID)

	scores, err := l.client.ZRevRangeWithScores(ctx, scoresKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	players, err := l.client.HGetAll(ctx, playersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard players: %w", err)
	}

	standings := make([]domain.Standing, 0, len(scores))
	for _, z := range scores {
		id, _ := z.Member.(string)
		var entry playerEntry
		if raw, ok := players[id]; ok {
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				logger.Warn("Skipping corrupt leaderboard entry", "channel", channelID, "player", id, "error", err)
				continue
			}
		}
		standings = append(standings, domain.Standing{
			Rank:   entry.Rank,
			Player: domain.Player{ID: id, Name: entry.Name},
			Score:  int(z.Score),
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].Rank < standings[j].Rank
	})

	if limit > 0 && limit < len(standings) {
		standings = standings[:limit]
	}
	return standings, nil
}

func (l *Leaderboard) keys(channelID string) (string, string) {
	base := "leaderboard:" + channelID
	return base, base + ":players"
}
