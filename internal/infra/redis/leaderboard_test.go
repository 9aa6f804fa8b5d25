package redis

import (
	"context"
	"testing"
	"time"

	"quiz-bot/internal/domain"
)

func TestLeaderboardPublishAndRead(t *testing.T) {
	mr, client := newTestRedis(t)
	lb := NewLeaderboard(client, time.Hour)
	ctx := context.Background()

	standings := []domain.Standing{
		{Rank: 1, Player: domain.Player{ID: "u3", Name: "Carol"}, Score: 2},
		{Rank: 2, Player: domain.Player{ID: "u2", Name: "Bob"}, Score: 0},
		{Rank: 3, Player: domain.Player{ID: "u1", Name: "Alice"}, Score: 0},
		{Rank: 4, Player: domain.Player{ID: "u4", Name: "Dan"}, Score: -1},
	}
	if err := lb.Publish(ctx, "c1", standings); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ttl := mr.TTL("leaderboard:c1"); ttl != time.Hour {
		t.Fatalf("expected ttl on sorted set, got %v", ttl)
	}

	got, err := lb.Standings(ctx, "c1", 0)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
	for i, want := range standings {
		if got[i] != want {
			t.Fatalf("row %d = %+v, want %+v", i, got[i], want)
		}
	}

	top, _ := lb.Standings(ctx, "c1", 2)
	if len(top) != 2 || top[0].Player.Name != "Carol" || top[1].Player.ID != "u2" {
		t.Fatalf("unexpected top 2: %+v", top)
	}
}

func TestLeaderboardPublishReplaces(t *testing.T) {
	_, client := newTestRedis(t)
	lb := NewLeaderboard(client, 0)
	ctx := context.Background()

	_ = lb.Publish(ctx, "c1", []domain.Standing{
		{Rank: 1, Player: domain.Player{ID: "old", Name: "Old"}, Score: 5},
	})
	_ = lb.Publish(ctx, "c1", []domain.Standing{
		{Rank: 1, Player: domain.Player{ID: "new", Name: "New"}, Score: 1},
	})

	got, _ := lb.Standings(ctx, "c1", 0)
	if len(got) != 1 || got[0].Player.ID != "new" {
		t.Fatalf("expected replaced standings, got %+v", got)
	}

	empty, _ := lb.Standings(ctx, "unknown", 0)
	if len(empty) != 0 {
		t.Fatalf("expected no rows for unknown channel, got %+v", empty)
	}
}

func TestLeaderboardSkipsCorruptEntries(t *testing.T) {
	mr, client := newTestRedis(t)
	lb := NewLeaderboard(client, time.Hour)
	ctx := context.Background()

	standings := []domain.Standing{
		{Rank: 1, Player: domain.Player{ID: "u1", Name: "Alice"}, Score: 1},
		{Rank: 2, Player: domain.Player{ID: "u2", Name: "Bob"}, Score: -1},
	}
	if err := lb.Publish(ctx, "c1", standings); err != nil {
		t.Fatalf("publish: %v", err)
	}
	mr.HSet("leaderboard:c1:players", "u2", "{not json")

	got, err := lb.Standings(ctx, "c1", 0)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(got) != 1 || got[0] != standings[0] {
		t.Fatalf("expected corrupt row skipped, got %+v", got)
	}
}
