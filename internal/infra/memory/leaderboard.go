package memory

import (
	"context"
	"sync"

	"quiz-bot/internal/domain"
)

// Leaderboard keeps the latest standings per channel.
type Leaderboard struct {
	mu        sync.RWMutex
	standings map[string][]domain.Standing
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{standings: make(map[string][]domain.Standing)}
}

func (l *Leaderboard) Publish(_ context.Context, channelID string, standings []domain.Standing) error {
	snapshot := make([]domain.Standing, len(standings))
	copy(snapshot, standings)

	l.mu.Lock()
	l.standings[channelID] = snapshot
	l.mu.Unlock()
	return nil
}

// Standings returns up to limit rows for channelID; limit <= 0 means all.
func (l *Leaderboard) Standings(_ context.Context, channelID string, limit int) ([]domain.Standing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rows := l.standings[channelID]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]domain.Standing, len(rows))
	copy(out, rows)
	return out, nil
}
