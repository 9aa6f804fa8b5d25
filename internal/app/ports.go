package app

import (
	"context"
	"time"

	"quiz-bot/internal/domain"
)

// Messenger is the chat surface the game talks through (Telegram, WebSocket rooms, tests).
type Messenger interface {
	MessageAwaiter
	Send(ctx context.Context, channelID string, out domain.Outbound) (domain.MessageHandle, error)
	CollectEnrollment(ctx context.Context, handle domain.MessageHandle, window time.Duration) ([]domain.Player, error)
}

// MessageAwaiter blocks until one inbound message satisfies match or ctx is done. ExpectMessage
// registers the wait up front so messages arriving before Wait are not lost.
type MessageAwaiter interface {
	AwaitMessage(ctx context.Context, match func(domain.Message) bool) (domain.Message, error)
	ExpectMessage(match func(domain.Message) bool) domain.PendingMessage
}

// QuizSource loads raw quiz documents from a backing store (directory, Postgres, MongoDB, cache).
type QuizSource interface {
	LoadQuizzes(ctx context.Context) ([]domain.QuizDocument, error)
}

// SessionSlots abstracts how running games are tracked (in-memory, Redis).
// Acquire reports false when the slot is held by another session. Refresh renews the holder's
// lease and fails once the slot is no longer held.
type SessionSlots interface {
	Acquire(ctx context.Context, slot, sessionID string) (bool, error)
	Refresh(ctx context.Context, slot, sessionID string) error
	Release(ctx context.Context, slot, sessionID string) error
}

// LeaderboardMirror exposes live standings outside the chat.
type LeaderboardMirror interface {
	Publish(ctx context.Context, channelID string, standings []domain.Standing) error
}
