package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// AnswerCollector gathers one answer per player for a round.
type AnswerCollector struct {
	messages MessageAwaiter
}

func NewAnswerCollector(messages MessageAwaiter) *AnswerCollector {
	return &AnswerCollector{messages: messages}
}

// PendingRound holds one armed answer wait per player. Answers published after Arm returns are
// kept until Collect reads them.
type PendingRound struct {
	channelID string
	players   []domain.Player
	pending   []domain.PendingMessage
}

// Arm registers a wait for every player's first message in channelID.
func (c *AnswerCollector) Arm(channelID string, players []domain.Player) *PendingRound {
	r := &PendingRound{
		channelID: channelID,
		players:   players,
		pending:   make([]domain.PendingMessage, len(players)),
	}
	for i, player := range players {
		r.pending[i] = c.messages.ExpectMessage(func(m domain.Message) bool {
			return m.ChannelID == channelID && m.Author.ID == player.ID
		})
	}
	return r
}

// Collect arms the round and waits for it. See PendingRound.Collect.
func (c *AnswerCollector) Collect(ctx context.Context, channelID string, players []domain.Player, timeout time.Duration) domain.RoundResult {
	return c.Arm(channelID, players).Collect(ctx, timeout)
}

// Collect waits concurrently on every armed wait. All waits share a single deadline timeout after
// the call, so the round never outlasts it. The result holds exactly one entry per player.
func (r *PendingRound) Collect(ctx context.Context, timeout time.Duration) domain.RoundResult {
	roundCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	answers := make([]domain.Answer, len(r.players))
	var g errgroup.Group
	for i := range r.players {
		g.Go(func() error {
			answers[i] = r.await(roundCtx, i)
			return nil
		})
	}
	_ = g.Wait()

	result := make(domain.RoundResult, len(r.players))
	for i, player := range r.players {
		result[player.ID] = answers[i]
	}
	return result
}

// Cancel releases every wait without collecting.
func (r *PendingRound) Cancel() {
	for _, p := range r.pending {
		p.Cancel()
	}
}

func (r *PendingRound) await(ctx context.Context, i int) domain.Answer {
	msg, err := r.pending[i].Wait(ctx)
	switch {
	case err == nil:
		return domain.Answer{Status: domain.Answered, Text: msg.Text}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.Answer{Status: domain.Absent}
	default:
		logger.Warn("Answer wait failed", "channel", r.channelID, "player", r.players[i].ID, "error", err)
		return domain.Answer{Status: domain.Failed, Err: err}
	}
}
