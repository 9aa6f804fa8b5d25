package chat

import (
	"context"
	"sync"
	"time"

	"quiz-bot/internal/domain"
)

// MatchFunc selects the inbound messages a waiter is interested in.
type MatchFunc func(domain.Message) bool

// FromPlayerIn matches messages sent by player in channelID.
func FromPlayerIn(channelID, playerID string) MatchFunc {
	return func(m domain.Message) bool {
		return m.ChannelID == channelID && m.Author.ID == playerID
	}
}

// Hub is the inbound side of the chat: transports publish messages and join signals into it,
// the game awaits them. Every waiter receives at most one message.
type Hub struct {
	mu          sync.Mutex
	waiters     []*waiter
	enrollments map[domain.MessageHandle]*enrollment
}

type waiter struct {
	hub   *Hub
	match func(domain.Message) bool
	ch    chan domain.Message
}

type enrollment struct {
	players []domain.Player
	seen    map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{enrollments: make(map[domain.MessageHandle]*enrollment)}
}

// Publish delivers msg to every waiting caller whose predicate matches, in registration order.
// It returns the number of waiters that consumed the message.
func (h *Hub) Publish(msg domain.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	remaining := h.waiters[:0]
	for _, w := range h.waiters {
		if w.match(msg) {
			w.ch <- msg
			delivered++
			continue
		}
		remaining = append(remaining, w)
	}
	for i := len(remaining); i < len(h.waiters); i++ {
		h.waiters[i] = nil
	}
	h.waiters = remaining
	return delivered
}

// AwaitMessage blocks until a matching message is published or ctx is done. A message published
// before the context expired is returned even if the caller observes the expiry first.
func (h *Hub) AwaitMessage(ctx context.Context, match func(domain.Message) bool) (domain.Message, error) {
	return h.ExpectMessage(match).Wait(ctx)
}

// ExpectMessage registers a waiter immediately and returns it. Messages published after the call
// are held for Wait, so a caller can arm the wait before prompting users.
func (h *Hub) ExpectMessage(match func(domain.Message) bool) domain.PendingMessage {
	w := &waiter{hub: h, match: match, ch: make(chan domain.Message, 1)}

	h.mu.Lock()
	h.waiters = append(h.waiters, w)
	h.mu.Unlock()
	return w
}

func (w *waiter) Wait(ctx context.Context) (domain.Message, error) {
	select {
	case msg := <-w.ch:
		return msg, nil
	case <-ctx.Done():
	}

	if w.hub.remove(w) {
		return domain.Message{}, ctx.Err()
	}
	return <-w.ch, nil
}

func (w *waiter) Cancel() {
	w.hub.remove(w)
}

func (h *Hub) remove(target *waiter) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, w := range h.waiters {
		if w == target {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Waiting reports how many callers are registered and not yet served.
func (h *Hub) Waiting() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters)
}

// React registers player's join signal on a joinable message. Bots and signals for messages that
// are not collecting enrollments are ignored; repeated signals keep the first position.
func (h *Hub) React(handle domain.MessageHandle, player domain.Player) bool {
	if player.Bot || player.ID == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.enrollments[handle]
	if !ok {
		return false
	}
	if _, dup := e.seen[player.ID]; dup {
		return false
	}
	e.seen[player.ID] = struct{}{}
	e.players = append(e.players, player)
	return true
}

// OpenEnrollment reports whether handle is currently collecting join signals.
func (h *Hub) OpenEnrollment(handle domain.MessageHandle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.enrollments[handle]
	return ok
}

// CollectEnrollment gathers join signals for handle during window and returns the players in the
// order they joined.
func (h *Hub) CollectEnrollment(ctx context.Context, handle domain.MessageHandle, window time.Duration) ([]domain.Player, error) {
	h.mu.Lock()
	if _, ok := h.enrollments[handle]; !ok {
		h.enrollments[handle] = &enrollment{seen: make(map[string]struct{})}
	}
	h.mu.Unlock()

	timer := time.NewTimer(window)
	defer timer.Stop()

	var err error
	select {
	case <-timer.C:
	case <-ctx.Done():
		err = ctx.Err()
	}

	h.mu.Lock()
	e := h.enrollments[handle]
	delete(h.enrollments, handle)
	h.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return e.players, nil
}
