package chat

import (
	"context"
	"errors"
	"time"

	"quiz-bot/internal/domain"
)

// Sender delivers outbound messages on a concrete chat platform.
type Sender interface {
	Send(ctx context.Context, channelID string, out domain.Outbound) (domain.MessageHandle, error)
}

// Messenger joins a transport's outbound side with the inbound Hub.
type Messenger struct {
	hub    *Hub
	sender Sender
}

func NewMessenger(hub *Hub, sender Sender) *Messenger {
	return &Messenger{hub: hub, sender: sender}
}

// Send delivers out and wraps platform failures in a domain.TransportError.
func (m *Messenger) Send(ctx context.Context, channelID string, out domain.Outbound) (domain.MessageHandle, error) {
	handle, err := m.sender.Send(ctx, channelID, out)
	if err != nil {
		var transportErr *domain.TransportError
		if errors.As(err, &transportErr) {
			return handle, err
		}
		return handle, &domain.TransportError{Op: "send", Err: err}
	}
	return handle, nil
}

func (m *Messenger) AwaitMessage(ctx context.Context, match func(domain.Message) bool) (domain.Message, error) {
	return m.hub.AwaitMessage(ctx, match)
}

func (m *Messenger) ExpectMessage(match func(domain.Message) bool) domain.PendingMessage {
	return m.hub.ExpectMessage(match)
}

func (m *Messenger) CollectEnrollment(ctx context.Context, handle domain.MessageHandle, window time.Duration) ([]domain.Player, error) {
	return m.hub.CollectEnrollment(ctx, handle, window)
}
