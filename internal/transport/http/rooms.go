package http

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"quiz-bot/internal/domain"
)

// chatMessage is what a room subscriber receives for every outbound bot message.
type chatMessage struct {
	ID        string         `json:"id"`
	ChannelID string         `json:"channelId"`
	Text      string         `json:"text,omitempty"`
	Panel     *domain.Panel  `json:"panel,omitempty"`
	SentAt    time.Time      `json:"sentAt"`
	Author    *domain.Player `json:"author,omitempty"`
}

// Rooms fans bot output out to the WebSocket clients of each channel. It implements chat.Sender.
type Rooms struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan chatMessage]struct{}
	now         func() time.Time
}

func NewRooms() *Rooms {
	return &Rooms{
		subscribers: make(map[string]map[chan chatMessage]struct{}),
		now:         time.Now,
	}
}

// Send broadcasts out to every client in channelID. A room without clients still accepts the
// message so the game keeps its rhythm.
func (r *Rooms) Send(_ context.Context, channelID string, out domain.Outbound) (domain.MessageHandle, error) {
	msg := chatMessage{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Text:      out.Text,
		Panel:     out.Panel,
		SentAt:    r.now(),
	}
	r.broadcast(channelID, msg)
	return domain.MessageHandle{ChannelID: channelID, MessageID: msg.ID}, nil
}

// relay shows a user's message to the rest of the room.
func (r *Rooms) relay(msg domain.Message) {
	author := msg.Author
	r.broadcast(msg.ChannelID, chatMessage{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Text:      msg.Text,
		SentAt:    msg.SentAt,
		Author:    &author,
	})
}

func (r *Rooms) broadcast(channelID string, msg chatMessage) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.subscribers[channelID] {
		select {
		case ch <- msg:
		default:
			// Slow client: drop its oldest pending message.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// subscribe registers a client in channelID. The caller must invoke cancel to avoid leaks.
func (r *Rooms) subscribe(channelID string) (<-chan chatMessage, func()) {
	ch := make(chan chatMessage, 32)

	r.mu.Lock()
	if r.subscribers[channelID] == nil {
		r.subscribers[channelID] = make(map[chan chatMessage]struct{})
	}
	r.subscribers[channelID][ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if subs, ok := r.subscribers[channelID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(r.subscribers, channelID)
			}
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// Clients reports how many clients are connected to channelID.
func (r *Rooms) Clients(channelID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[channelID])
}
