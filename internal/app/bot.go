package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// Publisher feeds inbound messages to whoever is waiting for them.
type Publisher interface {
	Publish(msg domain.Message) int
}

// Bot routes inbound chat messages: every message reaches pending waits first, then messages
// carrying the command prefix are dispatched.
type Bot struct {
	controller *Controller
	inbound    Publisher
	prefix     string

	wg sync.WaitGroup
}

func NewBot(controller *Controller, inbound Publisher, prefix string) *Bot {
	return &Bot{controller: controller, inbound: inbound, prefix: prefix}
}

// Receive handles one inbound message. Games started here run in their own goroutine bound to
// ctx; use Wait to drain them on shutdown.
func (b *Bot) Receive(ctx context.Context, msg domain.Message) {
	b.inbound.Publish(msg)
	if msg.Author.Bot {
		return
	}

	command, ok := b.command(msg.Text)
	if !ok {
		return
	}

	switch command {
	case "start":
		req := StartRequest{ChannelID: msg.ChannelID, Requester: msg.Author}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.run(ctx, req)
		}()
	case "quiz_help":
		if err := b.controller.Help(ctx, msg.ChannelID); err != nil {
			logger.Warn("Failed to send help", "channel", msg.ChannelID, "error", err)
		}
	default:
		logger.Debug("Ignoring unknown command", "command", command, "channel", msg.ChannelID)
	}
}

func (b *Bot) run(ctx context.Context, req StartRequest) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in game session", "channel", req.ChannelID, "error", r)
		}
	}()

	s, err := b.controller.Start(ctx, req)
	var selErr *domain.SelectionError
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSessionActive),
		errors.Is(err, domain.ErrNoQuizzes),
		errors.Is(err, domain.ErrEnrollmentEmpty),
		errors.As(err, &selErr):
		logger.Info("Game not played", "channel", req.ChannelID, "state", s.State, "reason", err)
	default:
		logger.Error("Game ended with error", "channel", req.ChannelID, "state", s.State, "error", err)
	}
}

// command extracts the command name from text such as ",start".
func (b *Bot) command(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if b.prefix == "" || !strings.HasPrefix(text, b.prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(text, b.prefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

// Wait blocks until every game started through Receive has returned.
func (b *Bot) Wait() {
	b.wg.Wait()
}
