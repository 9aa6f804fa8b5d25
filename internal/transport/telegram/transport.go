package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

const joinCallback = "join"

// botAPI is the part of *tgbotapi.BotAPI the transport uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Receiver takes inbound chat messages (the bot).
type Receiver interface {
	Receive(ctx context.Context, msg domain.Message)
}

// Reactor registers join signals on enrollment messages.
type Reactor interface {
	React(handle domain.MessageHandle, player domain.Player) bool
}

// Transport connects the game to Telegram group chats. Chat ids are the channel ids; the inline
// "Join" button on enrollment messages is the join signal.
type Transport struct {
	api        botAPI
	receiver   Receiver
	reactor    Reactor
	maxRetries int
	retryDelay time.Duration
}

// New authorizes token against the Bot API.
func New(token string, debug bool) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, &domain.TransportError{Op: "connect", Err: fmt.Errorf("failed to create bot: %w", err)}
	}
	api.Debug = debug
	logger.Info("Authorized on account", "username", api.Self.UserName)
	return newTransport(api), nil
}

func newTransport(api botAPI) *Transport {
	return &Transport{api: api, maxRetries: 3, retryDelay: time.Second}
}

// Bind sets where inbound traffic goes. It must be called before Run.
func (t *Transport) Bind(receiver Receiver, reactor Reactor) {
	t.receiver = receiver
	t.reactor = reactor
}

// Send posts out to the chat named by channelID, retrying transient network failures.
func (t *Transport) Send(ctx context.Context, channelID string, out domain.Outbound) (domain.MessageHandle, error) {
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return domain.MessageHandle{}, &domain.TransportError{Op: "send", Err: fmt.Errorf("invalid chat id %q", channelID)}
	}

	msg := tgbotapi.NewMessage(chatID, render(out))
	msg.ParseMode = tgbotapi.ModeHTML
	if out.Panel != nil && out.Panel.Joinable {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👍 Join", joinCallback),
			),
		)
	}

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		sent, err := t.api.Send(msg)
		if err == nil {
			return domain.MessageHandle{ChannelID: channelID, MessageID: strconv.Itoa(sent.MessageID)}, nil
		}
		lastErr = err
		logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)
		if !transient(err) {
			break
		}
		select {
		case <-ctx.Done():
			return domain.MessageHandle{}, &domain.TransportError{Op: "send", Err: ctx.Err()}
		case <-time.After(time.Duration(i+1) * t.retryDelay):
		}
	}
	return domain.MessageHandle{}, &domain.TransportError{Op: "send", Err: lastErr}
}

// Run long-polls updates until ctx is done.
func (t *Transport) Run(ctx context.Context) error {
	if t.receiver == nil || t.reactor == nil {
		return errors.New("telegram transport is not bound")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	logger.Info("Starting update listener...")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return &domain.TransportError{Op: "receive", Err: errors.New("update channel closed")}
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	switch {
	case update.Message != nil:
		if msg, ok := toMessage(update.Message); ok {
			t.receiver.Receive(ctx, msg)
		}
	case update.CallbackQuery != nil:
		t.handleCallbackQuery(update.CallbackQuery)
	}
}

func (t *Transport) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.Data != joinCallback || query.Message == nil || query.From == nil {
		t.answerCallback(query.ID, "")
		return
	}

	handle := domain.MessageHandle{
		ChannelID: strconv.FormatInt(query.Message.Chat.ID, 10),
		MessageID: strconv.Itoa(query.Message.MessageID),
	}
	if t.reactor.React(handle, toPlayer(query.From)) {
		t.answerCallback(query.ID, "You joined the quiz!")
		return
	}
	t.answerCallback(query.ID, "You are already in, or joining has closed.")
}

func (t *Transport) answerCallback(queryID, text string) {
	callback := tgbotapi.NewCallback(queryID, text)
	if _, err := t.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

func toMessage(m *tgbotapi.Message) (domain.Message, bool) {
	if m.From == nil || m.Chat == nil {
		return domain.Message{}, false
	}
	return domain.Message{
		ID:        strconv.Itoa(m.MessageID),
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		Author:    toPlayer(m.From),
		Text:      m.Text,
		SentAt:    m.Time(),
	}, true
}

func toPlayer(u *tgbotapi.User) domain.Player {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return domain.Player{ID: strconv.FormatInt(u.ID, 10), Name: name, Bot: u.IsBot}
}

func transient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}
