package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"quiz-bot/internal/domain"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	failures []error
	nextID   int
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: 100 + f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

type recorder struct {
	mu       sync.Mutex
	messages []domain.Message
	reacts   []domain.MessageHandle
	accept   bool
}

func (r *recorder) Receive(_ context.Context, msg domain.Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

func (r *recorder) React(handle domain.MessageHandle, _ domain.Player) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reacts = append(r.reacts, handle)
	return r.accept
}

func newTestTransport() (*Transport, *fakeAPI, *recorder) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	tr := newTransport(api)
	tr.retryDelay = time.Millisecond
	rec := &recorder{accept: true}
	tr.Bind(rec, rec)
	return tr, api, rec
}

func TestSendRendersPanelWithJoinButton(t *testing.T) {
	tr, api, _ := newTestTransport()

	handle, err := tr.Send(context.Background(), "-1001", domain.PanelMessage(domain.Panel{
		Title:       "Who wants to join?",
		Description: "React with 👍 to join!",
		Joinable:    true,
	}))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if handle.ChannelID != "-1001" || handle.MessageID != "101" {
		t.Fatalf("unexpected handle %+v", handle)
	}

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", api.sent[0])
	}
	if msg.ChatID != -1001 || msg.ParseMode != tgbotapi.ModeHTML {
		t.Fatalf("unexpected message config %+v", msg)
	}
	if !strings.HasPrefix(msg.Text, "<b>Who wants to join?</b>") {
		t.Fatalf("unexpected text %q", msg.Text)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || *kb.InlineKeyboard[0][0].CallbackData != joinCallback {
		t.Fatalf("expected join button, got %#v", msg.ReplyMarkup)
	}
}

func TestSendRetriesTransientErrors(t *testing.T) {
	tr, api, _ := newTestTransport()
	api.failures = []error{errors.New("read: connection reset by peer")}

	if _, err := tr.Send(context.Background(), "42", domain.TextMessage("hello")); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(api.sent) != 1 {
		t.Fatalf("expected one delivered message, got %d", len(api.sent))
	}
}

func TestSendReportsPermanentErrors(t *testing.T) {
	tr, api, _ := newTestTransport()
	api.failures = []error{errors.New("Forbidden: bot was kicked"), errors.New("unused")}

	_, err := tr.Send(context.Background(), "42", domain.TextMessage("hello"))
	var transportErr *domain.TransportError
	if !errors.As(err, &transportErr) || transportErr.Op != "send" {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if len(api.failures) != 1 {
		t.Fatalf("expected no retry for permanent error")
	}

	if _, err := tr.Send(context.Background(), "general", domain.TextMessage("hello")); err == nil {
		t.Fatalf("expected invalid chat id to fail")
	}
}

func TestRunDispatchesUpdates(t *testing.T) {
	tr, api, rec := newTestTransport()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		From:      &tgbotapi.User{ID: 11, FirstName: "Ada", LastName: "Lovelace"},
		Chat:      &tgbotapi.Chat{ID: -5},
		Date:      1700000000,
		Text:      ",start",
	}}
	api.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: 12, UserName: "grace"},
		Message: &tgbotapi.Message{MessageID: 101, Chat: &tgbotapi.Chat{ID: -5}},
		Data:    joinCallback,
	}}

	deadline := time.Now().Add(time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.messages) + len(rec.reacts)
		rec.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("updates not dispatched")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	msg := rec.messages[0]
	if msg.ChannelID != "-5" || msg.Author.ID != "11" || msg.Author.Name != "Ada Lovelace" || msg.Text != ",start" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.SentAt.Unix() != 1700000000 {
		t.Fatalf("unexpected timestamp %v", msg.SentAt)
	}
	if rec.reacts[0] != (domain.MessageHandle{ChannelID: "-5", MessageID: "101"}) {
		t.Fatalf("unexpected react handle %+v", rec.reacts[0])
	}
	if len(api.requests) != 1 {
		t.Fatalf("expected callback answered, got %d requests", len(api.requests))
	}
	if !api.stopped {
		t.Fatalf("expected polling stopped on shutdown")
	}
}

func TestRenderStripsMarkup(t *testing.T) {
	got := render(domain.PanelMessage(domain.Panel{
		Title:  "<i>Capitals</i>",
		Fields: []domain.PanelField{{Name: "🥇 Place", Value: "<b>Eve</b>: 3 points"}},
	}))
	want := "<b>Capitals</b>\n\n<b>🥇 Place</b>\nEve: 3 points"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}

	if got := render(domain.TextMessage("Correct answer was: <script>x</script>Paris")); got != "Correct answer was: Paris" {
		t.Fatalf("unexpected text render %q", got)
	}
}
