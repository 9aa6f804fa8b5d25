package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// State is a session lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateSelectingQuiz State = "selecting_quiz"
	StateEnrolling     State = "enrolling"
	StateRound         State = "round"
	StateComplete      State = "complete"
	StateCancelled     State = "cancelled"
)

// processSlot is the single slot used unless games run per channel.
const processSlot = "process"

// Settings are the game timings and presentation knobs.
type Settings struct {
	SelectionTimeout time.Duration
	EnrollmentWindow time.Duration
	AnswerTimeout    time.Duration
	RoundPause       time.Duration
	TopN             int
	PerChannel       bool
	CommandPrefix    string
}

// DefaultSettings is the classic rhythm: 30s to pick, 15s to join, 5s per answer, 2s pause.
func DefaultSettings() Settings {
	return Settings{
		SelectionTimeout: 30 * time.Second,
		EnrollmentWindow: 15 * time.Second,
		AnswerTimeout:    5 * time.Second,
		RoundPause:       2 * time.Second,
		TopN:             3,
		CommandPrefix:    ",",
	}
}

// SlotLease is how long a distributed slot stays held without a refresh. It covers selection plus
// enrollment before the first round, and one round between later refreshes.
func (s Settings) SlotLease() time.Duration {
	return s.SelectionTimeout + s.EnrollmentWindow + s.AnswerTimeout + s.RoundPause + time.Minute
}

// StartRequest is a start command issued by Requester in ChannelID.
type StartRequest struct {
	ChannelID string
	Requester domain.Player
}

// Session is one game. It is owned by the goroutine running Controller.Start and never shared.
type Session struct {
	ID        string
	ChannelID string
	Requester domain.Player
	Quiz      domain.Quiz
	Players   []domain.Player
	Round     int
	State     State
	Board     *ScoreBoard
}

// Controller runs games from selection to final standings.
type Controller struct {
	catalog   *Catalog
	messenger Messenger
	collector *AnswerCollector
	slots     SessionSlots
	mirror    LeaderboardMirror
	settings  Settings
}

func NewController(catalog *Catalog, messenger Messenger, slots SessionSlots, mirror LeaderboardMirror, settings Settings) *Controller {
	return &Controller{
		catalog:   catalog,
		messenger: messenger,
		collector: NewAnswerCollector(messenger),
		slots:     slots,
		mirror:    mirror,
		settings:  settings,
	}
}

// Help sends the quiz list and rules.
func (c *Controller) Help(ctx context.Context, channelID string) error {
	_, err := c.messenger.Send(ctx, channelID, domain.PanelMessage(helpPanel(c.settings.CommandPrefix, c.catalog.Names(), c.settings)))
	return err
}

// Start runs a full game and returns the finished session. Selection and enrollment failures
// cancel the session, explain why in the channel and return the cause.
func (c *Controller) Start(ctx context.Context, req StartRequest) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		ChannelID: req.ChannelID,
		Requester: req.Requester,
		State:     StateIdle,
	}

	slot := c.slotFor(req.ChannelID)
	ok, err := c.slots.Acquire(ctx, slot, s.ID)
	if err != nil {
		return s, fmt.Errorf("acquire session slot: %w", err)
	}
	if !ok {
		c.say(ctx, s, domain.TextMessage(msgAlreadyRunning))
		return s, domain.ErrSessionActive
	}
	defer func() {
		if err := c.slots.Release(context.WithoutCancel(ctx), slot, s.ID); err != nil {
			logger.Error("Failed to release session slot", "session", s.ID, "slot", slot, "error", err)
		}
	}()

	logger.Info("Session started", "session", s.ID, "channel", s.ChannelID, "requester", s.Requester.ID)

	if err := c.selectQuiz(ctx, s); err != nil {
		return c.cancel(ctx, s, err)
	}
	if err := c.enroll(ctx, s); err != nil {
		return c.cancel(ctx, s, err)
	}
	if err := c.playRounds(ctx, s); err != nil {
		return c.cancel(ctx, s, err)
	}

	s.State = StateComplete
	final := s.Board.AllRanked()
	c.say(ctx, s, domain.PanelMessage(finalPanel("🎮 Game Over! Final Scores 🎮", final)))
	c.publish(ctx, s, final)
	logger.Info("Session complete", "session", s.ID, "quiz", s.Quiz.Name, "players", len(s.Players))
	return s, nil
}

func (c *Controller) slotFor(channelID string) string {
	if c.settings.PerChannel {
		return "channel:" + channelID
	}
	return processSlot
}

func (c *Controller) selectQuiz(ctx context.Context, s *Session) error {
	s.State = StateSelectingQuiz
	if c.catalog.Empty() {
		c.say(ctx, s, domain.TextMessage(msgNoQuizzes))
		return domain.ErrNoQuizzes
	}

	if _, err := c.messenger.Send(ctx, s.ChannelID, domain.PanelMessage(selectionPanel(c.catalog.Names()))); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.settings.SelectionTimeout)
	defer cancel()
	reply, err := c.messenger.AwaitMessage(waitCtx, func(m domain.Message) bool {
		return m.ChannelID == s.ChannelID && m.Author.ID == s.Requester.ID
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.say(ctx, s, domain.TextMessage(msgInvalidSelection))
		if errors.Is(err, context.DeadlineExceeded) {
			return &domain.SelectionError{TimedOut: true}
		}
		return err
	}

	input := strings.TrimSpace(reply.Text)
	n, convErr := strconv.Atoi(input)
	quiz, found := c.catalog.At(n - 1)
	if convErr != nil || !found {
		c.say(ctx, s, domain.TextMessage(msgInvalidSelection))
		return &domain.SelectionError{Input: input}
	}
	s.Quiz = quiz
	return nil
}

func (c *Controller) enroll(ctx context.Context, s *Session) error {
	s.State = StateEnrolling
	handle, err := c.messenger.Send(ctx, s.ChannelID, domain.PanelMessage(joinPanel(c.settings.EnrollmentWindow)))
	if err != nil {
		return err
	}

	players, err := c.messenger.CollectEnrollment(ctx, handle, c.settings.EnrollmentWindow)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		c.say(ctx, s, domain.TextMessage(msgNoPlayers))
		return domain.ErrEnrollmentEmpty
	}

	s.Players = players
	s.Board = NewScoreBoard(players)
	logger.Info("Enrollment closed", "session", s.ID, "quiz", s.Quiz.Name, "players", len(players))
	return nil
}

func (c *Controller) playRounds(ctx context.Context, s *Session) error {
	total := len(s.Quiz.Questions)
	for i, q := range s.Quiz.Questions {
		s.State = StateRound
		s.Round = i
		if err := c.slots.Refresh(ctx, c.slotFor(s.ChannelID), s.ID); err != nil {
			logger.Warn("Failed to refresh session slot", "session", s.ID, "round", i+1, "error", err)
		}
		if err := c.playRound(ctx, s, q); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Round failed", "session", s.ID, "round", i+1, "error", err)
		}

		if i == total-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.settings.RoundPause):
		}
	}
	return nil
}

// playRound asks one question and commits its scores. A panic is reported as an error and leaves
// previously committed scores intact.
func (c *Controller) playRound(ctx context.Context, s *Session, q domain.Question) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("round %d panicked: %v", s.Round+1, r)
		}
	}()

	var result domain.RoundResult
	round := c.collector.Arm(s.ChannelID, s.Players)
	panel := questionPanel(q, s.Round+1, len(s.Quiz.Questions))
	if _, sendErr := c.messenger.Send(ctx, s.ChannelID, domain.PanelMessage(panel)); sendErr != nil {
		round.Cancel()
		logger.Error("Question not delivered, scoring round as absent", "session", s.ID, "round", s.Round+1, "error", sendErr)
		result = absentResult(s.Players, sendErr)
	} else {
		result = round.Collect(ctx, c.settings.AnswerTimeout)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := s.Board.Apply(result, q.CorrectPosition()); err != nil {
		return err
	}

	top := s.Board.TopN(c.settings.TopN)
	c.say(ctx, s, domain.TextMessage(timesUpText(q)))
	c.say(ctx, s, domain.PanelMessage(topPanel(top)))
	c.publish(ctx, s, s.Board.AllRanked())
	return nil
}

func (c *Controller) cancel(ctx context.Context, s *Session, cause error) (*Session, error) {
	s.State = StateCancelled
	logger.Info("Session cancelled", "session", s.ID, "channel", s.ChannelID, "reason", cause)

	if s.Board != nil && ctx.Err() != nil {
		standings := s.Board.AllRanked()
		c.say(context.WithoutCancel(ctx), s, domain.PanelMessage(finalPanel(msgGameCancelled, standings)))
	}
	return s, cause
}

// say sends a best-effort message; failures are logged and never end the session.
func (c *Controller) say(ctx context.Context, s *Session, out domain.Outbound) {
	if _, err := c.messenger.Send(ctx, s.ChannelID, out); err != nil {
		logger.Warn("Failed to send message", "session", s.ID, "channel", s.ChannelID, "error", err)
	}
}

func (c *Controller) publish(ctx context.Context, s *Session, standings []domain.Standing) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.Publish(ctx, s.ChannelID, standings); err != nil {
		logger.Warn("Failed to mirror leaderboard", "session", s.ID, "error", err)
	}
}

func absentResult(players []domain.Player, cause error) domain.RoundResult {
	result := make(domain.RoundResult, len(players))
	for _, p := range players {
		result[p.ID] = domain.Answer{Status: domain.Failed, Err: cause}
	}
	return result
}
