package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Player is a chat participant. ID is the stable platform identity and the only key used for
// scoring; Name is for presentation.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot,omitempty"`
}

// Question is a validated multiple choice question.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"` // 0-based index into Options
}

// CorrectPosition is the 1-based option number players must send.
func (q Question) CorrectPosition() int {
	return q.Correct + 1
}

// CorrectAnswer returns the text of the correct option.
func (q Question) CorrectAnswer() string {
	return q.Options[q.Correct]
}

// Quiz is a named, ordered set of questions.
type Quiz struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuizDocument is the raw stored form of a quiz before validation.
type QuizDocument struct {
	Name      string             `json:"name,omitempty" bson:"name"`
	Questions []QuestionDocument `json:"questions" bson:"questions"`
}

// QuestionDocument is the raw stored form of a question.
type QuestionDocument struct {
	Question      string   `json:"question" bson:"question"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer string   `json:"correct_answer" bson:"correct_answer"`
}

// Validate converts a raw document into a Quiz, rejecting structural errors up front.
func (d QuizDocument) Validate() (Quiz, error) {
	if strings.TrimSpace(d.Name) == "" {
		return Quiz{}, &LoadError{Reason: "missing quiz name"}
	}
	if len(d.Questions) == 0 {
		return Quiz{}, &LoadError{Name: d.Name, Reason: "no questions"}
	}

	quiz := Quiz{Name: d.Name, Questions: make([]Question, 0, len(d.Questions))}
	for i, raw := range d.Questions {
		q, err := raw.validate()
		if err != nil {
			return Quiz{}, &LoadError{Name: d.Name, Reason: "question " + strconv.Itoa(i+1), Err: err}
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz, nil
}

func (d QuestionDocument) validate() (Question, error) {
	if strings.TrimSpace(d.Question) == "" {
		return Question{}, errMissingField("question")
	}
	if len(d.Options) < 2 {
		return Question{}, errMissingField("options (need at least 2)")
	}
	if d.CorrectAnswer == "" {
		return Question{}, errMissingField("correct_answer")
	}
	for i, opt := range d.Options {
		if opt == d.CorrectAnswer {
			options := make([]string, len(d.Options))
			copy(options, d.Options)
			return Question{Prompt: d.Question, Options: options, Correct: i}, nil
		}
	}
	return Question{}, ErrCorrectAnswerNotInOptions
}

// Message is an inbound chat message.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	Author    Player    `json:"author"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sentAt"`
}

// MessageHandle identifies a message the bot sent.
type MessageHandle struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
}

// PanelField is one titled line of a panel.
type PanelField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Panel colors, matching the palette the game uses for each kind of panel.
const (
	ColorBlue   = 0x3498db
	ColorGreen  = 0x2ecc71
	ColorPurple = 0x9b59b6
	ColorGold   = 0xf1c40f
)

// Panel is a structured, transport-neutral message.
type Panel struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Fields      []PanelField `json:"fields,omitempty"`
	Color       int          `json:"color,omitempty"`
	// Joinable panels carry a join control; players enroll by reacting to them.
	Joinable bool `json:"joinable,omitempty"`
}

// Outbound is either plain text or a panel.
type Outbound struct {
	Text  string `json:"text,omitempty"`
	Panel *Panel `json:"panel,omitempty"`
}

// TextMessage builds a plain text outbound message.
func TextMessage(text string) Outbound {
	return Outbound{Text: text}
}

// PanelMessage builds a panel outbound message.
func PanelMessage(p Panel) Outbound {
	return Outbound{Panel: &p}
}

// AnswerStatus is the outcome of a single player's wait in a round.
type AnswerStatus int

const (
	Absent AnswerStatus = iota
	Answered
	Failed
)

func (s AnswerStatus) String() string {
	switch s {
	case Answered:
		return "answered"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

// Answer is one player's entry in a RoundResult.
type Answer struct {
	Status AnswerStatus
	Text   string
	Err    error
}

// Submitted reports whether the player answered in time.
func (a Answer) Submitted() bool {
	return a.Status == Answered
}

// RoundResult maps every enrolled player ID to exactly one Answer.
type RoundResult map[string]Answer

// Standing is one row of a ranked scoreboard view.
type Standing struct {
	Rank   int    `json:"rank"`
	Player Player `json:"player"`
	Score  int    `json:"score"`
}

// PendingMessage is an armed wait for one inbound message. Wait returns the message or the
// context error; Cancel releases a wait that will never be collected.
type PendingMessage interface {
	Wait(ctx context.Context) (Message, error)
	Cancel()
}
