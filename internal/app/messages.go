package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quiz-bot/internal/domain"
)

const (
	msgNoQuizzes        = "No quizzes available! Please add some quiz files first."
	msgInvalidSelection = "Invalid selection or timeout. Please try again."
	msgNoPlayers        = "No players joined. Game cancelled."
	msgAlreadyRunning   = "A quiz is already running. Wait for it to finish before starting another."
	msgGameCancelled    = "The game was interrupted. Scores so far:"
)

var medals = []string{"🥇", "🥈", "🥉"}

func helpPanel(prefix string, names []string, s Settings) domain.Panel {
	quizList := "No quizzes available"
	if len(names) > 0 {
		lines := make([]string, len(names))
		for i, name := range names {
			lines[i] = "• " + name
		}
		quizList = strings.Join(lines, "\n")
	}

	howTo := strings.Join([]string{
		fmt.Sprintf("1. Use `%sstart` to start a new quiz", prefix),
		"2. Select which quiz you want to play",
		fmt.Sprintf("3. Players have %s to join", seconds(s.EnrollmentWindow)),
		fmt.Sprintf("4. Answer questions within %s", seconds(s.AnswerTimeout)),
		"5. Scoring:",
		"   • Correct answer: +1 point",
		"   • Wrong answer: 0 points",
		"   • No answer: -1 point",
	}, "\n")

	return domain.Panel{
		Title:       "📚 Quiz Game Help",
		Description: "Welcome to the Quiz Game! Here are the available quizzes:",
		Color:       domain.ColorBlue,
		Fields: []domain.PanelField{
			{Name: "Available Quizzes", Value: quizList},
			{Name: "How to Play", Value: howTo},
		},
	}
}

func selectionPanel(names []string) domain.Panel {
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = strconv.Itoa(i+1) + ". " + name
	}
	return domain.Panel{
		Title:       "Select a Quiz",
		Description: strings.Join(lines, "\n"),
		Color:       domain.ColorGreen,
	}
}

func joinPanel(window time.Duration) domain.Panel {
	return domain.Panel{
		Title:       "Who wants to join?",
		Description: fmt.Sprintf("React with 👍 to join! (%s to join)", seconds(window)),
		Color:       domain.ColorBlue,
		Joinable:    true,
	}
}

func questionPanel(q domain.Question, round, total int) domain.Panel {
	lines := make([]string, len(q.Options))
	for i, opt := range q.Options {
		lines[i] = strconv.Itoa(i+1) + ". " + opt
	}
	return domain.Panel{
		Title:       q.Prompt,
		Description: strings.Join(lines, "\n"),
		Color:       domain.ColorPurple,
		Fields: []domain.PanelField{
			{Name: "Question", Value: fmt.Sprintf("%d/%d", round, total)},
		},
	}
}

func timesUpText(q domain.Question) string {
	return "Time's up! Correct answer was: " + q.CorrectAnswer()
}

func topPanel(standings []domain.Standing) domain.Panel {
	fields := make([]domain.PanelField, 0, len(standings))
	for _, s := range standings {
		fields = append(fields, domain.PanelField{
			Name:  placeLabel(s.Rank),
			Value: fmt.Sprintf("%s: %s", s.Player.Name, points(s.Score)),
		})
	}
	return domain.Panel{
		Title:  fmt.Sprintf("🏆 Top %d Players 🏆", len(standings)),
		Color:  domain.ColorGold,
		Fields: fields,
	}
}

func finalPanel(title string, standings []domain.Standing) domain.Panel {
	fields := make([]domain.PanelField, 0, len(standings))
	for _, s := range standings {
		fields = append(fields, domain.PanelField{Name: s.Player.Name, Value: points(s.Score)})
	}
	return domain.Panel{Title: title, Color: domain.ColorGold, Fields: fields}
}

func placeLabel(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1] + " Place"
	}
	return fmt.Sprintf("#%d Place", rank)
}

func points(score int) string {
	if score == 1 || score == -1 {
		return fmt.Sprintf("%d point", score)
	}
	return fmt.Sprintf("%d points", score)
}

func seconds(d time.Duration) string {
	if d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
