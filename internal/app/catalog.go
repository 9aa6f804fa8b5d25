package app

import (
	"context"
	"fmt"

	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// Catalog indexes validated quizzes by name. It is read-only once built.
type Catalog struct {
	names   []string
	quizzes map[string]domain.Quiz
}

// LoadCatalog reads every document from source. Invalid documents are skipped with a warning;
// only a failure of the source itself is returned.
func LoadCatalog(ctx context.Context, source QuizSource) (*Catalog, error) {
	docs, err := source.LoadQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	return NewCatalog(docs), nil
}

// NewCatalog validates docs, keeping their order. The first document wins on duplicate names.
func NewCatalog(docs []domain.QuizDocument) *Catalog {
	c := &Catalog{quizzes: make(map[string]domain.Quiz, len(docs))}
	for _, doc := range docs {
		quiz, err := doc.Validate()
		if err != nil {
			logger.Warn("Skipping invalid quiz", "quiz", doc.Name, "error", err)
			continue
		}
		if _, dup := c.quizzes[quiz.Name]; dup {
			logger.Warn("Skipping duplicate quiz", "quiz", quiz.Name)
			continue
		}
		c.names = append(c.names, quiz.Name)
		c.quizzes[quiz.Name] = quiz
	}
	logger.Info("Quiz catalog loaded", "quizzes", len(c.names), "skipped", len(docs)-len(c.names))
	return c
}

// Names returns quiz names in load order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

func (c *Catalog) Get(name string) (domain.Quiz, error) {
	quiz, ok := c.quizzes[name]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// At resolves a 0-based menu position.
func (c *Catalog) At(i int) (domain.Quiz, bool) {
	if i < 0 || i >= len(c.names) {
		return domain.Quiz{}, false
	}
	return c.quizzes[c.names[i]], true
}

func (c *Catalog) Len() int {
	return len(c.names)
}

func (c *Catalog) Empty() bool {
	return len(c.names) == 0
}
