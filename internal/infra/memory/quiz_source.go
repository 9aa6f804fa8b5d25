package memory

import (
	"context"

	"quiz-bot/internal/domain"
)

// StaticSource serves quiz documents from memory (tests, demos, the built-in example).
type StaticSource struct {
	docs []domain.QuizDocument
}

func NewStaticSource(docs ...domain.QuizDocument) *StaticSource {
	return &StaticSource{docs: docs}
}

func (s *StaticSource) LoadQuizzes(_ context.Context) ([]domain.QuizDocument, error) {
	docs := make([]domain.QuizDocument, len(s.docs))
	copy(docs, s.docs)
	return docs, nil
}

// ExampleQuiz is the quiz seeded into an empty quiz directory.
func ExampleQuiz() domain.QuizDocument {
	return domain.QuizDocument{
		Name: "example_quiz",
		Questions: []domain.QuestionDocument{
			{
				Question:      "What is the capital of France?",
				Options:       []string{"London", "Berlin", "Paris", "Madrid"},
				CorrectAnswer: "Paris",
			},
			{
				Question:      "What is 2 + 2?",
				Options:       []string{"3", "4", "5", "6"},
				CorrectAnswer: "4",
			},
		},
	}
}
