package app_test

import (
	"context"
	"errors"
	"testing"

	"quiz-bot/internal/app"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/infra/memory"
)

func TestLoadCatalogSkipsInvalidDocuments(t *testing.T) {
	source := memory.NewStaticSource(
		capitalsQuiz(),
		domain.QuizDocument{Name: "broken", Questions: []domain.QuestionDocument{
			{Question: "2+2?", Options: []string{"3", "5"}, CorrectAnswer: "4"},
		}},
		mathQuiz(),
		domain.QuizDocument{Name: "capitals", Questions: mathQuiz().Questions},
	)

	catalog, err := app.LoadCatalog(context.Background(), source)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	names := catalog.Names()
	if len(names) != 2 || names[0] != "capitals" || names[1] != "math" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, err := catalog.Get("broken"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected broken quiz rejected, got %v", err)
	}

	quiz, err := catalog.Get("capitals")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if quiz.Questions[0].CorrectAnswer() != "Paris" {
		t.Fatalf("expected first capitals document to win, got %+v", quiz.Questions[0])
	}

	if q, ok := catalog.At(1); !ok || q.Name != "math" {
		t.Fatalf("At(1) = %v %v", q.Name, ok)
	}
	if _, ok := catalog.At(2); ok {
		t.Fatalf("expected At(2) out of range")
	}
	if _, ok := catalog.At(-1); ok {
		t.Fatalf("expected At(-1) out of range")
	}
}

type failingSource struct{}

func (failingSource) LoadQuizzes(context.Context) ([]domain.QuizDocument, error) {
	return nil, errors.New("store offline")
}

func TestLoadCatalogSourceFailure(t *testing.T) {
	if _, err := app.LoadCatalog(context.Background(), failingSource{}); err == nil {
		t.Fatal("expected source error")
	}
}

func TestCatalogNamesIsACopy(t *testing.T) {
	catalog := app.NewCatalog([]domain.QuizDocument{capitalsQuiz()})
	names := catalog.Names()
	names[0] = "changed"
	if catalog.Names()[0] != "capitals" {
		t.Fatalf("Names exposed internal slice")
	}
}
