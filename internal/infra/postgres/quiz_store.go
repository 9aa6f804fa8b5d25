package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// QuizStore keeps quiz documents as JSONB rows keyed by quiz name.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

// LoadQuizzes returns every stored document ordered by name. Rows that fail to decode are logged
// and skipped.
func (s *QuizStore) LoadQuizzes(ctx context.Context) ([]domain.QuizDocument, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	var docs []domain.QuizDocument
	for rows.Next() {
		var (
			name string
			raw  []byte
		)
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var doc domain.QuizDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			logger.Warn("Skipping undecodable quiz row", "error", &domain.LoadError{Name: name, Reason: "decode jsonb", Err: err})
			continue
		}
		doc.Name = name
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return docs, nil
}

// Upsert stores doc under its name, replacing an existing quiz with the same name.
func (s *QuizStore) Upsert(ctx context.Context, doc domain.QuizDocument) error {
	if doc.Name == "" {
		return &domain.LoadError{Reason: "missing name", Err: domain.ErrInvalidQuiz}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		doc.Name, string(raw))
	if err != nil {
		return fmt.Errorf("upsert quiz %q: %w", doc.Name, err)
	}
	return nil
}
