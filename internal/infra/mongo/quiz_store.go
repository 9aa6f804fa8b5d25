package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// QuizStore reads quiz documents from a MongoDB collection, one document per quiz:
// {"name": ..., "questions": [{"question", "options", "correct_answer"}]}.
type QuizStore struct {
	collection *mongo.Collection
}

func NewQuizStore(db *mongo.Database, collection string) *QuizStore {
	return &QuizStore{collection: db.Collection(collection)}
}

// Connect dials uri and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// LoadQuizzes returns every document sorted by name. Documents that fail to decode are logged and
// skipped.
func (s *QuizStore) LoadQuizzes(ctx context.Context) ([]domain.QuizDocument, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find quizzes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []domain.QuizDocument
	for cursor.Next(ctx) {
		var doc domain.QuizDocument
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn("Skipping undecodable quiz document", "id", cursor.Current.Lookup("_id").String(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return docs, nil
}

// Upsert stores doc keyed by its name.
func (s *QuizStore) Upsert(ctx context.Context, doc domain.QuizDocument) error {
	if doc.Name == "" {
		return &domain.LoadError{Reason: "missing name", Err: domain.ErrInvalidQuiz}
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"name": doc.Name}, doc, opts); err != nil {
		return fmt.Errorf("upsert quiz %q: %w", doc.Name, err)
	}
	return nil
}
