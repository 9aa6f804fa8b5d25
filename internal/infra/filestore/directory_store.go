package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

const (
	extJSON = ".json"
	extXLSX = ".xlsx"
)

// DirectoryStore reads one quiz per file from a directory. The file name without extension is the
// quiz name; *.json and *.xlsx are supported.
type DirectoryStore struct {
	dir  string
	seed *domain.QuizDocument
}

type Option func(*DirectoryStore)

// WithSeed writes doc into the directory when LoadQuizzes finds no quiz files there.
func WithSeed(doc domain.QuizDocument) Option {
	return func(s *DirectoryStore) { s.seed = &doc }
}

func NewDirectoryStore(dir string, opts ...Option) *DirectoryStore {
	s := &DirectoryStore{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DirectoryStore) Dir() string {
	return s.dir
}

// LoadQuizzes returns the documents in file name order. Files that cannot be decoded are logged
// and skipped.
func (s *DirectoryStore) LoadQuizzes(ctx context.Context) ([]domain.QuizDocument, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read quiz directory: %w", err)
	}

	var docs []domain.QuizDocument
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		doc, ok, err := s.readFile(entry.Name())
		if !ok {
			continue
		}
		if err != nil {
			logger.Warn("Skipping unreadable quiz file", "file", entry.Name(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Save writes doc as <name>.json, replacing an existing file.
func (s *DirectoryStore) Save(doc domain.QuizDocument) error {
	if doc.Name == "" {
		return &domain.LoadError{Reason: "missing name", Err: domain.ErrInvalidQuiz}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(quizFile{Questions: doc.Questions}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, doc.Name+extJSON), raw, 0o644)
}

func (s *DirectoryStore) ensureDir() error {
	_, err := os.Stat(s.dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("create quiz directory: %w", err)
		}
		logger.Info("Created quiz directory", "dir", s.dir)
	case err != nil:
		return fmt.Errorf("stat quiz directory: %w", err)
	}

	if s.seed == nil {
		return nil
	}
	empty, err := s.noQuizFiles()
	if err != nil || !empty {
		return err
	}
	if err := s.Save(*s.seed); err != nil {
		return fmt.Errorf("seed quiz directory: %w", err)
	}
	logger.Info("Seeded quiz directory", "dir", s.dir, "quiz", s.seed.Name)
	return nil
}

func (s *DirectoryStore) noQuizFiles() (bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return false, fmt.Errorf("read quiz directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case extJSON, extXLSX:
			return false, nil
		}
	}
	return true, nil
}

// readFile reports ok=false for files that are not quiz documents.
func (s *DirectoryStore) readFile(fileName string) (domain.QuizDocument, bool, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	path := filepath.Join(s.dir, fileName)

	var (
		doc domain.QuizDocument
		err error
	)
	switch ext {
	case extJSON:
		doc, err = readJSON(path)
	case extXLSX:
		doc, err = readXLSX(path)
	default:
		return domain.QuizDocument{}, false, nil
	}
	if err != nil {
		return domain.QuizDocument{}, true, &domain.LoadError{Name: name, Reason: "decode " + ext[1:], Err: err}
	}
	doc.Name = name
	return doc, true, nil
}

type quizFile struct {
	Questions []domain.QuestionDocument `json:"questions"`
}

func readJSON(path string) (domain.QuizDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.QuizDocument{}, err
	}
	var f quizFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.QuizDocument{}, err
	}
	return domain.QuizDocument{Questions: f.Questions}, nil
}

// readXLSX reads the first sheet: a header row, then one question per row laid out as
// question | option 1 .. option n | correct_answer.
func readXLSX(path string) (domain.QuizDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.QuizDocument{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.QuizDocument{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return domain.QuizDocument{}, err
	}

	var doc domain.QuizDocument
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		cells := trimCells(row)
		if len(cells) < 2 {
			doc.Questions = append(doc.Questions, domain.QuestionDocument{Question: first(cells)})
			continue
		}
		doc.Questions = append(doc.Questions, domain.QuestionDocument{
			Question:      cells[0],
			Options:       cells[1 : len(cells)-1],
			CorrectAnswer: cells[len(cells)-1],
		})
	}
	return doc, nil
}

func trimCells(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func first(cells []string) string {
	if len(cells) == 0 {
		return ""
	}
	return cells[0]
}
