package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the catalog has no quiz with the requested name.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuizzes is returned when a game is started against an empty catalog.
	ErrNoQuizzes = errors.New("no quizzes available")
	// ErrEnrollmentEmpty is returned when nobody joined during the enrollment window.
	ErrEnrollmentEmpty = errors.New("no players joined")
	// ErrSessionActive is returned when the session slot is already held by a running game.
	ErrSessionActive = errors.New("a game is already running")
	// ErrResultMismatch indicates a round result does not cover exactly the enrolled players.
	ErrResultMismatch = errors.New("round result does not match enrolled players")
	// ErrCorrectAnswerNotInOptions rejects questions whose correct_answer is not one of the options.
	ErrCorrectAnswerNotInOptions = errors.New("correct_answer is not one of the options")
	// ErrInvalidQuiz is matched by every LoadError.
	ErrInvalidQuiz = errors.New("invalid quiz document")
)

func errMissingField(field string) error {
	return fmt.Errorf("missing %s", field)
}

// LoadError describes a quiz document that failed validation. The catalog skips such documents.
type LoadError struct {
	Name   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "invalid quiz"
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrInvalidQuiz }

// SelectionError is returned when the requester does not pick a valid quiz in time.
type SelectionError struct {
	Input    string
	TimedOut bool
}

func (e *SelectionError) Error() string {
	if e.TimedOut {
		return "quiz selection timed out"
	}
	return fmt.Sprintf("invalid quiz selection %q", e.Input)
}

// StartupConfigError is fatal: the process cannot start without its configuration.
type StartupConfigError struct {
	Path string
	Err  error
}

func (e *StartupConfigError) Error() string {
	return fmt.Sprintf("startup config %s: %v", e.Path, e.Err)
}

func (e *StartupConfigError) Unwrap() error { return e.Err }

// TransportError wraps a failure of the chat transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
