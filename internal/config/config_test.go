package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-bot/internal/domain"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bot.CommandPrefix != "," {
		t.Fatalf("CommandPrefix = %q, want %q", cfg.Bot.CommandPrefix, ",")
	}
	if cfg.Quizzes.Source != SourceDir || cfg.Quizzes.Dir != "quizzes" {
		t.Fatalf("unexpected quiz source %+v", cfg.Quizzes)
	}

	timings := cfg.Timings()
	if timings.SelectionTimeout != 30*time.Second || timings.EnrollmentWindow != 15*time.Second {
		t.Fatalf("unexpected timings %+v", timings)
	}
	if timings.AnswerTimeout != 5*time.Second || timings.RoundPause != 2*time.Second || timings.TopN != 3 {
		t.Fatalf("unexpected timings %+v", timings)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
bot:
  command_prefix: "!"
  transport: websocket
game:
  answer_timeout: 750ms
  top_n: 5
  per_channel: true
quizzes:
  source: postgres
postgres:
  url: postgres://quiz@localhost/quiz
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bot.CommandPrefix != "!" || cfg.Bot.Transport != TransportWebSocket {
		t.Fatalf("unexpected bot section %+v", cfg.Bot)
	}
	if !cfg.Game.PerChannel {
		t.Fatalf("expected per_channel")
	}
	if got := cfg.Timings().AnswerTimeout; got != 750*time.Millisecond {
		t.Fatalf("AnswerTimeout = %v", got)
	}
	if cfg.Timings().TopN != 5 {
		t.Fatalf("TopN = %d", cfg.Timings().TopN)
	}
	if cfg.Quizzes.Source != SourcePostgres || cfg.Postgres.URL == "" {
		t.Fatalf("unexpected source %+v", cfg.Quizzes)
	}
	if cfg.Bot.TokenFile != "token.txt" {
		t.Fatalf("expected default token file, got %q", cfg.Bot.TokenFile)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bot: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("empty: got %v", got)
	}
	if got := TTLDuration("nonsense", time.Second); got != time.Second {
		t.Fatalf("invalid: got %v", got)
	}
	if got := TTLDuration("3s", time.Second); got != 3*time.Second {
		t.Fatalf("valid: got %v", got)
	}
}

func TestLoadToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.txt")
	if err := os.WriteFile(path, []byte("  secret-token\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	token, err := LoadToken(path)
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if token != "secret-token" {
		t.Fatalf("token = %q", token)
	}
}

func TestLoadTokenFailures(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.txt"), empty} {
		_, err := LoadToken(path)
		var cfgErr *domain.StartupConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected StartupConfigError, got %v", path, err)
		}
		if cfgErr.Path != path {
			t.Fatalf("expected path %s in error, got %s", path, cfgErr.Path)
		}
	}
}
