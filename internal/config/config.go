package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"quiz-bot/internal/domain"
)

// Quiz sources.
const (
	SourceDir      = "dir"
	SourcePostgres = "postgres"
	SourceMongo    = "mongo"
)

// Chat transports.
const (
	TransportTelegram  = "telegram"
	TransportWebSocket = "websocket"
)

type Config struct {
	Bot struct {
		TokenFile     string `yaml:"token_file"`
		CommandPrefix string `yaml:"command_prefix"`
		Transport     string `yaml:"transport"`
	} `yaml:"bot"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Game struct {
		SelectionTimeout string `yaml:"selection_timeout"`
		EnrollmentWindow string `yaml:"enrollment_window"`
		AnswerTimeout    string `yaml:"answer_timeout"`
		RoundPause       string `yaml:"round_pause"`
		TopN             int    `yaml:"top_n"`
		// PerChannel lets every channel run its own game instead of one per process.
		PerChannel bool `yaml:"per_channel"`
	} `yaml:"game"`
	Quizzes struct {
		Source string `yaml:"source"`
		Dir    string `yaml:"dir"`
	} `yaml:"quizzes"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI        string `yaml:"uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`
	Log struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"`
	} `yaml:"log"`
}

// Timings are the parsed game durations.
type Timings struct {
	SelectionTimeout time.Duration
	EnrollmentWindow time.Duration
	AnswerTimeout    time.Duration
	RoundPause       time.Duration
	TopN             int
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.TokenFile == "" {
		c.Bot.TokenFile = "token.txt"
	}
	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = ","
	}
	if c.Bot.Transport == "" {
		c.Bot.Transport = TransportTelegram
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Game.TopN <= 0 {
		c.Game.TopN = 3
	}
	if c.Quizzes.Source == "" {
		c.Quizzes.Source = SourceDir
	}
	if c.Quizzes.Dir == "" {
		c.Quizzes.Dir = "quizzes"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "quizbot"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "quizzes"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = "production"
	}
}

// Timings parses the game section, falling back to the classic 30/15/5/2 second rhythm.
func (c Config) Timings() Timings {
	return Timings{
		SelectionTimeout: TTLDuration(c.Game.SelectionTimeout, 30*time.Second),
		EnrollmentWindow: TTLDuration(c.Game.EnrollmentWindow, 15*time.Second),
		AnswerTimeout:    TTLDuration(c.Game.AnswerTimeout, 5*time.Second),
		RoundPause:       TTLDuration(c.Game.RoundPause, 2*time.Second),
		TopN:             c.Game.TopN,
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// LoadToken reads the bot secret from a local file.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.StartupConfigError{Path: path, Err: err}
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", &domain.StartupConfigError{Path: path, Err: errors.New("token file is empty")}
	}
	return token, nil
}
