package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"quiz-bot/internal/app"
	"quiz-bot/internal/chat"
	"quiz-bot/internal/config"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/infra/memory"
	rediscache "quiz-bot/internal/infra/redis"
	"quiz-bot/internal/logger"
	transport "quiz-bot/internal/transport/http"
	"quiz-bot/internal/transport/telegram"
)

// leaderboard is both written by games and read over HTTP.
type leaderboard interface {
	app.LeaderboardMirror
	transport.StandingsReader
}

// NewStartCmd builds the CLI subcommand that runs the bot.
func NewStartCmd(configPath, tokenFile, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), *configPath, *tokenFile, *port)
		},
	}
}

func runStart(ctx context.Context, configPath, tokenFlag, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tokenPath := tokenFlag
	if tokenPath == "" {
		tokenPath = cfg.Bot.TokenFile
	}
	token, err := config.LoadToken(tokenPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read bot token from %s. Put the token in that file or pass --token-file.\n", tokenPath)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Quizzes.Source == config.SourcePostgres && cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	source, closeSource, err := openSource(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeSource()

	catalog, err := app.LoadCatalog(ctx, source)
	if err != nil {
		return err
	}

	settings := settingsFrom(cfg)
	var (
		slots app.SessionSlots = memory.NewSessionSlots()
		board leaderboard      = memory.NewLeaderboard()
	)
	if redisClient != nil {
		ttl := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		slots = rediscache.NewSessionSlots(redisClient, settings.SlotLease())
		board = rediscache.NewLeaderboard(redisClient, ttl)
	}

	hub := chat.NewHub()

	g, gctx := errgroup.WithContext(ctx)
	var (
		bot    *app.Bot
		server *transport.Server
	)
	switch cfg.Bot.Transport {
	case config.TransportTelegram:
		tg, err := telegram.New(token, cfg.Log.Env == "development")
		if err != nil {
			return err
		}
		controller := app.NewController(catalog, chat.NewMessenger(hub, tg), slots, board, settings)
		bot = app.NewBot(controller, hub, settings.CommandPrefix)
		tg.Bind(bot, hub)
		server = transport.NewServer(nil, nil, nil, board, "")
		g.Go(func() error { return tg.Run(gctx) })
	case config.TransportWebSocket:
		rooms := transport.NewRooms()
		controller := app.NewController(catalog, chat.NewMessenger(hub, rooms), slots, board, settings)
		bot = app.NewBot(controller, hub, settings.CommandPrefix)
		// The bot token doubles as the room key for WebSocket clients.
		server = transport.NewServer(rooms, bot, hub, board, token)
	default:
		return &domain.StartupConfigError{Path: configPath, Err: fmt.Errorf("unknown transport %q", cfg.Bot.Transport)}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	g.Go(func() error { return server.Run(gctx, ":"+finalPort) })

	logger.Info("Bot is ready", "transport", cfg.Bot.Transport, "quizzes", catalog.Len(), "prefix", settings.CommandPrefix)
	err = g.Wait()
	bot.Wait()
	logger.Info("Bot stopped")
	return err
}

func settingsFrom(cfg config.Config) app.Settings {
	t := cfg.Timings()
	return app.Settings{
		SelectionTimeout: t.SelectionTimeout,
		EnrollmentWindow: t.EnrollmentWindow,
		AnswerTimeout:    t.AnswerTimeout,
		RoundPause:       t.RoundPause,
		TopN:             t.TopN,
		PerChannel:       cfg.Game.PerChannel,
		CommandPrefix:    cfg.Bot.CommandPrefix,
	}
}
