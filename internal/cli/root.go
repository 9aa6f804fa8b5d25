package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	tokenFile  string
)

// Execute runs the CLI.
func Execute() error {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-bot",
		Short:        "Timed multiplayer trivia for group chats",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&tokenFile, "token-file", os.Getenv("TOKEN_FILE"), "file holding the bot token (overrides bot.token_file)")
	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "HTTP port (overrides server.port)")
	cmd.AddCommand(NewStartCmd(&configPath, &tokenFile, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewImportCmd(&configPath))
	cmd.AddCommand(NewListCmd(&configPath))
	return cmd
}
