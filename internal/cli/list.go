package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"quiz-bot/internal/app"
	"quiz-bot/internal/logger"
)

// NewListCmd prints the quizzes the bot would offer.
func NewListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the playable quizzes from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), *configPath, cmd.OutOrStdout())
		},
	}
}

func runList(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

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
	if catalog.Empty() {
		fmt.Fprintln(out, "No quizzes available")
		return nil
	}
	for i, name := range catalog.Names() {
		quiz, _ := catalog.At(i)
		fmt.Fprintf(out, "%d. %s (%d questions)\n", i+1, name, len(quiz.Questions))
	}
	return nil
}
