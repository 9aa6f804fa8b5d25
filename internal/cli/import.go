package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"quiz-bot/internal/config"
	"quiz-bot/internal/infra/filestore"
	"quiz-bot/internal/logger"
)

// NewImportCmd copies quiz files into the configured database.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Validate quiz files (*.json, *.xlsx) and upsert them into Postgres or MongoDB",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runImport(cmd.Context(), *configPath, dir)
		},
	}
}

func runImport(ctx context.Context, configPath, dir string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if dir == "" {
		dir = cfg.Quizzes.Dir
	}

	if cfg.Quizzes.Source == config.SourcePostgres {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	docs, err := filestore.NewDirectoryStore(dir).LoadQuizzes(ctx)
	if err != nil {
		return err
	}

	imported := 0
	for _, doc := range docs {
		if _, err := doc.Validate(); err != nil {
			logger.Warn("Skipping invalid quiz", "quiz", doc.Name, "error", err)
			continue
		}
		if err := store.Upsert(ctx, doc); err != nil {
			return err
		}
		imported++
	}
	logger.Info("Import finished", "dir", dir, "source", cfg.Quizzes.Source, "imported", imported, "skipped", len(docs)-imported)
	fmt.Printf("Successfully imported %d quizzes.\n", imported)
	return nil
}
