package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/UkralStul/comment-store/internal/app"
	"github.com/UkralStul/comment-store/internal/config"
	"github.com/UkralStul/comment-store/internal/storage"
	"github.com/UkralStul/comment-store/internal/storage/file"
)

func newCheckCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the configured store is readable and valid",
		Long:  "Run the startup checks of the configured storage without serving. Unlike serve, a missing comments file or SQLite database is reported instead of created.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return runCheck(cmd, cfg)
		},
	}
}

func runCheck(cmd *cobra.Command, cfg config.Config) error {
	// Отсутствующее хранилище - ошибка, check ничего не создает
	switch cfg.StorageType {
	case config.StorageFile:
		if err := file.Check(cfg.CommentsFile); err != nil {
			return err
		}
	case config.StorageSQLite:
		if _, err := os.Stat(cfg.SQLitePath); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrUnreadable, err)
		}
	}

	store, err := app.OpenStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	comments, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %s storage, %d comments\n", cfg.StorageType, len(comments))
	return nil
}
