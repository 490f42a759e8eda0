// Package cli - дерево команд cobra для сервиса комментариев.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/UkralStul/comment-store/internal/config"
)

// rootFlags - значения флагов; в конфиг попадают только явно заданные.
type rootFlags struct {
	configPath  string
	port        string
	storageType string
	file        string
	sqlitePath  string
	databaseURL string
	publicDir   string
	logFormat   string
	failFast    bool
}

// NewRootCmd создает корневую команду. Без подкоманды запускает сервер.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}

	root := &cobra.Command{
		Use:           "comments",
		Short:         "Serve a list of comments stored in a JSON file",
		Long:          "An HTTP API that lists and appends comments. The store is a flat JSON file by default; memory, SQLite and PostgreSQL backends are also available.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&f.port, "port", "", "port to listen on (env PORT, default 3000)")
	pf.StringVar(&f.storageType, "storage", "", "storage type: file, memory, sqlite or postgres")
	pf.StringVar(&f.file, "file", "", "comments JSON file for the file storage")
	pf.StringVar(&f.sqlitePath, "sqlite", "", "database path for the sqlite storage")
	pf.StringVar(&f.databaseURL, "database-url", "", "DSN for the postgres storage")
	pf.StringVar(&f.publicDir, "public", "", "directory with static files served at /")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: json or text")
	pf.BoolVar(&f.failFast, "fail-fast", false, "exit the process on any storage error instead of answering 500")

	root.AddCommand(
		newServeCmd(f),
		newCheckCmd(f),
	)

	return root
}

// loadConfig собирает конфиг из файла и окружения и накладывает поверх явно заданные флаги.
func loadConfig(cmd *cobra.Command, f *rootFlags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	overrides := []struct {
		name string
		dst  *string
		val  string
	}{
		{"port", &cfg.Port, f.port},
		{"storage", &cfg.StorageType, f.storageType},
		{"file", &cfg.CommentsFile, f.file},
		{"sqlite", &cfg.SQLitePath, f.sqlitePath},
		{"database-url", &cfg.DatabaseURL, f.databaseURL},
		{"public", &cfg.PublicDir, f.publicDir},
		{"log-format", &cfg.LogFormat, f.logFormat},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.val
		}
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = f.failFast
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
