package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/UkralStul/comment-store/internal/api"
	"github.com/UkralStul/comment-store/internal/config"
	"github.com/UkralStul/comment-store/internal/logging"
	"github.com/UkralStul/comment-store/internal/storage"
	"github.com/UkralStul/comment-store/internal/storage/file"
	"github.com/UkralStul/comment-store/internal/storage/inmemory"
	"github.com/UkralStul/comment-store/internal/storage/postgres"
	"github.com/UkralStul/comment-store/internal/storage/sqlite"
)

type App struct {
	cfg     config.Config
	srv     *http.Server
	store   storage.Storage
	handler *api.Handler
}

// OpenStorage открывает хранилище выбранного типа и выполняет стартовые проверки.
func OpenStorage(cfg config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case config.StorageFile:
		return file.New(cfg.CommentsFile)
	case config.StorageMemory:
		return inmemory.New(), nil
	case config.StorageSQLite:
		return sqlite.New(cfg.SQLitePath)
	case config.StoragePostgres:
		return postgres.New(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	log := logging.FromContext(ctx)

	store, err := OpenStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageType, err)
	}

	var opts []api.Option
	if cfg.FailFast {
		opts = append(opts, api.WithFailFast(os.Exit))
	}
	handler := api.NewHandler(store, api.NewCommentObserver(), opts...)

	publicDir := cfg.PublicDir
	if publicDir != "" {
		if info, err := os.Stat(publicDir); err != nil || !info.IsDir() {
			log.Warn("public directory not found, static files disabled", "dir", publicDir)
			publicDir = ""
		}
	}

	router := api.NewRouter(handler, api.RouterConfig{
		Logger:    log,
		PublicDir: publicDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown не закрывает перехваченные соединения, стримы закрываем сами
	srv.RegisterOnShutdown(handler.Close)

	log.Info("app initialized",
		slog.String("addr", srv.Addr),
		slog.String("storage", cfg.StorageType),
		slog.Bool("fail_fast", cfg.FailFast),
	)
	return &App{cfg: cfg, srv: srv, store: store, handler: handler}, nil
}

// Handler нужен тестам, чтобы гонять запросы без сети.
func (a *App) Handler() http.Handler { return a.srv.Handler }

func (a *App) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shErr := a.srv.Shutdown(shCtx)
		return errors.Join(shErr, a.closeStore())

	case err := <-errCh:
		a.handler.Close()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return errors.Join(err, a.closeStore())
	}
}

func (a *App) closeStore() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
