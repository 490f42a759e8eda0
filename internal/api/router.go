package api

import (
	"log/slog"
	"net/http"

	"github.com/UkralStul/comment-store/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

// Лимит тела запроса как у body-parser по умолчанию
const maxBodyBytes = 100 << 10

type RouterConfig struct {
	Logger *slog.Logger
	// PublicDir - каталог статики, отдается с корня сайта. Пустая строка отключает статику.
	PublicDir string
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SetHeader("Access-Control-Allow-Origin", "*"))
	router.Use(middleware.SetHeader("Cache-Control", "no-cache"))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// websocket идет мимо gzip: соединение перехватывается (hijack)
	router.Get("/api/comments/stream", h.StreamComments)

	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

		r.Get("/api/comments", h.ListComments)
		r.With(middleware.RequestSize(maxBodyBytes)).Post("/api/comments", h.AddComment)

		if cfg.PublicDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
		}
	})

	return router
}
