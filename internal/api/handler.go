package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/UkralStul/comment-store/internal/logging"
	"github.com/UkralStul/comment-store/internal/storage"
)

// Handler обслуживает /api/comments поверх любого Storage.
type Handler struct {
	store    storage.Storage
	observer *CommentObserver

	failFast bool
	exit     func(code int)

	// appendMu держит запись и публикацию вместе, чтобы стрим
	// получал комментарии в том же порядке, что и хранилище.
	appendMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Handler)

// WithFailFast включает режим совместимости: любая ошибка хранилища
// завершает процесс через exit(1) вместо ответа 500.
func WithFailFast(exit func(code int)) Option {
	return func(h *Handler) {
		h.failFast = true
		h.exit = exit
	}
}

func NewHandler(store storage.Storage, observer *CommentObserver, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		observer: observer,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Close завершает открытые websocket-стримы. Вызывается при остановке сервера.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.List(r.Context())
	if err != nil {
		h.storeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	in, err := decodeNewComment(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.appendAndPublish(r, in)
	if err != nil {
		h.storeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) appendAndPublish(r *http.Request, in domain.NewComment) ([]domain.Comment, error) {
	h.appendMu.Lock()
	defer h.appendMu.Unlock()

	comments, err := h.store.Append(r.Context(), in)
	if err != nil {
		return nil, err
	}
	// Новый комментарий всегда последний в списке
	if len(comments) > 0 {
		h.observer.Publish(comments[len(comments)-1])
	}
	return comments, nil
}

func (h *Handler) storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())
	log.Error("comment store failure", "error", err)

	if h.failFast {
		log.Error("fail-fast is enabled, terminating")
		h.exit(1)
	}
	writeError(w, http.StatusInternalServerError, "comment store unavailable")
}

// decodeNewComment разбирает тело как JSON или как форму. Для прочих
// типов содержимого возвращает пустой ввод, как и без тела вовсе.
func decodeNewComment(r *http.Request) (domain.NewComment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		var body struct {
			Author *string `json:"author"`
			Text   *string `json:"text"`
		}
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil {
			if errors.Is(err, io.EOF) {
				return domain.NewComment{}, nil
			}
			return domain.NewComment{}, fmt.Errorf("invalid JSON body: %w", err)
		}
		// После объекта допустимы только пробелы
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			if err != nil {
				return domain.NewComment{}, fmt.Errorf("invalid JSON body: %w", err)
			}
			return domain.NewComment{}, errors.New("invalid JSON body: unexpected data after the object")
		}
		return domain.NewComment{Author: body.Author, Text: body.Text}, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return domain.NewComment{}, fmt.Errorf("invalid form body: %w", err)
		}
		return domain.NewComment{
			Author: formValue(r.PostForm, "author"),
			Text:   formValue(r.PostForm, "text"),
		}, nil

	default:
		return domain.NewComment{}, nil
	}
}

func formValue(form url.Values, key string) *string {
	vs, ok := form[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

func writeJSON(w http.ResponseWriter, status int, comments []domain.Comment) {
	if comments == nil {
		comments = []domain.Comment{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(comments)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
