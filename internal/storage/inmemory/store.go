package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/UkralStul/comment-store/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu       sync.RWMutex
	comments []domain.Comment
	now      func() time.Time
}

// New создает новый экземпляр in-memory хранилища.
// seed - начальные комментарии (например, для демо или тестов).
func New(seed ...domain.Comment) *Store {
	comments := make([]domain.Comment, 0, len(seed))
	comments = append(comments, seed...)
	return &Store{
		comments: comments,
		now:      time.Now,
	}
}

func (s *Store) List(ctx context.Context) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked(), nil
}

func (s *Store) Append(ctx context.Context, in domain.NewComment) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment := in.Build(storage.NextID(storage.MaxID(s.comments), s.now()))
	s.comments = append(s.comments, comment)

	return s.snapshotLocked(), nil
}

func (s *Store) Close() error { return nil }

// snapshotLocked возвращает копию, чтобы вызывающий не мог изменить хранилище
func (s *Store) snapshotLocked() []domain.Comment {
	out := make([]domain.Comment, len(s.comments))
	copy(out, s.comments)
	return out
}
