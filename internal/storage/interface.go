package storage

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/comment-store/internal/domain"
)

var (
	ErrUnreadable  = errors.New("comment store is unreadable")
	ErrUnparseable = errors.New("comment store is not a valid comment array")
	ErrUnwritable  = errors.New("comment store is unwritable")
)

// Storage определяет контракт для хранилищ.
type Storage interface {
	// List возвращает все комментарии в порядке добавления.
	List(ctx context.Context) ([]domain.Comment, error)
	// Append сохраняет новый комментарий и возвращает весь обновленный список;
	// новый комментарий в нем последний.
	Append(ctx context.Context, in domain.NewComment) ([]domain.Comment, error)
	Close() error
}

// NextID выдает ID на основе текущего времени в миллисекундах.
// Результат всегда больше lastID, поэтому при последовательных
// записях ID не повторяются, даже в пределах одной миллисекунды.
func NextID(lastID int64, now time.Time) int64 {
	ms := now.UnixMilli()
	if ms <= lastID {
		return lastID + 1
	}
	return ms
}

// MaxID возвращает наибольший ID в списке (0 для пустого).
func MaxID(comments []domain.Comment) int64 {
	var maxID int64
	for _, c := range comments {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID
}
