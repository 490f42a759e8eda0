package api

import (
	"sync"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/google/uuid"
)

// CommentObserver хранит каналы подписчиков на новые комментарии.
type CommentObserver struct {
	mu sync.RWMutex
	//    map[subscriberID] channel
	subs map[string]chan domain.Comment
}

// NewCommentObserver - конструктор наблюдателя.
func NewCommentObserver() *CommentObserver {
	return &CommentObserver{
		subs: make(map[string]chan domain.Comment),
	}
}

// Subscribe регистрирует нового подписчика. Возвращает канал и функцию отписки.
func (o *CommentObserver) Subscribe(buffer int) (<-chan domain.Comment, func()) {
	ch := make(chan domain.Comment, buffer)
	subID := uuid.NewString()

	o.mu.Lock()
	o.subs[subID] = ch
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, subID)
			o.mu.Unlock()
		})
	}
}

// Publish рассылает комментарий всем подписчикам, не блокируясь:
// если клиент не успевает читать, сообщение для него пропускается.
func (o *CommentObserver) Publish(c domain.Comment) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Len возвращает число активных подписчиков.
func (o *CommentObserver) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}
