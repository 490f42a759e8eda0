package api

import (
	"net/http"
	"time"

	"github.com/UkralStul/comment-store/internal/logging"
	"github.com/gorilla/websocket"
)

const (
	pingInterval     = 10 * time.Second
	writeWait        = 5 * time.Second
	subscriberBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamComments отдает по websocket каждый новый комментарий отдельным
// JSON-сообщением, пока клиент не отключится или сервер не остановится.
func (h *Handler) StreamComments(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту ошибкой
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	comments, unsubscribe := h.observer.Subscribe(subscriberBuffer)
	defer unsubscribe()

	// Читаем входящие кадры только чтобы заметить отключение клиента
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case <-h.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return

		case c := <-comments:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(c); err != nil {
				log.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
