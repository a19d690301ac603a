package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumenframe/studio-api/internal/session"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware; the websocket
	// carries advisory progress only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// joinMessage is the only message clients send: which session to follow.
type joinMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// wsMessage is the server-to-client frame.
type wsMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Status    string `json:"status,omitempty"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
}

// wsSubscriber adapts a websocket connection to the session subscriber
// interface. Writes are serialized; gorilla connections do not allow
// concurrent writers.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(ev session.Event) error {
	return s.write(wsMessage{
		Type:     "progress",
		Status:   ev.Status,
		Progress: ev.Progress,
		Message:  ev.Message,
	})
}

func (s *wsSubscriber) write(msg wsMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(msg)
}

// ProgressSocket handles GET /ws/progress. Clients join a session with
// {type:"join", sessionId} and then receive its progress events until they
// join another session or disconnect.
func (h *Handlers) ProgressSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	sub := &wsSubscriber{conn: conn}
	defer func() {
		h.sessions.Unsubscribe(sub)
		_ = conn.Close()
	}()

	for {
		var msg joinMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "join" || msg.SessionID == "" {
			_ = sub.write(wsMessage{Type: "error", Message: "expected join message with sessionId"})
			continue
		}

		h.sessions.Subscribe(msg.SessionID, sub)
		if err := sub.write(wsMessage{Type: "joined", SessionID: msg.SessionID}); err != nil {
			return
		}
	}
}
