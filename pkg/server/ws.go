package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mofox-ui/pkg/logtail"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type statusFrame struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// wsSink writes stream messages to one connection. Only the stream
// goroutine writes.
type wsSink struct {
	conn *websocket.Conn
}

func (s wsSink) deadline() {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
}

func (s wsSink) Status(status, message string) error {
	s.deadline()
	return s.conn.WriteJSON(statusFrame{Type: "status", Status: status, Message: message})
}

func (s wsSink) Line(line string) error {
	s.deadline()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (s wsSink) Error(message string) error {
	s.deadline()
	return s.conn.WriteJSON(errorFrame{Type: "error", Message: message})
}

func (s wsSink) close() {
	s.deadline()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = s.conn.Close()
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	logger := s.logger.With("conn", uuid.NewString(), "remote", r.RemoteAddr)
	logger.Info("log stream opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends anything we use; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sink := wsSink{conn: conn}
	if err := logtail.Stream(ctx, s.state.LogPath, sink, s.tailOptions(logger)); err != nil {
		logger.Error("log stream failed", "error", err)
	}
	sink.close()
	logger.Info("log stream closed")
}
