package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512
)

// Message types sent over /ws
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// Message is one JSON frame of the /ws stream.
type Message struct {
	Type     string           `json:"type"`
	Snapshot *heater.Snapshot `json:"snapshot,omitempty"`
	Stale    bool             `json:"stale,omitempty"`
	Error    string           `json:"error,omitempty"`
	At       time.Time        `json:"at"`
}

var upgrader = websocket.Upgrader{
	// The gateway is meant for the local network
	CheckOrigin: func(*http.Request) bool { return true },
}

// messageFromUpdate converts a coordinator update into a stream frame.
func messageFromUpdate(u coordinator.Update) Message {
	if u.Err != nil {
		return Message{Type: MessageError, Error: heater.GetShortErrorMessage(u.Err), At: u.At}
	}
	return Message{Type: MessageSnapshot, Snapshot: u.Snapshot, Stale: u.Stale, At: u.At}
}

// handleWebSocket streams every coordinator update to the client. The
// current snapshot, if any, is sent right after the upgrade.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remoteAddr := r.RemoteAddr
	s.wg.Add(1)
	s.trackConn(remoteAddr, func() { _ = conn.Close() })
	logging.LogConnection(remoteAddr, "websocket_opened")

	updates, cancel := s.config.Status.Subscribe()
	defer func() {
		cancel()
		_ = conn.Close()
		s.untrackConn(remoteAddr)
		s.wg.Done()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go readUntilClosed(conn, done)

	if snapshot, ok := s.config.Status.Current(); ok {
		msg := Message{Type: MessageSnapshot, Snapshot: snapshot, At: snapshot.LastUpdate}
		if err := writeMessage(conn, msg); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeMessage(conn, messageFromUpdate(u)); err != nil {
				logging.Debug("WebSocket write failed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readUntilClosed drains incoming frames so control frames are processed,
// and closes done when the peer goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
