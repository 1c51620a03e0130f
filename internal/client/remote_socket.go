package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EvLab-MIT/cb2/internal/messages"
)

const remoteWriteWait = 10 * time.Second

// RemoteSocket carries envelopes over a websocket to a remote server.
// Safe for one sender and one receiver goroutine; gorilla connections do
// not allow more concurrency than that anyway.
type RemoteSocket struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	connected bool
	mu        sync.Mutex
}

// DialRemoteSocket connects to a server's websocket endpoint, e.g.
// ws://host:port/ws.
func DialRemoteSocket(url string) (*RemoteSocket, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &RemoteSocket{conn: conn, connected: true}, nil
}

// NewRemoteSocket wraps an already-established connection.
func NewRemoteSocket(conn *websocket.Conn) *RemoteSocket {
	return &RemoteSocket{conn: conn, connected: true}
}

// Send writes one envelope as a JSON text frame.
func (s *RemoteSocket) Send(message *messages.MessageToServer) error {
	if !s.Connected() {
		return errors.New("remote socket disconnected")
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(remoteWriteWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.markDisconnected()
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Receive reads the next envelope, waiting up to timeout. An expired
// deadline yields ErrNoMessages; a closed connection is a real error and
// flips Connected to false.
func (s *RemoteSocket) Receive(timeout time.Duration) (*messages.MessageFromServer, error) {
	if !s.Connected() {
		return nil, errors.New("remote socket disconnected")
	}
	s.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrNoMessages
		}
		s.markDisconnected()
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	var msg messages.MessageFromServer
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Connected reports whether the connection is still usable.
func (s *RemoteSocket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *RemoteSocket) markDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// Close tears down the connection.
func (s *RemoteSocket) Close() error {
	s.markDisconnected()
	return s.conn.Close()
}
