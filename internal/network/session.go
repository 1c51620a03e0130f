package network

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EvLab-MIT/cb2/internal/messages"
	"github.com/EvLab-MIT/cb2/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
	// How often the poller checks the driver for outbound messages.
	pollInterval = 20 * time.Millisecond
)

// Session is one player's websocket connection and, once seated, their
// binding to a game and actor id.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	gameName   string
	actorID    int
	seated     bool
	pollCancel context.CancelFunc
}

func newSession(hub *Hub, conn *websocket.Conn) *Session {
	return &Session{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the session to the hub.
func (s *Session) Register() {
	s.hub.register <- s
}

// ReadPump pumps envelopes from the websocket into the game driver.
func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.leaveGame()
		s.hub.unregister <- s
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Warn("Websocket read error: " + err.Error())
			}
			return
		}

		var msg messages.MessageToServer
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.logger.Warn("Failed to parse client envelope: " + err.Error())
			continue
		}
		if err := msg.Validate(); err != nil {
			s.hub.logger.Warn("Dropping inconsistent client envelope: " + err.Error())
			continue
		}

		if msg.Type == messages.ToServerTypeRoomManagement {
			s.handleRoomRequest(ctx, msg.RoomRequest)
			continue
		}
		s.forward(&msg)
	}
}

// forward hands a seated player's envelope to their game driver.
func (s *Session) forward(msg *messages.MessageToServer) {
	if !s.seated {
		s.respondRoom(messages.RoomManagementResponse{
			Type:  messages.RoomResponseTypeError,
			Error: "not in a game",
		})
		return
	}
	d, err := s.hub.coord.StateMachineDriver(s.gameName)
	if err != nil {
		s.respondRoom(messages.RoomManagementResponse{
			Type:  messages.RoomResponseTypeError,
			Error: err.Error(),
		})
		return
	}
	d.DrainMessages(s.actorID, []*messages.MessageToServer{msg})
}

func (s *Session) handleRoomRequest(ctx context.Context, req *messages.RoomManagementRequest) {
	switch req.Type {
	case messages.RoomRequestTypeStats:
		stats := s.hub.coord.StatsView()
		s.respondRoom(messages.RoomManagementResponse{
			Type: messages.RoomResponseTypeStats,
			Stats: &messages.StatsResponse{
				NumberOfGames: stats.ActiveGames,
				PlayersInGame: stats.PlayersSeated,
			},
		})
	case messages.RoomRequestTypeMapSample:
		sample := s.hub.coord.MapSample()
		s.respondRoom(messages.RoomManagementResponse{
			Type:      messages.RoomResponseTypeMapSample,
			MapUpdate: &sample,
		})
	case messages.RoomRequestTypeJoin,
		messages.RoomRequestTypeJoinFollowerOnly,
		messages.RoomRequestTypeJoinLeaderOnly:
		s.handleJoin(ctx, req)
	case messages.RoomRequestTypeLeave, messages.RoomRequestTypeCancel:
		s.leaveGame()
		s.respondRoom(messages.RoomManagementResponse{
			Type:        messages.RoomResponseTypeLeaveNotice,
			LeaveNotice: &messages.LeaveRoomNotice{Reason: "left by request"},
		})
	default:
		s.respondRoom(messages.RoomManagementResponse{
			Type:  messages.RoomResponseTypeError,
			Error: "unknown room request",
		})
	}
}

func (s *Session) handleJoin(ctx context.Context, req *messages.RoomManagementRequest) {
	if s.seated {
		s.respondRoom(messages.RoomManagementResponse{
			Type:  messages.RoomResponseTypeError,
			Error: "already in a game",
		})
		return
	}

	pinned := messages.RoleNone
	switch req.Type {
	case messages.RoomRequestTypeJoinFollowerOnly:
		pinned = messages.RoleFollower
	case messages.RoomRequestTypeJoinLeaderOnly:
		pinned = messages.RoleLeader
	}

	var gameName string
	var err error
	if req.JoinGameWithInstructionUUID != "" {
		gameName, err = s.hub.coord.CreateGameFromInstructionUUID(ctx, req.JoinGameWithInstructionUUID)
		if pinned == messages.RoleNone {
			pinned = messages.RoleFollower
		}
	} else {
		gameName, err = s.hub.coord.Matchmake(ctx)
	}
	if err != nil {
		s.respondRoom(messages.RoomManagementResponse{
			Type:         messages.RoomResponseTypeJoinResponse,
			JoinResponse: &messages.JoinResponse{BootedFromQueue: true, BootReason: err.Error()},
		})
		return
	}

	actorID, role, err := s.hub.coord.SeatPlayer(gameName, pinned)
	if err != nil {
		s.respondRoom(messages.RoomManagementResponse{
			Type:         messages.RoomResponseTypeJoinResponse,
			JoinResponse: &messages.JoinResponse{BootedFromQueue: true, BootReason: err.Error()},
		})
		return
	}
	s.gameName = gameName
	s.actorID = actorID
	s.seated = true

	pollCtx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	go s.pollDriver(pollCtx)

	s.respondRoom(messages.RoomManagementResponse{
		Type:         messages.RoomResponseTypeJoinResponse,
		JoinResponse: &messages.JoinResponse{Joined: true, Role: role},
	})
}

func (s *Session) leaveGame() {
	if !s.seated {
		return
	}
	if s.pollCancel != nil {
		s.pollCancel()
	}
	if err := s.hub.coord.UnseatPlayer(s.gameName, s.actorID); err != nil {
		s.hub.logger.Warn("Failed to unseat player from " + s.gameName + ": " + err.Error())
	}
	s.seated = false
}

// pollDriver pushes the driver's outbound queue for this actor onto the
// websocket until the seat is released or the game goes away.
func (s *Session) pollDriver(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var pending []*messages.MessageFromServer
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d, err := s.hub.coord.StateMachineDriver(s.gameName)
			if err != nil {
				return
			}
			d.FillMessages(s.actorID, &pending)
			for _, msg := range pending {
				s.enqueue(msg)
			}
			pending = pending[:0]
		}
	}
}

func (s *Session) respondRoom(resp messages.RoomManagementResponse) {
	s.enqueue(messages.RoomResponseFromServer(resp))
}

func (s *Session) enqueue(msg *messages.MessageFromServer) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.hub.logger.Error("Failed to serialize server envelope: " + err.Error())
		return
	}
	select {
	case s.send <- data:
		metrics.RecordMessageOut()
	default:
		s.hub.logger.Warn("Dropping message for slow websocket client")
	}
}

// WritePump pumps queued frames to the websocket connection.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
