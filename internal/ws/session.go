package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// JoinGate decides whether a user may subscribe to a community channel.
// Private community streams are members-only.
type JoinGate func(ctx context.Context, userID, communityID uuid.UUID) bool

// clientMessage is the only thing clients send: subscribe/unsubscribe verbs.
type clientMessage struct {
	Action      string    `json:"action"`
	CommunityID uuid.UUID `json:"community_id"`
}

// Session is one websocket connection. A single writer goroutine drains
// send; pushes from the hub never block on a slow client.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	gate   JoinGate
	logger *zap.Logger

	send    chan []byte
	done    chan struct{}
	once    sync.Once
	userSub *redis.PubSub

	// joined is guarded by hub.mu; only Hub.Join/Leave/Detach touch it.
	joined map[uuid.UUID]struct{}
}

func newSession(hub *Hub, conn *websocket.Conn, userID uuid.UUID, gate JoinGate, logger *zap.Logger) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		userID: userID,
		gate:   gate,
		logger: logger,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		joined: make(map[uuid.UUID]struct{}),
	}
}

// push queues a payload for delivery. A full buffer drops the event; the
// client reconciles by re-fetching state, there is no replay.
func (s *Session) push(payload []byte) {
	select {
	case <-s.done:
	case s.send <- payload:
	default:
	}
}

func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.Detach(s)
		if s.userSub != nil {
			s.userSub.Close()
		}
		s.conn.Close()
	})
}

func (s *Session) readPump(ctx context.Context) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed",
					zap.String("user_id", s.userID.String()),
					zap.Error(err),
				)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.CommunityID == uuid.Nil {
			continue
		}

		switch msg.Action {
		case "join-community":
			if s.gate != nil && !s.gate(ctx, s.userID, msg.CommunityID) {
				continue
			}
			s.hub.Join(msg.CommunityID, s)
		case "leave-community":
			s.hub.Leave(msg.CommunityID, s)
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// forwardUser pumps the session user's private channel. Reviewer-scoped
// and requester-scoped events arrive here, not on community channels.
func (s *Session) forwardUser() {
	ch := s.userSub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.push([]byte(msg.Payload))
		}
	}
}
