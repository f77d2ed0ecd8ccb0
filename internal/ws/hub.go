// Package ws bridges redis pub/sub to websocket sessions. Each connected
// session subscribes to its user's private channel and to any community
// channels it joins; community subscriptions are shared across sessions on
// the same server so one redis subscription serves every local viewer.
package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/bus"
)

type Hub struct {
	client *redis.Client
	logger *zap.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]*communitySub
}

// communitySub is one shared redis subscription fanning out to every local
// session watching the community.
type communitySub struct {
	pubsub   *redis.PubSub
	sessions map[*Session]struct{}
	cancel   context.CancelFunc
}

func NewHub(client *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		client: client,
		logger: logger,
		subs:   make(map[uuid.UUID]*communitySub),
	}
}

// Join subscribes a session to a community channel, creating the shared
// redis subscription on first use.
func (h *Hub) Join(communityID uuid.UUID, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[communityID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		sub = &communitySub{
			pubsub:   h.client.Subscribe(ctx, bus.CommunityChannel(communityID)),
			sessions: make(map[*Session]struct{}),
			cancel:   cancel,
		}
		h.subs[communityID] = sub
		go h.forward(ctx, communityID, sub)
	}
	sub.sessions[s] = struct{}{}
	s.joined[communityID] = struct{}{}
}

// Leave drops a session from a community channel. The last session out
// closes the redis subscription.
func (h *Hub) Leave(communityID uuid.UUID, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(communityID, s)
}

func (h *Hub) leaveLocked(communityID uuid.UUID, s *Session) {
	delete(s.joined, communityID)

	sub, ok := h.subs[communityID]
	if !ok {
		return
	}
	delete(sub.sessions, s)
	if len(sub.sessions) == 0 {
		sub.cancel()
		if err := sub.pubsub.Close(); err != nil {
			h.logger.Warn("close community subscription",
				zap.String("community_id", communityID.String()),
				zap.Error(err),
			)
		}
		delete(h.subs, communityID)
	}
}

// Detach removes a disconnecting session from every community it joined.
func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for communityID := range s.joined {
		h.leaveLocked(communityID, s)
	}
}

// forward pumps one community's redis messages to all local sessions.
// A slow session is skipped, not waited on; delivery is at-most-once.
func (h *Hub) forward(ctx context.Context, communityID uuid.UUID, sub *communitySub) {
	ch := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.mu.Lock()
			for s := range sub.sessions {
				s.push([]byte(msg.Payload))
			}
			h.mu.Unlock()
		}
	}
}
