package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/middleware"
	"github.com/lalith-99/huddle/internal/repository"
)

// Handler upgrades authenticated requests into websocket sessions.
type Handler struct {
	hub         *Hub
	client      *redis.Client
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	logger      *zap.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(
	hub *Hub,
	client *redis.Client,
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		hub:         hub,
		client:      client,
		communities: communities,
		members:     members,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens in middleware; cross-origin upgrades are
			// allowed because browsers cannot set Authorization anyway and
			// native clients need this open.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// canJoin is the subscription gate: anyone may watch a public community,
// private streams require membership.
func (h *Handler) canJoin(ctx context.Context, userID, communityID uuid.UUID) bool {
	c, err := h.communities.GetByID(ctx, communityID)
	if err != nil || c == nil {
		return false
	}
	if !c.IsPrivate {
		return true
	}
	if userID == c.CreatorID {
		return true
	}
	m, err := h.members.Get(ctx, communityID, userID)
	return err == nil && m != nil
}

// Serve handles GET /v1/ws.
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(h.hub, conn, userID, h.canJoin, h.logger)
	s.userSub = h.client.Subscribe(context.Background(), bus.UserChannel(userID))

	go s.writePump()
	go s.forwardUser()
	go s.readPump(context.Background())
}
