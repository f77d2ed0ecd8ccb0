package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/middleware"
	"github.com/lalith-99/huddle/internal/service"
)

// JoinRequestHandler handles the gated-community join workflow: submit a
// request, list the pending queue, approve or reject.
type JoinRequestHandler struct {
	svc    *service.JoinRequestService
	logger *zap.Logger
}

func NewJoinRequestHandler(svc *service.JoinRequestService, logger *zap.Logger) *JoinRequestHandler {
	return &JoinRequestHandler{svc: svc, logger: logger}
}

type submitRequest struct {
	Message string `json:"message"`
}

// Submit handles POST /v1/communities/:id/join-requests
func (h *JoinRequestHandler) Submit(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	// Body is optional; an empty message is fine.
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Message = ""
	}

	created, err := h.svc.Submit(c.Request.Context(), middleware.GetUserID(c), communityID, req.Message)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListPending handles GET /v1/communities/:id/join-requests
func (h *JoinRequestHandler) ListPending(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	pending, err := h.svc.ListPending(c.Request.Context(), middleware.GetUserID(c), communityID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, pending)
}

type resolveRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

// Resolve handles POST /v1/communities/:id/join-requests/:reqID
func (h *JoinRequestHandler) Resolve(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}
	requestID, err := uuid.Parse(c.Param("reqID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.svc.Resolve(c.Request.Context(), middleware.GetUserID(c), communityID, requestID, req.Action == "approve")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if member == nil {
		// Rejection has no entity to return.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, member)
}
