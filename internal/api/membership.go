package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/middleware"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/service"
)

// MembershipHandler handles join/leave and member management. Join here is
// the direct path for open communities; gated communities use the
// join-request endpoints instead.
type MembershipHandler struct {
	svc    *service.MembershipService
	logger *zap.Logger
}

func NewMembershipHandler(svc *service.MembershipService, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{svc: svc, logger: logger}
}

// Join handles POST /v1/communities/:id/join
func (h *MembershipHandler) Join(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	member, err := h.svc.Join(c.Request.Context(), middleware.GetUserID(c), communityID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// Leave handles POST /v1/communities/:id/leave
func (h *MembershipHandler) Leave(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	if err := h.svc.Leave(c.Request.Context(), middleware.GetUserID(c), communityID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// ChangeRole handles PUT /v1/communities/:id/members/:userID/role
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}
	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.svc.ChangeRole(c.Request.Context(), middleware.GetUserID(c), communityID, targetID, req.Role)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// RemoveMember handles DELETE /v1/communities/:id/members/:userID
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}
	targetID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.svc.Remove(c.Request.Context(), middleware.GetUserID(c), communityID, targetID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
