package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/middleware"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/service"
)

// CommunityHandler handles community CRUD and the roster view.
type CommunityHandler struct {
	svc    *service.CommunityService
	logger *zap.Logger
}

func NewCommunityHandler(svc *service.CommunityService, logger *zap.Logger) *CommunityHandler {
	return &CommunityHandler{svc: svc, logger: logger}
}

type createCommunityRequest struct {
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category"`
	IsPrivate bool   `json:"is_private"`
}

type updateCommunityRequest struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	IsPrivate *bool   `json:"is_private"`
}

type updateSettingsRequest struct {
	AllowMemberPosts *bool `json:"allow_member_posts"`
	RequireApproval  *bool `json:"require_approval"`
	AllowEvents      *bool `json:"allow_events"`
	AllowDiscussions *bool `json:"allow_discussions"`
}

// Create handles POST /v1/communities. The caller becomes the creator.
func (h *CommunityHandler) Create(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req.Name, req.Category, req.IsPrivate)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List handles GET /v1/communities?limit=&offset=
func (h *CommunityHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	communities, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, communities)
}

// Get handles GET /v1/communities/:id
func (h *CommunityHandler) Get(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	community, err := h.svc.Get(c.Request.Context(), communityID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, community)
}

// Update handles PUT /v1/communities/:id
//
// Partial body: only the fields present change.
func (h *CommunityHandler) Update(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	var req updateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current, err := h.svc.Get(c.Request.Context(), communityID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	name, category, isPrivate := current.Name, current.Category, current.IsPrivate
	if req.Name != nil {
		name = *req.Name
	}
	if req.Category != nil {
		category = *req.Category
	}
	if req.IsPrivate != nil {
		isPrivate = *req.IsPrivate
	}

	updated, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), communityID, name, category, isPrivate)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateSettings handles PUT /v1/communities/:id/settings
//
// Fields are pointers so a partial body only flips the switches it names;
// absent fields keep their current value.
func (h *CommunityHandler) UpdateSettings(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current, err := h.svc.Get(c.Request.Context(), communityID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	settings := applySettings(current.Settings, req)
	updated, err := h.svc.UpdateSettings(c.Request.Context(), middleware.GetUserID(c), communityID, settings)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func applySettings(s models.CommunitySettings, req updateSettingsRequest) models.CommunitySettings {
	if req.AllowMemberPosts != nil {
		s.AllowMemberPosts = *req.AllowMemberPosts
	}
	if req.RequireApproval != nil {
		s.RequireApproval = *req.RequireApproval
	}
	if req.AllowEvents != nil {
		s.AllowEvents = *req.AllowEvents
	}
	if req.AllowDiscussions != nil {
		s.AllowDiscussions = *req.AllowDiscussions
	}
	return s
}

// Delete handles DELETE /v1/communities/:id
func (h *CommunityHandler) Delete(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), communityID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /v1/communities/:id/members
func (h *CommunityHandler) ListMembers(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	members, err := h.svc.ListMembers(c.Request.Context(), middleware.GetUserID(c), communityID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, members)
}
