package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/middleware"
	"github.com/lalith-99/huddle/internal/service"
)

// PostHandler handles posts, comments and likes.
type PostHandler struct {
	svc    *service.PostService
	logger *zap.Logger
}

func NewPostHandler(svc *service.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{svc: svc, logger: logger}
}

type createPostRequest struct {
	Content string   `json:"content" binding:"required"`
	Images  []string `json:"images"`
}

// CreatePost handles POST /v1/communities/:id/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), communityID, req.Content, req.Images)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListPosts handles GET /v1/communities/:id/posts?before=<RFC3339>&limit=
//
// Cursor pagination: pass the created_at of the last post you have as
// before to fetch the next page. Offsets shift under concurrent writes,
// timestamps don't.
func (h *PostHandler) ListPosts(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		before, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be RFC3339"})
			return
		}
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	posts, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c), communityID, before, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// DeletePost handles DELETE /v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), postID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleLike handles POST /v1/posts/:id/like
func (h *PostHandler) ToggleLike(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	liked, count, err := h.svc.ToggleLike(c.Request.Context(), middleware.GetUserID(c), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": count})
}

type addCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddComment handles POST /v1/posts/:id/comments
func (h *PostHandler) AddComment(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.AddComment(c.Request.Context(), middleware.GetUserID(c), postID, req.Content)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListComments handles GET /v1/posts/:id/comments?after=<id>&limit=
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	comments, err := h.svc.ListComments(c.Request.Context(), middleware.GetUserID(c), postID, after, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// DeleteComment handles DELETE /v1/comments/:id
func (h *PostHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	if err := h.svc.DeleteComment(c.Request.Context(), middleware.GetUserID(c), commentID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
