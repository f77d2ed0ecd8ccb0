package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/authz"
	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

const (
	maxPostContentLen    = 5000
	maxCommentContentLen = 2000
	maxPostImages        = 10
)

// PostService owns the content write path. Posts, comments and likes share
// the community authorization rules; a private community's content is
// readable by members only.
type PostService struct {
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	posts       repository.PostRepository
	pub         bus.Publisher
	logger      *zap.Logger
}

func NewPostService(
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	posts repository.PostRepository,
	pub bus.Publisher,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		communities: communities,
		members:     members,
		posts:       posts,
		pub:         pub,
		logger:      logger,
	}
}

func (s *PostService) community(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	c, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	if c == nil {
		return nil, NotFound("community not found")
	}
	return c, nil
}

func (s *PostService) post(ctx context.Context, id uuid.UUID) (*models.Post, *models.Community, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get post: %w", err)
	}
	if p == nil {
		return nil, nil, NotFound("post not found")
	}
	c, err := s.community(ctx, p.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// canRead gates reads on private communities.
func (s *PostService) canRead(ctx context.Context, c *models.Community, userID uuid.UUID) error {
	if !c.IsPrivate {
		return nil
	}
	role, err := roleOf(ctx, s.members, c, userID)
	if err != nil {
		return err
	}
	if role == models.RoleNone {
		return Unauthorized(authz.ReasonNotMember, "private community content is members-only")
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, authorID, communityID uuid.UUID, content string, images []string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Invalid("post content is required")
	}
	if len(content) > maxPostContentLen {
		return nil, Invalid(fmt.Sprintf("post content exceeds %d characters", maxPostContentLen))
	}
	if len(images) > maxPostImages {
		return nil, Invalid(fmt.Sprintf("at most %d images per post", maxPostImages))
	}

	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	role, err := roleOf(ctx, s.members, c, authorID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(role, authz.ActionCreatePost, c.Settings); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to post in this community")
	}

	created, err := s.posts.Create(ctx, &models.Post{
		CommunityID: communityID,
		AuthorID:    authorID,
		Content:     content,
		Images:      images,
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	publishCommunity(ctx, s.pub, s.logger, communityID,
		bus.NewEvent(bus.EventPostCreated, communityID, created))
	return created, nil
}

func (s *PostService) List(ctx context.Context, userID, communityID uuid.UUID, before time.Time, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, c, userID); err != nil {
		return nil, err
	}

	return s.posts.ListByCommunity(ctx, communityID, before, limit)
}

// Delete removes a post. The author may always delete their own; anyone
// else needs the moderateContent grant.
func (s *PostService) Delete(ctx context.Context, actorID, postID uuid.UUID) error {
	p, c, err := s.post(ctx, postID)
	if err != nil {
		return err
	}

	if p.AuthorID != actorID {
		role, err := roleOf(ctx, s.members, c, actorID)
		if err != nil {
			return err
		}
		if d := authz.Authorize(role, authz.ActionModerateContent, c.Settings); !d.Allowed {
			return Unauthorized(d.Reason, "not allowed to delete this post")
		}
	}

	deleted, err := s.posts.Delete(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !deleted {
		return NotFound("post not found")
	}
	return nil
}

// ToggleLike flips the caller's like on a post and returns the new state.
// Liking twice nets out; there is no error path for "already liked".
func (s *PostService) ToggleLike(ctx context.Context, actorID, postID uuid.UUID) (bool, int64, error) {
	p, c, err := s.post(ctx, postID)
	if err != nil {
		return false, 0, err
	}

	role, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return false, 0, err
	}
	if d := authz.Authorize(role, authz.ActionLike, c.Settings); !d.Allowed {
		return false, 0, Unauthorized(d.Reason, "not allowed to like posts here")
	}

	liked, count, err := s.posts.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}

	publishCommunity(ctx, s.pub, s.logger, c.ID,
		bus.NewEvent(bus.EventPostLiked, c.ID, map[string]any{
			"post_id":    p.ID,
			"user_id":    actorID,
			"liked":      liked,
			"like_count": count,
		}))
	return liked, count, nil
}

func (s *PostService) AddComment(ctx context.Context, authorID, postID uuid.UUID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Invalid("comment content is required")
	}
	if len(content) > maxCommentContentLen {
		return nil, Invalid(fmt.Sprintf("comment exceeds %d characters", maxCommentContentLen))
	}

	_, c, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(ctx, s.members, c, authorID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(role, authz.ActionComment, c.Settings); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to comment here")
	}

	created, err := s.posts.AddComment(ctx, &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	publishCommunity(ctx, s.pub, s.logger, c.ID,
		bus.NewEvent(bus.EventCommentAdded, c.ID, created))
	return created, nil
}

func (s *PostService) ListComments(ctx context.Context, userID, postID uuid.UUID, after int64, limit int) ([]models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	_, c, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, c, userID); err != nil {
		return nil, err
	}

	return s.posts.ListComments(ctx, postID, after, limit)
}

// DeleteComment follows the same rule as post deletion: author or
// moderator and above.
func (s *PostService) DeleteComment(ctx context.Context, actorID uuid.UUID, commentID int64) error {
	cm, err := s.posts.GetComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if cm == nil {
		return NotFound("comment not found")
	}

	_, c, err := s.post(ctx, cm.PostID)
	if err != nil {
		return err
	}

	if cm.AuthorID != actorID {
		role, err := roleOf(ctx, s.members, c, actorID)
		if err != nil {
			return err
		}
		if d := authz.Authorize(role, authz.ActionModerateContent, c.Settings); !d.Allowed {
			return Unauthorized(d.Reason, "not allowed to delete this comment")
		}
	}

	deleted, err := s.posts.DeleteComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if !deleted {
		return NotFound("comment not found")
	}
	return nil
}
