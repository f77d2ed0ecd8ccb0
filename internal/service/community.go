package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/authz"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

const maxCommunityNameLen = 100

type CommunityService struct {
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	logger      *zap.Logger
}

func NewCommunityService(
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	logger *zap.Logger,
) *CommunityService {
	return &CommunityService{
		communities: communities,
		members:     members,
		logger:      logger,
	}
}

// Create stores a new community with the caller as its creator. The creator
// holds the role implicitly; no member row is written for them.
func (s *CommunityService) Create(ctx context.Context, creatorID uuid.UUID, name, category string, isPrivate bool) (*models.Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("community name is required")
	}
	if len(name) > maxCommunityNameLen {
		return nil, Invalid(fmt.Sprintf("community name exceeds %d characters", maxCommunityNameLen))
	}

	created, err := s.communities.Create(ctx, &models.Community{
		Name:      name,
		Category:  strings.TrimSpace(category),
		IsPrivate: isPrivate,
		CreatorID: creatorID,
		Settings:  models.DefaultSettings(),
	})
	if err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}

	s.logger.Info("community created",
		zap.String("community_id", created.ID.String()),
		zap.String("creator_id", creatorID.String()),
	)
	return created, nil
}

func (s *CommunityService) Get(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	c, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	if c == nil {
		return nil, NotFound("community not found")
	}
	return c, nil
}

func (s *CommunityService) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.communities.List(ctx, limit, offset)
}

// UpdateSettings replaces the community's feature switches. Requires the
// editCommunity grant (creator or admin).
func (s *CommunityService) UpdateSettings(ctx context.Context, actorID, communityID uuid.UUID, settings models.CommunitySettings) (*models.Community, error) {
	c, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(role, authz.ActionEditCommunity, c.Settings); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to edit this community")
	}

	ok, err := s.communities.UpdateSettings(ctx, communityID, settings)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	if !ok {
		return nil, NotFound("community not found")
	}

	c.Settings = settings
	return c, nil
}

// Update replaces the community's metadata. Requires the editCommunity
// grant. Ownership is not touched; creator_id never changes.
func (s *CommunityService) Update(ctx context.Context, actorID, communityID uuid.UUID, name, category string, isPrivate bool) (*models.Community, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("community name is required")
	}
	if len(name) > maxCommunityNameLen {
		return nil, Invalid(fmt.Sprintf("community name exceeds %d characters", maxCommunityNameLen))
	}

	c, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(role, authz.ActionEditCommunity, c.Settings); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to edit this community")
	}

	c.Name = name
	c.Category = strings.TrimSpace(category)
	c.IsPrivate = isPrivate
	ok, err := s.communities.Update(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("update community: %w", err)
	}
	if !ok {
		return nil, NotFound("community not found")
	}
	return c, nil
}

// Delete removes the community and everything it owns. Creator only.
func (s *CommunityService) Delete(ctx context.Context, actorID, communityID uuid.UUID) error {
	c, err := s.Get(ctx, communityID)
	if err != nil {
		return err
	}

	role, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return err
	}
	if d := authz.Authorize(role, authz.ActionDeleteCommunity, c.Settings); !d.Allowed {
		return Unauthorized(d.Reason, "only the creator can delete a community")
	}

	if _, err := s.communities.Delete(ctx, communityID); err != nil {
		return fmt.Errorf("delete community: %w", err)
	}

	s.logger.Info("community deleted",
		zap.String("community_id", communityID.String()),
		zap.String("actor_id", actorID.String()),
	)
	return nil
}

// ListMembers returns the member rows oldest-joined first. Private
// communities expose their roster to members only.
func (s *CommunityService) ListMembers(ctx context.Context, actorID, communityID uuid.UUID) ([]models.Member, error) {
	c, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if c.IsPrivate {
		role, err := roleOf(ctx, s.members, c, actorID)
		if err != nil {
			return nil, err
		}
		if role == models.RoleNone {
			return nil, Unauthorized(authz.ReasonNotMember, "private community roster is members-only")
		}
	}

	return s.members.List(ctx, communityID)
}
