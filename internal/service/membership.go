package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/authz"
	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

// MembershipService drives the membership state machine: direct joins,
// leaves, role changes and removals. Private-community joins go through
// JoinRequestService instead.
type MembershipService struct {
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	pub         bus.Publisher
	logger      *zap.Logger
}

func NewMembershipService(
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	pub bus.Publisher,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		communities: communities,
		members:     members,
		pub:         pub,
		logger:      logger,
	}
}

func (s *MembershipService) community(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	c, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	if c == nil {
		return nil, NotFound("community not found")
	}
	return c, nil
}

// Join adds the caller directly as a member. Only open communities allow
// this path; a community that requires approval redirects the caller to the
// join-request flow.
func (s *MembershipService) Join(ctx context.Context, userID, communityID uuid.UUID) (*models.Member, error) {
	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if userID == c.CreatorID {
		return nil, Conflict(ReasonAlreadyMember, "you created this community")
	}
	if c.IsPrivate || c.Settings.RequireApproval {
		return nil, InvalidState("community requires approval, submit a join request")
	}

	member := &models.Member{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.RoleMember,
		JoinedAt:    time.Now().UTC(),
	}
	inserted, err := s.members.Add(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	if !inserted {
		return nil, Conflict(ReasonAlreadyMember, "already a member of this community")
	}

	publishCommunity(ctx, s.pub, s.logger, communityID,
		bus.NewEvent(bus.EventMemberJoined, communityID, member))
	return member, nil
}

// Leave removes the caller's own membership. The creator is structurally
// barred: ownership has no transfer path, so the only exits are deleting
// the community or nothing.
func (s *MembershipService) Leave(ctx context.Context, userID, communityID uuid.UUID) error {
	c, err := s.community(ctx, communityID)
	if err != nil {
		return err
	}

	if userID == c.CreatorID {
		return InvalidState("the creator cannot leave their own community")
	}

	removed, err := s.members.Remove(ctx, communityID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if !removed {
		return Unauthorized(authz.ReasonNotMember, "not a member of this community")
	}

	publishCommunity(ctx, s.pub, s.logger, communityID,
		bus.NewEvent(bus.EventMemberLeft, communityID, map[string]any{
			"user_id": userID,
		}))
	return nil
}

// ChangeRole promotes or demotes a member. The write is a compare-and-swap
// against the role the actor was authorized on, so two racing role changes
// cannot both apply: the loser gets a Conflict and must re-read.
func (s *MembershipService) ChangeRole(ctx context.Context, actorID, communityID, targetID uuid.UUID, newRole models.Role) (*models.Member, error) {
	if !models.ValidMemberRole(newRole) {
		return nil, Invalid("role must be one of member, moderator, admin")
	}

	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, Unauthorized(authz.ReasonCannotTargetRole, "cannot change your own role")
	}
	if targetID == c.CreatorID {
		return nil, Unauthorized(authz.ReasonCannotTargetRole, "the creator's role is immutable")
	}

	actorRole, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.members.Get(ctx, communityID, targetID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if target == nil {
		return nil, NotFound("member not found")
	}

	if d := authz.CanChangeRole(actorRole, target.Role, newRole); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to assign this role")
	}

	swapped, err := s.members.CompareAndSwapRole(ctx, communityID, targetID, target.Role, newRole)
	if err != nil {
		return nil, fmt.Errorf("swap role: %w", err)
	}
	if !swapped {
		return nil, Conflict(ReasonStaleRole, "member role changed concurrently, retry")
	}

	s.logger.Info("role changed",
		zap.String("community_id", communityID.String()),
		zap.String("target_id", targetID.String()),
		zap.String("old_role", string(target.Role)),
		zap.String("new_role", string(newRole)),
	)
	publishCommunity(ctx, s.pub, s.logger, communityID,
		bus.NewEvent(bus.EventRoleChanged, communityID, map[string]any{
			"user_id":  targetID,
			"old_role": target.Role,
			"new_role": newRole,
		}))

	updated := *target
	updated.Role = newRole
	return &updated, nil
}

// Remove kicks a member out of the community. The creator cannot be removed
// and admins cannot remove their peers.
func (s *MembershipService) Remove(ctx context.Context, actorID, communityID, targetID uuid.UUID) error {
	c, err := s.community(ctx, communityID)
	if err != nil {
		return err
	}
	if targetID == c.CreatorID {
		return Unauthorized(authz.ReasonCannotTargetRole, "the creator cannot be removed")
	}
	if actorID == targetID {
		return InvalidState("use leave to remove yourself")
	}

	actorRole, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return err
	}
	target, err := s.members.Get(ctx, communityID, targetID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if target == nil {
		return NotFound("member not found")
	}

	if d := authz.CanRemove(actorRole, target.Role); !d.Allowed {
		return Unauthorized(d.Reason, "not allowed to remove this member")
	}

	removed, err := s.members.Remove(ctx, communityID, targetID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if !removed {
		return NotFound("member not found")
	}

	s.logger.Info("member removed",
		zap.String("community_id", communityID.String()),
		zap.String("target_id", targetID.String()),
		zap.String("actor_id", actorID.String()),
	)
	publishCommunity(ctx, s.pub, s.logger, communityID,
		bus.NewEvent(bus.EventMemberRemoved, communityID, map[string]any{
			"user_id":    targetID,
			"removed_by": actorID,
		}))
	return nil
}
