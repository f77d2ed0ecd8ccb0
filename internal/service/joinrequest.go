package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/authz"
	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

const maxRequestMessageLen = 500

// JoinRequestService runs the pending-request queue of gated communities:
// submission, FIFO listing for reviewers, and terminal resolution.
type JoinRequestService struct {
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	requests    repository.JoinRequestRepository
	pub         bus.Publisher
	logger      *zap.Logger
}

func NewJoinRequestService(
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	requests repository.JoinRequestRepository,
	pub bus.Publisher,
	logger *zap.Logger,
) *JoinRequestService {
	return &JoinRequestService{
		communities: communities,
		members:     members,
		requests:    requests,
		pub:         pub,
		logger:      logger,
	}
}

func (s *JoinRequestService) community(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	c, err := s.communities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	if c == nil {
		return nil, NotFound("community not found")
	}
	return c, nil
}

// requiresApproval reports whether joining this community goes through the
// request queue instead of a direct join.
func requiresApproval(c *models.Community) bool {
	return c.IsPrivate || c.Settings.RequireApproval
}

// Submit enqueues a join request for the caller. At most one pending
// request per (community, user) can exist; the uniqueness lives in the
// store so a racing double-submit cannot slip through.
func (s *JoinRequestService) Submit(ctx context.Context, userID, communityID uuid.UUID, message string) (*models.JoinRequest, error) {
	if len(message) > maxRequestMessageLen {
		return nil, Invalid(fmt.Sprintf("message exceeds %d characters", maxRequestMessageLen))
	}

	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !requiresApproval(c) {
		return nil, InvalidState("community is open, join directly")
	}
	if userID == c.CreatorID {
		return nil, Conflict(ReasonAlreadyMember, "you created this community")
	}

	existing, err := s.members.Get(ctx, communityID, userID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if existing != nil {
		return nil, Conflict(ReasonAlreadyMember, "already a member of this community")
	}

	created, err := s.requests.Create(ctx, &models.JoinRequest{
		CommunityID: communityID,
		UserID:      userID,
		Message:     message,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict(ReasonDuplicateRequest, "a pending request already exists")
		}
		return nil, fmt.Errorf("create join request: %w", err)
	}

	s.notifyReviewers(ctx, c, created)
	return created, nil
}

// notifyReviewers delivers join_request_created to the private channels of
// everyone who can review it. The event is deliberately not broadcast on
// the community channel; plain members never see who asked to join.
func (s *JoinRequestService) notifyReviewers(ctx context.Context, c *models.Community, r *models.JoinRequest) {
	ev := bus.NewEvent(bus.EventJoinRequestCreated, c.ID, r)

	publishUser(ctx, s.pub, s.logger, c.CreatorID, ev)

	members, err := s.members.List(ctx, c.ID)
	if err != nil {
		s.logger.Error("list reviewers failed",
			zap.String("community_id", c.ID.String()),
			zap.Error(err),
		)
		return
	}
	for _, m := range members {
		if m.Role.Rank() >= models.RoleAdmin.Rank() {
			publishUser(ctx, s.pub, s.logger, m.UserID, ev)
		}
	}
}

// ListPending returns the community's pending requests oldest-first.
// Reviewers only.
func (s *JoinRequestService) ListPending(ctx context.Context, actorID, communityID uuid.UUID) ([]models.JoinRequest, error) {
	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(role, authz.ActionReviewJoinRequests, c.Settings); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to review join requests")
	}

	return s.requests.ListPending(ctx, communityID)
}

// Resolve approves or rejects a pending request. Resolution is terminal:
// of two racing reviewers only one wins, the other gets ALREADY_RESOLVED.
// Approval creates the membership and broadcasts member_joined; rejection
// notifies only the requester.
func (s *JoinRequestService) Resolve(ctx context.Context, actorID, communityID, requestID uuid.UUID, approve bool) (*models.Member, error) {
	c, err := s.community(ctx, communityID)
	if err != nil {
		return nil, err
	}

	role, err := roleOf(ctx, s.members, c, actorID)
	if err != nil {
		return nil, err
	}
	if d := authz.Authorize(role, authz.ActionReviewJoinRequests, c.Settings); !d.Allowed {
		return nil, Unauthorized(d.Reason, "not allowed to review join requests")
	}

	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get join request: %w", err)
	}
	if r == nil || r.CommunityID != communityID {
		return nil, NotFound("join request not found")
	}

	now := time.Now().UTC()

	if !approve {
		if err := s.requests.Reject(ctx, requestID, actorID, now); err != nil {
			if errors.Is(err, repository.ErrNotPending) {
				return nil, Conflict(ReasonAlreadyResolved, "request already resolved")
			}
			return nil, fmt.Errorf("reject join request: %w", err)
		}
		publishUser(ctx, s.pub, s.logger, r.UserID,
			bus.NewEvent(bus.EventRequestRejected, communityID, map[string]any{
				"request_id": requestID,
			}))
		return nil, nil
	}

	member, err := s.requests.Approve(ctx, requestID, actorID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, Conflict(ReasonAlreadyResolved, "request already resolved")
		}
		return nil, fmt.Errorf("approve join request: %w", err)
	}

	s.logger.Info("join request approved",
		zap.String("community_id", communityID.String()),
		zap.String("request_id", requestID.String()),
		zap.String("resolver_id", actorID.String()),
	)
	publishCommunity(ctx, s.pub, s.logger, communityID,
		bus.NewEvent(bus.EventMemberJoined, communityID, member))
	return member, nil
}
