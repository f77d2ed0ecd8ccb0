package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

// roleOf resolves a user's effective role in a community with a single
// lookup. The creator never has a member row; the creator id on the
// community itself is the role source.
func roleOf(ctx context.Context, members repository.MembershipRepository, c *models.Community, userID uuid.UUID) (models.Role, error) {
	if userID == c.CreatorID {
		return models.RoleCreator, nil
	}
	m, err := members.Get(ctx, c.ID, userID)
	if err != nil {
		return models.RoleNone, fmt.Errorf("resolve role: %w", err)
	}
	if m == nil {
		return models.RoleNone, nil
	}
	return m.Role, nil
}

// publishCommunity pushes an event to the community channel. Fan-out is
// best-effort: a failed publish is logged and the committed mutation stands.
func publishCommunity(ctx context.Context, pub bus.Publisher, logger *zap.Logger, communityID uuid.UUID, ev bus.Event) {
	if err := pub.PublishCommunity(ctx, communityID, ev); err != nil {
		logger.Error("publish community event failed",
			zap.String("community_id", communityID.String()),
			zap.String("event", string(ev.Type)),
			zap.Error(err),
		)
	}
}

// publishUser pushes an event to one user's private channel, same
// best-effort contract as publishCommunity.
func publishUser(ctx context.Context, pub bus.Publisher, logger *zap.Logger, userID uuid.UUID, ev bus.Event) {
	if err := pub.PublishUser(ctx, userID, ev); err != nil {
		logger.Error("publish user event failed",
			zap.String("user_id", userID.String()),
			zap.String("event", string(ev.Type)),
			zap.Error(err),
		)
	}
}
