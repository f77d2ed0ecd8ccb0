// Package bus carries real-time events from the write path to connected
// websocket sessions. Delivery is at-most-once: events published while a
// user has no open session are dropped, and a publish failure never fails
// the request that triggered it.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMemberJoined  EventType = "member_joined"
	EventMemberLeft    EventType = "member_left"
	EventMemberRemoved EventType = "member_removed"
	EventRoleChanged   EventType = "role_changed"

	EventPostCreated  EventType = "post_created"
	EventPostLiked    EventType = "post_liked"
	EventCommentAdded EventType = "comment_added"

	// Join-request events are targeted, not broadcast: creation goes to
	// reviewers' user channels, rejection to the requester's.
	EventJoinRequestCreated EventType = "join_request_created"
	EventRequestRejected    EventType = "request_rejected"
)

// Event is the wire shape pushed to websocket clients. Data holds the
// event-specific payload and marshals as-is.
type Event struct {
	Type        EventType `json:"type"`
	CommunityID uuid.UUID `json:"community_id"`
	Data        any       `json:"data,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, communityID uuid.UUID, data any) Event {
	return Event{
		Type:        t,
		CommunityID: communityID,
		Data:        data,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher fans an event out to everyone subscribed to a community, or
// to the sessions of a single user.
type Publisher interface {
	PublishCommunity(ctx context.Context, communityID uuid.UUID, ev Event) error
	PublishUser(ctx context.Context, userID uuid.UUID, ev Event) error
}

// CommunityChannel and UserChannel name the pub/sub channels; the
// websocket hub subscribes with the same helpers the publisher writes to.

func CommunityChannel(communityID uuid.UUID) string {
	return "community:" + communityID.String()
}

func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
