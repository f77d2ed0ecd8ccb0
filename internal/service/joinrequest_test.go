package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/service"
)

func TestSubmitOnePendingPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	user := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())

	first, err := f.joinRequests.Submit(ctx, user, c.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestPending, first.Status)

	// A second submit while the first is pending loses.
	_, err = f.joinRequests.Submit(ctx, user, c.ID, "hi again")
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindConflict, kind)
	assert.Equal(t, service.ReasonDuplicateRequest, reason)

	// After resolution a fresh request is allowed again.
	_, err = f.joinRequests.Resolve(ctx, creator, c.ID, first.ID, false)
	require.NoError(t, err)

	second, err := f.joinRequests.Submit(ctx, user, c.ID, "third try")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitOnOpenCommunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.newCommunity(t, uuid.New(), false, models.DefaultSettings())

	_, err := f.joinRequests.Submit(ctx, uuid.New(), c.ID, "")
	kind, _ := kindOf(t, err)
	assert.Equal(t, service.KindInvalidState, kind)
}

func TestSubmitWhileAlreadyMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	member := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())
	f.addMember(t, c.ID, member, models.RoleMember)

	_, err := f.joinRequests.Submit(ctx, member, c.ID, "")
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindConflict, kind)
	assert.Equal(t, service.ReasonAlreadyMember, reason)

	_, err = f.joinRequests.Submit(ctx, creator, c.ID, "")
	kind, reason = kindOf(t, err)
	assert.Equal(t, service.KindConflict, kind)
	assert.Equal(t, service.ReasonAlreadyMember, reason)
}

func TestResolveIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	user := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())

	r, err := f.joinRequests.Submit(ctx, user, c.ID, "let me in")
	require.NoError(t, err)

	member, err := f.joinRequests.Resolve(ctx, creator, c.ID, r.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)
	assert.Equal(t, user, member.UserID)

	// Second approval of the same request: exactly one member row exists
	// and the loser gets a conflict.
	_, err = f.joinRequests.Resolve(ctx, creator, c.ID, r.ID, true)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindConflict, kind)
	assert.Equal(t, service.ReasonAlreadyResolved, reason)

	members, err := f.store.Members().List(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventMemberJoined, events[0].Type)
}

func TestResolveRequiresReviewerRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	moderator := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())
	f.addMember(t, c.ID, moderator, models.RoleModerator)

	r, err := f.joinRequests.Submit(ctx, uuid.New(), c.ID, "")
	require.NoError(t, err)

	_, err = f.joinRequests.Resolve(ctx, moderator, c.ID, r.ID, true)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "INSUFFICIENT_ROLE", reason)

	_, err = f.joinRequests.ListPending(ctx, moderator, c.ID)
	kind, _ = kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
}

func TestPendingListedOldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())

	first, err := f.joinRequests.Submit(ctx, uuid.New(), c.ID, "first")
	require.NoError(t, err)
	second, err := f.joinRequests.Submit(ctx, uuid.New(), c.ID, "second")
	require.NoError(t, err)
	third, err := f.joinRequests.Submit(ctx, uuid.New(), c.ID, "third")
	require.NoError(t, err)

	pending, err := f.joinRequests.ListPending(ctx, creator, c.ID)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	assert.Equal(t, third.ID, pending[2].ID)

	// Resolving drops the request from the pending view.
	_, err = f.joinRequests.Resolve(ctx, creator, c.ID, second.ID, true)
	require.NoError(t, err)

	pending, err = f.joinRequests.ListPending(ctx, creator, c.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)
}

func TestJoinRequestEventsAreTargeted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	admin := uuid.New()
	member := uuid.New()
	requester := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())
	f.addMember(t, c.ID, admin, models.RoleAdmin)
	f.addMember(t, c.ID, member, models.RoleMember)

	r, err := f.joinRequests.Submit(ctx, requester, c.ID, "hello")
	require.NoError(t, err)

	// Creation reaches reviewers' private channels only.
	require.Len(t, f.pub.userEvents(creator), 1)
	require.Len(t, f.pub.userEvents(admin), 1)
	assert.Equal(t, bus.EventJoinRequestCreated, f.pub.userEvents(creator)[0].Type)
	assert.Empty(t, f.pub.userEvents(member))
	assert.Empty(t, f.pub.communityEvents(c.ID))

	// Rejection reaches the requester only, and nothing is broadcast.
	_, err = f.joinRequests.Resolve(ctx, admin, c.ID, r.ID, false)
	require.NoError(t, err)

	rejected := f.pub.userEvents(requester)
	require.Len(t, rejected, 1)
	assert.Equal(t, bus.EventRequestRejected, rejected[0].Type)
	assert.Empty(t, f.pub.communityEvents(c.ID))
}
