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

func TestJoinOpenCommunity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	user := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())

	member, err := f.memberships.Join(ctx, user, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)
	assert.Equal(t, user, member.UserID)

	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventMemberJoined, events[0].Type)

	// Joining twice is a conflict, not a second row.
	_, err = f.memberships.Join(ctx, user, c.ID)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindConflict, kind)
	assert.Equal(t, service.ReasonAlreadyMember, reason)

	members, err := f.store.Members().List(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestJoinGatedCommunityRedirectsToRequestQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.newCommunity(t, uuid.New(), true, models.DefaultSettings())

	_, err := f.memberships.Join(ctx, uuid.New(), c.ID)
	kind, _ := kindOf(t, err)
	assert.Equal(t, service.KindInvalidState, kind)

	// A public community with require_approval set behaves the same.
	settings := models.DefaultSettings()
	settings.RequireApproval = true
	gated := f.newCommunity(t, uuid.New(), false, settings)

	_, err = f.memberships.Join(ctx, uuid.New(), gated.ID)
	kind, _ = kindOf(t, err)
	assert.Equal(t, service.KindInvalidState, kind)
}

func TestCreatorCannotLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())

	err := f.memberships.Leave(ctx, creator, c.ID)
	kind, _ := kindOf(t, err)
	assert.Equal(t, service.KindInvalidState, kind)
}

func TestLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.newCommunity(t, uuid.New(), false, models.DefaultSettings())
	user := uuid.New()
	f.addMember(t, c.ID, user, models.RoleMember)

	require.NoError(t, f.memberships.Leave(ctx, user, c.ID))

	got, err := f.store.Members().Get(ctx, c.ID, user)
	require.NoError(t, err)
	assert.Nil(t, got)

	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventMemberLeft, events[0].Type)

	// Leaving again: no membership to remove.
	err = f.memberships.Leave(ctx, user, c.ID)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "NOT_MEMBER", reason)
}

func TestChangeRoleByCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	target := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())
	f.addMember(t, c.ID, target, models.RoleMember)

	updated, err := f.memberships.ChangeRole(ctx, creator, c.ID, target, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventRoleChanged, events[0].Type)
}

func TestAdminCannotMintAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := uuid.New()
	target := uuid.New()
	c := f.newCommunity(t, uuid.New(), false, models.DefaultSettings())
	f.addMember(t, c.ID, admin, models.RoleAdmin)
	f.addMember(t, c.ID, target, models.RoleMember)

	_, err := f.memberships.ChangeRole(ctx, admin, c.ID, target, models.RoleAdmin)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "INSUFFICIENT_ROLE", reason)

	// Promoting to moderator stays within the admin's reach.
	updated, err := f.memberships.ChangeRole(ctx, admin, c.ID, target, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)
}

func TestChangeOwnRoleDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := uuid.New()
	c := f.newCommunity(t, uuid.New(), false, models.DefaultSettings())
	f.addMember(t, c.ID, admin, models.RoleAdmin)

	_, err := f.memberships.ChangeRole(ctx, admin, c.ID, admin, models.RoleMember)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "CANNOT_TARGET_SELF_ROLE", reason)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	admin := uuid.New()
	peer := uuid.New()
	member := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())
	f.addMember(t, c.ID, admin, models.RoleAdmin)
	f.addMember(t, c.ID, peer, models.RoleAdmin)
	f.addMember(t, c.ID, member, models.RoleMember)

	// The creator is untouchable, by anyone.
	err := f.memberships.Remove(ctx, admin, c.ID, creator)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "CANNOT_TARGET_SELF_ROLE", reason)

	// An admin cannot remove a peer admin.
	err = f.memberships.Remove(ctx, admin, c.ID, peer)
	kind, _ = kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)

	// But removing a plain member works and fans out.
	require.NoError(t, f.memberships.Remove(ctx, admin, c.ID, member))
	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventMemberRemoved, events[0].Type)

	// The creator can remove an admin.
	require.NoError(t, f.memberships.Remove(ctx, creator, c.ID, peer))
}

func TestCommunityDeleteIsCreatorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	admin := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())
	f.addMember(t, c.ID, admin, models.RoleAdmin)

	err := f.communities.Delete(ctx, admin, c.ID)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "INSUFFICIENT_ROLE", reason)

	require.NoError(t, f.communities.Delete(ctx, creator, c.ID))

	_, err = f.communities.Get(ctx, c.ID)
	kind, _ = kindOf(t, err)
	assert.Equal(t, service.KindNotFound, kind)
}

func TestPrivateRosterIsMembersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	member := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())
	f.addMember(t, c.ID, member, models.RoleMember)

	_, err := f.communities.ListMembers(ctx, uuid.New(), c.ID)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "NOT_MEMBER", reason)

	roster, err := f.communities.ListMembers(ctx, member, c.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}
