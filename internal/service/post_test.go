package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/service"
)

func TestSettingGateFlip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	member := uuid.New()
	settings := models.DefaultSettings()
	settings.AllowMemberPosts = false
	c := f.newCommunity(t, creator, true, settings)
	f.addMember(t, c.ID, member, models.RoleMember)

	_, err := f.posts.Create(ctx, member, c.ID, "first post", nil)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "SETTING_DISABLED", reason)

	// The creator flips the switch; the same call now succeeds and fans out.
	settings.AllowMemberPosts = true
	_, err = f.communities.UpdateSettings(ctx, creator, c.ID, settings)
	require.NoError(t, err)

	post, err := f.posts.Create(ctx, member, c.ID, "first post", nil)
	require.NoError(t, err)
	assert.Equal(t, member, post.AuthorID)

	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 1)
	assert.Equal(t, bus.EventPostCreated, events[0].Type)
}

func TestSettingGateSkipsModerators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	moderator := uuid.New()
	settings := models.DefaultSettings()
	settings.AllowMemberPosts = false
	c := f.newCommunity(t, uuid.New(), false, settings)
	f.addMember(t, c.ID, moderator, models.RoleModerator)

	_, err := f.posts.Create(ctx, moderator, c.ID, "mod post", nil)
	require.NoError(t, err)
}

func TestNonMemberCannotPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.newCommunity(t, uuid.New(), false, models.DefaultSettings())

	_, err := f.posts.Create(ctx, uuid.New(), c.ID, "hello", nil)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "NOT_MEMBER", reason)
}

func TestLikeIsAToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	member := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())
	f.addMember(t, c.ID, member, models.RoleMember)

	post, err := f.posts.Create(ctx, creator, c.ID, "race day", nil)
	require.NoError(t, err)

	liked, count, err := f.posts.ToggleLike(ctx, member, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	// Second like toggles off, third round-trips back to liked.
	liked, count, err = f.posts.ToggleLike(ctx, member, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)

	liked, count, err = f.posts.ToggleLike(ctx, member, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	events := f.pub.communityEvents(c.ID)
	require.Len(t, events, 4)
	assert.Equal(t, bus.EventPostLiked, events[3].Type)
}

func TestDeletePostAuthorOrModerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	author := uuid.New()
	other := uuid.New()
	moderator := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())
	f.addMember(t, c.ID, author, models.RoleMember)
	f.addMember(t, c.ID, other, models.RoleMember)
	f.addMember(t, c.ID, moderator, models.RoleModerator)

	post, err := f.posts.Create(ctx, author, c.ID, "delete me", nil)
	require.NoError(t, err)

	err = f.posts.Delete(ctx, other, post.ID)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "INSUFFICIENT_ROLE", reason)

	require.NoError(t, f.posts.Delete(ctx, moderator, post.ID))

	// Authors always delete their own.
	post, err = f.posts.Create(ctx, author, c.ID, "mine", nil)
	require.NoError(t, err)
	require.NoError(t, f.posts.Delete(ctx, author, post.ID))
}

func TestCommentsOrderedByCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	c := f.newCommunity(t, creator, false, models.DefaultSettings())

	post, err := f.posts.Create(ctx, creator, c.ID, "comment here", nil)
	require.NoError(t, err)

	first, err := f.posts.AddComment(ctx, creator, post.ID, "one")
	require.NoError(t, err)
	second, err := f.posts.AddComment(ctx, creator, post.ID, "two")
	require.NoError(t, err)

	all, err := f.posts.ListComments(ctx, creator, post.ID, 0, 50)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	tail, err := f.posts.ListComments(ctx, creator, post.ID, first.ID, 50)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, second.ID, tail[0].ID)
}

func TestPrivateContentIsMembersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := uuid.New()
	c := f.newCommunity(t, creator, true, models.DefaultSettings())

	_, err := f.posts.Create(ctx, creator, c.ID, "members only", nil)
	require.NoError(t, err)

	_, err = f.posts.List(ctx, uuid.New(), c.ID, time.Time{}, 20)
	kind, reason := kindOf(t, err)
	assert.Equal(t, service.KindUnauthorized, kind)
	assert.Equal(t, "NOT_MEMBER", reason)

	posts, err := f.posts.List(ctx, creator, c.ID, time.Time{}, 20)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
