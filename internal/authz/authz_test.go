package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lalith-99/huddle/internal/models"
)

func TestAuthorize_RoleLadder(t *testing.T) {
	settings := models.DefaultSettings()

	// deleteCommunity is creator-only.
	assert.True(t, Authorize(models.RoleCreator, ActionDeleteCommunity, settings).Allowed)
	d := Authorize(models.RoleAdmin, ActionDeleteCommunity, settings)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInsufficientRole, d.Reason)

	// admin-level actions.
	for _, action := range []Action{ActionEditCommunity, ActionManageMembers, ActionReviewJoinRequests} {
		assert.True(t, Authorize(models.RoleCreator, action, settings).Allowed)
		assert.True(t, Authorize(models.RoleAdmin, action, settings).Allowed)
		assert.False(t, Authorize(models.RoleModerator, action, settings).Allowed)
		assert.False(t, Authorize(models.RoleMember, action, settings).Allowed)
	}

	// moderation includes moderators.
	assert.True(t, Authorize(models.RoleModerator, ActionModerateContent, settings).Allowed)
	assert.False(t, Authorize(models.RoleMember, ActionModerateContent, settings).Allowed)
}

func TestAuthorize_NonMemberDenied(t *testing.T) {
	for _, action := range []Action{ActionCreatePost, ActionComment, ActionLike, ActionEditCommunity} {
		d := Authorize(models.RoleNone, action, models.DefaultSettings())
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNotMember, d.Reason)
	}
}

func TestAuthorize_SettingGatesMembersOnly(t *testing.T) {
	settings := models.DefaultSettings()
	settings.AllowMemberPosts = false
	settings.AllowDiscussions = false

	d := Authorize(models.RoleMember, ActionCreatePost, settings)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSettingDisabled, d.Reason)

	d = Authorize(models.RoleMember, ActionComment, settings)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonSettingDisabled, d.Reason)

	// Moderators and above are not gated by the switches.
	assert.True(t, Authorize(models.RoleModerator, ActionCreatePost, settings).Allowed)
	assert.True(t, Authorize(models.RoleCreator, ActionCreatePost, settings).Allowed)

	// Flipping the switch back re-enables members.
	settings.AllowMemberPosts = true
	assert.True(t, Authorize(models.RoleMember, ActionCreatePost, settings).Allowed)
}

func TestCanChangeRole_AdminCannotMintAdmin(t *testing.T) {
	d := CanChangeRole(models.RoleAdmin, models.RoleMember, models.RoleAdmin)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonInsufficientRole, d.Reason)

	// Only the creator mints admins.
	assert.True(t, CanChangeRole(models.RoleCreator, models.RoleMember, models.RoleAdmin).Allowed)
}

func TestCanChangeRole_TargetRanking(t *testing.T) {
	// Actor must strictly outrank the target's current role.
	assert.False(t, CanChangeRole(models.RoleAdmin, models.RoleAdmin, models.RoleMember).Allowed)
	assert.True(t, CanChangeRole(models.RoleAdmin, models.RoleModerator, models.RoleMember).Allowed)
	assert.True(t, CanChangeRole(models.RoleAdmin, models.RoleMember, models.RoleModerator).Allowed)

	// The creator's role is immutable.
	d := CanChangeRole(models.RoleCreator, models.RoleCreator, models.RoleAdmin)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonCannotTargetRole, d.Reason)

	// Moderators cannot manage roles at all.
	assert.False(t, CanChangeRole(models.RoleModerator, models.RoleMember, models.RoleModerator).Allowed)
}

func TestCanRemove(t *testing.T) {
	// Nobody removes the creator.
	for _, actor := range []models.Role{models.RoleCreator, models.RoleAdmin, models.RoleModerator} {
		d := CanRemove(actor, models.RoleCreator)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonCannotTargetRole, d.Reason)
	}

	// Admin removes members and moderators, not fellow admins.
	assert.True(t, CanRemove(models.RoleAdmin, models.RoleMember).Allowed)
	assert.True(t, CanRemove(models.RoleAdmin, models.RoleModerator).Allowed)
	assert.False(t, CanRemove(models.RoleAdmin, models.RoleAdmin).Allowed)

	// Creator removes anyone below.
	assert.True(t, CanRemove(models.RoleCreator, models.RoleAdmin).Allowed)

	// Moderators cannot remove anyone.
	assert.False(t, CanRemove(models.RoleModerator, models.RoleMember).Allowed)
}
