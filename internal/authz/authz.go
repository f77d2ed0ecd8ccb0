// Package authz is the pure decision layer: given an actor's resolved role
// and the community settings, it answers allow/deny for every mutating
// action. It holds no state and does no I/O, so every rule is unit-testable
// without a store.
package authz

import (
	"github.com/lalith-99/huddle/internal/models"
)

// Action is a gated operation on a community.
type Action string

const (
	ActionDeleteCommunity    Action = "deleteCommunity"
	ActionEditCommunity      Action = "editCommunity"
	ActionManageMembers      Action = "manageMembers"
	ActionReviewJoinRequests Action = "reviewJoinRequests"
	ActionModerateContent    Action = "moderateContent"
	ActionCreatePost         Action = "createPost"
	ActionComment            Action = "comment"
	ActionLike               Action = "like"
)

// Reason tags a denial so the caller can render the right message.
type Reason string

const (
	ReasonNotMember        Reason = "NOT_MEMBER"
	ReasonInsufficientRole Reason = "INSUFFICIENT_ROLE"
	ReasonCannotTargetRole Reason = "CANNOT_TARGET_SELF_ROLE"
	ReasonSettingDisabled  Reason = "SETTING_DISABLED"
)

// Decision is the authorizer's verdict. Reason is set only on denial.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Authorize gates a non-targeted action for an actor whose role in the
// community has already been resolved.
//
// Member-level actions are additionally gated by the community settings,
// but only for plain members: moderators and above are not subject to the
// feature switches they can themselves moderate around.
func Authorize(actor models.Role, action Action, settings models.CommunitySettings) Decision {
	if actor == models.RoleNone {
		return deny(ReasonNotMember)
	}

	switch action {
	case ActionDeleteCommunity:
		if actor == models.RoleCreator {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case ActionEditCommunity, ActionManageMembers, ActionReviewJoinRequests:
		if actor.Rank() >= models.RoleAdmin.Rank() {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case ActionModerateContent:
		if actor.Rank() >= models.RoleModerator.Rank() {
			return allow()
		}
		return deny(ReasonInsufficientRole)

	case ActionCreatePost:
		if actor == models.RoleMember && !settings.AllowMemberPosts {
			return deny(ReasonSettingDisabled)
		}
		return allow()

	case ActionComment, ActionLike:
		if actor == models.RoleMember && !settings.AllowDiscussions {
			return deny(ReasonSettingDisabled)
		}
		return allow()
	}

	return deny(ReasonInsufficientRole)
}

// CanChangeRole gates promote/demote of target to newRole by actor.
//
// Invariants enforced:
//   - the creator's role is immutable, it is never a valid target;
//   - the actor must strictly outrank the target's current role;
//   - the actor must strictly outrank the new role, unless the actor is the
//     creator. This is what stops an admin minting another admin: only the
//     creator outranks admin.
func CanChangeRole(actor, target, newRole models.Role) Decision {
	if actor.Rank() < models.RoleAdmin.Rank() {
		return deny(ReasonInsufficientRole)
	}
	if target == models.RoleCreator {
		return deny(ReasonCannotTargetRole)
	}
	if !actor.Outranks(target) {
		return deny(ReasonCannotTargetRole)
	}
	if actor != models.RoleCreator && !actor.Outranks(newRole) {
		return deny(ReasonInsufficientRole)
	}
	return allow()
}

// CanRemove gates removal of target from the community by actor.
//
// The creator cannot be removed by anyone. Admins can remove moderators and
// members but not other admins; only the creator outranks an admin.
// Moderators cannot remove anyone.
func CanRemove(actor, target models.Role) Decision {
	if target == models.RoleCreator {
		return deny(ReasonCannotTargetRole)
	}
	if actor.Rank() < models.RoleAdmin.Rank() {
		return deny(ReasonInsufficientRole)
	}
	if !actor.Outranks(target) {
		return deny(ReasonCannotTargetRole)
	}
	return allow()
}
