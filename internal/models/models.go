package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's standing inside one community.
//
// The ranking is a total order: creator > admin > moderator > member > none.
// Every mutating operation is gated by comparing ranks, so a request resolves
// the actor's role exactly once instead of re-deriving it from id sets at
// each check.
type Role string

const (
	RoleNone      Role = ""
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleCreator   Role = "creator"
)

var roleRank = map[Role]int{
	RoleNone:      0,
	RoleMember:    1,
	RoleModerator: 2,
	RoleAdmin:     3,
	RoleCreator:   4,
}

// Rank returns the role's position in the total order. Unknown roles rank
// as none.
func (r Role) Rank() int {
	return roleRank[r]
}

// Outranks reports whether r is strictly above other.
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// ValidMemberRole reports whether r may be stored on a Member row.
// The creator role is implicit on the community and never stored per member.
func ValidMemberRole(r Role) bool {
	return r == RoleMember || r == RoleModerator || r == RoleAdmin
}

// User is a registered account. Communities reference users by id only.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommunitySettings are the per-community feature switches that gate
// member-level actions.
type CommunitySettings struct {
	AllowMemberPosts bool `json:"allow_member_posts"`
	RequireApproval  bool `json:"require_approval"`
	AllowEvents      bool `json:"allow_events"`
	AllowDiscussions bool `json:"allow_discussions"`
}

// DefaultSettings is what a freshly created community starts with.
func DefaultSettings() CommunitySettings {
	return CommunitySettings{
		AllowMemberPosts: true,
		RequireApproval:  false,
		AllowEvents:      true,
		AllowDiscussions: true,
	}
}

// Community is a named group owning members, join requests and posts.
//
// CreatorID is immutable and never appears in the member table: the creator
// role is implicit and supersedes all stored roles. A user id appears in the
// member table at most once, so the admin/moderator/member sets are disjoint
// by construction.
type Community struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	IsPrivate bool              `json:"is_private"`
	CreatorID uuid.UUID         `json:"creator_id"`
	Settings  CommunitySettings `json:"settings"`
	CreatedAt time.Time         `json:"created_at"`
}

// Member is one user's membership row in one community.
// JoinedAt is set once when the membership is created and never updated,
// including across promote/demote.
type Member struct {
	CommunityID uuid.UUID `json:"community_id"`
	UserID      uuid.UUID `json:"user_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// JoinRequestStatus is the lifecycle of a private-community join request.
// Resolution is terminal: an approved or rejected request is never reopened,
// a new request must be created to retry.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a pending ask to join a private community. Rows are an
// audit trail and are never deleted; only the status transitions.
type JoinRequest struct {
	ID          uuid.UUID         `json:"id"`
	CommunityID uuid.UUID         `json:"community_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Message     string            `json:"message,omitempty"`
	Status      JoinRequestStatus `json:"status"`
	RequestedAt time.Time         `json:"requested_at"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy  *uuid.UUID        `json:"resolved_by,omitempty"`
}

// Post is a community post. LikeCount is denormalized alongside the
// post_likes rows; liking is an idempotent toggle on that set.
type Post struct {
	ID          uuid.UUID `json:"id"`
	CommunityID uuid.UUID `json:"community_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Content     string    `json:"content"`
	Images      []string  `json:"images,omitempty"`
	LikeCount   int64     `json:"like_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Comment is a single comment under a post.
//
// Comments use bigserial ids, not UUIDs: they are the highest-volume rows,
// and the monotonically increasing id doubles as the pagination cursor.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
