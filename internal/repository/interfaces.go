package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/huddle/internal/models"
)

// Sentinel errors shared by every implementation. The service layer maps
// them onto its Conflict kinds; handlers never see them directly.
var (
	// ErrDuplicate is returned when an insert hits a uniqueness invariant,
	// e.g. a second pending join request for the same (community, user).
	ErrDuplicate = errors.New("duplicate row")

	// ErrNotPending is returned when resolving a join request that is no
	// longer pending. Resolution is terminal; whichever resolver loses the
	// race gets this error instead of a double-applied decision.
	ErrNotPending = errors.New("join request not pending")
)

// Lookup methods return (nil, nil) when the row is absent; callers translate
// that to NotFound. Errors are reserved for the store actually failing.

// CommunityRepository owns the community rows and their settings.
type CommunityRepository interface {
	Create(ctx context.Context, c *models.Community) (*models.Community, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)

	// List returns communities newest-first.
	List(ctx context.Context, limit, offset int) ([]models.Community, error)

	// UpdateSettings replaces the settings block. Returns false when the
	// community does not exist.
	UpdateSettings(ctx context.Context, id uuid.UUID, s models.CommunitySettings) (bool, error)

	// Update replaces the mutable metadata (name, category, privacy).
	Update(ctx context.Context, c *models.Community) (bool, error)

	// Delete removes the community and cascades members, join requests and
	// posts. Returns false when nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// MembershipRepository owns the member rows of every community.
type MembershipRepository interface {
	// Add inserts a membership. Returns false without error when the user
	// is already a member — the primary key makes double-join a no-op, and
	// the caller decides whether that is a conflict.
	Add(ctx context.Context, m *models.Member) (bool, error)

	// Remove deletes a membership. Returns false when there was none.
	Remove(ctx context.Context, communityID, userID uuid.UUID) (bool, error)

	Get(ctx context.Context, communityID, userID uuid.UUID) (*models.Member, error)

	// List returns members oldest-joined first.
	List(ctx context.Context, communityID uuid.UUID) ([]models.Member, error)

	// CompareAndSwapRole updates the role only if the current role still
	// matches from. A false return means the snapshot the caller authorized
	// against is stale — two concurrent promotions cannot both win.
	CompareAndSwapRole(ctx context.Context, communityID, userID uuid.UUID, from, to models.Role) (bool, error)
}

// JoinRequestRepository owns the pending-request queue of private
// communities. Requests are audit rows: resolution flips status, never
// deletes.
type JoinRequestRepository interface {
	// Create enqueues a pending request. Returns ErrDuplicate when a
	// pending request for the same (community, user) already exists.
	Create(ctx context.Context, r *models.JoinRequest) (*models.JoinRequest, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error)

	// ListPending returns pending requests oldest-first; reviewers work the
	// queue in FIFO order.
	ListPending(ctx context.Context, communityID uuid.UUID) ([]models.JoinRequest, error)

	// Approve atomically marks the request approved and creates the member
	// row with role=member. Returns ErrNotPending when the request was
	// already resolved.
	Approve(ctx context.Context, requestID, resolverID uuid.UUID, now time.Time) (*models.Member, error)

	// Reject marks the request rejected. Returns ErrNotPending when the
	// request was already resolved.
	Reject(ctx context.Context, requestID, resolverID uuid.UUID, now time.Time) error
}

// PostRepository owns posts, their likes and their comments.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)

	// ListByCommunity returns posts newest-first. A zero before means
	// "from the top"; otherwise only posts created strictly before it are
	// returned.
	ListByCommunity(ctx context.Context, communityID uuid.UUID, before time.Time, limit int) ([]models.Post, error)

	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// ToggleLike flips userID's membership in the post's liked-by set and
	// returns the resulting state plus the new count. Toggling twice is a
	// net no-op.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (liked bool, count int64, err error)

	AddComment(ctx context.Context, c *models.Comment) (*models.Comment, error)

	GetComment(ctx context.Context, id int64) (*models.Comment, error)

	// ListComments returns comments oldest-first. after=0 means from the
	// start; otherwise only comments with id greater than after are
	// returned.
	ListComments(ctx context.Context, postID uuid.UUID, after int64, limit int) ([]models.Comment, error)

	DeleteComment(ctx context.Context, id int64) (bool, error)
}

// UserRepository owns account rows.
type UserRepository interface {
	Create(ctx context.Context, email, displayName, passwordHash string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
