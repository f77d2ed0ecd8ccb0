// Package memory is an in-memory implementation of the repository
// interfaces. It backs unit tests and local development without Postgres.
// A single RWMutex serializes all mutations, which is strictly stronger
// than the per-community serialization the service relies on.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	communities map[uuid.UUID]models.Community
	members     map[uuid.UUID]map[uuid.UUID]models.Member
	requests    map[uuid.UUID]models.JoinRequest
	posts       map[uuid.UUID]models.Post
	likes       map[uuid.UUID]map[uuid.UUID]struct{}
	comments    map[int64]models.Comment
	users       map[uuid.UUID]models.User

	nextCommentID int64
	lastRequest   time.Time
}

// requestClock returns a strictly increasing timestamp so FIFO ordering of
// the pending queue is deterministic even when submits land within the
// clock's resolution. Callers must hold mu.
func (s *Store) requestClock() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastRequest) {
		now = s.lastRequest.Add(time.Nanosecond)
	}
	s.lastRequest = now
	return now
}

func New() *Store {
	return &Store{
		communities: make(map[uuid.UUID]models.Community),
		members:     make(map[uuid.UUID]map[uuid.UUID]models.Member),
		requests:    make(map[uuid.UUID]models.JoinRequest),
		posts:       make(map[uuid.UUID]models.Post),
		likes:       make(map[uuid.UUID]map[uuid.UUID]struct{}),
		comments:    make(map[int64]models.Comment),
		users:       make(map[uuid.UUID]models.User),
	}
}

// Each accessor exposes one repository interface over the shared state.

func (s *Store) Communities() *CommunityStore    { return &CommunityStore{s} }
func (s *Store) Members() *MembershipStore       { return &MembershipStore{s} }
func (s *Store) JoinRequests() *JoinRequestStore { return &JoinRequestStore{s} }
func (s *Store) Posts() *PostStore               { return &PostStore{s} }
func (s *Store) Users() *UserStore               { return &UserStore{s} }

// ---------------------------------------------------------------
// Communities
// ---------------------------------------------------------------

type CommunityStore struct{ s *Store }

var _ repository.CommunityRepository = (*CommunityStore)(nil)

func (c *CommunityStore) Create(ctx context.Context, in *models.Community) (*models.Community, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	created := *in
	created.ID = uuid.New()
	created.CreatedAt = time.Now().UTC()
	c.s.communities[created.ID] = created
	return &created, nil
}

func (c *CommunityStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	found, ok := c.s.communities[id]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (c *CommunityStore) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	all := make([]models.Community, 0, len(c.s.communities))
	for _, cm := range c.s.communities {
		all = append(all, cm)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []models.Community{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (c *CommunityStore) UpdateSettings(ctx context.Context, id uuid.UUID, settings models.CommunitySettings) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	found, ok := c.s.communities[id]
	if !ok {
		return false, nil
	}
	found.Settings = settings
	c.s.communities[id] = found
	return true, nil
}

func (c *CommunityStore) Update(ctx context.Context, in *models.Community) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	found, ok := c.s.communities[in.ID]
	if !ok {
		return false, nil
	}
	found.Name = in.Name
	found.Category = in.Category
	found.IsPrivate = in.IsPrivate
	c.s.communities[in.ID] = found
	return true, nil
}

func (c *CommunityStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.communities[id]; !ok {
		return false, nil
	}
	delete(c.s.communities, id)
	delete(c.s.members, id)

	for rid, r := range c.s.requests {
		if r.CommunityID == id {
			delete(c.s.requests, rid)
		}
	}
	for pid, p := range c.s.posts {
		if p.CommunityID == id {
			delete(c.s.posts, pid)
			delete(c.s.likes, pid)
			for cid, cm := range c.s.comments {
				if cm.PostID == pid {
					delete(c.s.comments, cid)
				}
			}
		}
	}
	return true, nil
}

// ---------------------------------------------------------------
// Members
// ---------------------------------------------------------------

type MembershipStore struct{ s *Store }

var _ repository.MembershipRepository = (*MembershipStore)(nil)

func (m *MembershipStore) Add(ctx context.Context, in *models.Member) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	byUser, ok := m.s.members[in.CommunityID]
	if !ok {
		byUser = make(map[uuid.UUID]models.Member)
		m.s.members[in.CommunityID] = byUser
	}
	if _, exists := byUser[in.UserID]; exists {
		return false, nil
	}
	byUser[in.UserID] = *in
	return true, nil
}

func (m *MembershipStore) Remove(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	byUser, ok := m.s.members[communityID]
	if !ok {
		return false, nil
	}
	if _, exists := byUser[userID]; !exists {
		return false, nil
	}
	delete(byUser, userID)
	return true, nil
}

func (m *MembershipStore) Get(ctx context.Context, communityID, userID uuid.UUID) (*models.Member, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	found, ok := m.s.members[communityID][userID]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (m *MembershipStore) List(ctx context.Context, communityID uuid.UUID) ([]models.Member, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	members := make([]models.Member, 0, len(m.s.members[communityID]))
	for _, mem := range m.s.members[communityID] {
		members = append(members, mem)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (m *MembershipStore) CompareAndSwapRole(ctx context.Context, communityID, userID uuid.UUID, from, to models.Role) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	found, ok := m.s.members[communityID][userID]
	if !ok || found.Role != from {
		return false, nil
	}
	found.Role = to
	m.s.members[communityID][userID] = found
	return true, nil
}

// ---------------------------------------------------------------
// Join requests
// ---------------------------------------------------------------

type JoinRequestStore struct{ s *Store }

var _ repository.JoinRequestRepository = (*JoinRequestStore)(nil)

func (j *JoinRequestStore) Create(ctx context.Context, in *models.JoinRequest) (*models.JoinRequest, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()

	for _, r := range j.s.requests {
		if r.CommunityID == in.CommunityID && r.UserID == in.UserID && r.Status == models.JoinRequestPending {
			return nil, repository.ErrDuplicate
		}
	}

	created := *in
	created.ID = uuid.New()
	created.Status = models.JoinRequestPending
	created.RequestedAt = j.s.requestClock()
	j.s.requests[created.ID] = created
	return &created, nil
}

func (j *JoinRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()

	found, ok := j.s.requests[id]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (j *JoinRequestStore) ListPending(ctx context.Context, communityID uuid.UUID) ([]models.JoinRequest, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()

	pending := make([]models.JoinRequest, 0)
	for _, r := range j.s.requests {
		if r.CommunityID == communityID && r.Status == models.JoinRequestPending {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].RequestedAt.Before(pending[j].RequestedAt) })
	return pending, nil
}

func (j *JoinRequestStore) Approve(ctx context.Context, requestID, resolverID uuid.UUID, now time.Time) (*models.Member, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()

	r, ok := j.s.requests[requestID]
	if !ok || r.Status != models.JoinRequestPending {
		return nil, repository.ErrNotPending
	}

	r.Status = models.JoinRequestApproved
	r.ResolvedAt = &now
	r.ResolvedBy = &resolverID
	j.s.requests[requestID] = r

	byUser, ok := j.s.members[r.CommunityID]
	if !ok {
		byUser = make(map[uuid.UUID]models.Member)
		j.s.members[r.CommunityID] = byUser
	}
	member, exists := byUser[r.UserID]
	if !exists {
		member = models.Member{
			CommunityID: r.CommunityID,
			UserID:      r.UserID,
			Role:        models.RoleMember,
			JoinedAt:    now,
		}
		byUser[r.UserID] = member
	}
	return &member, nil
}

func (j *JoinRequestStore) Reject(ctx context.Context, requestID, resolverID uuid.UUID, now time.Time) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()

	r, ok := j.s.requests[requestID]
	if !ok || r.Status != models.JoinRequestPending {
		return repository.ErrNotPending
	}

	r.Status = models.JoinRequestRejected
	r.ResolvedAt = &now
	r.ResolvedBy = &resolverID
	j.s.requests[requestID] = r
	return nil
}

// ---------------------------------------------------------------
// Posts
// ---------------------------------------------------------------

type PostStore struct{ s *Store }

var _ repository.PostRepository = (*PostStore)(nil)

func (p *PostStore) Create(ctx context.Context, in *models.Post) (*models.Post, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	created := *in
	created.ID = uuid.New()
	created.CreatedAt = time.Now().UTC()
	created.LikeCount = 0
	p.s.posts[created.ID] = created
	return &created, nil
}

func (p *PostStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	found, ok := p.s.posts[id]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (p *PostStore) ListByCommunity(ctx context.Context, communityID uuid.UUID, before time.Time, limit int) ([]models.Post, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	posts := make([]models.Post, 0)
	for _, post := range p.s.posts {
		if post.CommunityID != communityID {
			continue
		}
		if !before.IsZero() && !post.CreatedAt.Before(before) {
			continue
		}
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (p *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.posts[id]; !ok {
		return false, nil
	}
	delete(p.s.posts, id)
	delete(p.s.likes, id)
	for cid, cm := range p.s.comments {
		if cm.PostID == id {
			delete(p.s.comments, cid)
		}
	}
	return true, nil
}

func (p *PostStore) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int64, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	post, ok := p.s.posts[postID]
	if !ok {
		return false, 0, nil
	}

	set, ok := p.s.likes[postID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		p.s.likes[postID] = set
	}

	var liked bool
	if _, has := set[userID]; has {
		delete(set, userID)
		post.LikeCount--
	} else {
		set[userID] = struct{}{}
		post.LikeCount++
		liked = true
	}
	p.s.posts[postID] = post
	return liked, post.LikeCount, nil
}

func (p *PostStore) AddComment(ctx context.Context, in *models.Comment) (*models.Comment, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	p.s.nextCommentID++
	created := *in
	created.ID = p.s.nextCommentID
	created.CreatedAt = time.Now().UTC()
	p.s.comments[created.ID] = created
	return &created, nil
}

func (p *PostStore) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	found, ok := p.s.comments[id]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (p *PostStore) ListComments(ctx context.Context, postID uuid.UUID, after int64, limit int) ([]models.Comment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, c := range p.s.comments {
		if c.PostID == postID && c.ID > after {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	if limit < len(comments) {
		comments = comments[:limit]
	}
	return comments, nil
}

func (p *PostStore) DeleteComment(ctx context.Context, id int64) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.comments[id]; !ok {
		return false, nil
	}
	delete(p.s.comments, id)
	return true, nil
}

// ---------------------------------------------------------------
// Users
// ---------------------------------------------------------------

type UserStore struct{ s *Store }

var _ repository.UserRepository = (*UserStore)(nil)

func (u *UserStore) Create(ctx context.Context, email, displayName, passwordHash string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.Email == email {
			return nil, repository.ErrDuplicate
		}
	}

	created := models.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	u.s.users[created.ID] = created
	return &created, nil
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	found, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, usr := range u.s.users {
		if usr.Email == email {
			found := usr
			return &found, nil
		}
	}
	return nil, nil
}
