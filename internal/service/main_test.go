package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/bus"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository/memory"
	"github.com/lalith-99/huddle/internal/service"
)

// recordingPublisher captures published events per channel so tests can
// assert on the fan-out contract without redis.
type recordingPublisher struct {
	mu        sync.Mutex
	community map[uuid.UUID][]bus.Event
	user      map[uuid.UUID][]bus.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		community: make(map[uuid.UUID][]bus.Event),
		user:      make(map[uuid.UUID][]bus.Event),
	}
}

func (p *recordingPublisher) PublishCommunity(_ context.Context, communityID uuid.UUID, ev bus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.community[communityID] = append(p.community[communityID], ev)
	return nil
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uuid.UUID, ev bus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user[userID] = append(p.user[userID], ev)
	return nil
}

func (p *recordingPublisher) communityEvents(id uuid.UUID) []bus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bus.Event(nil), p.community[id]...)
}

func (p *recordingPublisher) userEvents(id uuid.UUID) []bus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bus.Event(nil), p.user[id]...)
}

type fixture struct {
	store *memory.Store
	pub   *recordingPublisher

	communities  *service.CommunityService
	memberships  *service.MembershipService
	joinRequests *service.JoinRequestService
	posts        *service.PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	pub := newRecordingPublisher()
	logger := zap.NewNop()

	return &fixture{
		store: store,
		pub:   pub,
		communities: service.NewCommunityService(
			store.Communities(), store.Members(), logger),
		memberships: service.NewMembershipService(
			store.Communities(), store.Members(), pub, logger),
		joinRequests: service.NewJoinRequestService(
			store.Communities(), store.Members(), store.JoinRequests(), pub, logger),
		posts: service.NewPostService(
			store.Communities(), store.Members(), store.Posts(), pub, logger),
	}
}

// newCommunity seeds a community directly through the store.
func (f *fixture) newCommunity(t *testing.T, creatorID uuid.UUID, isPrivate bool, settings models.CommunitySettings) *models.Community {
	t.Helper()

	c, err := f.store.Communities().Create(context.Background(), &models.Community{
		Name:      "test community",
		Category:  "running",
		IsPrivate: isPrivate,
		CreatorID: creatorID,
		Settings:  settings,
	})
	if err != nil {
		t.Fatalf("seed community: %v", err)
	}
	return c
}

// addMember seeds a member row directly, bypassing the join workflow.
func (f *fixture) addMember(t *testing.T, communityID, userID uuid.UUID, role models.Role) {
	t.Helper()

	inserted, err := f.store.Members().Add(context.Background(), &models.Member{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    time.Now().UTC(),
	})
	if err != nil || !inserted {
		t.Fatalf("seed member: inserted=%v err=%v", inserted, err)
	}
}

// kindOf unwraps a service error kind, failing the test on anything else.
func kindOf(t *testing.T, err error) (service.Kind, string) {
	t.Helper()

	se, ok := err.(*service.Error)
	if !ok {
		t.Fatalf("expected *service.Error, got %T: %v", err, err)
	}
	return se.Kind, se.Reason
}
