package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/huddle/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

func (s *MembershipStore) Add(ctx context.Context, m *models.Member) (bool, error) {
	// ON CONFLICT DO NOTHING keeps the (community_id, user_id) primary key
	// as the single source of truth for "is already a member": a lost race
	// between two joins surfaces as inserted=false, not as a constraint
	// error.
	query := `
		INSERT INTO members (community_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (community_id, user_id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query, m.CommunityID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *MembershipStore) Remove(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM members
		WHERE community_id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, communityID, userID)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *MembershipStore) Get(ctx context.Context, communityID, userID uuid.UUID) (*models.Member, error) {
	query := `
		SELECT community_id, user_id, role, joined_at
		FROM members
		WHERE community_id = $1 AND user_id = $2`

	var m models.Member
	err := s.pool.QueryRow(ctx, query, communityID, userID).Scan(
		&m.CommunityID,
		&m.UserID,
		&m.Role,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (s *MembershipStore) List(ctx context.Context, communityID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT community_id, user_id, role, joined_at
		FROM members
		WHERE community_id = $1
		ORDER BY joined_at ASC`

	rows, err := s.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.CommunityID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

func (s *MembershipStore) CompareAndSwapRole(ctx context.Context, communityID, userID uuid.UUID, from, to models.Role) (bool, error) {
	// The role predicate makes the update an optimistic check: the caller
	// authorized against the role it read, and if someone changed it in
	// between, zero rows match and the caller must re-read.
	query := `
		UPDATE members
		SET role = $4
		WHERE community_id = $1 AND user_id = $2 AND role = $3`

	tag, err := s.pool.Exec(ctx, query, communityID, userID, from, to)
	if err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
